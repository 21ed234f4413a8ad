package errors

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	// ErrorTypeValidation covers client-supplied input that fails a limit or shape check.
	ErrorTypeValidation ErrorType = "validation"

	// ErrorTypeNotFound covers lookups against a paper_id/facet/resource that does not exist.
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeFetch covers outbound static-asset fetches (summary/source proxy).
	ErrorTypeFetch ErrorType = "fetch"

	// ErrorTypeTimeout covers operations that exceeded a bounded deadline.
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeBuild covers non-fatal build-time diagnostics (identity conflicts, etc).
	ErrorTypeBuild ErrorType = "build"

	// ErrorTypeInternal covers unexpected failures with no stable user-facing code.
	ErrorTypeInternal ErrorType = "internal"
)

// Error codes named in the error handling design. These are the values the
// API surfaces verbatim in the `error` field and the MCP surface echoes in
// tool error payloads.
const (
	CodeQTooLong               = "q_too_long"
	CodePageSizeTooLarge       = "page_size_too_large"
	CodeOffsetTooLarge         = "offset_too_large"
	CodeUnknownFacet           = "unknown_facet"
	CodeInvalidProtocolVersion = "invalid_protocol_version"
	CodeOriginNotAllowed       = "origin_not_allowed"
	CodeInvalidQuery           = "invalid_query"
	CodeValidationError        = "validation_error"

	CodePaperNotFound         = "paper_not_found"
	CodeBibTeXNotFound        = "bibtex_not_found"
	CodeTemplateNotAvailable  = "template_not_available"
	CodeAssetMissing          = "asset_missing"

	CodeAssetFetchFailed  = "asset_fetch_failed"
	CodeAssetFetchTimeout = "asset_fetch_timeout"

	CodeIdentityConflict          = "identity_conflict"
	CodeMetaFingerprintDivergence = "meta_fingerprint_divergence"
	CodeTemplateTagMissing        = "template_tag_missing"
	CodeTitleCollisionBelowThreshold = "title_collision_below_threshold"

	CodeInternal = "internal_error"
)

// PaperDBError is a structured error carrying a stable code, an HTTP
// status class, and contextual identifiers for the API and MCP surfaces.
type PaperDBError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"error"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Stack      string                 `json:"-"`
	Component  string                 `json:"-"`
	Operation  string                 `json:"-"`
	Timestamp  time.Time              `json:"-"`
	RequestID  string                 `json:"-"`
	Retryable  bool                   `json:"-"`
	StatusCode int                    `json:"-"`
}

func (e *PaperDBError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Component, e.Code, e.Message)
}

func (e *PaperDBError) Is(target error) bool {
	if t, ok := target.(*PaperDBError); ok {
		return e.Code == t.Code
	}
	return false
}

func (e *PaperDBError) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the HTTP status code this error class maps to.
func (e *PaperDBError) HTTPStatus() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case ErrorTypeFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBuilder builds PaperDBError instances fluently, mirroring the
// builder style used throughout this codebase for constructing responses.
type ErrorBuilder struct {
	err *PaperDBError
}

func NewError(errorType ErrorType, code, message string) *ErrorBuilder {
	return &ErrorBuilder{
		err: &PaperDBError{
			Type:      errorType,
			Code:      code,
			Message:   message,
			Details:   make(map[string]interface{}),
			Timestamp: time.Now(),
			Retryable: errorType == ErrorTypeTimeout || errorType == ErrorTypeFetch,
		},
	}
}

func (b *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	b.err.Cause = cause
	return b
}

func (b *ErrorBuilder) WithComponent(component string) *ErrorBuilder {
	b.err.Component = component
	return b
}

func (b *ErrorBuilder) WithOperation(operation string) *ErrorBuilder {
	b.err.Operation = operation
	return b
}

func (b *ErrorBuilder) WithDetail(key string, value interface{}) *ErrorBuilder {
	b.err.Details[key] = value
	return b
}

func (b *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	b.err.RequestID = requestID
	return b
}

func (b *ErrorBuilder) WithStatusCode(statusCode int) *ErrorBuilder {
	b.err.StatusCode = statusCode
	return b
}

func (b *ErrorBuilder) WithStack() *ErrorBuilder {
	b.err.Stack = captureStack()
	return b
}

func (b *ErrorBuilder) Retryable(retryable bool) *ErrorBuilder {
	b.err.Retryable = retryable
	return b
}

func (b *ErrorBuilder) Build() *PaperDBError {
	return b.err
}

// Predefined constructors for the error kinds named in the error handling design.

func NewValidationError(code, message string) *PaperDBError {
	return NewError(ErrorTypeValidation, code, message).
		WithStatusCode(http.StatusBadRequest).
		Build()
}

func NewNotFoundError(code, message, paperID string) *PaperDBError {
	b := NewError(ErrorTypeNotFound, code, message).
		WithStatusCode(http.StatusNotFound).
		Retryable(false)
	if paperID != "" {
		b = b.WithDetail("paper_id", paperID)
	}
	return b.Build()
}

// NewTemplateNotAvailableError carries the set of templates that do exist,
// per §4.8's requirement that this error include `available_summary_templates`.
func NewTemplateNotAvailableError(paperID, template string, available []string) *PaperDBError {
	return NewError(ErrorTypeNotFound, CodeTemplateNotAvailable, fmt.Sprintf("template %q is not available for this paper", template)).
		WithStatusCode(http.StatusNotFound).
		WithDetail("paper_id", paperID).
		WithDetail("template", template).
		WithDetail("available_summary_templates", available).
		Retryable(false).
		Build()
}

func NewFetchError(code, message string, cause error) *PaperDBError {
	return NewError(ErrorTypeFetch, code, message).
		WithCause(cause).
		WithStatusCode(http.StatusBadGateway).
		Build()
}

func NewTimeoutError(operation string, timeout time.Duration) *PaperDBError {
	return NewError(ErrorTypeTimeout, CodeAssetFetchTimeout, fmt.Sprintf("operation %s timed out after %s", operation, timeout)).
		WithOperation(operation).
		WithDetail("timeout", timeout.String()).
		WithStatusCode(http.StatusGatewayTimeout).
		Build()
}

func NewDatabaseError(operation string, cause error) *PaperDBError {
	return NewError(ErrorTypeInternal, CodeInternal, "database operation failed").
		WithOperation(operation).
		WithCause(cause).
		WithComponent("snapshot").
		WithStatusCode(http.StatusInternalServerError).
		Build()
}

func NewCircuitBreakerError(name string) *PaperDBError {
	return NewError(ErrorTypeFetch, CodeAssetFetchFailed, fmt.Sprintf("circuit breaker open for %s", name)).
		WithComponent(name).
		WithStatusCode(http.StatusServiceUnavailable).
		Retryable(true).
		Build()
}

func NewInternalError(message string, err error) *PaperDBError {
	b := NewError(ErrorTypeInternal, CodeInternal, message).
		WithStatusCode(http.StatusInternalServerError)
	if err != nil {
		b = b.WithCause(err)
	}
	return b.Build()
}

// Build-time diagnostics are non-fatal; they are accumulated in a
// BuildReport rather than returned as request errors, but share the same
// code/message shape for consistency with the error handling design.

func NewIdentityConflict(paperKey string, candidates []string) *PaperDBError {
	return NewError(ErrorTypeBuild, CodeIdentityConflict, "paper key matched multiple historical paper_ids under different key types").
		WithDetail("paper_key", paperKey).
		WithDetail("candidates", candidates).
		Retryable(false).
		Build()
}

func NewMetaFingerprintDivergence(paperKey string, similarity float64) *PaperDBError {
	return NewError(ErrorTypeBuild, CodeMetaFingerprintDivergence, "meta fingerprint similarity fell below the collision guard threshold").
		WithDetail("paper_key", paperKey).
		WithDetail("similarity", similarity).
		Retryable(false).
		Build()
}

func NewTemplateTagMissing(source string) *PaperDBError {
	return NewError(ErrorTypeBuild, CodeTemplateTagMissing, "input collection has no template_tag").
		WithDetail("source", source).
		Retryable(false).
		Build()
}

func IsValidationError(err error) bool {
	var pe *PaperDBError
	if asPaperDBError(err, &pe) {
		return pe.Type == ErrorTypeValidation
	}
	return false
}

func IsNotFoundError(err error) bool {
	var pe *PaperDBError
	if asPaperDBError(err, &pe) {
		return pe.Type == ErrorTypeNotFound
	}
	return false
}

func IsTimeoutError(err error) bool {
	var pe *PaperDBError
	if asPaperDBError(err, &pe) {
		return pe.Type == ErrorTypeTimeout
	}
	return false
}

func asPaperDBError(err error, target **PaperDBError) bool {
	if pe, ok := err.(*PaperDBError); ok {
		*target = pe
		return true
	}
	return false
}

func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var buf strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&buf, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return buf.String()
}
