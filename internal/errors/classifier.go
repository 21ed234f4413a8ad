package errors

import (
	"net/http"
	"strings"
)

// ErrorClassifier turns an arbitrary error from an outbound static-asset
// fetch into a PaperDBError, deciding whether it is worth retrying.
type ErrorClassifier struct {
	timeoutPatterns []string
	networkPatterns []string
}

func NewErrorClassifier() *ErrorClassifier {
	return &ErrorClassifier{
		timeoutPatterns: []string{
			"timeout",
			"deadline exceeded",
			"context canceled",
		},
		networkPatterns: []string{
			"connection refused",
			"no such host",
			"network unreachable",
			"connection reset",
			"broken pipe",
			"connection closed",
		},
	}
}

// Classify wraps err as a PaperDBError, leaving already-classified errors
// untouched.
func (ec *ErrorClassifier) Classify(err error) *PaperDBError {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*PaperDBError); ok {
		return pe
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case ec.matches(errStr, ec.timeoutPatterns):
		return NewError(ErrorTypeTimeout, CodeAssetFetchTimeout, "asset fetch timed out").
			WithCause(err).
			Retryable(true).
			Build()
	case ec.matches(errStr, ec.networkPatterns):
		return NewError(ErrorTypeFetch, CodeAssetFetchFailed, "asset fetch failed: network error").
			WithCause(err).
			Retryable(true).
			Build()
	default:
		return NewError(ErrorTypeFetch, CodeAssetFetchFailed, "asset fetch failed").
			WithCause(err).
			Retryable(false).
			Build()
	}
}

// ClassifyHTTPStatus maps an HTTP response status from the static asset
// host to a PaperDBError, marking 5xx/429 as retryable.
func (ec *ErrorClassifier) ClassifyHTTPStatus(statusCode int, path string) *PaperDBError {
	retryable := statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError
	return NewError(ErrorTypeFetch, CodeAssetFetchFailed, "static asset host returned an error").
		WithDetail("status_code", statusCode).
		WithDetail("path", path).
		Retryable(retryable).
		Build()
}

func (ec *ErrorClassifier) matches(errStr string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(errStr, p) {
			return true
		}
	}
	return false
}
