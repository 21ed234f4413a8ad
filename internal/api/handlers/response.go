package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pdberrors "scifind-backend/internal/errors"
)

// ErrorResponse is the `{error, message, details?}` shape every endpoint
// returns on failure, with HTTP status reflecting the error class.
type ErrorResponse struct {
	Error     string                 `json:"error"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// writeError renders err as the standard error envelope, unwrapping a
// *PaperDBError for its code/status and falling back to a generic 500.
func writeError(c *gin.Context, err error) {
	var pe *pdberrors.PaperDBError
	if errors.As(err, &pe) {
		c.JSON(pe.HTTPStatus(), ErrorResponse{
			Error:     pe.Code,
			Message:   pe.Message,
			Details:   pe.Details,
			RequestID: GetRequestID(c),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:     pdberrors.CodeInternal,
		Message:   err.Error(),
		RequestID: GetRequestID(c),
	})
}

// GetRequestID reads the request ID middleware set, or "unknown".
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get("request_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}
