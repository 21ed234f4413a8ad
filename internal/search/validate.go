package search

import (
	"unicode/utf8"

	pdberrors "scifind-backend/internal/errors"
)

// ValidateRequest enforces the query engine's input bounds, returning the
// exact error codes the Read API and MCP server surface on violation.
func ValidateRequest(req Request) error {
	if utf8.RuneCountInString(req.Query) > MaxQueryLength {
		return pdberrors.NewValidationError(pdberrors.CodeQTooLong, "q exceeds maximum length of 500 characters")
	}
	if req.PageSize > MaxPageSize {
		return pdberrors.NewValidationError(pdberrors.CodePageSizeTooLarge, "page_size exceeds maximum of 100")
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 1
	}
	if req.Page*req.PageSize > MaxOffset {
		return pdberrors.NewValidationError(pdberrors.CodeOffsetTooLarge, "page*page_size exceeds maximum offset of 10000")
	}
	return nil
}
