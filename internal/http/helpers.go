package http

import (
	"errors"
	"net/http"
	"strings"

	"creditregister/internal/core"
	"creditregister/internal/log"
	"creditregister/internal/report"
	"creditregister/internal/services"
)

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// errorResponse maps a service error onto a status code and operator-facing message.
// Unexpected failures are logged; the operator only sees a generic message for them.
func errorResponse(r *http.Request, err error) *HTMXResponseBuilder {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return UnprocessableEntityError(verr.Error())
	case errors.Is(err, core.ErrInvalidAmount):
		return UnprocessableEntityError(err.Error())
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError("Entry not found. It may have been deleted already.")
	case errors.Is(err, report.ErrNoData):
		return NotFoundError("No entries to export for the selected dates.")
	case errors.Is(err, services.ErrNoPendingDelete):
		return ErrorResponse(http.StatusConflict, "Nothing is waiting for delete confirmation.")
	}

	log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
		log.FieldPath, r.URL.Path,
		log.FieldError, err.Error())
	switch {
	case errors.Is(err, core.ErrExport):
		return InternalServerError("Could not build the document. Please try again.")
	case errors.Is(err, core.ErrStore):
		return InternalServerError("Database error, nothing was changed. Please try again.")
	default:
		return InternalServerError("Something went wrong. Please try again.")
	}
}
