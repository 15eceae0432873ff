package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rezkam/tally/internal/domain"
	"github.com/rezkam/tally/internal/form"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []ErrorField `json:"details,omitempty"`
}

// ErrorField describes a field-specific error.
type ErrorField struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// BadRequest sends a 400 Bad Request error.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, "INVALID_REQUEST", message, http.StatusBadRequest)
}

// ValidationError sends a 400 validation error for a single field.
func ValidationError(w http.ResponseWriter, field, issue string) {
	validationFailed(w, []ErrorField{{Field: field, Issue: issue}})
}

// ValidationErrors sends a 400 validation error listing every failing field
// in field-name order.
func ValidationErrors(w http.ResponseWriter, errs form.Errors) {
	details := make([]ErrorField, 0, len(errs))
	for _, field := range errs.Fields() {
		details = append(details, ErrorField{Field: field, Issue: errs[field]})
	}
	validationFailed(w, details)
}

func validationFailed(w http.ResponseWriter, details []ErrorField) {
	write(w, http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    "VALIDATION_ERROR",
			Message: "validation failed",
			Details: details,
		},
	})
}

// NotFound sends a 404 Not Found error.
func NotFound(w http.ResponseWriter, resource string) {
	Error(w, "NOT_FOUND", resource+" not found", http.StatusNotFound)
}

// InternalError sends a 500 Internal Server Error.
// The error is logged server-side; the client gets a generic message.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		slog.ErrorContext(r.Context(), "Internal server error", "error", err)
	}
	Error(w, "INTERNAL_ERROR", "an internal error occurred", http.StatusInternalServerError)
}

// Error sends a generic error response.
func Error(w http.ResponseWriter, code, message string, statusCode int) {
	write(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// FromDomainError maps domain and validation errors to HTTP responses.
func FromDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var formErrs form.Errors
	switch {
	case errors.As(err, &formErrs):
		ValidationErrors(w, formErrs)

	case errors.Is(err, domain.ErrTitleRequired):
		ValidationError(w, "title", "required field missing")
	case errors.Is(err, domain.ErrTitleTooLong):
		ValidationError(w, "title", "must be 255 characters or less")
	case errors.Is(err, domain.ErrInvalidTaskStatus):
		ValidationError(w, "status", "invalid task status")
	case errors.Is(err, domain.ErrInvalidTaskPriority):
		ValidationError(w, "priority", "invalid priority level")

	case errors.Is(err, domain.ErrTaskNotFound):
		NotFound(w, "task")
	case errors.Is(err, domain.ErrNothingToUndo):
		NotFound(w, "deleted task")

	default:
		InternalError(w, r, err)
	}
}
