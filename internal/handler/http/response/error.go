package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/agilabus/ftms-backend-go/internal/domain/period"
	"github.com/agilabus/ftms-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses. Infrastructure errors
// are logged with full detail and returned as a generic 500.
func HandleError(w http.ResponseWriter, err error) {
	// Field-level validation errors
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Not found
	case errors.Is(err, period.ErrPeriodNotFound):
		NotFound(w, "Payroll period not found")
	case errors.Is(err, period.ErrPayrollNotFound):
		NotFound(w, "Payroll record not found")

	// Caller-fixable state violations
	case errors.Is(err, period.ErrPeriodOverlap),
		errors.Is(err, period.ErrPeriodReleased),
		errors.Is(err, period.ErrPeriodNotProcessed),
		errors.Is(err, period.ErrPeriodNotProcessable),
		errors.Is(err, period.ErrStatusRegression),
		errors.Is(err, period.ErrDeleteReasonRequired):
		BadRequest(w, err.Error(), nil)

	case errors.Is(err, period.ErrCodeExists):
		Conflict(w, "Period code already exists")
	case errors.Is(err, period.ErrConcurrentUpdate):
		Conflict(w, err.Error())

	// Default: never leak internals to the caller
	default:
		slog.Error("Unhandled service error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
