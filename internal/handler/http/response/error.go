package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses. Every rejection carries
// the specific reason the engine gave.
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch apperror.GetCode(err) {
	case apperror.CodeValidation:
		BadRequest(w, err.Error(), nil)
	case apperror.CodeAuthorization:
		Forbidden(w, err.Error())
	case apperror.CodeInsufficientBalance:
		writeJSON(w, http.StatusUnprocessableEntity, Response{
			Success: false,
			Error: &ErrorDetail{
				Code:    "INSUFFICIENT_BALANCE",
				Message: err.Error(),
			},
		})
	case apperror.CodeNotFound:
		NotFound(w, err.Error())
	case apperror.CodeConflict:
		Conflict(w, err.Error())
	case apperror.CodeExternalSource:
		writeJSON(w, http.StatusBadGateway, Response{
			Success: false,
			Error: &ErrorDetail{
				Code:    "EXTERNAL_SOURCE_ERROR",
				Message: err.Error(),
			},
		})

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
