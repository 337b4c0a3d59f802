package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/godown-app/godown/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrAlreadyExists):
		Problem(w, http.StatusConflict, "Already Exists", err.Error())
	case errors.Is(err, shared.ErrInsufficientStock):
		Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", err.Error())
	case errors.Is(err, shared.ErrOverpaid):
		Problem(w, http.StatusUnprocessableEntity, "Overpaid", err.Error())
	case errors.Is(err, shared.ErrInvalidUnit):
		Problem(w, http.StatusBadRequest, "Invalid Unit", err.Error())
	case errors.Is(err, shared.ErrConcurrentModification):
		Problem(w, http.StatusConflict, "Concurrent Modification", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Duplicate Request", err.Error())
	case errors.Is(err, shared.ErrValidation), errors.As(err, &validationErrs):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
