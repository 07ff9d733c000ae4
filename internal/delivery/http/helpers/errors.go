package helpers

import (
	"errors"
	"net/http"

	"gatherplan/internal/domain"
)

// WriteDomainError maps well-known domain errors to HTTP error responses and
// reports whether the error was recognized. Unrecognized errors are left for
// the caller, which should log them and write a 500.
func WriteDomainError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "not found")
		return true
	case errors.Is(err, domain.ErrForbidden):
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, "forbidden")
		return true
	case errors.Is(err, domain.ErrDuplicateEmail):
		WriteJSONError(w, http.StatusConflict, ErrCodeConflict, "email already registered")
		return true
	case errors.Is(err, domain.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return true
	}
	if bre, ok := domain.AsBusinessRule(err); ok {
		WriteJSONError(w, http.StatusUnprocessableEntity, bre.Code, bre.Message)
		return true
	}
	return false
}
