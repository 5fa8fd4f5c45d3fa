package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/omniprompt/internal/domain"
	"github.com/phrazzld/omniprompt/internal/generation"
	"github.com/phrazzld/omniprompt/internal/review"
	"github.com/phrazzld/omniprompt/internal/service"
	"github.com/phrazzld/omniprompt/internal/service/auth"
	"github.com/phrazzld/omniprompt/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error
// types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrAccessTokenMismatch):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, service.ErrRunNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, review.ErrOutcomeIndex):
		return http.StatusNotFound

	// Conflict errors: the run or outcome is in the wrong state
	case errors.Is(err, service.ErrRunNotReviewable),
		errors.Is(err, review.ErrNotEditable),
		errors.Is(err, review.ErrDiscarded):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, service.ErrNoRecordsSelected),
		errors.Is(err, domain.ErrJobNoRecords),
		errors.Is(err, domain.ErrJobTemplateEmpty),
		errors.Is(err, domain.ErrJobTargetFieldEmpty),
		errors.Is(err, domain.ErrSettingsProviderEmpty),
		errors.Is(err, domain.ErrSettingsModelEmpty),
		errors.Is(err, generation.ErrInvalidConfig),
		errors.Is(err, store.ErrFieldUnknown):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	switch MapErrorToStatusCode(err) {
	case http.StatusUnauthorized:
		return "Authentication failed"
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusConflict:
		return "Operation not allowed in the current state"
	case http.StatusBadRequest:
		return "Invalid request: " + err.Error()
	default:
		return "An internal error occurred"
	}
}
