package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/phrazzld/recall-api/internal/api/shared"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/service/auth"
	"github.com/phrazzld/recall-api/internal/service/review"
	"github.com/phrazzld/recall-api/internal/store"
)

// Stable error codes returned in the "code" field of error responses.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotFound           = "NOT_FOUND"
	CodeDailyLimitExceeded = "DAILY_LIMIT_EXCEEDED"
	CodeInternal           = "INTERNAL_ERROR"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidSubject):
		return http.StatusUnauthorized

	case errors.Is(err, review.ErrCardNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, review.ErrDailyLimitExceeded):
		return http.StatusTooManyRequests

	default:
		return http.StatusInternalServerError
	}
}

// MapStatusCodeToErrorCode returns the stable error code for a status
// produced by MapErrorToStatusCode.
func MapStatusCodeToErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusTooManyRequests:
		return CodeDailyLimitExceeded
	default:
		return CodeInternal
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var valErr *domain.ValidationError
	var limitErr *review.DailyLimitError

	switch {
	case errors.As(err, &valErr):
		return valErr.Error()

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		return "Validation error"

	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidSubject):
		return "Invalid token"

	case errors.Is(err, review.ErrCardNotFound),
		errors.Is(err, store.ErrAccountCardNotFound):
		return "Card not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.As(err, &limitErr):
		return limitErr.Error()

	case errors.Is(err, review.ErrDailyLimitExceeded):
		return "Daily review limit reached; reviews resume after the next UTC midnight"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the error response for err. fallbackMessage, when not
// empty, replaces the generic message of internal errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMessage != "" {
		message = fallbackMessage
	}

	var limitErr *review.DailyLimitError
	if errors.As(err, &limitErr) {
		retryAfter := int(time.Until(limitErr.ResetsAt).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}

	shared.RespondWithErrorAndLog(w, r, status, MapStatusCodeToErrorCode(status), message, err)
}
