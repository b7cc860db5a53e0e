package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/service/auth"
	"github.com/phrazzld/recall-api/internal/service/review"
	"github.com/phrazzld/recall-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", domain.NewValidationError("quality", "must be between 0 and 5", domain.ErrInvalidQuality), http.StatusBadRequest, CodeValidation},
		{"invalid id", domain.ErrInvalidID, http.StatusBadRequest, CodeValidation},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized, CodeUnauthorized},
		{"card not found", review.ErrCardNotFound, http.StatusNotFound, CodeNotFound},
		{"wrapped store not found", fmt.Errorf("lookup: %w", store.ErrAccountCardNotFound), http.StatusNotFound, CodeNotFound},
		{"daily limit", &review.DailyLimitError{Limit: 10, ResetsAt: time.Now()}, http.StatusTooManyRequests, CodeDailyLimitExceeded},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
		{"transaction failure", review.NewSubmitReviewError("failed", store.ErrTransactionFailed), http.StatusInternalServerError, CodeInternal},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			status := MapErrorToStatusCode(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, MapStatusCodeToErrorCode(status))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	assert.Equal(t, "quality must be between 0 and 5",
		GetSafeErrorMessage(domain.NewValidationError("quality", "must be between 0 and 5", domain.ErrInvalidQuality)))
	assert.Equal(t, "Card not found", GetSafeErrorMessage(review.ErrCardNotFound))
	assert.Equal(t, "Token expired", GetSafeErrorMessage(auth.ErrExpiredToken))
	assert.Equal(t, "An unexpected error occurred",
		GetSafeErrorMessage(errors.New("postgres://user:pw@host/db: connection refused")))
	assert.Contains(t,
		GetSafeErrorMessage(&review.DailyLimitError{Limit: 10, ResetsAt: time.Now()}),
		"reviews resume after the next UTC midnight")
}
