package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrReviewHistoryCardIDEmpty is returned when a history row has no card reference.
var ErrReviewHistoryCardIDEmpty = errors.New("review history account card ID cannot be empty")

// ReviewHistory is an immutable record of one review submission.
type ReviewHistory struct {
	ID            uuid.UUID `json:"id"`
	AccountCardID uuid.UUID `json:"account_card_id"`
	Quality       Quality   `json:"quality"`
	ReviewedAt    time.Time `json:"reviewed_at"`
}

// NewReviewHistory creates a history row for a review at reviewedAt.
func NewReviewHistory(accountCardID uuid.UUID, quality Quality, reviewedAt time.Time) (*ReviewHistory, error) {
	h := &ReviewHistory{
		ID:            uuid.New(),
		AccountCardID: accountCardID,
		Quality:       quality,
		ReviewedAt:    reviewedAt.UTC(),
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Validate checks the card reference and quality range.
func (h *ReviewHistory) Validate() error {
	if h.AccountCardID == uuid.Nil {
		return ErrReviewHistoryCardIDEmpty
	}
	return h.Quality.Validate()
}
