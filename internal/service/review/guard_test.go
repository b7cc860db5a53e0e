package review_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/service/review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDailyLimitGuard_ReviewedToday(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	cards := &MockAccountCardStore{}

	now := fixedNow
	guard := review.NewDailyLimitGuard(cards, 10, func() time.Time { return now })

	start := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 14, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	cards.On("CountReviewedBetween", mock.Anything, accountID, start, end).Return(4, nil).Once()

	n, err := guard.ReviewedToday(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// the day is recomputed on every call
	now = fixedNow.Add(12 * time.Hour)
	cards.On("CountReviewedBetween", mock.Anything, accountID, start.AddDate(0, 0, 1), end.AddDate(0, 0, 1)).
		Return(0, nil).Once()

	n, err = guard.ReviewedToday(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	cards.AssertExpectations(t)
}

func TestDailyLimitGuard_CheckAdmission(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	yesterday := fixedNow.Add(-24 * time.Hour)
	earlierToday := fixedNow.Add(-time.Hour)

	tests := []struct {
		name         string
		lastReviewed *time.Time
		reviewed     int
		wantLimitErr bool
		wantCount    bool
	}{
		{name: "new card under budget", reviewed: 9, wantCount: true},
		{name: "new card at budget", reviewed: 10, wantCount: true, wantLimitErr: true},
		{name: "card reviewed yesterday at budget", lastReviewed: &yesterday, reviewed: 10, wantCount: true, wantLimitErr: true},
		{name: "card reviewed today bypasses budget", lastReviewed: &earlierToday, reviewed: 10},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cards := &MockAccountCardStore{}
			guard := review.NewDailyLimitGuard(cards, 10, func() time.Time { return fixedNow })
			if tc.wantCount {
				cards.On("CountReviewedBetween", mock.Anything, accountID, mock.Anything, mock.Anything).
					Return(tc.reviewed, nil)
			}

			card := newCard(accountID, "K1", "basic")
			card.LastReviewedAt = tc.lastReviewed

			err := guard.CheckAdmission(context.Background(), accountID, card, fixedNow)
			if tc.wantLimitErr {
				assert.ErrorIs(t, err, review.ErrDailyLimitExceeded)
			} else {
				assert.NoError(t, err)
			}
			cards.AssertExpectations(t)
		})
	}
}

func TestDailyLimitGuard_Defaults(t *testing.T) {
	t.Parallel()

	guard := review.NewDailyLimitGuard(&MockAccountCardStore{}, 0, nil)
	assert.Equal(t, review.DefaultDailyLimit, guard.Limit())

	assert.Panics(t, func() { review.NewDailyLimitGuard(nil, 10, nil) })
}

func TestDailyLimitGuard_CountError(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	dbErr := errors.New("timeout")
	cards := &MockAccountCardStore{}
	cards.On("CountReviewedBetween", mock.Anything, accountID, mock.Anything, mock.Anything).Return(0, dbErr)

	guard := review.NewDailyLimitGuard(cards, 10, nil)
	err := guard.CheckAdmission(context.Background(), accountID, newCard(accountID, "K1", "basic"), fixedNow)
	assert.ErrorIs(t, err, dbErr)
	assert.False(t, errors.Is(err, review.ErrDailyLimitExceeded))

	_, err = guard.ReviewedOn(context.Background(), accountID, domain.UTCDayRange(fixedNow))
	assert.ErrorIs(t, err, dbErr)
}
