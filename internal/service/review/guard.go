package review

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/store"
)

// DefaultDailyLimit is the number of distinct cards an account may review per UTC day.
const DefaultDailyLimit = 10

// DailyLimitGuard enforces the per-account daily review budget. The budget
// counts distinct cards whose last review falls inside the current UTC day,
// so re-reviewing a card already graded today never consumes budget.
type DailyLimitGuard struct {
	cards store.AccountCardStore
	limit int
	clock func() time.Time
}

// NewDailyLimitGuard creates a guard. A limit below 1 selects DefaultDailyLimit
// and a nil clock selects time.Now.
func NewDailyLimitGuard(cards store.AccountCardStore, limit int, clock func() time.Time) *DailyLimitGuard {
	if cards == nil {
		panic("cards cannot be nil")
	}
	if limit < 1 {
		limit = DefaultDailyLimit
	}
	if clock == nil {
		clock = time.Now
	}
	return &DailyLimitGuard{cards: cards, limit: limit, clock: clock}
}

// WithStore returns a copy of the guard reading through cards, typically a
// transactional store.
func (g *DailyLimitGuard) WithStore(cards store.AccountCardStore) *DailyLimitGuard {
	return &DailyLimitGuard{cards: cards, limit: g.limit, clock: g.clock}
}

// Limit returns the configured daily budget.
func (g *DailyLimitGuard) Limit() int {
	return g.limit
}

// ReviewedToday counts the account's cards reviewed during the current UTC day.
// The day is recomputed from the clock on every call.
func (g *DailyLimitGuard) ReviewedToday(ctx context.Context, accountID uuid.UUID) (int, error) {
	return g.ReviewedOn(ctx, accountID, domain.UTCDayRange(g.clock()))
}

// ReviewedOn counts the account's cards whose last review falls inside day.
func (g *DailyLimitGuard) ReviewedOn(ctx context.Context, accountID uuid.UUID, day domain.UTCDay) (int, error) {
	n, err := g.cards.CountReviewedBetween(ctx, accountID, day.Start, day.End)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviewed cards: %w", err)
	}
	return n, nil
}

// CheckAdmission decides whether card may be reviewed at now. Cards already
// reviewed today are always admitted; other cards are rejected with a
// *DailyLimitError once the budget is used up.
func (g *DailyLimitGuard) CheckAdmission(
	ctx context.Context,
	accountID uuid.UUID,
	card *domain.AccountCard,
	now time.Time,
) error {
	day := domain.UTCDayRange(now)
	if card.ReviewedOn(day) {
		return nil
	}

	reviewed, err := g.ReviewedOn(ctx, accountID, day)
	if err != nil {
		return err
	}
	if reviewed >= g.limit {
		return &DailyLimitError{Limit: g.limit, ResetsAt: day.Next()}
	}
	return nil
}
