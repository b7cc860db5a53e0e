package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
)

// DueCardQuery selects due cards for one account.
type DueCardQuery struct {
	AccountID uuid.UUID
	// Now is the cutoff; cards with next_review_date <= Now are due.
	Now time.Time
	// Limit caps the number of rows returned. Zero or less returns no rows.
	Limit int
	// CardTypeCode optionally restricts the result to one card type.
	CardTypeCode string
}

// AccountCardStats aggregates an account's cards for the statistics endpoint.
type AccountCardStats struct {
	Total      int
	New        int
	Learning   int
	DueToday   int
	ByCardType map[string]int
}

// AccountCardStore defines the interface for account card persistence.
type AccountCardStore interface {
	// GetByID retrieves an account card by its ID.
	// Returns ErrAccountCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AccountCard, error)

	// GetForUpdate retrieves an account card with a row-level lock using SELECT FOR UPDATE.
	// It must be called on a transactional store (see WithTx); the lock is held
	// until the transaction ends.
	// Returns ErrAccountCardNotFound if the card does not exist.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.AccountCard, error)

	// CountReviewedBetween counts the account's cards whose last_reviewed_at falls
	// inside [from, to], bounds included.
	CountReviewedBetween(ctx context.Context, accountID uuid.UUID, from, to time.Time) (int, error)

	// ListDue returns due cards ordered by next_review_date ascending, so the
	// longest-overdue cards come first.
	ListDue(ctx context.Context, q DueCardQuery) ([]*domain.AccountCard, error)

	// UpdateSchedule persists the scheduling fields of card (ease factor, interval,
	// repetitions, next review date, last reviewed at, updated at).
	// Returns ErrAccountCardNotFound if no row was updated.
	UpdateSchedule(ctx context.Context, card *domain.AccountCard) error

	// Stats aggregates the account's cards. A card is due today when its
	// next_review_date is at or before now.
	Stats(ctx context.Context, accountID uuid.UUID, now time.Time) (*AccountCardStats, error)

	// WithTx returns a new AccountCardStore instance that uses the provided transaction.
	//
	// Example usage:
	//   err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
	//       card, err := cardStore.WithTx(tx).GetForUpdate(ctx, id)
	//       ...
	//   })
	WithTx(tx *sql.Tx) AccountCardStore
}
