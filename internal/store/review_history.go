package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/recall-api/internal/domain"
)

// ReviewHistoryStore defines the interface for the append-only review log.
// Rows are never updated or deleted.
type ReviewHistoryStore interface {
	// Create appends a history row. It must share a transaction with the card
	// update it records.
	Create(ctx context.Context, history *domain.ReviewHistory) error

	// WithTx returns a new ReviewHistoryStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ReviewHistoryStore
}
