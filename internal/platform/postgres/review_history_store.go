package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
)

// PostgresReviewHistoryStore implements the store.ReviewHistoryStore interface.
// The review_history table is append-only; this store never updates or deletes.
type PostgresReviewHistoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewHistoryStore creates a new PostgreSQL implementation of the ReviewHistoryStore interface.
func NewPostgresReviewHistoryStore(db store.DBTX, logger *slog.Logger) *PostgresReviewHistoryStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewHistoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_history_store")),
	}
}

var _ store.ReviewHistoryStore = (*PostgresReviewHistoryStore)(nil)

// WithTx implements store.ReviewHistoryStore.WithTx
func (s *PostgresReviewHistoryStore) WithTx(tx *sql.Tx) store.ReviewHistoryStore {
	return &PostgresReviewHistoryStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.ReviewHistoryStore.Create
// Returns store.ErrInvalidEntity if the referenced account card does not exist.
func (s *PostgresReviewHistoryStore) Create(ctx context.Context, history *domain.ReviewHistory) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := history.Validate(); err != nil {
		log.Warn("review history validation failed during create",
			slog.String("error", err.Error()),
			slog.String("history_id", history.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO review_history (id, account_card_id, quality, reviewed_at)
		VALUES ($1, $2, $3, $4)`

	_, err := s.db.ExecContext(ctx, query,
		history.ID,
		history.AccountCardID,
		int(history.Quality),
		history.ReviewedAt.UTC(),
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during review history creation",
				slog.String("account_card_id", history.AccountCardID.String()))
			return fmt.Errorf("%w: account card with ID %s not found",
				store.ErrInvalidEntity, history.AccountCardID)
		}

		log.Error("failed to create review history",
			slog.String("error", err.Error()),
			slog.String("account_card_id", history.AccountCardID.String()))
		return store.NewStoreError("review history", "create", "insert failed", MapError(err))
	}

	log.Debug("review history recorded",
		slog.String("history_id", history.ID.String()),
		slog.String("account_card_id", history.AccountCardID.String()),
		slog.Int("quality", int(history.Quality)))
	return nil
}
