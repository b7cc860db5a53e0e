package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
)

const accountCardColumns = `
	id, account_id, knowledge_code, card_type_code,
	ease_factor, interval_days, repetitions,
	next_review_date, last_reviewed_at, created_at, updated_at`

// PostgresAccountCardStore implements the store.AccountCardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAccountCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAccountCardStore creates a new PostgreSQL implementation of the AccountCardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresAccountCardStore(db store.DBTX, logger *slog.Logger) *PostgresAccountCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAccountCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "account_card_store")),
	}
}

// Ensure PostgresAccountCardStore implements store.AccountCardStore interface
var _ store.AccountCardStore = (*PostgresAccountCardStore)(nil)

// WithTx implements store.AccountCardStore.WithTx
func (s *PostgresAccountCardStore) WithTx(tx *sql.Tx) store.AccountCardStore {
	return &PostgresAccountCardStore{
		db:     tx,
		logger: s.logger,
	}
}

// GetByID implements store.AccountCardStore.GetByID
func (s *PostgresAccountCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.AccountCard, error) {
	query := `SELECT` + accountCardColumns + `
		FROM account_cards
		WHERE id = $1`
	return s.getOne(ctx, query, id, "get")
}

// GetForUpdate implements store.AccountCardStore.GetForUpdate
// The row lock is held until the surrounding transaction commits or rolls back.
func (s *PostgresAccountCardStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.AccountCard, error) {
	query := `SELECT` + accountCardColumns + `
		FROM account_cards
		WHERE id = $1
		FOR UPDATE`
	return s.getOne(ctx, query, id, "get_for_update")
}

func (s *PostgresAccountCardStore) getOne(
	ctx context.Context,
	query string,
	id uuid.UUID,
	operation string,
) (*domain.AccountCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := scanAccountCard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("account card not found", slog.String("card_id", id.String()))
			return nil, store.ErrAccountCardNotFound
		}
		log.Error("failed to get account card",
			slog.String("error", err.Error()),
			slog.String("operation", operation),
			slog.String("card_id", id.String()))
		return nil, store.NewStoreError("account card", operation, "query failed", MapError(err))
	}

	return card, nil
}

// CountReviewedBetween implements store.AccountCardStore.CountReviewedBetween
func (s *PostgresAccountCardStore) CountReviewedBetween(
	ctx context.Context,
	accountID uuid.UUID,
	from, to time.Time,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COUNT(*)
		FROM account_cards
		WHERE account_id = $1
		  AND last_reviewed_at BETWEEN $2 AND $3`

	var count int
	if err := s.db.QueryRowContext(ctx, query, accountID, from.UTC(), to.UTC()).Scan(&count); err != nil {
		log.Error("failed to count reviewed cards",
			slog.String("error", err.Error()),
			slog.String("account_id", accountID.String()))
		return 0, store.NewStoreError("account card", "count_reviewed", "query failed", MapError(err))
	}

	return count, nil
}

// ListDue implements store.AccountCardStore.ListDue
func (s *PostgresAccountCardStore) ListDue(ctx context.Context, q store.DueCardQuery) ([]*domain.AccountCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if q.Limit <= 0 {
		return []*domain.AccountCard{}, nil
	}

	query := `SELECT` + accountCardColumns + `
		FROM account_cards
		WHERE account_id = $1
		  AND next_review_date <= $2
		  AND ($4::text = '' OR card_type_code = $4::text)
		ORDER BY next_review_date ASC, id ASC
		LIMIT $3`

	rows, err := s.db.QueryContext(ctx, query, q.AccountID, q.Now.UTC(), q.Limit, q.CardTypeCode)
	if err != nil {
		log.Error("failed to query due cards",
			slog.String("error", err.Error()),
			slog.String("account_id", q.AccountID.String()))
		return nil, store.NewStoreError("account card", "list_due", "query failed", MapError(err))
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	cards := make([]*domain.AccountCard, 0, q.Limit)
	for rows.Next() {
		card, err := scanAccountCard(rows)
		if err != nil {
			log.Error("failed to scan account card row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("account card", "list_due", "scan failed", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("account card", "list_due", "row iteration failed", MapError(err))
	}

	log.Debug("found due cards",
		slog.String("account_id", q.AccountID.String()),
		slog.Int("count", len(cards)),
		slog.Int("limit", q.Limit))
	return cards, nil
}

// UpdateSchedule implements store.AccountCardStore.UpdateSchedule
func (s *PostgresAccountCardStore) UpdateSchedule(ctx context.Context, card *domain.AccountCard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("account card validation failed during update",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE account_cards
		SET ease_factor = $1,
		    interval_days = $2,
		    repetitions = $3,
		    next_review_date = $4,
		    last_reviewed_at = $5,
		    updated_at = $6
		WHERE id = $7`

	result, err := s.db.ExecContext(ctx, query,
		card.EaseFactor,
		card.IntervalDays,
		card.Repetitions,
		card.NextReviewDate.UTC(),
		card.LastReviewedAt,
		card.UpdatedAt.UTC(),
		card.ID,
	)
	if err != nil {
		log.Error("failed to update account card schedule",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return store.NewStoreError("account card", "update", "update failed", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrAccountCardNotFound); err != nil {
		log.Debug("account card not updated",
			slog.String("card_id", card.ID.String()),
			slog.String("reason", err.Error()))
		return err
	}

	log.Debug("account card schedule updated",
		slog.String("card_id", card.ID.String()),
		slog.Int("interval_days", card.IntervalDays),
		slog.Int("repetitions", card.Repetitions))
	return nil
}

// Stats implements store.AccountCardStore.Stats
func (s *PostgresAccountCardStore) Stats(
	ctx context.Context,
	accountID uuid.UUID,
	now time.Time,
) (*store.AccountCardStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	totalsQuery := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE repetitions = 0),
			COUNT(*) FILTER (WHERE repetitions > 0 AND repetitions < 3),
			COUNT(*) FILTER (WHERE next_review_date <= $2)
		FROM account_cards
		WHERE account_id = $1`

	stats := &store.AccountCardStats{ByCardType: map[string]int{}}
	err := s.db.QueryRowContext(ctx, totalsQuery, accountID, now.UTC()).Scan(
		&stats.Total,
		&stats.New,
		&stats.Learning,
		&stats.DueToday,
	)
	if err != nil {
		log.Error("failed to aggregate account card stats",
			slog.String("error", err.Error()),
			slog.String("account_id", accountID.String()))
		return nil, store.NewStoreError("account card", "stats", "query failed", MapError(err))
	}

	byTypeQuery := `
		SELECT card_type_code, COUNT(*)
		FROM account_cards
		WHERE account_id = $1
		GROUP BY card_type_code`

	rows, err := s.db.QueryContext(ctx, byTypeQuery, accountID)
	if err != nil {
		log.Error("failed to aggregate stats by card type",
			slog.String("error", err.Error()),
			slog.String("account_id", accountID.String()))
		return nil, store.NewStoreError("account card", "stats", "query failed", MapError(err))
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	for rows.Next() {
		var code string
		var count int
		if err := rows.Scan(&code, &count); err != nil {
			return nil, store.NewStoreError("account card", "stats", "scan failed", err)
		}
		stats.ByCardType[code] = count
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("account card", "stats", "row iteration failed", MapError(err))
	}

	return stats, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccountCard(row rowScanner) (*domain.AccountCard, error) {
	var card domain.AccountCard
	var lastReviewed sql.NullTime

	err := row.Scan(
		&card.ID,
		&card.AccountID,
		&card.KnowledgeCode,
		&card.CardTypeCode,
		&card.EaseFactor,
		&card.IntervalDays,
		&card.Repetitions,
		&card.NextReviewDate,
		&lastReviewed,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.NextReviewDate = card.NextReviewDate.UTC()
	card.CreatedAt = card.CreatedAt.UTC()
	card.UpdatedAt = card.UpdatedAt.UTC()
	if lastReviewed.Valid {
		t := lastReviewed.Time.UTC()
		card.LastReviewedAt = &t
	}

	return &card, nil
}
