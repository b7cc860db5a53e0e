package postgres_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/postgres"
	"github.com/phrazzld/recall-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountCardColumns = []string{
	"id", "account_id", "knowledge_code", "card_type_code",
	"ease_factor", "interval_days", "repetitions",
	"next_review_date", "last_reviewed_at", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// newMockDBWithConverter is newMockDB with sqlmock.ValueConverterOption applied.
// sqlmock's option type is unexported, so it cannot be forwarded variadically.
func newMockDBWithConverter(t *testing.T, conv driver.ValueConverter) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(conv))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestNewPostgresAccountCardStore(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { postgres.NewPostgresAccountCardStore(nil, nil) })

	db, _ := newMockDB(t)
	assert.NotNil(t, postgres.NewPostgresAccountCardStore(db, nil), "nil logger falls back to default")
}

func TestPostgresAccountCardStore_GetByID(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresAccountCardStore(db, nil)

	id := uuid.New()
	accountID := uuid.New()
	next := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	reviewed := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM account_cards\s+WHERE id = \$1$`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(accountCardColumns).AddRow(
			id.String(), accountID.String(), "apple", "word-meaning",
			2.6, 1, 1, next, reviewed, reviewed, reviewed,
		))

	card, err := s.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, card.ID)
	assert.Equal(t, accountID, card.AccountID)
	assert.Equal(t, "apple", card.KnowledgeCode)
	assert.InDelta(t, 2.6, card.EaseFactor, 1e-9)
	assert.True(t, card.NextReviewDate.Equal(next))
	require.NotNil(t, card.LastReviewedAt)
	assert.True(t, card.LastReviewedAt.Equal(reviewed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccountCardStore_GetByID_NotFound(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresAccountCardStore(db, nil)

	mock.ExpectQuery(`SELECT .+ FROM account_cards`).WillReturnError(sql.ErrNoRows)

	card, err := s.GetByID(context.Background(), uuid.New())
	assert.Nil(t, card)
	assert.ErrorIs(t, err, store.ErrAccountCardNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccountCardStore_GetForUpdateLocksRow(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresAccountCardStore(db, nil)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM account_cards\s+WHERE id = \$1\s+FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(accountCardColumns).AddRow(
			id.String(), uuid.NewString(), "apple", "word-meaning",
			2.5, 0, 0, now, nil, now, now,
		))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	card, err := s.WithTx(tx).GetForUpdate(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, card.LastReviewedAt)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccountCardStore_CountReviewedBetween(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresAccountCardStore(db, nil)

	accountID := uuid.New()
	day := domain.UTCDayRange(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC))

	mock.ExpectQuery(regexp.QuoteMeta("last_reviewed_at BETWEEN $2 AND $3")).
		WithArgs(accountID, day.Start, day.End).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := s.CountReviewedBetween(context.Background(), accountID, day.Start, day.End)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccountCardStore_ListDue(t *testing.T) {
	t.Parallel()

	t.Run("orders by next review date and applies the limit", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := postgres.NewPostgresAccountCardStore(db, nil)

		accountID := uuid.New()
		now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
		older := now.Add(-72 * time.Hour)
		newer := now.Add(-time.Hour)

		mock.ExpectQuery(`ORDER BY next_review_date ASC, id ASC\s+LIMIT \$3`).
			WithArgs(accountID, now, 4, "word-meaning").
			WillReturnRows(sqlmock.NewRows(accountCardColumns).
				AddRow(uuid.NewString(), accountID.String(), "apple", "word-meaning", 2.5, 0, 0, older, nil, older, older).
				AddRow(uuid.NewString(), accountID.String(), "pear", "word-meaning", 2.5, 0, 0, newer, nil, newer, newer))

		cards, err := s.ListDue(context.Background(), store.DueCardQuery{
			AccountID:    accountID,
			Now:          now,
			Limit:        4,
			CardTypeCode: "word-meaning",
		})
		require.NoError(t, err)
		require.Len(t, cards, 2)
		assert.Equal(t, "apple", cards[0].KnowledgeCode)
		assert.Equal(t, "pear", cards[1].KnowledgeCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero limit skips the query", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := postgres.NewPostgresAccountCardStore(db, nil)

		cards, err := s.ListDue(context.Background(), store.DueCardQuery{AccountID: uuid.New(), Limit: 0})
		require.NoError(t, err)
		assert.Empty(t, cards)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query errors are wrapped", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := postgres.NewPostgresAccountCardStore(db, nil)

		dbErr := errors.New("connection refused")
		mock.ExpectQuery(`FROM account_cards`).WillReturnError(dbErr)

		_, err := s.ListDue(context.Background(), store.DueCardQuery{AccountID: uuid.New(), Now: time.Now(), Limit: 3})
		var storeErr *store.StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "list_due", storeErr.Operation)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestPostgresAccountCardStore_UpdateSchedule(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	newCard := func() *domain.AccountCard {
		card, err := domain.NewAccountCard(uuid.New(), "apple", "word-meaning", now)
		require.NoError(t, err)
		card.ApplySchedule(domain.Schedule{
			EaseFactor:     2.6,
			IntervalDays:   1,
			Repetitions:    1,
			NextReviewDate: now.AddDate(0, 0, 1),
		}, now)
		return card
	}

	t.Run("success", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := postgres.NewPostgresAccountCardStore(db, nil)
		card := newCard()

		mock.ExpectExec(`UPDATE account_cards`).
			WithArgs(2.6, 1, 1, card.NextReviewDate, sqlmock.AnyArg(), now, card.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.UpdateSchedule(context.Background(), card))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := postgres.NewPostgresAccountCardStore(db, nil)

		mock.ExpectExec(`UPDATE account_cards`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.UpdateSchedule(context.Background(), newCard())
		assert.ErrorIs(t, err, store.ErrAccountCardNotFound)
	})

	t.Run("invalid card never reaches the database", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := postgres.NewPostgresAccountCardStore(db, nil)
		card := newCard()
		card.EaseFactor = 1.0

		err := s.UpdateSchedule(context.Background(), card)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, domain.ErrEaseFactorTooLow)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("serialization failure is retryable", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := postgres.NewPostgresAccountCardStore(db, nil)

		mock.ExpectExec(`UPDATE account_cards`).WillReturnError(newPgError("40001"))

		err := s.UpdateSchedule(context.Background(), newCard())
		assert.True(t, store.IsRetryableError(err))
	})
}

func TestPostgresAccountCardStore_Stats(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresAccountCardStore(db, nil)

	accountID := uuid.New()
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`COUNT\(\*\) FILTER`).
		WithArgs(accountID, now).
		WillReturnRows(sqlmock.NewRows([]string{"total", "new", "learning", "due"}).AddRow(12, 5, 4, 3))
	mock.ExpectQuery(`GROUP BY card_type_code`).
		WithArgs(accountID).
		WillReturnRows(sqlmock.NewRows([]string{"card_type_code", "count"}).
			AddRow("word-meaning", 8).
			AddRow("spelling", 4))

	stats, err := s.Stats(context.Background(), accountID, now)
	require.NoError(t, err)
	assert.Equal(t, 12, stats.Total)
	assert.Equal(t, 5, stats.New)
	assert.Equal(t, 4, stats.Learning)
	assert.Equal(t, 3, stats.DueToday)
	assert.Equal(t, map[string]int{"word-meaning": 8, "spelling": 4}, stats.ByCardType)
	assert.NoError(t, mock.ExpectationsWereMet())
}
