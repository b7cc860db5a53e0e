package testdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/store"
	"github.com/stretchr/testify/require"
)

// InsertKnowledge stores a knowledge item.
func InsertKnowledge(t *testing.T, db store.DBTX, k domain.Knowledge) {
	t.Helper()

	var metadata []byte
	if k.Metadata != nil {
		var err error
		metadata, err = json.Marshal(k.Metadata)
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	_, err := db.ExecContext(ctx,
		`INSERT INTO knowledge (code, name, description, metadata) VALUES ($1, $2, $3, $4)`,
		k.Code, k.Name, k.Description, nullableJSON(metadata))
	require.NoError(t, err, "failed to insert knowledge %s", k.Code)
}

// LinkKnowledge records that source relates to target.
func LinkKnowledge(t *testing.T, db store.DBTX, source, target string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	_, err := db.ExecContext(ctx,
		`INSERT INTO knowledge_rel (source_code, target_code) VALUES ($1, $2)`, source, target)
	require.NoError(t, err, "failed to link %s to %s", source, target)
}

// InsertCardType stores a card type together with its templates. Template
// codes must be unique across the database.
func InsertCardType(t *testing.T, db store.DBTX, ct domain.CardType) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	_, err := db.ExecContext(ctx, `INSERT INTO card_types (code, name) VALUES ($1, $2)`, ct.Code, ct.Name)
	require.NoError(t, err, "failed to insert card type %s", ct.Code)

	for role, tpl := range ct.Templates {
		format := tpl.Format
		if format == "" {
			format = domain.TemplateFormatHandlebars
		}
		_, err = db.ExecContext(ctx,
			`INSERT INTO templates (code, format, content) VALUES ($1, $2, $3)`,
			tpl.Code, format, tpl.Content)
		require.NoError(t, err, "failed to insert template %s", tpl.Code)

		_, err = db.ExecContext(ctx,
			`INSERT INTO card_type_templates (card_type_code, role, template_code) VALUES ($1, $2, $3)`,
			ct.Code, string(role), tpl.Code)
		require.NoError(t, err, "failed to map %s template for %s", role, ct.Code)
	}
}

// InsertAccountCard stores card with its current scheduling state.
func InsertAccountCard(t *testing.T, db store.DBTX, card *domain.AccountCard) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	_, err := db.ExecContext(ctx, `
		INSERT INTO account_cards (
			id, account_id, knowledge_code, card_type_code, ease_factor, interval_days,
			repetitions, next_review_date, last_reviewed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		card.ID, card.AccountID, card.KnowledgeCode, card.CardTypeCode, card.EaseFactor,
		card.IntervalDays, card.Repetitions, card.NextReviewDate, card.LastReviewedAt,
		card.CreatedAt, card.UpdatedAt)
	require.NoError(t, err, "failed to insert account card %s", card.ID)
}

// CountReviewHistory returns the number of history rows for a card.
func CountReviewHistory(t *testing.T, db store.DBTX, cardID uuid.UUID) int {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM review_history WHERE account_card_id = $1`, cardID).Scan(&n)
	require.NoError(t, err)
	return n
}

// CleanupAccount registers removal of every row owned by accountID, plus the
// given catalog codes, when the test ends. Use it for tests that commit.
func CleanupAccount(t *testing.T, db *sql.DB, accountID uuid.UUID, knowledgeCodes, cardTypeCodes []string) {
	t.Helper()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
		defer cancel()

		statements := []struct {
			query string
			arg   any
		}{
			{`DELETE FROM review_history WHERE account_card_id IN (SELECT id FROM account_cards WHERE account_id = $1)`, accountID},
			{`DELETE FROM account_cards WHERE account_id = $1`, accountID},
			{`DELETE FROM knowledge WHERE code = ANY($1)`, knowledgeCodes},
			{`DELETE FROM templates WHERE code IN (SELECT template_code FROM card_type_templates WHERE card_type_code = ANY($1))`, cardTypeCodes},
			{`DELETE FROM card_types WHERE code = ANY($1)`, cardTypeCodes},
		}
		for _, s := range statements {
			if _, err := db.ExecContext(ctx, s.query, s.arg); err != nil {
				t.Logf("Warning: cleanup statement failed: %v", err)
			}
		}
	})
}

func nullableJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
