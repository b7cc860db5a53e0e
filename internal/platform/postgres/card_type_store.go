package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
)

// PostgresCardTypeStore implements the store.CardTypeStore interface over the
// card_types, card_type_templates and templates tables.
type PostgresCardTypeStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardTypeStore creates a new PostgreSQL implementation of the CardTypeStore interface.
func NewPostgresCardTypeStore(db store.DBTX, logger *slog.Logger) *PostgresCardTypeStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardTypeStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_type_store")),
	}
}

var _ store.CardTypeStore = (*PostgresCardTypeStore)(nil)

// GetByCode implements store.CardTypeStore.GetByCode
func (s *PostgresCardTypeStore) GetByCode(ctx context.Context, code string) (*domain.CardType, error) {
	types, err := s.GetByCodes(ctx, []string{code})
	if err != nil {
		return nil, err
	}
	ct, ok := types[code]
	if !ok {
		return nil, store.ErrCardTypeNotFound
	}
	return ct, nil
}

// GetByCodes implements store.CardTypeStore.GetByCodes
// Card types and their role templates are loaded in a single query.
func (s *PostgresCardTypeStore) GetByCodes(ctx context.Context, codes []string) (map[string]*domain.CardType, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result := make(map[string]*domain.CardType, len(codes))
	if len(codes) == 0 {
		return result, nil
	}

	query := `
		SELECT ct.code, ct.name, ctt.role, t.code, t.format, t.content
		FROM card_types ct
		LEFT JOIN card_type_templates ctt ON ctt.card_type_code = ct.code
		LEFT JOIN templates t ON t.code = ctt.template_code
		WHERE ct.code = ANY($1)
		ORDER BY ct.code, ctt.role`

	rows, err := s.db.QueryContext(ctx, query, codes)
	if err != nil {
		log.Error("failed to query card types",
			slog.String("error", err.Error()),
			slog.Int("code_count", len(codes)))
		return nil, store.NewStoreError("card type", "get_by_codes", "query failed", MapError(err))
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	for rows.Next() {
		var code, name string
		var role, tplCode, tplFormat, tplContent sql.NullString
		if err := rows.Scan(&code, &name, &role, &tplCode, &tplFormat, &tplContent); err != nil {
			return nil, store.NewStoreError("card type", "get_by_codes", "scan failed", err)
		}

		ct, ok := result[code]
		if !ok {
			ct = &domain.CardType{
				Code:      code,
				Name:      name,
				Templates: map[domain.TemplateRole]domain.Template{},
			}
			result[code] = ct
		}

		// A role row pointing at a missing template leaves the role unmapped.
		if role.Valid && tplCode.Valid {
			ct.Templates[domain.TemplateRole(role.String)] = domain.Template{
				Code:    tplCode.String,
				Format:  tplFormat.String,
				Content: tplContent.String,
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("card type", "get_by_codes", "row iteration failed", MapError(err))
	}

	log.Debug("card types resolved",
		slog.Int("requested", len(codes)),
		slog.Int("found", len(result)))
	return result, nil
}
