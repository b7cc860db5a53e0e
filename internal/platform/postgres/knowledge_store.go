package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
)

// PostgresKnowledgeStore implements the store.KnowledgeStore interface over the
// knowledge and knowledge_rel tables.
type PostgresKnowledgeStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresKnowledgeStore creates a new PostgreSQL implementation of the KnowledgeStore interface.
func NewPostgresKnowledgeStore(db store.DBTX, logger *slog.Logger) *PostgresKnowledgeStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresKnowledgeStore{
		db:     db,
		logger: logger.With(slog.String("component", "knowledge_store")),
	}
}

var _ store.KnowledgeStore = (*PostgresKnowledgeStore)(nil)

// GetByCodes implements store.KnowledgeStore.GetByCodes
func (s *PostgresKnowledgeStore) GetByCodes(ctx context.Context, codes []string) (map[string]domain.Knowledge, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result := make(map[string]domain.Knowledge, len(codes))
	if len(codes) == 0 {
		return result, nil
	}

	query := `
		SELECT code, name, description, metadata
		FROM knowledge
		WHERE code = ANY($1)`

	rows, err := s.db.QueryContext(ctx, query, codes)
	if err != nil {
		log.Error("failed to query knowledge by codes",
			slog.String("error", err.Error()),
			slog.Int("code_count", len(codes)))
		return nil, store.NewStoreError("knowledge", "get_by_codes", "query failed", MapError(err))
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	for rows.Next() {
		var k domain.Knowledge
		var metadata []byte
		if err := rows.Scan(&k.Code, &k.Name, &k.Description, &metadata); err != nil {
			return nil, store.NewStoreError("knowledge", "get_by_codes", "scan failed", err)
		}
		if k.Metadata, err = decodeMetadata(metadata); err != nil {
			log.Warn("ignoring malformed knowledge metadata",
				slog.String("code", k.Code),
				slog.String("error", err.Error()))
		}
		result[k.Code] = k
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("knowledge", "get_by_codes", "row iteration failed", MapError(err))
	}

	log.Debug("knowledge resolved",
		slog.Int("requested", len(codes)),
		slog.Int("found", len(result)))
	return result, nil
}

// GetRelated implements store.KnowledgeStore.GetRelated
func (s *PostgresKnowledgeStore) GetRelated(ctx context.Context, codes []string) (map[string][]domain.Knowledge, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result := make(map[string][]domain.Knowledge)
	if len(codes) == 0 {
		return result, nil
	}

	query := `
		SELECT r.source_code, k.code, k.name, k.description, k.metadata
		FROM knowledge_rel r
		JOIN knowledge k ON k.code = r.target_code
		WHERE r.source_code = ANY($1)
		ORDER BY r.source_code, k.code`

	rows, err := s.db.QueryContext(ctx, query, codes)
	if err != nil {
		log.Error("failed to query related knowledge",
			slog.String("error", err.Error()),
			slog.Int("code_count", len(codes)))
		return nil, store.NewStoreError("knowledge", "get_related", "query failed", MapError(err))
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	for rows.Next() {
		var source string
		var k domain.Knowledge
		var metadata []byte
		if err := rows.Scan(&source, &k.Code, &k.Name, &k.Description, &metadata); err != nil {
			return nil, store.NewStoreError("knowledge", "get_related", "scan failed", err)
		}
		if k.Metadata, err = decodeMetadata(metadata); err != nil {
			log.Warn("ignoring malformed knowledge metadata",
				slog.String("code", k.Code),
				slog.String("error", err.Error()))
		}
		result[source] = append(result[source], k)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("knowledge", "get_related", "row iteration failed", MapError(err))
	}

	return result, nil
}

// decodeMetadata parses a JSONB object. NULL or empty input yields a nil map.
func decodeMetadata(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}
