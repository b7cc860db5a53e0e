package postgres_test

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/postgres"
	"github.com/phrazzld/recall-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// passthroughConverter lets []string arguments reach sqlmock unchanged, as the
// pgx driver accepts them natively for ANY($1).
type passthroughConverter struct{}

func (passthroughConverter) ConvertValue(v any) (driver.Value, error) { return v, nil }

func TestPostgresKnowledgeStore_GetByCodes(t *testing.T) {
	t.Parallel()
	db, mock := newMockDBWithConverter(t, passthroughConverter{})
	s := postgres.NewPostgresKnowledgeStore(db, nil)

	codes := []string{"apple", "pear", "ghost"}
	mock.ExpectQuery(`WHERE code = ANY\(\$1\)`).
		WithArgs(codes).
		WillReturnRows(sqlmock.NewRows([]string{"code", "name", "description", "metadata"}).
			AddRow("apple", "Apple", "A fruit", []byte(`{"level":"A1","tags":["food"]}`)).
			AddRow("pear", "Pear", "Another fruit", nil))

	got, err := s.GetByCodes(context.Background(), codes)
	require.NoError(t, err)
	require.Len(t, got, 2, "unknown codes are absent, not errors")
	assert.Equal(t, "Apple", got["apple"].Name)
	assert.Equal(t, "A1", got["apple"].Metadata["level"])
	assert.Nil(t, got["pear"].Metadata)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKnowledgeStore_EmptyInputSkipsQuery(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresKnowledgeStore(db, nil)

	byCode, err := s.GetByCodes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, byCode)

	related, err := s.GetRelated(context.Background(), []string{})
	require.NoError(t, err)
	assert.Empty(t, related)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKnowledgeStore_GetRelated(t *testing.T) {
	t.Parallel()
	db, mock := newMockDBWithConverter(t, passthroughConverter{})
	s := postgres.NewPostgresKnowledgeStore(db, nil)

	codes := []string{"apple", "pear"}
	mock.ExpectQuery(`FROM knowledge_rel r\s+JOIN knowledge k ON k.code = r.target_code`).
		WithArgs(codes).
		WillReturnRows(sqlmock.NewRows([]string{"source_code", "code", "name", "description", "metadata"}).
			AddRow("apple", "fruit", "Fruit", "", nil).
			AddRow("apple", "tree", "Tree", "", nil).
			AddRow("pear", "fruit", "Fruit", "", nil))

	got, err := s.GetRelated(context.Background(), codes)
	require.NoError(t, err)
	require.Len(t, got["apple"], 2)
	assert.Equal(t, "tree", got["apple"][1].Code)
	require.Len(t, got["pear"], 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCardTypeStore_GetByCodes(t *testing.T) {
	t.Parallel()
	db, mock := newMockDBWithConverter(t, passthroughConverter{})
	s := postgres.NewPostgresCardTypeStore(db, nil)

	codes := []string{"word-meaning", "bare"}
	mock.ExpectQuery(`LEFT JOIN card_type_templates`).
		WithArgs(codes).
		WillReturnRows(sqlmock.NewRows([]string{"code", "name", "role", "t_code", "format", "content"}).
			AddRow("bare", "Bare", nil, nil, nil, nil).
			AddRow("word-meaning", "Word meaning", "back", "wm-back", "handlebars", "{{description}}").
			AddRow("word-meaning", "Word meaning", "front", "wm-front", "handlebars", "{{name}}"))

	got, err := s.GetByCodes(context.Background(), codes)
	require.NoError(t, err)
	require.Len(t, got, 2)

	front, ok := got["word-meaning"].Template(domain.TemplateRoleFront)
	require.True(t, ok)
	assert.Equal(t, "{{name}}", front.Content)
	assert.Equal(t, "wm-front", front.Code)

	_, ok = got["bare"].Template(domain.TemplateRoleFront)
	assert.False(t, ok, "card type without mappings has no templates")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCardTypeStore_GetByCode_NotFound(t *testing.T) {
	t.Parallel()
	db, mock := newMockDBWithConverter(t, passthroughConverter{})
	s := postgres.NewPostgresCardTypeStore(db, nil)

	mock.ExpectQuery(`FROM card_types`).
		WithArgs([]string{"missing"}).
		WillReturnRows(sqlmock.NewRows([]string{"code", "name", "role", "t_code", "format", "content"}))

	ct, err := s.GetByCode(context.Background(), "missing")
	assert.Nil(t, ct)
	assert.ErrorIs(t, err, store.ErrCardTypeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
