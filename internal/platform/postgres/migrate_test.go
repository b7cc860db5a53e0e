package postgres_test

import (
	"context"
	"testing"

	"github.com/phrazzld/recall-api/internal/platform/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectMigrations(t *testing.T) {
	migrations, err := postgres.CollectMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	for i := 1; i < len(migrations); i++ {
		assert.Greater(t, migrations[i].Version, migrations[i-1].Version, "migrations must be ordered")
	}
}

func TestMigrate_UnknownCommand(t *testing.T) {
	db, mock := newMockDB(t)

	err := postgres.Migrate(context.Background(), db, "sideways", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration command")
	assert.NoError(t, mock.ExpectationsWereMet())
}
