package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrationFiles_SortedSQLOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_seed.sql", "001_init.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o700))

	files, err := migrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_seed.sql"}, files)
}

func TestMigrationFiles_MissingDir(t *testing.T) {
	_, err := migrationFiles(filepath.Join(t.TempDir(), "absent"))
	assert.ErrorContains(t, err, "read migrations")
}

func TestRunMigrations_NoPool(t *testing.T) {
	err := RunMigrations(context.Background(), nil, "migrations", zap.NewNop())
	assert.NoError(t, err)
}

func TestPostgres_PingWithoutPool(t *testing.T) {
	var pg *Postgres
	assert.ErrorIs(t, pg.Ping(context.Background()), ErrNotConfigured)
}
