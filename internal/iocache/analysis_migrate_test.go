package iocache

import (
	"path/filepath"
	"testing"

	"github.com/huangsam/tdacrash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateAnalysis_NoneBackend(t *testing.T) {
	err := MigrateAnalysis(schema.NoneBackend, "", -1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "migrations are not supported for NoneBackend")
}

func TestMigrateAnalysis_UnknownBackend(t *testing.T) {
	assert.Error(t, MigrateAnalysis("redis", "", -1))
}

func TestMigrateAnalysis_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_migration.db")

	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, -1))
	assert.FileExists(t, dbPath)

	// Already at the latest version
	assert.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, -1))

	assert.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, 1))
	assert.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, 0))
	assert.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, 3))

	// The migrated schema is usable by the store
	store, err := NewAnalysisStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Zero(t, status.TotalRuns)
}

func TestMigrateAnalysis_SQLiteInMemory(t *testing.T) {
	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, ":memory:", -1))
}

func TestMigrationsEmbedded(t *testing.T) {
	for _, backend := range []schema.DatabaseBackend{schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend} {
		entries, err := migrationsFS.ReadDir("migrations/" + string(backend))
		require.NoError(t, err, backend)
		assert.Len(t, entries, 6, backend)
	}
}
