//go:build database

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/tdacrash/internal/iocache"
	"github.com/huangsam/tdacrash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startMySQL starts a MySQL container and returns its connection string.
func startMySQL(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "tdacrash",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mysqlC.Terminate(ctx) })

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	return fmt.Sprintf("root:secret123@tcp(%s:%s)/tdacrash?parseTime=true", host, port.Port())
}

// startPostgres starts a PostgreSQL container and returns its connection string.
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
}

// TestWithMySQL tests the CLI and the stores with a MySQL backend.
func TestWithMySQL(t *testing.T) {
	connStr := startMySQL(t)
	verifyStores(t, schema.MySQLBackend, connStr)
	verifyCLI(t, "mysql", connStr)
}

// TestWithPostgres tests the CLI and the stores with a PostgreSQL backend.
func TestWithPostgres(t *testing.T) {
	connStr := startPostgres(t)
	verifyStores(t, schema.PostgreSQLBackend, connStr)
	verifyCLI(t, "postgresql", connStr)
}

// verifyStores round-trips a diagram entry and a tracked run through the stores.
func verifyStores(t *testing.T, backend schema.DatabaseBackend, connStr string) {
	t.Helper()

	cache, err := iocache.NewCacheStore("diagram_cache_it", backend, connStr)
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	now := time.Now().Unix()
	require.NoError(t, cache.Set("key-1", []byte(`{"dimensions":[0]}`), 1, now))
	require.NoError(t, cache.Set("key-1", []byte(`{"dimensions":[0,1]}`), 2, now))
	data, version, ts, err := cache.Get("key-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"dimensions":[0,1]}`, string(data))
	assert.Equal(t, 2, version)
	assert.Equal(t, now, ts)

	status, err := cache.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalEntries)

	require.NoError(t, cache.Set("key-old", []byte(`{"dimensions":[0]}`), 2, now-3600))
	removed, err := cache.Prune(now - 60)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	_, _, _, err = cache.Get("key-1")
	require.NoError(t, err)

	require.NoError(t, iocache.MigrateAnalysis(backend, connStr, -1))
	analysis, err := iocache.NewAnalysisStore(backend, connStr)
	require.NoError(t, err)
	defer func() { _ = analysis.Close() }()

	id, err := analysis.BeginAnalysis("run-it", schema.LandscapeKind, time.Now(), map[string]any{"p": "2"})
	require.NoError(t, err)
	require.Greater(t, id, int64(0))
	require.NoError(t, analysis.RecordSignal(id, schema.DerivativeSignal{
		Kind:         schema.LandscapeKind,
		Dimensions:   []int{0, 1},
		PerDimension: [][]float64{{0.3, 0.4}},
		Values:       []float64{0.5},
		Reduced:      true,
	}))
	require.NoError(t, analysis.EndAnalysis(id, time.Now(), 2))

	values, err := analysis.GetAllSignalValues()
	require.NoError(t, err)
	assert.Len(t, values, 3)
}

// verifyCLI runs every storage-backed command against the backend.
func verifyCLI(t *testing.T, backend, connStr string) {
	t.Helper()
	env := []string{
		"TDACRASH_CACHE_BACKEND=" + backend,
		"TDACRASH_CACHE_DB_CONNECT=" + connStr,
		"TDACRASH_ANALYSIS_BACKEND=" + backend,
		"TDACRASH_ANALYSIS_DB_CONNECT=" + connStr,
	}

	_, err := runCommand(t, env, "cache", "clear")
	require.NoError(t, err)
	_, err = runCommand(t, env, "analysis", "clear")
	require.NoError(t, err)

	output, err := runCommand(t, env, "derivative", "integration/testdata/diagrams.json", "--output", "json")
	require.NoError(t, err)
	var result schema.DerivativeResult
	require.NoError(t, json.Unmarshal(output, &result))
	assert.NotEmpty(t, result.RunID)
	assert.Len(t, result.Signal.Values, 3)

	_, err = runCommand(t, env, "cache", "status")
	require.NoError(t, err)
	output, err = runCommand(t, env, "analysis", "status")
	require.NoError(t, err)
	assert.Contains(t, string(output), backend)
}
