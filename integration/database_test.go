//go:build database

package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestFundscoreWithMySQL tests the fundscore CLI with a MySQL backend.
func TestFundscoreWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "fundscore",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/fundscore?parseTime=true", host, port.Port())
	runBackendScenario(t, "mysql", connStr)
}

// TestFundscoreWithPostgres tests the fundscore CLI with a PostgreSQL backend.
func TestFundscoreWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
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
	defer func() { _ = pgC.Terminate(ctx) }()

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	runBackendScenario(t, "postgresql", connStr)
}

// runBackendScenario drives the cache and run history commands against one backend.
func runBackendScenario(t *testing.T, backend, connStr string) {
	home := t.TempDir()
	dataDir := writeDataDir(t)

	t.Setenv("FUNDSCORE_CACHE_BACKEND", backend)
	t.Setenv("FUNDSCORE_CACHE_DB_CONNECT", connStr)
	t.Setenv("FUNDSCORE_ANALYSIS_BACKEND", backend)
	t.Setenv("FUNDSCORE_ANALYSIS_DB_CONNECT", connStr)

	steps := [][]string{
		{"cache", "clear"},
		{"analysis", "clear"},
		{"analysis", "migrate"},
		{"score", "--all", "--data-dir", dataDir, "--as-of", "2026-01-10"},
		// The second run is served from the score cache.
		{"score", "UBER", "--data-dir", dataDir, "--as-of", "2026-01-10"},
		{"cache", "status"},
		{"analysis", "status"},
		{"analysis", "export", "--output-file", filepath.Join(home, "history")},
	}
	for _, args := range steps {
		_, err := runFundscore(t, home, args...)
		require.NoError(t, err, "fundscore %v", args)
	}

	require.FileExists(t, filepath.Join(home, "history.runs.parquet"))
	require.FileExists(t, filepath.Join(home, "history.ticker_scores.parquet"))
}
