package iocache

import (
	"database/sql"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/huangsam/fundscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, path, table string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n))
	return n == 1
}

func TestMigrationsPerBackend(t *testing.T) {
	var counts []int
	for backend, dir := range migrationDirs {
		t.Run(string(backend), func(t *testing.T) {
			entries, err := fs.ReadDir(migrationsFS, dir)
			require.NoError(t, err)
			require.NotEmpty(t, entries)
			assert.Zero(t, len(entries)%2, "every up migration has a down")
			counts = append(counts, len(entries))
		})
	}
	for _, n := range counts[1:] {
		assert.Equal(t, counts[0], n, "backends share migration versions")
	}
}

func TestMigrateAnalysisSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	res, err := migrateAnalysisDB(schema.SQLiteBackend, path, 1)
	require.NoError(t, err)
	assert.Equal(t, MigrationResult{From: 0, To: 1, Changed: true}, res)
	assert.True(t, tableExists(t, path, analysisRunsTable))
	assert.False(t, tableExists(t, path, tickerScoresTable))

	res, err = migrateAnalysisDB(schema.SQLiteBackend, path, -1)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, uint(1), res.From)
	assert.Equal(t, uint(3), res.To)
	assert.True(t, tableExists(t, path, tickerScoresTable))

	res, err = migrateAnalysisDB(schema.SQLiteBackend, path, -1)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, uint(3), res.To)

	res, err = migrateAnalysisDB(schema.SQLiteBackend, path, 0)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Zero(t, res.To)
	assert.False(t, tableExists(t, path, analysisRunsTable))
	assert.True(t, tableExists(t, path, migrationsTable))
}

func TestMigrateAnalysisPrints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, path, -1))
	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, path, -1))
}

func TestMigrateAnalysisErrors(t *testing.T) {
	_, err := migrateAnalysisDB(schema.NoneBackend, "", -1)
	assert.ErrorContains(t, err, "none backend")

	_, err = migrateAnalysisDB("redis", "", -1)
	assert.Error(t, err)

	_, err = migrateAnalysisDB(schema.SQLiteBackend, filepath.Join(t.TempDir(), "runs.db"), 99)
	assert.Error(t, err)
}
