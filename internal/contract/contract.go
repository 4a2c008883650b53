// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/fundscore/schema"
)

// DataSource loads the tables a report is computed from.
// This allows the core logic to be tested without a data directory on disk.
type DataSource interface {
	// Load reads every table. Required tables that are missing return ErrDataUnavailable.
	Load(ctx context.Context) (*schema.Dataset, error)
}

// ThesisSource resolves the thesis for a ticker.
type ThesisSource interface {
	// LoadThesis returns the thesis and any validation warnings.
	// It returns a nil thesis and no error when none is configured for the ticker.
	LoadThesis(ticker string) (*schema.Thesis, []string, error)
}

// ReportSource is a data directory that also holds theses.
type ReportSource interface {
	DataSource
	ThesisSource
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetScoreStore() CacheStore
	GetAnalysisStore() AnalysisStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// AnalysisStore defines the interface for tracking runs and the scores they produced.
type AnalysisStore interface {
	// BeginAnalysis creates a new run and returns its ID
	BeginAnalysis(runUUID, command string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndAnalysis updates the run with completion data
	EndAnalysis(analysisID int64, endTime time.Time, totalTickers int) error

	// RecordTickerScore stores the outcome of scoring one ticker
	RecordTickerScore(analysisID int64, record schema.TickerScoreRecord) error

	// GetStatus returns status information about the analysis store
	GetStatus() (schema.AnalysisStatus, error)

	// GetAllAnalysisRuns returns every run ordered by ID
	GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error)

	// GetAllTickerScores returns every recorded score ordered by run and ticker
	GetAllTickerScores() ([]schema.TickerScoreRecord, error)

	// Close closes the underlying connection
	Close() error
}
