package schema

import "time"

// CacheStatus represents the status of the score cache.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// AnalysisStatus represents the status of the run history store.
type AnalysisStatus struct {
	Backend            string           `json:"backend"`
	Connected          bool             `json:"connected"`
	TotalRuns          int              `json:"total_runs"`
	LastRunID          int64            `json:"last_run_id"`
	LastRunTime        time.Time        `json:"last_run_time"`
	OldestRunTime      time.Time        `json:"oldest_run_time"`
	TotalTickersScored int              `json:"total_tickers_scored"`
	TableSizes         map[string]int64 `json:"table_sizes"`
}

// AnalysisRunRecord represents a row from the fundscore_runs table.
type AnalysisRunRecord struct {
	AnalysisID         int64
	RunUUID            string
	Command            string
	StartTime          time.Time
	EndTime            *time.Time
	RunDurationMs      *int32
	TotalTickersScored int32
	ConfigParams       *string
}

// TickerScoreRecord represents a row from the fundscore_ticker_scores table.
type TickerScoreRecord struct {
	AnalysisID     int64
	Ticker         string
	AsOf           string
	ScoredAt       time.Time
	Score          int32
	Rating         string
	CashPts        int32
	ValuationPts   int32
	GrowthPts      int32
	QualityPts     int32
	BalanceRiskPts int32
	SupportPct     *float64
	RedFlagCount   int32
}

// CachedScore is the value stored in the score cache.
type CachedScore struct {
	Version     int       `json:"version"`
	Fingerprint string    `json:"fingerprint"`
	Score       int       `json:"score"`
	Rating      Rating    `json:"rating"`
	CachedAt    time.Time `json:"cached_at"`
}
