package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
)

// Table names for run history.
const (
	analysisRunsTable = "fundscore_runs"
	tickerScoresTable = "fundscore_ticker_scores"
)

// analysisTables are listed in drop order.
var analysisTables = []string{tickerScoresTable, analysisRunsTable, migrationsTable}

// tickerScoreColumns is the column order of fundscore_ticker_scores.
const tickerScoreColumns = `analysis_id, ticker, as_of, scored_at, score, rating,
	cash_pts, valuation_pts, growth_pts, quality_pts, balance_risk_pts, support_pct, red_flag_count`

// AnalysisStoreImpl implements the AnalysisStore interface.
type AnalysisStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// NewAnalysisStore creates a new AnalysisStore with the specified backend.
// The schema is migrated to the latest version before the store is returned.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (contract.AnalysisStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &AnalysisStoreImpl{backend: backend}, nil
	}

	if _, err := migrateAnalysisDB(backend, connStr, -1); err != nil {
		return nil, fmt.Errorf("failed to migrate run history: %w", err)
	}

	db, err := openDB(backend, connStr, GetAnalysisDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("run history: %w", err)
	}
	return &AnalysisStoreImpl{db: db, backend: backend}, nil
}

// table returns the quoted name of a run history table.
func (as *AnalysisStoreImpl) table(name string) string {
	return quoteTableName(name, as.backend)
}

// BeginAnalysis creates a new run and returns its unique ID.
func (as *AnalysisStoreImpl) BeginAnalysis(runUUID, command string, startTime time.Time, configParams map[string]any) (int64, error) {
	if as.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_uuid, command, start_time, config_params) VALUES (%s)`,
		as.table(analysisRunsTable), placeholders(as.backend, 4))
	args := []any{runUUID, command, formatTime(startTime, as.backend), string(configJSON)}

	var analysisID int64
	if as.backend == schema.PostgreSQLBackend {
		err = as.db.QueryRow(query+" RETURNING analysis_id", args...).Scan(&analysisID)
	} else {
		var result sql.Result
		result, err = as.db.Exec(query, args...)
		if err == nil {
			analysisID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis run: %w", err)
	}
	return analysisID, nil
}

// EndAnalysis records the end time, duration and number of tickers scored.
func (as *AnalysisStoreImpl) EndAnalysis(analysisID int64, endTime time.Time, totalTickers int) error {
	if as.db == nil {
		return nil
	}

	var start sqlTime
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE analysis_id = %s`, as.table(analysisRunsTable), bind(as.backend, 1))
	if err := as.db.QueryRow(query, analysisID).Scan(&start); err != nil {
		return fmt.Errorf("failed to get start_time for analysis %d: %w", analysisID, err)
	}
	durationMs := endTime.Sub(start.Time).Milliseconds()

	update := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_tickers_scored = %s WHERE analysis_id = %s`,
		as.table(analysisRunsTable), bind(as.backend, 1), bind(as.backend, 2), bind(as.backend, 3), bind(as.backend, 4))
	if _, err := as.db.Exec(update, formatTime(endTime, as.backend), durationMs, totalTickers, analysisID); err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}
	return nil
}

// RecordTickerScore stores the score of one ticker within a run.
func (as *AnalysisStoreImpl) RecordTickerScore(analysisID int64, record schema.TickerScoreRecord) error {
	if as.db == nil {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		as.table(tickerScoresTable), tickerScoreColumns, placeholders(as.backend, 13))
	_, err := as.db.Exec(query,
		analysisID, record.Ticker, record.AsOf, formatTime(record.ScoredAt, as.backend), record.Score, record.Rating,
		record.CashPts, record.ValuationPts, record.GrowthPts, record.QualityPts, record.BalanceRiskPts,
		record.SupportPct, record.RedFlagCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert score for %s: %w", record.Ticker, err)
	}
	return nil
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns status information about the analysis store.
func (as *AnalysisStoreImpl) GetStatus() (schema.AnalysisStatus, error) {
	status := schema.AnalysisStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}
	if as.db == nil {
		return status, nil
	}

	runs := as.table(analysisRunsTable)
	query := fmt.Sprintf("SELECT COUNT(*), COALESCE(SUM(total_tickers_scored), 0) FROM %s", runs)
	if err := as.db.QueryRow(query).Scan(&status.TotalRuns, &status.TotalTickersScored); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var last, oldest sqlTime
		query = fmt.Sprintf("SELECT analysis_id, start_time FROM %s ORDER BY analysis_id DESC LIMIT 1", runs)
		if err := as.db.QueryRow(query).Scan(&status.LastRunID, &last); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		query = fmt.Sprintf("SELECT start_time FROM %s ORDER BY analysis_id ASC LIMIT 1", runs)
		if err := as.db.QueryRow(query).Scan(&oldest); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.LastRunTime = last.Time
		status.OldestRunTime = oldest.Time
	}

	for _, table := range []string{analysisRunsTable, tickerScoresTable} {
		var count int64
		if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", as.table(table))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllAnalysisRuns retrieves all runs ordered by ID.
func (as *AnalysisStoreImpl) GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error) {
	if as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, run_uuid, command, start_time, end_time, run_duration_ms,
		total_tickers_scored, config_params FROM %s ORDER BY analysis_id`, as.table(analysisRunsTable))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AnalysisRunRecord
	for rows.Next() {
		var record schema.AnalysisRunRecord
		var start, end sqlTime
		if err := rows.Scan(&record.AnalysisID, &record.RunUUID, &record.Command, &start, &end,
			&record.RunDurationMs, &record.TotalTickersScored, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		record.StartTime = start.Time
		record.EndTime = end.ptr()
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis runs: %w", err)
	}
	return results, nil
}

// GetAllTickerScores retrieves every recorded score ordered by run and ticker.
func (as *AnalysisStoreImpl) GetAllTickerScores() ([]schema.TickerScoreRecord, error) {
	if as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY analysis_id, ticker`, tickerScoreColumns, as.table(tickerScoresTable))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticker scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.TickerScoreRecord
	for rows.Next() {
		var r schema.TickerScoreRecord
		var scoredAt sqlTime
		if err := rows.Scan(&r.AnalysisID, &r.Ticker, &r.AsOf, &scoredAt, &r.Score, &r.Rating,
			&r.CashPts, &r.ValuationPts, &r.GrowthPts, &r.QualityPts, &r.BalanceRiskPts,
			&r.SupportPct, &r.RedFlagCount); err != nil {
			return nil, fmt.Errorf("failed to scan ticker score: %w", err)
		}
		r.ScoredAt = scoredAt.Time
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ticker scores: %w", err)
	}
	return results, nil
}
