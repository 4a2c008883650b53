// Package parquet exports run history and score tables to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/fundscore/schema"
	"github.com/parquet-go/parquet-go"
)

// AnalysisRun represents a single fundscore run with metadata.
// This struct maps to the fundscore_runs database table.
type AnalysisRun struct {
	// AnalysisID is the unique identifier for this run
	AnalysisID int64 `parquet:"analysis_id,snappy"`

	// RunUUID is the globally unique run identifier
	RunUUID string `parquet:"run_uuid,snappy"`

	// Command is the CLI command that started the run, e.g. "score"
	Command string `parquet:"command,snappy,dict"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalTickersScored is the number of tickers scored in this run
	TotalTickersScored int32 `parquet:"total_tickers_scored,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// TickerScore is the score of one ticker within a run.
// This struct maps to the fundscore_ticker_scores database table.
type TickerScore struct {
	AnalysisID     int64     `parquet:"analysis_id,snappy"`
	Ticker         string    `parquet:"ticker,snappy,dict"`
	AsOf           string    `parquet:"as_of,snappy"`
	ScoredAt       time.Time `parquet:"scored_at,snappy"`
	Score          int32     `parquet:"score,snappy"`
	Rating         string    `parquet:"rating,snappy,dict"`
	CashPts        int32     `parquet:"cash_pts,snappy"`
	ValuationPts   int32     `parquet:"valuation_pts,snappy"`
	GrowthPts      int32     `parquet:"growth_pts,snappy"`
	QualityPts     int32     `parquet:"quality_pts,snappy"`
	BalanceRiskPts int32     `parquet:"balance_risk_pts,snappy"`

	// SupportPct is the thesis support percentage when a thesis was evaluated (nullable)
	SupportPct   *float64 `parquet:"support_pct,optional,snappy"`
	RedFlagCount int32    `parquet:"red_flag_count,snappy"`
}

// ScoreRow flattens a score result with its headline metrics for columnar analysis.
type ScoreRow struct {
	Rank             int32    `parquet:"rank,snappy"`
	Ticker           string   `parquet:"ticker,snappy,dict"`
	AsOf             string   `parquet:"as_of,snappy"`
	Score            int32    `parquet:"score,snappy"`
	Rating           string   `parquet:"rating,snappy,dict"`
	CashPts          int32    `parquet:"cash_pts,snappy"`
	ValuationPts     int32    `parquet:"valuation_pts,snappy"`
	GrowthPts        int32    `parquet:"growth_pts,snappy"`
	QualityPts       int32    `parquet:"quality_pts,snappy"`
	BalanceRiskPts   int32    `parquet:"balance_risk_pts,snappy"`
	FCFTTM           *float64 `parquet:"fcf_ttm,optional,snappy"`
	FCFYieldPct      *float64 `parquet:"fcf_yield_pct,optional,snappy"`
	RevenueTTMYoYPct *float64 `parquet:"revenue_ttm_yoy_pct,optional,snappy"`
	FCFMarginTTMPct  *float64 `parquet:"fcf_margin_ttm_pct,optional,snappy"`
	NetDebtToFCF     *float64 `parquet:"net_debt_to_fcf,optional,snappy"`
	RedFlags         []string `parquet:"red_flags,list"`
}

// WriteParquet writes rows to a Parquet file whose schema is inferred from T.
func WriteParquet[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

// ConvertAnalysisRunRecords converts schema.AnalysisRunRecord to AnalysisRun for Parquet export.
func ConvertAnalysisRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	result := make([]AnalysisRun, len(records))
	for i, record := range records {
		result[i] = AnalysisRun{
			AnalysisID:         record.AnalysisID,
			RunUUID:            record.RunUUID,
			Command:            record.Command,
			StartTime:          record.StartTime,
			EndTime:            record.EndTime,
			RunDurationMs:      record.RunDurationMs,
			TotalTickersScored: record.TotalTickersScored,
			ConfigParams:       record.ConfigParams,
		}
	}
	return result
}

// ConvertTickerScoreRecords converts schema.TickerScoreRecord to TickerScore for Parquet export.
func ConvertTickerScoreRecords(records []schema.TickerScoreRecord) []TickerScore {
	result := make([]TickerScore, len(records))
	for i, r := range records {
		result[i] = TickerScore{
			AnalysisID:     r.AnalysisID,
			Ticker:         r.Ticker,
			AsOf:           r.AsOf,
			ScoredAt:       r.ScoredAt,
			Score:          r.Score,
			Rating:         r.Rating,
			CashPts:        r.CashPts,
			ValuationPts:   r.ValuationPts,
			GrowthPts:      r.GrowthPts,
			QualityPts:     r.QualityPts,
			BalanceRiskPts: r.BalanceRiskPts,
			SupportPct:     r.SupportPct,
			RedFlagCount:   r.RedFlagCount,
		}
	}
	return result
}

// ConvertScoreResults ranks score results in the given order.
func ConvertScoreResults(results []schema.ScoreResult) []ScoreRow {
	rows := make([]ScoreRow, len(results))
	for i, r := range results {
		rows[i] = ScoreRow{
			Rank:             int32(i + 1),
			Ticker:           r.Ticker,
			AsOf:             r.AsOf,
			Score:            int32(r.Score),
			Rating:           string(r.Rating),
			CashPts:          int32(r.Buckets.Cash),
			ValuationPts:     int32(r.Buckets.Valuation),
			GrowthPts:        int32(r.Buckets.Growth),
			QualityPts:       int32(r.Buckets.Quality),
			BalanceRiskPts:   int32(r.Buckets.BalanceRisk),
			FCFTTM:           r.Metrics.Ptr(schema.KeyFCFTTM),
			FCFYieldPct:      r.Metrics.Ptr(schema.KeyFCFYieldPct),
			RevenueTTMYoYPct: r.Metrics.Ptr(schema.KeyRevenueTTMYoYPct),
			FCFMarginTTMPct:  r.Metrics.Ptr(schema.KeyFCFMarginTTMPct),
			NetDebtToFCF:     r.Metrics.Ptr(schema.KeyNetDebtToFCF),
			RedFlags:         r.RedFlags,
		}
	}
	return rows
}
