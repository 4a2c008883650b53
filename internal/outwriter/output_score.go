package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/internal/parquet"
	"github.com/huangsam/fundscore/schema"
)

// WriteScoreResults outputs score results, dispatching based on the output format configured.
func WriteScoreResults(results []schema.ScoreResult, cfg *contract.Config, duration time.Duration) error {
	f := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoreJSON(w, results)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoreCSV(w, results, f)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errors.New("parquet output requires --output-file")
		}
		if err := parquet.WriteParquet(parquet.ConvertScoreResults(results), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoreTable(w, results, cfg, f, duration)
		}, "Wrote table")
	}
	return nil
}

// scoreTableFixedWidth is the width of every score column except red flags.
const scoreTableFixedWidth = 70

// writeScoreTable generates and writes the human-readable table.
func writeScoreTable(w io.Writer, results []schema.ScoreResult, cfg *contract.Config, f formatters, duration time.Duration) error {
	headers := []string{"Rank", "Ticker", "Score", "Rating", "Cash", "Valuation", "Growth", "Quality", "Bal/Risk"}
	if cfg.Explain {
		headers = append(headers, "Red Flags")
	}

	data := make([][]string, 0, len(results))
	for i, r := range results {
		row := []string{
			strconv.Itoa(i + 1),
			r.Ticker,
			strconv.Itoa(r.Score),
			contract.GetColorRating(r.Rating),
			bucketCell(r.Buckets.Cash, schema.MaxCash),
			bucketCell(r.Buckets.Valuation, schema.MaxValuation),
			bucketCell(r.Buckets.Growth, schema.MaxGrowth),
			bucketCell(r.Buckets.Quality, schema.MaxQuality),
			bucketCell(r.Buckets.BalanceRisk, schema.MaxBalanceRisk),
		}
		if cfg.Explain {
			row = append(row, contract.TruncateText(strings.Join(r.RedFlags, ", "), getMaxTableTextWidth(cfg, scoreTableFixedWidth)))
		}
		data = append(data, row)
	}
	if err := renderTable(w, headers, data, true); err != nil {
		return err
	}

	if cfg.Explain && len(results) == 1 {
		if err := writeBreakdownTable(w, results[0], f); err != nil {
			return err
		}
	}
	for _, r := range results {
		if r.Drift != nil {
			if _, err := fmt.Fprintf(w, "⚠️  %s score drifted from %d (cached %s) to %d\n",
				r.Ticker, r.Drift.CachedScore, r.Drift.CachedAt.Format(contract.DateFormat), r.Drift.FreshScore); err != nil {
				return err
			}
		}
	}
	if _, err := fmt.Fprintf(w, "Scored %d ticker(s) as of %s\n", len(results), cfg.AsOfDate()); err != nil {
		return err
	}
	return writeFooter(w, cfg, duration)
}

// writeBreakdownTable lists the points each metric added to its bucket.
func writeBreakdownTable(w io.Writer, r schema.ScoreResult, f formatters) error {
	data := make([][]string, 0, len(r.Breakdown))
	for _, leg := range r.Breakdown {
		data = append(data, []string{leg.Bucket, string(leg.Metric), f.Opt(leg.Value, missingValue), strconv.Itoa(leg.Points)})
	}
	return renderTable(w, []string{"Bucket", "Metric", "Value", "Points"}, data, false)
}

func bucketCell(points, maxPoints int) string {
	return fmt.Sprintf("%d/%d", points, maxPoints)
}

// writeScoreCSV writes one row per ticker.
func writeScoreCSV(w io.Writer, results []schema.ScoreResult, f formatters) error {
	header := []string{
		"rank", "ticker", "as_of", "score", "rating",
		"cash", "valuation", "growth", "quality", "balance_risk",
		"fcf_ttm", "fcf_yield_pct", "revenue_ttm_yoy_pct", "fcf_margin_ttm_pct", "net_debt_to_fcf",
		"red_flags", "drift_cached_score",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, r := range results {
			drift := ""
			if r.Drift != nil {
				drift = strconv.Itoa(r.Drift.CachedScore)
			}
			rec := []string{
				strconv.Itoa(i + 1),
				r.Ticker,
				r.AsOf,
				strconv.Itoa(r.Score),
				string(r.Rating),
				strconv.Itoa(r.Buckets.Cash),
				strconv.Itoa(r.Buckets.Valuation),
				strconv.Itoa(r.Buckets.Growth),
				strconv.Itoa(r.Buckets.Quality),
				strconv.Itoa(r.Buckets.BalanceRisk),
				f.Opt(r.Metrics.Ptr(schema.KeyFCFTTM), ""),
				f.Opt(r.Metrics.Ptr(schema.KeyFCFYieldPct), ""),
				f.Opt(r.Metrics.Ptr(schema.KeyRevenueTTMYoYPct), ""),
				f.Opt(r.Metrics.Ptr(schema.KeyFCFMarginTTMPct), ""),
				f.Opt(r.Metrics.Ptr(schema.KeyNetDebtToFCF), ""),
				strings.Join(r.RedFlags, "|"),
				drift,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeScoreJSON writes the results with their rank.
func writeScoreJSON(w io.Writer, results []schema.ScoreResult) error {
	type jsonScoreResult struct {
		Rank int `json:"rank"`
		schema.ScoreResult
	}
	output := make([]jsonScoreResult, len(results))
	for i, r := range results {
		output[i] = jsonScoreResult{Rank: i + 1, ScoreResult: r}
	}
	return writeJSON(w, output)
}
