package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/internal/parquet"
)

// ExportPaths returns the Parquet files written for an export prefix.
func ExportPaths(outputFile string) (runs, scores string) {
	return outputFile + ".runs.parquet", outputFile + ".ticker_scores.parquet"
}

// ExportAnalysis writes run history from store to two Parquet files next to outputFile.
func ExportAnalysis(w io.Writer, store contract.AnalysisStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run history is not configured")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get analysis status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no analysis data found to export")
	}

	fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	fmt.Fprintf(w, "Total analysis runs: %d\n", status.TotalRuns)
	fmt.Fprintf(w, "Total ticker scores: %d\n", status.TableSizes[tickerScoresTable])

	runs, err := store.GetAllAnalysisRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve analysis runs: %w", err)
	}
	scores, err := store.GetAllTickerScores()
	if err != nil {
		return fmt.Errorf("failed to retrieve ticker scores: %w", err)
	}

	runsFile, scoresFile := ExportPaths(outputFile)
	parquetRuns := parquet.ConvertAnalysisRunRecords(runs)
	if err := parquet.WriteParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write analysis runs: %w", err)
	}
	fmt.Fprintf(w, "Exported %d analysis runs to: %s\n", len(parquetRuns), runsFile)

	parquetScores := parquet.ConvertTickerScoreRecords(scores)
	if err := parquet.WriteParquet(parquetScores, scoresFile); err != nil {
		return fmt.Errorf("failed to write ticker scores: %w", err)
	}
	fmt.Fprintf(w, "Exported %d ticker scores to: %s\n", len(parquetScores), scoresFile)
	return nil
}

// ExecuteAnalysisExport exports the run history of the global manager.
func ExecuteAnalysisExport(w io.Writer, outputFile string) error {
	return ExportAnalysis(w, Manager.GetAnalysisStore(), outputFile)
}
