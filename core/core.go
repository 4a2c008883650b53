// Package core has core logic for scoring, thesis evaluation and report assembly.
package core

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/internal/outwriter"
	"github.com/huangsam/fundscore/schema"
)

// ExecutorFunc defines the function signature for executing a data-driven command.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, src contract.ReportSource, mgr contract.CacheManager) error

// logRunHeader prints a concise, 2-line header for text output.
func logRunHeader(ctx context.Context, cfg *contract.Config, subject string) {
	if shouldSuppressHeader(ctx) || cfg.Output != schema.TextOut {
		return
	}
	fmt.Printf("🔎 %s (as of %s)\n", subject, cfg.AsOfDate())
	fmt.Printf("📂 Data: %s\n", cfg.DataDir)
}

// loadDataset reads every table and surfaces soft failures as warnings.
func loadDataset(ctx context.Context, src contract.DataSource) (*schema.Dataset, error) {
	ds, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot load data: %w", err)
	}
	for _, w := range ds.Warnings {
		contract.LogWarn("Data", errors.New(w))
	}
	return ds, nil
}

// loadThesis resolves the ticker's thesis and surfaces validation warnings.
func loadThesis(src contract.ThesisSource, ticker string) (*schema.Thesis, error) {
	th, warnings, err := src.LoadThesis(ticker)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		contract.LogWarn("Thesis "+ticker, errors.New(w))
	}
	return th, nil
}

// requireTicker fails fast for single-ticker commands.
func requireTicker(cfg *contract.Config) error {
	if cfg.Ticker == "" {
		return contract.ErrTickerRequired
	}
	return nil
}

// scoreOne computes and cache-reconciles the score of cfg.Ticker.
func scoreOne(cfg *contract.Config, ds *schema.Dataset, mgr contract.CacheManager) (schema.ScoreResult, error) {
	d, err := Collect(ds, cfg.Ticker, cfg.Peers, cfg.AsOf)
	if err != nil {
		return schema.ScoreResult{}, err
	}
	res := ScoreTable(BuildMetricTable(d, nil), cfg.RatingBands)
	res.Ticker = d.Ticker
	res.AsOf = cfg.AsOfDate()
	reconcileScoreCache(mgr, &res, cfg.RatingBands, time.Now())
	return res, nil
}

// ScoreTicker scores one ticker and records it in run history.
func ScoreTicker(ctx context.Context, cfg *contract.Config, src contract.DataSource, mgr contract.CacheManager) (*schema.ScoreResult, error) {
	if err := requireTicker(cfg); err != nil {
		return nil, err
	}
	ds, err := loadDataset(ctx, src)
	if err != nil {
		return nil, err
	}
	ctx, endRun := beginRun(ctx, cfg, mgr, "score")
	res, err := scoreOne(cfg, ds, mgr)
	if err != nil {
		endRun(0)
		return nil, err
	}
	recordTickerScore(ctx, &res, nil)
	endRun(1)
	return &res, nil
}

// ScoreUniverse scores every ticker with fundamentals using a worker pool.
// Results are sorted by ticker.
func ScoreUniverse(ctx context.Context, cfg *contract.Config, src contract.DataSource, mgr contract.CacheManager) ([]schema.ScoreResult, error) {
	ds, err := loadDataset(ctx, src)
	if err != nil {
		return nil, err
	}
	tickers := ds.Tickers()
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers in fundamentals: %w", contract.ErrDataUnavailable)
	}

	ctx, endRun := beginRun(ctx, cfg, mgr, "score --all")
	results := scoreTickers(ctx, cfg, ds, mgr, tickers)
	endRun(len(results))
	return results, nil
}

// scoreTickers fans tickers out to cfg.Workers goroutines.
func scoreTickers(ctx context.Context, cfg *contract.Config, ds *schema.Dataset, mgr contract.CacheManager, tickers []string) []schema.ScoreResult {
	tickerCh := make(chan string, len(tickers))
	resultCh := make(chan schema.ScoreResult, len(tickers))

	var wg sync.WaitGroup
	for range max(1, cfg.Workers) {
		wg.Go(func() {
			for t := range tickerCh {
				if ctx.Err() != nil {
					continue
				}
				res, err := scoreOne(cfg.CloneWithTicker(t), ds, mgr)
				if err != nil {
					contract.LogWarn("Cannot score "+t, err)
					continue
				}
				recordTickerScore(ctx, &res, nil)
				resultCh <- res
			}
		})
	}

	for _, t := range tickers {
		tickerCh <- t
	}
	close(tickerCh)

	wg.Wait()
	close(resultCh)

	results := make([]schema.ScoreResult, 0, len(tickers))
	for r := range resultCh {
		results = append(results, r)
	}
	slices.SortFunc(results, func(a, b schema.ScoreResult) int { return cmp.Compare(a.Ticker, b.Ticker) })
	return results
}

// ExecuteScore scores one ticker, or the whole universe with --all, and prints the results.
func ExecuteScore(ctx context.Context, cfg *contract.Config, src contract.ReportSource, mgr contract.CacheManager) error {
	start := time.Now()
	if cfg.All {
		logRunHeader(ctx, cfg, "Universe")
		results, err := ScoreUniverse(ctx, cfg, src, mgr)
		if err != nil {
			return err
		}
		return outwriter.WriteScoreResults(results, cfg, time.Since(start))
	}

	logRunHeader(ctx, cfg, "Ticker: "+cfg.Ticker)
	res, err := ScoreTicker(ctx, cfg, src, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteScoreResults([]schema.ScoreResult{*res}, cfg, time.Since(start))
}

// EvaluateTickerThesis scores the ticker and evaluates its thesis against the same table.
func EvaluateTickerThesis(ctx context.Context, cfg *contract.Config, src contract.ReportSource, mgr contract.CacheManager) (*schema.Report, error) {
	if err := requireTicker(cfg); err != nil {
		return nil, err
	}
	ds, err := loadDataset(ctx, src)
	if err != nil {
		return nil, err
	}
	th, err := loadThesis(src, cfg.Ticker)
	if err != nil {
		return nil, err
	}
	if th == nil {
		return nil, fmt.Errorf("%s: %w", cfg.Ticker, contract.ErrThesisNotFound)
	}

	ctx, endRun := beginRun(ctx, cfg, mgr, "thesis eval")
	rep, err := NewReportBuilder(cfg, ds, th).
		CollectInputs().
		CalculateScore().
		EvaluateClaims().
		Build()
	if err != nil {
		endRun(0)
		return nil, err
	}
	reconcileScoreCache(mgr, &rep.Score, cfg.RatingBands, time.Now())
	recordTickerScore(ctx, &rep.Score, rep.Thesis.Support)
	endRun(1)
	return rep, nil
}

// ExecuteThesisEval prints the claim checklist and support for a ticker's thesis.
func ExecuteThesisEval(ctx context.Context, cfg *contract.Config, src contract.ReportSource, mgr contract.CacheManager) error {
	start := time.Now()
	logRunHeader(ctx, cfg, "Thesis: "+cfg.Ticker)
	rep, err := EvaluateTickerThesis(ctx, cfg, src, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteThesisResult(*rep.Thesis, cfg, time.Since(start))
}

// thesisOutputPath is --thesis when given, else <theses-dir>/<TICKER>_thesis.yaml.
func thesisOutputPath(cfg *contract.Config) string {
	if cfg.ThesisPath != "" {
		return cfg.ThesisPath
	}
	return filepath.Join(cfg.ThesesDir, cfg.Ticker+"_thesis.yaml")
}

// writeNewThesis refuses to overwrite an existing thesis file.
func writeNewThesis(th schema.Thesis, path string) error {
	if _, err := ValidateThesis(th); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s: %w", path, os.ErrExist)
	}
	if err := outwriter.WriteThesisFile(th, path); err != nil {
		return err
	}
	_, err := fmt.Fprintf(os.Stderr, "💾 Wrote thesis with %d claims to %s\n", len(th.Claims), path)
	return err
}

// ExecuteThesisNew writes the starter thesis for a ticker.
func ExecuteThesisNew(_ context.Context, cfg *contract.Config, _ contract.ReportSource, _ contract.CacheManager) error {
	if err := requireTicker(cfg); err != nil {
		return err
	}
	return writeNewThesis(StarterThesis(cfg.Ticker, cfg.ThesisText), thesisOutputPath(cfg))
}

// ExecuteThesisCompile turns free text into a thesis using keyword triggers.
func ExecuteThesisCompile(_ context.Context, cfg *contract.Config, _ contract.ReportSource, _ contract.CacheManager) error {
	if err := requireTicker(cfg); err != nil {
		return err
	}
	if cfg.ThesisText == "" {
		return errors.New("--text is required to compile a thesis")
	}
	return writeNewThesis(CompileThesis(cfg.Ticker, cfg.ThesisText), thesisOutputPath(cfg))
}

// RankTickerEvidence ranks the ticker's news into bull and bear lists.
func RankTickerEvidence(ctx context.Context, cfg *contract.Config, src contract.DataSource) (schema.Evidence, error) {
	if err := requireTicker(cfg); err != nil {
		return schema.Evidence{}, err
	}
	ds, err := loadDataset(ctx, src)
	if err != nil {
		return schema.Evidence{}, err
	}
	items := WithinWindow(ForTicker(ds.News, cfg.Ticker), cfg.AsOf, cfg.NewsWindowDays)
	bull, bear := RankEvidence(items, cfg.Tag, cfg.ResultLimit)
	return schema.Evidence{Ticker: cfg.Ticker, Tag: cfg.Tag, Bull: bull, Bear: bear}, nil
}

// ExecuteEvidence prints the bull and bear evidence lists.
func ExecuteEvidence(ctx context.Context, cfg *contract.Config, src contract.ReportSource, _ contract.CacheManager) error {
	start := time.Now()
	logRunHeader(ctx, cfg, "Evidence: "+cfg.Ticker)
	ev, err := RankTickerEvidence(ctx, cfg, src)
	if err != nil {
		return err
	}
	return outwriter.WriteEvidence(ev, cfg, time.Since(start))
}

// TickerAlerts checks the thesis-breaker red lines for one ticker.
func TickerAlerts(ctx context.Context, cfg *contract.Config, src contract.DataSource) (schema.AlertReport, error) {
	if err := requireTicker(cfg); err != nil {
		return schema.AlertReport{}, err
	}
	ds, err := loadDataset(ctx, src)
	if err != nil {
		return schema.AlertReport{}, err
	}
	d, err := Collect(ds, cfg.Ticker, cfg.Peers, cfg.AsOf)
	if err != nil {
		return schema.AlertReport{}, err
	}
	return BuildAlerts(d.Ticker, BuildMetricTable(d, nil), time.Now()), nil
}

// ExecuteAlerts prints the triggered alerts for a ticker.
func ExecuteAlerts(ctx context.Context, cfg *contract.Config, src contract.ReportSource, _ contract.CacheManager) error {
	start := time.Now()
	logRunHeader(ctx, cfg, "Alerts: "+cfg.Ticker)
	rep, err := TickerAlerts(ctx, cfg, src)
	if err != nil {
		return err
	}
	return outwriter.WriteAlerts(rep, cfg, time.Since(start))
}

// BuildTickerReport assembles the full decision report for one ticker.
func BuildTickerReport(ctx context.Context, cfg *contract.Config, src contract.ReportSource, mgr contract.CacheManager) (*schema.Report, error) {
	if err := requireTicker(cfg); err != nil {
		return nil, err
	}
	ds, err := loadDataset(ctx, src)
	if err != nil {
		return nil, err
	}
	th, err := loadThesis(src, cfg.Ticker)
	if err != nil {
		return nil, err
	}

	ctx, endRun := beginRun(ctx, cfg, mgr, "report")
	rep, err := buildReport(cfg, ds, th)
	if err != nil {
		endRun(0)
		return nil, err
	}
	reconcileScoreCache(mgr, &rep.Score, cfg.RatingBands, time.Now())
	var support *float64
	if rep.Thesis != nil {
		support = rep.Thesis.Support
	}
	recordTickerScore(ctx, &rep.Score, support)
	endRun(1)
	return rep, nil
}

// ExecuteReport writes the memo in every requested format and prints the summary.
func ExecuteReport(ctx context.Context, cfg *contract.Config, src contract.ReportSource, mgr contract.CacheManager) error {
	start := time.Now()
	logRunHeader(ctx, cfg, "Report: "+cfg.Ticker)
	rep, err := BuildTickerReport(ctx, cfg, src, mgr)
	if err != nil {
		return err
	}
	if _, err := outwriter.WriteMemoFiles(rep, cfg); err != nil {
		return err
	}
	return outwriter.WriteReport(rep, cfg, time.Since(start))
}

// ExecuteMetrics displays the scoring thresholds. It does not read any data.
func ExecuteMetrics(_ context.Context, cfg *contract.Config, _ contract.ReportSource, _ contract.CacheManager) error {
	return outwriter.PrintMetricsDefinitions(ScoringDefinitions(cfg.RatingBands), cfg)
}
