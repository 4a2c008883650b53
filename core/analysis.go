package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
)

// beginRun starts run tracking when an analysis store is configured.
// The returned func ends the run with the number of tickers scored.
func beginRun(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, command string) (context.Context, func(total int)) {
	noop := func(int) {}
	if mgr == nil {
		return ctx, noop
	}
	analysisStore := mgr.GetAnalysisStore()
	if analysisStore == nil {
		return ctx, noop
	}

	// Add cache manager to context for use in worker goroutines
	ctx = contextWithCacheManager(ctx, mgr)

	configParams := map[string]any{
		"ticker":         cfg.Ticker,
		"peers":          cfg.Peers,
		"all":            cfg.All,
		"as_of":          cfg.AsOfDate(),
		"data_dir":       cfg.DataDir,
		"workers":        cfg.Workers,
		"support_policy": string(cfg.SupportPolicy),
		"rating_buy":     cfg.RatingBands.Buy,
		"rating_hold":    cfg.RatingBands.Hold,
	}
	analysisID, err := analysisStore.BeginAnalysis(uuid.NewString(), command, time.Now(), configParams)
	if err != nil {
		contract.LogWarn("Analysis tracking initialization failed", err)
		return ctx, noop
	}
	if analysisID <= 0 {
		return ctx, noop
	}

	ctx = withAnalysisID(ctx, analysisID)
	return ctx, func(total int) {
		if err := analysisStore.EndAnalysis(analysisID, time.Now(), total); err != nil {
			contract.LogWarn("Failed to finalize analysis tracking", err)
		}
	}
}

// tickerScoreRecord flattens a score into a run history row.
func tickerScoreRecord(analysisID int64, res *schema.ScoreResult, support *float64, scoredAt time.Time) schema.TickerScoreRecord {
	return schema.TickerScoreRecord{
		AnalysisID:     analysisID,
		Ticker:         res.Ticker,
		AsOf:           res.AsOf,
		ScoredAt:       scoredAt,
		Score:          int32(res.Score),
		Rating:         string(res.Rating),
		CashPts:        int32(res.Buckets.Cash),
		ValuationPts:   int32(res.Buckets.Valuation),
		GrowthPts:      int32(res.Buckets.Growth),
		QualityPts:     int32(res.Buckets.Quality),
		BalanceRiskPts: int32(res.Buckets.BalanceRisk),
		SupportPct:     support,
		RedFlagCount:   int32(len(res.RedFlags)),
	}
}

// recordTickerScore stores one scored ticker in run history, if tracking is active.
func recordTickerScore(ctx context.Context, res *schema.ScoreResult, support *float64) {
	analysisID, ok := getAnalysisID(ctx)
	if !ok || analysisID <= 0 {
		return
	}

	// Get the analysis store from the context via the cache manager
	mgr := cacheManagerFromContext(ctx)
	if mgr == nil {
		return
	}
	analysisStore := mgr.GetAnalysisStore()
	if analysisStore == nil {
		return
	}

	record := tickerScoreRecord(analysisID, res, support, time.Now())
	if err := analysisStore.RecordTickerScore(analysisID, record); err != nil {
		logTrackingError("RecordTickerScore", res.Ticker, err)
	}
}

// logTrackingError logs database tracking errors to stderr without disrupting the run.
func logTrackingError(operation, ticker string, err error) {
	contract.LogWarn(fmt.Sprintf("Analysis tracking failed for %s on %s", operation, ticker), err)
}
