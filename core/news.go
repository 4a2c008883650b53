package core

import (
	"context"
	"slices"
	"time"

	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/internal/outwriter"
	"github.com/huangsam/fundscore/schema"
)

// tickerFilter keeps everything when ticker is empty.
func tickerFilter[T any](rows []T, ticker string, key func(T) string) []T {
	if ticker == "" {
		return rows
	}
	ticker = schema.NormalizeTicker(ticker)
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if schema.NormalizeTicker(key(r)) == ticker {
			out = append(out, r)
		}
	}
	return out
}

// sortNewestFirst orders items by publication time, newest first.
func sortNewestFirst(items []schema.NewsItem) {
	slices.SortStableFunc(items, func(a, b schema.NewsItem) int { return b.PublishedAt.Compare(a.PublishedAt) })
}

// TaggedNews returns the enriched, deduped headlines in the news window,
// newest first and limited to cfg.ResultLimit. An empty ticker means all.
func TaggedNews(ctx context.Context, cfg *contract.Config, src contract.DataSource) ([]schema.NewsItem, error) {
	ds, err := loadDataset(ctx, src)
	if err != nil {
		return nil, err
	}
	items := tickerFilter(DedupeNews(ds.News), cfg.Ticker, func(n schema.NewsItem) string { return n.Ticker })
	items = WithinWindow(items, cfg.AsOf, cfg.NewsWindowDays)
	sortNewestFirst(items)
	if cfg.Tag != "" {
		items = slices.DeleteFunc(items, func(n schema.NewsItem) bool { return n.RiskTag != cfg.Tag })
	}
	return items[:min(cfg.ResultLimit, len(items))], nil
}

// SentimentProxyRows returns the proxy table, computed when not precomputed.
func SentimentProxyRows(ctx context.Context, cfg *contract.Config, src contract.DataSource) ([]schema.SentimentProxy, error) {
	ds, err := loadDataset(ctx, src)
	if err != nil {
		return nil, err
	}
	return tickerFilter(ProxyRows(ds, cfg.AsOf), cfg.Ticker, func(p schema.SentimentProxy) string { return p.Ticker }), nil
}

// RiskDashboard returns the dashboard, computed when not precomputed.
func RiskDashboard(ctx context.Context, cfg *contract.Config, src contract.DataSource) ([]schema.RiskDashboardRow, error) {
	ds, err := loadDataset(ctx, src)
	if err != nil {
		return nil, err
	}
	return tickerFilter(DashboardRows(ds, cfg.AsOf), cfg.Ticker, func(r schema.RiskDashboardRow) string { return r.Ticker }), nil
}

// TickerSignals combines the tactical alert with multi-source confirmation.
func TickerSignals(ctx context.Context, cfg *contract.Config, src contract.DataSource) (schema.HybridSignal, error) {
	if err := requireTicker(cfg); err != nil {
		return schema.HybridSignal{}, err
	}
	ds, err := loadDataset(ctx, src)
	if err != nil {
		return schema.HybridSignal{}, err
	}
	proxy := ProxyFor(ProxyRows(ds, cfg.AsOf), cfg.Ticker)
	return HybridSignals(cfg.Ticker, ds.News, proxy, cfg.AsOf, DefaultMinConfirmations, DefaultCredibilityThreshold), nil
}

// ExecuteNewsTag prints tagged headlines.
func ExecuteNewsTag(ctx context.Context, cfg *contract.Config, src contract.ReportSource, _ contract.CacheManager) error {
	start := time.Now()
	items, err := TaggedNews(ctx, cfg, src)
	if err != nil {
		return err
	}
	return outwriter.WriteNewsItems(items, cfg, time.Since(start))
}

// ExecuteNewsProxy prints the sentiment proxy table.
func ExecuteNewsProxy(ctx context.Context, cfg *contract.Config, src contract.ReportSource, _ contract.CacheManager) error {
	start := time.Now()
	rows, err := SentimentProxyRows(ctx, cfg, src)
	if err != nil {
		return err
	}
	return outwriter.WriteSentimentProxy(rows, cfg, time.Since(start))
}

// ExecuteNewsDashboard prints the risk dashboard.
func ExecuteNewsDashboard(ctx context.Context, cfg *contract.Config, src contract.ReportSource, _ contract.CacheManager) error {
	start := time.Now()
	rows, err := RiskDashboard(ctx, cfg, src)
	if err != nil {
		return err
	}
	return outwriter.WriteRiskDashboard(rows, cfg, time.Since(start))
}

// ExecuteNewsSignals prints the hybrid signal for a ticker.
func ExecuteNewsSignals(ctx context.Context, cfg *contract.Config, src contract.ReportSource, _ contract.CacheManager) error {
	start := time.Now()
	sig, err := TickerSignals(ctx, cfg, src)
	if err != nil {
		return err
	}
	return outwriter.WriteHybridSignal(sig, cfg, time.Since(start))
}
