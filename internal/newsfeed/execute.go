package newsfeed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/huangsam/fundscore/core"
	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/internal/loader"
	"github.com/huangsam/fundscore/internal/outwriter"
	"github.com/huangsam/fundscore/schema"
)

// BuildRequest resolves tickers, CIKs and feeds for a fetch. Without
// quarterly fundamentals only the configured ticker is fetched.
func BuildRequest(ctx context.Context, cfg *contract.Config, src *loader.Dir) (Request, []schema.NewsItem, error) {
	feeds, err := ParseFeeds(cfg.Feeds)
	if err != nil {
		return Request{}, nil, err
	}
	req := Request{
		Feeds:      feeds,
		AsOf:       cfg.AsOf.AddDate(0, 0, 1),
		WindowDays: cfg.NewsWindowDays,
		CIKs:       map[string]string{},
		Whitelist:  schema.Whitelist{},
	}

	var existing []schema.NewsItem
	ds, err := src.Load(ctx)
	switch {
	case err == nil:
		req.CIKs = ds.CIKs
		req.Whitelist = ds.Whitelist
		req.Tickers = ds.Tickers()
		existing = ds.News
	case errors.Is(err, contract.ErrDataUnavailable) && cfg.Ticker != "":
		ciks, cikErr := loader.ReadTickerCIKs(filepath.Join(src.DataDir(), loader.TickerCIKFile))
		if cikErr == nil {
			req.CIKs = ciks
		}
	default:
		return Request{}, nil, err
	}
	if cfg.Ticker != "" {
		req.Tickers = []string{cfg.Ticker}
	}
	return req, existing, nil
}

// WriteUnified replaces path with items in the news_unified.csv layout.
// The file is written next to its destination first so readers never see
// a partial table.
func WriteUnified(path string, items []schema.NewsItem) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".news_unified-*.csv")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := outwriter.WriteNewsCSV(tmp, items); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write news: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ExecuteNewsFetch fetches fresh headlines, merges them with the existing
// news table and rewrites news_unified.csv in the data directory.
func ExecuteNewsFetch(ctx context.Context, cfg *contract.Config, src *loader.Dir, f *Fetcher) error {
	start := time.Now()
	req, existing, err := BuildRequest(ctx, cfg, src)
	if err != nil {
		return err
	}
	res, err := f.Run(ctx, req)
	if err != nil {
		return err
	}

	merged := core.DedupeNews(append(existing, res.Items...))
	path := filepath.Join(src.DataDir(), loader.NewsFile)
	if err := WriteUnified(path, merged); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "💾 Wrote %d headlines (%d fetched, %d sources failed) to %s\n", len(merged), len(res.Items), len(res.Failed), path)
	return outwriter.WriteNewsItems(res.Items, cfg, time.Since(start))
}
