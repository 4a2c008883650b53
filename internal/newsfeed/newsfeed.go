// Package newsfeed fetches headlines from RSS feeds and SEC EDGAR filings
// and normalizes them into the news_unified layout.
package newsfeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/huangsam/fundscore/core"
	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
	"golang.org/x/time/rate"
)

const (
	// DefaultSECBaseURL serves the submissions JSON.
	DefaultSECBaseURL = "https://data.sec.gov"

	// DefaultArchiveBaseURL is where filing documents live.
	DefaultArchiveBaseURL = "https://www.sec.gov/Archives/edgar/data"

	// DefaultRateLimit stays under the SEC fair access limit of 10 requests per second.
	DefaultRateLimit = 8

	maxSECItems    = 60
	maxFeedItems   = 50
	maxSummaryText = 400
)

// ErrUserAgentRequired is returned when SEC requests are attempted without a User-Agent.
var ErrUserAgentRequired = errors.New("SEC requests need a User-Agent identifying you")

// Fetcher downloads headlines with a shared HTTP client and rate limiter.
type Fetcher struct {
	httpClient     *http.Client
	limiter        *rate.Limiter
	userAgent      string
	secBaseURL     string
	archiveBaseURL string
	workers        int
	logger         *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithUserAgent sets the User-Agent sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = strings.TrimSpace(ua)
	}
}

// WithSECBaseURL points submissions and archive URLs at another host.
func WithSECBaseURL(submissions, archive string) Option {
	return func(f *Fetcher) {
		f.secBaseURL = strings.TrimRight(submissions, "/")
		f.archiveBaseURL = strings.TrimRight(archive, "/")
	}
}

// WithRateLimit sets the request budget per second.
func WithRateLimit(perSecond int) Option {
	return func(f *Fetcher) {
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), max(1, perSecond))
	}
}

// WithWorkers sets how many sources are fetched at once.
func WithWorkers(n int) Option {
	return func(f *Fetcher) {
		f.workers = max(1, n)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// New creates a Fetcher with SEC defaults.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient:     &http.Client{Timeout: contract.DefaultHTTPTimeout},
		limiter:        rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		secBaseURL:     DefaultSECBaseURL,
		archiveBaseURL: DefaultArchiveBaseURL,
		workers:        1,
		logger:         contract.NewLogger("newsfeed"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewFromConfig creates a Fetcher from the runtime configuration.
func NewFromConfig(cfg *contract.Config) *Fetcher {
	return New(
		WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		WithUserAgent(cfg.SECUserAgent),
		WithWorkers(cfg.Workers),
	)
}

// get performs a rate limited GET and returns the body on a 200 response.
func (f *Fetcher) get(ctx context.Context, url, accept string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", accept)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Request describes one ingestion run.
type Request struct {
	Tickers    []string
	CIKs       map[string]string
	Feeds      []Feed
	Whitelist  schema.Whitelist
	AsOf       time.Time
	WindowDays int
}

// since is the earliest publication time kept.
func (r Request) since() time.Time {
	return r.AsOf.AddDate(0, 0, -max(1, r.WindowDays))
}

// Result is the unified, tagged and deduplicated output of a run.
type Result struct {
	Items  []schema.NewsItem
	Failed []string
}

// job is one source to fetch.
type job struct {
	name string
	run  func(context.Context) ([]schema.NewsItem, error)
}

type jobResult struct {
	name  string
	items []schema.NewsItem
	err   error
}

// jobs lists the SEC lookups for every ticker with a CIK, then every feed.
func (f *Fetcher) jobs(req Request) []job {
	since := req.since()
	var out []job
	if f.userAgent == "" {
		if len(req.Tickers) > 0 {
			f.logger.Warn("skipping SEC filings", "reason", ErrUserAgentRequired)
		}
	} else {
		for _, t := range req.Tickers {
			ticker := schema.NormalizeTicker(t)
			cik, ok := req.CIKs[ticker]
			if !ok {
				f.logger.Info("no CIK for ticker", "ticker", ticker)
				continue
			}
			out = append(out, job{
				name: "sec " + ticker,
				run: func(ctx context.Context) ([]schema.NewsItem, error) {
					return f.FetchSEC(ctx, ticker, cik, since)
				},
			})
		}
	}
	for _, feed := range req.Feeds {
		out = append(out, job{
			name: "rss " + feed.URL,
			run: func(ctx context.Context) ([]schema.NewsItem, error) {
				return f.FetchRSS(ctx, feed, since)
			},
		})
	}
	return out
}

// Run fetches every source on the worker pool. A failing source is logged
// and skipped; the rest still produce output.
func (f *Fetcher) Run(ctx context.Context, req Request) (Result, error) {
	jobs := f.jobs(req)
	if len(jobs) == 0 {
		return Result{}, errors.New("nothing to fetch: pass --feeds or set sec-user-agent and sec_ticker_cik.json")
	}

	jobCh := make(chan job, len(jobs))
	resultCh := make(chan jobResult, len(jobs))

	var wg sync.WaitGroup
	for range min(f.workers, len(jobs)) {
		wg.Go(func() {
			for j := range jobCh {
				if ctx.Err() != nil {
					resultCh <- jobResult{name: j.name, err: ctx.Err()}
					continue
				}
				items, err := j.run(ctx)
				resultCh <- jobResult{name: j.name, items: items, err: err}
			}
		})
	}

	for _, j := range jobs {
		jobCh <- j
	}
	close(jobCh)

	wg.Wait()
	close(resultCh)

	var res Result
	var all []schema.NewsItem
	for r := range resultCh {
		if r.err != nil {
			f.logger.Warn("source failed", "source", r.name, "error", r.err)
			res.Failed = append(res.Failed, r.name)
			continue
		}
		f.logger.Debug("source fetched", "source", r.name, "items", len(r.items))
		all = append(all, r.items...)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	since := req.since()
	kept := all[:0]
	for _, it := range all {
		if !it.PublishedAt.Before(since) {
			kept = append(kept, it)
		}
	}
	res.Items = core.DedupeNews(core.EnrichNews(kept, req.Whitelist))
	f.logger.Info("news fetched", "items", len(res.Items), "failed", len(res.Failed))
	return res, nil
}
