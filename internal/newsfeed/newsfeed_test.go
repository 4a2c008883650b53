package newsfeed

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/internal/loader"
	"github.com/huangsam/fundscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUA = "fundscore-tests research@example.com"

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Uber Newsroom</title>
<item>
  <title>Uber announces record quarter</title>
  <link>https://investor.uber.com/news/1</link>
  <description>&lt;p&gt;Gross bookings &lt;b&gt;grew&lt;/b&gt; 21%.&lt;/p&gt;</description>
  <pubDate>Thu, 08 Jan 2026 09:00:00 +0000</pubDate>
</item>
<item>
  <title>Undated item</title>
  <link>https://investor.uber.com/news/2</link>
</item>
<item>
  <title>Old news</title>
  <link>https://investor.uber.com/news/3</link>
  <pubDate>Mon, 01 Sep 2025 09:00:00 +0000</pubDate>
</item>
</channel></rss>`

const submissionsBody = `{"cik":"1543151","filings":{"recent":{
  "form":["8-K","10-Q","4"],
  "filingDate":["2026-01-06","2025-11-04","2025-12-20"],
  "accessionNumber":["0001543151-26-000002","0001543151-25-000120","0001543151-25-000140"],
  "primaryDocument":["uber-8k.htm","uber-10q.htm","form4.xml"]
}}}`

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// newServer serves a feed, submissions for UBER and a failing path.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssBody))
	})
	mux.HandleFunc("/submissions/CIK0001543151.json", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != testUA {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(submissionsBody))
	})
	mux.HandleFunc("/broken.xml", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newFetcher(srv *httptest.Server, opts ...Option) *Fetcher {
	base := []Option{
		WithHTTPClient(srv.Client()),
		WithSECBaseURL(srv.URL, "https://www.sec.gov/Archives/edgar/data"),
		WithRateLimit(1000),
		WithWorkers(2),
		WithLogger(quietLogger()),
	}
	return New(append(base, opts...)...)
}

var since = time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)

func TestParseFeeds(t *testing.T) {
	feeds, err := ParseFeeds([]string{"uber=https://feeds.reuters.com/uber", " LYFT = http://lyft.com/rss"})
	require.NoError(t, err)
	assert.Equal(t, []Feed{
		{Ticker: "UBER", URL: "https://feeds.reuters.com/uber", Source: "reuters"},
		{Ticker: "LYFT", URL: "http://lyft.com/rss", Source: "lyft"},
	}, feeds)

	for _, bad := range []string{"https://no-ticker.com", "=https://x.com", "UBER=ftp://x.com"} {
		t.Run(bad, func(t *testing.T) {
			_, err := ParseFeeds([]string{bad})
			assert.Error(t, err)
		})
	}
}

func TestFetchRSS(t *testing.T) {
	srv := newServer(t)
	f := newFetcher(srv)

	items, err := f.FetchRSS(context.Background(), Feed{Ticker: "UBER", URL: srv.URL + "/feed.xml", Source: "uber"}, since)
	require.NoError(t, err)
	require.Len(t, items, 1, "undated and stale items are skipped")

	it := items[0]
	assert.Equal(t, "UBER", it.Ticker)
	assert.Equal(t, "Uber announces record quarter", it.Title)
	assert.Equal(t, time.Date(2026, 1, 8, 9, 0, 0, 0, time.UTC), it.PublishedAt)
	assert.Equal(t, "Gross bookings **grew** 21%.", it.Summary)
	assert.Equal(t, providerRSS, it.Provider)
}

func TestFetchRSSErrors(t *testing.T) {
	srv := newServer(t)
	f := newFetcher(srv)

	_, err := f.FetchRSS(context.Background(), Feed{Ticker: "UBER", URL: srv.URL + "/broken.xml"}, since)
	assert.ErrorContains(t, err, "status 500")
}

func TestFetchSEC(t *testing.T) {
	srv := newServer(t)
	f := newFetcher(srv, WithUserAgent(testUA))

	items, err := f.FetchSEC(context.Background(), "uber", "0001543151", since)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "UBER SEC filing: 8-K (2026-01-06)", items[0].Title)
	assert.Equal(t, "https://www.sec.gov/Archives/edgar/data/1543151/000154315126000002/uber-8k.htm", items[0].URL)
	assert.Equal(t, "sec", items[0].Source)
	assert.Equal(t, "UBER SEC filing: 4 (2025-12-20)", items[1].Title)
}

func TestFetchSECRequiresUserAgent(t *testing.T) {
	srv := newServer(t)
	_, err := newFetcher(srv).FetchSEC(context.Background(), "UBER", "0001543151", since)
	assert.ErrorIs(t, err, ErrUserAgentRequired)
}

func TestRun(t *testing.T) {
	srv := newServer(t)
	f := newFetcher(srv, WithUserAgent(testUA))

	res, err := f.Run(context.Background(), Request{
		Tickers: []string{"UBER", "LYFT"},
		CIKs:    map[string]string{"UBER": "0001543151"},
		Feeds: []Feed{
			{Ticker: "UBER", URL: srv.URL + "/feed.xml", Source: "uber"},
			{Ticker: "UBER", URL: srv.URL + "/broken.xml", Source: "broken"},
		},
		Whitelist:  schema.Whitelist{"sec.gov": schema.TierTop},
		AsOf:       time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		WindowDays: 30,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"rss " + srv.URL + "/broken.xml"}, res.Failed)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "Uber announces record quarter", res.Items[0].Title, "newest first")
	for _, it := range res.Items {
		assert.NotEmpty(t, it.RiskTag)
		assert.NotEmpty(t, it.DedupeKey)
		assert.Positive(t, it.Trust)
	}
	assert.Equal(t, schema.TagOther, res.Items[0].RiskTag)
	assert.Equal(t, 2, res.Items[0].ImpactScore)
}

func TestRunNothingToFetch(t *testing.T) {
	srv := newServer(t)
	_, err := newFetcher(srv).Run(context.Background(), Request{Tickers: []string{"UBER"}})
	assert.ErrorContains(t, err, "nothing to fetch")
}

func TestWriteUnified(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", loader.NewsFile)
	items := []schema.NewsItem{{
		Ticker: "UBER", PublishedAt: time.Date(2026, 1, 8, 9, 0, 0, 0, time.UTC),
		Source: "reuters", Title: "Uber, Lyft face probe", URL: "https://reuters.com/x",
		RiskTag: schema.TagRegulatory, ImpactScore: -3, Summary: "Regulators are looking.",
	}}
	require.NoError(t, WriteUnified(path, items))

	cfg := &contract.Config{DataDir: filepath.Dir(path)}
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DataDir, loader.QuarterlyFile), []byte("ticker,period_end\nUBER,2025-09-30\n"), 0o644))
	ds, err := loader.New(cfg).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, ds.News, 1)
	assert.Equal(t, items[0].Title, ds.News[0].Title)
	assert.Equal(t, schema.TagRegulatory, ds.News[0].RiskTag)
	assert.Equal(t, -3, ds.News[0].ImpactScore)
	assert.Equal(t, "Regulators are looking.", ds.News[0].Summary)

	entries, err := os.ReadDir(cfg.DataDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files are left behind")
}

func TestExecuteNewsFetch(t *testing.T) {
	srv := newServer(t)
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, loader.QuarterlyFile), []byte("ticker,period_end\nUBER,2025-09-30\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, loader.TickerCIKFile), []byte(`{"0":{"cik_str":1543151,"ticker":"UBER"}}`), 0o644))

	cfg := &contract.Config{
		DataDir:        dataDir,
		AsOf:           time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		NewsWindowDays: 30,
		Feeds:          []string{"UBER=" + srv.URL + "/feed.xml"},
		Output:         schema.JSONOut,
		OutputFile:     filepath.Join(t.TempDir(), "fetched.json"),
		Workers:        2,
	}
	f := newFetcher(srv, WithUserAgent(testUA))
	require.NoError(t, ExecuteNewsFetch(context.Background(), cfg, loader.New(cfg), f))

	ds, err := loader.New(cfg).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, ds.News, 3)
	assert.FileExists(t, cfg.OutputFile)

	// A second run dedupes against the stored table.
	require.NoError(t, ExecuteNewsFetch(context.Background(), cfg, loader.New(cfg), f))
	ds, err = loader.New(cfg).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, ds.News, 3)
}
