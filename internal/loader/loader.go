// Package loader reads the CSV tables and thesis files of a data directory.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/huangsam/fundscore/core"
	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
)

var (
	// ErrDataUnavailable is returned when the quarterly fundamentals cannot be read.
	ErrDataUnavailable = contract.ErrDataUnavailable

	// ErrTickerNotFound is returned when a ticker has no quarterly rows.
	ErrTickerNotFound = contract.ErrTickerNotFound
)

// Table names for the inputs without a diagnostics counterpart.
const (
	TableQuarterly = "fundamentals_quarterly"
	TableQuotes    = "quotes"
	TableWhitelist = "source_whitelist"
)

// File names inside the data directory.
const (
	QuarterlyFile = "fundamentals_quarterly.csv"
	QuotesFile    = "quotes.csv"
	AnnualFile    = "fundamentals_annual.csv"
	CompsFile     = "comps_snapshot.csv"
	NewsFile      = "news_unified.csv"
	ProxyFile     = "news_sentiment_proxy.csv"
	DashboardFile = "news_risk_dashboard.csv"
	WhitelistFile = "source_whitelist.csv"
	TickerCIKFile = "sec_ticker_cik.json"
)

// Dir is a data directory on local disk.
type Dir struct {
	dataDir    string
	thesesDir  string
	thesisPath string
}

var _ contract.ReportSource = &Dir{}

// New creates a Dir from the configured data and thesis locations.
func New(cfg *contract.Config) *Dir {
	return &Dir{
		dataDir:    cfg.DataDir,
		thesesDir:  cfg.ThesesDir,
		thesisPath: cfg.ThesisPath,
	}
}

// DataDir returns the directory the tables are read from.
func (d *Dir) DataDir() string {
	return d.dataDir
}

func (d *Dir) path(name string) string {
	return filepath.Join(d.dataDir, name)
}

// optionalTable reads one optional table. A missing file becomes a warning
// and leaves the table untouched; any other failure is returned.
func (d *Dir) optionalTable(ds *schema.Dataset, table, file string, required []string, visit func(record) error) error {
	n, err := readCSV(d.path(file), required, visit)
	if errors.Is(err, fs.ErrNotExist) {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("%s not found, %s skipped", file, table))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	ds.TableRows[table] = n
	return nil
}

// Load reads every table in the data directory. Only the quarterly
// fundamentals are required; news is enriched against the whitelist.
func (d *Dir) Load(ctx context.Context) (*schema.Dataset, error) {
	ds := &schema.Dataset{
		Quotes:    map[string]schema.Quote{},
		Whitelist: schema.Whitelist{},
		CIKs:      map[string]string{},
		TableRows: map[string]int{},
	}

	n, err := readCSV(d.path(QuarterlyFile), []string{"ticker", "period_end"}, func(r record) error {
		q, err := parseQuarter(r)
		if err != nil {
			return err
		}
		ds.Quarters = append(ds.Quarters, q)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", QuarterlyFile, ErrDataUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", QuarterlyFile, err)
	}
	ds.TableRows[TableQuarterly] = n

	steps := []func(*schema.Dataset) error{
		d.loadQuotes,
		d.loadAnnual,
		d.loadComps,
		d.loadWhitelist,
		d.loadNews,
		d.loadProxy,
		d.loadDashboard,
		d.loadCIKs,
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := step(ds); err != nil {
			return nil, err
		}
	}

	ds.News = core.EnrichNews(ds.News, ds.Whitelist)
	return ds, nil
}

func (d *Dir) loadQuotes(ds *schema.Dataset) error {
	return d.optionalTable(ds, TableQuotes, QuotesFile, []string{"ticker"}, func(r record) error {
		q := parseQuote(r)
		ds.Quotes[q.Ticker] = q
		return nil
	})
}

func (d *Dir) loadAnnual(ds *schema.Dataset) error {
	return d.optionalTable(ds, core.TableAnnual, AnnualFile, []string{"ticker", "period_end"}, func(r record) error {
		row, err := parseAnnual(r)
		if err != nil {
			return err
		}
		ds.Annual = append(ds.Annual, row)
		return nil
	})
}

func (d *Dir) loadComps(ds *schema.Dataset) error {
	return d.optionalTable(ds, core.TableComps, CompsFile, []string{"ticker"}, func(r record) error {
		ds.Comps = append(ds.Comps, parseComps(r))
		return nil
	})
}

func (d *Dir) loadNews(ds *schema.Dataset) error {
	return d.optionalTable(ds, core.TableNews, NewsFile, []string{"ticker", "published_at", "title"}, func(r record) error {
		item, err := parseNews(r)
		if err != nil {
			return err
		}
		ds.News = append(ds.News, item)
		return nil
	})
}

// A present but empty table is kept non-nil so core does not derive it.
func (d *Dir) loadProxy(ds *schema.Dataset) error {
	err := d.optionalTable(ds, core.TableProxy, ProxyFile, []string{"ticker"}, func(r record) error {
		ds.Proxy = append(ds.Proxy, parseProxy(r))
		return nil
	})
	if _, ok := ds.TableRows[core.TableProxy]; ok && ds.Proxy == nil {
		ds.Proxy = []schema.SentimentProxy{}
	}
	return err
}

func (d *Dir) loadDashboard(ds *schema.Dataset) error {
	err := d.optionalTable(ds, core.TableDashboard, DashboardFile, []string{"ticker", "risk_tag"}, func(r record) error {
		ds.Dashboard = append(ds.Dashboard, parseDashboard(r))
		return nil
	})
	if _, ok := ds.TableRows[core.TableDashboard]; ok && ds.Dashboard == nil {
		ds.Dashboard = []schema.RiskDashboardRow{}
	}
	return err
}

func (d *Dir) loadWhitelist(ds *schema.Dataset) error {
	return d.optionalTable(ds, TableWhitelist, WhitelistFile, []string{"domain"}, func(r record) error {
		return addWhitelist(ds.Whitelist, r)
	})
}

func (d *Dir) loadCIKs(ds *schema.Dataset) error {
	ciks, err := ReadTickerCIKs(d.path(TickerCIKFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", TickerCIKFile, err)
	}
	ds.CIKs = ciks
	return nil
}

// exists reports whether a regular file is present at path.
func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
