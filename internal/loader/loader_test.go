package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/fundscore/core"
	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quarterlyCSV = "\ufeffTicker,Period_End,Revenue,Operating_Cash_Flow,Capital_Expenditure,Cash,Debt\n" +
	"uber,2025-06-30,12650000000,2470000000,-110000000,7000000000,9800000000\n" +
	"UBER,2025-09-30,13470000000,,-150000000,nan,9900000000\n" +
	"LYFT,2025-09-30,1690000000,270000000,-30000000,1900000000,\n"

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newDir(t *testing.T, files map[string]string) *Dir {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeFile(t, dir, name, content)
	}
	return New(&contract.Config{DataDir: dir, ThesesDir: filepath.Join(dir, "theses")})
}

func TestLoadMissingQuarterly(t *testing.T) {
	_, err := newDir(t, nil).Load(context.Background())
	require.ErrorIs(t, err, ErrDataUnavailable)
	assert.Contains(t, err.Error(), QuarterlyFile)
}

func TestLoadQuarterlyOnly(t *testing.T) {
	ds, err := newDir(t, map[string]string{QuarterlyFile: quarterlyCSV}).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, ds.Quarters, 3)
	assert.Equal(t, []string{"UBER", "LYFT"}, ds.Tickers())

	first := ds.Quarters[0]
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), first.PeriodEnd)
	require.NotNil(t, first.Revenue)
	assert.InDelta(t, 12.65e9, *first.Revenue, 1)

	second := ds.Quarters[1]
	assert.Nil(t, second.OperatingCashFlow, "blank cells are missing")
	assert.Nil(t, second.Cash, "nan is missing")
	assert.Nil(t, ds.Quarters[2].Debt)

	assert.Equal(t, 3, ds.TableRows[TableQuarterly])
	assert.Nil(t, ds.Comps)
	assert.Nil(t, ds.News)
	assert.Nil(t, ds.Proxy)
	assert.Nil(t, ds.Dashboard)
	assert.NotContains(t, ds.TableRows, core.TableNews)
	assert.Len(t, ds.Warnings, 7)
}

func TestLoadNewsKeepsSuppliedImpact(t *testing.T) {
	d := newDir(t, map[string]string{
		QuarterlyFile: quarterlyCSV,
		NewsFile: "ticker,published_at,source,title,url,risk_tag,impact_score\n" +
			"UBER,2026-01-08,cnbc,Uber quarterly update,https://cnbc.com/a,,-3\n" +
			"UBER,2026-01-07,cnbc,Uber faces lawsuit over drivers,https://cnbc.com/b,gossip,1\n" +
			"UBER,2026-01-06,cnbc,Uber faces lawsuit over fares,https://cnbc.com/c,,\n",
	})

	ds, err := d.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, ds.News, 3)

	tests := []struct {
		name       string
		index      int
		wantImpact int
	}{
		{"blank tag keeps impact", 0, -3},
		{"unknown tag keeps impact", 1, 1},
		{"blank impact is scored", 2, core.ImpactScore("Uber faces lawsuit over fares")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := ds.News[tt.index]
			assert.NotEmpty(t, it.RiskTag, "a missing tag is filled from the title")
			assert.Equal(t, tt.wantImpact, it.ImpactScore)
		})
	}
}

func TestLoadCompsNetDebtToFCFColumns(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"short column", "net_debt_to_fcf"},
		{"ttm column", "net_debt_to_fcf_ttm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDir(t, map[string]string{
				QuarterlyFile: quarterlyCSV,
				CompsFile:     "ticker,fcf_ttm," + tt.header + "\nUBER,8,1.5\n",
			})
			ds, err := d.Load(context.Background())
			require.NoError(t, err)
			require.Len(t, ds.Comps, 1)
			require.NotNil(t, ds.Comps[0].NetDebtToFCF)
			assert.InDelta(t, 1.5, *ds.Comps[0].NetDebtToFCF, 1e-9)
		})
	}
}

func TestLoadFullDirectory(t *testing.T) {
	d := newDir(t, map[string]string{
		QuarterlyFile: quarterlyCSV,
		QuotesFile:    "ticker,price,market_cap\nUBER,72.5,150000000000\nLYFT,,\n",
		AnnualFile:    "ticker,period_end,revenue,operating_cash_flow,capital_expenditure,free_cash_flow\nUBER,2024-12-31,43978000000,7137000000,-242000000,6895000000\n",
		CompsFile:     "ticker,price,market_cap,period_end,revenue_ttm,fcf_ttm,fcf_yield,net_debt_to_fcf\nUBER,72.5,150000000000,,47000000000,8500000000,0.0567,0.3\n",
		NewsFile: "ticker,published_at,source,title,url,risk_tag,impact_score\n" +
			"uber,2026-01-08T09:00:00Z,Reuters,Uber faces lawsuit over driver classification,https://www.reuters.com/a,,\n" +
			"UBER,2026-01-07 12:00:00,cnbc,EU opens probe into ride hailing,https://cnbc.com/b,regulatory,\n" +
			"UBER,2026-01-06,finnhub,Uber posts record quarter,https://example.com/c,financial,2\n",
		ProxyFile:     "ticker,articles_7d,articles_30d,neg_7d,proxy_score_7d,proxy_score_30d\n",
		DashboardFile: "ticker,risk_tag,neg_count_30d,shock_30d,neg_count_7d,shock_7d,worst_7d_title\nUBER,TOTAL,3,-8,2,-6,Uber faces lawsuit\n",
		WhitelistFile: "Domain\nwww.Reuters.com\nbloomberg.com\n",
		TickerCIKFile: `{"0":{"cik_str":1543151,"ticker":"UBER","title":"Uber Technologies, Inc."},"1":{"cik_str":1759509,"ticker":"lyft","title":"Lyft, Inc."}}`,
	})

	ds, err := d.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ds.Warnings)

	t.Run("quotes", func(t *testing.T) {
		require.Contains(t, ds.Quotes, "UBER")
		assert.InDelta(t, 72.5, *ds.Quotes["UBER"].Price, 1e-9)
		assert.Nil(t, ds.Quotes["LYFT"].MarketCap)
	})

	t.Run("annual and comps", func(t *testing.T) {
		require.Len(t, ds.Annual, 1)
		assert.InDelta(t, 6.895e9, *ds.Annual[0].FreeCashFlow, 1)
		require.Len(t, ds.Comps, 1)
		assert.True(t, ds.Comps[0].PeriodEnd.IsZero())
		assert.InDelta(t, 5.67, *ds.Comps[0].FCFYieldPct(), 1e-9)
		assert.Nil(t, ds.Comps[0].Cash)
	})

	t.Run("news is enriched", func(t *testing.T) {
		require.Len(t, ds.News, 3)
		lawsuit := ds.News[0]
		assert.Equal(t, "UBER", lawsuit.Ticker)
		assert.Equal(t, "reuters", lawsuit.Source)
		assert.Equal(t, schema.TagLabor, lawsuit.RiskTag)
		assert.Equal(t, -3, lawsuit.ImpactScore)
		assert.Greater(t, lawsuit.Trust, core.SourceWeight("reuters"), "whitelisted domain earns a bonus")
		assert.NotEmpty(t, lawsuit.DedupeKey)

		regulatory := ds.News[1]
		assert.Equal(t, schema.TagRegulatory, regulatory.RiskTag, "valid tags are kept")
		assert.Equal(t, -3, regulatory.ImpactScore, "blank impact is scored from the title")
		assert.Equal(t, time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC), regulatory.PublishedAt)

		record := ds.News[2]
		assert.Equal(t, schema.TagFinancial, record.RiskTag)
		assert.Equal(t, 2, record.ImpactScore)
		assert.InDelta(t, core.SourceWeight("finnhub"), record.Trust, 1e-9)
	})

	t.Run("empty proxy stays present", func(t *testing.T) {
		assert.NotNil(t, ds.Proxy)
		assert.Empty(t, ds.Proxy)
		assert.Equal(t, 0, ds.TableRows[core.TableProxy])
	})

	t.Run("dashboard keeps the total row", func(t *testing.T) {
		require.Len(t, ds.Dashboard, 1)
		assert.Equal(t, schema.TagTotal, ds.Dashboard[0].RiskTag)
		assert.InDelta(t, -8, ds.Dashboard[0].Shock30d, 1e-9)
		assert.Equal(t, "Uber faces lawsuit", ds.Dashboard[0].Worst7dTitle)
	})

	t.Run("whitelist and ciks", func(t *testing.T) {
		assert.Equal(t, schema.Whitelist{"reuters.com": schema.TierTop, "bloomberg.com": schema.TierTop}, ds.Whitelist)
		assert.Equal(t, map[string]string{"UBER": "0001543151", "LYFT": "0001759509"}, ds.CIKs)
	})

	t.Run("table rows", func(t *testing.T) {
		assert.Equal(t, 1, ds.TableRows[core.TableAnnual])
		assert.Equal(t, 1, ds.TableRows[core.TableComps])
		assert.Equal(t, 3, ds.TableRows[core.TableNews])
		assert.Equal(t, 1, ds.TableRows[core.TableDashboard])
		assert.Equal(t, 2, ds.TableRows[TableWhitelist])
	})
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "bad period end",
			files:   map[string]string{QuarterlyFile: "ticker,period_end\nUBER,last quarter\n"},
			wantErr: "line 2",
		},
		{
			name:    "missing required column",
			files:   map[string]string{QuarterlyFile: "ticker,revenue\nUBER,1\n"},
			wantErr: `missing column "period_end"`,
		},
		{
			name: "unknown whitelist tier",
			files: map[string]string{
				QuarterlyFile: quarterlyCSV,
				WhitelistFile: "domain,tier\nreuters.com,PLATINUM\n",
			},
			wantErr: "unknown tier",
		},
		{
			name: "news without title column",
			files: map[string]string{
				QuarterlyFile: quarterlyCSV,
				NewsFile:      "ticker,published_at\nUBER,2026-01-01\n",
			},
			wantErr: NewsFile,
		},
		{
			name: "malformed cik map",
			files: map[string]string{
				QuarterlyFile: quarterlyCSV,
				TickerCIKFile: "[1,2,3]",
			},
			wantErr: TickerCIKFile,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newDir(t, tt.files).Load(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newDir(t, map[string]string{QuarterlyFile: quarterlyCSV}).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWhitelistTiers(t *testing.T) {
	ds, err := newDir(t, map[string]string{
		QuarterlyFile: quarterlyCSV,
		WhitelistFile: "domain,tier\nreuters.com,top\ncnbc.com,Mid\nexample.com,\n,LOW\n",
	}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schema.Whitelist{
		"reuters.com": schema.TierTop,
		"cnbc.com":    schema.TierMid,
		"example.com": schema.TierTop,
	}, ds.Whitelist)
}

func TestParseTickerCIKs(t *testing.T) {
	ciks, err := ParseTickerCIKs([]byte(`{"0":{"cik_str":320193,"ticker":"AAPL"},"1":{"cik_str":"789019","ticker":"msft"},"2":{"cik_str":1,"ticker":""}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"AAPL": "0000320193", "MSFT": "0000789019"}, ciks)

	_, err = ParseTickerCIKs([]byte("not json"))
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-01-08", time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)},
		{"2026-01-08T09:30:00Z", time.Date(2026, 1, 8, 9, 30, 0, 0, time.UTC)},
		{"2026-01-08T09:30:00-05:00", time.Date(2026, 1, 8, 14, 30, 0, 0, time.UTC)},
		{"2026-01-08 09:30:00", time.Date(2026, 1, 8, 9, 30, 0, 0, time.UTC)},
		{"2026-01-08 09:30 UTC", time.Date(2026, 1, 8, 9, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTime(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseTime("yesterday")
	assert.Error(t, err)
}

func FuzzParseTime(f *testing.F) {
	f.Add("2026-01-08")
	f.Add("2026-01-08T09:30:00Z")
	f.Add("")
	f.Fuzz(func(t *testing.T, s string) {
		got, err := parseTime(s)
		if err == nil {
			assert.Equal(t, time.UTC, got.Location())
		}
	})
}
