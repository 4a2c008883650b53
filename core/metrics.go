package core

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
)

// TickerData is every input slice the report needs for one ticker.
type TickerData struct {
	Ticker    string
	AsOf      time.Time
	TTM       []schema.TTMRow
	Annual    []schema.AnnualRow
	Comps     *schema.CompsRow  // derived row overlaid with the snapshot row
	Universe  []schema.CompsRow // comps rows used as the peer set
	News      []schema.NewsItem // this ticker only, newest first
	AllNews   []schema.NewsItem
	HasNews   bool
	Proxy     *schema.SentimentProxy
	Dashboard []schema.RiskDashboardRow // this ticker only
	Summary   schema.NewsSummary
	Ranks     schema.PeerRanks
	TableRows map[string]int
	Whitelist schema.Whitelist
}

// groupQuarters splits quarterly rows by normalized ticker.
func groupQuarters(quarters []schema.Quarter) map[string][]schema.Quarter {
	out := map[string][]schema.Quarter{}
	for _, q := range quarters {
		t := schema.NormalizeTicker(q.Ticker)
		out[t] = append(out[t], q)
	}
	return out
}

// DerivedComps builds a comps row for every ticker with quarterly fundamentals.
func DerivedComps(ds *schema.Dataset) []schema.CompsRow {
	latest := map[string]schema.TTMRow{}
	for ticker, qs := range groupQuarters(ds.Quarters) {
		if row, ok := LatestTTM(BuildTTM(qs)); ok {
			latest[ticker] = row
		}
	}
	return BuildComps(latest, ds.Quotes)
}

// overlay copies every non-nil field of snap onto base.
func overlay(base, snap schema.CompsRow) schema.CompsRow {
	pick := func(dst **float64, src *float64) {
		if src != nil {
			*dst = src
		}
	}
	pick(&base.Price, snap.Price)
	pick(&base.MarketCap, snap.MarketCap)
	pick(&base.RevenueTTM, snap.RevenueTTM)
	pick(&base.FCFTTM, snap.FCFTTM)
	pick(&base.FCFMarginTTMPct, snap.FCFMarginTTMPct)
	pick(&base.RevenueTTMYoYPct, snap.RevenueTTMYoYPct)
	pick(&base.FCFTTMYoYPct, snap.FCFTTMYoYPct)
	pick(&base.Cash, snap.Cash)
	pick(&base.Debt, snap.Debt)
	pick(&base.NetDebt, snap.NetDebt)
	pick(&base.FCFYield, snap.FCFYield)
	pick(&base.NetDebtToFCF, snap.NetDebtToFCF)
	if !snap.PeriodEnd.IsZero() {
		base.PeriodEnd = snap.PeriodEnd
	}
	return rederive(base, snap)
}

// rederive recomputes the ratios the snapshot left blank from the merged inputs.
// net_debt_to_fcf is only defined while fcf_ttm is positive.
func rederive(row, snap schema.CompsRow) schema.CompsRow {
	if snap.NetDebt == nil && row.Debt != nil && row.Cash != nil {
		row.NetDebt = schema.FloatPtr(*row.Debt - *row.Cash)
	}
	if snap.FCFYield == nil {
		row.FCFYield = nil
		if row.MarketCap != nil && *row.MarketCap > 0 {
			row.FCFYield = safeDiv(row.FCFTTM, row.MarketCap)
		}
	}
	if snap.NetDebtToFCF == nil {
		row.NetDebtToFCF = safeDiv(row.NetDebt, row.FCFTTM)
	}
	if row.FCFTTM == nil || *row.FCFTTM <= 0 {
		row.NetDebtToFCF = nil
	}
	return row
}

// MergeComps overlays snapshot rows on derived rows by ticker.
// Snapshot tickers without fundamentals are kept as they are.
func MergeComps(derived, snapshot []schema.CompsRow) []schema.CompsRow {
	byTicker := make(map[string]schema.CompsRow, len(derived)+len(snapshot))
	for _, r := range derived {
		byTicker[schema.NormalizeTicker(r.Ticker)] = r
	}
	for _, s := range snapshot {
		t := schema.NormalizeTicker(s.Ticker)
		s.Ticker = t
		if base, ok := byTicker[t]; ok {
			byTicker[t] = overlay(base, s)
			continue
		}
		byTicker[t] = rederive(s, s)
	}
	out := slices.Collect(maps.Values(byTicker))
	slices.SortFunc(out, func(a, b schema.CompsRow) int { return cmp.Compare(a.Ticker, b.Ticker) })
	return out
}

// CompsFor finds the comps row for ticker.
func CompsFor(rows []schema.CompsRow, ticker string) *schema.CompsRow {
	ticker = schema.NormalizeTicker(ticker)
	for i := range rows {
		if schema.NormalizeTicker(rows[i].Ticker) == ticker {
			return &rows[i]
		}
	}
	return nil
}

// peerUniverse limits rows to ticker plus peers. An empty peer list keeps every row.
func peerUniverse(rows []schema.CompsRow, ticker string, peers []string) []schema.CompsRow {
	if len(peers) == 0 {
		return rows
	}
	keep := map[string]struct{}{schema.NormalizeTicker(ticker): {}}
	for _, p := range peers {
		keep[schema.NormalizeTicker(p)] = struct{}{}
	}
	var out []schema.CompsRow
	for _, r := range rows {
		if _, ok := keep[schema.NormalizeTicker(r.Ticker)]; ok {
			out = append(out, r)
		}
	}
	return out
}

// ProxyRows returns the precomputed proxy table, or computes it from news.
func ProxyRows(ds *schema.Dataset, asOf time.Time) []schema.SentimentProxy {
	if ds.Proxy != nil {
		return ds.Proxy
	}
	return BuildSentimentProxy(ds.News, asOf)
}

// DashboardRows returns the precomputed dashboard, or computes it from news.
func DashboardRows(ds *schema.Dataset, asOf time.Time) []schema.RiskDashboardRow {
	if ds.Dashboard != nil {
		return ds.Dashboard
	}
	return BuildRiskDashboard(ds.News, asOf)
}

// dashboardFor keeps the rows of one ticker.
func dashboardFor(rows []schema.RiskDashboardRow, ticker string) []schema.RiskDashboardRow {
	ticker = schema.NormalizeTicker(ticker)
	var out []schema.RiskDashboardRow
	for _, r := range rows {
		if schema.NormalizeTicker(r.Ticker) == ticker {
			out = append(out, r)
		}
	}
	return out
}

// tickerAnnual keeps the annual rows of one ticker with their derived ratios.
func tickerAnnual(rows []schema.AnnualRow, ticker string) []schema.AnnualRow {
	var own []schema.AnnualRow
	for _, r := range rows {
		if schema.NormalizeTicker(r.Ticker) == ticker {
			own = append(own, r)
		}
	}
	return AnnualMetrics(own)
}

// Collect selects and derives everything about one ticker from a dataset.
// It returns contract.ErrTickerNotFound when the ticker has no quarterly rows.
func Collect(ds *schema.Dataset, ticker string, peers []string, asOf time.Time) (*TickerData, error) {
	ticker = schema.NormalizeTicker(ticker)
	quarters := groupQuarters(ds.Quarters)[ticker]
	if len(quarters) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, contract.ErrTickerNotFound)
	}

	derived := DerivedComps(ds)
	universe := peerUniverse(MergeComps(derived, ds.Comps), ticker, peers)

	d := &TickerData{
		Ticker:    ticker,
		AsOf:      asOf,
		TTM:       BuildTTM(quarters),
		Annual:    tickerAnnual(ds.Annual, ticker),
		Universe:  universe,
		AllNews:   ds.News,
		News:      ForTicker(ds.News, ticker),
		Whitelist: ds.Whitelist,
		TableRows: maps.Clone(ds.TableRows),
	}
	if d.TableRows == nil {
		d.TableRows = map[string]int{}
	}
	_, d.HasNews = ds.TableRows[TableNews]
	sortNewestFirst(d.News)

	if c := CompsFor(universe, ticker); c != nil {
		row := *c
		d.Comps = &row
		d.Ranks = PeerRanks(universe, row)
	}
	if ds.Comps == nil {
		// Derived comps stand in for a missing snapshot.
		d.TableRows[TableComps] = len(derived)
	}

	proxies := ProxyRows(ds, asOf)
	d.Proxy = ProxyFor(proxies, ticker)
	dash := DashboardRows(ds, asOf)
	d.Dashboard = dashboardFor(dash, ticker)
	if d.HasNews {
		if ds.Proxy == nil {
			d.TableRows[TableProxy] = len(proxies)
		}
		if ds.Dashboard == nil {
			d.TableRows[TableDashboard] = len(dash)
		}
	}

	d.Summary = SummarizeNews(d.News, asOf)
	return d, nil
}

// latestMetrics returns annual latest_* values, falling back to the latest TTM row.
func latestMetrics(annual []schema.AnnualRow, ttm []schema.TTMRow) schema.MetricTable {
	if t := LatestAnnualMetrics(annual); len(t) > 0 {
		return t
	}
	t := schema.NewMetricTable()
	last, ok := LatestTTM(ttm)
	if !ok {
		return t
	}
	t.Set(schema.KeyLatestRevenueYoY, last.RevenueTTMYoYPct)
	t.Set(schema.KeyLatestFreeCashFlow, last.FCFTTM)
	t.Set(schema.KeyLatestFCFMarginPct, last.FCFMarginTTMPct)
	return t
}

// newsMetrics converts the news summary into metric table entries.
func newsMetrics(s schema.NewsSummary) schema.MetricTable {
	t := schema.NewMetricTable()
	t.SetValue(schema.KeyNewsNeg7d, float64(s.Neg7d))
	t.SetValue(schema.KeyNewsNeg30d, float64(s.Neg30d))
	t.SetValue(schema.KeyNewsShock7d, float64(s.Shock7d))
	t.SetValue(schema.KeyNewsCoreHits30d, float64(s.CoreHits()))
	return t
}

// proxyMetrics converts a sentiment proxy row into metric table entries.
func proxyMetrics(p schema.SentimentProxy) schema.MetricTable {
	t := schema.NewMetricTable()
	t.SetValue(schema.KeyNewsProxyScore7d, float64(p.ProxyScore7d))
	t.SetValue(schema.KeyNewsProxyScore30d, float64(p.ProxyScore30d))
	t.SetValue(schema.KeyNewsShock30d, float64(p.Shock30d))
	return t
}

// dashboardMetrics converts per-tag dashboard rows into risk_<tag>_* entries.
func dashboardMetrics(rows []schema.RiskDashboardRow) schema.MetricTable {
	t := schema.NewMetricTable()
	for _, r := range rows {
		if r.RiskTag == schema.TagTotal {
			continue
		}
		t.SetValue(schema.RiskNegKey(r.RiskTag), float64(r.NegCount30d))
		t.SetValue(schema.RiskShockKey(r.RiskTag), r.Shock30d)
	}
	return t
}

// bearPrice scales the price by the bear scenario's implied upside.
func bearPrice(price *float64, sc schema.Scenarios) *float64 {
	if price == nil {
		return nil
	}
	for _, c := range sc.Cases {
		if c.Name == "bear" && c.ImpliedUpsidePct != nil {
			return schema.FloatPtr(*price * (1 + *c.ImpliedUpsidePct/100))
		}
	}
	return nil
}

// BuildMetricTable merges every source for one ticker, later sources winning:
// derived comps, snapshot, annual latest values, peer ranks, news summary,
// sentiment proxy, risk dashboard and finally thesis extras.
func BuildMetricTable(d *TickerData, th *schema.Thesis) schema.MetricTable {
	t := schema.NewMetricTable()
	if d.Comps != nil {
		t.Merge(d.Comps.Metrics())
	}
	t.MergePresent(latestMetrics(d.Annual, d.TTM))
	t.Merge(rankMetrics(d.Ranks))
	if d.HasNews {
		t.Merge(newsMetrics(d.Summary))
	}
	if d.Proxy != nil {
		t.Merge(proxyMetrics(*d.Proxy))
	}
	t.Merge(dashboardMetrics(d.Dashboard))

	if bp := bearPrice(t.Ptr(schema.KeyPrice), BuildScenarios(d.Comps)); bp != nil {
		t.Set(schema.KeyBearPrice, bp)
	}
	if th != nil {
		for k, v := range th.Metrics {
			t.SetValue(k, v)
		}
	}
	return t
}

// RedFlagInputs gathers the structured red flag inputs for the ticker.
func (d *TickerData) RedFlagInputs() RedFlagInputs {
	return RedFlagInputs{
		Annual:    d.Annual,
		TTM:       d.TTM,
		Comps:     d.Comps,
		Proxy:     d.Proxy,
		Dashboard: d.Dashboard,
	}
}
