package core

import (
	"cmp"
	"math"
	"slices"

	"github.com/huangsam/fundscore/schema"
)

// ttmWindow is the number of quarters in a trailing twelve month sum.
const ttmWindow = 4

// FreeCashFlow is operating cash flow minus the absolute capital expenditure.
func FreeCashFlow(ocf, capex *float64) *float64 {
	if ocf == nil || capex == nil {
		return nil
	}
	return schema.FloatPtr(*ocf - math.Abs(*capex))
}

// safeDiv returns a / b, or nil when either is missing or b is zero.
func safeDiv(a, b *float64) *float64 {
	if a == nil || b == nil || *b == 0 {
		return nil
	}
	return schema.FloatPtr(*a / *b)
}

// pctChange returns (cur/prev - 1) * 100, or nil when prev is missing or zero.
func pctChange(cur, prev *float64) *float64 {
	r := safeDiv(cur, prev)
	if r == nil {
		return nil
	}
	return schema.FloatPtr((*r - 1) * 100)
}

// marginPct returns num / den * 100, or nil when den is missing or zero.
func marginPct(num, den *float64) *float64 {
	r := safeDiv(num, den)
	if r == nil {
		return nil
	}
	return schema.FloatPtr(*r * 100)
}

// rollingSum sums the window ending at i. Any missing value makes the sum missing.
func rollingSum(values []*float64, i, window int) *float64 {
	if i+1 < window {
		return nil
	}
	sum := 0.0
	for _, v := range values[i+1-window : i+1] {
		if v == nil {
			return nil
		}
		sum += *v
	}
	return schema.FloatPtr(sum)
}

// BuildTTM turns quarterly rows into TTM rows sorted by period end.
// Rows sharing a period end are collapsed, keeping the last one given.
func BuildTTM(quarters []schema.Quarter) []schema.TTMRow {
	byPeriod := make(map[int64]schema.Quarter, len(quarters))
	for _, q := range quarters {
		byPeriod[q.PeriodEnd.Unix()] = q
	}
	sorted := make([]schema.Quarter, 0, len(byPeriod))
	for _, q := range byPeriod {
		sorted = append(sorted, q)
	}
	slices.SortFunc(sorted, func(a, b schema.Quarter) int {
		return a.PeriodEnd.Compare(b.PeriodEnd)
	})

	rows := make([]schema.TTMRow, len(sorted))
	revenues := make([]*float64, len(sorted))
	fcfs := make([]*float64, len(sorted))
	for i, q := range sorted {
		rows[i].Quarter = q
		rows[i].FreeCashFlow = FreeCashFlow(q.OperatingCashFlow, q.CapitalExpenditure)
		revenues[i] = q.Revenue
		fcfs[i] = rows[i].FreeCashFlow
	}

	for i := range rows {
		rows[i].RevenueTTM = rollingSum(revenues, i, ttmWindow)
		rows[i].FCFTTM = rollingSum(fcfs, i, ttmWindow)
		rows[i].FCFMarginTTMPct = marginPct(rows[i].FCFTTM, rows[i].RevenueTTM)
		if i >= ttmWindow {
			prev := rows[i-ttmWindow]
			rows[i].RevenueTTMYoYPct = pctChange(rows[i].RevenueTTM, prev.RevenueTTM)
			rows[i].FCFTTMYoYPct = pctChange(rows[i].FCFTTM, prev.FCFTTM)
		}
	}
	return rows
}

// LatestTTM returns the most recent TTM row, if any.
func LatestTTM(rows []schema.TTMRow) (schema.TTMRow, bool) {
	if len(rows) == 0 {
		return schema.TTMRow{}, false
	}
	return rows[len(rows)-1], true
}

// BuildComps joins the latest TTM row of each ticker with its quote.
// The result is sorted by ticker.
func BuildComps(latest map[string]schema.TTMRow, quotes map[string]schema.Quote) []schema.CompsRow {
	out := make([]schema.CompsRow, 0, len(latest))
	for ticker, r := range latest {
		row := schema.CompsRow{
			Ticker:           ticker,
			PeriodEnd:        r.PeriodEnd,
			RevenueTTM:       r.RevenueTTM,
			FCFTTM:           r.FCFTTM,
			FCFMarginTTMPct:  r.FCFMarginTTMPct,
			RevenueTTMYoYPct: r.RevenueTTMYoYPct,
			FCFTTMYoYPct:     r.FCFTTMYoYPct,
			Cash:             r.Cash,
			Debt:             r.Debt,
		}
		if q, ok := quotes[ticker]; ok {
			row.Price = q.Price
			row.MarketCap = q.MarketCap
		}
		if row.Debt != nil && row.Cash != nil {
			row.NetDebt = schema.FloatPtr(*row.Debt - *row.Cash)
		}
		if row.MarketCap != nil && *row.MarketCap > 0 {
			row.FCFYield = safeDiv(row.FCFTTM, row.MarketCap)
		}
		if row.FCFTTM != nil && *row.FCFTTM > 0 {
			row.NetDebtToFCF = safeDiv(row.NetDebt, row.FCFTTM)
		}
		out = append(out, row)
	}
	slices.SortFunc(out, func(a, b schema.CompsRow) int {
		return cmp.Compare(a.Ticker, b.Ticker)
	})
	return out
}

// AnnualMetrics sorts annual rows and fills in FCF, margin and revenue growth.
func AnnualMetrics(rows []schema.AnnualRow) []schema.AnnualRow {
	out := slices.Clone(rows)
	slices.SortFunc(out, func(a, b schema.AnnualRow) int {
		return a.PeriodEnd.Compare(b.PeriodEnd)
	})
	for i := range out {
		if out[i].FreeCashFlow == nil {
			out[i].FreeCashFlow = FreeCashFlow(out[i].OperatingCashFlow, out[i].CapitalExpenditure)
		}
		out[i].FCFMarginPct = marginPct(out[i].FreeCashFlow, out[i].Revenue)
		if i > 0 {
			out[i].RevenueYoYPct = pctChange(out[i].Revenue, out[i-1].Revenue)
		}
	}
	return out
}

// LatestAnnualMetrics returns the latest_* entries from annual history.
func LatestAnnualMetrics(rows []schema.AnnualRow) schema.MetricTable {
	t := schema.NewMetricTable()
	if len(rows) == 0 {
		return t
	}
	last := rows[len(rows)-1]
	t.Set(schema.KeyLatestRevenueYoY, last.RevenueYoYPct)
	t.Set(schema.KeyLatestFreeCashFlow, last.FreeCashFlow)
	t.Set(schema.KeyLatestFCFMarginPct, last.FCFMarginPct)
	return t
}

// PeerRankPercentile is the share of peers at or below value, as a 0-100 percentile.
// Missing peers are ignored. It is nil when value is missing or no peer has a value.
func PeerRankPercentile(peers []*float64, value *float64) *float64 {
	if value == nil {
		return nil
	}
	n, atOrBelow := 0, 0
	for _, p := range peers {
		if p == nil || math.IsNaN(*p) {
			continue
		}
		n++
		if *p <= *value {
			atOrBelow++
		}
	}
	if n == 0 {
		return nil
	}
	return schema.FloatPtr(float64(atOrBelow) / float64(n) * 100)
}

// PeerRanks ranks one ticker among a peer set of comps rows.
// The ticker itself is expected to be part of peers.
func PeerRanks(peers []schema.CompsRow, self schema.CompsRow) schema.PeerRanks {
	collect := func(get func(schema.CompsRow) *float64) []*float64 {
		vals := make([]*float64, len(peers))
		for i, p := range peers {
			vals[i] = get(p)
		}
		return vals
	}
	yield := func(r schema.CompsRow) *float64 { return r.FCFYield }
	revYoY := func(r schema.CompsRow) *float64 { return r.RevenueTTMYoYPct }
	fcfYoY := func(r schema.CompsRow) *float64 { return r.FCFTTMYoYPct }
	margin := func(r schema.CompsRow) *float64 { return r.FCFMarginTTMPct }

	return schema.PeerRanks{
		FCFYield:   PeerRankPercentile(collect(yield), yield(self)),
		RevenueYoY: PeerRankPercentile(collect(revYoY), revYoY(self)),
		FCFYoY:     PeerRankPercentile(collect(fcfYoY), fcfYoY(self)),
		FCFMargin:  PeerRankPercentile(collect(margin), margin(self)),
	}
}

// rankMetrics converts peer ranks into metric table entries.
func rankMetrics(r schema.PeerRanks) schema.MetricTable {
	t := schema.NewMetricTable()
	t.Set(schema.KeyRankFCFYield, r.FCFYield)
	t.Set(schema.KeyRankRevenueYoY, r.RevenueYoY)
	t.Set(schema.KeyRankFCFYoY, r.FCFYoY)
	t.Set(schema.KeyRankFCFMargin, r.FCFMargin)
	return t
}
