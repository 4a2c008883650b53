package core

import (
	"cmp"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/fundscore/schema"
)

// Input table names checked for completeness.
const (
	TableComps     = "comps_snapshot"
	TableAnnual    = "fundamentals_annual_history"
	TableNews      = "news_unified"
	TableProxy     = "news_sentiment_proxy"
	TableDashboard = "news_risk_dashboard"
)

var requiredTables = []string{TableComps, TableAnnual, TableNews, TableProxy, TableDashboard}

// DataCompleteness scores the share of required tables that have rows, plus
// whether the ticker appears in the comps snapshot.
func DataCompleteness(ticker string, tableRows map[string]int, comps []schema.CompsRow) schema.Completeness {
	ticker = schema.NormalizeTicker(ticker)
	out := schema.Completeness{Missing: []string{}}
	total, good := 0, 0
	for _, name := range requiredTables {
		total++
		if tableRows[name] > 0 {
			good++
		} else {
			out.Missing = append(out.Missing, "Missing or empty: "+name)
		}
	}
	if len(comps) > 0 {
		total++
		if slices.ContainsFunc(comps, func(c schema.CompsRow) bool { return schema.NormalizeTicker(c.Ticker) == ticker }) {
			good++
		} else {
			out.Missing = append(out.Missing, "Ticker not present in comps_snapshot: "+ticker)
		}
	}
	out.Score = int(math.Round(float64(good) / float64(max(1, total)) * 100))
	return out
}

// ComputeConfidence measures how easy the ticker's evidence is to verify by
// clicking through. It is not a forecast.
func ComputeConfidence(ticker string, items []schema.NewsItem, wl schema.Whitelist) schema.Confidence {
	conf := schema.Confidence{SourceCounts: map[string]int{}, WhitelistLoaded: len(wl) > 0}
	if len(items) == 0 {
		conf.Reasons = []string{"No news evidence rows found (news_unified is empty)."}
		return conf
	}
	own := ForTicker(items, ticker)
	if len(own) == 0 {
		conf.Reasons = []string{fmt.Sprintf("No news rows for %s in news_unified.", schema.NormalizeTicker(ticker))}
		return conf
	}

	var withURL, whitelisted int
	for _, it := range own {
		src := strings.ToLower(strings.TrimSpace(it.Source))
		conf.SourceCounts[src]++
		if strings.HasPrefix(it.URL, "http") {
			withURL++
		}
		if _, ok := wl[schema.ExtractDomain(it.URL)]; ok {
			whitelisted++
		}
		if src == "sec" {
			conf.SECRows++
		}
	}
	total := float64(len(own))
	conf.TotalRows = len(own)
	conf.URLRatio = float64(withURL) / total
	if conf.WhitelistLoaded {
		conf.TopTierRatio = float64(whitelisted) / total
	}
	secRatio := float64(conf.SECRows) / total
	for _, src := range slices.Sorted(maps.Keys(conf.SourceCounts)) {
		if conf.LargestSource == "" || conf.SourceCounts[src] > conf.SourceCounts[conf.LargestSource] {
			conf.LargestSource = src
		}
	}
	conf.LargestSourceShare = float64(conf.SourceCounts[conf.LargestSource]) / total

	score := 20
	var reasons []string
	switch {
	case conf.URLRatio >= 0.90:
		score += 25
		reasons = append(reasons, "Most evidence rows have clickable URLs (easy to verify).")
	case conf.URLRatio >= 0.60:
		score += 18
		reasons = append(reasons, "Many evidence rows have clickable URLs.")
	case conf.URLRatio >= 0.30:
		score += 10
		reasons = append(reasons, "Some evidence rows have URLs, but many are not directly verifiable by click.")
	default:
		reasons = append(reasons, "Few evidence rows have URLs (hard to verify quickly).")
	}

	switch {
	case secRatio >= 0.05:
		score += 15
		reasons = append(reasons, "SEC filings included (high-veracity sources).")
	case conf.SECRows > 0:
		score += 10
		reasons = append(reasons, "Some SEC filings included.")
	}

	if conf.WhitelistLoaded {
		switch {
		case conf.TopTierRatio >= 0.30:
			score += 20
			reasons = append(reasons, "A meaningful share of articles come from your top-tier domain whitelist.")
		case conf.TopTierRatio >= 0.10:
			score += 12
			reasons = append(reasons, "Some articles come from your top-tier domain whitelist.")
		default:
			score += 4
			reasons = append(reasons, "Few articles match your top-tier whitelist (not necessarily bad, but weaker verifiability).")
		}
	} else {
		reasons = append(reasons, "No whitelist loaded; confidence uses source mix and URL coverage only.")
	}

	sharePct := conf.LargestSourceShare * 100
	switch {
	case conf.LargestSourceShare >= 0.90:
		score -= 20
		reasons = append(reasons, fmt.Sprintf("Single-source bias: ~%.0f%% from %s.", sharePct, conf.LargestSource))
	case conf.LargestSourceShare >= 0.75:
		score -= 10
		reasons = append(reasons, fmt.Sprintf("Source concentration: ~%.0f%% from %s.", sharePct, conf.LargestSource))
	default:
		score += 5
		reasons = append(reasons, "Evidence is reasonably diversified across sources.")
	}

	conf.Score = int(schema.Clamp(float64(score), 0, 100))
	summary := fmt.Sprintf("Evidence rows=%d, URL coverage=%.0f%%, top source=%s (%.0f%%).",
		conf.TotalRows, conf.URLRatio*100, conf.LargestSource, sharePct)
	conf.Reasons = append([]string{summary}, reasons...)
	return conf
}

// Red flag thresholds.
const (
	fcfVolatileRatio    = 0.8
	marginSlopeFloor    = -1.5
	leverageFlagFloor   = 6.0
	stretchedYield      = 0.01
	stretchedGrowthCeil = 10.0
	tagSpikeCount       = 3
	newsShockFlag       = -10
)

// RedFlagInputs gathers what the structured red flags look at.
type RedFlagInputs struct {
	Annual    []schema.AnnualRow
	TTM       []schema.TTMRow
	Comps     *schema.CompsRow
	Proxy     *schema.SentimentProxy
	Dashboard []schema.RiskDashboardRow
}

// fcfSeries prefers annual history and falls back to TTM rows.
func (in RedFlagInputs) fcfSeries() []float64 {
	var out []float64
	for _, r := range in.Annual {
		if r.FreeCashFlow != nil {
			out = append(out, *r.FreeCashFlow)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, r := range in.TTM {
		if r.FreeCashFlow != nil {
			out = append(out, *r.FreeCashFlow)
		}
	}
	return out
}

func (in RedFlagInputs) marginSeries() []float64 {
	var out []float64
	for _, r := range in.Annual {
		if r.FCFMarginPct != nil {
			out = append(out, *r.FCFMarginPct)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, r := range in.TTM {
		if r.FCFMarginTTMPct != nil {
			out = append(out, *r.FCFMarginTTMPct)
		}
	}
	return out
}

// sampleStd is the n-1 standard deviation.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func meanAbs(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += math.Abs(x)
	}
	return s / float64(len(xs))
}

// trendSlope is (last-first)/(n-1), zero with fewer than three points.
func trendSlope(xs []float64) float64 {
	if len(xs) < 3 {
		return 0
	}
	return (xs[len(xs)-1] - xs[0]) / float64(max(1, len(xs)-1))
}

// ComputeRedFlags returns structured warnings sorted HIGH, MED, LOW.
func ComputeRedFlags(ticker string, in RedFlagInputs) []schema.RedFlag {
	ticker = schema.NormalizeTicker(ticker)
	var flags []schema.RedFlag

	fcf := in.fcfSeries()
	if len(fcf) >= 4 {
		vol := 0.0
		if base := meanAbs(fcf); base > 0 {
			vol = sampleStd(fcf) / base
		}
		if vol >= fcfVolatileRatio {
			flags = append(flags, schema.RedFlag{
				Code:         "FCF_VOLATILE",
				Severity:     schema.SeverityMed,
				Title:        "Free cash flow is volatile",
				PlainEnglish: "The business generates cash, but it swings a lot year to year.",
				WhyItMatters: "Volatile cash makes valuation less reliable and increases downside risk in weak years.",
				WhatToCheck:  "Read the 10-K cash flow discussion: is volatility due to one-time items or structural issues?",
				Values:       map[string]float64{"fcf_volatility_proxy": schema.Round(vol, 2)},
			})
		}
	}
	if len(fcf) >= 2 && fcf[len(fcf)-1] < 0 {
		flags = append(flags, schema.RedFlag{
			Code:         "FCF_NEGATIVE",
			Severity:     schema.SeverityHigh,
			Title:        "Free cash flow is negative",
			PlainEnglish: "The company is burning cash after expenses and investment.",
			WhyItMatters: "Cash burn forces financing (debt or equity) and raises failure and dilution risk.",
			WhatToCheck:  "Is this temporary investment or ongoing operating weakness?",
			Values:       map[string]float64{"latest_fcf": fcf[len(fcf)-1]},
		})
	}

	if margins := in.marginSeries(); len(margins) >= 3 {
		if slope := trendSlope(margins); slope < marginSlopeFloor {
			flags = append(flags, schema.RedFlag{
				Code:         "MARGIN_COMPRESS",
				Severity:     schema.SeverityMed,
				Title:        "Cash margin is compressing",
				PlainEnglish: "The company is turning a smaller % of sales into free cash than before.",
				WhyItMatters: "Margin compression often signals rising costs, competition or pricing pressure.",
				WhatToCheck:  "Check unit economics and cost drivers; look for competition or regulatory cost shifts.",
				Values:       map[string]float64{"trend_slope": schema.Round(slope, 2)},
			})
		}
	}

	if c := in.Comps; c != nil {
		if nd := c.NetDebtToFCF; nd != nil && *nd > leverageFlagFloor {
			flags = append(flags, schema.RedFlag{
				Code:         "LEVERAGE_HIGH",
				Severity:     schema.SeverityHigh,
				Title:        "Leverage looks high vs cash generation",
				PlainEnglish: fmt.Sprintf("Net debt is about %.1f years of free cash flow.", *nd),
				WhyItMatters: "High leverage reduces flexibility and increases risk in downturns.",
				WhatToCheck:  "Debt maturities and interest expense trend; any refinancing risk?",
				Values:       map[string]float64{"net_debt_to_fcf": *nd},
			})
		}
		if y := c.FCFYield; y != nil && *y < stretchedYield && (c.RevenueTTMYoYPct == nil || *c.RevenueTTMYoYPct < stretchedGrowthCeil) {
			vals := map[string]float64{"fcf_yield": *y}
			if c.RevenueTTMYoYPct != nil {
				vals["revenue_ttm_yoy_pct"] = *c.RevenueTTMYoYPct
			}
			flags = append(flags, schema.RedFlag{
				Code:         "VALUATION_STRETCHED",
				Severity:     schema.SeverityMed,
				Title:        "Valuation may be stretched vs cash",
				PlainEnglish: "You are paying a lot for each dollar of free cash flow.",
				WhyItMatters: "Expensive valuations can fall hard if growth slows or margins slip.",
				WhatToCheck:  "Compare to peers and to the company's own history; check forward guidance.",
				Values:       vals,
			})
		}
	}

	for _, r := range in.Dashboard {
		if schema.NormalizeTicker(r.Ticker) != ticker || r.RiskTag == schema.TagTotal || r.NegCount30d < tagSpikeCount {
			continue
		}
		tag := string(r.RiskTag)
		flags = append(flags, schema.RedFlag{
			Code:         "RISK_TAG_SPIKE_" + tag,
			Severity:     schema.SeverityMed,
			Title:        "Repeated negative risk theme: " + tag,
			PlainEnglish: fmt.Sprintf("We saw repeated negatives tagged %s over the last 30 days.", tag),
			WhyItMatters: "Repetition is more important than a single scary headline; it suggests persistence.",
			WhatToCheck:  "Open the worst headlines under this tag and verify the underlying event.",
			Values:       map[string]float64{"neg_count_30d": float64(r.NegCount30d)},
		})
	}

	if p := in.Proxy; p != nil && p.Shock7d <= newsShockFlag {
		flags = append(flags, schema.RedFlag{
			Code:         "NEWS_SHOCK_7D",
			Severity:     schema.SeverityMed,
			Title:        "Severe negative news shock (7 days)",
			PlainEnglish: "Recent news includes unusually negative or impactful stories.",
			WhyItMatters: "Shocks often reflect real events such as lawsuits, regulation, accidents or earnings surprises.",
			WhatToCheck:  "Verify the top 3 negative headlines and whether they are one-off or repeating.",
			Values:       map[string]float64{"shock_7d": float64(p.Shock7d), "shock_30d": float64(p.Shock30d)},
		})
	}

	slices.SortStableFunc(flags, func(a, b schema.RedFlag) int {
		return cmp.Compare(schema.SeverityRank(a.Severity), schema.SeverityRank(b.Severity))
	})
	return flags
}

// Scenario model settings.
const (
	scenarioYears          = 3
	defaultScenarioGrowth  = 0.10
	scenarioMethod         = "FCF projection + implied market cap using target FCF yield"
	noteScenarioMissingRow = "Missing comps row; scenario model is limited."
	noteScenarioMissingFCF = "Missing FCF TTM or market cap; cannot compute scenarios reliably."
)

// BuildScenarios projects FCF three years out under bear, base and bull
// growth and values it at a target FCF yield.
func BuildScenarios(c *schema.CompsRow) schema.Scenarios {
	out := schema.Scenarios{
		Method:          scenarioMethod,
		ProjectionYears: scenarioYears,
		Cases:           []schema.ScenarioCase{},
		Notes: []string{
			"This is a simple range model for context, not a precise valuation.",
			"If growth slows or margins compress, implied value falls; if they improve, implied value rises.",
		},
	}
	if c == nil {
		out.Notes = append(out.Notes, noteScenarioMissingRow)
		return out
	}
	if c.FCFTTM == nil || c.MarketCap == nil || *c.FCFTTM == 0 || *c.MarketCap == 0 {
		out.Notes = append(out.Notes, noteScenarioMissingFCF)
		return out
	}
	fcf, mcap := *c.FCFTTM, *c.MarketCap
	out.FCFTTM, out.MarketCap = c.FCFTTM, c.MarketCap

	g := defaultScenarioGrowth
	if c.RevenueTTMYoYPct != nil {
		g = *c.RevenueTTMYoYPct / 100
	}
	curYield := fcf / mcap
	if c.FCFYield != nil && *c.FCFYield > 0 {
		curYield = *c.FCFYield
	}
	out.CurrentYield = &curYield
	baseTarget := schema.Clamp(curYield, 0.02, 0.08)

	cases := []struct {
		name   string
		growth float64
		yield  float64
	}{
		{"bear", math.Max(g-0.08, -0.05), math.Min(baseTarget+0.02, 0.12)},
		{"base", schema.Clamp(g, 0.03, 0.25), baseTarget},
		{"bull", schema.Clamp(g+0.05, 0.05, 0.35), math.Max(baseTarget-0.01, 0.015)},
	}
	for _, sc := range cases {
		projected := fcf * math.Pow(1+sc.growth, scenarioYears)
		sCase := schema.ScenarioCase{Name: sc.name, FCFGrowth: sc.growth, TargetFCFYield: sc.yield, ProjectedFCF: projected}
		if sc.yield > 0 {
			implied := projected / sc.yield
			upside := (implied/mcap - 1) * 100
			sCase.ImpliedMarketCap, sCase.ImpliedUpsidePct = &implied, &upside
		}
		out.Cases = append(out.Cases, sCase)
	}
	return out
}

const (
	dcfGridCAGR    = 0.10
	noteDCFMissing = "Not enough data for DCF (need revenue_ttm and fcf_margin_ttm_pct)."
)

// DCFFCFF discounts revenue-driven free cash flow to the firm. The terminal
// value and EV are nil when wacc <= g.
func DCFFCFF(rev0, cagr, margin float64, years int, wacc, g float64) schema.DCFResult {
	years = max(years, 1)
	res := schema.DCFResult{}
	var cfN float64
	for t := 1; t <= years; t++ {
		cf := rev0 * math.Pow(1+cagr, float64(t)) * margin
		res.PVCashFlows += cf / math.Pow(1+wacc, float64(t))
		cfN = cf
	}
	if wacc <= g {
		return res
	}
	tv := cfN * (1 + g) / (wacc - g)
	pvTV := tv / math.Pow(1+wacc, float64(years))
	ev := res.PVCashFlows + pvTV
	res.TerminalValue, res.PVTerminal, res.EV = &tv, &pvTV, &ev
	return res
}

// BuildDCF runs the configured scenarios and the WACC by terminal growth grid.
func BuildDCF(c *schema.CompsRow, cfg schema.DCFConfig) *schema.DCFAppendix {
	out := &schema.DCFAppendix{ProjectionYears: cfg.ProjectionYears}
	if c == nil {
		out.Note = noteDCFMissing
		return out
	}
	out.RevenueTTM, out.MarketCap = c.RevenueTTM, c.MarketCap
	if c.FCFMarginTTMPct != nil {
		out.FCFMargin = schema.FloatPtr(*c.FCFMarginTTMPct / 100)
	}
	out.NetDebt = c.NetDebt
	if out.NetDebt == nil && c.Debt != nil && c.Cash != nil {
		out.NetDebt = schema.FloatPtr(*c.Debt - *c.Cash)
	}
	if out.RevenueTTM == nil || out.FCFMargin == nil {
		out.Note = noteDCFMissing
		return out
	}
	rev0, margin := *out.RevenueTTM, *out.FCFMargin
	netDebt := 0.0
	if out.NetDebt != nil {
		netDebt = *out.NetDebt
	}

	for _, a := range cfg.Scenarios {
		m := margin
		if a.FCFMargin != nil {
			m = *a.FCFMargin
		}
		res := DCFFCFF(rev0, a.RevCAGR, m, cfg.ProjectionYears, a.WACC, a.TerminalG)
		res.DCFAssumption = a
		res.FCFMargin = schema.FloatPtr(m)
		if res.EV != nil {
			res.EquityValue = schema.FloatPtr(*res.EV - netDebt)
		}
		out.Scenarios = append(out.Scenarios, res)
	}

	out.Sensitivity = schema.DCFSensitivity{WACCGrid: cfg.WACCGrid, TerminalGGrid: cfg.TerminalGGrid}
	for _, w := range cfg.WACCGrid {
		row := make([]*float64, 0, len(cfg.TerminalGGrid))
		for _, g := range cfg.TerminalGGrid {
			row = append(row, DCFFCFF(rev0, dcfGridCAGR, margin, cfg.ProjectionYears, w, g).EV)
		}
		out.Sensitivity.EV = append(out.Sensitivity.EV, row)
	}
	return out
}

// BuildDecisionCard summarizes the score with bucket lights.
func BuildDecisionCard(res schema.ScoreResult, completeness schema.Completeness, confidence schema.Confidence, flags []schema.RedFlag) schema.DecisionCard {
	lights := make(map[string]schema.Light, 5)
	for _, b := range res.Buckets.Points() {
		lights[b.Name] = BucketLight(&b.Points)
	}
	redFlags := slices.Clone(res.RedFlags)
	for _, f := range flags {
		if d := f.Detail(); !slices.Contains(redFlags, d) {
			redFlags = append(redFlags, d)
		}
	}
	return schema.DecisionCard{
		Ticker:       res.Ticker,
		AsOf:         res.AsOf,
		Score:        res.Score,
		Rating:       res.Rating,
		Lights:       lights,
		Completeness: completeness.Score,
		Confidence:   confidence.Score,
		RedFlags:     redFlags,
	}
}

// Alert thresholds.
const (
	alertRevGrowthFloor = 5.0
	alertMarginFloor    = 5.0
	alertShockCeil      = -20.0
	alertTagSpike       = 6.0
)

// BuildAlerts checks the thesis-breaker red lines.
func BuildAlerts(ticker string, t schema.MetricTable, now time.Time) schema.AlertReport {
	rep := schema.AlertReport{
		Ticker:      schema.NormalizeTicker(ticker),
		GeneratedAt: now.UTC(),
		Inputs: map[string]*float64{
			string(schema.KeyLatestRevenueYoY):   t.Ptr(schema.KeyLatestRevenueYoY),
			string(schema.KeyLatestFreeCashFlow): t.Ptr(schema.KeyLatestFreeCashFlow),
			string(schema.KeyLatestFCFMarginPct): t.Ptr(schema.KeyLatestFCFMarginPct),
			string(schema.KeyNewsShock30d):       t.Ptr(schema.KeyNewsShock30d),
		},
		Alerts: []schema.Alert{},
	}
	if v, ok := t.Get(schema.KeyLatestRevenueYoY); ok && v < alertRevGrowthFloor {
		rep.Alerts = append(rep.Alerts, schema.Alert{ID: "rev_slowdown", Severity: schema.SeverityHigh,
			Message: "Revenue growth slowed to low single digits (<5%). Thesis may weaken."})
	}
	if v, ok := t.Get(schema.KeyLatestFreeCashFlow); ok && v < 0 {
		rep.Alerts = append(rep.Alerts, schema.Alert{ID: "fcf_negative", Severity: schema.SeverityHigh,
			Message: "Free Cash Flow is negative. Thesis may break if sustained."})
	}
	if v, ok := t.Get(schema.KeyLatestFCFMarginPct); ok && v < alertMarginFloor {
		rep.Alerts = append(rep.Alerts, schema.Alert{ID: "margin_weak", Severity: schema.SeverityMed,
			Message: "FCF margin is weak (<5%). Company is not converting sales into cash efficiently."})
	}
	if v, ok := t.Get(schema.KeyNewsShock30d); ok && v < alertShockCeil {
		rep.Alerts = append(rep.Alerts, schema.Alert{ID: "headline_crisis", Severity: schema.SeverityMed,
			Message: "News shock is severe (<-20). Risks may be escalating."})
	}
	for _, tag := range schema.AlertRiskTags {
		key := schema.RiskNegKey(tag)
		rep.Inputs[string(key)] = t.Ptr(key)
		if v, _ := t.Get(key); v >= alertTagSpike {
			name := strings.ToLower(string(tag))
			rep.Alerts = append(rep.Alerts, schema.Alert{ID: name + "_spike", Severity: schema.SeverityMed,
				Message: fmt.Sprintf("%s negatives are elevated (>=6 in 30d). Read the top evidence items.", strings.ToUpper(name[:1])+name[1:])})
		}
	}
	return rep
}

const severeShock7d = -20

// weakestBuckets names the n buckets with the fewest raw points.
func weakestBuckets(b schema.BucketScore, n int) []string {
	pts := b.Points()
	slices.SortStableFunc(pts, func(x, y schema.BucketPoints) int { return cmp.Compare(x.Points, y.Points) })
	names := make([]string, 0, n)
	for _, p := range pts[:min(n, len(pts))] {
		names = append(names, p.Name)
	}
	return names
}

// Verdict is the one-paragraph plain-English call.
func Verdict(res schema.ScoreResult, shock7d *int) string {
	weak := strings.Join(weakestBuckets(res.Buckets, 2), ", ")
	var sb strings.Builder
	switch res.Rating {
	case schema.RatingBuy:
		fmt.Fprintf(&sb, "Verdict: BUY (score %d/100). Fundamentals and quality are supportive, but watch %s.", res.Score, weak)
	case schema.RatingHold:
		fmt.Fprintf(&sb, "Verdict: HOLD (score %d/100). Mixed signals; strongest areas are offset by weaker %s.", res.Score, weak)
	case schema.RatingAvoid:
		fmt.Fprintf(&sb, "Verdict: AVOID (score %d/100). The current setup looks fragile, mainly due to weak %s.", res.Score, weak)
	default:
		fmt.Fprintf(&sb, "Verdict: %s (score %d/100).", res.Rating, res.Score)
	}
	if len(res.RedFlags) > 0 {
		sb.WriteString(" Key concerns: " + strings.Join(res.RedFlags[:min(3, len(res.RedFlags))], "; ") + ".")
	}
	if shock7d != nil && *shock7d <= severeShock7d {
		sb.WriteString(" Headlines are unusually negative in the last 7 days (news shock is severe).")
	}
	return sb.String()
}
