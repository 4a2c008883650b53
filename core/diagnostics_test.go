package core

import (
	"strings"
	"testing"
	"time"

	"github.com/huangsam/fundscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func TestDataCompleteness(t *testing.T) {
	all := map[string]int{TableComps: 3, TableAnnual: 12, TableNews: 40, TableProxy: 3, TableDashboard: 9}
	comps := []schema.CompsRow{{Ticker: "UBER"}, {Ticker: "LYFT"}}

	tests := []struct {
		name      string
		ticker    string
		rows      map[string]int
		comps     []schema.CompsRow
		wantScore int
		wantLen   int
	}{
		{"everything present", "uber", all, comps, 100, 0},
		{"no comps rows", "UBER", map[string]int{TableAnnual: 1, TableNews: 1, TableProxy: 1, TableDashboard: 1}, nil, 80, 1},
		{"ticker absent from comps", "DASH", all, comps, 83, 1},
		{"nothing", "UBER", map[string]int{}, nil, 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DataCompleteness(tt.ticker, tt.rows, tt.comps)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Len(t, got.Missing, tt.wantLen)
		})
	}

	got := DataCompleteness("DASH", all, comps)
	assert.Equal(t, []string{"Ticker not present in comps_snapshot: DASH"}, got.Missing)
}

func TestComputeConfidenceEmpty(t *testing.T) {
	conf := ComputeConfidence("UBER", nil, nil)
	assert.Equal(t, 0, conf.Score)
	require.Len(t, conf.Reasons, 1)
	assert.Contains(t, conf.Reasons[0], "No news evidence rows")

	conf = ComputeConfidence("UBER", []schema.NewsItem{headlineAt("LYFT", 1, "reuters", "Lyft update", 0, schema.TagOther)}, nil)
	assert.Equal(t, 0, conf.Score)
	assert.Equal(t, []string{"No news rows for UBER in news_unified."}, conf.Reasons)
}

func TestComputeConfidenceMixedSources(t *testing.T) {
	noURL := headlineAt("UBER", 3, "cnbc", "Uber drivers rally", 0, schema.TagLabor)
	noURL.URL = ""
	items := []schema.NewsItem{
		headlineAt("UBER", 1, "reuters", "Uber earnings", 2, schema.TagFinancial),
		headlineAt("UBER", 2, "Reuters", "Uber probe", -3, schema.TagRegulatory),
		headlineAt("UBER", 2, "sec", "Uber 10-Q", 0, schema.TagOther),
		noURL,
	}

	conf := ComputeConfidence("UBER", items, nil)

	// 20 base + 18 URLs + 15 SEC + 0 no whitelist + 5 diversified
	assert.Equal(t, 58, conf.Score)
	assert.Equal(t, 4, conf.TotalRows)
	assert.Equal(t, 1, conf.SECRows)
	assert.Equal(t, "reuters", conf.LargestSource)
	assert.InDelta(t, 0.5, conf.LargestSourceShare, 1e-9)
	assert.InDelta(t, 0.75, conf.URLRatio, 1e-9)
	assert.False(t, conf.WhitelistLoaded)
	require.NotEmpty(t, conf.Reasons)
	assert.Equal(t, "Evidence rows=4, URL coverage=75%, top source=reuters (50%).", conf.Reasons[0])
	assert.Contains(t, conf.Reasons, "SEC filings included (high-veracity sources).")
}

func TestComputeConfidenceSingleSource(t *testing.T) {
	var items []schema.NewsItem
	for i := range 10 {
		items = append(items, headlineAt("UBER", i, "finnhub", "headline "+string(rune('a'+i)), 0, schema.TagOther))
	}
	wl := schema.Whitelist{"finnhub.com": schema.TierTop}

	conf := ComputeConfidence("UBER", items, wl)

	// 20 base + 25 URLs + 20 whitelist - 20 single source
	assert.Equal(t, 45, conf.Score)
	assert.InDelta(t, 1.0, conf.TopTierRatio, 1e-9)
	assert.Contains(t, conf.Reasons, "Single-source bias: ~100% from finnhub.")
}

func TestComputeRedFlags(t *testing.T) {
	annual := []schema.AnnualRow{
		{FreeCashFlow: fp(10), FCFMarginPct: fp(10)},
		{FreeCashFlow: fp(-5), FCFMarginPct: fp(7)},
		{FreeCashFlow: fp(12), FCFMarginPct: fp(4)},
		{FreeCashFlow: fp(-8)},
	}
	in := RedFlagInputs{
		Annual: annual,
		Comps:  &schema.CompsRow{Ticker: "UBER", NetDebtToFCF: fp(9.87), FCFYield: fp(0.005)},
		Proxy:  &schema.SentimentProxy{Ticker: "UBER", Shock7d: -12, Shock30d: -20},
		Dashboard: []schema.RiskDashboardRow{
			{Ticker: "UBER", RiskTag: schema.TagLabor, NegCount30d: 3},
			{Ticker: "UBER", RiskTag: schema.TagTotal, NegCount30d: 5},
			{Ticker: "UBER", RiskTag: schema.TagSafety, NegCount30d: 2},
			{Ticker: "LYFT", RiskTag: schema.TagLabor, NegCount30d: 4},
		},
	}

	flags := ComputeRedFlags("uber", in)

	codes := make([]string, 0, len(flags))
	for _, f := range flags {
		codes = append(codes, f.Code)
	}
	assert.Equal(t, []string{
		"FCF_NEGATIVE",
		"LEVERAGE_HIGH",
		"FCF_VOLATILE",
		"MARGIN_COMPRESS",
		"VALUATION_STRETCHED",
		"RISK_TAG_SPIKE_LABOR",
		"NEWS_SHOCK_7D",
	}, codes)
	assert.Equal(t, -8.0, flags[0].Values["latest_fcf"])
	assert.Equal(t, "Net debt is about 9.9 years of free cash flow.", flags[1].PlainEnglish)
	assert.InDelta(t, 1.17, flags[2].Values["fcf_volatility_proxy"], 1e-9)
	assert.InDelta(t, -3.0, flags[3].Values["trend_slope"], 1e-9)
	assert.Equal(t, "[HIGH] Free cash flow is negative", flags[0].Detail())
}

func TestComputeRedFlagsTTMFallback(t *testing.T) {
	ttm := []schema.TTMRow{{FreeCashFlow: fp(5)}, {FreeCashFlow: fp(-1)}}
	flags := ComputeRedFlags("UBER", RedFlagInputs{TTM: ttm})
	require.Len(t, flags, 1)
	assert.Equal(t, "FCF_NEGATIVE", flags[0].Code)
}

func TestComputeRedFlagsQuiet(t *testing.T) {
	in := RedFlagInputs{
		Comps: &schema.CompsRow{NetDebtToFCF: fp(2), FCFYield: fp(0.005), RevenueTTMYoYPct: fp(25)},
		Proxy: &schema.SentimentProxy{Shock7d: -9},
	}
	assert.Empty(t, ComputeRedFlags("UBER", in))
}

func TestBuildScenarios(t *testing.T) {
	sc := BuildScenarios(&schema.CompsRow{FCFTTM: fp(10), MarketCap: fp(100), RevenueTTMYoYPct: fp(20)})

	require.Len(t, sc.Cases, 3)
	assert.Equal(t, scenarioYears, sc.ProjectionYears)
	assert.InDelta(t, 0.1, *sc.CurrentYield, 1e-9)

	bear, base, bull := sc.Cases[0], sc.Cases[1], sc.Cases[2]
	assert.Equal(t, "bear", bear.Name)
	assert.InDelta(t, 0.12, bear.FCFGrowth, 1e-9)
	assert.InDelta(t, 0.10, bear.TargetFCFYield, 1e-9)

	assert.InDelta(t, 0.20, base.FCFGrowth, 1e-9)
	assert.InDelta(t, 0.08, base.TargetFCFYield, 1e-9)
	assert.InDelta(t, 17.28, base.ProjectedFCF, 1e-9)
	require.NotNil(t, base.ImpliedMarketCap)
	assert.InDelta(t, 216, *base.ImpliedMarketCap, 1e-6)
	assert.InDelta(t, 116, *base.ImpliedUpsidePct, 1e-6)

	assert.InDelta(t, 0.25, bull.FCFGrowth, 1e-9)
	assert.InDelta(t, 0.07, bull.TargetFCFYield, 1e-9)
}

func TestBuildScenariosMissingInputs(t *testing.T) {
	sc := BuildScenarios(nil)
	assert.Empty(t, sc.Cases)
	assert.Contains(t, sc.Notes, noteScenarioMissingRow)

	sc = BuildScenarios(&schema.CompsRow{FCFTTM: fp(0), MarketCap: fp(100)})
	assert.Empty(t, sc.Cases)
	assert.Contains(t, sc.Notes, noteScenarioMissingFCF)
}

func TestDCFFCFF(t *testing.T) {
	res := DCFFCFF(100, 0, 0.1, 1, 0.1, 0)
	assert.InDelta(t, 10/1.1, res.PVCashFlows, 1e-9)
	require.NotNil(t, res.EV)
	assert.InDelta(t, 100, *res.TerminalValue, 1e-9)
	assert.InDelta(t, 100, *res.EV, 1e-9)

	res = DCFFCFF(100, 0.1, 0.1, 5, 0.03, 0.03)
	assert.Nil(t, res.TerminalValue)
	assert.Nil(t, res.EV)
	assert.Positive(t, res.PVCashFlows)
}

func TestBuildDCF(t *testing.T) {
	cfg := schema.DefaultDCFConfig()
	app := BuildDCF(&schema.CompsRow{RevenueTTM: fp(45e9), FCFMarginTTMPct: fp(20), Debt: fp(10e9), Cash: fp(4e9)}, cfg)

	assert.Empty(t, app.Note)
	require.NotNil(t, app.NetDebt)
	assert.InDelta(t, 6e9, *app.NetDebt, 1)
	require.Len(t, app.Scenarios, 3)
	for _, s := range app.Scenarios {
		require.NotNil(t, s.EV, s.Name)
		assert.InDelta(t, *s.EV-6e9, *s.EquityValue, 1, s.Name)
		assert.InDelta(t, 0.2, *s.FCFMargin, 1e-9)
	}
	assert.Less(t, *app.Scenarios[0].EV, *app.Scenarios[2].EV)

	require.Len(t, app.Sensitivity.EV, len(cfg.WACCGrid))
	for _, row := range app.Sensitivity.EV {
		assert.Len(t, row, len(cfg.TerminalGGrid))
	}
	// Higher WACC means lower EV at the same growth.
	assert.Greater(t, *app.Sensitivity.EV[0][0], *app.Sensitivity.EV[2][0])
}

func TestBuildDCFMissingData(t *testing.T) {
	app := BuildDCF(&schema.CompsRow{RevenueTTM: fp(1e9)}, schema.DefaultDCFConfig())
	assert.Equal(t, noteDCFMissing, app.Note)
	assert.Empty(t, app.Scenarios)

	assert.Equal(t, noteDCFMissing, BuildDCF(nil, schema.DefaultDCFConfig()).Note)
}

func TestBuildDecisionCard(t *testing.T) {
	res := ScoreTable(uberTable(), schema.DefaultRatingBands)
	flags := []schema.RedFlag{{Severity: schema.SeverityHigh, Title: "Leverage looks high vs cash generation"}}

	card := BuildDecisionCard(res, schema.Completeness{Score: 83}, schema.Confidence{Score: 58}, flags)

	assert.Equal(t, 52, card.Score)
	assert.Equal(t, schema.LightGreen, card.Lights[schema.BucketCash])
	assert.Equal(t, schema.LightGreen, card.Lights[schema.BucketValuation])
	assert.Equal(t, schema.LightRed, card.Lights[schema.BucketGrowth])
	assert.Equal(t, schema.LightRed, card.Lights[schema.BucketBalanceRisk])
	assert.Equal(t, 83, card.Completeness)
	assert.Equal(t, 58, card.Confidence)
	assert.Len(t, card.RedFlags, len(res.RedFlags)+1)
	assert.Equal(t, "[HIGH] Leverage looks high vs cash generation", card.RedFlags[len(card.RedFlags)-1])
}

func TestBuildAlerts(t *testing.T) {
	tbl := schema.MetricTable{}
	tbl.SetValue(schema.KeyLatestRevenueYoY, 3)
	tbl.SetValue(schema.KeyLatestFreeCashFlow, -1)
	tbl.SetValue(schema.KeyLatestFCFMarginPct, 4)
	tbl.SetValue(schema.KeyNewsShock30d, -25)
	tbl.SetValue(schema.RiskNegKey(schema.TagLabor), 7)
	tbl.SetValue(schema.RiskNegKey(schema.TagSafety), 5)
	now := time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC)

	rep := BuildAlerts("uber", tbl, now)

	ids := make([]string, 0, len(rep.Alerts))
	for _, a := range rep.Alerts {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"rev_slowdown", "fcf_negative", "margin_weak", "headline_crisis", "labor_spike"}, ids)
	assert.Equal(t, "UBER", rep.Ticker)
	assert.Equal(t, now, rep.GeneratedAt)
	assert.True(t, strings.HasPrefix(rep.Alerts[4].Message, "Labor negatives are elevated"))
	assert.Equal(t, 7.0, *rep.Inputs["risk_labor_neg_30d"])
}

func TestBuildAlertsQuiet(t *testing.T) {
	rep := BuildAlerts("UBER", schema.MetricTable{}, testAsOf)
	assert.Empty(t, rep.Alerts)
	assert.Contains(t, rep.Inputs, string(schema.KeyLatestRevenueYoY))
	assert.Nil(t, rep.Inputs[string(schema.KeyLatestRevenueYoY)])
}

func TestVerdict(t *testing.T) {
	res := ScoreTable(uberTable(), schema.DefaultRatingBands)

	got := Verdict(res, nil)
	assert.True(t, strings.HasPrefix(got, "Verdict: AVOID (score 52/100). The current setup looks fragile, mainly due to weak Growth, Quality."), got)
	assert.Contains(t, got, " Key concerns: "+strings.Join(res.RedFlags[:3], "; ")+".")
	assert.NotContains(t, got, "news shock is severe")

	shock := -25
	assert.Contains(t, Verdict(res, &shock), "news shock is severe")

	buy := schema.ScoreResult{Score: 90, Rating: schema.RatingBuy, Buckets: schema.BucketScore{Cash: 25, Valuation: 20, Growth: 20, Quality: 10, BalanceRisk: 15}}
	assert.Equal(t, "Verdict: BUY (score 90/100). Fundamentals and quality are supportive, but watch Quality, Balance Sheet / Risk.", Verdict(buy, nil))
}

func BenchmarkComputeConfidence(b *testing.B) {
	var items []schema.NewsItem
	for i := range 200 {
		items = append(items, headlineAt("UBER", i%30, []string{"reuters", "cnbc", "sec", "finnhub"}[i%4], "headline", 0, schema.TagOther))
	}
	for b.Loop() {
		ComputeConfidence("UBER", items, schema.Whitelist{"reuters.com": schema.TierTop})
	}
}
