package outwriter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtureTime = time.Date(2026, 1, 10, 14, 30, 0, 0, time.UTC)

func fp(v float64) *float64 { return &v }

func testConfig(output schema.OutputMode) *contract.Config {
	return &contract.Config{
		Output:       output,
		Precision:    1,
		Width:        140,
		Workers:      2,
		CacheBackend: schema.NoneBackend,
	}
}

func sampleScore() schema.ScoreResult {
	metrics := schema.NewMetricTable()
	metrics.SetValue(schema.KeyRevenueTTM, 43.9e9)
	metrics.SetValue(schema.KeyFCFTTM, 8.2e9)
	metrics.SetValue(schema.KeyFCFYieldPct, 5.4)
	metrics.SetValue(schema.KeyFCFMarginTTMPct, 18.7)
	return schema.ScoreResult{
		Ticker: "UBER",
		AsOf:   "2026-01-10",
		Score:  78,
		Rating: schema.RatingHold,
		Buckets: schema.BucketScore{
			Cash: 22, Valuation: 14, Growth: 16, Quality: 12, BalanceRisk: 14,
		},
		RedFlags: []string{"Regulatory news cluster"},
		Breakdown: []schema.LegContribution{
			{Bucket: schema.BucketCash, Metric: schema.KeyFCFTTM, Value: fp(8.2e9), Points: 10},
		},
		Metrics: metrics,
	}
}

func sampleNews() []schema.NewsItem {
	return []schema.NewsItem{
		{
			Ticker: "UBER", PublishedAt: fixtureTime.Add(-24 * time.Hour), Source: "reuters",
			Title: "Uber faces new | driver classification probe", URL: "https://www.reuters.com/a",
			RiskTag: schema.TagRegulatory, ImpactScore: -4,
		},
		{
			Ticker: "UBER", PublishedAt: fixtureTime.Add(-48 * time.Hour), Source: "bloomberg",
			Title: "Uber beats on bookings", URL: "https://www.bloomberg.com/b",
			RiskTag: schema.TagOther, ImpactScore: 3,
		},
	}
}

func sampleThesisResult() *schema.ThesisResult {
	return &schema.ThesisResult{
		Name:   "UBER cash machine",
		Ticker: "UBER",
		Results: []schema.ClaimResult{
			{
				Claim:  schema.Claim{ID: "c1", Statement: "FCF is positive", Metric: schema.KeyFCFTTM, Operator: ">", Threshold: fp(0)},
				Status: schema.StatusPass, Actual: fp(8.2e9),
			},
			{
				Claim:  schema.Claim{ID: "c2", Metric: schema.KeyNetDebtToFCF, Operator: "<", Threshold: fp(1)},
				Status: schema.StatusUnknown,
			},
		},
		Passed:  1,
		Unknown: 1,
		Policy:  schema.SupportDecided,
		Support: fp(100),
	}
}

func sampleReport() *schema.Report {
	score := sampleScore()
	news := sampleNews()
	return &schema.Report{
		ID:          "rep-1",
		Ticker:      "UBER",
		GeneratedAt: fixtureTime,
		Score:       score,
		Verdict:     "HOLD: solid cash generation with regulatory noise.",
		Card: schema.DecisionCard{
			Ticker: "UBER", AsOf: "2026-01-10", Score: 78, Rating: schema.RatingHold,
			Lights: map[string]schema.Light{
				schema.BucketCash:        schema.LightGreen,
				schema.BucketValuation:   schema.LightYellow,
				schema.BucketGrowth:      schema.LightGreen,
				schema.BucketQuality:     schema.LightYellow,
				schema.BucketBalanceRisk: schema.LightRed,
			},
			Completeness: 90, Confidence: 70,
		},
		RedFlags: []schema.RedFlag{{
			Code: "NEWS_REG", Severity: schema.SeverityMed, Title: "Regulatory headlines",
			PlainEnglish: "Regulators are asking questions.", WhyItMatters: "Fines cost cash.", WhatToCheck: "Filings.",
		}},
		Thesis:   sampleThesisResult(),
		Evidence: schema.Evidence{Ticker: "UBER", Bull: news[1:], Bear: news[:1]},
		EvidenceRows: []schema.EvidenceRow{{
			PublishedAt: news[0].PublishedAt, Ticker: "UBER", Source: "reuters", RiskTag: schema.TagRegulatory,
			ImpactScore: -4, Title: news[0].Title, URL: news[0].URL, Domain: "reuters.com", Tier: schema.TierTop,
		}},
		Dashboard: []schema.RiskDashboardRow{{
			Ticker: "UBER", RiskTag: schema.TagRegulatory, NegCount30d: 2, Shock30d: -7, NegCount7d: 1, Shock7d: -4,
			Worst7dTitle: news[0].Title, Worst7dURL: news[0].URL,
		}},
		News: schema.NewsSummary{Neg7d: 1, Neg30d: 2, Shock7d: -4},
		Hybrid: schema.HybridSignal{
			Ticker: "UBER",
			Institutional: schema.InstitutionalSignal{
				ConfirmedTags: map[schema.RiskTag]schema.TagConfirmation{
					schema.TagRegulatory: {Confirmations: 2, Sources: []string{"bloomberg", "reuters"}},
				},
				ConfirmedAny: true,
			},
			SourceMix: schema.SourceMix{TopSource: "reuters", SourceShareTop: fp(0.5), SourceDiversity: 2},
		},
		Scenarios: schema.Scenarios{
			Method: "FCF grown for three years, valued at a target yield.", ProjectionYears: 3,
			Cases: []schema.ScenarioCase{{Name: "base", FCFGrowth: 0.1, TargetFCFYield: 0.05, ProjectedFCF: 10.9e9}},
		},
		DCF: &schema.DCFAppendix{
			RevenueTTM: fp(43.9e9), FCFMargin: fp(0.187), ProjectionYears: 5,
			Scenarios: []schema.DCFResult{{
				DCFAssumption: schema.DCFAssumption{Name: "base", RevCAGR: 0.1, WACC: 0.095, TerminalG: 0.025},
				EV:            fp(180e9),
			}},
			Sensitivity: schema.DCFSensitivity{
				WACCGrid: []float64{0.095}, TerminalGGrid: []float64{0.025},
				EV: [][]*float64{{fp(180e9)}},
			},
		},
		Confidence:   schema.Confidence{Score: 70, Reasons: []string{"Half of the rows come from top-tier outlets"}},
		Completeness: schema.Completeness{Score: 90, Missing: []string{"price"}},
		Alerts:       []schema.Alert{{ID: "REG_CLUSTER", Severity: schema.SeverityHigh, Message: "Two regulatory negatives in 7 days"}},
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	err := renderTable(&buf, []string{"Ticker", "Score"}, [][]string{{"UBER", "78"}, {"LYFT", "61"}}, true)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "TICKER")
	assert.Contains(t, out, "UBER")
	assert.Contains(t, out, "61")
}
