package core

import (
	"strings"
	"testing"
	"time"

	"github.com/huangsam/fundscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAsOf = time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC)

func headlineAt(ticker string, daysAgo int, source, title string, impact int, tag schema.RiskTag) schema.NewsItem {
	return schema.NewsItem{
		Ticker:      ticker,
		PublishedAt: testAsOf.AddDate(0, 0, -daysAgo),
		Source:      source,
		Title:       title,
		URL:         "https://www." + source + ".com/" + strings.ReplaceAll(title, " ", "-"),
		ImpactScore: impact,
		RiskTag:     tag,
		Trust:       SourceWeight(source),
	}
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "uber s q3 beats estimates", NormalizeTitle("  Uber's Q3 BEATS   estimates!! "))
	assert.Equal(t, "", NormalizeTitle("?!"))
}

func TestTagTitle(t *testing.T) {
	tests := []struct {
		title string
		want  schema.RiskTag
	}{
		{"Drivers strike in London over pay", schema.TagLabor},
		{"Insurance costs squeeze rideshare margins", schema.TagInsurance},
		{"FTC opens probe into subscription practices", schema.TagRegulatory},
		{"Data breach exposes rider emails", schema.TagSafety},
		{"Rival launches price war in Brazil", schema.TagCompetition},
		{"Fuel prices climb again", schema.TagMacro},
		{"Quarterly earnings preview", schema.TagFinancial},
		{"Reuters interview with the CEO", schema.TagOther},
		{"Union vote and a lawsuit", schema.TagLabor},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, TagTitle(tt.title))
		})
	}
}

func TestImpactScore(t *testing.T) {
	tests := []struct {
		title string
		want  int
	}{
		{"Company hit with antitrust lawsuit", -3},
		{"Regulatory review of pricing", -2},
		{"Record quarter beats expectations", 2},
		{"Settlement reached after record quarter", -3},
		{"CEO speaks at conference", 0},
		{"Finest hour for the brand", 0},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, ImpactScore(tt.title))
		})
	}
}

func TestDedupeKey(t *testing.T) {
	a := schema.NewsItem{PublishedAt: testAsOf, Title: "Uber beats!"}
	b := schema.NewsItem{PublishedAt: testAsOf.Add(time.Hour), Title: "uber   BEATS"}
	c := schema.NewsItem{PublishedAt: testAsOf.AddDate(0, 0, 1), Title: "Uber beats!"}
	assert.Equal(t, DedupeKey("uber", a), DedupeKey("UBER", b))
	assert.NotEqual(t, DedupeKey("UBER", a), DedupeKey("UBER", c))
	assert.Len(t, DedupeKey("UBER", a), 40)
}

func TestEnrichAndDedupeNews(t *testing.T) {
	wl := schema.Whitelist{"reuters.com": schema.TierTop}
	items := []schema.NewsItem{
		{Ticker: "uber", PublishedAt: testAsOf, Source: "finnhub", Title: "Uber faces lawsuit", URL: "https://finnhub.io/x"},
		{Ticker: "UBER", PublishedAt: testAsOf, Source: "reuters", Title: "Uber faces lawsuit!", URL: "https://www.reuters.com/x"},
		{Ticker: "UBER", PublishedAt: testAsOf, Source: "cnbc", Title: "Kept tag", RiskTag: schema.TagMacro, ImpactScore: -2},
	}
	enriched := EnrichNews(items, wl)
	require.Len(t, enriched, 3)
	assert.Equal(t, schema.TagInsurance, enriched[0].RiskTag)
	assert.Equal(t, -3, enriched[0].ImpactScore)
	assert.InDelta(t, 3.1, enriched[1].Trust, 1e-9)
	assert.Equal(t, schema.TagMacro, enriched[2].RiskTag)
	assert.Equal(t, -2, enriched[2].ImpactScore)

	deduped := DedupeNews(enriched)
	require.Len(t, deduped, 2)
	for _, it := range deduped {
		if it.Title != "Kept tag" {
			assert.Equal(t, "reuters", it.Source)
		}
	}
}

func TestSourceWeightAndTrust(t *testing.T) {
	assert.Equal(t, 3.0, SourceWeight(" SEC "))
	assert.Equal(t, 0.6, SourceWeight("substack"))
	wl := schema.Whitelist{"wsj.com": schema.TierTop}
	assert.InDelta(t, 2.8, Trust(schema.NewsItem{Source: "wsj", URL: "https://www.wsj.com/a"}, wl), 1e-9)
	assert.InDelta(t, 2.3, Trust(schema.NewsItem{Source: "wsj", URL: "ftp://wsj.com/a"}, wl), 1e-9)
}

func TestRankEvidence(t *testing.T) {
	items := []schema.NewsItem{
		headlineAt("UBER", 1, "reuters", "A", -3, schema.TagLabor),
		headlineAt("UBER", 2, "reuters", "B", 2, schema.TagLabor),
		headlineAt("UBER", 1, "finnhub", "C", -2, schema.TagInsurance),
		headlineAt("UBER", 3, "sec", "D", 0, schema.TagRegulatory),
	}

	t.Run("tag filter", func(t *testing.T) {
		bull, bear := RankEvidence(items, schema.TagLabor, 5)
		require.Len(t, bull, 2)
		assert.Equal(t, "B", bull[0].Title)
		assert.Equal(t, "A", bear[0].Title)
	})

	t.Run("fallback when tag absent", func(t *testing.T) {
		bull, bear := RankEvidence(items, schema.TagMacro, 10)
		assert.Len(t, bull, 4)
		assert.Equal(t, "D", bull[0].Title)
		assert.Equal(t, "D", bear[0].Title)
		assert.Equal(t, "A", bear[1].Title)
	})

	t.Run("limit", func(t *testing.T) {
		bull, bear := RankEvidence(items, "", 1)
		assert.Len(t, bull, 1)
		assert.Len(t, bear, 1)
		bull, bear = RankEvidence(items, "", -1)
		assert.Empty(t, bull)
		assert.Empty(t, bear)
	})
}

func TestEvidenceTable(t *testing.T) {
	items := []schema.NewsItem{
		headlineAt("UBER", 1, "reuters", "new neutral", 0, schema.TagOther),
		headlineAt("UBER", 2, "reuters", "strong negative", -3, schema.TagLabor),
		headlineAt("UBER", 40, "reuters", "too old", -3, schema.TagLabor),
		headlineAt("LYFT", 1, "reuters", "other ticker", -3, schema.TagLabor),
		headlineAt("UBER", 3, "cnbc", "medium negative", -2, schema.TagRegulatory),
	}
	wl := schema.Whitelist{"reuters.com": schema.TierTop}

	rows := EvidenceTable(items, "uber", testAsOf, 30, 10, wl)
	require.Len(t, rows, 3)
	assert.Equal(t, "strong negative", rows[0].Title)
	assert.Equal(t, schema.TierTop, rows[0].Tier)
	assert.Equal(t, "medium negative", rows[1].Title)
	assert.Equal(t, schema.TierUnknown, rows[1].Tier)
	assert.Equal(t, "cnbc.com", rows[1].Domain)

	assert.Len(t, EvidenceTable(items, "UBER", testAsOf, 30, 1, wl), 1)
}

func TestCurateEvidence(t *testing.T) {
	rows := []schema.EvidenceRow{
		{PublishedAt: testAsOf, RiskTag: schema.TagOther, ImpactScore: 0, Title: "newest neutral"},
		{PublishedAt: testAsOf.Add(-time.Hour), RiskTag: schema.TagRegulatory, ImpactScore: -3, Tier: schema.TierTop, Title: "severe regulatory"},
		{PublishedAt: testAsOf.Add(-time.Hour), RiskTag: schema.TagLabor, ImpactScore: -2, Title: "labor"},
	}
	got := CurateEvidence(rows, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "severe regulatory", got[0].Title)
	// 3*4 + 3*3 + 2*2 + (1000 - 2)
	assert.Equal(t, 1023.0, got[0].Priority)
	assert.Equal(t, "labor", got[1].Title)
}

func TestBuildSentimentProxy(t *testing.T) {
	items := []schema.NewsItem{
		headlineAt("UBER", 1, "reuters", "Uber beats with record profit", 2, schema.TagFinancial),
		headlineAt("UBER", 2, "reuters", "Probe into fatal crash", -3, schema.TagSafety),
		headlineAt("UBER", 20, "cnbc", "Lawsuit settlement", -3, schema.TagInsurance),
		headlineAt("LYFT", 1, "cnbc", "Quiet day", 0, schema.TagOther),
	}
	rows := BuildSentimentProxy(items, testAsOf)
	require.Len(t, rows, 2)
	assert.Equal(t, "LYFT", rows[0].Ticker)
	assert.Equal(t, 50, rows[0].ProxyScore7d)

	uber := rows[1]
	assert.Equal(t, 2, uber.Articles7d)
	assert.Equal(t, 3, uber.Articles30d)
	assert.Equal(t, 1, uber.Neg7d)
	assert.Equal(t, -3, uber.Shock7d)
	// "beat", "beats", "record", "profit" hit; "probe", "fatal", "crash" hit.
	assert.Equal(t, 4, uber.PosHits7d)
	assert.Equal(t, 3, uber.NegHits7d)
	assert.Equal(t, 50+8-3-3-3, uber.ProxyScore7d)
}

func TestSentimentProxyClamps(t *testing.T) {
	w := windowStats{neg: 30, shock: -90}
	assert.Equal(t, 0, w.proxy())
	w = windowStats{posHits: 40}
	assert.Equal(t, 100, w.proxy())
}

func TestBuildRiskDashboard(t *testing.T) {
	items := []schema.NewsItem{
		headlineAt("UBER", 1, "reuters", "strike one", -3, schema.TagLabor),
		headlineAt("UBER", 2, "reuters", "union two", -2, schema.TagLabor),
		headlineAt("UBER", 10, "cnbc", "court ruling", -2, schema.TagRegulatory),
		headlineAt("UBER", 1, "cnbc", "good news", 2, schema.TagFinancial),
		headlineAt("UBER", 60, "cnbc", "ancient", -3, schema.TagSafety),
	}
	rows := BuildRiskDashboard(items, testAsOf)
	require.Len(t, rows, 3)

	assert.Equal(t, schema.TagTotal, rows[0].RiskTag)
	assert.Equal(t, 3, rows[0].NegCount30d)
	assert.Equal(t, -7.0, rows[0].Shock30d)
	assert.Equal(t, noneLabel, rows[0].Worst7dTitle)

	assert.Equal(t, schema.TagLabor, rows[1].RiskTag)
	assert.Equal(t, 2, rows[1].NegCount7d)
	assert.Equal(t, "strike one", rows[1].Worst7dTitle)
	assert.Equal(t, -3.0, rows[1].Worst7dImpact)

	assert.Equal(t, schema.TagRegulatory, rows[2].RiskTag)
	assert.Equal(t, 0, rows[2].NegCount7d)
	assert.Equal(t, noneLabel, rows[2].Worst7dURL)
}

func TestSummarizeNews(t *testing.T) {
	var items []schema.NewsItem
	for i := range 10 {
		items = append(items, headlineAt("UBER", i%5, "reuters", "strike", -3, schema.TagLabor))
	}
	items = append(items, headlineAt("UBER", 15, "reuters", "court", -2, schema.TagRegulatory))

	s := SummarizeNews(items, testAsOf)
	assert.Equal(t, 10, s.Neg7d)
	assert.Equal(t, 11, s.Neg30d)
	assert.Equal(t, -30, s.Shock7d)
	assert.Len(t, s.TopNegativeTitles7d, 8)
	assert.Equal(t, 11, s.CoreHits())
}

func TestNewsWindowsIgnoreHeadlinesAfterAsOf(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	item := func(published time.Time) schema.NewsItem {
		return schema.NewsItem{
			Ticker: "UBER", PublishedAt: published, Source: "reuters",
			Title: "Uber drivers strike", URL: "https://www.reuters.com/a",
			RiskTag: schema.TagLabor, ImpactScore: -3,
		}
	}

	tests := []struct {
		name      string
		published time.Time
		want      int
	}{
		{"one quarter later", time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC), 0},
		{"next day", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), 0},
		{"later on the as-of day", time.Date(2025, 6, 30, 18, 0, 0, 0, time.UTC), 1},
		{"day before", time.Date(2025, 6, 29, 0, 0, 0, 0, time.UTC), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := []schema.NewsItem{item(tt.published)}

			assert.Equal(t, tt.want, SummarizeNews(items, asOf).Neg7d)
			assert.Equal(t, tt.want, SummarizeNews(items, asOf).Neg30d)

			proxy := BuildSentimentProxy(items, asOf)
			require.Len(t, proxy, 1)
			assert.Equal(t, tt.want, proxy[0].Neg7d)
			assert.Equal(t, tt.want, proxy[0].Articles30d)

			assert.Len(t, EvidenceTable(items, "UBER", asOf, 30, 10, nil), tt.want)
			assert.Len(t, WithinWindow(items, asOf, 30), tt.want)

			tactical := Tactical("UBER", nil, items, asOf)
			require.NotNil(t, tactical.Articles7d)
			assert.Equal(t, tt.want, *tactical.Articles7d)
		})
	}

	assert.Empty(t, BuildRiskDashboard([]schema.NewsItem{item(time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC))}, asOf))
}

func TestConfirmedRiskTags(t *testing.T) {
	items := []schema.NewsItem{
		headlineAt("UBER", 1, "reuters", "a", -3, schema.TagLabor),
		headlineAt("UBER", 1, "Bloomberg", "b", -3, schema.TagLabor),
		headlineAt("UBER", 1, "reuters", "c", -3, schema.TagRegulatory),
		headlineAt("UBER", 1, "finnhub", "d", -3, schema.TagRegulatory),
		headlineAt("UBER", 1, "reuters", "e", 0, schema.TagOther),
		headlineAt("UBER", 1, "sec", "f", 0, schema.TagOther),
	}
	got := ConfirmedRiskTags(items, DefaultMinConfirmations, DefaultCredibilityThreshold)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"bloomberg", "reuters"}, got[schema.TagLabor].Sources)
}

func TestHybridSignals(t *testing.T) {
	var items []schema.NewsItem
	for range 4 {
		items = append(items, headlineAt("UBER", 1, "reuters", "strike", -3, schema.TagLabor))
		items = append(items, headlineAt("UBER", 2, "wsj", "union", -2, schema.TagLabor))
	}

	t.Run("fallback counts escalate", func(t *testing.T) {
		sig := HybridSignals("uber", items, nil, testAsOf, 2, 1.5)
		require.NotNil(t, sig.Tactical.Neg7d)
		assert.Equal(t, 8, *sig.Tactical.Neg7d)
		assert.True(t, sig.Tactical.TacticalAlert)
		assert.True(t, sig.Institutional.ConfirmedAny)
		assert.True(t, sig.HybridEscalate)
		assert.Equal(t, 2, sig.SourceMix.SourceDiversity)
		assert.InDelta(t, 0.5, *sig.SourceMix.SourceShareTop, 1e-9)
		assert.InDelta(t, 2.45, *sig.SourceMix.CredWeightedAvg, 1e-9)
	})

	t.Run("proxy row wins", func(t *testing.T) {
		proxy := &schema.SentimentProxy{Ticker: "UBER", Shock7d: -10}
		sig := HybridSignals("UBER", items, proxy, testAsOf, 2, 1.5)
		assert.False(t, sig.Tactical.TacticalAlert)
		assert.False(t, sig.HybridEscalate)
	})

	t.Run("no news", func(t *testing.T) {
		sig := HybridSignals("UBER", nil, nil, testAsOf, 2, 1.5)
		assert.Nil(t, sig.Tactical.Neg7d)
		assert.Nil(t, sig.SourceMix.SourceShareTop)
		assert.False(t, sig.HybridEscalate)
	})
}

func BenchmarkTagTitle(b *testing.B) {
	for b.Loop() {
		TagTitle("Regulators open antitrust probe after driver strike and data breach")
	}
}
