package core

import (
	"cmp"
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/fundscore/schema"
)

// News windows in days.
const (
	ShortWindowDays = 7
	LongWindowDays  = 30

	topNegativeTitles = 8
	noneLabel         = "None"
)

// Sentiment proxy keyword lists, matched as substrings of the lowercased title.
var (
	proxyPosWords = []string{"beat", "beats", "record", "profit", "profitable", "surge", "raises", "raise guidance", "upgrade", "upgrades", "strong", "growth", "buyback", "expanded", "expands"}
	proxyNegWords = []string{"investigation", "probe", "lawsuit", "sued", "strike", "ban", "regulator", "crash", "fatal", "recall", "decline", "miss", "misses", "downgrade", "downgrades", "cuts", "cut guidance", "fraud", "settlement"}
)

// Confirmation and tactical defaults.
const (
	DefaultMinConfirmations     = 2
	DefaultCredibilityThreshold = 1.5
	tacticalShockAlert          = -20
	tacticalNegFallback         = 8
)

// ageDays is how many days before asOf the item was published.
func ageDays(asOf, published time.Time) float64 {
	return asOf.Sub(published).Hours() / 24
}

// afterAsOf reports whether published falls past the as-of day.
// Headlines from the as-of day itself are in range.
func afterAsOf(asOf, published time.Time) bool {
	end := asOf.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	return !published.Before(end)
}

func withinDays(asOf, published time.Time, days int) bool {
	return !afterAsOf(asOf, published) && ageDays(asOf, published) <= float64(days)
}

// ForTicker returns the items for one ticker, preserving order.
func ForTicker(items []schema.NewsItem, ticker string) []schema.NewsItem {
	ticker = schema.NormalizeTicker(ticker)
	out := make([]schema.NewsItem, 0)
	for _, it := range items {
		if schema.NormalizeTicker(it.Ticker) == ticker {
			out = append(out, it)
		}
	}
	return out
}

// WithinWindow returns the items published at most days before asOf.
func WithinWindow(items []schema.NewsItem, asOf time.Time, days int) []schema.NewsItem {
	out := make([]schema.NewsItem, 0, len(items))
	for _, it := range items {
		if withinDays(asOf, it.PublishedAt, days) {
			out = append(out, it)
		}
	}
	return out
}

func countSubstrings(title string, words []string) int {
	t := strings.ToLower(title)
	n := 0
	for _, w := range words {
		if strings.Contains(t, w) {
			n++
		}
	}
	return n
}

// windowStats are the proxy inputs for one window.
type windowStats struct {
	articles, neg, shock, posHits, negHits int
}

func (w windowStats) proxy() int {
	raw := 50 + 2*w.posHits - 3*w.neg + w.shock - w.negHits
	return int(schema.Clamp(math.Round(float64(raw)), 0, 100))
}

func (w *windowStats) add(it schema.NewsItem) {
	w.articles++
	if it.ImpactScore < 0 {
		w.neg++
		w.shock += it.ImpactScore
	}
	w.posHits += countSubstrings(it.Title, proxyPosWords)
	w.negHits += countSubstrings(it.Title, proxyNegWords)
}

// BuildSentimentProxy computes one proxy row per ticker, sorted by ticker.
func BuildSentimentProxy(items []schema.NewsItem, asOf time.Time) []schema.SentimentProxy {
	short := map[string]*windowStats{}
	long := map[string]*windowStats{}
	for _, it := range items {
		tkr := schema.NormalizeTicker(it.Ticker)
		if _, ok := long[tkr]; !ok {
			short[tkr], long[tkr] = &windowStats{}, &windowStats{}
		}
		if withinDays(asOf, it.PublishedAt, ShortWindowDays) {
			short[tkr].add(it)
		}
		if withinDays(asOf, it.PublishedAt, LongWindowDays) {
			long[tkr].add(it)
		}
	}

	out := make([]schema.SentimentProxy, 0, len(long))
	for _, tkr := range slices.Sorted(maps.Keys(long)) {
		s, l := short[tkr], long[tkr]
		out = append(out, schema.SentimentProxy{
			Ticker:        tkr,
			Articles7d:    s.articles,
			Articles30d:   l.articles,
			Neg7d:         s.neg,
			Neg30d:        l.neg,
			Shock7d:       s.shock,
			Shock30d:      l.shock,
			PosHits7d:     s.posHits,
			NegHits7d:     s.negHits,
			PosHits30d:    l.posHits,
			NegHits30d:    l.negHits,
			ProxyScore7d:  s.proxy(),
			ProxyScore30d: l.proxy(),
		})
	}
	return out
}

type dashKey struct {
	ticker string
	tag    schema.RiskTag
}

// BuildRiskDashboard aggregates negative headlines per ticker and tag with
// a TOTAL row per ticker listed first.
func BuildRiskDashboard(items []schema.NewsItem, asOf time.Time) []schema.RiskDashboardRow {
	rows := map[dashKey]*schema.RiskDashboardRow{}
	worst := map[dashKey]schema.NewsItem{}

	for _, it := range items {
		if it.ImpactScore >= 0 {
			continue
		}
		if !withinDays(asOf, it.PublishedAt, LongWindowDays) {
			continue
		}
		tag := it.RiskTag
		if tag == "" {
			tag = schema.TagOther
		}
		k := dashKey{schema.NormalizeTicker(it.Ticker), tag}
		r, ok := rows[k]
		if !ok {
			r = &schema.RiskDashboardRow{Ticker: k.ticker, RiskTag: k.tag}
			rows[k] = r
		}
		r.NegCount30d++
		r.Shock30d += float64(it.ImpactScore)
		if withinDays(asOf, it.PublishedAt, ShortWindowDays) {
			r.NegCount7d++
			r.Shock7d += float64(it.ImpactScore)
			if w, seen := worst[k]; !seen || it.ImpactScore < w.ImpactScore {
				worst[k] = it
			}
		}
	}

	totals := map[string]*schema.RiskDashboardRow{}
	out := make([]schema.RiskDashboardRow, 0, len(rows))
	for k, r := range rows {
		r.Worst7dTitle, r.Worst7dSource, r.Worst7dURL = noneLabel, noneLabel, noneLabel
		if w, ok := worst[k]; ok {
			r.Worst7dTitle, r.Worst7dSource, r.Worst7dURL = w.Title, w.Source, w.URL
			r.Worst7dImpact = float64(w.ImpactScore)
		}
		out = append(out, *r)

		t, ok := totals[k.ticker]
		if !ok {
			t = &schema.RiskDashboardRow{
				Ticker: k.ticker, RiskTag: schema.TagTotal,
				Worst7dTitle: noneLabel, Worst7dSource: noneLabel, Worst7dURL: noneLabel,
			}
			totals[k.ticker] = t
		}
		t.NegCount30d += r.NegCount30d
		t.Shock30d += r.Shock30d
		t.NegCount7d += r.NegCount7d
		t.Shock7d += r.Shock7d
	}
	for _, t := range totals {
		out = append(out, *t)
	}

	slices.SortFunc(out, compareDashboardRows)
	return out
}

func compareDashboardRows(a, b schema.RiskDashboardRow) int {
	totalRank := func(r schema.RiskDashboardRow) int {
		if r.RiskTag == schema.TagTotal {
			return 0
		}
		return 1
	}
	return cmp.Or(
		cmp.Compare(a.Ticker, b.Ticker),
		cmp.Compare(totalRank(a), totalRank(b)),
		cmp.Compare(a.Shock7d, b.Shock7d),
		cmp.Compare(a.Shock30d, b.Shock30d),
		cmp.Compare(b.NegCount7d, a.NegCount7d),
		cmp.Compare(b.NegCount30d, a.NegCount30d),
		cmp.Compare(a.RiskTag, b.RiskTag),
	)
}

// SummarizeNews builds the compact news view used by the balance/risk bucket.
// items should belong to a single ticker and be ordered newest first.
func SummarizeNews(items []schema.NewsItem, asOf time.Time) schema.NewsSummary {
	s := schema.NewsSummary{TagCounts30d: map[schema.RiskTag]int{}, TopNegativeTitles7d: []schema.NewsItem{}}
	for _, it := range items {
		if it.ImpactScore >= 0 {
			continue
		}
		if withinDays(asOf, it.PublishedAt, LongWindowDays) {
			s.Neg30d++
			s.TagCounts30d[it.RiskTag]++
		}
		if withinDays(asOf, it.PublishedAt, ShortWindowDays) {
			s.Neg7d++
			s.Shock7d += it.ImpactScore
			if len(s.TopNegativeTitles7d) < topNegativeTitles {
				s.TopNegativeTitles7d = append(s.TopNegativeTitles7d, it)
			}
		}
	}
	return s
}

// ConfirmedRiskTags reports the tags seen in at least minConfirmations
// distinct sources whose weight reaches credibility. OTHER never confirms.
func ConfirmedRiskTags(items []schema.NewsItem, minConfirmations int, credibility float64) map[schema.RiskTag]schema.TagConfirmation {
	tagSources := map[schema.RiskTag]map[string]struct{}{}
	for _, it := range items {
		tag := schema.RiskTag(strings.ToUpper(strings.TrimSpace(string(it.RiskTag))))
		src := strings.ToLower(strings.TrimSpace(it.Source))
		if tag == "" || tag == schema.TagOther || SourceWeight(src) < credibility {
			continue
		}
		if tagSources[tag] == nil {
			tagSources[tag] = map[string]struct{}{}
		}
		tagSources[tag][src] = struct{}{}
	}

	confirmed := map[schema.RiskTag]schema.TagConfirmation{}
	for tag, srcs := range tagSources {
		if len(srcs) >= minConfirmations {
			confirmed[tag] = schema.TagConfirmation{
				Confirmations: len(srcs),
				Sources:       slices.Sorted(maps.Keys(srcs)),
			}
		}
	}
	return confirmed
}

// Tactical flags abnormal short-term negativity. A proxy row wins when
// present; otherwise raw 7d counts are used.
func Tactical(ticker string, proxy *schema.SentimentProxy, items []schema.NewsItem, asOf time.Time) schema.TacticalSignal {
	sig := schema.TacticalSignal{Ticker: schema.NormalizeTicker(ticker)}
	if proxy != nil {
		shock, neg, articles := proxy.Shock7d, proxy.Neg7d, proxy.Articles7d
		sig.Shock7d, sig.Neg7d, sig.Articles7d = &shock, &neg, &articles
		sig.TacticalAlert = proxy.Shock7d <= tacticalShockAlert
		return sig
	}
	if len(items) == 0 {
		return sig
	}
	var articles, neg int
	for _, it := range items {
		if !withinDays(asOf, it.PublishedAt, ShortWindowDays) {
			continue
		}
		articles++
		if it.ImpactScore < 0 {
			neg++
		}
	}
	sig.Articles7d, sig.Neg7d = &articles, &neg
	sig.TacticalAlert = neg >= tacticalNegFallback
	return sig
}

// BuildSourceMix describes how concentrated and credible the sources are.
func BuildSourceMix(items []schema.NewsItem) schema.SourceMix {
	if len(items) == 0 {
		return schema.SourceMix{}
	}
	counts := map[string]int{}
	var weightSum float64
	for _, it := range items {
		src := strings.ToLower(strings.TrimSpace(it.Source))
		if src == "" {
			src = "unknown"
		}
		counts[src]++
		weightSum += SourceWeight(src)
	}
	top := ""
	for _, src := range slices.Sorted(maps.Keys(counts)) {
		if top == "" || counts[src] > counts[top] {
			top = src
		}
	}
	share := float64(counts[top]) / float64(len(items))
	avg := weightSum / float64(len(items))
	return schema.SourceMix{
		TopSource:       top,
		SourceShareTop:  &share,
		SourceDiversity: len(counts),
		CredWeightedAvg: &avg,
	}
}

// HybridSignals combines the tactical alert with institutional confirmation.
// It escalates only when both agree.
func HybridSignals(ticker string, items []schema.NewsItem, proxy *schema.SentimentProxy, asOf time.Time, minConfirmations int, credibility float64) schema.HybridSignal {
	own := ForTicker(items, ticker)
	tactical := Tactical(ticker, proxy, own, asOf)
	confirmed := ConfirmedRiskTags(own, minConfirmations, credibility)
	return schema.HybridSignal{
		AsOf:     asOf.UTC(),
		Ticker:   schema.NormalizeTicker(ticker),
		Tactical: tactical,
		Institutional: schema.InstitutionalSignal{
			ConfirmedTags: confirmed,
			ConfirmedAny:  len(confirmed) > 0,
		},
		SourceMix:      BuildSourceMix(own),
		HybridEscalate: tactical.TacticalAlert && len(confirmed) > 0,
	}
}

// ProxyFor finds the proxy row for ticker.
func ProxyFor(rows []schema.SentimentProxy, ticker string) *schema.SentimentProxy {
	ticker = schema.NormalizeTicker(ticker)
	for i := range rows {
		if schema.NormalizeTicker(rows[i].Ticker) == ticker {
			return &rows[i]
		}
	}
	return nil
}
