package core

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/fundscore/schema"
)

const (
	defaultSourceWeight = 0.6
	whitelistTrustBonus = 0.5
	recencyBase         = 1000

	// DefaultCurateLimit is how many rows the memo's verification list shows.
	DefaultCurateLimit = 12
)

var sourceWeights = map[string]float64{
	"sec":       3.0,
	"reuters":   2.6,
	"bloomberg": 2.6,
	"wsj":       2.3,
	"ft":        2.3,
	"cnbc":      1.6,
	"finnhub":   0.7,
	"source":    0.4,
}

var curationTagWeights = map[schema.RiskTag]float64{
	schema.TagRegulatory: 3,
	schema.TagInsurance:  3,
	schema.TagLabor:      2,
	schema.TagSafety:     2,
}

var curationTierWeights = map[schema.SourceTier]float64{
	schema.TierTop: 2,
	schema.TierMid: 1,
}

// SourceWeight is the credibility of a news source name.
func SourceWeight(source string) float64 {
	if w, ok := sourceWeights[strings.ToLower(strings.TrimSpace(source))]; ok {
		return w
	}
	return defaultSourceWeight
}

// Trust is the source weight plus a bonus for whitelisted domains.
func Trust(item schema.NewsItem, wl schema.Whitelist) float64 {
	t := SourceWeight(item.Source)
	if _, ok := wl[schema.ExtractDomain(item.URL)]; ok {
		t += whitelistTrustBonus
	}
	return t
}

// newestThenTitle breaks ties deterministically.
func newestThenTitle(a, b schema.NewsItem) int {
	return cmp.Or(b.PublishedAt.Compare(a.PublishedAt), cmp.Compare(a.Title, b.Title))
}

// RankEvidence returns the top n bull and bear items. When no item carries
// tag (or tag is empty) every item is considered.
func RankEvidence(items []schema.NewsItem, tag schema.RiskTag, n int) (bull, bear []schema.NewsItem) {
	pool := items
	if tag != "" {
		tagged := make([]schema.NewsItem, 0, len(items))
		for _, it := range items {
			if it.RiskTag == tag {
				tagged = append(tagged, it)
			}
		}
		if len(tagged) > 0 {
			pool = tagged
		}
	}

	bull = slices.Clone(pool)
	slices.SortStableFunc(bull, func(a, b schema.NewsItem) int {
		return cmp.Or(cmp.Compare(b.Trust, a.Trust), cmp.Compare(b.ImpactScore, a.ImpactScore), newestThenTitle(a, b))
	})
	bear = slices.Clone(pool)
	slices.SortStableFunc(bear, func(a, b schema.NewsItem) int {
		return cmp.Or(cmp.Compare(b.Trust, a.Trust), cmp.Compare(a.ImpactScore, b.ImpactScore), newestThenTitle(a, b))
	})
	n = max(n, 0)
	return bull[:min(n, len(bull))], bear[:min(n, len(bear))]
}

// EvidenceTable lists the ticker's headlines from the days up to asOf, most
// negative first, each tagged with its whitelist tier.
func EvidenceTable(items []schema.NewsItem, ticker string, asOf time.Time, days, maxRows int, wl schema.Whitelist) []schema.EvidenceRow {
	ticker = schema.NormalizeTicker(ticker)
	cutoff := asOf.AddDate(0, 0, -days)
	rows := make([]schema.EvidenceRow, 0)
	for _, it := range items {
		if schema.NormalizeTicker(it.Ticker) != ticker || it.PublishedAt.Before(cutoff) || afterAsOf(asOf, it.PublishedAt) {
			continue
		}
		domain := schema.ExtractDomain(it.URL)
		tier, ok := wl[domain]
		if !ok {
			tier = schema.TierUnknown
		}
		rows = append(rows, schema.EvidenceRow{
			PublishedAt: it.PublishedAt.UTC(),
			Ticker:      ticker,
			Source:      it.Source,
			RiskTag:     it.RiskTag,
			ImpactScore: it.ImpactScore,
			Title:       it.Title,
			URL:         it.URL,
			Domain:      domain,
			Tier:        tier,
		})
	}
	slices.SortStableFunc(rows, func(a, b schema.EvidenceRow) int {
		return cmp.Or(cmp.Compare(a.ImpactScore, b.ImpactScore), b.PublishedAt.Compare(a.PublishedAt))
	})
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	return rows
}

// CurateEvidence picks the rows most worth reading: strongly negative,
// core risk tags, trusted tiers and recent items score higher.
func CurateEvidence(rows []schema.EvidenceRow, limit int) []schema.EvidenceRow {
	out := slices.Clone(rows)

	// Dense recency rank: 1 for the newest timestamp, equal times share a rank.
	times := make([]time.Time, 0, len(out))
	for _, r := range out {
		times = append(times, r.PublishedAt)
	}
	slices.SortFunc(times, func(a, b time.Time) int { return b.Compare(a) })
	times = slices.CompactFunc(times, time.Time.Equal)

	for i := range out {
		r := &out[i]
		rank, _ := slices.BinarySearchFunc(times, r.PublishedAt, func(e, t time.Time) int { return t.Compare(e) })
		tagW, ok := curationTagWeights[r.RiskTag]
		if !ok {
			tagW = 1
		}
		r.Priority = float64(-r.ImpactScore)*4 + tagW*3 + curationTierWeights[r.Tier]*2 + float64(recencyBase-(rank+1))
	}

	slices.SortStableFunc(out, func(a, b schema.EvidenceRow) int {
		return cmp.Or(cmp.Compare(b.Priority, a.Priority), b.PublishedAt.Compare(a.PublishedAt))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
