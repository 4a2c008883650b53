package core

import (
	"cmp"
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"slices"
	"strings"

	"github.com/huangsam/fundscore/schema"
)

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)

// tagRule maps a risk tag to the phrases that trigger it.
type tagRule struct {
	tag      schema.RiskTag
	keywords []string
}

// tagRules are checked in order; the first rule with a matching phrase wins.
var tagRules = []tagRule{
	{schema.TagLabor, []string{"union", "strike", "collective bargaining", "labor", "worker", "wage", "minimum wage", "driver classification", "employee status", "gig worker", "contractor", "benefits"}},
	{schema.TagInsurance, []string{"insurance", "premium", "underwriting", "claims", "liability", "coverage", "actuarial", "accident", "injury", "fatal", "lawsuit", "settlement"}},
	{schema.TagRegulatory, []string{"regulation", "regulatory", "ban", "permit", "license", "compliance", "antitrust", "probe", "investigation", "fine", "penalty", "doj", "ftc", "eu", "commission", "court", "appeal", "ruling"}},
	{schema.TagSafety, []string{"safety", "assault", "harassment", "crash", "collision", "fraud", "scam", "data breach", "hack", "cyber", "security incident"}},
	{schema.TagCompetition, []string{"competitor", "price war", "market share", "competition", "rival", "acquisition", "merger", "partnership", "exclusive"}},
	{schema.TagMacro, []string{"inflation", "recession", "rates", "interest rate", "oil", "fuel", "macro", "slowdown", "consumer spending", "unemployment"}},
	{schema.TagFinancial, []string{"earnings", "guidance", "forecast", "revenue", "profit", "loss", "margin", "cash flow", "buyback", "debt", "refinance", "liquidity", "bankruptcy"}},
}

// impactRule assigns a score when any phrase matches.
type impactRule struct {
	score   int
	phrases []string
}

var impactRules = []impactRule{
	{-3, []string{"lawsuit", "settlement", "strike", "ban", "investigation", "probe", "fine", "fatal", "killed", "fraud", "data breach", "hack", "antitrust", "penalty"}},
	{-2, []string{"regulation", "regulatory", "union", "injury", "accident", "complaint", "court", "recall", "safety", "harassment"}},
	{2, []string{"record", "beats", "beat", "raises guidance", "upgrade", "partnership", "expands", "profitable", "profit", "buyback", "cost cuts", "strong demand"}},
}

// NormalizeTitle lowercases, strips punctuation and collapses whitespace.
func NormalizeTitle(title string) string {
	s := nonWord.ReplaceAllString(strings.ToLower(title), " ")
	return strings.Join(strings.Fields(s), " ")
}

// containsPhrase reports whether phrase appears on word boundaries in a normalized title.
func containsPhrase(norm, phrase string) bool {
	return strings.Contains(" "+norm+" ", " "+phrase+" ")
}

func anyPhrase(norm string, phrases []string) bool {
	return slices.ContainsFunc(phrases, func(p string) bool { return containsPhrase(norm, p) })
}

// TagTitle classifies a headline, OTHER when no rule matches.
func TagTitle(title string) schema.RiskTag {
	norm := NormalizeTitle(title)
	for _, r := range tagRules {
		if anyPhrase(norm, r.keywords) {
			return r.tag
		}
	}
	return schema.TagOther
}

// ImpactScore scores a headline from -3 to +2.
func ImpactScore(title string) int {
	norm := NormalizeTitle(title)
	for _, r := range impactRules {
		if anyPhrase(norm, r.phrases) {
			return r.score
		}
	}
	return 0
}

// DedupeKey identifies the same headline for a ticker on one day.
func DedupeKey(ticker string, item schema.NewsItem) string {
	day := item.PublishedAt.UTC().Format("2006-01-02")
	sum := sha1.Sum([]byte(schema.NormalizeTicker(ticker) + "|" + day + "|" + NormalizeTitle(item.Title)))
	return hex.EncodeToString(sum[:])
}

// EnrichNews fills in missing tags, impact, trust and dedupe keys.
// A tag or impact already present in the input is kept.
func EnrichNews(items []schema.NewsItem, wl schema.Whitelist) []schema.NewsItem {
	out := make([]schema.NewsItem, len(items))
	for i, it := range items {
		it.Ticker = schema.NormalizeTicker(it.Ticker)
		if it.RiskTag == "" {
			it.RiskTag = TagTitle(it.Title)
			if !it.HasImpact {
				it.ImpactScore = ImpactScore(it.Title)
			}
		}
		it.HasImpact = true
		it.Trust = Trust(it, wl)
		if it.DedupeKey == "" {
			it.DedupeKey = DedupeKey(it.Ticker, it)
		}
		out[i] = it
	}
	return out
}

// DedupeNews keeps the most trusted item per dedupe key, newest first.
func DedupeNews(items []schema.NewsItem) []schema.NewsItem {
	best := make(map[string]schema.NewsItem, len(items))
	for _, it := range items {
		key := it.DedupeKey
		if key == "" {
			key = DedupeKey(it.Ticker, it)
		}
		if cur, ok := best[key]; !ok || it.Trust > cur.Trust {
			best[key] = it
		}
	}
	out := make([]schema.NewsItem, 0, len(best))
	for _, it := range best {
		out = append(out, it)
	}
	slices.SortFunc(out, func(a, b schema.NewsItem) int {
		return cmp.Or(
			b.PublishedAt.Compare(a.PublishedAt),
			cmp.Compare(a.Ticker, b.Ticker),
			cmp.Compare(a.Title, b.Title),
		)
	})
	return out
}
