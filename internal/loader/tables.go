package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/huangsam/fundscore/core"
	"github.com/huangsam/fundscore/schema"
)

func parseQuarter(r record) (schema.Quarter, error) {
	periodEnd, err := r.Time("period_end")
	if err != nil {
		return schema.Quarter{}, err
	}
	return schema.Quarter{
		Ticker:             schema.NormalizeTicker(r.String("ticker")),
		PeriodEnd:          periodEnd,
		Revenue:            r.Float("revenue"),
		OperatingCashFlow:  r.Float("operating_cash_flow"),
		CapitalExpenditure: r.Float("capital_expenditure"),
		Cash:               r.Float("cash"),
		Debt:               r.Float("debt"),
	}, nil
}

func parseQuote(r record) schema.Quote {
	return schema.Quote{
		Ticker:    schema.NormalizeTicker(r.String("ticker")),
		Price:     r.Float("price"),
		MarketCap: r.Float("market_cap"),
	}
}

func parseAnnual(r record) (schema.AnnualRow, error) {
	periodEnd, err := r.Time("period_end")
	if err != nil {
		return schema.AnnualRow{}, err
	}
	return schema.AnnualRow{
		Ticker:             schema.NormalizeTicker(r.String("ticker")),
		PeriodEnd:          periodEnd,
		Revenue:            r.Float("revenue"),
		OperatingCashFlow:  r.Float("operating_cash_flow"),
		CapitalExpenditure: r.Float("capital_expenditure"),
		FreeCashFlow:       r.Float("free_cash_flow"),
	}, nil
}

// parseComps reads a precomputed comps row. A blank period_end is allowed.
func parseComps(r record) schema.CompsRow {
	row := schema.CompsRow{
		Ticker:           schema.NormalizeTicker(r.String("ticker")),
		Price:            r.Float("price"),
		MarketCap:        r.Float("market_cap"),
		RevenueTTM:       r.Float("revenue_ttm"),
		FCFTTM:           r.Float("fcf_ttm"),
		FCFMarginTTMPct:  r.Float("fcf_margin_ttm_pct"),
		RevenueTTMYoYPct: r.Float("revenue_ttm_yoy_pct"),
		FCFTTMYoYPct:     r.Float("fcf_ttm_yoy_pct"),
		Cash:             r.Float("cash"),
		Debt:             r.Float("debt"),
		NetDebt:          r.Float("net_debt"),
		FCFYield:         r.Float("fcf_yield"),
		NetDebtToFCF:     r.Float("net_debt_to_fcf"),
	}
	if row.NetDebtToFCF == nil {
		row.NetDebtToFCF = r.Float("net_debt_to_fcf_ttm")
	}
	if t, err := r.Time("period_end"); err == nil {
		row.PeriodEnd = t
	}
	return row
}

// parseNews reads one headline. A missing or unknown tag is left blank for
// core.EnrichNews to fill. A supplied impact is kept whatever the tag.
func parseNews(r record) (schema.NewsItem, error) {
	published, err := r.Time("published_at")
	if err != nil {
		return schema.NewsItem{}, err
	}
	item := schema.NewsItem{
		Ticker:      schema.NormalizeTicker(r.String("ticker")),
		PublishedAt: published,
		Source:      strings.ToLower(r.String("source")),
		Title:       r.String("title"),
		URL:         r.String("url"),
		Summary:     r.String("summary"),
		Provider:    r.String("provider"),
		DedupeKey:   r.String("dedupe_key"),
	}
	if r.String("impact_score") != "" {
		item.ImpactScore = r.Int("impact_score")
		item.HasImpact = true
	}
	tag := schema.RiskTag(strings.ToUpper(r.String("risk_tag")))
	if _, ok := schema.ValidRiskTags[tag]; ok {
		item.RiskTag = tag
		if !item.HasImpact {
			item.ImpactScore = core.ImpactScore(item.Title)
			item.HasImpact = true
		}
	}
	return item, nil
}

func parseProxy(r record) schema.SentimentProxy {
	return schema.SentimentProxy{
		Ticker:        schema.NormalizeTicker(r.String("ticker")),
		Articles7d:    r.Int("articles_7d"),
		Articles30d:   r.Int("articles_30d"),
		Neg7d:         r.Int("neg_7d"),
		Neg30d:        r.Int("neg_30d"),
		Shock7d:       r.Int("shock_7d"),
		Shock30d:      r.Int("shock_30d"),
		PosHits7d:     r.Int("pos_hits_7d"),
		NegHits7d:     r.Int("neg_hits_7d"),
		PosHits30d:    r.Int("pos_hits_30d"),
		NegHits30d:    r.Int("neg_hits_30d"),
		ProxyScore7d:  r.Int("proxy_score_7d"),
		ProxyScore30d: r.Int("proxy_score_30d"),
	}
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func parseDashboard(r record) schema.RiskDashboardRow {
	return schema.RiskDashboardRow{
		Ticker:        schema.NormalizeTicker(r.String("ticker")),
		RiskTag:       schema.RiskTag(strings.ToUpper(r.String("risk_tag"))),
		NegCount30d:   r.Int("neg_count_30d"),
		Shock30d:      floatOrZero(r.Float("shock_30d")),
		NegCount7d:    r.Int("neg_count_7d"),
		Shock7d:       floatOrZero(r.Float("shock_7d")),
		Worst7dTitle:  r.String("worst_7d_title"),
		Worst7dSource: r.String("worst_7d_source"),
		Worst7dURL:    r.String("worst_7d_url"),
		Worst7dImpact: floatOrZero(r.Float("worst_7d_impact")),
	}
}

// addWhitelist reads a domain and optional tier; a missing tier means TOP.
func addWhitelist(wl schema.Whitelist, r record) error {
	domain := strings.ToLower(r.String("domain"))
	domain = strings.TrimPrefix(domain, "www.")
	if domain == "" {
		return nil
	}
	tier := schema.TierTop
	if raw := r.String("tier"); raw != "" {
		tier = schema.SourceTier(strings.ToUpper(raw))
		if _, ok := schema.ValidSourceTiers[tier]; !ok {
			return fmt.Errorf("domain %s has unknown tier %q", domain, raw)
		}
	}
	wl[domain] = tier
	return nil
}

// secTickerEntry is one entry of the SEC company_tickers.json file.
type secTickerEntry struct {
	CIK    json.Number `json:"cik_str"`
	Ticker string      `json:"ticker"`
	Title  string      `json:"title"`
}

// ReadTickerCIKs reads an SEC company_tickers.json file into ticker to
// zero-padded 10-digit CIK.
func ReadTickerCIKs(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTickerCIKs(data)
}

// ParseTickerCIKs decodes the SEC company_tickers.json layout.
func ParseTickerCIKs(data []byte) (map[string]string, error) {
	var entries map[string]secTickerEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode ticker CIK map: %w", err)
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		cik, err := strconv.ParseInt(e.CIK.String(), 10, 64)
		if err != nil || e.Ticker == "" {
			continue
		}
		out[schema.NormalizeTicker(e.Ticker)] = fmt.Sprintf("%010d", cik)
	}
	return out, nil
}
