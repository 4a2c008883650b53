package schema

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
)

// MetricKey names one value in a MetricTable.
type MetricKey string

// Fundamental metric keys.
const (
	KeyRevenueTTM       MetricKey = "revenue_ttm"
	KeyFCFTTM           MetricKey = "fcf_ttm"
	KeyFCFMarginTTMPct  MetricKey = "fcf_margin_ttm_pct"
	KeyRevenueTTMYoYPct MetricKey = "revenue_ttm_yoy_pct"
	KeyFCFTTMYoYPct     MetricKey = "fcf_ttm_yoy_pct"
	KeyCash             MetricKey = "cash"
	KeyDebt             MetricKey = "debt"
	KeyNetDebt          MetricKey = "net_debt"
	KeyMarketCap        MetricKey = "market_cap"
	KeyPrice            MetricKey = "price"
	KeyFCFYieldPct      MetricKey = "fcf_yield_pct"
	KeyNetDebtToFCF     MetricKey = "net_debt_to_fcf"
)

// Peer rank keys, each a 0-100 percentile.
const (
	KeyRankFCFYield   MetricKey = "rank_fcf_yield"
	KeyRankRevenueYoY MetricKey = "rank_revenue_yoy"
	KeyRankFCFYoY     MetricKey = "rank_fcf_yoy"
	KeyRankFCFMargin  MetricKey = "rank_fcf_margin"
)

// News keys.
const (
	KeyNewsNeg7d          MetricKey = "news_neg_7d"
	KeyNewsNeg30d         MetricKey = "news_neg_30d"
	KeyNewsShock7d        MetricKey = "news_shock_7d"
	KeyNewsShock30d       MetricKey = "news_shock_30d"
	KeyNewsCoreHits30d    MetricKey = "news_core_hits_30d"
	KeyNewsProxyScore7d   MetricKey = "news_proxy_score_7d"
	KeyNewsProxyScore30d  MetricKey = "news_proxy_score_30d"
	KeyLatestRevenueYoY   MetricKey = "latest_revenue_yoy_pct"
	KeyLatestFreeCashFlow MetricKey = "latest_free_cash_flow"
	KeyLatestFCFMarginPct MetricKey = "latest_fcf_margin_pct"
	KeyBearPrice          MetricKey = "bear_price"
)

// fixedMetricKeys is the known schema apart from the per-tag risk keys.
var fixedMetricKeys = map[MetricKey]struct{}{
	KeyRevenueTTM: {}, KeyFCFTTM: {}, KeyFCFMarginTTMPct: {}, KeyRevenueTTMYoYPct: {}, KeyFCFTTMYoYPct: {},
	KeyCash: {}, KeyDebt: {}, KeyNetDebt: {}, KeyMarketCap: {}, KeyPrice: {}, KeyFCFYieldPct: {}, KeyNetDebtToFCF: {},
	KeyRankFCFYield: {}, KeyRankRevenueYoY: {}, KeyRankFCFYoY: {}, KeyRankFCFMargin: {},
	KeyNewsNeg7d: {}, KeyNewsNeg30d: {}, KeyNewsShock7d: {}, KeyNewsShock30d: {}, KeyNewsCoreHits30d: {},
	KeyNewsProxyScore7d: {}, KeyNewsProxyScore30d: {},
	KeyLatestRevenueYoY: {}, KeyLatestFreeCashFlow: {}, KeyLatestFCFMarginPct: {}, KeyBearPrice: {},
}

// RiskNegKey returns the risk_<tag>_neg_30d key for a tag.
func RiskNegKey(tag RiskTag) MetricKey {
	return MetricKey(fmt.Sprintf("risk_%s_neg_30d", strings.ToLower(string(tag))))
}

// RiskShockKey returns the risk_<tag>_shock_30d key for a tag.
func RiskShockKey(tag RiskTag) MetricKey {
	return MetricKey(fmt.Sprintf("risk_%s_shock_30d", strings.ToLower(string(tag))))
}

// IsKnownMetricKey reports whether the scorer or claim evaluator understands k.
func IsKnownMetricKey(k MetricKey) bool {
	if _, ok := fixedMetricKeys[k]; ok {
		return true
	}
	s := string(k)
	if !strings.HasPrefix(s, "risk_") {
		return false
	}
	for _, suffix := range []string{"_neg_30d", "_shock_30d"} {
		if tag, ok := strings.CutSuffix(strings.TrimPrefix(s, "risk_"), suffix); ok {
			_, valid := ValidRiskTags[RiskTag(strings.ToUpper(tag))]
			return valid
		}
	}
	return false
}

// KnownMetricKeys returns the fixed keys plus every per-tag risk key, sorted.
func KnownMetricKeys() []MetricKey {
	keys := slices.Collect(maps.Keys(fixedMetricKeys))
	for _, tag := range AllRiskTags {
		keys = append(keys, RiskNegKey(tag), RiskShockKey(tag))
	}
	slices.Sort(keys)
	return keys
}

// MetricTable maps a metric key to a nullable value. A nil or absent entry is missing.
type MetricTable map[MetricKey]*float64

// NewMetricTable returns an empty table.
func NewMetricTable() MetricTable {
	return make(MetricTable)
}

// FloatPtr returns a pointer to v, or nil when v is NaN or infinite.
func FloatPtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Set stores v under k. NaN and infinities are stored as missing.
func (t MetricTable) Set(k MetricKey, v *float64) {
	if v != nil {
		v = FloatPtr(*v)
	}
	t[k] = v
}

// SetValue stores a plain value under k.
func (t MetricTable) SetValue(k MetricKey, v float64) {
	t[k] = FloatPtr(v)
}

// Get returns the value for k and whether it is present and finite.
func (t MetricTable) Get(k MetricKey) (float64, bool) {
	p, ok := t[k]
	if !ok || p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0, false
	}
	return *p, true
}

// Ptr returns the stored pointer for k, nil when missing.
func (t MetricTable) Ptr(k MetricKey) *float64 {
	if v, ok := t.Get(k); ok {
		return &v
	}
	return nil
}

// Merge copies every entry of other into t. Later sources win, including explicit nils.
func (t MetricTable) Merge(other MetricTable) {
	for k, v := range other {
		t.Set(k, v)
	}
}

// MergePresent copies only the non-missing entries of other into t.
func (t MetricTable) MergePresent(other MetricTable) {
	for k := range other {
		if v, ok := other.Get(k); ok {
			t.SetValue(k, v)
		}
	}
}

// Clone returns a deep copy.
func (t MetricTable) Clone() MetricTable {
	out := make(MetricTable, len(t))
	for k, v := range t {
		if v == nil {
			out[k] = nil
			continue
		}
		c := *v
		out[k] = &c
	}
	return out
}

// Keys returns the keys in sorted order.
func (t MetricTable) Keys() []MetricKey {
	keys := slices.Collect(maps.Keys(t))
	slices.Sort(keys)
	return keys
}

// Validate returns one warning per key outside the known schema.
func (t MetricTable) Validate() []string {
	var warnings []string
	for _, k := range t.Keys() {
		if !IsKnownMetricKey(k) {
			warnings = append(warnings, fmt.Sprintf("unexpected metric key %q", k))
		}
	}
	return warnings
}
