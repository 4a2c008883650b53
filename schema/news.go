package schema

import "time"

// NewsItem is one headline after normalization, tagging and scoring.
type NewsItem struct {
	Ticker      string    `json:"ticker"`
	PublishedAt time.Time `json:"published_at"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Summary     string    `json:"summary,omitempty"`
	RiskTag     RiskTag   `json:"risk_tag"`
	ImpactScore int       `json:"impact_score"`
	Trust       float64   `json:"trust"`
	DedupeKey   string    `json:"dedupe_key"`
	Provider    string    `json:"provider,omitempty"`

	// HasImpact marks an ImpactScore that is settled, either read from the input or already scored.
	HasImpact bool `json:"-"`
}

// SentimentProxy is the keyword sentiment proxy for one ticker.
type SentimentProxy struct {
	Ticker        string `json:"ticker"`
	Articles7d    int    `json:"articles_7d"`
	Articles30d   int    `json:"articles_30d"`
	Neg7d         int    `json:"neg_7d"`
	Neg30d        int    `json:"neg_30d"`
	Shock7d       int    `json:"shock_7d"`
	Shock30d      int    `json:"shock_30d"`
	PosHits7d     int    `json:"pos_hits_7d"`
	NegHits7d     int    `json:"neg_hits_7d"`
	PosHits30d    int    `json:"pos_hits_30d"`
	NegHits30d    int    `json:"neg_hits_30d"`
	ProxyScore7d  int    `json:"proxy_score_7d"`
	ProxyScore30d int    `json:"proxy_score_30d"`
}

// RiskDashboardRow aggregates negative headlines for one ticker and tag.
type RiskDashboardRow struct {
	Ticker        string  `json:"ticker"`
	RiskTag       RiskTag `json:"risk_tag"`
	NegCount30d   int     `json:"neg_count_30d"`
	Shock30d      float64 `json:"shock_30d"`
	NegCount7d    int     `json:"neg_count_7d"`
	Shock7d       float64 `json:"shock_7d"`
	Worst7dTitle  string  `json:"worst_7d_title"`
	Worst7dSource string  `json:"worst_7d_source"`
	Worst7dURL    string  `json:"worst_7d_url"`
	Worst7dImpact float64 `json:"worst_7d_impact"`
}

// NewsSummary is the compact news view consumed by the balance/risk bucket.
type NewsSummary struct {
	Neg7d               int             `json:"neg_7d"`
	Neg30d              int             `json:"neg_30d"`
	Shock7d             int             `json:"shock_7d"`
	TagCounts30d        map[RiskTag]int `json:"tag_counts_30d"`
	TopNegativeTitles7d []NewsItem      `json:"top_negative_titles_7d"`
}

// CoreHits sums the 30d negatives of the core risk tags.
func (s NewsSummary) CoreHits() int {
	total := 0
	for _, tag := range CoreRiskTags {
		total += s.TagCounts30d[tag]
	}
	return total
}

// TagConfirmation lists the credible sources that reported a tag.
type TagConfirmation struct {
	Confirmations int      `json:"confirmations"`
	Sources       []string `json:"sources"`
}

// TacticalSignal is the fast short-window negativity check.
type TacticalSignal struct {
	Ticker        string `json:"ticker"`
	Shock7d       *int   `json:"shock_7d"`
	Neg7d         *int   `json:"neg_7d"`
	Articles7d    *int   `json:"articles_7d"`
	TacticalAlert bool   `json:"tactical_alert"`
}

// InstitutionalSignal holds the tags confirmed by credible sources.
type InstitutionalSignal struct {
	ConfirmedTags map[RiskTag]TagConfirmation `json:"confirmed_tags"`
	ConfirmedAny  bool                        `json:"confirmed_any"`
}

// SourceMix describes how concentrated a ticker's news sources are.
type SourceMix struct {
	TopSource       string   `json:"top_source,omitempty"`
	SourceShareTop  *float64 `json:"source_share_top"`
	SourceDiversity int      `json:"source_diversity"`
	CredWeightedAvg *float64 `json:"cred_weighted_avg"`
}

// HybridSignal combines the tactical alert with institutional confirmation.
type HybridSignal struct {
	AsOf           time.Time           `json:"as_of"`
	Ticker         string              `json:"ticker"`
	Tactical       TacticalSignal      `json:"tactical"`
	Institutional  InstitutionalSignal `json:"institutional"`
	SourceMix      SourceMix           `json:"source_mix"`
	HybridEscalate bool                `json:"hybrid_escalate"`
}

// EvidenceRow is one verifiable headline in an evidence pack.
type EvidenceRow struct {
	PublishedAt time.Time  `json:"published_at"`
	Ticker      string     `json:"ticker"`
	Source      string     `json:"source"`
	RiskTag     RiskTag    `json:"risk_tag"`
	ImpactScore int        `json:"impact_score"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Domain      string     `json:"domain"`
	Tier        SourceTier `json:"tier"`
	Priority    float64    `json:"priority,omitempty"`
}

// EvidenceTimeFormat is how evidence timestamps are displayed.
const EvidenceTimeFormat = "2006-01-02 15:04 UTC"

// Evidence is the ranked bull and bear evidence for a thesis.
type Evidence struct {
	Ticker string     `json:"ticker"`
	Tag    RiskTag    `json:"tag,omitempty"`
	Bull   []NewsItem `json:"bull"`
	Bear   []NewsItem `json:"bear"`
}
