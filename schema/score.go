package schema

import "time"

// Bucket maxima.
const (
	MaxCash        = 25
	MaxValuation   = 20
	MaxGrowth      = 20
	MaxQuality     = 15
	MaxBalanceRisk = 20
)

// Bucket names as shown in tables and memos.
const (
	BucketCash        = "Cash Level"
	BucketValuation   = "Valuation"
	BucketGrowth      = "Growth"
	BucketQuality     = "Quality"
	BucketBalanceRisk = "Balance Sheet / Risk"
)

// BucketScore holds the clamped points of each scoring bucket.
type BucketScore struct {
	Cash        int `json:"cash"`
	Valuation   int `json:"valuation"`
	Growth      int `json:"growth"`
	Quality     int `json:"quality"`
	BalanceRisk int `json:"balance_risk"`
}

// Total is the clamped sum of the buckets.
func (b BucketScore) Total() int {
	sum := b.Cash + b.Valuation + b.Growth + b.Quality + b.BalanceRisk
	return max(0, min(100, sum))
}

// BucketPoints pairs a bucket with its points and maximum, in display order.
type BucketPoints struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Max    int    `json:"max"`
}

// Points lists the buckets in display order.
func (b BucketScore) Points() []BucketPoints {
	return []BucketPoints{
		{Name: BucketCash, Points: b.Cash, Max: MaxCash},
		{Name: BucketValuation, Points: b.Valuation, Max: MaxValuation},
		{Name: BucketGrowth, Points: b.Growth, Max: MaxGrowth},
		{Name: BucketQuality, Points: b.Quality, Max: MaxQuality},
		{Name: BucketBalanceRisk, Points: b.BalanceRisk, Max: MaxBalanceRisk},
	}
}

// PeerRanks are the 0-100 percentiles of a ticker among its peers.
type PeerRanks struct {
	FCFYield   *float64 `json:"rank_fcf_yield"`
	RevenueYoY *float64 `json:"rank_revenue_yoy"`
	FCFYoY     *float64 `json:"rank_fcf_yoy"`
	FCFMargin  *float64 `json:"rank_fcf_margin"`
}

// LegContribution explains the points one metric added to a bucket.
type LegContribution struct {
	Bucket string    `json:"bucket"`
	Metric MetricKey `json:"metric"`
	Value  *float64  `json:"value"`
	Points int       `json:"points"`
}

// ScoreDrift records a disagreement between a cached score and a fresh one.
type ScoreDrift struct {
	CachedScore int       `json:"cached_score"`
	FreshScore  int       `json:"fresh_score"`
	CachedAt    time.Time `json:"cached_at"`
}

// ScoreResult is the outcome of scoring one ticker.
type ScoreResult struct {
	Ticker         string            `json:"ticker"`
	AsOf           string            `json:"as_of"`
	Score          int               `json:"score"`
	Rating         Rating            `json:"rating"`
	Buckets        BucketScore       `json:"buckets"`
	Ranks          PeerRanks         `json:"peer_ranks"`
	RedFlags       []string          `json:"red_flags"`
	Breakdown      []LegContribution `json:"breakdown,omitempty"`
	Metrics        MetricTable       `json:"metrics"`
	MetricWarnings []string          `json:"metric_warnings,omitempty"`
	Drift          *ScoreDrift       `json:"drift,omitempty"`
}

// RatingBands are the score floors for BUY and HOLD.
type RatingBands struct {
	Buy  int `json:"buy" yaml:"buy" mapstructure:"buy"`
	Hold int `json:"hold" yaml:"hold" mapstructure:"hold"`
}

// DefaultRatingBands is BUY at 80 and HOLD at 65.
var DefaultRatingBands = RatingBands{Buy: 80, Hold: 65}

// RatingFor maps a total score to a rating.
func (r RatingBands) RatingFor(score int) Rating {
	switch {
	case score >= r.Buy:
		return RatingBuy
	case score >= r.Hold:
		return RatingHold
	default:
		return RatingAvoid
	}
}
