package core

import (
	"fmt"
	"math"

	"github.com/huangsam/fundscore/schema"
)

// tier awards points when a value is at least (or, for ceiling tables, at most) a bound.
type tier struct {
	bound  float64
	points int
}

// Threshold tables, highest tier first.
var (
	cashTiers        = []tier{{12e9, 25}, {8e9, 21}, {4e9, 15}, {1e9, 8}}
	yieldTiers       = []tier{{8, 10}, {6, 8}, {4, 5}, {2.5, 3}}
	yieldRankTiers   = []tier{{75, 10}, {50, 7}, {25, 4}}
	revGrowthTiers   = []tier{{20, 6}, {10, 4}, {5, 2}}
	fcfGrowthTiers   = []tier{{40, 6}, {15, 4}, {5, 2}}
	growthRankTiers  = []tier{{75, 4}, {50, 3}, {25, 2}}
	marginTiers      = []tier{{18, 9}, {12, 7}, {8, 5}, {4, 3}}
	marginRankTiers  = []tier{{75, 6}, {50, 4}, {25, 3}}
	leverageTiers    = []tier{{3, -8}, {1.5, -4}}
	negNewsTiers     = []tier{{6, -8}, {3, -5}, {1, -2}}
	coreHitsTiers    = []tier{{6, -4}, {3, -2}}
	shockCeilTiers   = []tier{{-10, -4}, {-6, -2}}
	proxyCeilTiers   = []tier{{25, -4}, {35, -2}}
	proxyBonusFloor  = 70.0
	proxyBonusPoints = 1
)

// Penalties and fallbacks outside the tables.
const (
	cashFloorPoints       = 3
	yieldFloorPoints      = 1
	yieldRankFloorPoints  = 2
	growthRankFloorPoints = 1
	marginFloorPoints     = 1
	marginRankFloorPoints = 2
	revDeclinePoints      = -3
	fcfDeclinePoints      = -5
	leverageMissingPoints = -2
	newsFlagThreshold     = 3
)

// Red flag messages.
const (
	flagFCFMissing    = "TTM FCF missing"
	flagLowFCF        = "Low TTM FCF"
	flagYieldMissing  = "FCF yield missing"
	flagRevDecline    = "TTM revenue declining YoY"
	flagFCFDecline    = "TTM FCF declining YoY"
	flagLeverageHigh  = "Net debt high vs TTM FCF"
	flagCoreRiskNews  = "Frequent LABOR/INSURANCE/REGULATORY negatives (30d)"
	flagNewsNegatives = "News: %d negative headlines in last 7d (shock %d)"
)

// atLeast returns the points of the first tier whose bound v reaches, or otherwise.
func atLeast(v float64, tiers []tier, otherwise int) int {
	for _, t := range tiers {
		if v >= t.bound {
			return t.points
		}
	}
	return otherwise
}

// atMost returns the points of the first tier whose bound v is at or under, or otherwise.
func atMost(v float64, tiers []tier, otherwise int) int {
	for _, t := range tiers {
		if v <= t.bound {
			return t.points
		}
	}
	return otherwise
}

// scorer accumulates bucket points, the per-leg breakdown and red flags.
type scorer struct {
	t         schema.MetricTable
	flags     []string
	breakdown []schema.LegContribution
}

func (s *scorer) leg(bucket string, key schema.MetricKey, points int) int {
	s.breakdown = append(s.breakdown, schema.LegContribution{
		Bucket: bucket,
		Metric: key,
		Value:  s.t.Ptr(key),
		Points: points,
	})
	return points
}

func (s *scorer) flag(msg string) {
	s.flags = append(s.flags, msg)
}

func (s *scorer) cash() int {
	v, ok := s.t.Get(schema.KeyFCFTTM)
	if !ok {
		s.flag(flagFCFMissing)
		return s.leg(schema.BucketCash, schema.KeyFCFTTM, 0)
	}
	pts := atLeast(v, cashTiers, cashFloorPoints)
	if pts == cashFloorPoints {
		s.flag(flagLowFCF)
	}
	return s.leg(schema.BucketCash, schema.KeyFCFTTM, pts)
}

func (s *scorer) valuation() int {
	total := 0
	if v, ok := s.t.Get(schema.KeyFCFYieldPct); ok {
		total += s.leg(schema.BucketValuation, schema.KeyFCFYieldPct, atLeast(v, yieldTiers, yieldFloorPoints))
	} else {
		s.flag(flagYieldMissing)
		s.leg(schema.BucketValuation, schema.KeyFCFYieldPct, 0)
	}
	if v, ok := s.t.Get(schema.KeyRankFCFYield); ok {
		total += s.leg(schema.BucketValuation, schema.KeyRankFCFYield, atLeast(v, yieldRankTiers, yieldRankFloorPoints))
	}
	return total
}

// growthLeg scores a YoY metric: tiered points above zero, a penalty below zero.
func (s *scorer) growthLeg(key schema.MetricKey, tiers []tier, decline int, flagMsg string) int {
	v, ok := s.t.Get(key)
	if !ok {
		return 0
	}
	if v < 0 {
		s.flag(flagMsg)
		return s.leg(schema.BucketGrowth, key, decline)
	}
	return s.leg(schema.BucketGrowth, key, atLeast(v, tiers, 0))
}

func (s *scorer) growth() int {
	total := s.growthLeg(schema.KeyRevenueTTMYoYPct, revGrowthTiers, revDeclinePoints, flagRevDecline)
	total += s.growthLeg(schema.KeyFCFTTMYoYPct, fcfGrowthTiers, fcfDeclinePoints, flagFCFDecline)
	for _, key := range []schema.MetricKey{schema.KeyRankRevenueYoY, schema.KeyRankFCFYoY} {
		if v, ok := s.t.Get(key); ok {
			total += s.leg(schema.BucketGrowth, key, atLeast(v, growthRankTiers, growthRankFloorPoints))
		}
	}
	return total
}

func (s *scorer) quality() int {
	total := 0
	if v, ok := s.t.Get(schema.KeyFCFMarginTTMPct); ok {
		total += s.leg(schema.BucketQuality, schema.KeyFCFMarginTTMPct, atLeast(v, marginTiers, marginFloorPoints))
	}
	if v, ok := s.t.Get(schema.KeyRankFCFMargin); ok {
		total += s.leg(schema.BucketQuality, schema.KeyRankFCFMargin, atLeast(v, marginRankTiers, marginRankFloorPoints))
	}
	return total
}

func (s *scorer) balanceRisk() int {
	b := schema.MaxBalanceRisk

	if v, ok := s.t.Get(schema.KeyNetDebtToFCF); ok {
		pts := atLeast(v, leverageTiers, 0)
		if pts == leverageTiers[0].points {
			s.flag(flagLeverageHigh)
		}
		b += s.leg(schema.BucketBalanceRisk, schema.KeyNetDebtToFCF, pts)
	} else {
		b += s.leg(schema.BucketBalanceRisk, schema.KeyNetDebtToFCF, leverageMissingPoints)
	}

	// News counts default to zero when no news was loaded.
	neg7, _ := s.t.Get(schema.KeyNewsNeg7d)
	shock7, _ := s.t.Get(schema.KeyNewsShock7d)
	coreHits, _ := s.t.Get(schema.KeyNewsCoreHits30d)

	b += s.leg(schema.BucketBalanceRisk, schema.KeyNewsNeg7d, atLeast(neg7, negNewsTiers, 0))
	b += s.leg(schema.BucketBalanceRisk, schema.KeyNewsShock7d, atMost(shock7, shockCeilTiers, 0))

	corePts := atLeast(coreHits, coreHitsTiers, 0)
	if corePts == coreHitsTiers[0].points {
		s.flag(flagCoreRiskNews)
	}
	b += s.leg(schema.BucketBalanceRisk, schema.KeyNewsCoreHits30d, corePts)

	if p7, ok := s.t.Get(schema.KeyNewsProxyScore7d); ok {
		pts := atMost(p7, proxyCeilTiers, 0)
		if pts == 0 && p7 >= proxyBonusFloor {
			pts = proxyBonusPoints
		}
		b += s.leg(schema.BucketBalanceRisk, schema.KeyNewsProxyScore7d, pts)
	}
	return b
}

// clampBucket bounds a bucket to [0, hi].
func clampBucket(v, hi int) int {
	return max(0, min(hi, v))
}

// ScoreTable maps a metric table to bucket points, a total, a rating and red flags.
// It never fails; missing inputs contribute zero or a fixed penalty.
func ScoreTable(t schema.MetricTable, bands schema.RatingBands) schema.ScoreResult {
	s := &scorer{t: t}
	buckets := schema.BucketScore{
		Cash:        clampBucket(s.cash(), schema.MaxCash),
		Valuation:   clampBucket(s.valuation(), schema.MaxValuation),
		Growth:      clampBucket(s.growth(), schema.MaxGrowth),
		Quality:     clampBucket(s.quality(), schema.MaxQuality),
		BalanceRisk: clampBucket(s.balanceRisk(), schema.MaxBalanceRisk),
	}

	neg7, _ := t.Get(schema.KeyNewsNeg7d)
	if neg7 >= newsFlagThreshold {
		shock7, _ := t.Get(schema.KeyNewsShock7d)
		s.flag(fmt.Sprintf(flagNewsNegatives, int(neg7), int(shock7)))
	}

	total := int(math.Round(schema.Clamp(float64(buckets.Total()), 0, 100)))
	return schema.ScoreResult{
		Score:   total,
		Rating:  bands.RatingFor(total),
		Buckets: buckets,
		Ranks: schema.PeerRanks{
			FCFYield:   t.Ptr(schema.KeyRankFCFYield),
			RevenueYoY: t.Ptr(schema.KeyRankRevenueYoY),
			FCFYoY:     t.Ptr(schema.KeyRankFCFYoY),
			FCFMargin:  t.Ptr(schema.KeyRankFCFMargin),
		},
		RedFlags:       s.flags,
		Breakdown:      s.breakdown,
		Metrics:        t,
		MetricWarnings: t.Validate(),
	}
}

// BucketLight maps raw bucket points to a decision card light.
func BucketLight(points *int) schema.Light {
	switch {
	case points == nil:
		return schema.LightGray
	case *points >= 17:
		return schema.LightGreen
	case *points >= 13:
		return schema.LightYellow
	default:
		return schema.LightRed
	}
}

// --- Definitions for the metrics command ---

func describeTiers(op string, tiers []tier, otherwise string) []schema.Tier {
	out := make([]schema.Tier, 0, len(tiers)+1)
	for _, t := range tiers {
		out = append(out, schema.Tier{When: fmt.Sprintf("%s %g", op, t.bound), Points: t.points})
	}
	if otherwise != "" {
		out = append(out, schema.Tier{When: otherwise})
	}
	return out
}

func withFloor(tiers []schema.Tier, points int) []schema.Tier {
	tiers[len(tiers)-1].Points = points
	return tiers
}

// ScoringDefinitions describes every bucket using the live threshold tables.
func ScoringDefinitions(bands schema.RatingBands) *schema.MetricsRenderModel {
	growthRank := withFloor(describeTiers(">=", growthRankTiers, "otherwise"), growthRankFloorPoints)
	return &schema.MetricsRenderModel{
		Title:       "Fundamental Score Definitions",
		Description: "Five capped buckets sum to a 0-100 score. Thresholds include their lower bound.",
		Buckets: []schema.BucketDefinition{
			{
				Name: schema.BucketCash, Max: schema.MaxCash,
				Purpose: "How much free cash the business generated over the last twelve months.",
				Legs: []schema.Leg{{
					Metric: schema.KeyFCFTTM,
					Tiers:  withFloor(describeTiers(">=", cashTiers, "otherwise"), cashFloorPoints),
					Flag:   flagLowFCF + " / " + flagFCFMissing,
				}},
			},
			{
				Name: schema.BucketValuation, Max: schema.MaxValuation,
				Purpose: "How cheap the stock is relative to the cash it produces.",
				Legs: []schema.Leg{
					{Metric: schema.KeyFCFYieldPct, Tiers: withFloor(describeTiers(">=", yieldTiers, "otherwise"), yieldFloorPoints), Flag: flagYieldMissing},
					{Metric: schema.KeyRankFCFYield, Tiers: withFloor(describeTiers(">=", yieldRankTiers, "otherwise"), yieldRankFloorPoints)},
				},
			},
			{
				Name: schema.BucketGrowth, Max: schema.MaxGrowth,
				Purpose: "Whether revenue and free cash flow are growing, absolutely and versus peers.",
				Legs: []schema.Leg{
					{Metric: schema.KeyRevenueTTMYoYPct, Tiers: withFloor(describeTiers(">=", revGrowthTiers, "< 0"), revDeclinePoints), Flag: flagRevDecline},
					{Metric: schema.KeyFCFTTMYoYPct, Tiers: withFloor(describeTiers(">=", fcfGrowthTiers, "< 0"), fcfDeclinePoints), Flag: flagFCFDecline},
					{Metric: schema.KeyRankRevenueYoY, Tiers: growthRank},
					{Metric: schema.KeyRankFCFYoY, Tiers: growthRank},
				},
			},
			{
				Name: schema.BucketQuality, Max: schema.MaxQuality,
				Purpose: "How much of each sales dollar turns into free cash.",
				Legs: []schema.Leg{
					{Metric: schema.KeyFCFMarginTTMPct, Tiers: withFloor(describeTiers(">=", marginTiers, "otherwise"), marginFloorPoints)},
					{Metric: schema.KeyRankFCFMargin, Tiers: withFloor(describeTiers(">=", marginRankTiers, "otherwise"), marginRankFloorPoints)},
				},
			},
			{
				Name: schema.BucketBalanceRisk, Max: schema.MaxBalanceRisk, Start: schema.MaxBalanceRisk,
				Purpose: "Starts full and loses points for leverage and negative news.",
				Legs: []schema.Leg{
					{Metric: schema.KeyNetDebtToFCF, Tiers: withFloor(describeTiers(">=", leverageTiers, "missing"), leverageMissingPoints), Flag: flagLeverageHigh},
					{Metric: schema.KeyNewsNeg7d, Tiers: describeTiers(">=", negNewsTiers, "")},
					{Metric: schema.KeyNewsShock7d, Tiers: describeTiers("<=", shockCeilTiers, "")},
					{Metric: schema.KeyNewsCoreHits30d, Tiers: describeTiers(">=", coreHitsTiers, ""), Flag: flagCoreRiskNews},
					{Metric: schema.KeyNewsProxyScore7d, Tiers: append(describeTiers("<=", proxyCeilTiers, ""),
						schema.Tier{When: fmt.Sprintf(">= %g", proxyBonusFloor), Points: proxyBonusPoints})},
				},
			},
		},
		Ratings: bands,
		Glossary: map[string]string{
			"FCF":        "Free cash flow: operating cash flow minus capital expenditure.",
			"TTM":        "Trailing twelve months: the sum of the last four quarters.",
			"FCF yield":  "TTM free cash flow divided by market cap.",
			"Peer rank":  "Share of peers at or below this company, from 0 to 100.",
			"News shock": "Sum of negative impact scores of recent headlines.",
		},
	}
}
