package outwriter

import (
	"encoding/json"
	"testing"

	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRenderModel() *schema.MetricsRenderModel {
	return &schema.MetricsRenderModel{
		Title:       "Fundamental Scoring",
		Description: "Five buckets add up to 100 points.",
		Buckets: []schema.BucketDefinition{
			{
				Name: schema.BucketCash, Max: schema.MaxCash, Purpose: "Is the business producing cash?",
				Legs: []schema.Leg{{
					Metric: schema.KeyFCFTTM,
					Tiers:  []schema.Tier{{When: "> 0", Points: 10}, {When: "<= 0", Points: 0}},
					Flag:   "Negative FCF",
				}},
			},
			{
				Name: schema.BucketBalanceRisk, Max: schema.MaxBalanceRisk, Purpose: "Can it survive a bad year?", Start: 20,
				Legs: []schema.Leg{{Metric: schema.KeyNewsCoreHits30d, Tiers: []schema.Tier{{When: ">= 3", Points: -5}}}},
			},
		},
		Ratings:  schema.DefaultRatingBands,
		Glossary: map[string]string{"TTM": "Trailing twelve months"},
	}
}

func TestPrintMetricsDefinitions(t *testing.T) {
	model := sampleRenderModel()

	t.Run("text", func(t *testing.T) {
		out := captureOutput(t, schema.TextOut, func(cfg *contract.Config) error {
			return PrintMetricsDefinitions(model, cfg)
		})
		assert.Contains(t, out, "Fundamental Scoring")
		assert.Contains(t, out, "💵 Cash Level (max 25)")
		assert.Contains(t, out, "Starts at 20")
		assert.Contains(t, out, "fcf_ttm: > 0:+10 | <= 0:+0")
		assert.Contains(t, out, "flag: Negative FCF")
		assert.Contains(t, out, "BUY >= 80, HOLD >= 65, otherwise AVOID")
		assert.Contains(t, out, "TTM: Trailing twelve months")
	})

	t.Run("csv has one row per leg", func(t *testing.T) {
		records := readCSV(t, captureOutput(t, schema.CSVOut, func(cfg *contract.Config) error {
			return PrintMetricsDefinitions(model, cfg)
		}))
		require.Len(t, records, 3)
		assert.Equal(t, []string{"Bucket", "Max", "Metric", "Tiers", "Flag"}, records[0])
		assert.Equal(t, []string{schema.BucketBalanceRisk, "20", "news_core_hits_30d", ">= 3:-5", ""}, records[2])
	})

	t.Run("json", func(t *testing.T) {
		out := captureOutput(t, schema.JSONOut, func(cfg *contract.Config) error {
			return PrintMetricsDefinitions(model, cfg)
		})
		var decoded schema.MetricsRenderModel
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		assert.Len(t, decoded.Buckets, 2)
		assert.Equal(t, 80, decoded.Ratings.Buy)
	})
}

func TestGetDisplayNameForBucket(t *testing.T) {
	assert.Equal(t, "📈 Growth", getDisplayNameForBucket(schema.BucketGrowth))
	assert.Equal(t, "Other", getDisplayNameForBucket("Other"))
}
