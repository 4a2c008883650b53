package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *contract.Config {
	return &contract.Config{
		Ticker:          "UBER",
		AsOf:            sampleAsOf,
		ResultLimit:     10,
		Workers:         2,
		Precision:       1,
		Output:          schema.JSONOut,
		SupportPolicy:   schema.SupportDecided,
		NewsWindowDays:  30,
		EvidenceMaxRows: 30,
		RatingBands:     schema.DefaultRatingBands,
		DCF:             schema.DefaultDCFConfig(),
	}
}

// sampleThesis passes twice, fails once and has one claim on a missing metric.
func sampleThesis() *schema.Thesis {
	return &schema.Thesis{
		Name:   "UBER: cash machine",
		Ticker: "UBER",
		Claims: []schema.Claim{
			{ID: "fcf_positive", Metric: schema.KeyFCFTTM, Operator: schema.OpGT, Threshold: fp(0)},
			{ID: "cheap_vs_peers", Metric: schema.KeyRankFCFYield, Operator: schema.OpGE, Threshold: fp(50)},
			{ID: "quiet_news", Metric: schema.KeyNewsNeg7d, Operator: schema.OpLT, Threshold: fp(1)},
			{ID: "no_safety_news", Metric: schema.RiskNegKey(schema.TagSafety), Operator: schema.OpLE, Threshold: fp(0)},
		},
	}
}

func TestBuildReport(t *testing.T) {
	cfg := testConfig()
	cfg.Tag = schema.TagLabor
	rep, err := buildReport(cfg, sampleDataset(), sampleThesis())
	require.NoError(t, err)

	_, err = uuid.Parse(rep.ID)
	assert.NoError(t, err)
	assert.Equal(t, "UBER", rep.Ticker)
	assert.Equal(t, "2026-01-10", rep.Score.AsOf)
	assert.Equal(t, rep.Score.Score, rep.Card.Score)
	assert.Len(t, rep.Card.Lights, 5)
	assert.Contains(t, rep.Verdict, "Verdict:")

	require.NotNil(t, rep.Thesis)
	assert.Equal(t, 2, rep.Thesis.Passed)
	assert.Equal(t, 1, rep.Thesis.Failed)
	assert.Equal(t, 1, rep.Thesis.Unknown)
	require.NotNil(t, rep.Thesis.Support)
	assert.InDelta(t, 66.7, *rep.Thesis.Support, 1e-9)
	assert.InDelta(t, 50.0, *rep.Thesis.SupportAll, 1e-9)

	require.Len(t, rep.Evidence.Bear, 2)
	assert.Equal(t, "bloomberg", rep.Evidence.Bear[0].Source, "equal trust falls back to the worst impact")
	assert.Equal(t, "reuters", rep.Evidence.Bull[0].Source)
	assert.NotEmpty(t, rep.EvidenceRows)
	assert.Equal(t, 2, rep.News.Neg7d)
	require.NotNil(t, rep.DCF)
	assert.Len(t, rep.Scenarios.Cases, 3)
	assert.NotNil(t, rep.Alerts)
}

func TestBuildReportWithoutThesis(t *testing.T) {
	rep, err := buildReport(testConfig(), sampleDataset(), nil)
	require.NoError(t, err)
	assert.Nil(t, rep.Thesis)
}

func TestBuildReportTickerNotFound(t *testing.T) {
	cfg := testConfig()
	cfg.Ticker = "DASH"
	_, err := buildReport(cfg, sampleDataset(), nil)
	assert.ErrorIs(t, err, contract.ErrTickerNotFound)
}

func TestReportBuilderTable(t *testing.T) {
	b := NewReportBuilder(testConfig(), sampleDataset(), sampleThesis()).CollectInputs()
	require.NotNil(t, b.Data())
	v, ok := b.Table().Get(schema.KeyFCFTTM)
	require.True(t, ok)
	assert.InDelta(t, 8.0, v, 1e-9)
}

func BenchmarkBuildReport(b *testing.B) {
	cfg, ds, th := testConfig(), sampleDataset(), sampleThesis()
	for b.Loop() {
		if _, err := buildReport(cfg, ds, th); err != nil {
			b.Fatal(err)
		}
	}
}
