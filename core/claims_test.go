package core

import (
	"math"
	"testing"

	"github.com/huangsam/fundscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claim(id string, metric schema.MetricKey, op schema.Operator, threshold float64, weight float64) schema.Claim {
	return schema.Claim{ID: id, Metric: metric, Operator: op, Threshold: schema.FloatPtr(threshold), Weight: weight}
}

func TestEvaluateClaim(t *testing.T) {
	tbl := schema.MetricTable{}
	tbl.SetValue(schema.KeyLatestRevenueYoY, -1.29)
	tbl.SetValue(schema.KeyLatestFreeCashFlow, 11.07e9)
	tbl.SetValue(schema.KeyFCFYieldPct, 14.19)
	tbl.SetValue(schema.RiskNegKey(schema.TagLabor), 3)

	tests := []struct {
		name  string
		claim schema.Claim
		want  schema.ClaimStatus
	}{
		{"growth fails", claim("rev", schema.KeyLatestRevenueYoY, schema.OpGE, 10, 2), schema.StatusFail},
		{"fcf passes", claim("fcf", schema.KeyLatestFreeCashFlow, schema.OpGT, 0, 3), schema.StatusPass},
		{"le inclusive", claim("labor", schema.RiskNegKey(schema.TagLabor), schema.OpLE, 3, 1), schema.StatusPass},
		{"lt exclusive", claim("labor", schema.RiskNegKey(schema.TagLabor), schema.OpLT, 3, 1), schema.StatusFail},
		{"eq", claim("yield", schema.KeyFCFYieldPct, schema.OpEQ, 14.19, 1), schema.StatusPass},
		{"missing metric", claim("shock", schema.KeyNewsShock30d, schema.OpGE, -15, 1), schema.StatusUnknown},
		{"bad operator", claim("yield", schema.KeyFCFYieldPct, "~=", 3, 1), schema.StatusUnknown},
		{"nil threshold", schema.Claim{ID: "bear", Metric: schema.KeyFCFYieldPct, Operator: schema.OpLE}, schema.StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateClaim(tt.claim, tbl)
			assert.Equal(t, tt.want, got.Status)
		})
	}
}

func TestEvaluateClaimActual(t *testing.T) {
	tbl := schema.MetricTable{}
	tbl.SetValue(schema.KeyLatestRevenueYoY, -1.29)

	got := EvaluateClaim(claim("rev", schema.KeyLatestRevenueYoY, schema.OpGE, 10, 1), tbl)
	require.NotNil(t, got.Actual)
	assert.Equal(t, -1.29, *got.Actual)

	missing := EvaluateClaim(claim("x", schema.KeyCash, schema.OpGE, 10, 1), tbl)
	assert.Nil(t, missing.Actual)
}

func TestEvaluateClaimNaNIsUnknown(t *testing.T) {
	nan := math.NaN()
	tbl := schema.MetricTable{schema.KeyCash: &nan}
	got := EvaluateClaim(claim("cash", schema.KeyCash, schema.OpGE, 0, 1), tbl)
	assert.Equal(t, schema.StatusUnknown, got.Status)
}

func TestEvaluateThesisSupport(t *testing.T) {
	tbl := schema.MetricTable{}
	tbl.SetValue(schema.KeyLatestRevenueYoY, -1.29)
	tbl.SetValue(schema.KeyLatestFreeCashFlow, 11.07e9)

	th := schema.Thesis{
		Name:   "UBER: test",
		Ticker: "UBER",
		Claims: []schema.Claim{
			claim("rev", schema.KeyLatestRevenueYoY, schema.OpGE, 10, 2),  // FAIL w2
			claim("fcf", schema.KeyLatestFreeCashFlow, schema.OpGT, 0, 3), // PASS w3
			claim("shock", schema.KeyNewsShock30d, schema.OpGE, -15, 1),   // UNKNOWN w1
		},
	}

	t.Run("decided", func(t *testing.T) {
		res := EvaluateThesis(th, tbl, schema.SupportDecided)
		assert.Equal(t, 1, res.Passed)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, 1, res.Unknown)
		require.NotNil(t, res.Support)
		assert.Equal(t, 60.0, *res.Support)
		require.NotNil(t, res.SupportAll)
		assert.Equal(t, 50.0, *res.SupportAll)
	})

	t.Run("all", func(t *testing.T) {
		res := EvaluateThesis(th, tbl, schema.SupportAll)
		require.NotNil(t, res.Support)
		assert.Equal(t, 50.0, *res.Support)
		assert.Equal(t, schema.SupportAll, res.Policy)
	})

	t.Run("unrecognized policy falls back to decided", func(t *testing.T) {
		res := EvaluateThesis(th, tbl, "")
		assert.Equal(t, schema.SupportDecided, res.Policy)
		assert.Equal(t, 60.0, *res.Support)
	})

	t.Run("rounded to one decimal", func(t *testing.T) {
		th3 := schema.Thesis{Claims: []schema.Claim{
			claim("a", schema.KeyLatestFreeCashFlow, schema.OpGT, 0, 1),
			claim("b", schema.KeyLatestFreeCashFlow, schema.OpGT, 0, 1),
			claim("c", schema.KeyLatestRevenueYoY, schema.OpGT, 0, 1),
		}}
		res := EvaluateThesis(th3, tbl, schema.SupportDecided)
		assert.Equal(t, 66.7, *res.Support)
	})
}

func TestEvaluateThesisEmptyDenominator(t *testing.T) {
	th := schema.Thesis{Claims: []schema.Claim{
		claim("shock", schema.KeyNewsShock30d, schema.OpGE, -15, 1),
	}}

	res := EvaluateThesis(th, schema.MetricTable{}, schema.SupportDecided)
	assert.Nil(t, res.SupportDecided)
	assert.Nil(t, res.Support)
	require.NotNil(t, res.SupportAll)
	assert.Equal(t, 0.0, *res.SupportAll)

	empty := EvaluateThesis(schema.Thesis{}, schema.MetricTable{}, schema.SupportAll)
	assert.Nil(t, empty.SupportAll)
}

func TestEvaluateThesisIdempotent(t *testing.T) {
	tbl := schema.MetricTable{}
	tbl.SetValue(schema.KeyLatestFreeCashFlow, 1)
	th := StarterThesis("UBER", "")

	first := EvaluateThesis(th, tbl, schema.SupportDecided)
	second := EvaluateThesis(th, tbl, schema.SupportDecided)
	assert.Equal(t, first, second)
}

func FuzzEvaluateClaim(f *testing.F) {
	f.Add(1.0, 0.0, ">")
	f.Add(-1.29, 10.0, ">=")
	f.Add(math.Inf(1), 0.0, "<")
	f.Add(0.0, 0.0, "bogus")

	f.Fuzz(func(t *testing.T, actual, threshold float64, op string) {
		tbl := schema.MetricTable{}
		tbl.SetValue(schema.KeyCash, actual)
		res := EvaluateClaim(schema.Claim{ID: "f", Metric: schema.KeyCash, Operator: schema.Operator(op), Threshold: &threshold}, tbl)

		_, validOp := schema.ValidOperators[schema.Operator(op)]
		_, present := tbl.Get(schema.KeyCash)
		if !validOp || !present || math.IsNaN(threshold) {
			if !present || !validOp {
				assert.Equal(t, schema.StatusUnknown, res.Status)
			}
			return
		}
		assert.Contains(t, []schema.ClaimStatus{schema.StatusPass, schema.StatusFail}, res.Status)
	})
}

func BenchmarkEvaluateThesis(b *testing.B) {
	tbl := schema.MetricTable{}
	for i, k := range schema.KnownMetricKeys() {
		tbl.SetValue(k, float64(i))
	}
	th := StarterThesis("UBER", "")
	for b.Loop() {
		EvaluateThesis(th, tbl, schema.SupportDecided)
	}
}
