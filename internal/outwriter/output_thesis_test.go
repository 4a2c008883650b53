package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWriteThesisResult(t *testing.T) {
	res := *sampleThesisResult()

	t.Run("text", func(t *testing.T) {
		out := captureOutput(t, schema.TextOut, func(cfg *contract.Config) error {
			cfg.Explain = true
			return WriteThesisResult(res, cfg, time.Second)
		})
		assert.Contains(t, out, "UBER cash machine")
		assert.Contains(t, out, "FCF is positive")
		assert.Contains(t, out, "Passed 1, failed 0, unknown 1. Support: 100.0% (policy decided)")
	})

	t.Run("csv", func(t *testing.T) {
		out := captureOutput(t, schema.CSVOut, func(cfg *contract.Config) error {
			return WriteThesisResult(res, cfg, time.Second)
		})
		records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"c1", "fcf_ttm", ">", "0.0", "8200000000.0", "PASS", "1", "FCF is positive"}, records[1])
		assert.Empty(t, records[2][4], "unknown claims have no actual")
	})

	t.Run("json", func(t *testing.T) {
		out := captureOutput(t, schema.JSONOut, func(cfg *contract.Config) error {
			return WriteThesisResult(res, cfg, time.Second)
		})
		var decoded schema.ThesisResult
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		assert.Equal(t, 1, decoded.Passed)
		require.NotNil(t, decoded.Support)
		assert.InDelta(t, 100, *decoded.Support, 1e-9)
	})
}

func sampleThesis() schema.Thesis {
	return schema.Thesis{
		Name:   "UBER cash machine",
		Ticker: "UBER",
		Claims: []schema.Claim{
			{ID: "c1", Statement: "FCF is positive", Metric: schema.KeyFCFTTM, Operator: ">", Threshold: fp(0), Weight: 2},
			{ID: "c2", Metric: schema.KeyBearPrice, Operator: ">=", Threshold: fp(40)},
		},
		Metrics: map[schema.MetricKey]float64{schema.KeyBearPrice: 52},
	}
}

func TestEncodeThesis(t *testing.T) {
	th := sampleThesis()

	tests := []struct {
		name   string
		path   string
		decode func(data []byte, out *schema.Thesis) error
	}{
		{"yaml", "theses/UBER.yaml", func(d []byte, out *schema.Thesis) error { return yaml.Unmarshal(d, out) }},
		{"yml upper case", "theses/UBER.YML", func(d []byte, out *schema.Thesis) error { return yaml.Unmarshal(d, out) }},
		{"json", "theses/UBER.json", func(d []byte, out *schema.Thesis) error { return json.Unmarshal(d, out) }},
		{"toml", "theses/UBER.toml", func(d []byte, out *schema.Thesis) error { return toml.Unmarshal(d, out) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeThesis(th, tt.path)
			require.NoError(t, err)

			var decoded schema.Thesis
			require.NoError(t, tt.decode(data, &decoded))
			assert.Equal(t, th.Name, decoded.Name)
			require.Len(t, decoded.Claims, 2)
			assert.Equal(t, schema.Operator(">="), decoded.Claims[1].Operator)
			assert.InDelta(t, 2, decoded.Claims[0].Weight, 0)
			assert.InDelta(t, 52, decoded.Metrics[schema.KeyBearPrice], 0)
		})
	}
}

func TestWriteThesisFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theses", "UBER.yaml")
	require.NoError(t, WriteThesisFile(sampleThesis(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: UBER cash machine")
	assert.Contains(t, string(data), "  - id: c1")
}
