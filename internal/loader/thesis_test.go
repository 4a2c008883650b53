package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const thesisYAML = `name: "UBER: Cash machine"
claims:
  - id: fcf_positive
    metric: latest_free_cash_flow
    operator: ">"
    threshold: 0
    weight: 3
  - id: mystery
    metric: moon_phase
    operator: "<="
    threshold: 4
metrics:
  bear_price: 52
`

const thesisTOML = `name = "LYFT: Turnaround"
ticker = "lyft"

[[claims]]
id = "rev_growth"
metric = "latest_revenue_yoy_pct"
operator = ">="
threshold = 10.0
`

func thesisDir(t *testing.T, files map[string]string) (string, *Dir) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeFile(t, dir, name, content)
	}
	return dir, New(&contract.Config{DataDir: dir, ThesesDir: dir})
}

func TestLoadThesisNone(t *testing.T) {
	_, d := thesisDir(t, nil)
	th, warnings, err := d.LoadThesis("UBER")
	require.NoError(t, err)
	assert.Nil(t, th)
	assert.Nil(t, warnings)
}

func TestLoadThesisYAML(t *testing.T) {
	_, d := thesisDir(t, map[string]string{"UBER_thesis.yaml": thesisYAML})

	th, warnings, err := d.LoadThesis("uber")
	require.NoError(t, err)
	require.NotNil(t, th)

	assert.Equal(t, "UBER", th.Ticker, "ticker defaults to the requested one")
	assert.Equal(t, "UBER: Cash machine", th.Name)
	require.Len(t, th.Claims, 2)
	assert.Equal(t, schema.OpGT, th.Claims[0].Operator)
	assert.InDelta(t, 3, th.Claims[0].Weight, 1e-9)
	assert.InDelta(t, 1, th.Claims[1].EffectiveWeight(), 1e-9)
	assert.InDelta(t, 52, th.Metrics[schema.KeyBearPrice], 1e-9)
	assert.Equal(t, []string{`claim "mystery" references unknown metric "moon_phase"`}, warnings)
}

func TestLoadThesisTOML(t *testing.T) {
	_, d := thesisDir(t, map[string]string{"LYFT_thesis.toml": thesisTOML})

	th, warnings, err := d.LoadThesis("LYFT")
	require.NoError(t, err)
	require.NotNil(t, th)
	assert.Equal(t, "LYFT", th.Ticker)
	assert.Empty(t, warnings)
	require.Len(t, th.Claims, 1)
	assert.InDelta(t, 10, *th.Claims[0].Threshold, 1e-9)
}

func TestLoadThesisPrefersYAML(t *testing.T) {
	dir, d := thesisDir(t, map[string]string{
		"UBER_thesis.json": `{"name":"from json","claims":[]}`,
		"UBER_thesis.yml":  "name: from yml\nclaims: []\n",
	})
	assert.Equal(t, filepath.Join(dir, "UBER_thesis.yml"), FindThesis(dir, "uber"))

	th, _, err := d.LoadThesis("UBER")
	require.NoError(t, err)
	assert.Equal(t, "from yml", th.Name)
}

func TestLoadThesisExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ticker":"uber","claims":[{"id":"a","metric":"fcf_yield_pct","operator":">=","threshold":3}]}`), 0o644))

	d := New(&contract.Config{ThesesDir: t.TempDir(), ThesisPath: path})
	th, _, err := d.LoadThesis("UBER")
	require.NoError(t, err)
	assert.Equal(t, "UBER: Thesis", th.Name)
	assert.Equal(t, schema.OpGE, th.Claims[0].Operator)

	missing := New(&contract.Config{ThesisPath: filepath.Join(dir, "nope.yaml")})
	_, _, err = missing.LoadThesis("UBER")
	assert.ErrorIs(t, err, contract.ErrThesisNotFound)
}

func TestLoadThesisInvalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"bad operator", "UBER_thesis.yaml", "claims:\n  - id: a\n    metric: fcf_ttm\n    operator: '!='\n    threshold: 1\n", "invalid thesis"},
		{"duplicate id", "UBER_thesis.yaml", "claims:\n  - {id: a, metric: fcf_ttm, operator: '>', threshold: 1}\n  - {id: a, metric: fcf_ttm, operator: '<', threshold: 1}\n", "duplicate claim id"},
		{"negative weight", "UBER_thesis.yaml", "claims:\n  - {id: a, metric: fcf_ttm, operator: '>', threshold: 1, weight: -2}\n", "invalid thesis"},
		{"unknown json field", "UBER_thesis.json", `{"claims":[],"extra":true}`, "failed to decode JSON thesis"},
		{"broken toml", "UBER_thesis.toml", "claims = [", "failed to decode TOML thesis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, d := thesisDir(t, map[string]string{tt.file: tt.content})
			_, _, err := d.LoadThesis("UBER")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestThesisPath(t *testing.T) {
	assert.Equal(t, filepath.Join("theses", "UBER_thesis.yaml"), ThesisPath("theses", " uber ", ".yaml"))
}
