package outwriter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReport(t *testing.T) {
	rep := sampleReport()

	t.Run("text summary", func(t *testing.T) {
		out := captureOutput(t, schema.TextOut, func(cfg *contract.Config) error {
			cfg.Explain = true
			return WriteReport(rep, cfg, time.Second)
		})
		assert.Contains(t, out, "UBER as of 2026-01-10: 78/100")
		assert.Contains(t, out, rep.Verdict)
		assert.Contains(t, out, "Confidence: 70/100, Data completeness: 90/100")
		assert.Contains(t, out, "Thesis: 100.0% support (1 passed, 0 failed)")
		assert.Contains(t, out, "DCF EV: base 180.0B")
		assert.Contains(t, out, "Two regulatory negatives in 7 days")
	})

	t.Run("csv has a row per bucket", func(t *testing.T) {
		records := readCSV(t, captureOutput(t, schema.CSVOut, func(cfg *contract.Config) error {
			return WriteReport(rep, cfg, time.Second)
		}))
		require.Len(t, records, 6)
		assert.Equal(t, []string{"rep-1", "UBER", "2026-01-10", "78", "HOLD", schema.BucketBalanceRisk, "14", "20", "RED"}, records[5][:9])
	})

	t.Run("json", func(t *testing.T) {
		out := captureOutput(t, schema.JSONOut, func(cfg *contract.Config) error {
			return WriteReport(rep, cfg, time.Second)
		})
		var decoded schema.Report
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		assert.Equal(t, "rep-1", decoded.ID)
		require.NotNil(t, decoded.Thesis)
		assert.Len(t, decoded.Alerts, 1)
	})

	t.Run("markdown", func(t *testing.T) {
		out := captureOutput(t, schema.MarkdownOut, func(cfg *contract.Config) error {
			return WriteReport(rep, cfg, time.Second)
		})
		assert.Equal(t, RenderMemo(rep, 1), out)
	})
}

func TestMemoPath(t *testing.T) {
	assert.Equal(t, filepath.Join("reports", "UBER_memo.pdf"), MemoPath("reports", "uber", schema.FormatPDF))
}

func TestWriteMemoFiles(t *testing.T) {
	cfg := testConfig(schema.TextOut)
	cfg.OutDir = filepath.Join(t.TempDir(), "reports")
	cfg.Formats = []schema.ReportFormat{schema.FormatMarkdown, schema.FormatHTML, schema.FormatDOCX, schema.FormatPDF}

	paths, err := WriteMemoFiles(sampleReport(), cfg)
	require.NoError(t, err)
	require.Len(t, paths, 4)

	for i, format := range cfg.Formats {
		assert.Equal(t, MemoPath(cfg.OutDir, "UBER", format), paths[i])
		info, err := os.Stat(paths[i])
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestWriteMemoFilesNoFormats(t *testing.T) {
	cfg := testConfig(schema.TextOut)
	cfg.OutDir = filepath.Join(t.TempDir(), "reports")

	paths, err := WriteMemoFiles(sampleReport(), cfg)
	require.NoError(t, err)
	assert.Empty(t, paths)
	assert.NoDirExists(t, cfg.OutDir)
}
