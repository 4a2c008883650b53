package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/fundscore/schema"
)

// writeJSONMetrics writes the metrics definitions in JSON format.
func writeJSONMetrics(w io.Writer, renderModel *schema.MetricsRenderModel) error {
	return writeJSON(w, renderModel)
}

// writeCSVMetrics writes one row per scoring leg.
func writeCSVMetrics(w *csv.Writer, renderModel *schema.MetricsRenderModel) error {
	header := []string{"Bucket", "Max", "Metric", "Tiers", "Flag"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, b := range renderModel.Buckets {
		for _, leg := range b.Legs {
			record := []string{
				b.Name,
				strconv.Itoa(b.Max),
				string(leg.Metric),
				formatTiers(leg.Tiers),
				leg.Flag,
			}
			if err := w.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	return nil
}

// formatTiers renders a threshold table as "when:points" pairs.
func formatTiers(tiers []schema.Tier) string {
	parts := make([]string, 0, len(tiers))
	for _, t := range tiers {
		parts = append(parts, fmt.Sprintf("%s:%+d", t.When, t.Points))
	}
	return strings.Join(parts, " | ")
}
