package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
)

// getDisplayNameForBucket returns the display name with emoji for a bucket.
func getDisplayNameForBucket(name string) string {
	switch name {
	case schema.BucketCash:
		return "💵 " + name
	case schema.BucketValuation:
		return "🏷️  " + name
	case schema.BucketGrowth:
		return "📈 " + name
	case schema.BucketQuality:
		return "💎 " + name
	case schema.BucketBalanceRisk:
		return "🛡️  " + name
	default:
		return name
	}
}

// PrintMetricsDefinitions displays the threshold tables of every scoring bucket.
// This is a static display that does not read the data directory.
func PrintMetricsDefinitions(renderModel *schema.MetricsRenderModel, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONMetrics(w, renderModel)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			writer := csv.NewWriter(w)
			defer writer.Flush()
			return writeCSVMetrics(writer, renderModel)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return printMetricsText(w, renderModel)
		}, "Wrote text")
	}
}

// printMetricsText displays metrics in human-readable text format.
func printMetricsText(w io.Writer, renderModel *schema.MetricsRenderModel) error {
	if _, err := fmt.Fprintf(w, "📊 %s\n\n%s\n\n", renderModel.Title, renderModel.Description); err != nil {
		return err
	}

	for _, b := range renderModel.Buckets {
		if _, err := fmt.Fprintf(w, "%s (max %d): %s\n", getDisplayNameForBucket(b.Name), b.Max, b.Purpose); err != nil {
			return err
		}
		if b.Start > 0 {
			if _, err := fmt.Fprintf(w, "   Starts at %d\n", b.Start); err != nil {
				return err
			}
		}
		for _, leg := range b.Legs {
			if _, err := fmt.Fprintf(w, "   %s: %s\n", leg.Metric, formatTiers(leg.Tiers)); err != nil {
				return err
			}
			if leg.Flag != "" {
				if _, err := fmt.Fprintf(w, "      flag: %s\n", leg.Flag); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	r := renderModel.Ratings
	if _, err := fmt.Fprintf(w, "⭐ Ratings: %s >= %d, %s >= %d, otherwise %s\n\n",
		schema.RatingBuy, r.Buy, schema.RatingHold, r.Hold, schema.RatingAvoid); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "📖 Glossary"); err != nil {
		return err
	}
	for _, term := range slices.Sorted(maps.Keys(renderModel.Glossary)) {
		if _, err := fmt.Fprintf(w, "   %s: %s\n", term, renderModel.Glossary[term]); err != nil {
			return err
		}
	}
	return nil
}
