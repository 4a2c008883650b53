package cmd

import (
	"github.com/huangsam/fundscore/core"
	"github.com/huangsam/fundscore/internal/contract"
	"github.com/spf13/cobra"
)

// metricsCmd displays the scoring thresholds and rating bands.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display the scoring buckets, thresholds and rating bands",
	Long: `Show how every bucket turns a metric into points, and how the total maps to a rating.

Provides complete transparency into the score, including:
- The metric each bucket reads
- The threshold steps and the points they award
- The bucket caps
- Custom rating bands if configured via .fundscore.yaml

No data is read - this is purely informational.

Examples:
  # Show the default thresholds
  fundscore metrics

  # View with custom rating bands from config file
  fundscore metrics --config .fundscore.yaml`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMetrics(rootCtx, cfg, nil, cacheManager); err != nil {
			contract.LogFatal("Cannot display metrics", err)
		}
	},
}
