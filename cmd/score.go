package cmd

import (
	"github.com/huangsam/fundscore/core"
	"github.com/spf13/cobra"
)

// scoreCmd scores one ticker or the whole universe.
var scoreCmd = &cobra.Command{
	Use:   "score [ticker]",
	Short: "Score a ticker from 0 to 100 and rate it BUY, HOLD or AVOID.",
	Long: `Compute the bucketed fundamentals score for one ticker, or every ticker with --all.

Five capped buckets add up to the total:
- Cash (FCF margin and FCF level)
- Valuation (FCF yield)
- Growth (revenue YoY)
- Quality (FCF and margin stability)
- Balance risk (net debt to FCF)

The total maps to a rating through the configured bands, and red flags
call out the weakest inputs.

Examples:
  # Score one ticker against two peers
  fundscore score UBER --peers LYFT,DASH

  # Show the bucket breakdown
  fundscore score UBER --explain

  # Score the universe and export it for analytics
  fundscore score --all --output parquet --output-file scores.parquet`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor(core.ExecuteScore, "Cannot score"),
}
