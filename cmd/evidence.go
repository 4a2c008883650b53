package cmd

import (
	"github.com/huangsam/fundscore/core"
	"github.com/spf13/cobra"
)

// evidenceCmd ranks headlines for and against the thesis.
var evidenceCmd = &cobra.Command{
	Use:   "evidence [ticker]",
	Short: "Rank recent headlines into bull and bear evidence",
	Long: `Rank the ticker's headlines inside the news window by source trust and impact.

Positive-impact headlines form the bull list and negative-impact headlines the
bear list. With --tag only that risk tag is considered, unless nothing matches.

Examples:
  fundscore evidence UBER
  fundscore evidence UBER --tag regulatory --limit 5`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor(core.ExecuteEvidence, "Cannot rank evidence"),
}

// alertsCmd checks the thesis-breaker red lines.
var alertsCmd = &cobra.Command{
	Use:   "alerts [ticker]",
	Short: "Check thesis-breaker alerts for a ticker",
	Long: `Check slowing revenue, negative FCF, thin margins, headline crises and
risk tag spikes. Each triggered alert carries a severity and a message.

Examples:
  fundscore alerts UBER --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor(core.ExecuteAlerts, "Cannot check alerts"),
}

// reportCmd writes the decision memo.
var reportCmd = &cobra.Command{
	Use:   "report [ticker]",
	Short: "Write the decision memo and print its summary",
	Long: `Assemble the full report for a ticker: score, thesis checklist, evidence,
red flags, scenarios, the DCF appendix, the decision card and alerts.

The memo is written to <out-dir>/<TICKER>_memo.<ext> for each --formats entry.

Examples:
  fundscore report UBER
  fundscore report UBER --formats md,html,pdf --out-dir reports`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor(core.ExecuteReport, "Cannot build report"),
}
