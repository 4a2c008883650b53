package cmd

import (
	"github.com/huangsam/fundscore/core"
	"github.com/spf13/cobra"
)

// thesisCmd groups thesis evaluation and authoring.
var thesisCmd = &cobra.Command{
	Use:   "thesis",
	Short: "Evaluate or write an investment thesis",
	Long: `A thesis is a list of numeric claims about a ticker's metrics, stored as
theses/<TICKER>_thesis.yaml (or .yml, .json, .toml).

Subcommands:
  eval    - Check every claim against the latest metrics
  new     - Write the starter thesis for a ticker
  compile - Build a thesis from free text using keyword triggers`,
}

// thesisEvalCmd prints the claim checklist.
var thesisEvalCmd = &cobra.Command{
	Use:   "eval [ticker]",
	Short: "Check thesis claims and print the support percentage",
	Long: `Evaluate each claim as PASS, FAIL or UNKNOWN and report the weighted support.

With --support-policy decided (default) UNKNOWN claims are left out of the
denominator. With --support-policy all they count against support.

Examples:
  fundscore thesis eval UBER
  fundscore thesis eval UBER --thesis my_theses/uber.toml --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor(core.ExecuteThesisEval, "Cannot evaluate thesis"),
}

// thesisNewCmd writes the starter thesis.
var thesisNewCmd = &cobra.Command{
	Use:   "new [ticker]",
	Short: "Write the starter thesis for a ticker",
	Long: `Write the eight-claim starter thesis covering growth, cash flow,
valuation, news shock and the core risk tags. An existing file is never overwritten.

Examples:
  fundscore thesis new UBER
  fundscore thesis new UBER --text "Mobility network compounding FCF" --thesis theses/UBER_thesis.toml`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor(core.ExecuteThesisNew, "Cannot write thesis"),
}

// thesisCompileCmd turns free text into claims.
var thesisCompileCmd = &cobra.Command{
	Use:   "compile [ticker]",
	Short: "Compile a thesis from free text",
	Long: `Start from the core claims and add risk claims when the text mentions
labor, regulation, insurance or EV themes.

Examples:
  fundscore thesis compile UBER --text "Regulation and driver strikes are the key risks"`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor(core.ExecuteThesisCompile, "Cannot compile thesis"),
}
