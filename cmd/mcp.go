package cmd

import (
	"github.com/huangsam/fundscore/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Fundscore MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents score tickers, evaluate
theses, rank evidence and read news signals via standard tools.

Logs go to stderr so stdout stays reserved for the protocol.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
