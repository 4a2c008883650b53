package cmd

import (
	"os/signal"
	"syscall"

	"github.com/huangsam/fundscore/internal/httpapi"
	"github.com/spf13/cobra"
)

// serveCmd starts the JSON HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve scores, theses and news signals over HTTP",
	Long: `Start a JSON API over the data directory.

Endpoints:
  GET /health
  GET /v1/definitions
  GET /v1/scores
  GET /v1/news/proxy
  GET /v1/news/dashboard
  GET /v1/tickers/{ticker}/score|thesis|evidence|signals|alerts|report

Ticker endpoints accept as_of, peers, tag and limit query parameters.
The server stops gracefully on SIGINT or SIGTERM.

Examples:
  fundscore serve --addr 127.0.0.1:8080
  curl localhost:8080/v1/tickers/UBER/score?peers=LYFT`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return httpapi.NewServer(cfg, cacheManager).ListenAndServe(ctx, cfg.Addr)
	},
}
