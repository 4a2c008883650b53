package cmd

import (
	"github.com/huangsam/fundscore/core"
	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/internal/loader"
	"github.com/huangsam/fundscore/internal/newsfeed"
	"github.com/spf13/cobra"
)

// newsCmd groups the news analytics.
var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Tag, summarize and fetch headlines",
	Long: `Work with news_unified.csv in the data directory.

Subcommands:
  tag       - Show headlines with risk tags and impact scores
  proxy     - Compute the 7d and 30d sentiment proxy per ticker
  dashboard - Summarize negative headlines per ticker and risk tag
  signals   - Combine tactical and institutional signals for a ticker
  fetch     - Pull fresh headlines from RSS feeds and SEC EDGAR`,
}

var newsTagCmd = &cobra.Command{
	Use:   "tag [ticker]",
	Short: "Show tagged and scored headlines",
	Long: `Tag every headline with a risk category and an impact score, then drop
duplicates keeping the most trusted source.

Examples:
  fundscore news tag UBER --tag labor`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor(core.ExecuteNewsTag, "Cannot tag news"),
}

var newsProxyCmd = &cobra.Command{
	Use:   "proxy [ticker]",
	Short: "Compute the sentiment proxy per ticker",
	Long: `Compute a 0-100 sentiment proxy from positive and negative headlines over
the 7 and 30 days before the as-of date.

Examples:
  fundscore news proxy --as-of 2026-01-10 --output csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor(core.ExecuteNewsProxy, "Cannot compute sentiment proxy"),
}

var newsDashboardCmd = &cobra.Command{
	Use:   "dashboard [ticker]",
	Short: "Summarize negative headlines per risk tag",
	Long: `Count negative headlines and sum their shock per ticker and risk tag,
with a TOTAL row per ticker.

Examples:
  fundscore news dashboard --output markdown`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor(core.ExecuteNewsDashboard, "Cannot build risk dashboard"),
}

var newsSignalsCmd = &cobra.Command{
	Use:   "signals [ticker]",
	Short: "Compute tactical and hybrid news signals",
	Long: `A tactical alert fires on a severe 7-day shock or a burst of negative
headlines. A tag is confirmed when at least two credible sources report it.
The hybrid signal escalates when both happen.

Examples:
  fundscore news signals UBER --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor(core.ExecuteNewsSignals, "Cannot compute news signals"),
}

var newsFetchCmd = &cobra.Command{
	Use:   "fetch [ticker]",
	Short: "Fetch headlines from RSS feeds and SEC EDGAR",
	Long: `Download recent filings from SEC EDGAR and items from the configured RSS
feeds, then merge them into news_unified.csv. Without a ticker every ticker in
the fundamentals table is fetched.

SEC requests need --sec-user-agent (or FUNDSCORE_SEC_USER_AGENT) and a
sec_ticker_cik.json in the data directory.

Examples:
  fundscore news fetch UBER --sec-user-agent "Jane Doe jane@example.com"
  fundscore news fetch --feeds "UBER=https://news.example.com/uber.rss"`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := newsfeed.ExecuteNewsFetch(rootCtx, cfg, loader.New(cfg), newsfeed.NewFromConfig(cfg)); err != nil {
			contract.LogFatal("Cannot fetch news", err)
		}
	},
}
