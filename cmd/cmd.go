// Package cmd defines the command-line interface for fundscore.
package cmd

import (
	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(thesisCmd)
	rootCmd.AddCommand(evidenceCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(alertsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(analysisCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(serveCmd)

	// Add the thesis subcommands to the parent thesis command
	thesisCmd.AddCommand(thesisEvalCmd)
	thesisCmd.AddCommand(thesisNewCmd)
	thesisCmd.AddCommand(thesisCompileCmd)

	// Add the news subcommands to the parent news command
	newsCmd.AddCommand(newsTagCmd)
	newsCmd.AddCommand(newsProxyCmd)
	newsCmd.AddCommand(newsDashboardCmd)
	newsCmd.AddCommand(newsSignalsCmd)
	newsCmd.AddCommand(newsFetchCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the analysis subcommands to the parent analysis command
	analysisCmd.AddCommand(analysisClearCmd)
	analysisCmd.AddCommand(analysisStatusCmd)
	analysisCmd.AddCommand(analysisExportCmd)
	analysisCmd.AddCommand(analysisMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("peers", "", "Comma-separated peer tickers for percentile ranks")
	rootCmd.PersistentFlags().String("data-dir", contract.DefaultDataDir, "Directory holding the CSV tables")
	rootCmd.PersistentFlags().String("theses-dir", contract.DefaultThesesDir, "Directory holding <TICKER>_thesis files")
	rootCmd.PersistentFlags().String("thesis", "", "Explicit thesis file path")
	rootCmd.PersistentFlags().String("out-dir", contract.DefaultOutDir, "Directory the report memos are written to")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or markdown or html or docx or pdf or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("support-policy", string(schema.SupportDecided), "Thesis support denominator: decided or all")
	rootCmd.PersistentFlags().String("as-of", "", "As-of date in YYYY-MM-DD (default today UTC)")
	rootCmd.PersistentFlags().Int("news-window-days", contract.DefaultNewsWindowDays, "News lookback window in days")
	rootCmd.PersistentFlags().Int("evidence-max-rows", contract.DefaultEvidenceMaxRows, "Maximum rows in the evidence pack")
	rootCmd.PersistentFlags().String("tag", "", "Risk tag filter: LABOR, INSURANCE, REGULATORY, SAFETY, COMPETITION, MACRO, FINANCIAL, OTHER")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("analysis-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("analysis-db-connect", "", "Database connection string for run history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of scoreCmd to Viper
	scoreCmd.Flags().Bool("all", false, "Score every ticker in the fundamentals table")
	scoreCmd.Flags().Bool("explain", false, "Print the bucket breakdown for each ticker")
	if err := viper.BindPFlags(scoreCmd.Flags()); err != nil {
		contract.LogFatal("Error binding score flags", err)
	}

	// Bind all persistent flags of thesisCmd to Viper
	thesisCmd.PersistentFlags().String("text", "", "Free-text thesis used for the name and compiled claims")
	if err := viper.BindPFlags(thesisCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding thesis flags", err)
	}

	// Bind all flags of reportCmd to Viper
	reportCmd.Flags().String("formats", string(schema.FormatMarkdown), "Comma-separated memo formats: md, html, docx, pdf")
	if err := viper.BindPFlags(reportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding report flags", err)
	}

	// Bind all flags of newsFetchCmd to Viper
	newsFetchCmd.Flags().String("sec-user-agent", "", "User-Agent for SEC EDGAR requests, e.g. 'Name email@example.com'")
	newsFetchCmd.Flags().String("feeds", "", "Comma-separated RSS feeds as TICKER=URL")
	newsFetchCmd.Flags().String("http-timeout", contract.DefaultHTTPTimeout.String(), "Timeout per HTTP request")
	if err := viper.BindPFlags(newsFetchCmd.Flags()); err != nil {
		contract.LogFatal("Error binding news fetch flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("addr", contract.DefaultAddr, "Address the HTTP API listens on")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of analysisMigrateCmd to Viper
	analysisMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(analysisMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analysis migrate flags", err)
	}
}
