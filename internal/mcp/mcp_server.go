// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/internal/loader"
	"github.com/huangsam/fundscore/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SourceFunc opens the data directory a tool call reads from.
type SourceFunc func(cfg *contract.Config) contract.ReportSource

// defaultSource reads CSV tables and theses from local disk.
func defaultSource(cfg *contract.Config) contract.ReportSource {
	return loader.New(cfg)
}

// tagNames lists the risk tags accepted by the evidence tool.
func tagNames() []string {
	names := make([]string, 0, len(schema.AllRiskTags))
	for _, t := range schema.AllRiskTags {
		names = append(names, string(t))
	}
	return names
}

// NewMCPServer initializes and configures the Fundscore MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	return newServer(baseCfg, mgr, defaultSource)
}

func newServer(baseCfg *contract.Config, mgr contract.CacheManager, open SourceFunc) *server.MCPServer {
	s := server.NewMCPServer(
		"Fundscore Analysis Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		open:    open,
		log:     contract.NewLogger("mcp"),
	}

	tickerArg := mcp.WithString("ticker", mcp.Description("Ticker symbol, e.g. UBER."), mcp.Required())
	asOfArg := mcp.WithString("as_of", mcp.Description("As-of date in YYYY-MM-DD form. Defaults to the server's as-of date."))

	// --- 1. Tool: score_ticker ---
	s.AddTool(mcp.NewTool("score_ticker",
		mcp.WithDescription("Score a ticker from 0 to 100 across cash, valuation, growth, quality and balance risk buckets."),
		tickerArg,
		mcp.WithString("peers", mcp.Description("Comma separated peer tickers for percentile ranks.")),
		asOfArg,
	), h.handleScoreTicker)

	// --- 2. Tool: evaluate_thesis ---
	s.AddTool(mcp.NewTool("evaluate_thesis",
		mcp.WithDescription("Evaluate the ticker's investment thesis claims against its latest metrics."),
		tickerArg,
		asOfArg,
	), h.handleEvaluateThesis)

	// --- 3. Tool: rank_evidence ---
	s.AddTool(mcp.NewTool("rank_evidence",
		mcp.WithDescription("Rank the ticker's recent headlines into bull and bear evidence lists."),
		tickerArg,
		mcp.WithString("tag", mcp.Description("Only rank headlines with this risk tag."), mcp.Enum(tagNames()...)),
		mcp.WithNumber("limit", mcp.Description("Maximum headlines per list.")),
		asOfArg,
	), h.handleRankEvidence)

	// --- 4. Tool: news_signals ---
	s.AddTool(mcp.NewTool("news_signals",
		mcp.WithDescription("Compute tactical, institutional and hybrid news signals for a ticker."),
		tickerArg,
		asOfArg,
	), h.handleNewsSignals)

	// --- 5. Tool: ticker_alerts ---
	s.AddTool(mcp.NewTool("ticker_alerts",
		mcp.WithDescription("Check the thesis-breaker red lines for a ticker."),
		tickerArg,
	), h.handleTickerAlerts)

	// --- 6. Tool: build_report ---
	s.AddTool(mcp.NewTool("build_report",
		mcp.WithDescription("Assemble the full decision report for a ticker without writing memo files."),
		tickerArg,
		asOfArg,
	), h.handleBuildReport)

	// --- 7. Tool: scoring_definitions ---
	s.AddTool(mcp.NewTool("scoring_definitions",
		mcp.WithDescription("List the scoring buckets, thresholds and rating bands."),
	), h.handleScoringDefinitions)

	return s
}

// StartMCPServer starts the Fundscore MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
