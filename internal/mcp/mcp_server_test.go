package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/fundscore/internal/contract"
	mcp_internal "github.com/huangsam/fundscore/internal/mcp"
	"github.com/huangsam/fundscore/internal/loader"
	"github.com/huangsam/fundscore/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quarterlyCSV = "ticker,period_end,revenue,operating_cash_flow,capital_expenditure,cash,debt\n" +
	"UBER,2024-12-31,11960000000,1750000000,-60000000,6400000000,9500000000\n" +
	"UBER,2025-03-31,11530000000,2330000000,-70000000,6600000000,9600000000\n" +
	"UBER,2025-06-30,12650000000,2470000000,-110000000,7000000000,9800000000\n" +
	"UBER,2025-09-30,13470000000,2330000000,-150000000,7200000000,9900000000\n"

func newTestServer(t *testing.T) *server.MCPServer {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, loader.QuarterlyFile), []byte(quarterlyCSV), 0o644))

	baseCfg := &contract.Config{
		DataDir:        dir,
		ThesesDir:      filepath.Join(dir, "theses"),
		ResultLimit:    contract.DefaultResultLimit,
		NewsWindowDays: contract.DefaultNewsWindowDays,
		SupportPolicy:  schema.SupportDecided,
		AsOf:           time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		RatingBands:    schema.DefaultRatingBands,
		DCF:            schema.DefaultDCFConfig(),
	}
	// No cache manager: nothing is cached or recorded.
	return mcp_internal.NewMCPServer(baseCfg, nil)
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	return res
}

func resultText(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"score_ticker missing ticker", "score_ticker", map[string]any{"ticker": "  "}, "ticker is required"},
		{"evaluate_thesis bad as_of", "evaluate_thesis", map[string]any{"ticker": "UBER", "as_of": "01/10/2026"}, "invalid as_of date"},
		{"rank_evidence bad tag", "rank_evidence", map[string]any{"ticker": "UBER", "tag": "weather"}, "invalid risk tag"},
		{"rank_evidence negative limit", "rank_evidence", map[string]any{"ticker": "UBER", "limit": -1.0}, "limit must be greater than 0"},
		{"news_signals missing ticker", "news_signals", map[string]any{}, "ticker is required"},
		{"ticker_alerts unknown ticker", "ticker_alerts", map[string]any{"ticker": "ZZZZ"}, "ticker not found"},
		{"evaluate_thesis without thesis", "evaluate_thesis", map[string]any{"ticker": "UBER"}, "thesis not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, s, tt.tool, tt.args)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, resultText(res), tt.want)
		})
	}
}

func TestMCPServerHandlers_Success(t *testing.T) {
	s := newTestServer(t)

	t.Run("score_ticker", func(t *testing.T) {
		res := callTool(t, s, "score_ticker", map[string]any{"ticker": "uber", "peers": "lyft, "})
		require.False(t, res.IsError, resultText(res))

		var got schema.ScoreResult
		require.NoError(t, json.Unmarshal([]byte(resultText(res)), &got))
		assert.Equal(t, "UBER", got.Ticker)
		assert.Equal(t, "2026-01-10", got.AsOf)
		assert.GreaterOrEqual(t, got.Score, 0)
		assert.LessOrEqual(t, got.Score, 100)
	})

	t.Run("score_ticker as_of override", func(t *testing.T) {
		res := callTool(t, s, "score_ticker", map[string]any{"ticker": "UBER", "as_of": "2025-12-31"})
		require.False(t, res.IsError, resultText(res))
		assert.Contains(t, resultText(res), `"as_of": "2025-12-31"`)
	})

	t.Run("rank_evidence without news", func(t *testing.T) {
		res := callTool(t, s, "rank_evidence", map[string]any{"ticker": "UBER", "tag": "labor", "limit": 3.0})
		require.False(t, res.IsError, resultText(res))

		var got schema.Evidence
		require.NoError(t, json.Unmarshal([]byte(resultText(res)), &got))
		assert.Equal(t, schema.TagLabor, got.Tag)
		assert.Empty(t, got.Bull)
		assert.Empty(t, got.Bear)
	})

	t.Run("ticker_alerts", func(t *testing.T) {
		res := callTool(t, s, "ticker_alerts", map[string]any{"ticker": "UBER"})
		require.False(t, res.IsError, resultText(res))
		assert.Contains(t, resultText(res), `"ticker": "UBER"`)
	})

	t.Run("scoring_definitions", func(t *testing.T) {
		res := callTool(t, s, "scoring_definitions", nil)
		require.False(t, res.IsError)
		assert.NotEmpty(t, resultText(res))
	})
}
