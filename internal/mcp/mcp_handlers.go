package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/huangsam/fundscore/core"
	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
	open    SourceFunc
	log     *slog.Logger
}

// tickerConfig clones the base config and applies the arguments every ticker tool shares.
func (h *toolHandler) tickerConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.CloneWithTicker(request.GetString("ticker", ""))
	if cfg.Ticker == "" {
		return nil, contract.ErrTickerRequired
	}
	if s := strings.TrimSpace(request.GetString("as_of", "")); s != "" {
		asOf, err := time.Parse(contract.DateFormat, s)
		if err != nil {
			return nil, fmt.Errorf("invalid as_of date %q, expected YYYY-MM-DD", s)
		}
		cfg.AsOf = asOf
	}
	return cfg, nil
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot encode result: %v", err))
	}
	return mcp.NewToolResultText(string(jsonData))
}

// failed logs a tool failure and returns it as an error result.
func (h *toolHandler) failed(tool, prefix string, err error) *mcp.CallToolResult {
	h.log.Warn("tool failed", "tool", tool, "error", err)
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", prefix, err))
}

func (h *toolHandler) handleScoreTicker(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.tickerConfig(request)
	if err != nil {
		return h.failed("score_ticker", "invalid parameters", err), nil
	}
	if p := request.GetString("peers", ""); p != "" {
		cfg.Peers = nil
		for t := range strings.SplitSeq(p, ",") {
			if t = schema.NormalizeTicker(t); t != "" {
				cfg.Peers = append(cfg.Peers, t)
			}
		}
	}

	res, err := core.ScoreTicker(core.WithSuppressHeader(ctx), cfg, h.open(cfg), h.mgr)
	if err != nil {
		return h.failed("score_ticker", "scoring failed", err), nil
	}
	h.log.Debug("scored ticker", "ticker", res.Ticker, "score", res.Score)
	return jsonResult(res), nil
}

func (h *toolHandler) handleEvaluateThesis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.tickerConfig(request)
	if err != nil {
		return h.failed("evaluate_thesis", "invalid parameters", err), nil
	}

	rep, err := core.EvaluateTickerThesis(core.WithSuppressHeader(ctx), cfg, h.open(cfg), h.mgr)
	if err != nil {
		return h.failed("evaluate_thesis", "thesis evaluation failed", err), nil
	}
	return jsonResult(rep.Thesis), nil
}

func (h *toolHandler) handleRankEvidence(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.tickerConfig(request)
	if err != nil {
		return h.failed("rank_evidence", "invalid parameters", err), nil
	}
	if tag := strings.ToUpper(strings.TrimSpace(request.GetString("tag", ""))); tag != "" {
		if _, ok := schema.ValidRiskTags[schema.RiskTag(tag)]; !ok {
			return h.failed("rank_evidence", "invalid parameters", fmt.Errorf("invalid risk tag '%s'", tag)), nil
		}
		cfg.Tag = schema.RiskTag(tag)
	}
	if l := request.GetInt("limit", 0); l != 0 {
		if l < 0 || l > contract.MaxResultLimit {
			return h.failed("rank_evidence", "invalid parameters",
				fmt.Errorf("limit must be greater than 0 and cannot exceed %d", contract.MaxResultLimit)), nil
		}
		cfg.ResultLimit = l
	}

	ev, err := core.RankTickerEvidence(core.WithSuppressHeader(ctx), cfg, h.open(cfg))
	if err != nil {
		return h.failed("rank_evidence", "evidence ranking failed", err), nil
	}
	return jsonResult(ev), nil
}

func (h *toolHandler) handleNewsSignals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.tickerConfig(request)
	if err != nil {
		return h.failed("news_signals", "invalid parameters", err), nil
	}

	sig, err := core.TickerSignals(core.WithSuppressHeader(ctx), cfg, h.open(cfg))
	if err != nil {
		return h.failed("news_signals", "signal computation failed", err), nil
	}
	return jsonResult(sig), nil
}

func (h *toolHandler) handleTickerAlerts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.tickerConfig(request)
	if err != nil {
		return h.failed("ticker_alerts", "invalid parameters", err), nil
	}

	rep, err := core.TickerAlerts(core.WithSuppressHeader(ctx), cfg, h.open(cfg))
	if err != nil {
		return h.failed("ticker_alerts", "alert check failed", err), nil
	}
	return jsonResult(rep), nil
}

func (h *toolHandler) handleBuildReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.tickerConfig(request)
	if err != nil {
		return h.failed("build_report", "invalid parameters", err), nil
	}

	rep, err := core.BuildTickerReport(core.WithSuppressHeader(ctx), cfg, h.open(cfg), h.mgr)
	if err != nil {
		return h.failed("build_report", "report failed", err), nil
	}
	return jsonResult(rep), nil
}

func (h *toolHandler) handleScoringDefinitions(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(core.ScoringDefinitions(h.baseCfg.RatingBands)), nil
}
