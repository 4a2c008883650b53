package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/huangsam/fundscore/core"
	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
)

var errBadRequest = errors.New("bad request")

var validate = validator.New(validator.WithRequiredStructEnabled())

type errorResponse struct {
	Error string `json:"error"`
}

// requestParams are the query and path values shared by the ticker endpoints.
type requestParams struct {
	Ticker string `validate:"omitempty,max=12,printascii,excludesall=/\\ "`
	AsOf   string `validate:"omitempty,datetime=2006-01-02"`
	Peers  string `validate:"omitempty,max=512"`
	Tag    string `validate:"omitempty,oneof=LABOR INSURANCE REGULATORY SAFETY COMPETITION MACRO FINANCIAL OTHER"`
	Limit  int    `validate:"gte=0,lte=1000"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// requestConfig clones the base config and applies the validated request parameters.
func (s *Server) requestConfig(r *http.Request) (*contract.Config, error) {
	q := r.URL.Query()
	p := requestParams{
		Ticker: schema.NormalizeTicker(chi.URLParam(r, "ticker")),
		AsOf:   strings.TrimSpace(q.Get("as_of")),
		Peers:  q.Get("peers"),
		Tag:    strings.ToUpper(strings.TrimSpace(q.Get("tag"))),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: limit must be an integer", errBadRequest)
		}
		p.Limit = n
	}
	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	cfg := s.baseCfg.CloneWithTicker(p.Ticker)
	if p.AsOf != "" {
		asOf, err := time.Parse(contract.DateFormat, p.AsOf)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid as_of date %q", errBadRequest, p.AsOf)
		}
		cfg.AsOf = asOf
	}
	if p.Peers != "" {
		cfg.Peers = nil
		for t := range strings.SplitSeq(p.Peers, ",") {
			if t = schema.NormalizeTicker(t); t != "" {
				cfg.Peers = append(cfg.Peers, t)
			}
		}
	}
	if p.Tag != "" {
		cfg.Tag = schema.RiskTag(p.Tag)
	}
	if p.Limit > 0 {
		cfg.ResultLimit = p.Limit
	}
	return cfg, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDefinitions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, core.ScoringDefinitions(s.baseCfg.RatingBands))
}

func (s *Server) handleUniverse(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	results, err := core.ScoreUniverse(core.WithSuppressHeader(r.Context()), cfg, s.open(cfg), s.mgr)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rows, err := core.SentimentProxyRows(r.Context(), cfg, s.open(cfg))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rows, err := core.RiskDashboard(r.Context(), cfg, s.open(cfg))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := core.ScoreTicker(core.WithSuppressHeader(r.Context()), cfg, s.open(cfg), s.mgr)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleThesis(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rep, err := core.EvaluateTickerThesis(core.WithSuppressHeader(r.Context()), cfg, s.open(cfg), s.mgr)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep.Thesis)
}

func (s *Server) handleEvidence(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ev, err := core.RankTickerEvidence(r.Context(), cfg, s.open(cfg))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sig, err := core.TickerSignals(r.Context(), cfg, s.open(cfg))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sig)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rep, err := core.TickerAlerts(r.Context(), cfg, s.open(cfg))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rep, err := core.BuildTickerReport(core.WithSuppressHeader(r.Context()), cfg, s.open(cfg), s.mgr)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
