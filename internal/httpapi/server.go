// Package httpapi serves scores, theses, evidence and news signals as JSON over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/internal/loader"
	"golang.org/x/time/rate"
)

const (
	// DefaultRequestTimeout bounds how long one request may spend loading and scoring.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultRateLimit is the sustained requests per second the server accepts.
	DefaultRateLimit = 20

	shutdownTimeout = 10 * time.Second
)

// SourceFunc opens the data directory a request reads from.
type SourceFunc func(cfg *contract.Config) contract.ReportSource

// Server holds the dependencies shared by every handler.
type Server struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
	open    SourceFunc
	limiter *rate.Limiter
	timeout time.Duration
	log     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithSource replaces the on-disk data directory.
func WithSource(open SourceFunc) Option {
	return func(s *Server) {
		s.open = open
	}
}

// WithRateLimit sets the sustained requests per second. Zero disables limiting.
func WithRateLimit(rps float64) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// NewServer creates a Server over baseCfg. mgr may be nil.
func NewServer(baseCfg *contract.Config, mgr contract.CacheManager, opts ...Option) *Server {
	s := &Server{
		baseCfg: baseCfg,
		mgr:     mgr,
		open:    func(cfg *contract.Config) contract.ReportSource { return loader.New(cfg) },
		limiter: rate.NewLimiter(DefaultRateLimit, DefaultRateLimit*2),
		timeout: DefaultRequestTimeout,
		log:     contract.NewLogger("http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.rateLimit)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/definitions", s.handleDefinitions)
		r.Get("/scores", s.handleUniverse)
		r.Get("/news/proxy", s.handleProxy)
		r.Get("/news/dashboard", s.handleDashboard)
		r.Route("/tickers/{ticker}", func(r chi.Router) {
			r.Get("/score", s.handleScore)
			r.Get("/thesis", s.handleThesis)
			r.Get("/evidence", s.handleEvidence)
			r.Get("/signals", s.handleSignals)
			r.Get("/alerts", s.handleAlerts)
			r.Get("/report", s.handleReport)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      s.timeout + 5*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api server starting", slog.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs), errors.Is(err, errBadRequest), errors.Is(err, contract.ErrTickerRequired):
		return http.StatusBadRequest
	case errors.Is(err, contract.ErrTickerNotFound), errors.Is(err, contract.ErrThesisNotFound):
		return http.StatusNotFound
	case errors.Is(err, contract.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error. Server errors are logged, client errors are not.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Warn("request failed", slog.String("path", r.URL.Path), slog.Any("err", err))
	}
	writeJSON(w, status, errorResponse{Error: strings.TrimSpace(err.Error())})
}
