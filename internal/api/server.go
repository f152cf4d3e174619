// Package api exposes the HTTP interface for the harvester service.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/eurlex-harvester/internal/eurlex"
	"github.com/JakeFAU/eurlex-harvester/internal/logging"
	"github.com/JakeFAU/eurlex-harvester/internal/metrics"
	"github.com/JakeFAU/eurlex-harvester/internal/store"
)

const (
	defaultActLimit = 50
	maxActLimit     = 500
	queryTimeout    = 3 * time.Second
)

// StatsSource produces the harvester's progress snapshot. The scraper
// satisfies it, including mid-run.
type StatsSource interface {
	Stats(ctx context.Context) (eurlex.Stats, error)
}

// Config controls optional server behavior.
type Config struct {
	AuthEnabled bool
	APIKey      string
}

// Server wires HTTP handlers to the scraper, act sink, and run repository.
type Server struct {
	router chi.Router
	stats  StatsSource
	sink   eurlex.Sink
	runs   *RunsHandler
	logger *zap.Logger
	cfg    Config
}

// NewServer constructs a Server with middleware and routes. The run
// repository may be nil; run endpoints then answer 503.
func NewServer(
	stats StatsSource,
	sink eurlex.Sink,
	runs store.RunRepository,
	logger *zap.Logger,
	cfg Config,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		stats:  stats,
		sink:   sink,
		runs:   NewRunsHandler(runs, logger),
		logger: logger,
		cfg:    cfg,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(60 * time.Second))
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		// Probes and scraping stay open; operator endpoints can be keyed.
		if cfg.AuthEnabled {
			r.Use(apiKeyMiddleware(cfg.APIKey))
		}
		r.Get("/stats", s.getStats)
		r.Get("/acts", s.listActs)
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.runs.ListRuns)
			r.Route("/{run_id}", func(r chi.Router) {
				r.Get("/", s.runs.GetRun)
				r.Get("/strategies", s.runs.ListRunStrategies)
			})
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.sink == nil {
		writeError(w, http.StatusServiceUnavailable, "sink unavailable")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()
	if _, err := s.sink.CountActs(ctx); err != nil {
		s.logger.Warn("readiness probe failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "sink not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeError(w, http.StatusServiceUnavailable, "stats unavailable")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()
	stats, err := s.stats.Stats(ctx)
	if err != nil {
		s.logger.Error("stats query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

func (s *Server) listActs(w http.ResponseWriter, r *http.Request) {
	if s.sink == nil {
		writeError(w, http.StatusServiceUnavailable, "sink unavailable")
		return
	}
	limit, _, err := parseLimitOffset(r, defaultActLimit, maxActLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()
	acts, err := s.sink.ListActs(ctx, limit)
	if err != nil {
		s.logger.Error("list acts failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list acts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"acts":  acts,
		"count": len(acts),
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

type requestIDKey struct{}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.L.Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
