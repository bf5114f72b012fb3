package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ymkfssy/shuangse-sub001/internal/config"
	"github.com/ymkfssy/shuangse-sub001/internal/ingest"
	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
	"github.com/ymkfssy/shuangse-sub001/internal/metrics"
)

// Ingester runs one ingestion pass.
type Ingester interface {
	RunIngestion(ctx context.Context) ingest.Report
}

// Generator produces combinations for a user.
type Generator interface {
	Generate(ctx context.Context, userID string, count int) (lottery.Generation, error)
}

// Pinger reports store readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	History     lottery.HistoryStore
	Generations lottery.GenerationLog
	Ingester    Ingester
	Generator   Generator
	Ready       Pinger
}

// Server wires HTTP handlers to the ingestion and generation services.
type Server struct {
	router chi.Router
	deps   Deps
	cfg    config.Config
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(deps Deps, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		deps:   deps,
		cfg:    cfg,
		logger: logger.Named("api"),
	}

	timeout := time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(timeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.Auth.Enabled {
				r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
			}
			r.Post("/ingestions", s.runIngestion)
		})
		r.Get("/status", s.status)
		r.Get("/draws", s.listDraws)
		r.Get("/draws/{issue}", s.getDraw)
		r.Group(func(r chi.Router) {
			r.Use(userMiddleware)
			r.Post("/generations", s.generate)
			r.Get("/generations", s.listGenerations)
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
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		if err := s.deps.Ready.Ping(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			s.writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
