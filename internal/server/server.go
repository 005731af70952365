// Package server exposes the dashboard and advisory chat over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/KaramelBytes/bizdata-cli/internal/advisor"
	"github.com/KaramelBytes/bizdata-cli/internal/ai"
	"github.com/KaramelBytes/bizdata-cli/internal/analysis"
	"github.com/KaramelBytes/bizdata-cli/internal/dataset"
	"github.com/KaramelBytes/bizdata-cli/internal/logging"
)

// Config tunes the HTTP API.
type Config struct {
	// MaxUploadBytes caps multipart uploads.
	MaxUploadBytes int64
	// ChatRate and ChatBurst bound advisory calls per dataset.
	ChatRate  float64
	ChatBurst int
	Analysis  analysis.Options
	Advisor   advisor.Options
	Load      dataset.LoadOptions
}

// DefaultConfig mirrors the config defaults.
func DefaultConfig() Config {
	return Config{
		MaxUploadBytes: 20 << 20,
		ChatRate:       1,
		ChatBurst:      5,
		Analysis:       analysis.DefaultOptions(),
		Advisor:        advisor.DefaultOptions(),
	}
}

// Server holds uploaded datasets and serves the API.
type Server struct {
	cfg      Config
	rt       ai.Runtime
	logger   *slog.Logger
	store    *store
	metrics  *metrics
	registry *prometheus.Registry
	validate *validator.Validate
}

// New builds a server that answers chat questions with rt.
func New(cfg Config, rt ai.Runtime, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	d := DefaultConfig()
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = d.MaxUploadBytes
	}
	if cfg.ChatRate <= 0 {
		cfg.ChatRate = d.ChatRate
	}
	if cfg.ChatBurst <= 0 {
		cfg.ChatBurst = d.ChatBurst
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &Server{
		cfg:      cfg,
		rt:       rt,
		logger:   logger.With(slog.String("component", "server")),
		store:    newStore(),
		metrics:  newMetrics(reg),
		registry: reg,
		validate: validator.New(),
	}
}

// Router wires routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api/datasets", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleUpload)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Get("/rows", s.handleRows)
			r.Get("/report", s.handleReport)
			r.Post("/clean", s.handleClean)
			r.Get("/messages", s.handleMessages)
			r.Post("/chat", s.handleChat)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger threads chi's request id into the slog context and logs one
// line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))
		s.logger.DebugContext(ctx, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
		)
	})
}

func (s *Server) newEntry(res *analysis.Result) *entry {
	sess := advisor.NewSession(s.rt, res, s.cfg.Advisor, s.logger)
	return &entry{
		ID:       sess.ID,
		Uploaded: time.Now().UTC(),
		Session:  sess,
		Limiter:  rate.NewLimiter(rate.Limit(s.cfg.ChatRate), s.cfg.ChatBurst),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{"status": "ok", "datasets": s.store.len()})
}
