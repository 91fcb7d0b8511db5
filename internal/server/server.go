// Package server exposes chart calculation over an HTTP JSON API
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ngmaloney/natal-terminal/internal/chart"
	"github.com/ngmaloney/natal-terminal/internal/ephemeris"
	"github.com/ngmaloney/natal-terminal/internal/houses"
	"github.com/ngmaloney/natal-terminal/internal/instrumentation"
	"github.com/ngmaloney/natal-terminal/internal/profiles"
)

// Options wires a Server. Calculator and Provider are required.
type Options struct {
	Calculator     *chart.Calculator
	Provider       ephemeris.Provider
	DefaultSystem  houses.System
	RequestTimeout time.Duration
	Logger         *zap.Logger
	// Metrics and Gatherer enable request metrics and /metrics
	Metrics  *instrumentation.Metrics
	Gatherer prometheus.Gatherer
	// Profiles enables the /v1/profiles routes
	Profiles *profiles.Service
}

// Server handles the HTTP API
type Server struct {
	calc          *chart.Calculator
	provider      ephemeris.Provider
	defaultSystem houses.System
	timeout       time.Duration
	logger        *zap.Logger
	metrics       *instrumentation.Metrics
	gatherer      prometheus.Gatherer
	profiles      *profiles.Service
}

// New creates a server from opts
func New(opts Options) (*Server, error) {
	if opts.Calculator == nil || opts.Provider == nil {
		return nil, errors.New("server needs a calculator and an ephemeris provider")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	return &Server{
		calc:          opts.Calculator,
		provider:      opts.Provider,
		defaultSystem: opts.DefaultSystem,
		timeout:       opts.RequestTimeout,
		logger:        opts.Logger.Named("http"),
		metrics:       opts.Metrics,
		gatherer:      opts.Gatherer,
		profiles:      opts.Profiles,
	}, nil
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(s.logger, s.metrics))
	r.Use(TimeoutMiddleware(s.timeout))

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/chart", s.handleChart)
		r.Get("/ephemeris", s.handleEphemeris)
		if s.profiles != nil {
			r.Get("/profiles", s.handleListProfiles)
			r.Get("/profiles/{name}/chart", s.handleProfileChart)
		}
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.timeout + 5*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server_listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutdown_signal_received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server_stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
