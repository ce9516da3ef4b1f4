// Package server exposes the admin HTTP API: running chains, cancellation,
// health and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/status-im/proxy-chain/jwt"
	"github.com/status-im/proxy-chain/manager"
)

type Server struct {
	manager       manager.IManager
	handlers      *Handlers
	mux           *http.ServeMux
	httpServer    *http.Server
	mu            sync.Mutex
	signer        *jwt.Signer
	gatherer      prometheus.Gatherer
	enableMetrics bool
	metricsPath   string
}

type Option func(*Server)

func WithMetrics(enable bool) Option {
	return func(s *Server) {
		s.enableMetrics = enable
	}
}

func WithMetricsPath(path string) Option {
	return func(s *Server) {
		s.metricsPath = path
	}
}

// WithGatherer serves metrics from g instead of the default registry
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithTokenSigner enables /auth/verify for tokens issued by signer
func WithTokenSigner(signer *jwt.Signer) Option {
	return func(s *Server) {
		s.signer = signer
	}
}

func New(m manager.IManager, opts ...Option) (*Server, error) {
	if m == nil {
		return nil, errors.New("manager is required")
	}

	s := &Server{
		manager:       m,
		enableMetrics: true,
		metricsPath:   "/metrics",
	}

	for _, opt := range opts {
		opt(s)
	}

	s.handlers = NewHandlers(s.manager, s.signer)
	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	s.mux = http.NewServeMux()

	s.mux.HandleFunc("/chains", s.handlers.ChainsHandler)
	s.mux.HandleFunc("/chains/cancel", s.handlers.CancelHandler)
	s.mux.HandleFunc("/healthz", s.handlers.HealthHandler)

	if s.signer != nil {
		s.mux.HandleFunc("/auth/verify", s.handlers.VerifyHandler)
	}

	if s.enableMetrics {
		if s.gatherer != nil {
			s.mux.Handle(s.metricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
		} else {
			s.mux.Handle(s.metricsPath, promhttp.Handler())
		}
	}
}

// ListenAndServe blocks until the server stops. A server stopped through
// Shutdown returns nil.
func (s *Server) ListenAndServe(addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = httpServer
	s.mu.Unlock()

	slog.Info("admin server starting", "addr", addr)
	if s.enableMetrics {
		slog.Info("metrics available", "path", s.metricsPath)
	}

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()

	if httpServer == nil {
		return nil
	}
	return httpServer.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler returns the http.Handler for the server
// Useful for integrating with other HTTP servers or routers
func (s *Server) Handler() http.Handler {
	return s.mux
}
