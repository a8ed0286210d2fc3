// Package server is the HTTP surface served on the reclaimed port: a health
// endpoint reporting the supervisor's components and the Prometheus metrics
// endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Health is the body of GET /healthz.
type Health struct {
	Status   string         `json:"status"`
	Database string         `json:"database"`
	Watchdog WatchdogHealth `json:"watchdog"`
}

// WatchdogHealth describes the parent watchdog in Health.
type WatchdogHealth struct {
	ParentPID  int   `json:"parentPid"`
	IntervalMS int64 `json:"intervalMs"`
	Active     bool  `json:"active"`
}

// HealthFunc builds the current Health. Status "ok" answers 200; anything
// else answers 503.
type HealthFunc func() Health

// Config configures a Server.
type Config struct {
	Gatherer prometheus.Gatherer // nil disables /metrics
	Health   HealthFunc          // nil always reports ok
	Logger   *slog.Logger
}

// Server serves the HTTP endpoints on a listener it is handed.
type Server struct {
	http *http.Server
	log  *slog.Logger
}

// New builds a Server. It does not listen; call Serve.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		http: &http.Server{
			Handler:           Handler(cfg),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		log: log,
	}
}

// Handler returns the routes of a Server built from cfg.
func Handler(cfg Config) http.Handler {
	health := cfg.Health
	if health == nil {
		health = func() Health { return Health{Status: "ok"} }
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		h := health()
		w.Header().Set("Content-Type", "application/json")
		if h.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(h)
	})
	if cfg.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// Serve serves on ln until Shutdown. It returns nil after a Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("http server listening", "addr", ln.Addr().String())
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.http.SetKeepAlivesEnabled(false)
	if err := s.http.Shutdown(ctx); err != nil {
		s.log.Warn("http server shutdown", "err", err)
		return err
	}
	s.log.Info("http server stopped")
	return nil
}
