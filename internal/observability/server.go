// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

// Package observability serves Prometheus metrics and health probes for a
// LetMeIn deployment.
package observability

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

const (
	defaultCheckTimeout  = 2 * time.Second
	defaultShutdownGrace = 5 * time.Second
)

// StoreCheck reports whether the account store can serve lookups.
type StoreCheck func(ctx context.Context) error

// Registrar adds collectors to the server's registry.
type Registrar func(prometheus.Registerer)

// Metrics are the service-level collectors. Engine metrics live in the auth
// package and are added with WithRegistrars.
type Metrics struct {
	BuildInfo         *prometheus.GaugeVec
	StoreUp           prometheus.Gauge
	StoreCheckFailure prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BuildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "letmein_build_info",
			Help: "Build information, always 1",
		}, []string{"version"}),
		StoreUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "letmein_store_up",
			Help: "Whether the last account store check succeeded (1) or failed (0)",
		}),
		StoreCheckFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "letmein_store_check_failures_total",
			Help: "Readiness probes that found the account store unavailable",
		}),
	}
	reg.MustRegister(m.BuildInfo, m.StoreUp, m.StoreCheckFailure)
	return m
}

// Option configures a Server.
type Option func(*Server)

// WithStoreCheck gates readiness on check. Each probe gets at most timeout.
func WithStoreCheck(check StoreCheck, timeout time.Duration) Option {
	return func(s *Server) {
		s.storeCheck = check
		if timeout > 0 {
			s.checkTimeout = timeout
		}
	}
}

// WithRegistrars registers extra collectors on the server's registry.
func WithRegistrars(registrars ...Registrar) Option {
	return func(s *Server) {
		s.registrars = append(s.registrars, registrars...)
	}
}

// WithBuildVersion sets the letmein_build_info version label.
func WithBuildVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// WithShutdownGrace bounds how long Serve waits for in-flight requests.
func WithShutdownGrace(d time.Duration) Option {
	return func(s *Server) { s.shutdownGrace = d }
}

// Server exposes /metrics, /healthz/liveness and /healthz/readiness.
type Server struct {
	addr          string
	registry      *prometheus.Registry
	metrics       *Metrics
	storeCheck    StoreCheck
	checkTimeout  time.Duration
	shutdownGrace time.Duration
	registrars    []Registrar
	version       string

	mu       sync.Mutex
	listener net.Listener
}

// NewServer builds a server for addr ("host:port"; port 0 picks a free one).
func NewServer(addr string, opts ...Option) *Server {
	s := &Server{
		addr:          addr,
		registry:      prometheus.NewRegistry(),
		checkTimeout:  defaultCheckTimeout,
		shutdownGrace: defaultShutdownGrace,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.metrics = newMetrics(s.registry)
	for _, register := range s.registrars {
		register(s.registry)
	}
	if s.version != "" {
		s.metrics.BuildInfo.WithLabelValues(s.version).Set(1)
	}
	return s
}

// Registry returns the server's private Prometheus registry.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Metrics returns the service-level collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the HTTP routes without binding a socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	mux.HandleFunc("/healthz/liveness", s.handleLiveness)
	mux.HandleFunc("/healthz/readiness", s.handleReadiness)
	return mux
}

// Listen binds the listen address. Call it before Serve.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return oops.Code("METRICS_ALREADY_LISTENING").With("addr", s.listener.Addr().String()).Errorf("metrics server already listening")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return oops.Code("METRICS_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or "" before Listen.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve handles requests until ctx ends, then drains in-flight requests for up
// to the shutdown grace period. A cancelled ctx is a clean stop.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return oops.Code("METRICS_NOT_LISTENING").Errorf("Listen must be called before Serve")
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()
	slog.Info("metrics server started", "addr", ln.Addr().String())

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return oops.Code("METRICS_SERVE_FAILED").With("addr", ln.Addr().String()).Wrap(err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("METRICS_SHUTDOWN_FAILED").Wrap(err)
	}
	<-serveErr
	slog.Info("metrics server stopped")
	return nil
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeProbe(w, http.StatusOK, "ok")
}

// handleReadiness runs the store check and mirrors its result in
// letmein_store_up. Without a check the server is always ready.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.storeCheck == nil {
		s.metrics.StoreUp.Set(1)
		writeProbe(w, http.StatusOK, "ok")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.checkTimeout)
	defer cancel()
	if err := s.storeCheck(ctx); err != nil {
		slog.Warn("account store not ready", "error", err)
		s.metrics.StoreUp.Set(0)
		s.metrics.StoreCheckFailure.Inc()
		writeProbe(w, http.StatusServiceUnavailable, "account store unavailable")
		return
	}
	s.metrics.StoreUp.Set(1)
	writeProbe(w, http.StatusOK, "ok")
}

func writeProbe(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // client may have gone away
	w.Write([]byte(body + "\n"))
}
