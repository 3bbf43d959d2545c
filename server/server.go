// Package server exposes the board over HTTP: snapshot pulls, delete
// submissions, admin reset, WebSocket notifications, metrics and health.
// Rendering is left entirely to clients; the server only serves state.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/krisvansteen/Dashboards/board"
	"github.com/krisvansteen/Dashboards/component"
	"github.com/krisvansteen/Dashboards/config"
	"github.com/krisvansteen/Dashboards/errors"
	"github.com/krisvansteen/Dashboards/relay"
)

// Deleter is the relay surface the server needs. Satisfied by relay.Relay.
type Deleter interface {
	SubmitDelete(ctx context.Context, intent relay.DeleteIntent) (relay.Ack, error)
}

// HealthReporter aggregates component health for the healthz endpoint.
// Satisfied by component.Manager.
type HealthReporter interface {
	Health() map[string]component.HealthStatus
}

// Server is the HTTP component serving the board API.
type Server struct {
	name   string
	cfg    config.HTTPConfig
	wsPath string

	cache   *board.Cache
	deleter Deleter
	hub     http.Handler
	metrics http.Handler
	health  HealthReporter
	logger  *slog.Logger

	httpServer *http.Server
	listener   net.Listener

	running   atomic.Bool
	startTime time.Time
	mu        sync.Mutex

	requestsTotal atomic.Int64
	errorsTotal   atomic.Int64
}

var _ component.Lifecycle = (*Server)(nil)

// Option configures a Server
type Option func(*Server)

// WithLogger sets the server logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts a handler at /metrics
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithHealthReporter wires component health into /healthz
func WithHealthReporter(hr HealthReporter) Option {
	return func(s *Server) {
		s.health = hr
	}
}

// WithNotifyHandler mounts the WebSocket hub at the given path
func WithNotifyHandler(path string, h http.Handler) Option {
	return func(s *Server) {
		s.wsPath = path
		s.hub = h
	}
}

// NewServer creates the board HTTP server.
func NewServer(cfg config.HTTPConfig, cache *board.Cache, deleter Deleter, opts ...Option) *Server {
	s := &Server{
		name:    "server",
		cfg:     cfg,
		cache:   cache,
		deleter: deleter,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Meta returns component metadata
func (s *Server) Meta() component.Metadata {
	return component.Metadata{
		Name:        s.name,
		Type:        "server",
		Description: "HTTP API for board snapshots, deletes and notifications",
		Version:     "1.0.0",
	}
}

// Health returns the runtime health of the server
func (s *Server) Health() component.HealthStatus {
	s.mu.Lock()
	startTime := s.startTime
	s.mu.Unlock()

	var uptime time.Duration
	if !startTime.IsZero() {
		uptime = time.Since(startTime)
	}

	return component.HealthStatus{
		Healthy:    s.running.Load(),
		LastCheck:  time.Now(),
		ErrorCount: int(s.errorsTotal.Load()),
		Uptime:     uptime,
	}
}

// Initialize validates configuration and builds the route table
func (s *Server) Initialize() error {
	if s.cache == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Server", "Initialize", "cache required")
	}
	if s.deleter == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Server", "Initialize", "relay required")
	}
	if s.cfg.Port <= 0 || s.cfg.Port > 65535 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Server", "Initialize",
			fmt.Sprintf("invalid port %d", s.cfg.Port))
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Start binds the listener and begins serving
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return nil
	}
	if s.httpServer == nil {
		return errors.WrapFatal(errors.ErrNotStarted, "Server", "Start", "initialize first")
	}

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return errors.WrapTransient(err, "Server", "Start", "bind "+s.httpServer.Addr)
	}
	s.listener = listener

	s.running.Store(true)
	s.startTime = time.Now()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server stopped", "error", err)
			s.running.Store(false)
		}
	}()

	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	return nil
}

// Stop shuts the server down gracefully within the timeout
func (s *Server) Stop(timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return nil
	}
	s.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.WrapTransient(err, "Server", "Stop", "graceful shutdown")
	}
	return nil
}

// Addr returns the bound listener address, for tests using port 0
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/snapshot", s.withRole(s.handleSnapshot))
	mux.HandleFunc("/api/delete", s.withRole(s.handleDelete))
	mux.HandleFunc("/api/reset", s.withRole(s.handleReset))
	mux.HandleFunc("/healthz", s.withRole(s.handleHealthz))

	if s.hub != nil {
		mux.Handle(s.wsPath, s.hub)
	}
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}

	return s.middleware(mux)
}

// middleware applies request IDs and CORS around every route
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requestsTotal.Add(1)

		requestID := getOrGenerateRequestID(r)
		w.Header().Set("X-Request-ID", requestID)

		if s.cfg.EnableCORS {
			s.applyCORS(w, r)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// getOrGenerateRequestID extracts the request ID from headers or generates
// a new one
func getOrGenerateRequestID(r *http.Request) string {
	if reqID := r.Header.Get("X-Request-ID"); reqID != "" {
		return reqID
	}

	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "req-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(b)
}

func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")

	allowed := false
	for _, allowedOrigin := range s.cfg.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}

	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	} else {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Admin-Token, X-Request-ID")
	w.Header().Set("Access-Control-Max-Age", "3600")
}
