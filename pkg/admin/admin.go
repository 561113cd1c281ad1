// Package admin serves a small HTTP surface for a running connection:
// liveness, a status snapshot and Prometheus metrics.
//
//	GET /healthz  200 while the connection is open, 503 once it has ended
//	GET /status   JSON snapshot of the connection
//	GET /metrics  Prometheus exposition
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/craftwire/pkg/client"
)

// Source is the connection the endpoints report on. *client.Connection
// implements it.
type Source interface {
	Info() client.Info
	Done() <-chan struct{}
}

// Config configures the admin server.
type Config struct {
	// Address is the listen address, such as "127.0.0.1:9100".
	Address string

	// Gatherer backs /metrics.
	// Default: prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Logger receives server logs.
	// Default: slog.Default().
	Logger *slog.Logger

	// ShutdownTimeout bounds Shutdown.
	// Default: 5 seconds.
	ShutdownTimeout time.Duration
}

// NewRouter returns the admin routes for src.
func NewRouter(src Source, gatherer prometheus.Gatherer) chi.Router {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-src.Done():
			http.Error(w, "closed", http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		}
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(src.Info())
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

// Server runs the admin routes over HTTP.
type Server struct {
	config     Config
	logger     *slog.Logger
	httpServer *http.Server
	ln         net.Listener
	errCh      chan error
}

// NewServer returns an unstarted server for src.
func NewServer(src Source, config Config) *Server {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 5 * time.Second
	}
	return &Server{
		config: config,
		logger: config.Logger.With("component", "admin"),
		httpServer: &http.Server{
			Handler:           NewRouter(src, config.Gatherer),
			ReadHeaderTimeout: 5 * time.Second,
		},
		errCh: make(chan error, 1),
	}
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	s.ln = ln
	s.logger.Info("admin server starting", "address", ln.Addr().String())
	go func() {
		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.errCh <- err
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.config.Address
	}
	return s.ln.Addr().String()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}
	if s.ln != nil {
		if err := <-s.errCh; err != nil {
			return err
		}
	}
	s.logger.Info("admin server stopped")
	return nil
}
