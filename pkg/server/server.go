package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/copyforge-hq/titan/pkg/config"
	"github.com/copyforge-hq/titan/pkg/health"
	"github.com/copyforge-hq/titan/pkg/notify"
	"github.com/copyforge-hq/titan/pkg/providers"
	"github.com/copyforge-hq/titan/pkg/queue"
	"github.com/copyforge-hq/titan/pkg/routing"
	"github.com/copyforge-hq/titan/pkg/server/handlers"
	"github.com/copyforge-hq/titan/pkg/server/middleware"
	"github.com/copyforge-hq/titan/pkg/telemetry/metrics"
)

// Dependencies carries the subsystems the API serves. Collector and
// Broker may be nil; the corresponding endpoints are then omitted or
// degrade to no-ops.
type Dependencies struct {
	Store     queue.Store
	Balancer  routing.LoadBalancer
	Monitor   *health.Monitor
	Providers map[string]providers.Provider
	Broker    *notify.Broker
	Collector *metrics.Collector
}

// Server is the HTTP API server for the job queue.
type Server struct {
	config       *config.Config
	deps         Dependencies
	logger       *slog.Logger
	httpServer   *http.Server
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	running      bool
}

// NewServer creates the API server. The configuration is read once at
// construction; routing changes arrive through the balancer, not here.
func NewServer(cfg *config.Config, deps Dependencies, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:     cfg,
		deps:       deps,
		logger:     logger.With("component", "server"),
		shutdownCh: make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.Server.ListenAddress,
		Handler:      s.setupRoutes(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting api server", "address", s.config.Server.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Signal handling belongs to the caller: the run command hands us a
	// context that is cancelled on SIGINT/SIGTERM.
	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownCh:
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server, draining in-flight requests
// up to the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		s.logger.Info("api server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the server is accepting connections.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Handler returns the configured HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// setupRoutes builds the route table and middleware chain.
//
// The WebSocket event stream lives on a separate mux outside the timeout
// middleware: a streaming connection must outlive the per-request write
// deadline that bounds the JSON endpoints.
func (s *Server) setupRoutes() http.Handler {
	providerNames := make([]string, 0, len(s.deps.Providers))
	for name := range s.deps.Providers {
		providerNames = append(providerNames, name)
	}

	jobsHandler := handlers.NewJobsHandler(
		s.deps.Store,
		s.publisher(),
		s.deps.Collector,
		s.config.Queue.JobTTL,
		s.config.Queue.MaxRetries,
		s.logger,
	)
	providersHandler := handlers.NewProvidersHandler(s.deps.Providers, s.deps.Monitor)
	statsHandler := handlers.NewStatisticsHandler(s.deps.Store, s.deps.Balancer)
	cleanupHandler := handlers.NewCleanupHandler(s.deps.Store, s.config.Queue.RetentionPeriod, s.logger)
	healthHandler := handlers.NewHealthHandler()
	readyHandler := handlers.NewReadyHandler(s.deps.Store, s.deps.Monitor, providerNames)
	providerHealthHandler := handlers.NewProviderHealthHandler(s.deps.Monitor)

	api := http.NewServeMux()
	api.HandleFunc("POST /queue/jobs", jobsHandler.Create)
	api.HandleFunc("GET /queue/jobs", jobsHandler.List)
	api.HandleFunc("GET /queue/jobs/{id}", jobsHandler.Get)
	api.HandleFunc("DELETE /queue/jobs/{id}", jobsHandler.Cancel)
	api.Handle("GET /queue/providers", http.HandlerFunc(providersHandler.List))
	api.Handle("GET /queue/providers/recommend", http.HandlerFunc(providersHandler.Recommend))
	api.Handle("GET /queue/statistics", statsHandler)
	api.Handle("POST /queue/cleanup", cleanupHandler)
	api.Handle("GET /health", healthHandler)
	api.Handle("GET /ready", readyHandler)
	api.Handle("GET /health/providers", providerHealthHandler)

	if s.deps.Collector != nil && s.config.Telemetry.Metrics.Enabled {
		api.Handle("GET /metrics", s.deps.Collector.Handler())
	}

	timeout := requestTimeout(s.config.Server.WriteTimeout)

	root := http.NewServeMux()
	if s.deps.Broker != nil {
		root.Handle("GET /queue/jobs/ws", handlers.NewEventsHandler(s.deps.Broker, s.logger))
	}
	root.Handle("/", middleware.Timeout(timeout)(middleware.BodyLimit(middleware.DefaultMaxBodyBytes)(api)))

	var handler http.Handler = root
	handler = middleware.UserID(handler)
	handler = middleware.CORS(middleware.DefaultCORSConfig())(handler)
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(handler)

	return handler
}

func (s *Server) publisher() notify.Publisher {
	if s.deps.Broker == nil {
		return notify.NopPublisher{}
	}
	return s.deps.Broker
}

// requestTimeout leaves headroom under the server write deadline so the
// timeout middleware can still emit a 504 body.
func requestTimeout(writeTimeout time.Duration) time.Duration {
	if writeTimeout <= time.Second {
		return writeTimeout
	}
	return writeTimeout - time.Second
}
