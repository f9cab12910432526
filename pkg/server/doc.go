// Package server provides the HTTP API for the generation job queue.
//
// This package ties the subsystems together (job store, routing, health,
// notifications, metrics) and manages server lifecycle including start and
// graceful shutdown.
//
// # Routes
//
// The server exposes the following HTTP endpoints:
//
//   - POST /queue/jobs - Submit a generation job (returns 202)
//   - GET /queue/jobs - List the calling user's jobs
//   - GET /queue/jobs/{id} - Fetch a single job
//   - DELETE /queue/jobs/{id} - Cancel a job
//   - WS /queue/jobs/ws - WebSocket stream of job lifecycle events
//   - GET /queue/providers - List configured providers with health
//   - GET /queue/providers/recommend - Recommend a provider by criterion
//   - GET /queue/statistics - Queue and routing statistics
//   - POST /queue/cleanup - Remove terminal jobs past retention
//   - GET /health - Liveness probe (always returns 200)
//   - GET /ready - Readiness probe (store plus provider availability)
//   - GET /health/providers - Detailed provider health snapshots
//   - GET /metrics - Prometheus metrics (when enabled)
//
// # Middleware Chain
//
// Requests pass through the following middleware (outermost to innermost):
//  1. Recovery: Recovers from panics and returns 500 error
//  2. RequestID: Generates unique request ID for tracing
//  3. Logging: Logs request/response details
//  4. CORS: Adds Cross-Origin Resource Sharing headers
//  5. UserID: Extracts the calling user from X-User-ID
//  6. Timeout: Enforces per-request timeout (JSON endpoints only)
//  7. BodyLimit: Caps request body size (JSON endpoints only)
//
// The WebSocket endpoint is mounted outside the timeout and body-limit
// middleware so streaming connections are not torn down by the
// per-request deadline.
//
// # Graceful Shutdown
//
// The server shuts down when its context is cancelled (the run command
// cancels it on SIGINT/SIGTERM) or when Shutdown is called:
//  1. Stops accepting new connections
//  2. Waits for active requests to complete (up to shutdown timeout)
//  3. Forces connection closure if the timeout is exceeded
//
// # Basic Usage
//
//	srv := server.NewServer(cfg, server.Dependencies{
//	    Store:     store,
//	    Balancer:  balancer,
//	    Monitor:   monitor,
//	    Providers: providerMap,
//	    Broker:    broker,
//	    Collector: collector,
//	}, logger)
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
