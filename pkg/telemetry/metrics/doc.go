// Package metrics provides Prometheus instrumentation for the job queue,
// the provider adapters, and the routing layer.
//
// All metrics live under a single configurable namespace (default "titan")
// and are registered against a caller-supplied registry so tests can use an
// isolated one. The Collector is the single entry point: components record
// through it and the HTTP server mounts its Handler at /metrics.
package metrics
