// Package middleware provides the HTTP middleware chain for the queue API:
// panic recovery, request ID propagation, structured request logging, CORS,
// and per-request timeouts.
package middleware
