// Package telemetry groups observability helpers for Titan.
//
// The metrics subpackage exposes a Prometheus collector covering the job
// queue, provider calls, and routing decisions. Structured logging is done
// with log/slog directly at the call sites, so there is no logging
// subpackage here.
package telemetry
