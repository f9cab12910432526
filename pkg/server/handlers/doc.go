// Package handlers implements the REST and WebSocket surface of the queue
// API: job admission and lifecycle, queue statistics, provider health and
// recommendation, and the job-events push endpoint.
package handlers
