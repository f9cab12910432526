package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds request handling with context.WithTimeout. Handlers see
// the deadline through r.Context() and abort their own work; WebSocket
// upgrades must be mounted outside this middleware since push connections
// are long-lived.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
