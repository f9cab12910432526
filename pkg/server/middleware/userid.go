package middleware

import (
	"context"
	"net/http"
)

// UserIDHeader is the HTTP header identifying the calling user.
const UserIDHeader = "X-User-ID"

// UserID copies the X-User-ID header into the request context so handlers
// can scope queries without re-reading headers. Requests without the header
// pass through; handlers that require a user reject them.
func UserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := r.Header.Get(UserIDHeader); userID != "" {
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}
