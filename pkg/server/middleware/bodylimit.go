package middleware

import "net/http"

// DefaultMaxBodyBytes bounds request bodies on the JSON endpoints.
// Generation prompts are text; anything past this is a malformed or
// hostile request.
const DefaultMaxBodyBytes int64 = 1 << 20

// BodyLimit rejects request bodies larger than maxBytes. The handler sees
// the error from the body reader; json decoding then fails with a
// *http.MaxBytesError and the request is reported as invalid.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
