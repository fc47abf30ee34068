package transport

import (
	"context"
	"net/http"
	"time"
)

// Timeout returns middleware that bounds each request with a deadline.
// Store operations observe the deadline through the request context, so a
// stalled connection pool surfaces as a server error instead of hanging
// the request indefinitely.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
