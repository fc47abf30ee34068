package transport

import (
	"log/slog"
	"net/http"

	"github.com/trabbrunno-ctrl/dojo-backend/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to generic server error responses. The panic value is
// logged server-side only; the server keeps accepting requests.
func Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					slog.Error("panic recovered",
						"panic", rec,
						"path", r.URL.Path,
						"request_id", RequestIDFromContext(r.Context()),
					)
					WriteAPIError(w, api.NewServerError("internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
