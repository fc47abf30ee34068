package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/trabbrunno-ctrl/dojo-backend/pkg/api"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/observability"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/storage"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/transport"
)

// Middleware creates the authentication gate from an AuthChain. It checks
// the bypass list, runs authentication, and injects the verified identity
// and tenant id into the request context before the downstream handler runs.
//
// Terminal outcomes per request:
//   - no credentials presented: 401 unauthenticated
//   - credentials presented but verification failed: 403 forbidden
//   - verified: claims attached to context, control passes downstream
func Middleware(chain *AuthChain, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			result := chain.Authenticate(r.Context(), r)

			if result.Decision == No {
				slog.Warn("authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", result.Err,
				)
				transport.WriteAPIError(w, rejectionError(result.Err))
				return
			}

			if result.Decision != Yes || result.Identity == nil {
				transport.WriteAPIError(w, api.NewUnauthenticatedError("authentication required"))
				return
			}

			if result.Identity.UserID == 0 {
				slog.Error("authenticator returned identity with zero user id")
				transport.WriteAPIError(w, api.NewServerError("internal authentication error"))
				return
			}

			slog.Debug("authentication succeeded",
				"user_id", result.Identity.UserID,
				"path", r.URL.Path,
			)

			ctx := SetIdentity(r.Context(), result.Identity)

			// Tenant scoping: every store operation downstream filters by this id.
			ctx = storage.SetTenant(ctx, result.Identity.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// rejectionError maps a chain rejection to the API error taxonomy.
// No credentials at all is unauthenticated; a presented-but-bad token is
// forbidden, with expiry called out in the message only.
func rejectionError(err error) *api.APIError {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		observability.AuthRejectionsTotal.WithLabelValues("unauthenticated").Inc()
		return api.NewUnauthenticatedError("authentication required")
	case errors.Is(err, ErrTokenExpired):
		observability.AuthRejectionsTotal.WithLabelValues("expired").Inc()
		return api.NewForbiddenError("token expired")
	default:
		observability.AuthRejectionsTotal.WithLabelValues("invalid").Inc()
		return api.NewForbiddenError("invalid token")
	}
}

// DefaultBypassEndpoints lists endpoints that skip authentication.
var DefaultBypassEndpoints = []string{"/", "/login", "/healthz", "/metrics"}
