package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trabbrunno-ctrl/dojo-backend/pkg/api"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/storage"
)

// gateFor wraps a probe handler behind the auth gate and records what, if
// anything, reached it.
type gateProbe struct {
	reached  bool
	identity *Identity
	tenant   int64
}

func gateFor(chain *AuthChain, bypass []string) (http.Handler, *gateProbe) {
	probe := &gateProbe{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probe.reached = true
		probe.identity = IdentityFromContext(r.Context())
		probe.tenant = storage.GetTenant(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return Middleware(chain, bypass)(next), probe
}

func gateStatus(t *testing.T, handler http.Handler, path string) (*httptest.ResponseRecorder, api.ErrorResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	var resp api.ErrorResponse
	if rec.Code != http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding error body %q: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}

func TestMiddleware_NoCredentials(t *testing.T) {
	chain := &AuthChain{} // all abstain
	handler, probe := gateFor(chain, nil)

	rec, resp := gateStatus(t, handler, "/students")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if resp.Error.Type != api.ErrorTypeUnauthenticated {
		t.Errorf("error type = %q", resp.Error.Type)
	}
	if probe.reached {
		t.Error("handler ran without credentials")
	}
}

func TestMiddleware_RejectedToken(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"expired", ErrTokenExpired, "token expired"},
		{"invalid", ErrTokenInvalid, "invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := &AuthChain{Authenticators: []Authenticator{
				&stubAuthenticator{result: AuthResult{Decision: No, Err: tt.err}},
			}}
			handler, probe := gateFor(chain, nil)

			rec, resp := gateStatus(t, handler, "/students")
			if rec.Code != http.StatusForbidden {
				t.Fatalf("status = %d, want 403", rec.Code)
			}
			if resp.Error.Type != api.ErrorTypeForbidden || resp.Error.Message != tt.wantMsg {
				t.Errorf("error = %+v", resp.Error)
			}
			if probe.reached {
				t.Error("handler ran with a rejected token")
			}
		})
	}
}

func TestMiddleware_InjectsIdentityAndTenant(t *testing.T) {
	chain := &AuthChain{Authenticators: []Authenticator{
		&stubAuthenticator{result: AuthResult{
			Decision: Yes,
			Identity: &Identity{UserID: 42, Email: "owner@dojo.com", Role: "admin"},
		}},
	}}
	handler, probe := gateFor(chain, nil)

	rec, _ := gateStatus(t, handler, "/students")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !probe.reached {
		t.Fatal("handler did not run")
	}
	if probe.identity == nil || probe.identity.UserID != 42 {
		t.Errorf("identity = %+v", probe.identity)
	}
	if probe.tenant != 42 {
		t.Errorf("tenant = %d, want 42", probe.tenant)
	}
}

func TestMiddleware_ZeroUserIDIsInternalError(t *testing.T) {
	chain := &AuthChain{Authenticators: []Authenticator{
		&stubAuthenticator{result: AuthResult{Decision: Yes, Identity: &Identity{UserID: 0}}},
	}}
	handler, probe := gateFor(chain, nil)

	rec, resp := gateStatus(t, handler, "/students")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if resp.Error.Type != api.ErrorTypeServerError {
		t.Errorf("error type = %q", resp.Error.Type)
	}
	if probe.reached {
		t.Error("handler ran with a zero user id")
	}
}

func TestMiddleware_Bypass(t *testing.T) {
	chain := &AuthChain{} // would reject anything that hits it
	handler, probe := gateFor(chain, DefaultBypassEndpoints)

	for _, path := range DefaultBypassEndpoints {
		rec, _ := gateStatus(t, handler, path)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: status = %d, want 200 without credentials", path, rec.Code)
		}
	}
	if !probe.reached {
		t.Error("bypass endpoints never reached the handler")
	}

	// Bypass is exact-match: a gated path next to a bypass one still rejects.
	rec, _ := gateStatus(t, handler, "/students")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /students: status = %d, want 401", rec.Code)
	}
}
