package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/trabbrunno-ctrl/dojo-backend/pkg/auth"
)

// Authenticator validates Bearer session tokens from the Authorization
// header.
type Authenticator struct {
	codec *Codec
}

// NewAuthenticator creates a bearer token authenticator over the codec.
func NewAuthenticator(codec *Codec) *Authenticator {
	return &Authenticator{codec: codec}
}

// Authenticate extracts a bearer token from the Authorization header and
// verifies it.
//
// Decision outcomes:
//   - Abstain: no Authorization header or not a Bearer scheme
//   - No: bearer token present but invalid or expired
//   - Yes: valid token with populated Identity
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) auth.AuthResult {
	header := r.Header.Get("Authorization")
	if header == "" {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	if !strings.HasPrefix(header, "Bearer ") {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	tokenStr := strings.TrimPrefix(header, "Bearer ")
	if tokenStr == "" {
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("%w: empty bearer token", auth.ErrTokenInvalid),
		}
	}

	claims, err := a.codec.Verify(tokenStr)
	if err != nil {
		return auth.AuthResult{Decision: auth.No, Err: err}
	}

	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: claims.Identity(),
	}
}
