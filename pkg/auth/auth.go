package auth

import (
	"context"
	"errors"
	"net/http"
)

// AuthDecision represents the three possible outcomes of authentication.
type AuthDecision int

const (
	// Yes means credentials are valid. The chain stops and the identity is used.
	Yes AuthDecision = iota

	// No means credentials are present but invalid. The chain stops and the
	// request is rejected.
	No

	// Abstain means this authenticator cannot handle the credentials type.
	// The chain continues to the next authenticator.
	Abstain
)

// AuthResult carries the outcome of an authentication attempt.
type AuthResult struct {
	Decision AuthDecision
	Identity *Identity // populated only when Decision == Yes
	Err      error     // populated only when Decision == No
}

// Identity represents an authenticated dojo owner, reconstructed on every
// request from the session token claims.
type Identity struct {
	// UserID is the owner's unique id (required, non-zero). It is the
	// tenant key every student and config operation is scoped by.
	UserID int64

	// Email is the owner's login email.
	Email string

	// Role is carried opaquely from the user record into the claims.
	Role string
}

// Authenticator examines request credentials and returns a three-outcome vote.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) AuthResult
}

// Sentinel errors.
var (
	// ErrUnauthenticated is returned when no usable credentials were
	// presented at all (missing or malformed Authorization header).
	ErrUnauthenticated = errors.New("authentication required")

	// ErrTokenInvalid is returned for tokens that fail verification:
	// bad signature, malformed structure, or unknown algorithm.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired is returned for structurally valid tokens whose
	// expiration has passed. Rejected with the same status as invalid
	// tokens, only the message differs.
	ErrTokenExpired = errors.New("token expired")
)

// AuthChain evaluates authenticators in order using three-outcome voting.
type AuthChain struct {
	// Authenticators are evaluated left to right.
	Authenticators []Authenticator

	// AllowAnonymous makes an all-abstain chain pass with a development
	// identity instead of rejecting. Never enable in production.
	AllowAnonymous bool
}

// Authenticate runs the chain. Stops on the first Yes or No. If all
// abstain, the request is rejected as unauthenticated (or admitted with
// a development identity when AllowAnonymous is set).
func (c *AuthChain) Authenticate(ctx context.Context, r *http.Request) AuthResult {
	for _, authn := range c.Authenticators {
		result := authn.Authenticate(ctx, r)
		if result.Decision != Abstain {
			return result
		}
	}

	if c.AllowAnonymous {
		return AuthResult{
			Decision: Yes,
			Identity: &Identity{UserID: 1, Email: "dev@localhost", Role: "admin"},
		}
	}

	return AuthResult{
		Decision: No,
		Err:      ErrUnauthenticated,
	}
}
