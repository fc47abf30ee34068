package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/trabbrunno-ctrl/dojo-backend/pkg/api"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/observability"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/storage"
)

// Login flow errors. Anything else returned by Login is an internal
// failure that the transport maps to a generic 500.
var (
	ErrUserNotFound  = errors.New("user does not exist")
	ErrWrongPassword = errors.New("incorrect password")
)

// UserReader is the credential store adapter: the single lookup the login
// flow needs. transport.Store satisfies it.
type UserReader interface {
	GetUserByEmail(ctx context.Context, email string) (*api.User, error)
}

// TokenIssuer mints a signed session token for a verified identity.
// session.Codec satisfies it.
type TokenIssuer interface {
	Issue(id Identity) (string, error)
}

// LoginService runs the login flow: credential lookup, password
// verification, token issuance.
type LoginService struct {
	users    UserReader
	verifier PasswordVerifier
	tokens   TokenIssuer
}

// NewLoginService wires the login flow collaborators.
func NewLoginService(users UserReader, verifier PasswordVerifier, tokens TokenIssuer) *LoginService {
	return &LoginService{users: users, verifier: verifier, tokens: tokens}
}

// Login verifies the credentials and returns a signed token with the
// non-sensitive user summary.
//
// Failure modes:
//   - unknown email: ErrUserNotFound
//   - wrong password: ErrWrongPassword (checked only after a row is found)
//   - anything else: internal, details logged server-side only
//
// That "no such user" and "wrong password" are observably distinct is an
// accepted property of this design, not something to hide further.
func (s *LoginService) Login(ctx context.Context, email, password string) (*api.LoginResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			observability.LoginsTotal.WithLabelValues("unknown_user").Inc()
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.verifier.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			observability.LoginsTotal.WithLabelValues("wrong_password").Inc()
			return nil, ErrWrongPassword
		}
		return nil, fmt.Errorf("verifying credentials for user %d: %w", user.ID, err)
	}

	token, err := s.tokens.Issue(Identity{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("issuing session token: %w", err)
	}

	slog.Info("login succeeded", "user_id", user.ID)
	observability.LoginsTotal.WithLabelValues("ok").Inc()

	return &api.LoginResponse{
		Token: token,
		User:  user.Summary(),
	}, nil
}
