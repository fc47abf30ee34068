// Package session provides the signed session token codec and the bearer
// token authenticator built on it.
//
// Tokens are HS256 JWTs bound to a process-wide secret loaded once at
// startup. Claims carry the owner's id, email, and role plus a standard
// expiration; they are not persisted anywhere and are reconstructed on
// every request by verifying the token.
package session

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/trabbrunno-ctrl/dojo-backend/pkg/auth"
)

// DefaultTTL is the session lifetime applied when none is configured.
const DefaultTTL = 24 * time.Hour

// Claims are the identity fields embedded in a session token.
type Claims struct {
	UserID int64  `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwtlib.RegisteredClaims
}

// Identity converts the claims back into the authenticated identity.
func (c *Claims) Identity() *auth.Identity {
	return &auth.Identity{UserID: c.UserID, Email: c.Email, Role: c.Role}
}

// Codec issues and verifies signed session tokens.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec creates a token codec with the given signing secret and
// session lifetime. A zero ttl means DefaultTTL.
func NewCodec(secret []byte, ttl time.Duration) *Codec {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Codec{secret: secret, ttl: ttl}
}

// Issue mints a signed token for the identity, expiring after the
// configured lifetime.
func (c *Codec) Issue(id auth.Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: id.UserID,
		Email:  id.Email,
		Role:   id.Role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Verify recomputes and checks the signature and expiration, returning
// the embedded claims on success.
//
// Expired tokens map to auth.ErrTokenExpired. Signature mismatch,
// malformed structure, and unknown algorithms all map to
// auth.ErrTokenInvalid.
func (c *Codec) Verify(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(token *jwtlib.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, auth.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", auth.ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, auth.ErrTokenInvalid
	}

	if claims.UserID == 0 {
		return nil, fmt.Errorf("%w: missing id claim", auth.ErrTokenInvalid)
	}

	return claims, nil
}
