package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned when a candidate password does not match
// the stored hash.
var ErrPasswordMismatch = errors.New("password mismatch")

// PasswordVerifier checks a plaintext candidate against a stored hash.
type PasswordVerifier interface {
	// Verify returns nil on match, ErrPasswordMismatch on a wrong password,
	// and any other error for verification failures (e.g. malformed hash).
	// A failure is never treated as a match.
	Verify(hash, candidate string) error
}

// BcryptVerifier verifies passwords with bcrypt, a salted constant-time
// comparison. Raw equality is never used.
type BcryptVerifier struct{}

// Verify implements PasswordVerifier.
func (BcryptVerifier) Verify(hash, candidate string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		// Malformed hash or unsupported cost: an internal error, distinct
		// from "wrong password".
		return fmt.Errorf("verifying password hash: %w", err)
	}
}

// HashPassword produces a bcrypt hash at the default cost. Users are
// created out of band; this exists for seeding and tests.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(b), nil
}
