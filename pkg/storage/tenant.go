package storage

import "context"

// tenantKey is a private type for the tenant context key, preventing
// collisions with other packages.
type tenantKey struct{}

// SetTenant injects the owning user id into the context. The auth
// middleware is the only writer; handlers and stores are readers.
func SetTenant(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, tenantKey{}, userID)
}

// GetTenant extracts the owning user id from the context. Returns 0 if
// no tenant is set.
func GetTenant(ctx context.Context) int64 {
	if v, ok := ctx.Value(tenantKey{}).(int64); ok {
		return v
	}
	return 0
}

// RequireTenant extracts the owning user id, returning ErrNoTenant when
// the context carries none. Every student and config operation goes
// through this check.
func RequireTenant(ctx context.Context) (int64, error) {
	id := GetTenant(ctx)
	if id == 0 {
		return 0, ErrNoTenant
	}
	return id, nil
}
