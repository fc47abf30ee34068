package storage

import "errors"

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a record does not exist for the calling
	// tenant. A record owned by a different tenant is indistinguishable
	// from a missing one.
	ErrNotFound = errors.New("record not found")

	// ErrNoTenant is returned when a tenant-scoped operation is attempted
	// without an owner id in the context. This indicates a wiring bug: the
	// authentication gate must run before any tenant-scoped handler.
	ErrNoTenant = errors.New("no tenant in context")
)
