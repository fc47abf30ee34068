package transport

import (
	"context"

	"github.com/trabbrunno-ctrl/dojo-backend/pkg/api"
)

// Store is the persistence contract of the backend, implemented by the
// memory and postgres adapters.
//
// Every student and config operation is ownership-matched: the adapter
// reads the owner id that the authentication gate placed in the context
// (storage.GetTenant) and includes it as a mandatory filter or assignment
// in the underlying query. A lookup or mutation naming a resource id that
// belongs to a different owner behaves identically to the resource not
// existing: storage.ErrNotFound.
type Store interface {
	// GetUserByEmail reads a user record by email for the login flow.
	// Returns storage.ErrNotFound when no such user exists. Not tenant
	// scoped: it runs before any session exists.
	GetUserByEmail(ctx context.Context, email string) (*api.User, error)

	// ListStudents returns all students owned by the caller, ordered by
	// name ascending.
	ListStudents(ctx context.Context) ([]api.Student, error)

	// CreateStudent inserts a new student with user_id forced to the
	// caller's id, regardless of what the client supplied. The stored
	// student (with assigned id) is returned.
	CreateStudent(ctx context.Context, st *api.Student) (*api.Student, error)

	// UpdateStudent replaces a student matched by both its id and the
	// caller's id. Zero rows affected is storage.ErrNotFound.
	UpdateStudent(ctx context.Context, id int64, st *api.Student) (*api.Student, error)

	// UpdatePayments replaces only the payments map of an
	// ownership-matched student, preserving all other fields.
	UpdatePayments(ctx context.Context, id int64, payments map[string]string) (*api.Student, error)

	// GetDojoConfig returns the caller's dojo config, or the documented
	// empty default when no row exists. Absence is not an error.
	GetDojoConfig(ctx context.Context) (*api.DojoConfig, error)

	// SaveDojoConfig upserts the caller's single dojo config row.
	SaveDojoConfig(ctx context.Context, cfg *api.DojoConfig) error

	// GetFinancialConfig returns the caller's financial config, or an
	// empty document when no row exists.
	GetFinancialConfig(ctx context.Context) (api.FinancialConfig, error)

	// SaveFinancialConfig upserts the caller's single financial config row.
	SaveFinancialConfig(ctx context.Context, cfg api.FinancialConfig) error

	// HealthCheck verifies the store connection is functional.
	HealthCheck(ctx context.Context) error

	// Close releases database connections and resources.
	Close() error
}
