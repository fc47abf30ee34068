// Package memory provides an in-memory implementation of transport.Store
// for testing and lightweight deployments. Data is lost when the process
// restarts.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/trabbrunno-ctrl/dojo-backend/pkg/api"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/storage"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/transport"
)

// Store is an in-memory transport.Store.
type Store struct {
	mu               sync.RWMutex
	users            map[int64]*api.User
	students         map[int64]*api.Student
	dojoConfigs      map[int64]*api.DojoConfig
	financialConfigs map[int64]api.FinancialConfig
	nextUserID       int64
	nextStudentID    int64
}

// Ensure Store implements transport.Store at compile time.
var _ transport.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:            make(map[int64]*api.User),
		students:         make(map[int64]*api.Student),
		dojoConfigs:      make(map[int64]*api.DojoConfig),
		financialConfigs: make(map[int64]api.FinancialConfig),
	}
}

// AddUser seeds a user record, assigning an id when none is set. Users
// are created out of band in production; this is the out-of-band path for
// tests and development.
func (s *Store) AddUser(u api.User) api.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == 0 {
		s.nextUserID++
		u.ID = s.nextUserID
	} else if u.ID > s.nextUserID {
		s.nextUserID = u.ID
	}
	s.users[u.ID] = &u
	return u
}

// GetUserByEmail implements transport.Store. Email matching is
// case-insensitive.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

// ListStudents returns the caller's students ordered by name ascending.
func (s *Store) ListStudents(ctx context.Context) ([]api.Student, error) {
	owner, err := storage.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Non-nil so an empty tenant serializes as [] rather than null.
	out := []api.Student{}
	for _, st := range s.students {
		if st.UserID == owner {
			out = append(out, cloneStudent(st))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateStudent inserts a student owned by the caller. Any client-supplied
// user_id is overwritten.
func (s *Store) CreateStudent(ctx context.Context, st *api.Student) (*api.Student, error) {
	owner, err := storage.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextStudentID++
	stored := cloneStudent(st)
	stored.ID = s.nextStudentID
	stored.UserID = owner
	s.students[stored.ID] = &stored

	result := cloneStudent(&stored)
	return &result, nil
}

// UpdateStudent replaces an ownership-matched student.
func (s *Store) UpdateStudent(ctx context.Context, id int64, st *api.Student) (*api.Student, error) {
	owner, err := storage.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.students[id]
	if !ok || existing.UserID != owner {
		return nil, storage.ErrNotFound
	}

	stored := cloneStudent(st)
	stored.ID = id
	stored.UserID = owner
	s.students[id] = &stored

	result := cloneStudent(&stored)
	return &result, nil
}

// UpdatePayments replaces only the payments map of an ownership-matched
// student.
func (s *Store) UpdatePayments(ctx context.Context, id int64, payments map[string]string) (*api.Student, error) {
	owner, err := storage.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.students[id]
	if !ok || existing.UserID != owner {
		return nil, storage.ErrNotFound
	}

	existing.Payments = clonePayments(payments)

	result := cloneStudent(existing)
	return &result, nil
}

// GetDojoConfig returns the caller's config or the empty default.
func (s *Store) GetDojoConfig(ctx context.Context) (*api.DojoConfig, error) {
	owner, err := storage.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.dojoConfigs[owner]
	if !ok {
		return api.DefaultDojoConfig(), nil
	}
	return &api.DojoConfig{
		Modalities:  cloneMap(cfg.Modalities),
		Instructors: cloneMap(cfg.Instructors),
	}, nil
}

// SaveDojoConfig upserts the caller's single dojo config row.
func (s *Store) SaveDojoConfig(ctx context.Context, cfg *api.DojoConfig) error {
	owner, err := storage.RequireTenant(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dojoConfigs[owner] = &api.DojoConfig{
		Modalities:  cloneMap(cfg.Modalities),
		Instructors: cloneMap(cfg.Instructors),
	}
	return nil
}

// GetFinancialConfig returns the caller's config or an empty document.
func (s *Store) GetFinancialConfig(ctx context.Context) (api.FinancialConfig, error) {
	owner, err := storage.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.financialConfigs[owner]
	if !ok {
		return api.FinancialConfig{}, nil
	}
	out := make(api.FinancialConfig, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out, nil
}

// SaveFinancialConfig upserts the caller's single financial config row.
func (s *Store) SaveFinancialConfig(ctx context.Context, cfg api.FinancialConfig) error {
	owner, err := storage.RequireTenant(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make(api.FinancialConfig, len(cfg))
	for k, v := range cfg {
		stored[k] = v
	}
	s.financialConfigs[owner] = stored
	return nil
}

// HealthCheck always succeeds for the in-memory store.
func (s *Store) HealthCheck(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// cloneStudent copies a student including its payments map, so callers
// never alias stored state.
func cloneStudent(st *api.Student) api.Student {
	cp := *st
	cp.Payments = clonePayments(st.Payments)
	return cp
}

func clonePayments(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return cloneMap(m)
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
