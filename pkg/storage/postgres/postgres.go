// Package postgres provides a PostgreSQL implementation of transport.Store.
// It uses pgx/v5 for connection pooling and JSONB for the payments and
// config documents.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trabbrunno-ctrl/dojo-backend/pkg/api"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/storage"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/transport"
)

// Store is a PostgreSQL-backed transport.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements transport.Store at compile time.
var _ transport.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// GetUserByEmail reads a user record by email. Matching is case-insensitive.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*api.User, error) {
	var u api.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, role, dojo_name, logo_url, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.DojoName, &u.LogoURL, &u.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

// studentColumns is the select list shared by every student query.
const studentColumns = "id, user_id, nome, whatsapp, modalidade, professor, vencimento, status, pagamentos"

// ListStudents returns the caller's students ordered by name ascending.
func (s *Store) ListStudents(ctx context.Context) ([]api.Student, error) {
	owner, err := storage.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+studentColumns+`
		FROM students
		WHERE user_id = $1
		ORDER BY nome ASC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("querying students: %w", err)
	}
	defer rows.Close()

	// Non-nil so an empty tenant serializes as [] rather than null.
	students := []api.Student{}
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating students: %w", err)
	}
	return students, nil
}

// CreateStudent inserts a student with user_id forced to the caller's id.
func (s *Store) CreateStudent(ctx context.Context, st *api.Student) (*api.Student, error) {
	owner, err := storage.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}

	paymentsJSON, err := marshalPayments(st.Payments)
	if err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO students (user_id, nome, whatsapp, modalidade, professor, vencimento, status, pagamentos)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+studentColumns+`
	`, owner, st.Name, st.Whatsapp, st.Modality, st.Instructor, st.DueDay, st.Status, paymentsJSON)

	created, err := scanStudent(row)
	if err != nil {
		return nil, fmt.Errorf("inserting student: %w", err)
	}
	return created, nil
}

// UpdateStudent replaces a student matched by both its id and the caller's
// id. A row owned by another tenant does not match: storage.ErrNotFound.
func (s *Store) UpdateStudent(ctx context.Context, id int64, st *api.Student) (*api.Student, error) {
	owner, err := storage.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}

	paymentsJSON, err := marshalPayments(st.Payments)
	if err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE students
		SET nome = $1, whatsapp = $2, modalidade = $3, professor = $4,
		    vencimento = $5, status = $6, pagamentos = $7
		WHERE id = $8 AND user_id = $9
		RETURNING `+studentColumns+`
	`, st.Name, st.Whatsapp, st.Modality, st.Instructor, st.DueDay, st.Status, paymentsJSON, id, owner)

	updated, err := scanStudent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating student: %w", err)
	}
	return updated, nil
}

// UpdatePayments replaces only the payments document of an
// ownership-matched student.
func (s *Store) UpdatePayments(ctx context.Context, id int64, payments map[string]string) (*api.Student, error) {
	owner, err := storage.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}

	paymentsJSON, err := marshalPayments(payments)
	if err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE students
		SET pagamentos = $1
		WHERE id = $2 AND user_id = $3
		RETURNING `+studentColumns+`
	`, paymentsJSON, id, owner)

	updated, err := scanStudent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating payments: %w", err)
	}
	return updated, nil
}

// GetDojoConfig returns the caller's single config row, or the documented
// empty default when none exists.
func (s *Store) GetDojoConfig(ctx context.Context) (*api.DojoConfig, error) {
	owner, err := storage.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}

	var modalitiesJSON, instructorsJSON []byte
	err = s.pool.QueryRow(ctx, `
		SELECT nomes_modalidades, mapa_professores
		FROM dojo_config
		WHERE user_id = $1
	`, owner).Scan(&modalitiesJSON, &instructorsJSON)

	if errors.Is(err, pgx.ErrNoRows) {
		return api.DefaultDojoConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying dojo config: %w", err)
	}

	cfg := api.DefaultDojoConfig()
	if err := json.Unmarshal(modalitiesJSON, &cfg.Modalities); err != nil {
		return nil, fmt.Errorf("unmarshaling modalities: %w", err)
	}
	if err := json.Unmarshal(instructorsJSON, &cfg.Instructors); err != nil {
		return nil, fmt.Errorf("unmarshaling instructors: %w", err)
	}
	return cfg, nil
}

// SaveDojoConfig upserts the caller's single dojo config row.
func (s *Store) SaveDojoConfig(ctx context.Context, cfg *api.DojoConfig) error {
	owner, err := storage.RequireTenant(ctx)
	if err != nil {
		return err
	}

	modalitiesJSON, err := json.Marshal(cfg.Modalities)
	if err != nil {
		return fmt.Errorf("marshaling modalities: %w", err)
	}
	instructorsJSON, err := json.Marshal(cfg.Instructors)
	if err != nil {
		return fmt.Errorf("marshaling instructors: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO dojo_config (user_id, nomes_modalidades, mapa_professores)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET nomes_modalidades = EXCLUDED.nomes_modalidades,
		    mapa_professores = EXCLUDED.mapa_professores
	`, owner, modalitiesJSON, instructorsJSON)
	if err != nil {
		return fmt.Errorf("saving dojo config: %w", err)
	}
	return nil
}

// GetFinancialConfig returns the caller's settings document, or an empty
// one when no row exists.
func (s *Store) GetFinancialConfig(ctx context.Context) (api.FinancialConfig, error) {
	owner, err := storage.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}

	var settingsJSON []byte
	err = s.pool.QueryRow(ctx, `
		SELECT settings
		FROM financial_config
		WHERE user_id = $1
	`, owner).Scan(&settingsJSON)

	if errors.Is(err, pgx.ErrNoRows) {
		return api.FinancialConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying financial config: %w", err)
	}

	cfg := api.FinancialConfig{}
	if err := json.Unmarshal(settingsJSON, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling financial config: %w", err)
	}
	return cfg, nil
}

// SaveFinancialConfig upserts the caller's single financial config row.
func (s *Store) SaveFinancialConfig(ctx context.Context, cfg api.FinancialConfig) error {
	owner, err := storage.RequireTenant(ctx)
	if err != nil {
		return err
	}

	settingsJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling financial config: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO financial_config (user_id, settings)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET settings = EXCLUDED.settings
	`, owner, settingsJSON)
	if err != nil {
		return fmt.Errorf("saving financial config: %w", err)
	}
	return nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// AddUser inserts a user record. Production accounts are provisioned out
// of band; integration tests use this.
func (s *Store) AddUser(ctx context.Context, u api.User) (api.User, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, role, dojo_name, logo_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, u.Email, u.PasswordHash, u.Role, u.DojoName, u.LogoURL).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return api.User{}, fmt.Errorf("inserting user: %w", err)
	}
	return u, nil
}

// scanStudent reads one student row. Works for both pgx.Row and pgx.Rows.
func scanStudent(row pgx.Row) (*api.Student, error) {
	var st api.Student
	var paymentsJSON []byte

	err := row.Scan(&st.ID, &st.UserID, &st.Name, &st.Whatsapp, &st.Modality,
		&st.Instructor, &st.DueDay, &st.Status, &paymentsJSON)
	if err != nil {
		return nil, err
	}

	st.Payments = map[string]string{}
	if err := json.Unmarshal(paymentsJSON, &st.Payments); err != nil {
		return nil, fmt.Errorf("unmarshaling payments: %w", err)
	}
	return &st, nil
}

// marshalPayments serializes a payments map, treating nil as empty.
func marshalPayments(m map[string]string) ([]byte, error) {
	if m == nil {
		m = map[string]string{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshaling payments: %w", err)
	}
	return b, nil
}
