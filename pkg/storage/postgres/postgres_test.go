package postgres

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/trabbrunno-ctrl/dojo-backend/pkg/api"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/storage"
)

func init() {
	// Configure testcontainers to use podman.
	// Detect the podman socket from `podman machine inspect`.
	if os.Getenv("DOCKER_HOST") == "" {
		out, err := exec.Command("podman", "machine", "inspect", "--format", "{{.ConnectionInfo.PodmanSocket.Path}}").Output()
		if err == nil {
			sock := strings.TrimSpace(string(out))
			if sock != "" {
				os.Setenv("DOCKER_HOST", "unix://"+sock)
			}
		}
	}
	// Ryuk needs privileged mode with podman.
	if os.Getenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED") == "" {
		os.Setenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED", "true")
	}
}

// setupTestDB starts a PostgreSQL container and returns a connected Store.
// Tests are skipped if no container runtime is available.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}

	if _, err := exec.LookPath("podman"); err != nil {
		t.Skip("podman not found, skipping integration tests")
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("dojo_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container (is podman running?): %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// seedUser inserts a user and returns a context scoped to it.
func seedUser(t *testing.T, store *Store, email string) (api.User, context.Context) {
	t.Helper()

	u, err := store.AddUser(context.Background(), api.User{
		Email:        email,
		PasswordHash: "$2a$10$notcheckedhere",
		Role:         "admin",
		DojoName:     "Academia " + email,
	})
	if err != nil {
		t.Fatalf("seeding user %s: %v", email, err)
	}
	return u, storage.SetTenant(context.Background(), u.ID)
}

func TestPostgres_GetUserByEmail(t *testing.T) {
	store := setupTestDB(t)

	u, _ := seedUser(t, store, "owner@dojo.com")

	got, err := store.GetUserByEmail(context.Background(), "OWNER@dojo.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.ID != u.ID || got.Email != "owner@dojo.com" {
		t.Errorf("got user %+v, want id=%d email=owner@dojo.com", got, u.ID)
	}

	if _, err := store.GetUserByEmail(context.Background(), "missing@dojo.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown email error = %v, want ErrNotFound", err)
	}
}

func TestPostgres_StudentLifecycle(t *testing.T) {
	store := setupTestDB(t)

	_, ctxA := seedUser(t, store, "a@dojo.com")
	_, ctxB := seedUser(t, store, "b@dojo.com")

	// Create for A: client-supplied user_id must be ignored.
	created, err := store.CreateStudent(ctxA, &api.Student{
		Name:     "Ana",
		Whatsapp: "+5511987654321",
		Modality: "judo",
		UserID:   9999,
	})
	if err != nil {
		t.Fatalf("CreateStudent() error = %v", err)
	}
	if created.UserID == 9999 {
		t.Error("client-supplied user_id was honored")
	}
	if created.ID == 0 {
		t.Error("created student has no id")
	}

	// B never sees A's students.
	bStudents, err := store.ListStudents(ctxB)
	if err != nil {
		t.Fatalf("ListStudents(B) error = %v", err)
	}
	if len(bStudents) != 0 {
		t.Errorf("tenant B sees %d foreign students", len(bStudents))
	}

	// B updating A's student is indistinguishable from a missing record.
	if _, err := store.UpdateStudent(ctxB, created.ID, created); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("cross-tenant update error = %v, want ErrNotFound", err)
	}

	// A's own update succeeds.
	created.Status = "ativo"
	updated, err := store.UpdateStudent(ctxA, created.ID, created)
	if err != nil {
		t.Fatalf("UpdateStudent() error = %v", err)
	}
	if updated.Status != "ativo" {
		t.Errorf("Status = %q, want %q", updated.Status, "ativo")
	}

	// Payments patch is idempotent and leaves other fields alone.
	patch := map[string]string{"2026-08": "pago"}
	first, err := store.UpdatePayments(ctxA, created.ID, patch)
	if err != nil {
		t.Fatalf("UpdatePayments() error = %v", err)
	}
	second, err := store.UpdatePayments(ctxA, created.ID, patch)
	if err != nil {
		t.Fatalf("UpdatePayments() repeat error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated patch differs:\nfirst  %+v\nsecond %+v", first, second)
	}
	if second.Whatsapp != "+5511987654321" {
		t.Errorf("patch touched non-payment field: %+v", second)
	}
}

func TestPostgres_ListOrdering(t *testing.T) {
	store := setupTestDB(t)

	_, ctx := seedUser(t, store, "order@dojo.com")

	for _, name := range []string{"Carla", "Ana", "Bruno"} {
		if _, err := store.CreateStudent(ctx, &api.Student{Name: name}); err != nil {
			t.Fatalf("CreateStudent(%s) error = %v", name, err)
		}
	}

	students, err := store.ListStudents(ctx)
	if err != nil {
		t.Fatalf("ListStudents() error = %v", err)
	}

	var names []string
	for _, st := range students {
		names = append(names, st.Name)
	}
	want := []string{"Ana", "Bruno", "Carla"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
}

func TestPostgres_Configs(t *testing.T) {
	store := setupTestDB(t)

	_, ctx := seedUser(t, store, "cfg@dojo.com")

	// Absent rows return the documented defaults.
	dojoCfg, err := store.GetDojoConfig(ctx)
	if err != nil {
		t.Fatalf("GetDojoConfig() error = %v", err)
	}
	if len(dojoCfg.Modalities) != 0 || len(dojoCfg.Instructors) != 0 {
		t.Errorf("default dojo config not empty: %+v", dojoCfg)
	}

	finCfg, err := store.GetFinancialConfig(ctx)
	if err != nil {
		t.Fatalf("GetFinancialConfig() error = %v", err)
	}
	if len(finCfg) != 0 {
		t.Errorf("default financial config not empty: %+v", finCfg)
	}

	// Upsert twice: second save replaces the first.
	if err := store.SaveDojoConfig(ctx, &api.DojoConfig{
		Modalities:  map[string]string{"judo": "Judô"},
		Instructors: map[string]string{"judo": "Kimura"},
	}); err != nil {
		t.Fatalf("SaveDojoConfig() error = %v", err)
	}
	if err := store.SaveDojoConfig(ctx, &api.DojoConfig{
		Modalities:  map[string]string{"bjj": "Jiu-Jitsu"},
		Instructors: map[string]string{},
	}); err != nil {
		t.Fatalf("SaveDojoConfig() second error = %v", err)
	}

	dojoCfg, err = store.GetDojoConfig(ctx)
	if err != nil {
		t.Fatalf("GetDojoConfig() error = %v", err)
	}
	if dojoCfg.Modalities["bjj"] != "Jiu-Jitsu" || len(dojoCfg.Modalities) != 1 {
		t.Errorf("second save did not replace: %+v", dojoCfg.Modalities)
	}

	if err := store.SaveFinancialConfig(ctx, api.FinancialConfig{"mensalidade": 150.0}); err != nil {
		t.Fatalf("SaveFinancialConfig() error = %v", err)
	}
	finCfg, err = store.GetFinancialConfig(ctx)
	if err != nil {
		t.Fatalf("GetFinancialConfig() error = %v", err)
	}
	if finCfg["mensalidade"] != 150.0 {
		t.Errorf("financial config = %v", finCfg)
	}
}

func TestPostgres_NoTenant(t *testing.T) {
	store := setupTestDB(t)

	if _, err := store.ListStudents(context.Background()); !errors.Is(err, storage.ErrNoTenant) {
		t.Errorf("ListStudents without tenant error = %v, want ErrNoTenant", err)
	}
}
