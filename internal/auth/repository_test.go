package auth

import (
	"database/sql"
	"errors"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ostiary/ostiary-core/internal/infrastructure/logging"
)

// testDB creates a temporary SQLite database with the operators schema applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "auth-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schemaSQL := `
		CREATE TABLE operators (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'operator',
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			CHECK (role IN ('admin', 'operator'))
		) STRICT;
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("creating operators schema: %v", err)
	}

	return db
}

func TestOperatorLifecycle(t *testing.T) {
	repo := NewSQLiteOperatorRepository(testDB(t))
	ctx := t.Context()

	op := &Operator{
		Username:     "sam",
		DisplayName:  "Sam",
		PasswordHash: "$argon2id$stub",
		Role:         RoleOperator,
		IsActive:     true,
	}
	if err := repo.Create(ctx, op); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if op.ID == "" {
		t.Fatal("Create() did not assign an ID")
	}

	got, err := repo.GetByUsername(ctx, "sam")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if got.ID != op.ID || got.Role != RoleOperator || !got.IsActive {
		t.Errorf("operator = %+v, want created values", got)
	}

	if err := repo.UpdatePassword(ctx, op.ID, "$argon2id$new"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}
	got, _ = repo.Get(ctx, op.ID)
	if got.PasswordHash != "$argon2id$new" {
		t.Errorf("PasswordHash = %q, want updated hash", got.PasswordHash)
	}

	if err := repo.SetActive(ctx, op.ID, false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	got, _ = repo.Get(ctx, op.ID)
	if got.IsActive {
		t.Error("operator still active after SetActive(false)")
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestCreate_Validation(t *testing.T) {
	repo := NewSQLiteOperatorRepository(testDB(t))
	ctx := t.Context()

	err := repo.Create(ctx, &Operator{Username: "bad name!", Role: RoleOperator, PasswordHash: "h", DisplayName: "x"})
	if !errors.Is(err, ErrInvalidUsername) {
		t.Errorf("Create(bad username) error = %v, want ErrInvalidUsername", err)
	}

	err = repo.Create(ctx, &Operator{Username: "fine", Role: "superuser", PasswordHash: "h", DisplayName: "x"})
	if !errors.Is(err, ErrInvalidRole) {
		t.Errorf("Create(bad role) error = %v, want ErrInvalidRole", err)
	}
}

func TestCreate_DuplicateUsername(t *testing.T) {
	repo := NewSQLiteOperatorRepository(testDB(t))
	ctx := t.Context()

	first := &Operator{Username: "sam", DisplayName: "Sam", PasswordHash: "h", Role: RoleAdmin, IsActive: true}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	dup := &Operator{Username: "sam", DisplayName: "Other Sam", PasswordHash: "h", Role: RoleOperator}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrUsernameExists) {
		t.Errorf("Create(duplicate) error = %v, want ErrUsernameExists", err)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := NewSQLiteOperatorRepository(testDB(t))
	ctx := t.Context()

	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	op := &Operator{Username: "sam", DisplayName: "Sam", PasswordHash: hash, Role: RoleAdmin, IsActive: true}
	if err := repo.Create(ctx, op); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := Authenticate(ctx, repo, "sam", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got.ID != op.ID {
		t.Errorf("authenticated ID = %q, want %q", got.ID, op.ID)
	}

	if _, err := Authenticate(ctx, repo, "sam", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate(wrong password) error = %v, want ErrInvalidCredentials", err)
	}
	// Unknown user reads the same as a wrong password.
	if _, err := Authenticate(ctx, repo, "nobody", "hunter2hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate(unknown user) error = %v, want ErrInvalidCredentials", err)
	}

	if err := repo.SetActive(ctx, op.ID, false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	if _, err := Authenticate(ctx, repo, "sam", "hunter2hunter2"); !errors.Is(err, ErrOperatorInactive) {
		t.Errorf("Authenticate(inactive) error = %v, want ErrOperatorInactive", err)
	}
}

func TestSeedAdmin(t *testing.T) {
	repo := NewSQLiteOperatorRepository(testDB(t))
	ctx := t.Context()

	password, err := SeedAdmin(ctx, repo, logging.Default())
	if err != nil {
		t.Fatalf("SeedAdmin() error = %v", err)
	}
	if password == "" {
		t.Fatal("SeedAdmin() returned empty password on first boot")
	}

	admin, err := repo.GetByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetByUsername(admin) error = %v", err)
	}
	if admin.Role != RoleAdmin || !admin.IsActive {
		t.Errorf("seed admin = %+v, want active admin", admin)
	}

	if _, err := Authenticate(ctx, repo, "admin", password); err != nil {
		t.Errorf("Authenticate() with seed password error = %v", err)
	}

	// Second boot: operators exist, no reseed.
	password, err = SeedAdmin(ctx, repo, logging.Default())
	if err != nil {
		t.Fatalf("second SeedAdmin() error = %v", err)
	}
	if password != "" {
		t.Error("SeedAdmin() reseeded on a populated database")
	}
}
