package directory

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the directory schema applied.
// The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	f, err := os.CreateTemp("", "directory-test-*.db")
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
		CREATE TABLE organizations (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE areas (
			id TEXT PRIMARY KEY,
			org_id TEXT,
			name TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (org_id) REFERENCES organizations(id) ON DELETE CASCADE
		) STRICT;

		CREATE TABLE personnel (
			id TEXT PRIMARY KEY,
			org_id TEXT,
			name TEXT NOT NULL,
			access_level INTEGER NOT NULL DEFAULT 0,
			antipassback_level INTEGER NOT NULL DEFAULT 0,
			arming_level INTEGER NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (org_id) REFERENCES organizations(id) ON DELETE CASCADE
		) STRICT;

		CREATE TABLE credentials (
			id TEXT PRIMARY KEY,
			personnel_id TEXT NOT NULL,
			factor_kind TEXT NOT NULL,
			identifier TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'ACTIVE',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (personnel_id) REFERENCES personnel(id) ON DELETE CASCADE,
			CHECK (status IN ('ACTIVE', 'LOST', 'EXPIRED', 'SUSPENDED'))
		) STRICT;

		CREATE UNIQUE INDEX idx_credentials_factor_identifier ON credentials(factor_kind, identifier);
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("creating directory schema: %v", err)
	}

	return db
}

// seedPersonnel inserts a test person and returns it.
func seedPersonnel(t *testing.T, repo *SQLiteRepository, id, name string, levels OperatorLevel) *Personnel {
	t.Helper()

	p := &Personnel{
		ID:       id,
		Name:     name,
		Levels:   levels,
		IsActive: true,
	}
	if err := repo.CreatePersonnel(t.Context(), p); err != nil {
		t.Fatalf("creating test personnel %s: %v", id, err)
	}
	return p
}
