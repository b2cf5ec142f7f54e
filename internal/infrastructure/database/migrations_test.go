package database

import (
	"context"
	"embed"
	"testing"
)

//go:embed testdata/*.sql
var testMigrationsFS embed.FS

// withTestMigrations swaps in the test migration filesystem for the duration
// of a test and restores the original afterwards.
func withTestMigrations(t *testing.T) {
	t.Helper()
	origFS := MigrationsFS
	origDir := MigrationsDir
	t.Cleanup(func() {
		MigrationsFS = origFS
		MigrationsDir = origDir
	})
	MigrationsFS = testMigrationsFS
	MigrationsDir = "testdata"
}

func TestMigrate_AppliesAllPending(t *testing.T) {
	withTestMigrations(t)
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// Both migrations applied: table exists with the added column.
	if _, err := db.ExecContext(ctx, "INSERT INTO badges (id, label, colour) VALUES ('b1', 'visitor', 'blue')"); err != nil {
		t.Fatalf("inserting into migrated table: %v", err)
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("applied = %d migrations, want 2", len(applied))
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d migrations, want 0", len(pending))
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	withTestMigrations(t)
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("first Migrate() error = %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrateDown_RollsBackLatest(t *testing.T) {
	withTestMigrations(t)
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 1 {
		t.Errorf("applied = %d migrations after rollback, want 1", len(applied))
	}
	if len(pending) != 1 {
		t.Errorf("pending = %d migrations after rollback, want 1", len(pending))
	}

	// The colour column is gone again.
	if _, err := db.ExecContext(ctx, "INSERT INTO badges (id, label, colour) VALUES ('b2', 'staff', 'red')"); err == nil {
		t.Error("expected insert with rolled-back column to fail")
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		wantVersion string
		wantUp      bool
		wantOK      bool
	}{
		{"20260301_000000_create_badges.up.sql", "20260301_000000", true, true},
		{"20260301_000000_create_badges.down.sql", "20260301_000000", false, true},
		{"README.md", "", false, false},
		{"schema.sql", "", false, false},
	}

	for _, tt := range tests {
		version, isUp, ok := parseMigrationFilename(tt.name)
		if ok != tt.wantOK {
			t.Errorf("parseMigrationFilename(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if version != tt.wantVersion {
			t.Errorf("parseMigrationFilename(%q) version = %q, want %q", tt.name, version, tt.wantVersion)
		}
		if isUp != tt.wantUp {
			t.Errorf("parseMigrationFilename(%q) isUp = %v, want %v", tt.name, isUp, tt.wantUp)
		}
	}
}
