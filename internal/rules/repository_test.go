package rules

import (
	"database/sql"
	"errors"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the rules schema applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "rules-test-*.db")
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
		CREATE TABLE personnel (id TEXT PRIMARY KEY, name TEXT NOT NULL) STRICT;
		CREATE TABLE access_points (id TEXT PRIMARY KEY, name TEXT NOT NULL) STRICT;
		CREATE TABLE time_schedules (id TEXT PRIMARY KEY, name TEXT NOT NULL) STRICT;

		CREATE TABLE access_groups (
			id TEXT PRIMARY KEY,
			org_id TEXT,
			name TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE access_group_items (
			group_id TEXT NOT NULL,
			access_point_id TEXT NOT NULL,
			PRIMARY KEY (group_id, access_point_id),
			FOREIGN KEY (group_id) REFERENCES access_groups(id) ON DELETE CASCADE,
			FOREIGN KEY (access_point_id) REFERENCES access_points(id) ON DELETE CASCADE
		) STRICT;

		CREATE TABLE access_rules (
			id TEXT PRIMARY KEY,
			org_id TEXT,
			name TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE access_rule_items (
			id TEXT PRIMARY KEY,
			rule_id TEXT NOT NULL,
			access_point_id TEXT,
			access_group_id TEXT,
			schedule_id TEXT NOT NULL,
			FOREIGN KEY (rule_id) REFERENCES access_rules(id) ON DELETE CASCADE,
			CHECK ((access_point_id IS NULL) <> (access_group_id IS NULL))
		) STRICT;

		CREATE TABLE access_grants (
			personnel_id TEXT NOT NULL,
			rule_id TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			PRIMARY KEY (personnel_id, rule_id),
			FOREIGN KEY (personnel_id) REFERENCES personnel(id) ON DELETE CASCADE,
			FOREIGN KEY (rule_id) REFERENCES access_rules(id) ON DELETE CASCADE
		) STRICT;

		CREATE TABLE interlocks (
			id TEXT PRIMARY KEY,
			org_id TEXT,
			name TEXT NOT NULL,
			release_timeout_seconds INTEGER,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE interlock_access_points (
			interlock_id TEXT NOT NULL,
			access_point_id TEXT NOT NULL UNIQUE,
			PRIMARY KEY (interlock_id, access_point_id),
			FOREIGN KEY (interlock_id) REFERENCES interlocks(id) ON DELETE CASCADE,
			FOREIGN KEY (access_point_id) REFERENCES access_points(id) ON DELETE CASCADE
		) STRICT;

		INSERT INTO personnel (id, name) VALUES ('per-1', 'Alice'), ('per-2', 'Bob');
		INSERT INTO access_points (id, name) VALUES
			('door-1', 'Door 1'), ('door-2', 'Door 2'), ('door-3', 'Door 3');
		INSERT INTO time_schedules (id, name) VALUES ('sch-1', 'Always');
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("creating rules schema: %v", err)
	}

	return db
}

func TestGroupLifecycle(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)
	ctx := t.Context()

	g := &AccessGroup{ID: "grp-1", Name: "Perimeter", PointIDs: []string{"door-1", "door-2"}}
	if err := repo.CreateGroup(ctx, g); err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}

	got, err := repo.GetGroup(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGroup() error = %v", err)
	}
	if len(got.PointIDs) != 2 {
		t.Errorf("PointIDs = %v, want 2 members", got.PointIDs)
	}

	if err := repo.SetGroupMembers(ctx, g.ID, []string{"door-3"}); err != nil {
		t.Fatalf("SetGroupMembers() error = %v", err)
	}
	got, err = repo.GetGroup(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGroup() after SetGroupMembers error = %v", err)
	}
	if len(got.PointIDs) != 1 || got.PointIDs[0] != "door-3" {
		t.Errorf("PointIDs = %v, want [door-3]", got.PointIDs)
	}

	if err := repo.DeleteGroup(ctx, g.ID); err != nil {
		t.Fatalf("DeleteGroup() error = %v", err)
	}
	if _, err := repo.GetGroup(ctx, g.ID); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("GetGroup() after delete error = %v, want ErrGroupNotFound", err)
	}
}

func TestRuleWithItems(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)
	ctx := t.Context()

	g := &AccessGroup{ID: "grp-all", Name: "All Doors", PointIDs: []string{"door-1", "door-2", "door-3"}}
	if err := repo.CreateGroup(ctx, g); err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}

	point := "door-1"
	group := "grp-all"
	rule := &AccessRule{
		ID:   "rul-1",
		Name: "Staff Access",
		Items: []RuleItem{
			{ID: "rli-1", RuleID: "rul-1", AccessPointID: &point, ScheduleID: "sch-1"},
			{ID: "rli-2", RuleID: "rul-1", AccessGroupID: &group, ScheduleID: "sch-1"},
		},
	}
	for i := range rule.Items {
		if err := ValidateItem(&rule.Items[i]); err != nil {
			t.Fatalf("ValidateItem(#%d) error = %v", i, err)
		}
	}
	if err := repo.CreateRule(ctx, rule); err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}

	got, err := repo.GetRule(ctx, rule.ID)
	if err != nil {
		t.Fatalf("GetRule() error = %v", err)
	}
	if len(got.Items) != 2 {
		t.Fatalf("Items = %d, want 2", len(got.Items))
	}

	var pointItems, groupItems int
	for _, item := range got.Items {
		if item.AccessPointID != nil {
			pointItems++
		}
		if item.AccessGroupID != nil {
			groupItems++
		}
	}
	if pointItems != 1 || groupItems != 1 {
		t.Errorf("item targets = %d point + %d group, want 1 + 1", pointItems, groupItems)
	}
}

func TestGrantLifecycle(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)
	ctx := t.Context()

	rule := &AccessRule{ID: "rul-g", Name: "Grantable"}
	if err := repo.CreateRule(ctx, rule); err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}

	if err := repo.CreateGrant(ctx, &Grant{PersonnelID: "per-1", RuleID: rule.ID}); err != nil {
		t.Fatalf("CreateGrant() error = %v", err)
	}

	grants, err := repo.ListGrantsByPersonnel(ctx, "per-1")
	if err != nil {
		t.Fatalf("ListGrantsByPersonnel() error = %v", err)
	}
	if len(grants) != 1 || grants[0].RuleID != rule.ID {
		t.Errorf("grants = %+v, want one grant of rul-g", grants)
	}

	none, err := repo.ListGrantsByPersonnel(ctx, "per-2")
	if err != nil {
		t.Fatalf("ListGrantsByPersonnel(per-2) error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("grants for ungranted person = %d, want 0", len(none))
	}

	if err := repo.DeleteGrant(ctx, "per-1", rule.ID); err != nil {
		t.Fatalf("DeleteGrant() error = %v", err)
	}
	if err := repo.DeleteGrant(ctx, "per-1", rule.ID); !errors.Is(err, ErrGrantNotFound) {
		t.Errorf("DeleteGrant() second call error = %v, want ErrGrantNotFound", err)
	}
}

func TestInterlockLifecycle(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)
	ctx := t.Context()

	timeout := 20
	il := &Interlock{
		ID:                    "ilk-mantrap",
		Name:                  "Server Room Mantrap",
		ReleaseTimeoutSeconds: &timeout,
		PointIDs:              []string{"door-1", "door-2"},
	}
	if err := repo.CreateInterlock(ctx, il); err != nil {
		t.Fatalf("CreateInterlock() error = %v", err)
	}

	got, err := repo.GetInterlock(ctx, il.ID)
	if err != nil {
		t.Fatalf("GetInterlock() error = %v", err)
	}
	if len(got.PointIDs) != 2 {
		t.Errorf("PointIDs = %v, want 2 members", got.PointIDs)
	}
	if got.ReleaseTimeoutSeconds == nil || *got.ReleaseTimeoutSeconds != 20 {
		t.Errorf("ReleaseTimeoutSeconds = %v, want 20", got.ReleaseTimeoutSeconds)
	}
}

func TestInterlock_PointInOneInterlockOnly(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)
	ctx := t.Context()

	first := &Interlock{ID: "ilk-a", Name: "A", PointIDs: []string{"door-1", "door-2"}}
	if err := repo.CreateInterlock(ctx, first); err != nil {
		t.Fatalf("CreateInterlock() error = %v", err)
	}

	second := &Interlock{ID: "ilk-b", Name: "B", PointIDs: []string{"door-2", "door-3"}}
	err := repo.CreateInterlock(ctx, second)
	if !errors.Is(err, ErrPointInterlocked) {
		t.Errorf("CreateInterlock() with shared member error = %v, want ErrPointInterlocked", err)
	}

	// Transaction rolled back: second interlock fully absent.
	if _, err := repo.GetInterlock(ctx, "ilk-b"); !errors.Is(err, ErrInterlockNotFound) {
		t.Errorf("GetInterlock(ilk-b) error = %v, want ErrInterlockNotFound", err)
	}
}
