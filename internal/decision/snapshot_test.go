package decision

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ostiary/ostiary-core/internal/accesspoint"
	"github.com/ostiary/ostiary-core/internal/directory"
	"github.com/ostiary/ostiary-core/internal/infrastructure/database"
	"github.com/ostiary/ostiary-core/internal/infrastructure/logging"
	"github.com/ostiary/ostiary-core/internal/rules"
	"github.com/ostiary/ostiary-core/internal/schedule"

	_ "github.com/ostiary/ostiary-core/migrations"
)

// countingSource hands out numbered snapshots, optionally failing.
type countingSource struct {
	mu    sync.Mutex
	loads int
	fail  bool
}

func (s *countingSource) Load(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, ErrSnapshotLoad
	}
	s.loads++
	return &Snapshot{TakenAt: time.Unix(int64(s.loads), 0)}, nil
}

func (s *countingSource) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func TestProvider_CurrentNilBeforeFirstLoad(t *testing.T) {
	p := NewProvider(&countingSource{}, time.Second, logging.Default())
	if p.Current() != nil {
		t.Error("Current() before first refresh != nil")
	}
}

func TestProvider_RefreshSwapsSnapshot(t *testing.T) {
	src := &countingSource{}
	p := NewProvider(src, time.Second, logging.Default())

	if err := p.Refresh(t.Context()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	first := p.Current()
	if first == nil {
		t.Fatal("Current() = nil after Refresh")
	}

	if err := p.Refresh(t.Context()); err != nil {
		t.Fatalf("second Refresh() error = %v", err)
	}
	if second := p.Current(); !second.TakenAt.After(first.TakenAt) {
		t.Error("Current() not replaced by second Refresh")
	}
}

func TestProvider_FailedRefreshKeepsPrevious(t *testing.T) {
	src := &countingSource{}
	p := NewProvider(src, time.Second, logging.Default())

	if err := p.Refresh(t.Context()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	kept := p.Current()

	src.setFail(true)
	if err := p.Refresh(t.Context()); !errors.Is(err, ErrSnapshotLoad) {
		t.Fatalf("Refresh() error = %v, want ErrSnapshotLoad", err)
	}
	if p.Current() != kept {
		t.Error("failed refresh replaced the previous snapshot")
	}
}

func TestProvider_InvalidateTriggersReload(t *testing.T) {
	src := &countingSource{}
	// Long interval: any reload inside the test window came from Invalidate.
	p := NewProvider(src, time.Hour, logging.Default())
	if err := p.Refresh(t.Context()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	before := p.Current()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go p.Run(ctx)

	p.Invalidate()

	deadline := time.Now().Add(2 * time.Second)
	for p.Current() == before {
		if time.Now().After(deadline) {
			t.Fatal("Invalidate() never triggered a reload")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// loaderDB opens a migrated database seeded with one small site.
func loaderDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "ostiary.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(t.Context()); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	seed := `
		INSERT INTO areas (id, name) VALUES ('area-lobby', 'Lobby'), ('area-lab', 'Lab');
		INSERT INTO personnel (id, name, access_level, antipassback_level, arming_level, is_active)
			VALUES ('per-alice', 'Alice', 3, 1, 0, 1);
		INSERT INTO credentials (id, personnel_id, factor_kind, identifier, status)
			VALUES ('crd-1', 'per-alice', 'CARD', 'CARD-1001', 'ACTIVE');

		INSERT INTO access_thresholds (id, name, min_access_level, min_antipassback_level, min_arming_level)
			VALUES ('thr-basic', 'Basic', 2, 5, 0);
		INSERT INTO auth_rules (id, name, auth_mode, is_antipassback) VALUES
			('aut-card', 'Card', 'CARD', 1),
			('aut-bad', 'Broken', 'CARD_AND_', 0);

		INSERT INTO access_points (id, name, from_area_id, to_area_id) VALUES
			('door-lab', 'Lab Door', 'area-lobby', 'area-lab'),
			('door-east', 'Mantrap East', NULL, NULL),
			('door-west', 'Mantrap West', NULL, NULL);
		INSERT INTO access_point_configs (access_point_id, entry_threshold_id, entry_auth_rule_id)
			VALUES ('door-lab', 'thr-basic', 'aut-card');

		INSERT INTO time_schedules (id, name) VALUES ('sch-week', 'Weekdays');
		INSERT INTO time_schedule_items (id, schedule_id, day_of_week, start_minute, end_minute)
			VALUES ('itm-mon', 'sch-week', 1, 0, 1440);

		INSERT INTO access_rules (id, name) VALUES ('rul-lab', 'Lab Access');
		INSERT INTO access_rule_items (id, rule_id, access_point_id, schedule_id)
			VALUES ('rli-1', 'rul-lab', 'door-lab', 'sch-week');
		INSERT INTO access_grants (personnel_id, rule_id) VALUES ('per-alice', 'rul-lab');

		INSERT INTO interlocks (id, name, release_timeout_seconds) VALUES ('ilk-gate', 'Gate', 20);
		INSERT INTO interlock_access_points (interlock_id, access_point_id) VALUES
			('ilk-gate', 'door-east'),
			('ilk-gate', 'door-west');
	`
	if _, err := db.ExecContext(t.Context(), seed); err != nil {
		t.Fatalf("seeding database: %v", err)
	}

	return db
}

func TestStoreLoader_Load(t *testing.T) {
	db := loaderDB(t)
	loader := NewStoreLoader(
		directory.NewSQLiteRepository(db.DB),
		schedule.NewSQLiteRepository(db.DB),
		accesspoint.NewSQLiteRepository(db.DB),
		rules.NewSQLiteRepository(db.DB),
		logging.Default(),
	)

	snap, err := loader.Load(t.Context())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cred, ok := snap.Credentials[FactorRef{Kind: directory.FactorCard, Identifier: "CARD-1001"}]
	if !ok || cred.PersonnelID != "per-alice" {
		t.Errorf("credential lookup by factor = %+v/%v, want alice's card", cred, ok)
	}

	card, ok := snap.AuthRules["aut-card"]
	if !ok || card.Expr == nil {
		t.Error("aut-card missing or not compiled")
	}
	bad, ok := snap.AuthRules["aut-bad"]
	if !ok {
		t.Fatal("aut-bad dropped from snapshot; must stay and fail closed")
	}
	if bad.Expr != nil {
		t.Error("aut-bad compiled despite invalid mode")
	}

	if _, ok := snap.Configs["door-lab"]; !ok {
		t.Error("door-lab config missing from snapshot")
	}
	if th, ok := snap.Thresholds["thr-basic"]; !ok || th.MinAccess != 2 {
		t.Errorf("thr-basic = %+v/%v, want MinAccess 2", th, ok)
	}

	// Monday 2026-08-24 10:00 is inside the seeded window.
	res := snap.Resolver.Resolve("per-alice", "door-lab", time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC))
	if !res.Authorized || res.RuleID != "rul-lab" || res.ScheduleID != "sch-week" {
		t.Errorf("Resolve() = %+v, want authorized via rul-lab/sch-week", res)
	}
	// Tuesday: the only item is Monday.
	if res := snap.Resolver.Resolve("per-alice", "door-lab", time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)); res.Authorized {
		t.Error("Resolve() authorized on Tuesday, want denied")
	}

	if snap.InterlockByPoint["door-east"] != "ilk-gate" || snap.InterlockByPoint["door-west"] != "ilk-gate" {
		t.Errorf("InterlockByPoint = %v, want both mantrap doors mapped to ilk-gate", snap.InterlockByPoint)
	}
	il, ok := snap.Interlocks["ilk-gate"]
	if !ok || il.ReleaseTimeoutSeconds == nil || *il.ReleaseTimeoutSeconds != 20 {
		t.Errorf("ilk-gate = %+v/%v, want release timeout 20", il, ok)
	}
}

func TestStoreLoader_EngineEndToEnd(t *testing.T) {
	db := loaderDB(t)
	loader := NewStoreLoader(
		directory.NewSQLiteRepository(db.DB),
		schedule.NewSQLiteRepository(db.DB),
		accesspoint.NewSQLiteRepository(db.DB),
		rules.NewSQLiteRepository(db.DB),
		logging.Default(),
	)
	provider := NewProvider(loader, time.Second, logging.Default())
	if err := provider.Refresh(t.Context()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	e := NewEngine(provider, 200*time.Millisecond, time.Minute, logging.Default())
	defer e.Close()

	scan := ScanEvent{
		AccessPointID: "door-lab",
		Direction:     accesspoint.DirectionEntry,
		Factors:       []ScanFactor{{Kind: directory.FactorCard, Identifier: "CARD-1001"}},
		Timestamp:     time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
	}
	if v := e.Decide(t.Context(), scan); v.Decision != Allow {
		t.Fatalf("verdict = %s/%s, want ALLOW from store-backed snapshot", v.Decision, v.Reason)
	}
	if v := e.Decide(t.Context(), scan); v.Reason != ReasonAntipassbackViolation {
		t.Errorf("repeat entry = %s/%s, want ANTIPASSBACK_VIOLATION", v.Decision, v.Reason)
	}
}
