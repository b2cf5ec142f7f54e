package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ostiary/ostiary-core/internal/accesspoint"
	"github.com/ostiary/ostiary-core/internal/audit"
	"github.com/ostiary/ostiary-core/internal/auth"
	"github.com/ostiary/ostiary-core/internal/decision"
	"github.com/ostiary/ostiary-core/internal/directory"
	"github.com/ostiary/ostiary-core/internal/infrastructure/config"
	"github.com/ostiary/ostiary-core/internal/infrastructure/database"
	"github.com/ostiary/ostiary-core/internal/infrastructure/logging"
	"github.com/ostiary/ostiary-core/internal/rules"
	"github.com/ostiary/ostiary-core/internal/schedule"

	_ "github.com/ostiary/ostiary-core/migrations"
)

const (
	testAdminUser     = "root"
	testAdminPassword = "test-admin-password"
)

// testEnv wires a full API server against a migrated temporary database.
type testEnv struct {
	srv        *Server
	ts         *httptest.Server
	db         *database.DB
	provider   *decision.Provider
	audit      audit.Repository
	adminToken string
}

func newTestEnv(t *testing.T) *testEnv {
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

	dirRepo := directory.NewSQLiteRepository(db.DB)
	schRepo := schedule.NewSQLiteRepository(db.DB)
	ptRepo := accesspoint.NewSQLiteRepository(db.DB)
	rlRepo := rules.NewSQLiteRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)
	opRepo := auth.NewSQLiteOperatorRepository(db.DB)

	hash, err := auth.HashPassword(testAdminPassword)
	if err != nil {
		t.Fatalf("hashing admin password: %v", err)
	}
	admin := &auth.Operator{
		Username:     testAdminUser,
		DisplayName:  "Root",
		PasswordHash: hash,
		Role:         auth.RoleAdmin,
		IsActive:     true,
	}
	if err := opRepo.Create(t.Context(), admin); err != nil {
		t.Fatalf("creating admin operator: %v", err)
	}

	log := logging.Default()
	loader := decision.NewStoreLoader(dirRepo, schRepo, ptRepo, rlRepo, log)
	provider := decision.NewProvider(loader, time.Hour, log)
	if err := provider.Refresh(t.Context()); err != nil {
		t.Fatalf("loading initial snapshot: %v", err)
	}

	engine := decision.NewEngine(provider, 200*time.Millisecond, time.Minute, log)
	t.Cleanup(engine.Close)

	srv, err := New(Deps{
		Config: config.APIConfig{},
		WS:     config.WebSocketConfig{MaxMessageSize: 4096, PingInterval: 30, PongTimeout: 60},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{Secret: "test-secret", AccessTokenTTL: 15},
		},
		Logger:    log,
		Directory: dirRepo,
		Schedules: schRepo,
		Points:    ptRepo,
		Rules:     rlRepo,
		Audit:     auditRepo,
		Operators: opRepo,
		Engine:    engine,
		Snapshots: provider,
		Version:   "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(ts.Close)

	env := &testEnv{srv: srv, ts: ts, db: db, provider: provider, audit: auditRepo}
	env.adminToken = env.login(t, testAdminUser, testAdminPassword)
	return env
}

// login authenticates through the API and returns the bearer token.
func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()

	resp := e.do(t, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": username, "password": password})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	return body.AccessToken
}

// do performs an HTTP request against the test server.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req, err := http.NewRequestWithContext(t.Context(), method, e.ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// decode reads and closes the response body into v.
func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/health", "", nil)
	var body map[string]any
	decode(t, resp, &body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("health body = %v", body)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": testAdminUser, "password": "wrong"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/personnel", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status without token = %d, want 401", resp.StatusCode)
	}

	resp = env.do(t, http.MethodGet, "/api/v1/personnel", "not-a-token", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status with garbage token = %d, want 401", resp.StatusCode)
	}
}

func TestPersonnelCRUD(t *testing.T) {
	env := newTestEnv(t)

	// Create
	resp := env.do(t, http.MethodPost, "/api/v1/personnel", env.adminToken, map[string]any{
		"name":   "Alice",
		"levels": map[string]int{"access_level": 3, "antipassback_level": 1},
	})
	var created directory.Personnel
	decode(t, resp, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	if created.ID == "" || !created.IsActive || created.Levels.Access != 3 {
		t.Errorf("created = %+v", created)
	}

	// Get
	resp = env.do(t, http.MethodGet, "/api/v1/personnel/"+created.ID, env.adminToken, nil)
	var got directory.Personnel
	decode(t, resp, &got)
	if got.Name != "Alice" {
		t.Errorf("Name = %q, want Alice", got.Name)
	}

	// Patch
	resp = env.do(t, http.MethodPatch, "/api/v1/personnel/"+created.ID, env.adminToken,
		map[string]any{"name": "Alice Zhang"})
	var patched directory.Personnel
	decode(t, resp, &patched)
	if patched.Name != "Alice Zhang" || patched.Levels.Access != 3 {
		t.Errorf("patched = %+v, want renamed with levels intact", patched)
	}

	// Deactivate
	resp = env.do(t, http.MethodDelete, "/api/v1/personnel/"+created.ID, env.adminToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("deactivate status = %d, want 204", resp.StatusCode)
	}
	resp = env.do(t, http.MethodGet, "/api/v1/personnel/"+created.ID, env.adminToken, nil)
	decode(t, resp, &got)
	if got.IsActive {
		t.Error("personnel still active after deactivation")
	}

	// Unknown ID
	resp = env.do(t, http.MethodGet, "/api/v1/personnel/nope", env.adminToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get unknown status = %d, want 404", resp.StatusCode)
	}
}

func TestOperatorRoleCannotWrite(t *testing.T) {
	env := newTestEnv(t)

	hash, err := auth.HashPassword("operator-password-1")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	op := &auth.Operator{
		Username:     "watcher",
		DisplayName:  "Watcher",
		PasswordHash: hash,
		Role:         auth.RoleOperator,
		IsActive:     true,
	}
	if err := env.srv.operators.Create(t.Context(), op); err != nil {
		t.Fatalf("creating operator: %v", err)
	}
	token := env.login(t, "watcher", "operator-password-1")

	// Reads are allowed
	resp := env.do(t, http.MethodGet, "/api/v1/personnel", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("read status = %d, want 200", resp.StatusCode)
	}

	// Writes are not
	resp = env.do(t, http.MethodPost, "/api/v1/personnel", token, map[string]any{"name": "Eve"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("write status = %d, want 403", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPost, "/api/v1/antipassback/reset", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("reset status = %d, want 403", resp.StatusCode)
	}
}

func TestCreateAuthRule_RejectsBadMode(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/auth-rules", env.adminToken, map[string]any{
		"name":      "Broken",
		"auth_mode": "CARD_AND_",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateCredential_UnknownOwner(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/credentials", env.adminToken, map[string]any{
		"personnel_id": "per-ghost",
		"factor_kind":  "CARD",
		"identifier":   "CARD-1",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

// seedSite configures a minimal door through the API: one person with a
// card, an always-open schedule, and a rule granting the person the door.
func (e *testEnv) seedSite(t *testing.T) (personnelID, pointID string) {
	t.Helper()

	var person directory.Personnel
	decode(t, e.do(t, http.MethodPost, "/api/v1/personnel", e.adminToken, map[string]any{
		"name":   "Alice",
		"levels": map[string]int{"access_level": 3},
	}), &person)

	resp := e.do(t, http.MethodPost, "/api/v1/credentials", e.adminToken, map[string]any{
		"personnel_id": person.ID,
		"factor_kind":  "CARD",
		"identifier":   "CARD-1001",
	})
	resp.Body.Close()

	var th accesspoint.Threshold
	decode(t, e.do(t, http.MethodPost, "/api/v1/thresholds", e.adminToken, map[string]any{
		"name":             "Standard",
		"min_access_level": 2,
	}), &th)

	var rule accesspoint.AuthRule
	decode(t, e.do(t, http.MethodPost, "/api/v1/auth-rules", e.adminToken, map[string]any{
		"name":      "Card only",
		"auth_mode": "CARD",
	}), &rule)

	var point accesspoint.AccessPoint
	decode(t, e.do(t, http.MethodPost, "/api/v1/points", e.adminToken, map[string]any{
		"name": "Lab Door",
	}), &point)

	resp = e.do(t, http.MethodPut, fmt.Sprintf("/api/v1/points/%s/config", point.ID), e.adminToken, map[string]any{
		"entry_threshold_id": th.ID,
		"entry_auth_rule_id": rule.ID,
	})
	resp.Body.Close()

	var sched schedule.TimeSchedule
	items := make([]map[string]any, 0, 10)
	for day := 1; day <= 10; day++ {
		items = append(items, map[string]any{
			"day_of_week": day, "start_minute": 0, "end_minute": 1440,
		})
	}
	decode(t, e.do(t, http.MethodPost, "/api/v1/schedules", e.adminToken, map[string]any{
		"name":  "Always",
		"items": items,
	}), &sched)

	var accessRule rules.AccessRule
	decode(t, e.do(t, http.MethodPost, "/api/v1/rules", e.adminToken, map[string]any{
		"name": "Lab access",
		"items": []map[string]any{
			{"access_point_id": point.ID, "schedule_id": sched.ID},
		},
	}), &accessRule)

	resp = e.do(t, http.MethodPost, "/api/v1/grants", e.adminToken, map[string]any{
		"personnel_id": person.ID,
		"rule_id":      accessRule.ID,
	})
	resp.Body.Close()

	// The refresh loop isn't running in tests; pick up the writes directly.
	if err := e.provider.Refresh(t.Context()); err != nil {
		t.Fatalf("refreshing snapshot: %v", err)
	}
	return person.ID, point.ID
}

func TestSimulate(t *testing.T) {
	env := newTestEnv(t)
	personnelID, pointID := env.seedSite(t)

	resp := env.do(t, http.MethodPost, "/api/v1/decisions/simulate", env.adminToken, map[string]any{
		"access_point_id": pointID,
		"direction":       "ENTRY",
		"factors":         []map[string]string{{"factor_kind": "CARD", "identifier": "CARD-1001"}},
	})
	var verdict decision.Verdict
	decode(t, resp, &verdict)

	if verdict.Decision != decision.Allow {
		t.Fatalf("verdict = %s (%s), want ALLOW", verdict.Decision, verdict.Reason)
	}
	if !verdict.Simulated {
		t.Error("verdict not marked simulated")
	}
	if verdict.PersonnelID != personnelID {
		t.Errorf("PersonnelID = %q, want %q", verdict.PersonnelID, personnelID)
	}

	// Unknown card denies
	resp = env.do(t, http.MethodPost, "/api/v1/decisions/simulate", env.adminToken, map[string]any{
		"access_point_id": pointID,
		"factors":         []map[string]string{{"factor_kind": "CARD", "identifier": "CARD-9999"}},
	})
	decode(t, resp, &verdict)
	if verdict.Decision != decision.Deny || verdict.Reason != decision.ReasonUnknownCredential {
		t.Errorf("verdict = %s (%s), want DENY UNKNOWN_CREDENTIAL", verdict.Decision, verdict.Reason)
	}

	// Bad direction rejected
	resp = env.do(t, http.MethodPost, "/api/v1/decisions/simulate", env.adminToken, map[string]any{
		"access_point_id": pointID,
		"direction":       "SIDEWAYS",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad direction status = %d, want 400", resp.StatusCode)
	}
}

func TestListEvents(t *testing.T) {
	env := newTestEnv(t)

	base := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	seed := []audit.Event{
		{ID: "evt-1", OccurredAt: base, AccessPointID: "door-lab", Direction: "ENTRY", Decision: "ALLOW", Reason: "OK"},
		{ID: "evt-2", OccurredAt: base.Add(time.Hour), AccessPointID: "door-lab", Direction: "ENTRY", Decision: "DENY", Reason: "ANTIPASSBACK_VIOLATION"},
		{ID: "evt-3", OccurredAt: base.Add(2 * time.Hour), AccessPointID: "door-vault", Direction: "EXIT", Decision: "DENY", Reason: "NO_ACCESS_RULE"},
	}
	for i := range seed {
		if err := env.audit.Record(t.Context(), &seed[i]); err != nil {
			t.Fatalf("seeding event: %v", err)
		}
	}

	resp := env.do(t, http.MethodGet, "/api/v1/events?decision=DENY", env.adminToken, nil)
	var events []audit.Event
	decode(t, resp, &events)
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	// Newest first
	if events[0].ID != "evt-3" {
		t.Errorf("events[0].ID = %q, want evt-3", events[0].ID)
	}

	resp = env.do(t, http.MethodGet, "/api/v1/events?access_point_id=door-lab&limit=1", env.adminToken, nil)
	decode(t, resp, &events)
	if len(events) != 1 || events[0].ID != "evt-2" {
		t.Errorf("filtered events = %+v, want just evt-2", events)
	}

	resp = env.do(t, http.MethodGet, "/api/v1/events?since=banana", env.adminToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad since status = %d, want 400", resp.StatusCode)
	}
}

func TestAntipassbackReset(t *testing.T) {
	env := newTestEnv(t)

	tracker := env.srv.engine.Tracker()
	tracker.Commit("per-alice", strp("area-lab"))
	if tracker.TrackedCount() != 1 {
		t.Fatal("expected one tracked person")
	}

	resp := env.do(t, http.MethodPost, "/api/v1/antipassback/reset", env.adminToken,
		map[string]string{"personnel_id": "per-alice"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if tracker.TrackedCount() != 0 {
		t.Error("tracker still has state after reset")
	}
}

func strp(s string) *string { return &s }
