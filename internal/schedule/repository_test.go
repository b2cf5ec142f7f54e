package schedule

import (
	"database/sql"
	"errors"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the schedule schema applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "schedule-test-*.db")
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
		CREATE TABLE time_schedules (
			id TEXT PRIMARY KEY,
			org_id TEXT,
			name TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE time_schedule_items (
			id TEXT PRIMARY KEY,
			schedule_id TEXT NOT NULL,
			day_of_week INTEGER NOT NULL,
			start_minute INTEGER NOT NULL,
			end_minute INTEGER NOT NULL,
			FOREIGN KEY (schedule_id) REFERENCES time_schedules(id) ON DELETE CASCADE,
			CHECK (day_of_week BETWEEN 1 AND 10),
			CHECK (start_minute >= 0 AND end_minute <= 1440 AND start_minute < end_minute)
		) STRICT;

		CREATE TABLE holidays (
			id TEXT PRIMARY KEY,
			org_id TEXT,
			name TEXT NOT NULL,
			month INTEGER NOT NULL,
			day INTEGER NOT NULL,
			year INTEGER,
			tier INTEGER NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			CHECK (tier BETWEEN 1 AND 3)
		) STRICT;
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("creating schedule schema: %v", err)
	}

	return db
}

func TestCreateAndGetSchedule(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)
	ctx := t.Context()

	s := &TimeSchedule{
		ID:   "sch-office",
		Name: "Office Hours",
		Items: []TimeScheduleItem{
			{ID: "sci-1", DayOfWeek: 1, StartMinute: 540, EndMinute: 1080},
			{ID: "sci-2", DayOfWeek: 2, StartMinute: 540, EndMinute: 1080},
		},
	}
	if err := repo.CreateSchedule(ctx, s); err != nil {
		t.Fatalf("CreateSchedule() error = %v", err)
	}

	got, err := repo.GetSchedule(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSchedule() error = %v", err)
	}
	if got.Name != "Office Hours" {
		t.Errorf("Name = %q, want Office Hours", got.Name)
	}
	if len(got.Items) != 2 {
		t.Fatalf("Items = %d, want 2", len(got.Items))
	}
	if got.Items[0].StartMinute != 540 {
		t.Errorf("Items[0].StartMinute = %d, want 540", got.Items[0].StartMinute)
	}
}

func TestGetSchedule_NotFound(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)

	_, err := repo.GetSchedule(t.Context(), "sch-missing")
	if !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("GetSchedule() error = %v, want ErrScheduleNotFound", err)
	}
}

func TestAddAndDeleteItem(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)
	ctx := t.Context()

	s := &TimeSchedule{ID: "sch-base", Name: "Base"}
	if err := repo.CreateSchedule(ctx, s); err != nil {
		t.Fatalf("CreateSchedule() error = %v", err)
	}

	item := &TimeScheduleItem{ID: "sci-h", ScheduleID: s.ID, DayOfWeek: 8, StartMinute: 600, EndMinute: 840}
	if err := repo.AddItem(ctx, item); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	got, err := repo.GetSchedule(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSchedule() error = %v", err)
	}
	if len(got.Items) != 1 {
		t.Fatalf("Items = %d after AddItem, want 1", len(got.Items))
	}

	if err := repo.DeleteItem(ctx, item.ID); err != nil {
		t.Fatalf("DeleteItem() error = %v", err)
	}
	if err := repo.DeleteItem(ctx, item.ID); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("DeleteItem() second call error = %v, want ErrItemNotFound", err)
	}
}

func TestDeleteSchedule_CascadesItems(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)
	ctx := t.Context()

	s := &TimeSchedule{
		ID:   "sch-gone",
		Name: "Doomed",
		Items: []TimeScheduleItem{
			{ID: "sci-gone", DayOfWeek: 5, StartMinute: 0, EndMinute: 1440},
		},
	}
	if err := repo.CreateSchedule(ctx, s); err != nil {
		t.Fatalf("CreateSchedule() error = %v", err)
	}
	if err := repo.DeleteSchedule(ctx, s.ID); err != nil {
		t.Fatalf("DeleteSchedule() error = %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM time_schedule_items WHERE schedule_id = ?", s.ID).Scan(&count); err != nil {
		t.Fatalf("counting items: %v", err)
	}
	if count != 0 {
		t.Errorf("items remaining after schedule delete = %d, want 0", count)
	}
}

func TestHolidayCRUD(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)
	ctx := t.Context()

	year := 2026
	holidays := []*Holiday{
		{ID: "hol-1", Name: "New Year", Month: 1, Day: 1, Tier: 1},
		{ID: "hol-2", Name: "Site Closure", Month: 8, Day: 24, Year: &year, Tier: 3},
	}
	for _, h := range holidays {
		if err := repo.CreateHoliday(ctx, h); err != nil {
			t.Fatalf("CreateHoliday(%s) error = %v", h.ID, err)
		}
	}

	got, err := repo.ListHolidays(ctx)
	if err != nil {
		t.Fatalf("ListHolidays() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListHolidays() = %d, want 2", len(got))
	}
	// Ordered by month, day.
	if got[0].Name != "New Year" {
		t.Errorf("first holiday = %q, want New Year", got[0].Name)
	}
	if got[1].Year == nil || *got[1].Year != 2026 {
		t.Errorf("fixed-year holiday Year = %v, want 2026", got[1].Year)
	}
	if got[0].Year != nil {
		t.Errorf("recurring holiday Year = %v, want nil", got[0].Year)
	}

	if err := repo.DeleteHoliday(ctx, "hol-1"); err != nil {
		t.Fatalf("DeleteHoliday() error = %v", err)
	}
	if err := repo.DeleteHoliday(ctx, "hol-1"); !errors.Is(err, ErrHolidayNotFound) {
		t.Errorf("DeleteHoliday() second call error = %v, want ErrHolidayNotFound", err)
	}
}
