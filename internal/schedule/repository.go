package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for schedule persistence operations.
type Repository interface {
	CreateSchedule(ctx context.Context, s *TimeSchedule) error
	GetSchedule(ctx context.Context, id string) (*TimeSchedule, error)
	ListSchedules(ctx context.Context) ([]TimeSchedule, error)
	DeleteSchedule(ctx context.Context, id string) error

	AddItem(ctx context.Context, item *TimeScheduleItem) error
	DeleteItem(ctx context.Context, id string) error

	CreateHoliday(ctx context.Context, h *Holiday) error
	ListHolidays(ctx context.Context) ([]Holiday, error)
	DeleteHoliday(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed schedule repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreateSchedule inserts a schedule and any attached items in one transaction.
func (r *SQLiteRepository) CreateSchedule(ctx context.Context, s *TimeSchedule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning schedule transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const query = `INSERT INTO time_schedules (id, org_id, name) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query, s.ID, nullStr(s.OrgID), s.Name); err != nil {
		return fmt.Errorf("inserting schedule %s: %w", s.ID, err)
	}

	const itemQuery = `INSERT INTO time_schedule_items
		(id, schedule_id, day_of_week, start_minute, end_minute)
		VALUES (?, ?, ?, ?, ?)`
	for i := range s.Items {
		item := &s.Items[i]
		if _, err := tx.ExecContext(ctx, itemQuery,
			item.ID, s.ID, item.DayOfWeek, item.StartMinute, item.EndMinute); err != nil {
			return fmt.Errorf("inserting schedule item %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

// GetSchedule returns a schedule with its items loaded.
func (r *SQLiteRepository) GetSchedule(ctx context.Context, id string) (*TimeSchedule, error) {
	const query = `SELECT id, org_id, name, created_at FROM time_schedules WHERE id = ?`
	var s TimeSchedule
	var orgID sql.NullString
	var createdAt string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &orgID, &s.Name, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("scanning schedule: %w", err)
	}
	if orgID.Valid {
		s.OrgID = &orgID.String
	}
	s.CreatedAt = parseTime(createdAt)

	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Items = items
	return &s, nil
}

// ListSchedules returns all schedules with their items loaded.
func (r *SQLiteRepository) ListSchedules(ctx context.Context) ([]TimeSchedule, error) {
	const query = `SELECT id, org_id, name, created_at FROM time_schedules ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying schedules: %w", err)
	}
	defer rows.Close()

	var schedules []TimeSchedule
	for rows.Next() {
		var s TimeSchedule
		var orgID sql.NullString
		var createdAt string
		if err := rows.Scan(&s.ID, &orgID, &s.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning schedule row: %w", err)
		}
		if orgID.Valid {
			s.OrgID = &orgID.String
		}
		s.CreatedAt = parseTime(createdAt)
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schedule rows: %w", err)
	}

	for i := range schedules {
		items, err := r.listItems(ctx, schedules[i].ID)
		if err != nil {
			return nil, err
		}
		schedules[i].Items = items
	}
	return schedules, nil
}

// DeleteSchedule removes a schedule; items cascade.
func (r *SQLiteRepository) DeleteSchedule(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM time_schedules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting schedule %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// AddItem appends a window to an existing schedule.
func (r *SQLiteRepository) AddItem(ctx context.Context, item *TimeScheduleItem) error {
	const query = `INSERT INTO time_schedule_items
		(id, schedule_id, day_of_week, start_minute, end_minute)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.ScheduleID, item.DayOfWeek, item.StartMinute, item.EndMinute)
	if err != nil {
		return fmt.Errorf("inserting schedule item %s: %w", item.ID, err)
	}
	return nil
}

// DeleteItem removes a single schedule item.
func (r *SQLiteRepository) DeleteItem(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM time_schedule_items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting schedule item %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// CreateHoliday inserts a holiday.
func (r *SQLiteRepository) CreateHoliday(ctx context.Context, h *Holiday) error {
	const query = `INSERT INTO holidays (id, org_id, name, month, day, year, tier)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		h.ID, nullStr(h.OrgID), h.Name, h.Month, h.Day, nullInt(h.Year), h.Tier)
	if err != nil {
		return fmt.Errorf("inserting holiday %s: %w", h.ID, err)
	}
	return nil
}

// ListHolidays returns all holidays.
func (r *SQLiteRepository) ListHolidays(ctx context.Context) ([]Holiday, error) {
	const query = `SELECT id, org_id, name, month, day, year, tier, created_at
		FROM holidays ORDER BY month, day`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying holidays: %w", err)
	}
	defer rows.Close()

	var holidays []Holiday
	for rows.Next() {
		var h Holiday
		var orgID sql.NullString
		var year sql.NullInt64
		var createdAt string
		if err := rows.Scan(&h.ID, &orgID, &h.Name, &h.Month, &h.Day, &year, &h.Tier, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning holiday row: %w", err)
		}
		if orgID.Valid {
			h.OrgID = &orgID.String
		}
		if year.Valid {
			y := int(year.Int64)
			h.Year = &y
		}
		h.CreatedAt = parseTime(createdAt)
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating holiday rows: %w", err)
	}
	return holidays, nil
}

// DeleteHoliday removes a holiday by ID.
func (r *SQLiteRepository) DeleteHoliday(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting holiday %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrHolidayNotFound
	}
	return nil
}

// listItems loads all items for a schedule.
func (r *SQLiteRepository) listItems(ctx context.Context, scheduleID string) ([]TimeScheduleItem, error) {
	const query = `SELECT id, schedule_id, day_of_week, start_minute, end_minute
		FROM time_schedule_items WHERE schedule_id = ?
		ORDER BY day_of_week, start_minute`
	rows, err := r.db.QueryContext(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("querying schedule items: %w", err)
	}
	defer rows.Close()

	var items []TimeScheduleItem
	for rows.Next() {
		var item TimeScheduleItem
		if err := rows.Scan(&item.ID, &item.ScheduleID, &item.DayOfWeek,
			&item.StartMinute, &item.EndMinute); err != nil {
			return nil, fmt.Errorf("scanning schedule item row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schedule item rows: %w", err)
	}
	return items, nil
}

// nullStr converts a *string to a sql.NullString for nullable columns.
func nullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// nullInt converts a *int to a sql.NullInt64 for nullable columns.
func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

// parseTime parses an ISO 8601 timestamp from SQLite.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02T15:04:05Z", s)
		if err != nil {
			return time.Time{}
		}
	}
	return t
}
