package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEventNotFound indicates the requested event does not exist.
var ErrEventNotFound = errors.New("audit: event not found")

// Repository defines the interface for audit persistence operations.
type Repository interface {
	Record(ctx context.Context, e *Event) error
	Get(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, f Filter) ([]Event, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed audit repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts one decision event.
func (r *SQLiteRepository) Record(ctx context.Context, e *Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO decision_events (
			id, occurred_at, access_point_id, personnel_id, direction,
			decision, reason, matched_rule_id, matched_schedule_id, latency_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OccurredAt.UTC().Format(time.RFC3339), e.AccessPointID,
		nullStr(e.PersonnelID), e.Direction, e.Decision, e.Reason,
		nullStr(e.MatchedRuleID), nullStr(e.MatchedScheduleID), e.LatencyMs)
	if err != nil {
		return fmt.Errorf("inserting decision event: %w", err)
	}
	return nil
}

// Get returns one event by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Event, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, occurred_at, access_point_id, personnel_id, direction,
		       decision, reason, matched_rule_id, matched_schedule_id,
		       latency_ms, created_at
		FROM decision_events WHERE id = ?`, id)

	e, err := scanEvent(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("scanning decision event: %w", err)
	}
	return e, nil
}

// List returns events matching the filter, newest first.
func (r *SQLiteRepository) List(ctx context.Context, f Filter) ([]Event, error) {
	var where []string
	var args []any

	if f.AccessPointID != "" {
		where = append(where, "access_point_id = ?")
		args = append(args, f.AccessPointID)
	}
	if f.PersonnelID != "" {
		where = append(where, "personnel_id = ?")
		args = append(args, f.PersonnelID)
	}
	if f.Decision != "" {
		where = append(where, "decision = ?")
		args = append(args, f.Decision)
	}
	if f.Reason != "" {
		where = append(where, "reason = ?")
		args = append(args, f.Reason)
	}
	if !f.Since.IsZero() {
		where = append(where, "occurred_at >= ?")
		args = append(args, f.Since.UTC().Format(time.RFC3339))
	}
	if !f.Until.IsZero() {
		where = append(where, "occurred_at < ?")
		args = append(args, f.Until.UTC().Format(time.RFC3339))
	}

	query := `
		SELECT id, occurred_at, access_point_id, personnel_id, direction,
		       decision, reason, matched_rule_id, matched_schedule_id,
		       latency_ms, created_at
		FROM decision_events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	query += " ORDER BY occurred_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying decision events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning decision event row: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating decision event rows: %w", err)
	}
	return events, nil
}

func scanEvent(scan func(dest ...any) error) (*Event, error) {
	var e Event
	var personnelID, ruleID, scheduleID sql.NullString
	var occurredAt, createdAt string

	err := scan(&e.ID, &occurredAt, &e.AccessPointID, &personnelID,
		&e.Direction, &e.Decision, &e.Reason, &ruleID, &scheduleID,
		&e.LatencyMs, &createdAt)
	if err != nil {
		return nil, err
	}
	if personnelID.Valid {
		e.PersonnelID = &personnelID.String
	}
	if ruleID.Valid {
		e.MatchedRuleID = &ruleID.String
	}
	if scheduleID.Valid {
		e.MatchedScheduleID = &scheduleID.String
	}
	e.OccurredAt = parseTime(occurredAt)
	e.CreatedAt = parseTime(createdAt)
	return &e, nil
}

func nullStr(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

// parseTime parses an ISO-8601 timestamp from SQLite, tolerating the
// strftime format without a sub-second component.
func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02T15:04:05Z", s) //nolint:errcheck // zero time on malformed rows
	return t
}
