package rules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for rule persistence operations.
type Repository interface {
	CreateGroup(ctx context.Context, g *AccessGroup) error
	GetGroup(ctx context.Context, id string) (*AccessGroup, error)
	ListGroups(ctx context.Context) ([]AccessGroup, error)
	DeleteGroup(ctx context.Context, id string) error
	SetGroupMembers(ctx context.Context, groupID string, pointIDs []string) error

	CreateRule(ctx context.Context, r *AccessRule) error
	GetRule(ctx context.Context, id string) (*AccessRule, error)
	ListRules(ctx context.Context) ([]AccessRule, error)
	DeleteRule(ctx context.Context, id string) error

	CreateGrant(ctx context.Context, g *Grant) error
	DeleteGrant(ctx context.Context, personnelID, ruleID string) error
	ListGrants(ctx context.Context) ([]Grant, error)
	ListGrantsByPersonnel(ctx context.Context, personnelID string) ([]Grant, error)

	CreateInterlock(ctx context.Context, il *Interlock) error
	GetInterlock(ctx context.Context, id string) (*Interlock, error)
	ListInterlocks(ctx context.Context) ([]Interlock, error)
	DeleteInterlock(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed rules repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreateGroup inserts a group and its members in one transaction.
func (r *SQLiteRepository) CreateGroup(ctx context.Context, g *AccessGroup) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning group transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO access_groups (id, org_id, name) VALUES (?, ?, ?)`,
		g.ID, nullStr(g.OrgID), g.Name); err != nil {
		return fmt.Errorf("inserting group %s: %w", g.ID, err)
	}
	for _, pointID := range g.PointIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO access_group_items (group_id, access_point_id) VALUES (?, ?)`,
			g.ID, pointID); err != nil {
			return fmt.Errorf("inserting group member %s: %w", pointID, err)
		}
	}
	return tx.Commit()
}

// GetGroup returns a group with its member point IDs loaded.
func (r *SQLiteRepository) GetGroup(ctx context.Context, id string) (*AccessGroup, error) {
	const query = `SELECT id, org_id, name, created_at FROM access_groups WHERE id = ?`
	var g AccessGroup
	var orgID sql.NullString
	var createdAt string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&g.ID, &orgID, &g.Name, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("scanning group: %w", err)
	}
	if orgID.Valid {
		g.OrgID = &orgID.String
	}
	g.CreatedAt = parseTime(createdAt)

	points, err := r.groupMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	g.PointIDs = points
	return &g, nil
}

// ListGroups returns all groups with members loaded.
func (r *SQLiteRepository) ListGroups(ctx context.Context) ([]AccessGroup, error) {
	const query = `SELECT id, org_id, name, created_at FROM access_groups ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}
	defer rows.Close()

	var groups []AccessGroup
	for rows.Next() {
		var g AccessGroup
		var orgID sql.NullString
		var createdAt string
		if err := rows.Scan(&g.ID, &orgID, &g.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning group row: %w", err)
		}
		if orgID.Valid {
			g.OrgID = &orgID.String
		}
		g.CreatedAt = parseTime(createdAt)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating group rows: %w", err)
	}

	for i := range groups {
		points, err := r.groupMembers(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].PointIDs = points
	}
	return groups, nil
}

// DeleteGroup removes a group; members cascade.
func (r *SQLiteRepository) DeleteGroup(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM access_groups WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting group %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// SetGroupMembers replaces a group's membership set.
func (r *SQLiteRepository) SetGroupMembers(ctx context.Context, groupID string, pointIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning membership transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM access_group_items WHERE group_id = ?", groupID); err != nil {
		return fmt.Errorf("clearing group %s members: %w", groupID, err)
	}
	for _, pointID := range pointIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO access_group_items (group_id, access_point_id) VALUES (?, ?)`,
			groupID, pointID); err != nil {
			return fmt.Errorf("inserting group member %s: %w", pointID, err)
		}
	}
	return tx.Commit()
}

// CreateRule inserts a rule and its items in one transaction. Items
// must already have passed ValidateItem.
func (r *SQLiteRepository) CreateRule(ctx context.Context, rule *AccessRule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning rule transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO access_rules (id, org_id, name) VALUES (?, ?, ?)`,
		rule.ID, nullStr(rule.OrgID), rule.Name); err != nil {
		return fmt.Errorf("inserting rule %s: %w", rule.ID, err)
	}
	const itemQuery = `INSERT INTO access_rule_items
		(id, rule_id, access_point_id, access_group_id, schedule_id)
		VALUES (?, ?, ?, ?, ?)`
	for i := range rule.Items {
		item := &rule.Items[i]
		if _, err := tx.ExecContext(ctx, itemQuery,
			item.ID, rule.ID, nullStr(item.AccessPointID), nullStr(item.AccessGroupID),
			item.ScheduleID); err != nil {
			return fmt.Errorf("inserting rule item %s: %w", item.ID, err)
		}
	}
	return tx.Commit()
}

// GetRule returns a rule with its items loaded.
func (r *SQLiteRepository) GetRule(ctx context.Context, id string) (*AccessRule, error) {
	const query = `SELECT id, org_id, name, created_at FROM access_rules WHERE id = ?`
	var rule AccessRule
	var orgID sql.NullString
	var createdAt string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&rule.ID, &orgID, &rule.Name, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("scanning rule: %w", err)
	}
	if orgID.Valid {
		rule.OrgID = &orgID.String
	}
	rule.CreatedAt = parseTime(createdAt)

	items, err := r.ruleItems(ctx, id)
	if err != nil {
		return nil, err
	}
	rule.Items = items
	return &rule, nil
}

// ListRules returns all rules with items loaded.
func (r *SQLiteRepository) ListRules(ctx context.Context) ([]AccessRule, error) {
	const query = `SELECT id, org_id, name, created_at FROM access_rules ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer rows.Close()

	var ruleList []AccessRule
	for rows.Next() {
		var rule AccessRule
		var orgID sql.NullString
		var createdAt string
		if err := rows.Scan(&rule.ID, &orgID, &rule.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning rule row: %w", err)
		}
		if orgID.Valid {
			rule.OrgID = &orgID.String
		}
		rule.CreatedAt = parseTime(createdAt)
		ruleList = append(ruleList, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rule rows: %w", err)
	}

	for i := range ruleList {
		items, err := r.ruleItems(ctx, ruleList[i].ID)
		if err != nil {
			return nil, err
		}
		ruleList[i].Items = items
	}
	return ruleList, nil
}

// DeleteRule removes a rule; items and grants cascade.
func (r *SQLiteRepository) DeleteRule(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM access_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting rule %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// CreateGrant attaches a rule to a person.
func (r *SQLiteRepository) CreateGrant(ctx context.Context, g *Grant) error {
	const query = `INSERT INTO access_grants (personnel_id, rule_id) VALUES (?, ?)`
	_, err := r.db.ExecContext(ctx, query, g.PersonnelID, g.RuleID)
	if err != nil {
		return fmt.Errorf("inserting grant %s->%s: %w", g.PersonnelID, g.RuleID, err)
	}
	return nil
}

// DeleteGrant removes a grant.
func (r *SQLiteRepository) DeleteGrant(ctx context.Context, personnelID, ruleID string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM access_grants WHERE personnel_id = ? AND rule_id = ?", personnelID, ruleID)
	if err != nil {
		return fmt.Errorf("deleting grant %s->%s: %w", personnelID, ruleID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrGrantNotFound
	}
	return nil
}

// ListGrants returns all grants.
func (r *SQLiteRepository) ListGrants(ctx context.Context) ([]Grant, error) {
	const query = `SELECT personnel_id, rule_id, created_at FROM access_grants`
	return r.queryGrants(ctx, query)
}

// ListGrantsByPersonnel returns all grants for a person.
func (r *SQLiteRepository) ListGrantsByPersonnel(ctx context.Context, personnelID string) ([]Grant, error) {
	const query = `SELECT personnel_id, rule_id, created_at FROM access_grants WHERE personnel_id = ?`
	return r.queryGrants(ctx, query, personnelID)
}

// CreateInterlock inserts an interlock and its members in one transaction.
func (r *SQLiteRepository) CreateInterlock(ctx context.Context, il *Interlock) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning interlock transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO interlocks (id, org_id, name, release_timeout_seconds) VALUES (?, ?, ?, ?)`,
		il.ID, nullStr(il.OrgID), il.Name, nullInt(il.ReleaseTimeoutSeconds)); err != nil {
		return fmt.Errorf("inserting interlock %s: %w", il.ID, err)
	}
	for _, pointID := range il.PointIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO interlock_access_points (interlock_id, access_point_id) VALUES (?, ?)`,
			il.ID, pointID); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrPointInterlocked, pointID)
			}
			return fmt.Errorf("inserting interlock member %s: %w", pointID, err)
		}
	}
	return tx.Commit()
}

// GetInterlock returns an interlock with its member point IDs loaded.
func (r *SQLiteRepository) GetInterlock(ctx context.Context, id string) (*Interlock, error) {
	const query = `SELECT id, org_id, name, release_timeout_seconds, created_at
		FROM interlocks WHERE id = ?`
	var il Interlock
	var orgID sql.NullString
	var timeout sql.NullInt64
	var createdAt string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&il.ID, &orgID, &il.Name, &timeout, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInterlockNotFound
		}
		return nil, fmt.Errorf("scanning interlock: %w", err)
	}
	if orgID.Valid {
		il.OrgID = &orgID.String
	}
	if timeout.Valid {
		t := int(timeout.Int64)
		il.ReleaseTimeoutSeconds = &t
	}
	il.CreatedAt = parseTime(createdAt)

	points, err := r.interlockMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	il.PointIDs = points
	return &il, nil
}

// ListInterlocks returns all interlocks with members loaded.
func (r *SQLiteRepository) ListInterlocks(ctx context.Context) ([]Interlock, error) {
	const query = `SELECT id, org_id, name, release_timeout_seconds, created_at
		FROM interlocks ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying interlocks: %w", err)
	}
	defer rows.Close()

	var interlocks []Interlock
	for rows.Next() {
		var il Interlock
		var orgID sql.NullString
		var timeout sql.NullInt64
		var createdAt string
		if err := rows.Scan(&il.ID, &orgID, &il.Name, &timeout, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning interlock row: %w", err)
		}
		if orgID.Valid {
			il.OrgID = &orgID.String
		}
		if timeout.Valid {
			t := int(timeout.Int64)
			il.ReleaseTimeoutSeconds = &t
		}
		il.CreatedAt = parseTime(createdAt)
		interlocks = append(interlocks, il)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating interlock rows: %w", err)
	}

	for i := range interlocks {
		points, err := r.interlockMembers(ctx, interlocks[i].ID)
		if err != nil {
			return nil, err
		}
		interlocks[i].PointIDs = points
	}
	return interlocks, nil
}

// DeleteInterlock removes an interlock; members cascade.
func (r *SQLiteRepository) DeleteInterlock(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM interlocks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting interlock %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrInterlockNotFound
	}
	return nil
}

// groupMembers loads member point IDs for a group.
func (r *SQLiteRepository) groupMembers(ctx context.Context, groupID string) ([]string, error) {
	return r.queryIDs(ctx,
		`SELECT access_point_id FROM access_group_items WHERE group_id = ? ORDER BY access_point_id`,
		groupID)
}

// interlockMembers loads member point IDs for an interlock.
func (r *SQLiteRepository) interlockMembers(ctx context.Context, interlockID string) ([]string, error) {
	return r.queryIDs(ctx,
		`SELECT access_point_id FROM interlock_access_points WHERE interlock_id = ? ORDER BY access_point_id`,
		interlockID)
}

// ruleItems loads all items for a rule.
func (r *SQLiteRepository) ruleItems(ctx context.Context, ruleID string) ([]RuleItem, error) {
	const query = `SELECT id, rule_id, access_point_id, access_group_id, schedule_id
		FROM access_rule_items WHERE rule_id = ?`
	rows, err := r.db.QueryContext(ctx, query, ruleID)
	if err != nil {
		return nil, fmt.Errorf("querying rule items: %w", err)
	}
	defer rows.Close()

	var items []RuleItem
	for rows.Next() {
		var item RuleItem
		var pointID, groupID sql.NullString
		if err := rows.Scan(&item.ID, &item.RuleID, &pointID, &groupID, &item.ScheduleID); err != nil {
			return nil, fmt.Errorf("scanning rule item row: %w", err)
		}
		if pointID.Valid {
			item.AccessPointID = &pointID.String
		}
		if groupID.Valid {
			item.AccessGroupID = &groupID.String
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rule item rows: %w", err)
	}
	return items, nil
}

// queryGrants executes a query and returns a slice of Grant.
func (r *SQLiteRepository) queryGrants(ctx context.Context, query string, args ...any) ([]Grant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying grants: %w", err)
	}
	defer rows.Close()

	var grants []Grant
	for rows.Next() {
		var g Grant
		var createdAt string
		if err := rows.Scan(&g.PersonnelID, &g.RuleID, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning grant row: %w", err)
		}
		g.CreatedAt = parseTime(createdAt)
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating grant rows: %w", err)
	}
	return grants, nil
}

// queryIDs executes a single-column string query.
func (r *SQLiteRepository) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating id rows: %w", err)
	}
	return ids, nil
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

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
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
