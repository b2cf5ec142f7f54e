package accesspoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for access point persistence operations.
type Repository interface {
	CreatePoint(ctx context.Context, p *AccessPoint) error
	GetPoint(ctx context.Context, id string) (*AccessPoint, error)
	ListPoints(ctx context.Context) ([]AccessPoint, error)
	UpdatePoint(ctx context.Context, p *AccessPoint) error
	DeletePoint(ctx context.Context, id string) error

	SetConfig(ctx context.Context, c *PointConfig) error
	GetConfig(ctx context.Context, accessPointID string) (*PointConfig, error)
	ListConfigs(ctx context.Context) ([]PointConfig, error)

	CreateThreshold(ctx context.Context, th *Threshold) error
	GetThreshold(ctx context.Context, id string) (*Threshold, error)
	ListThresholds(ctx context.Context) ([]Threshold, error)
	DeleteThreshold(ctx context.Context, id string) error

	CreateAuthRule(ctx context.Context, r *AuthRule) error
	GetAuthRule(ctx context.Context, id string) (*AuthRule, error)
	ListAuthRules(ctx context.Context) ([]AuthRule, error)
	DeleteAuthRule(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed access point repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreatePoint inserts a new access point.
func (r *SQLiteRepository) CreatePoint(ctx context.Context, p *AccessPoint) error {
	const query = `INSERT INTO access_points (id, org_id, name, from_area_id, to_area_id)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, nullStr(p.OrgID), p.Name, nullStr(p.FromAreaID), nullStr(p.ToAreaID))
	if err != nil {
		return fmt.Errorf("inserting access point %s: %w", p.ID, err)
	}
	return nil
}

// GetPoint returns a single access point by ID.
func (r *SQLiteRepository) GetPoint(ctx context.Context, id string) (*AccessPoint, error) {
	const query = `SELECT id, org_id, name, from_area_id, to_area_id, created_at, updated_at
		FROM access_points WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	p, err := scanPoint(row)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPoints returns all access points ordered by name.
func (r *SQLiteRepository) ListPoints(ctx context.Context) ([]AccessPoint, error) {
	const query = `SELECT id, org_id, name, from_area_id, to_area_id, created_at, updated_at
		FROM access_points ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying access points: %w", err)
	}
	defer rows.Close()

	var points []AccessPoint
	for rows.Next() {
		var p AccessPoint
		var orgID, fromArea, toArea sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &orgID, &p.Name, &fromArea, &toArea, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning access point row: %w", err)
		}
		assignNullables(&p, orgID, fromArea, toArea)
		p.CreatedAt = parseTime(createdAt)
		p.UpdatedAt = parseTime(updatedAt)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating access point rows: %w", err)
	}
	return points, nil
}

// UpdatePoint updates name and area vector.
func (r *SQLiteRepository) UpdatePoint(ctx context.Context, p *AccessPoint) error {
	const query = `UPDATE access_points SET name = ?, from_area_id = ?, to_area_id = ?,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		p.Name, nullStr(p.FromAreaID), nullStr(p.ToAreaID), p.ID)
	if err != nil {
		return fmt.Errorf("updating access point %s: %w", p.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrPointNotFound
	}
	return nil
}

// DeletePoint removes an access point; its config cascades.
func (r *SQLiteRepository) DeletePoint(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM access_points WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting access point %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrPointNotFound
	}
	return nil
}

// SetConfig upserts the config row for an access point.
func (r *SQLiteRepository) SetConfig(ctx context.Context, c *PointConfig) error {
	const query = `INSERT INTO access_point_configs
		(access_point_id, entry_threshold_id, entry_auth_rule_id, exit_threshold_id, exit_auth_rule_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(access_point_id) DO UPDATE SET
			entry_threshold_id = excluded.entry_threshold_id,
			entry_auth_rule_id = excluded.entry_auth_rule_id,
			exit_threshold_id = excluded.exit_threshold_id,
			exit_auth_rule_id = excluded.exit_auth_rule_id,
			updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`
	_, err := r.db.ExecContext(ctx, query,
		c.AccessPointID,
		nullStr(c.EntryThresholdID), nullStr(c.EntryAuthRuleID),
		nullStr(c.ExitThresholdID), nullStr(c.ExitAuthRuleID))
	if err != nil {
		return fmt.Errorf("upserting config for %s: %w", c.AccessPointID, err)
	}
	return nil
}

// GetConfig returns the config row for an access point.
func (r *SQLiteRepository) GetConfig(ctx context.Context, accessPointID string) (*PointConfig, error) {
	const query = `SELECT access_point_id, entry_threshold_id, entry_auth_rule_id,
		exit_threshold_id, exit_auth_rule_id, updated_at
		FROM access_point_configs WHERE access_point_id = ?`
	row := r.db.QueryRowContext(ctx, query, accessPointID)
	c, err := scanConfig(row)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListConfigs returns all config rows.
func (r *SQLiteRepository) ListConfigs(ctx context.Context) ([]PointConfig, error) {
	const query = `SELECT access_point_id, entry_threshold_id, entry_auth_rule_id,
		exit_threshold_id, exit_auth_rule_id, updated_at
		FROM access_point_configs`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying configs: %w", err)
	}
	defer rows.Close()

	var configs []PointConfig
	for rows.Next() {
		var c PointConfig
		var entryTh, entryAr, exitTh, exitAr sql.NullString
		var updatedAt string
		if err := rows.Scan(&c.AccessPointID, &entryTh, &entryAr, &exitTh, &exitAr, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning config row: %w", err)
		}
		c.EntryThresholdID = strPtr(entryTh)
		c.EntryAuthRuleID = strPtr(entryAr)
		c.ExitThresholdID = strPtr(exitTh)
		c.ExitAuthRuleID = strPtr(exitAr)
		c.UpdatedAt = parseTime(updatedAt)
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating config rows: %w", err)
	}
	return configs, nil
}

// CreateThreshold inserts a new threshold.
func (r *SQLiteRepository) CreateThreshold(ctx context.Context, th *Threshold) error {
	const query = `INSERT INTO access_thresholds
		(id, org_id, name, min_access_level, min_antipassback_level, min_arming_level)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		th.ID, nullStr(th.OrgID), th.Name, th.MinAccess, th.MinAntipassback, th.MinArming)
	if err != nil {
		return fmt.Errorf("inserting threshold %s: %w", th.ID, err)
	}
	return nil
}

// GetThreshold returns a single threshold by ID.
func (r *SQLiteRepository) GetThreshold(ctx context.Context, id string) (*Threshold, error) {
	const query = `SELECT id, org_id, name, min_access_level, min_antipassback_level,
		min_arming_level, created_at
		FROM access_thresholds WHERE id = ?`
	var th Threshold
	var orgID sql.NullString
	var createdAt string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&th.ID, &orgID, &th.Name, &th.MinAccess, &th.MinAntipassback, &th.MinArming, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrThresholdNotFound
		}
		return nil, fmt.Errorf("scanning threshold: %w", err)
	}
	th.OrgID = strPtr(orgID)
	th.CreatedAt = parseTime(createdAt)
	return &th, nil
}

// ListThresholds returns all thresholds ordered by name.
func (r *SQLiteRepository) ListThresholds(ctx context.Context) ([]Threshold, error) {
	const query = `SELECT id, org_id, name, min_access_level, min_antipassback_level,
		min_arming_level, created_at
		FROM access_thresholds ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying thresholds: %w", err)
	}
	defer rows.Close()

	var thresholds []Threshold
	for rows.Next() {
		var th Threshold
		var orgID sql.NullString
		var createdAt string
		if err := rows.Scan(&th.ID, &orgID, &th.Name, &th.MinAccess,
			&th.MinAntipassback, &th.MinArming, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning threshold row: %w", err)
		}
		th.OrgID = strPtr(orgID)
		th.CreatedAt = parseTime(createdAt)
		thresholds = append(thresholds, th)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating threshold rows: %w", err)
	}
	return thresholds, nil
}

// DeleteThreshold removes a threshold by ID.
func (r *SQLiteRepository) DeleteThreshold(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM access_thresholds WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting threshold %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrThresholdNotFound
	}
	return nil
}

// CreateAuthRule inserts a new auth rule. The mode must already have
// passed ValidateAuthRule.
func (r *SQLiteRepository) CreateAuthRule(ctx context.Context, rule *AuthRule) error {
	const query = `INSERT INTO auth_rules (id, org_id, name, auth_mode, is_antipassback)
		VALUES (?, ?, ?, ?, ?)`
	isAP := 0
	if rule.IsAntipassback {
		isAP = 1
	}
	_, err := r.db.ExecContext(ctx, query,
		rule.ID, nullStr(rule.OrgID), rule.Name, rule.AuthMode, isAP)
	if err != nil {
		return fmt.Errorf("inserting auth rule %s: %w", rule.ID, err)
	}
	return nil
}

// GetAuthRule returns a single auth rule by ID.
func (r *SQLiteRepository) GetAuthRule(ctx context.Context, id string) (*AuthRule, error) {
	const query = `SELECT id, org_id, name, auth_mode, is_antipassback, created_at
		FROM auth_rules WHERE id = ?`
	var rule AuthRule
	var orgID sql.NullString
	var isAP int
	var createdAt string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rule.ID, &orgID, &rule.Name, &rule.AuthMode, &isAP, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAuthRuleNotFound
		}
		return nil, fmt.Errorf("scanning auth rule: %w", err)
	}
	rule.OrgID = strPtr(orgID)
	rule.IsAntipassback = isAP != 0
	rule.CreatedAt = parseTime(createdAt)
	return &rule, nil
}

// ListAuthRules returns all auth rules ordered by name.
func (r *SQLiteRepository) ListAuthRules(ctx context.Context) ([]AuthRule, error) {
	const query = `SELECT id, org_id, name, auth_mode, is_antipassback, created_at
		FROM auth_rules ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying auth rules: %w", err)
	}
	defer rows.Close()

	var rules []AuthRule
	for rows.Next() {
		var rule AuthRule
		var orgID sql.NullString
		var isAP int
		var createdAt string
		if err := rows.Scan(&rule.ID, &orgID, &rule.Name, &rule.AuthMode, &isAP, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning auth rule row: %w", err)
		}
		rule.OrgID = strPtr(orgID)
		rule.IsAntipassback = isAP != 0
		rule.CreatedAt = parseTime(createdAt)
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating auth rule rows: %w", err)
	}
	return rules, nil
}

// DeleteAuthRule removes an auth rule by ID.
func (r *SQLiteRepository) DeleteAuthRule(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM auth_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting auth rule %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrAuthRuleNotFound
	}
	return nil
}

// scanPoint scans a single row into an AccessPoint (for QueryRow).
func scanPoint(row *sql.Row) (*AccessPoint, error) {
	var p AccessPoint
	var orgID, fromArea, toArea sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&p.ID, &orgID, &p.Name, &fromArea, &toArea, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPointNotFound
		}
		return nil, fmt.Errorf("scanning access point: %w", err)
	}
	assignNullables(&p, orgID, fromArea, toArea)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// scanConfig scans a single row into a PointConfig (for QueryRow).
func scanConfig(row *sql.Row) (*PointConfig, error) {
	var c PointConfig
	var entryTh, entryAr, exitTh, exitAr sql.NullString
	var updatedAt string

	err := row.Scan(&c.AccessPointID, &entryTh, &entryAr, &exitTh, &exitAr, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("scanning config: %w", err)
	}
	c.EntryThresholdID = strPtr(entryTh)
	c.EntryAuthRuleID = strPtr(entryAr)
	c.ExitThresholdID = strPtr(exitTh)
	c.ExitAuthRuleID = strPtr(exitAr)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

func assignNullables(p *AccessPoint, orgID, fromArea, toArea sql.NullString) {
	p.OrgID = strPtr(orgID)
	p.FromAreaID = strPtr(fromArea)
	p.ToAreaID = strPtr(toArea)
}

// nullStr converts a *string to a sql.NullString for nullable columns.
func nullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// strPtr converts a sql.NullString back to a *string.
func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
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
