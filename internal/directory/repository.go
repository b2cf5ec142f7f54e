package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for directory persistence operations.
type Repository interface {
	CreatePersonnel(ctx context.Context, p *Personnel) error
	GetPersonnel(ctx context.Context, id string) (*Personnel, error)
	ListPersonnel(ctx context.Context) ([]Personnel, error)
	UpdatePersonnel(ctx context.Context, p *Personnel) error
	DeactivatePersonnel(ctx context.Context, id string) error

	CreateCredential(ctx context.Context, c *Credential) error
	GetCredential(ctx context.Context, id string) (*Credential, error)
	GetCredentialByFactor(ctx context.Context, kind FactorKind, identifier string) (*Credential, error)
	ListCredentials(ctx context.Context) ([]Credential, error)
	ListCredentialsByPersonnel(ctx context.Context, personnelID string) ([]Credential, error)
	UpdateCredentialStatus(ctx context.Context, id string, status CredentialStatus) error
	DeleteCredential(ctx context.Context, id string) error

	CreateArea(ctx context.Context, a *Area) error
	GetArea(ctx context.Context, id string) (*Area, error)
	ListAreas(ctx context.Context) ([]Area, error)
	DeleteArea(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed directory repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreatePersonnel inserts a new personnel record.
func (r *SQLiteRepository) CreatePersonnel(ctx context.Context, p *Personnel) error {
	const query = `INSERT INTO personnel (id, org_id, name, access_level,
		antipassback_level, arming_level, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, nullStr(p.OrgID), p.Name,
		p.Levels.Access, p.Levels.Antipassback, p.Levels.Arming,
		boolToInt(p.IsActive))
	if err != nil {
		return fmt.Errorf("inserting personnel %s: %w", p.ID, err)
	}
	return nil
}

// GetPersonnel returns a single personnel record by ID.
func (r *SQLiteRepository) GetPersonnel(ctx context.Context, id string) (*Personnel, error) {
	const query = `SELECT id, org_id, name, access_level, antipassback_level,
		arming_level, is_active, created_at, updated_at
		FROM personnel WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanPersonnel(row)
}

// ListPersonnel returns all personnel ordered by name.
func (r *SQLiteRepository) ListPersonnel(ctx context.Context) ([]Personnel, error) {
	const query = `SELECT id, org_id, name, access_level, antipassback_level,
		arming_level, is_active, created_at, updated_at
		FROM personnel ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying personnel: %w", err)
	}
	defer rows.Close()

	var people []Personnel
	for rows.Next() {
		p, err := scanPersonnelRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning personnel row: %w", err)
		}
		people = append(people, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating personnel rows: %w", err)
	}
	return people, nil
}

// UpdatePersonnel updates name, levels, and active flag.
func (r *SQLiteRepository) UpdatePersonnel(ctx context.Context, p *Personnel) error {
	const query = `UPDATE personnel SET name = ?, access_level = ?,
		antipassback_level = ?, arming_level = ?, is_active = ?,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		p.Name, p.Levels.Access, p.Levels.Antipassback, p.Levels.Arming,
		boolToInt(p.IsActive), p.ID)
	if err != nil {
		return fmt.Errorf("updating personnel %s: %w", p.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrPersonnelNotFound
	}
	return nil
}

// DeactivatePersonnel soft-deletes a person. Rows are never hard-deleted
// while decision events reference them.
func (r *SQLiteRepository) DeactivatePersonnel(ctx context.Context, id string) error {
	const query = `UPDATE personnel SET is_active = 0,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivating personnel %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrPersonnelNotFound
	}
	return nil
}

// CreateCredential enrolls a new credential.
func (r *SQLiteRepository) CreateCredential(ctx context.Context, c *Credential) error {
	const query = `INSERT INTO credentials (id, personnel_id, factor_kind, identifier, status)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.PersonnelID, string(c.Kind), c.Identifier, string(c.Status))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s %s", ErrDuplicateCredential, c.Kind, c.Identifier)
		}
		return fmt.Errorf("inserting credential %s: %w", c.ID, err)
	}
	return nil
}

// GetCredential returns a single credential by ID.
func (r *SQLiteRepository) GetCredential(ctx context.Context, id string) (*Credential, error) {
	const query = `SELECT id, personnel_id, factor_kind, identifier, status, created_at, updated_at
		FROM credentials WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanCredential(row)
}

// GetCredentialByFactor resolves a presented factor to its credential.
// This is the hot path lookup during decision evaluation.
func (r *SQLiteRepository) GetCredentialByFactor(ctx context.Context, kind FactorKind, identifier string) (*Credential, error) {
	const query = `SELECT id, personnel_id, factor_kind, identifier, status, created_at, updated_at
		FROM credentials WHERE factor_kind = ? AND identifier = ?`
	row := r.db.QueryRowContext(ctx, query, string(kind), identifier)
	return scanCredential(row)
}

// ListCredentials returns all credentials.
func (r *SQLiteRepository) ListCredentials(ctx context.Context) ([]Credential, error) {
	const query = `SELECT id, personnel_id, factor_kind, identifier, status, created_at, updated_at
		FROM credentials ORDER BY personnel_id, factor_kind`
	return r.queryCredentials(ctx, query)
}

// ListCredentialsByPersonnel returns all credentials owned by a person.
func (r *SQLiteRepository) ListCredentialsByPersonnel(ctx context.Context, personnelID string) ([]Credential, error) {
	const query = `SELECT id, personnel_id, factor_kind, identifier, status, created_at, updated_at
		FROM credentials WHERE personnel_id = ? ORDER BY factor_kind`
	return r.queryCredentials(ctx, query, personnelID)
}

// UpdateCredentialStatus transitions a credential's lifecycle state.
// Ownership is immutable; only status changes are allowed.
func (r *SQLiteRepository) UpdateCredentialStatus(ctx context.Context, id string, status CredentialStatus) error {
	const query = `UPDATE credentials SET status = ?,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("updating credential %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

// DeleteCredential removes a credential by ID.
func (r *SQLiteRepository) DeleteCredential(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM credentials WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting credential %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

// CreateArea inserts a new area.
func (r *SQLiteRepository) CreateArea(ctx context.Context, a *Area) error {
	const query = `INSERT INTO areas (id, org_id, name) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, a.ID, nullStr(a.OrgID), a.Name)
	if err != nil {
		return fmt.Errorf("inserting area %s: %w", a.ID, err)
	}
	return nil
}

// GetArea returns a single area by ID.
func (r *SQLiteRepository) GetArea(ctx context.Context, id string) (*Area, error) {
	const query = `SELECT id, org_id, name, created_at FROM areas WHERE id = ?`
	var a Area
	var orgID sql.NullString
	var createdAt string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &orgID, &a.Name, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAreaNotFound
		}
		return nil, fmt.Errorf("scanning area: %w", err)
	}
	if orgID.Valid {
		a.OrgID = &orgID.String
	}
	a.CreatedAt = parseTime(createdAt)
	return &a, nil
}

// ListAreas returns all areas ordered by name.
func (r *SQLiteRepository) ListAreas(ctx context.Context) ([]Area, error) {
	const query = `SELECT id, org_id, name, created_at FROM areas ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying areas: %w", err)
	}
	defer rows.Close()

	var areas []Area
	for rows.Next() {
		var a Area
		var orgID sql.NullString
		var createdAt string
		if err := rows.Scan(&a.ID, &orgID, &a.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning area row: %w", err)
		}
		if orgID.Valid {
			a.OrgID = &orgID.String
		}
		a.CreatedAt = parseTime(createdAt)
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating area rows: %w", err)
	}
	return areas, nil
}

// DeleteArea removes a single area by ID.
func (r *SQLiteRepository) DeleteArea(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM areas WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting area %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrAreaNotFound
	}
	return nil
}

// queryCredentials executes a query and returns a slice of Credential.
func (r *SQLiteRepository) queryCredentials(ctx context.Context, query string, args ...any) ([]Credential, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	defer rows.Close()

	var creds []Credential
	for rows.Next() {
		c, err := scanCredentialRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning credential row: %w", err)
		}
		creds = append(creds, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating credential rows: %w", err)
	}
	return creds, nil
}

// scanPersonnel scans a single row into a Personnel (for QueryRow).
func scanPersonnel(row *sql.Row) (*Personnel, error) {
	var p Personnel
	var orgID sql.NullString
	var isActive int
	var createdAt, updatedAt string

	err := row.Scan(&p.ID, &orgID, &p.Name,
		&p.Levels.Access, &p.Levels.Antipassback, &p.Levels.Arming,
		&isActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPersonnelNotFound
		}
		return nil, fmt.Errorf("scanning personnel: %w", err)
	}
	if orgID.Valid {
		p.OrgID = &orgID.String
	}
	p.IsActive = isActive != 0
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// scanPersonnelRow scans a personnel record from a Rows cursor.
func scanPersonnelRow(rows *sql.Rows) (*Personnel, error) {
	var p Personnel
	var orgID sql.NullString
	var isActive int
	var createdAt, updatedAt string

	err := rows.Scan(&p.ID, &orgID, &p.Name,
		&p.Levels.Access, &p.Levels.Antipassback, &p.Levels.Arming,
		&isActive, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if orgID.Valid {
		p.OrgID = &orgID.String
	}
	p.IsActive = isActive != 0
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// scanCredential scans a single row into a Credential (for QueryRow).
func scanCredential(row *sql.Row) (*Credential, error) {
	var c Credential
	var kind, status string
	var createdAt, updatedAt string

	err := row.Scan(&c.ID, &c.PersonnelID, &kind, &c.Identifier, &status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("scanning credential: %w", err)
	}
	c.Kind = FactorKind(kind)
	c.Status = CredentialStatus(status)
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

// scanCredentialRow scans a credential from a Rows cursor.
func scanCredentialRow(rows *sql.Rows) (*Credential, error) {
	var c Credential
	var kind, status string
	var createdAt, updatedAt string

	err := rows.Scan(&c.ID, &c.PersonnelID, &kind, &c.Identifier, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	c.Kind = FactorKind(kind)
	c.Status = CredentialStatus(status)
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

// nullStr converts a *string to a sql.NullString for nullable columns.
func nullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// boolToInt converts a bool to the 0/1 integers SQLite stores.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
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
