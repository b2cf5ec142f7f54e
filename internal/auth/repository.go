package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OperatorRepository defines the interface for operator persistence.
type OperatorRepository interface {
	Create(ctx context.Context, op *Operator) error
	Get(ctx context.Context, id string) (*Operator, error)
	GetByUsername(ctx context.Context, username string) (*Operator, error)
	List(ctx context.Context) ([]Operator, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetActive(ctx context.Context, id string, active bool) error
	Count(ctx context.Context) (int, error)
}

// SQLiteOperatorRepository implements OperatorRepository using SQLite.
type SQLiteOperatorRepository struct {
	db *sql.DB
}

// NewSQLiteOperatorRepository creates a new SQLite-backed operator repository.
func NewSQLiteOperatorRepository(db *sql.DB) *SQLiteOperatorRepository {
	return &SQLiteOperatorRepository{db: db}
}

// Create inserts a new operator. An empty ID is assigned a UUID.
func (r *SQLiteOperatorRepository) Create(ctx context.Context, op *Operator) error {
	if !IsValidUsername(op.Username) {
		return ErrInvalidUsername
	}
	if !IsValidRole(op.Role) {
		return ErrInvalidRole
	}
	if op.ID == "" {
		op.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO operators (id, username, display_name, password_hash, role, is_active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		op.ID, op.Username, op.DisplayName, op.PasswordHash, op.Role, boolInt(op.IsActive))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUsernameExists
		}
		return fmt.Errorf("inserting operator: %w", err)
	}
	return nil
}

// Get returns one operator by ID.
func (r *SQLiteOperatorRepository) Get(ctx context.Context, id string) (*Operator, error) {
	return r.queryOne(ctx, "id = ?", id)
}

// GetByUsername returns one operator by username.
func (r *SQLiteOperatorRepository) GetByUsername(ctx context.Context, username string) (*Operator, error) {
	return r.queryOne(ctx, "username = ?", username)
}

// List returns all operators ordered by username.
func (r *SQLiteOperatorRepository) List(ctx context.Context) ([]Operator, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, display_name, password_hash, role, is_active, created_at, updated_at
		FROM operators ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("querying operators: %w", err)
	}
	defer rows.Close()

	var ops []Operator
	for rows.Next() {
		op, err := scanOperator(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning operator row: %w", err)
		}
		ops = append(ops, *op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operator rows: %w", err)
	}
	return ops, nil
}

// UpdatePassword replaces an operator's password hash.
func (r *SQLiteOperatorRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE operators
		SET password_hash = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("updating operator password: %w", err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrOperatorNotFound
	}
	return nil
}

// SetActive enables or disables an operator account.
func (r *SQLiteOperatorRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE operators
		SET is_active = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`, boolInt(active), id)
	if err != nil {
		return fmt.Errorf("updating operator active flag: %w", err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrOperatorNotFound
	}
	return nil
}

// Count returns the number of operator accounts.
func (r *SQLiteOperatorRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operators`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting operators: %w", err)
	}
	return count, nil
}

func (r *SQLiteOperatorRepository) queryOne(ctx context.Context, where string, arg any) (*Operator, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, display_name, password_hash, role, is_active, created_at, updated_at
		FROM operators WHERE `+where, arg)

	op, err := scanOperator(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOperatorNotFound
		}
		return nil, fmt.Errorf("scanning operator: %w", err)
	}
	return op, nil
}

func scanOperator(scan func(dest ...any) error) (*Operator, error) {
	var op Operator
	var isActive int
	var createdAt, updatedAt string

	err := scan(&op.ID, &op.Username, &op.DisplayName, &op.PasswordHash,
		&op.Role, &isActive, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	op.IsActive = isActive != 0
	op.CreatedAt = parseTime(createdAt)
	op.UpdatedAt = parseTime(updatedAt)
	return &op, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseTime parses an ISO-8601 timestamp from SQLite.
func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02T15:04:05Z", s) //nolint:errcheck // zero time on malformed rows
	return t
}
