package auth

import (
	"errors"
	"regexp"
	"time"
)

// usernamePattern: alphanumeric, dots, hyphens, underscores, 1-64 chars.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// IsValidUsername checks a username against the allowed format.
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// Role is an operator's authorization tier.
type Role string

const (
	// RoleOperator can read configuration and the audit trail, reset
	// antipassback state, and run simulations.
	RoleOperator Role = "operator"

	// RoleAdmin can additionally change configuration and manage
	// operator accounts.
	RoleAdmin Role = "admin"
)

// IsValidRole reports whether r is a recognized operator role.
func IsValidRole(r Role) bool {
	return r == RoleOperator || r == RoleAdmin
}

// Operator is an admin API account.
type Operator struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrOperatorNotFound   = errors.New("auth: operator not found")
	ErrOperatorInactive   = errors.New("auth: operator account is inactive")
	ErrUsernameExists     = errors.New("auth: username already exists")
	ErrInvalidUsername    = errors.New("auth: invalid username")
	ErrInvalidRole        = errors.New("auth: invalid role")
	ErrTokenInvalid       = errors.New("auth: invalid token")
	ErrForbidden          = errors.New("auth: insufficient permissions")
)
