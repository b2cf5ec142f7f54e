package directory

import "time"

// FactorKind identifies an authentication factor type.
type FactorKind string

// Supported factor kinds.
const (
	FactorCard        FactorKind = "CARD"
	FactorPIN         FactorKind = "PIN"
	FactorFace        FactorKind = "FACE"
	FactorFingerprint FactorKind = "FINGERPRINT"
)

// CredentialStatus is the lifecycle state of a credential.
// Only ACTIVE credentials participate in access decisions.
type CredentialStatus string

// Credential lifecycle states.
const (
	StatusActive    CredentialStatus = "ACTIVE"
	StatusLost      CredentialStatus = "LOST"
	StatusExpired   CredentialStatus = "EXPIRED"
	StatusSuspended CredentialStatus = "SUSPENDED"
)

// OperatorLevel is the security level triple a person holds.
// Levels are compared against door thresholds with >= semantics.
type OperatorLevel struct {
	Access       int `json:"access_level"`
	Antipassback int `json:"antipassback_level"`
	Arming       int `json:"arming_level"`
}

// Personnel is a credential holder.
type Personnel struct {
	ID        string        `json:"id"`
	OrgID     *string       `json:"org_id,omitempty"`
	Name      string        `json:"name"`
	Levels    OperatorLevel `json:"levels"`
	IsActive  bool          `json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Credential is an authentication factor owned by exactly one person.
// Ownership never changes after enrollment; re-issuing a card to a
// different person is a new credential.
type Credential struct {
	ID          string           `json:"id"`
	PersonnelID string           `json:"personnel_id"`
	Kind        FactorKind       `json:"factor_kind"`
	Identifier  string           `json:"identifier"`
	Status      CredentialStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// IsUsable reports whether the credential may participate in a decision.
func (c *Credential) IsUsable() bool {
	return c.Status == StatusActive
}

// Area is a secured region of the site. Access points carry from/to
// area references forming the movement graph antipassback tracks.
type Area struct {
	ID        string    `json:"id"`
	OrgID     *string   `json:"org_id,omitempty"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Organization scopes configuration entities. A nil org reference on an
// entity means a global/shared default.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
