package accesspoint

import (
	"fmt"
	"strings"
	"time"

	"github.com/ostiary/ostiary-core/internal/directory"
)

// Direction is the attempted traversal direction at an access point.
type Direction string

// Traversal directions.
const (
	DirectionEntry Direction = "ENTRY"
	DirectionExit  Direction = "EXIT"
)

// ValidDirection reports whether s is a recognized direction.
func ValidDirection(s string) bool {
	return Direction(s) == DirectionEntry || Direction(s) == DirectionExit
}

// AccessPoint is a controlled physical or logical transition. FromArea
// and ToArea describe the ENTRY-direction movement vector used by
// antipassback; for EXIT the vector is reversed.
type AccessPoint struct {
	ID         string    `json:"id"`
	OrgID      *string   `json:"org_id,omitempty"`
	Name       string    `json:"name"`
	FromAreaID *string   `json:"from_area_id,omitempty"`
	ToAreaID   *string   `json:"to_area_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MovementVector returns the (from, to) area pair for a traversal in
// the given direction.
func (p *AccessPoint) MovementVector(dir Direction) (from, to *string) {
	if dir == DirectionExit {
		return p.ToAreaID, p.FromAreaID
	}
	return p.FromAreaID, p.ToAreaID
}

// Threshold is the minimum operator level triple a door demands.
type Threshold struct {
	ID              string    `json:"id"`
	OrgID           *string   `json:"org_id,omitempty"`
	Name            string    `json:"name"`
	MinAccess       int       `json:"min_access_level"`
	MinAntipassback int       `json:"min_antipassback_level"`
	MinArming       int       `json:"min_arming_level"`
	CreatedAt       time.Time `json:"created_at"`
}

// ThresholdResult is the outcome of comparing held levels against a
// threshold. AntipassbackExempt and ArmingEligible are independent
// outputs consumed by other checks, not access gates themselves.
type ThresholdResult struct {
	AccessMet          bool
	AntipassbackExempt bool
	ArmingEligible     bool
}

// Evaluate compares held operator levels against the threshold.
// All comparisons are >= — never reversed.
func (th *Threshold) Evaluate(levels directory.OperatorLevel) ThresholdResult {
	return ThresholdResult{
		AccessMet:          levels.Access >= th.MinAccess,
		AntipassbackExempt: levels.Antipassback >= th.MinAntipassback,
		ArmingEligible:     levels.Arming >= th.MinArming,
	}
}

// AuthRule names an auth mode expression plus the antipassback gate for
// decisions matched under it.
type AuthRule struct {
	ID             string    `json:"id"`
	OrgID          *string   `json:"org_id,omitempty"`
	Name           string    `json:"name"`
	AuthMode       string    `json:"auth_mode"`
	IsAntipassback bool      `json:"is_antipassback"`
	CreatedAt      time.Time `json:"created_at"`
}

// PointConfig holds a door's per-direction requirement pairs. A nil
// reference means that direction has no requirement configured and
// fails closed.
type PointConfig struct {
	AccessPointID    string    `json:"access_point_id"`
	EntryThresholdID *string   `json:"entry_threshold_id,omitempty"`
	EntryAuthRuleID  *string   `json:"entry_auth_rule_id,omitempty"`
	ExitThresholdID  *string   `json:"exit_threshold_id,omitempty"`
	ExitAuthRuleID   *string   `json:"exit_auth_rule_id,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Requirements returns the (threshold ID, auth rule ID) pair for a direction.
func (c *PointConfig) Requirements(dir Direction) (thresholdID, authRuleID *string) {
	if dir == DirectionExit {
		return c.ExitThresholdID, c.ExitAuthRuleID
	}
	return c.EntryThresholdID, c.EntryAuthRuleID
}

// ValidatePoint validates an AccessPoint before persistence.
func ValidatePoint(p *AccessPoint) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	return nil
}

// ValidateThreshold validates a Threshold before persistence.
func ValidateThreshold(th *Threshold) error {
	if strings.TrimSpace(th.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if th.MinAccess < 0 || th.MinAntipassback < 0 || th.MinArming < 0 {
		return fmt.Errorf("%w: threshold levels must be non-negative", ErrInvalidName)
	}
	return nil
}

// ValidateAuthRule validates an AuthRule, including that its mode parses.
func ValidateAuthRule(r *AuthRule) error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	_, err := ParseAuthMode(r.AuthMode)
	return err
}
