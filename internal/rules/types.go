package rules

import (
	"fmt"
	"strings"
	"time"
)

// AccessGroup is a named set of access points for bulk rule assignment.
type AccessGroup struct {
	ID        string    `json:"id"`
	OrgID     *string   `json:"org_id,omitempty"`
	Name      string    `json:"name"`
	PointIDs  []string  `json:"point_ids,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RuleItem is one Where x When pair of an access rule. Exactly one of
// AccessPointID / AccessGroupID is set.
type RuleItem struct {
	ID            string  `json:"id"`
	RuleID        string  `json:"rule_id"`
	AccessPointID *string `json:"access_point_id,omitempty"`
	AccessGroupID *string `json:"access_group_id,omitempty"`
	ScheduleID    string  `json:"schedule_id"`
}

// AccessRule is a named bundle of rule items.
type AccessRule struct {
	ID        string     `json:"id"`
	OrgID     *string    `json:"org_id,omitempty"`
	Name      string     `json:"name"`
	Items     []RuleItem `json:"items,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Grant attaches an access rule to a person.
type Grant struct {
	PersonnelID string    `json:"personnel_id"`
	RuleID      string    `json:"rule_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Interlock is a named set of access points with at most one open
// member at a time. A nil ReleaseTimeoutSeconds falls back to the
// configured default.
type Interlock struct {
	ID                    string    `json:"id"`
	OrgID                 *string   `json:"org_id,omitempty"`
	Name                  string    `json:"name"`
	ReleaseTimeoutSeconds *int      `json:"release_timeout_seconds,omitempty"`
	PointIDs              []string  `json:"point_ids,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// ValidateItem checks the exactly-one-target invariant.
func ValidateItem(item *RuleItem) error {
	hasPoint := item.AccessPointID != nil && *item.AccessPointID != ""
	hasGroup := item.AccessGroupID != nil && *item.AccessGroupID != ""
	if hasPoint == hasGroup {
		return ErrInvalidItem
	}
	if item.ScheduleID == "" {
		return fmt.Errorf("%w: item requires a schedule", ErrInvalidItem)
	}
	return nil
}

// ValidateName checks a rule/group/interlock display name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > 100 {
		return fmt.Errorf("%w: name exceeds 100 characters", ErrInvalidName)
	}
	return nil
}
