package audit

import "time"

// Event is one recorded access decision.
type Event struct {
	ID            string    `json:"id"`
	OccurredAt    time.Time `json:"occurred_at"`
	AccessPointID string    `json:"access_point_id"`
	PersonnelID   *string   `json:"personnel_id,omitempty"`
	Direction     string    `json:"direction"`
	Decision      string    `json:"decision"`
	Reason        string    `json:"reason"`

	MatchedRuleID     *string `json:"matched_rule_id,omitempty"`
	MatchedScheduleID *string `json:"matched_schedule_id,omitempty"`

	LatencyMs float64   `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows a List query. Zero values mean "no constraint".
type Filter struct {
	AccessPointID string
	PersonnelID   string
	Decision      string
	Reason        string
	Since         time.Time
	Until         time.Time

	// Limit caps the number of returned events, newest first.
	// Zero applies DefaultLimit.
	Limit int
}

// DefaultLimit bounds unfiltered listings.
const DefaultLimit = 100

// MaxLimit is the hard cap on a single listing.
const MaxLimit = 1000
