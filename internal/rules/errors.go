package rules

import "errors"

var (
	// ErrGroupNotFound is returned when an access group ID does not exist.
	ErrGroupNotFound = errors.New("rules: access group not found")

	// ErrRuleNotFound is returned when an access rule ID does not exist.
	ErrRuleNotFound = errors.New("rules: access rule not found")

	// ErrGrantNotFound is returned when a grant does not exist.
	ErrGrantNotFound = errors.New("rules: grant not found")

	// ErrInterlockNotFound is returned when an interlock ID does not exist.
	ErrInterlockNotFound = errors.New("rules: interlock not found")

	// ErrInvalidItem is returned when a rule item does not target exactly
	// one of access point / access group.
	ErrInvalidItem = errors.New("rules: item must target exactly one of point or group")

	// ErrInvalidName is returned for empty or oversized names.
	ErrInvalidName = errors.New("rules: invalid name")

	// ErrPointInterlocked is returned when adding a point to an interlock
	// it is already a member of another interlock.
	ErrPointInterlocked = errors.New("rules: access point already belongs to an interlock")
)
