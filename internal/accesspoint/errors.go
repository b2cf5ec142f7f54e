package accesspoint

import "errors"

var (
	// ErrPointNotFound is returned when an access point ID does not exist.
	ErrPointNotFound = errors.New("accesspoint: access point not found")

	// ErrConfigNotFound is returned when a point has no config row.
	ErrConfigNotFound = errors.New("accesspoint: config not found")

	// ErrThresholdNotFound is returned when a threshold ID does not exist.
	ErrThresholdNotFound = errors.New("accesspoint: threshold not found")

	// ErrAuthRuleNotFound is returned when an auth rule ID does not exist.
	ErrAuthRuleNotFound = errors.New("accesspoint: auth rule not found")

	// ErrInvalidAuthMode is returned for an unparseable auth mode string.
	ErrInvalidAuthMode = errors.New("accesspoint: invalid auth mode")

	// ErrInvalidDirection is returned for a direction other than ENTRY/EXIT.
	ErrInvalidDirection = errors.New("accesspoint: invalid direction")

	// ErrInvalidName is returned for empty or oversized names.
	ErrInvalidName = errors.New("accesspoint: invalid name")
)
