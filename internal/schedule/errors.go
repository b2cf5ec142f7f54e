package schedule

import "errors"

var (
	// ErrScheduleNotFound is returned when a schedule ID does not exist.
	ErrScheduleNotFound = errors.New("schedule: schedule not found")

	// ErrItemNotFound is returned when a schedule item ID does not exist.
	ErrItemNotFound = errors.New("schedule: item not found")

	// ErrHolidayNotFound is returned when a holiday ID does not exist.
	ErrHolidayNotFound = errors.New("schedule: holiday not found")

	// ErrInvalidDay is returned for a day bucket outside 1..10.
	ErrInvalidDay = errors.New("schedule: invalid day of week")

	// ErrInvalidWindow is returned for a malformed minute interval.
	ErrInvalidWindow = errors.New("schedule: invalid time window")

	// ErrInvalidTier is returned for a holiday tier outside 1..3.
	ErrInvalidTier = errors.New("schedule: invalid holiday tier")

	// ErrInvalidDate is returned for an impossible month/day combination.
	ErrInvalidDate = errors.New("schedule: invalid date")
)
