package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Day bucket boundaries. 1..7 are ISO weekdays; holiday tiers 1..3 map
// to buckets 8..10 via holidayDayOffset.
const (
	MinWeekday       = 1
	MaxWeekday       = 7
	holidayDayOffset = 7
	MinHolidayTier   = 1
	MaxHolidayTier   = 3
	minutesPerDay    = 1440
)

// TimeSchedule is a named weekly template.
type TimeSchedule struct {
	ID        string             `json:"id"`
	OrgID     *string            `json:"org_id,omitempty"`
	Name      string             `json:"name"`
	Items     []TimeScheduleItem `json:"items,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// TimeScheduleItem is one day bucket plus a [start, end) minute window.
type TimeScheduleItem struct {
	ID          string `json:"id"`
	ScheduleID  string `json:"schedule_id"`
	DayOfWeek   int    `json:"day_of_week"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
}

// Holiday marks a date as belonging to a holiday tier. A nil Year makes
// the holiday recur annually.
type Holiday struct {
	ID        string    `json:"id"`
	OrgID     *string   `json:"org_id,omitempty"`
	Name      string    `json:"name"`
	Month     int       `json:"month"`
	Day       int       `json:"day"`
	Year      *int      `json:"year,omitempty"`
	Tier      int       `json:"tier"`
	CreatedAt time.Time `json:"created_at"`
}

// AppliesTo reports whether the holiday covers the given date.
func (h *Holiday) AppliesTo(t time.Time) bool {
	if int(t.Month()) != h.Month || t.Day() != h.Day {
		return false
	}
	return h.Year == nil || *h.Year == t.Year()
}

// DayBucket returns the schedule day bucket for the holiday's tier.
func (h *Holiday) DayBucket() int {
	return holidayDayOffset + h.Tier
}

// ValidateItem validates a schedule item before persistence.
func ValidateItem(item *TimeScheduleItem) error {
	if item.DayOfWeek < MinWeekday || item.DayOfWeek > holidayDayOffset+MaxHolidayTier {
		return fmt.Errorf("%w: %d", ErrInvalidDay, item.DayOfWeek)
	}
	if item.StartMinute < 0 || item.EndMinute > minutesPerDay || item.StartMinute >= item.EndMinute {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidWindow, item.StartMinute, item.EndMinute)
	}
	return nil
}

// ValidateHoliday validates a holiday before persistence.
func ValidateHoliday(h *Holiday) error {
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("%w: holiday name cannot be empty", ErrInvalidDate)
	}
	if h.Month < 1 || h.Month > 12 || h.Day < 1 || h.Day > 31 {
		return fmt.Errorf("%w: %02d-%02d", ErrInvalidDate, h.Month, h.Day)
	}
	if h.Tier < MinHolidayTier || h.Tier > MaxHolidayTier {
		return fmt.Errorf("%w: %d", ErrInvalidTier, h.Tier)
	}
	return nil
}
