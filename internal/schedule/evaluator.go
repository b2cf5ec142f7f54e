package schedule

import "time"

// Matches reports whether instant t falls inside the schedule described
// by items, honoring holiday overrides.
//
// The effective day bucket for t's date is resolved first: if any
// holiday applies to the date, its tier bucket (8..10) substitutes the
// ISO weekday entirely; otherwise the ISO weekday (1=Mon..7=Sun) is
// used. When several holidays claim the same date the highest tier
// wins. t then matches if any item for the effective bucket satisfies
// start_minute <= minute-of-day < end_minute.
//
// Pure function: no side effects, safe for concurrent use.
func Matches(items []TimeScheduleItem, holidays []Holiday, t time.Time) bool {
	day := EffectiveDay(holidays, t)
	minute := t.Hour()*60 + t.Minute()

	for i := range items {
		item := &items[i]
		if item.DayOfWeek != day {
			continue
		}
		if item.StartMinute <= minute && minute < item.EndMinute {
			return true
		}
	}
	return false
}

// EffectiveDay resolves the day bucket used for matching at instant t.
// Returns 8..10 when t's date is a declared holiday (highest tier wins),
// otherwise the ISO weekday 1..7.
func EffectiveDay(holidays []Holiday, t time.Time) int {
	tier := 0
	for i := range holidays {
		h := &holidays[i]
		if h.AppliesTo(t) && h.Tier > tier {
			tier = h.Tier
		}
	}
	if tier > 0 {
		return holidayDayOffset + tier
	}
	return isoWeekday(t)
}

// isoWeekday converts time.Weekday (Sunday=0) to ISO numbering (Monday=1..Sunday=7).
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
