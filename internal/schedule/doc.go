// Package schedule provides weekly time window evaluation with holiday
// overrides.
//
// A TimeSchedule is a named weekly template of items. Each item covers
// one day bucket and a [start, end) minute interval. Day buckets 1..7
// are ISO weekdays (Monday..Sunday); buckets 8..10 are holiday tiers
// 1..3. When the evaluated date is declared a holiday, matching uses
// the holiday's tier bucket instead of the literal weekday, so regular
// weekday items never apply on a holiday.
//
// Evaluation is a pure function over the schedule's items and the
// organization's holiday set; it holds no state and is safe to call
// concurrently.
//
// Windows spanning midnight are stored as two items (e.g. 22:00-24:00
// plus 00:00-06:00 on the next day). There is no implicit wraparound.
package schedule
