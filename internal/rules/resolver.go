package rules

import (
	"time"

	"github.com/ostiary/ostiary-core/internal/schedule"
)

// Resolution is the outcome of a grant lookup. RuleID and ScheduleID
// identify the first satisfying item for the audit trail; rules are an
// unordered union, so "first" carries no policy meaning.
//
// Covered distinguishes "no rule mentions this door" from "a rule
// mentions it but no schedule matched" - the two produce different
// denial reasons.
type Resolution struct {
	Authorized bool
	Covered    bool
	RuleID     string
	ScheduleID string
}

// ResolverView is the read-only data the resolver walks. It is built
// from a configuration snapshot, never from live tables, so a single
// decision sees one consistent state.
type ResolverView struct {
	// GrantsByPersonnel maps a personnel ID to the rule IDs granted to them.
	GrantsByPersonnel map[string][]string

	// Rules maps rule ID to the rule with its items loaded.
	Rules map[string]*AccessRule

	// GroupMembers maps group ID to the set of member point IDs.
	GroupMembers map[string]map[string]bool

	// Schedules maps schedule ID to the schedule with its items loaded.
	Schedules map[string]*schedule.TimeSchedule

	// Holidays is the full holiday set used for day bucket overrides.
	Holidays []schedule.Holiday
}

// Resolve reports whether personnelID is authorized at pointID at
// instant t, and which rule item and schedule matched.
//
// All grants are walked; an item covers the point when it targets the
// point directly or a group containing it, and its schedule matches t.
// Union semantics: one satisfying item anywhere suffices.
func (v *ResolverView) Resolve(personnelID, pointID string, t time.Time) Resolution {
	res := Resolution{}
	for _, ruleID := range v.GrantsByPersonnel[personnelID] {
		rule, ok := v.Rules[ruleID]
		if !ok {
			continue
		}
		for i := range rule.Items {
			item := &rule.Items[i]
			if !v.itemCoversPoint(item, pointID) {
				continue
			}
			res.Covered = true
			sched, ok := v.Schedules[item.ScheduleID]
			if !ok {
				continue
			}
			if schedule.Matches(sched.Items, v.Holidays, t) {
				return Resolution{Authorized: true, Covered: true, RuleID: rule.ID, ScheduleID: sched.ID}
			}
		}
	}
	return res
}

// itemCoversPoint reports whether a rule item's Where-target includes
// the point. Group membership is a set test, not a traversal.
func (v *ResolverView) itemCoversPoint(item *RuleItem, pointID string) bool {
	if item.AccessPointID != nil {
		return *item.AccessPointID == pointID
	}
	if item.AccessGroupID != nil {
		return v.GroupMembers[*item.AccessGroupID][pointID]
	}
	return false
}
