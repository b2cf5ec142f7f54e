package decision

import "sync"

// Tracker holds per-person antipassback state: the area each tracked
// person was last seen entering. State lives in memory only; a restart
// forgets everyone, which reads as "untracked" and admits the next
// movement as a fresh starting point.
//
// Decisions for the same person are serialized through Lock so two
// simultaneous scans cannot both pass the check and both commit.
// Different people never contend.
type Tracker struct {
	mu    sync.Mutex
	locks map[string]*personLock
	areas map[string]string
}

type personLock struct {
	sync.Mutex
	refs int
}

// NewTracker creates an empty antipassback tracker.
func NewTracker() *Tracker {
	return &Tracker{
		locks: make(map[string]*personLock),
		areas: make(map[string]string),
	}
}

// Lock serializes decision-making for one person. The returned unlock
// must be called exactly once. Lock entries are reference counted and
// removed when unused, so the map does not grow with site population.
func (t *Tracker) Lock(personnelID string) (unlock func()) {
	t.mu.Lock()
	pl, ok := t.locks[personnelID]
	if !ok {
		pl = &personLock{}
		t.locks[personnelID] = pl
	}
	pl.refs++
	t.mu.Unlock()

	pl.Mutex.Lock()

	return func() {
		pl.Mutex.Unlock()
		t.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(t.locks, personnelID)
		}
		t.mu.Unlock()
	}
}

// Area returns the person's tracked area, if any.
func (t *Tracker) Area(personnelID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	area, ok := t.areas[personnelID]
	return area, ok
}

// Check reports whether a movement departing from the given area is
// consistent with the tracked state. An untracked person passes: their
// first movement establishes state rather than violating it. A nil
// from-area means the door's near side is unmodeled and tracking
// cannot contradict it.
func (t *Tracker) Check(personnelID string, fromArea *string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracked, ok := t.areas[personnelID]
	if !ok || fromArea == nil {
		return true
	}
	return tracked == *fromArea
}

// Commit records a completed movement: the person is now in toArea.
// A nil toArea means they moved somewhere unmodeled and become
// untracked. Called only on a final ALLOW, under the person's lock.
func (t *Tracker) Commit(personnelID string, toArea *string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if toArea == nil {
		delete(t.areas, personnelID)
		return
	}
	t.areas[personnelID] = *toArea
}

// Reset forgets a person's tracked area. Operators use this to clear a
// stuck state after a tailgate or an unbadged exit.
func (t *Tracker) Reset(personnelID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.areas, personnelID)
}

// ResetAll forgets every tracked area.
func (t *Tracker) ResetAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.areas = make(map[string]string)
}

// TrackedCount returns how many people currently have tracked state.
func (t *Tracker) TrackedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.areas)
}
