package decision

import (
	"sync"
	"time"
)

// Coordinator enforces interlock mutual exclusion: at most one member
// door of an interlock group may be open at a time. A member acquired
// by an ALLOW stays held until the door-closed event arrives or the
// release timeout fires, whichever is first. The timeout covers lost
// or never-sent door events so a mantrap cannot wedge shut forever.
type Coordinator struct {
	mu             sync.Mutex
	defaultTimeout time.Duration
	open           map[string]*openMember
	gen            uint64
}

type openMember struct {
	pointID string
	timer   *time.Timer
	gen     uint64
}

// NewCoordinator creates an interlock coordinator. defaultTimeout
// applies to interlocks without a per-group override.
func NewCoordinator(defaultTimeout time.Duration) *Coordinator {
	return &Coordinator{
		defaultTimeout: defaultTimeout,
		open:           make(map[string]*openMember),
	}
}

// TryAcquire attempts to open a member of an interlock. It fails when
// a different member is already open. Re-acquiring the already-open
// member succeeds and restarts its release timer. A timeout <= 0 falls
// back to the coordinator default.
func (c *Coordinator) TryAcquire(interlockID, pointID string, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.open[interlockID]; ok {
		if m.pointID != pointID {
			return false
		}
		// Restart the hold under a new generation so a stale timer
		// fire from the previous hold cannot release this one.
		m.timer.Stop()
		c.gen++
		m.gen = c.gen
		m.timer = c.expireTimer(interlockID, m.gen, timeout)
		return true
	}

	c.gen++
	c.open[interlockID] = &openMember{
		pointID: pointID,
		gen:     c.gen,
		timer:   c.expireTimer(interlockID, c.gen, timeout),
	}
	return true
}

// Release clears the open member when its door reports closed. Releases
// for a door that is not the open member are ignored.
func (c *Coordinator) Release(interlockID, pointID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.open[interlockID]
	if !ok || m.pointID != pointID {
		return
	}
	m.timer.Stop()
	delete(c.open, interlockID)
}

// OpenMember returns the currently open member of an interlock, if any.
func (c *Coordinator) OpenMember(interlockID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.open[interlockID]
	if !ok {
		return "", false
	}
	return m.pointID, true
}

// Close stops all pending release timers.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, m := range c.open {
		m.timer.Stop()
		delete(c.open, id)
	}
}

func (c *Coordinator) expireTimer(interlockID string, gen uint64, timeout time.Duration) *time.Timer {
	return time.AfterFunc(timeout, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if m, ok := c.open[interlockID]; ok && m.gen == gen {
			delete(c.open, interlockID)
		}
	})
}
