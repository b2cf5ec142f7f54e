package decision

import (
	"context"
	"sync"
	"time"

	"github.com/ostiary/ostiary-core/internal/accesspoint"
	"github.com/ostiary/ostiary-core/internal/directory"
	"github.com/ostiary/ostiary-core/internal/infrastructure/logging"
)

// ScanFactor is one authentication factor presented at a reader.
type ScanFactor struct {
	Kind       directory.FactorKind `json:"factor_kind"`
	Identifier string               `json:"identifier"`
}

// ScanEvent is a credential presentation at an access point.
type ScanEvent struct {
	AccessPointID string                `json:"access_point_id"`
	Direction     accesspoint.Direction `json:"direction"`
	Factors       []ScanFactor          `json:"factors"`

	// Timestamp is when the scan happened at the reader. Zero means
	// "now"; schedules are evaluated against this instant.
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Verdict is the outcome of evaluating one scan.
type Verdict struct {
	Decision      Decision              `json:"decision"`
	Reason        Reason                `json:"reason"`
	AccessPointID string                `json:"access_point_id"`
	Direction     accesspoint.Direction `json:"direction"`

	// PersonnelID is set once credential resolution identifies the
	// holder, including on later-stage denials.
	PersonnelID string `json:"personnel_id,omitempty"`

	// MatchedRuleID and MatchedScheduleID identify the authorizing rule
	// item on ALLOW, for the audit trail.
	MatchedRuleID     string `json:"matched_rule_id,omitempty"`
	MatchedScheduleID string `json:"matched_schedule_id,omitempty"`

	Simulated bool          `json:"simulated,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Latency   time.Duration `json:"-"`
}

// Sink receives committed verdicts for auditing, metrics, or live
// streaming. Simulated decisions are not delivered.
type Sink interface {
	OnDecision(v Verdict)
}

// Engine is the access decision engine. It evaluates scans against the
// current configuration snapshot in a fixed check order, short-circuits
// on the first failure, and fails closed when the latency budget is
// exhausted.
type Engine struct {
	snapshots SnapshotProvider
	tracker   *Tracker
	interlock *Coordinator
	budget    time.Duration
	log       *logging.Logger

	mu    sync.Mutex
	sinks []Sink
}

// NewEngine creates an engine. budget is the hard per-decision latency
// budget; releaseTimeout is the default interlock auto-release.
func NewEngine(snapshots SnapshotProvider, budget, releaseTimeout time.Duration, log *logging.Logger) *Engine {
	return &Engine{
		snapshots: snapshots,
		tracker:   NewTracker(),
		interlock: NewCoordinator(releaseTimeout),
		budget:    budget,
		log:       log,
	}
}

// AddSink registers a verdict sink.
func (e *Engine) AddSink(s Sink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, s)
}

// Tracker exposes the antipassback tracker for operator resets.
func (e *Engine) Tracker() *Tracker { return e.tracker }

// Decide evaluates a scan for real: state commits on ALLOW and the
// verdict is delivered to sinks.
func (e *Engine) Decide(ctx context.Context, scan ScanEvent) Verdict {
	v := e.run(ctx, scan, true)
	e.emit(v)
	return v
}

// Simulate evaluates a scan without side effects: no antipassback
// commit, no interlock acquisition, no sink delivery. Interlock state
// is still read, so a simulation reports what a real scan would get.
func (e *Engine) Simulate(ctx context.Context, scan ScanEvent) Verdict {
	v := e.run(ctx, scan, false)
	v.Simulated = true
	return v
}

// DoorClosed releases the scan's interlock hold when a member door
// reports closed.
func (e *Engine) DoorClosed(pointID string) {
	snap := e.snapshots.Current()
	if snap == nil {
		return
	}
	if interlockID, ok := snap.InterlockByPoint[pointID]; ok {
		e.interlock.Release(interlockID, pointID)
	}
}

// Close stops the engine's interlock timers.
func (e *Engine) Close() {
	e.interlock.Close()
}

func (e *Engine) run(ctx context.Context, scan ScanEvent, commit bool) Verdict {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.budget)
	defer cancel()

	done := make(chan Verdict, 1)
	go func() {
		done <- e.evaluate(ctx, scan, commit, start)
	}()

	select {
	case v := <-done:
		return v
	case <-ctx.Done():
		// Fail closed. The evaluation goroutine checks ctx before any
		// commit, so a late finish cannot open a door whose verdict
		// already denied.
		e.log.Warn("decision exceeded latency budget",
			"access_point_id", scan.AccessPointID,
			"budget", e.budget)
		return e.verdict(scan, Deny, ReasonTimeout, start)
	}
}

// evaluate runs the check chain. Order is fixed: credential, grant,
// threshold, antipassback, interlock. The first failing check denies
// and later checks never run.
func (e *Engine) evaluate(ctx context.Context, scan ScanEvent, commit bool, start time.Time) Verdict {
	snap := e.snapshots.Current()
	if snap == nil {
		return e.verdict(scan, Deny, ReasonNotReady, start)
	}

	point, ok := snap.Points[scan.AccessPointID]
	if !ok {
		return e.verdict(scan, Deny, ReasonUnknownAccessPoint, start)
	}

	at := scan.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	// Credential resolution and auth mode matching.
	person, authRule, reason := e.matchCredentials(snap, point, scan)
	if reason != ReasonOK {
		v := e.verdict(scan, Deny, reason, start)
		if person != nil {
			v.PersonnelID = person.ID
		}
		return v
	}

	// Grant resolution.
	res := snap.Resolver.Resolve(person.ID, point.ID, at)
	if !res.Authorized {
		reason := ReasonNoAccessRule
		if res.Covered {
			reason = ReasonOutsideSchedule
		}
		v := e.verdict(scan, Deny, reason, start)
		v.PersonnelID = person.ID
		return v
	}

	// Threshold comparison.
	thresholdResult, reason := e.checkThreshold(snap, point, scan.Direction, person)
	if reason != ReasonOK {
		v := e.verdict(scan, Deny, reason, start)
		v.PersonnelID = person.ID
		return v
	}

	// Movement checks and commit run under the person's lock so two
	// simultaneous scans for one person serialize: the second sees the
	// first's committed state, never the state both started from.
	unlock := e.tracker.Lock(person.ID)
	defer unlock()

	from, to := point.MovementVector(scan.Direction)

	enforceAntipassback := authRule.IsAntipassback && !thresholdResult.AntipassbackExempt
	if enforceAntipassback && !e.tracker.Check(person.ID, from) {
		v := e.verdict(scan, Deny, ReasonAntipassbackViolation, start)
		v.PersonnelID = person.ID
		return v
	}

	// Interlock. A real decision acquires the hold; a simulation only
	// reads whether another member is open.
	if interlockID, locked := snap.InterlockByPoint[point.ID]; locked {
		if commit {
			if ctx.Err() != nil {
				return e.verdict(scan, Deny, ReasonTimeout, start)
			}
			timeout := e.releaseTimeout(snap, interlockID)
			if !e.interlock.TryAcquire(interlockID, point.ID, timeout) {
				v := e.verdict(scan, Deny, ReasonInterlockBlocked, start)
				v.PersonnelID = person.ID
				return v
			}
		} else {
			if open, isOpen := e.interlock.OpenMember(interlockID); isOpen && open != point.ID {
				v := e.verdict(scan, Deny, ReasonInterlockBlocked, start)
				v.PersonnelID = person.ID
				return v
			}
		}
	}

	// Final ALLOW: commit the movement. A timed-out evaluation must not
	// commit, since the caller already returned a TIMEOUT denial.
	if commit {
		if ctx.Err() != nil {
			if interlockID, locked := snap.InterlockByPoint[point.ID]; locked {
				e.interlock.Release(interlockID, point.ID)
			}
			return e.verdict(scan, Deny, ReasonTimeout, start)
		}
		e.tracker.Commit(person.ID, to)
	}

	v := e.verdict(scan, Allow, ReasonOK, start)
	v.PersonnelID = person.ID
	v.MatchedRuleID = res.RuleID
	v.MatchedScheduleID = res.ScheduleID
	return v
}

// matchCredentials resolves every presented factor to a credential,
// enforces single ownership, and checks the door's auth mode for the
// scan direction.
func (e *Engine) matchCredentials(snap *Snapshot, point *accesspoint.AccessPoint, scan ScanEvent) (*directory.Personnel, *CompiledAuthRule, Reason) {
	if len(scan.Factors) == 0 {
		return nil, nil, ReasonUnknownCredential
	}

	presented := make(map[directory.FactorKind]bool, len(scan.Factors))
	var person *directory.Personnel

	for _, f := range scan.Factors {
		cred, ok := snap.Credentials[FactorRef{Kind: f.Kind, Identifier: f.Identifier}]
		if !ok {
			return person, nil, ReasonUnknownCredential
		}
		if !cred.IsUsable() {
			return person, nil, ReasonCredentialInactive
		}

		owner, ok := snap.Personnel[cred.PersonnelID]
		if !ok || !owner.IsActive {
			return person, nil, ReasonCredentialInactive
		}
		if person != nil && person.ID != owner.ID {
			return person, nil, ReasonCredentialOwnerMismatch
		}
		person = owner
		presented[f.Kind] = true
	}

	cfg, ok := snap.Configs[point.ID]
	if !ok {
		return person, nil, ReasonNoAuthRuleConfigured
	}
	_, authRuleID := cfg.Requirements(scan.Direction)
	if authRuleID == nil {
		return person, nil, ReasonNoAuthRuleConfigured
	}
	authRule, ok := snap.AuthRules[*authRuleID]
	if !ok {
		return person, nil, ReasonNoAuthRuleConfigured
	}
	if authRule.Expr == nil {
		return person, nil, ReasonInvalidAuthMode
	}
	if !authRule.Expr.Satisfied(presented) {
		return person, authRule, ReasonAuthModeNotSatisfied
	}
	return person, authRule, ReasonOK
}

// checkThreshold compares the person's levels against the door's
// threshold for the scan direction. A missing threshold fails closed.
func (e *Engine) checkThreshold(snap *Snapshot, point *accesspoint.AccessPoint, dir accesspoint.Direction, person *directory.Personnel) (accesspoint.ThresholdResult, Reason) {
	cfg, ok := snap.Configs[point.ID]
	if !ok {
		return accesspoint.ThresholdResult{}, ReasonNoThresholdConfigured
	}
	thresholdID, _ := cfg.Requirements(dir)
	if thresholdID == nil {
		return accesspoint.ThresholdResult{}, ReasonNoThresholdConfigured
	}
	threshold, ok := snap.Thresholds[*thresholdID]
	if !ok {
		return accesspoint.ThresholdResult{}, ReasonNoThresholdConfigured
	}

	result := threshold.Evaluate(person.Levels)
	if !result.AccessMet {
		return result, ReasonInsufficientLevel
	}
	return result, ReasonOK
}

func (e *Engine) releaseTimeout(snap *Snapshot, interlockID string) time.Duration {
	il, ok := snap.Interlocks[interlockID]
	if !ok || il.ReleaseTimeoutSeconds == nil {
		return 0
	}
	return time.Duration(*il.ReleaseTimeoutSeconds) * time.Second
}

func (e *Engine) verdict(scan ScanEvent, d Decision, r Reason, start time.Time) Verdict {
	return Verdict{
		Decision:      d,
		Reason:        r,
		AccessPointID: scan.AccessPointID,
		Direction:     scan.Direction,
		Timestamp:     time.Now().UTC(),
		Latency:       time.Since(start),
	}
}

// emit delivers a verdict to registered sinks off the hot path.
func (e *Engine) emit(v Verdict) {
	e.mu.Lock()
	sinks := make([]Sink, len(e.sinks))
	copy(sinks, e.sinks)
	e.mu.Unlock()

	if len(sinks) == 0 {
		return
	}
	go func() {
		for _, s := range sinks {
			s.OnDecision(v)
		}
	}()
}
