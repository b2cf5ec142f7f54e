package decision

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ostiary/ostiary-core/internal/accesspoint"
	"github.com/ostiary/ostiary-core/internal/directory"
	"github.com/ostiary/ostiary-core/internal/infrastructure/logging"
	"github.com/ostiary/ostiary-core/internal/rules"
	"github.com/ostiary/ostiary-core/internal/schedule"
)

// FactorRef keys a credential by what a reader presents on the wire.
type FactorRef struct {
	Kind       directory.FactorKind
	Identifier string
}

// CompiledAuthRule is an auth rule with its mode expression parsed.
// A nil Expr means the stored mode string did not parse; decisions
// matched under it deny with INVALID_AUTH_MODE.
type CompiledAuthRule struct {
	accesspoint.AuthRule
	Expr *accesspoint.AuthExpr
}

// Snapshot is an immutable view of the full access configuration.
// Every decision reads exactly one snapshot, so configuration writes
// landing mid-evaluation can never split a verdict across two states.
//
// Maps are never mutated after Load returns; share freely.
type Snapshot struct {
	TakenAt time.Time

	Personnel   map[string]*directory.Personnel
	Credentials map[FactorRef]*directory.Credential

	Points     map[string]*accesspoint.AccessPoint
	Configs    map[string]*accesspoint.PointConfig
	Thresholds map[string]*accesspoint.Threshold
	AuthRules  map[string]*CompiledAuthRule

	Resolver *rules.ResolverView

	Interlocks       map[string]*rules.Interlock
	InterlockByPoint map[string]string
}

// SnapshotSource builds a fresh snapshot from the configuration store.
type SnapshotSource interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// StoreLoader builds snapshots from the SQLite-backed repositories.
type StoreLoader struct {
	directory directory.Repository
	schedules schedule.Repository
	points    accesspoint.Repository
	rules     rules.Repository
	log       *logging.Logger
}

// NewStoreLoader creates a snapshot loader over the four domain repositories.
func NewStoreLoader(dir directory.Repository, sch schedule.Repository, pts accesspoint.Repository, rls rules.Repository, log *logging.Logger) *StoreLoader {
	return &StoreLoader{directory: dir, schedules: sch, points: pts, rules: rls, log: log}
}

// Load reads every configuration entity and assembles an immutable
// snapshot. Auth modes are parsed here, once, so no string handling
// sits on the decision hot path.
func (l *StoreLoader) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		TakenAt:          time.Now().UTC(),
		Personnel:        make(map[string]*directory.Personnel),
		Credentials:      make(map[FactorRef]*directory.Credential),
		Points:           make(map[string]*accesspoint.AccessPoint),
		Configs:          make(map[string]*accesspoint.PointConfig),
		Thresholds:       make(map[string]*accesspoint.Threshold),
		AuthRules:        make(map[string]*CompiledAuthRule),
		Interlocks:       make(map[string]*rules.Interlock),
		InterlockByPoint: make(map[string]string),
	}

	personnel, err := l.directory.ListPersonnel(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: personnel: %v", ErrSnapshotLoad, err)
	}
	for i := range personnel {
		snap.Personnel[personnel[i].ID] = &personnel[i]
	}

	credentials, err := l.directory.ListCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: credentials: %v", ErrSnapshotLoad, err)
	}
	for i := range credentials {
		c := &credentials[i]
		snap.Credentials[FactorRef{Kind: c.Kind, Identifier: c.Identifier}] = c
	}

	points, err := l.points.ListPoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: access points: %v", ErrSnapshotLoad, err)
	}
	for i := range points {
		snap.Points[points[i].ID] = &points[i]
	}

	configs, err := l.points.ListConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: point configs: %v", ErrSnapshotLoad, err)
	}
	for i := range configs {
		snap.Configs[configs[i].AccessPointID] = &configs[i]
	}

	thresholds, err := l.points.ListThresholds(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: thresholds: %v", ErrSnapshotLoad, err)
	}
	for i := range thresholds {
		snap.Thresholds[thresholds[i].ID] = &thresholds[i]
	}

	authRules, err := l.points.ListAuthRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: auth rules: %v", ErrSnapshotLoad, err)
	}
	for i := range authRules {
		compiled := &CompiledAuthRule{AuthRule: authRules[i]}
		expr, perr := accesspoint.ParseAuthMode(authRules[i].AuthMode)
		if perr != nil {
			// Keep the rule so decisions under it fail closed with a
			// precise reason instead of vanishing from the snapshot.
			l.log.Warn("auth rule mode does not parse",
				"auth_rule_id", authRules[i].ID,
				"auth_mode", authRules[i].AuthMode,
				"error", perr)
		} else {
			compiled.Expr = expr
		}
		snap.AuthRules[authRules[i].ID] = compiled
	}

	resolver, err := l.loadResolver(ctx)
	if err != nil {
		return nil, err
	}
	snap.Resolver = resolver

	interlocks, err := l.rules.ListInterlocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: interlocks: %v", ErrSnapshotLoad, err)
	}
	for i := range interlocks {
		il := &interlocks[i]
		snap.Interlocks[il.ID] = il
		for _, pointID := range il.PointIDs {
			snap.InterlockByPoint[pointID] = il.ID
		}
	}

	return snap, nil
}

func (l *StoreLoader) loadResolver(ctx context.Context) (*rules.ResolverView, error) {
	view := &rules.ResolverView{
		GrantsByPersonnel: make(map[string][]string),
		Rules:             make(map[string]*rules.AccessRule),
		GroupMembers:      make(map[string]map[string]bool),
		Schedules:         make(map[string]*schedule.TimeSchedule),
	}

	grants, err := l.rules.ListGrants(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: grants: %v", ErrSnapshotLoad, err)
	}
	for _, g := range grants {
		view.GrantsByPersonnel[g.PersonnelID] = append(view.GrantsByPersonnel[g.PersonnelID], g.RuleID)
	}

	accessRules, err := l.rules.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: access rules: %v", ErrSnapshotLoad, err)
	}
	for i := range accessRules {
		view.Rules[accessRules[i].ID] = &accessRules[i]
	}

	groups, err := l.rules.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: groups: %v", ErrSnapshotLoad, err)
	}
	for _, g := range groups {
		members := make(map[string]bool, len(g.PointIDs))
		for _, pointID := range g.PointIDs {
			members[pointID] = true
		}
		view.GroupMembers[g.ID] = members
	}

	schedules, err := l.schedules.ListSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: schedules: %v", ErrSnapshotLoad, err)
	}
	for i := range schedules {
		view.Schedules[schedules[i].ID] = &schedules[i]
	}

	holidays, err := l.schedules.ListHolidays(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: holidays: %v", ErrSnapshotLoad, err)
	}
	view.Holidays = holidays

	return view, nil
}

// SnapshotProvider hands out the current configuration snapshot.
type SnapshotProvider interface {
	Current() *Snapshot
}

// Provider keeps a current snapshot fresh: a periodic reload plus an
// Invalidate kick after configuration writes. Swaps are atomic, so
// readers never see a partially built snapshot.
type Provider struct {
	source   SnapshotSource
	interval time.Duration
	log      *logging.Logger

	current atomic.Pointer[Snapshot]
	kick    chan struct{}
}

// NewProvider creates a snapshot provider. Call Refresh once during
// startup to populate the first snapshot, then Run in a goroutine.
func NewProvider(source SnapshotSource, interval time.Duration, log *logging.Logger) *Provider {
	return &Provider{
		source:   source,
		interval: interval,
		log:      log,
		kick:     make(chan struct{}, 1),
	}
}

// Current returns the latest snapshot, or nil before the first
// successful load. Decisions fail closed on nil.
func (p *Provider) Current() *Snapshot {
	return p.current.Load()
}

// Refresh loads a fresh snapshot immediately and swaps it in.
func (p *Provider) Refresh(ctx context.Context) error {
	snap, err := p.source.Load(ctx)
	if err != nil {
		return err
	}
	p.current.Store(snap)
	return nil
}

// Invalidate requests an out-of-band refresh. Non-blocking; multiple
// calls before the refresh runs coalesce into one reload.
func (p *Provider) Invalidate() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Run refreshes on the configured interval and on Invalidate kicks
// until ctx is cancelled. A failed reload keeps the previous snapshot:
// decisions continue on slightly stale config rather than failing.
func (p *Provider) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-p.kick:
		}
		if err := p.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Error("snapshot refresh failed, keeping previous", "error", err)
		}
	}
}
