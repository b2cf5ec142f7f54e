package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ostiary/ostiary-core/internal/decision"
	"github.com/ostiary/ostiary-core/internal/infrastructure/influxdb"
	"github.com/ostiary/ostiary-core/internal/infrastructure/logging"
)

// recordTimeout bounds the write so a wedged database cannot pile up
// recorder goroutines behind it.
const recordTimeout = 5 * time.Second

// Recorder is the engine sink that lands every committed verdict in
// the audit table and, when metrics are connected, in InfluxDB.
type Recorder struct {
	repo    Repository
	metrics *influxdb.Client
	log     *logging.Logger
}

// NewRecorder creates a recorder. metrics may be nil when InfluxDB is
// disabled; decisions are then audited to SQLite only.
func NewRecorder(repo Repository, metrics *influxdb.Client, log *logging.Logger) *Recorder {
	return &Recorder{repo: repo, metrics: metrics, log: log}
}

// OnDecision implements decision.Sink. A failed audit write is logged,
// never propagated: the verdict has already been issued and the door
// already acted on it.
func (r *Recorder) OnDecision(v decision.Verdict) {
	e := &Event{
		ID:            uuid.NewString(),
		OccurredAt:    v.Timestamp,
		AccessPointID: v.AccessPointID,
		Direction:     string(v.Direction),
		Decision:      string(v.Decision),
		Reason:        string(v.Reason),
		LatencyMs:     float64(v.Latency.Microseconds()) / 1000.0,
	}
	if v.PersonnelID != "" {
		e.PersonnelID = &v.PersonnelID
	}
	if v.MatchedRuleID != "" {
		e.MatchedRuleID = &v.MatchedRuleID
	}
	if v.MatchedScheduleID != "" {
		e.MatchedScheduleID = &v.MatchedScheduleID
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := r.repo.Record(ctx, e); err != nil {
		r.log.Error("recording decision event failed",
			"event_id", e.ID,
			"access_point_id", e.AccessPointID,
			"error", err)
	}

	if r.metrics != nil {
		r.metrics.WriteDecisionMetric(v.AccessPointID, string(v.Decision), string(v.Reason), v.Latency)
	}
}
