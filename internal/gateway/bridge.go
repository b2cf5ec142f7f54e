package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ostiary/ostiary-core/internal/accesspoint"
	"github.com/ostiary/ostiary-core/internal/decision"
	"github.com/ostiary/ostiary-core/internal/infrastructure/influxdb"
	"github.com/ostiary/ostiary-core/internal/infrastructure/logging"
	"github.com/ostiary/ostiary-core/internal/infrastructure/mqtt"
)

// verdictQoS is at-least-once: a door gateway must not miss a verdict,
// and re-delivery of one is harmless (the relay action is idempotent).
const verdictQoS = 1

// Door event types reported by door gateways.
const (
	DoorOpened     = "opened"
	DoorClosed     = "closed"
	DoorForcedOpen = "forced_open"
	DoorHeldOpen   = "held_open"
)

// Broker is the slice of the MQTT client the bridge uses.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// ScanMessage is the wire form of a credential presentation. The access
// point ID comes from the topic, not the payload.
type ScanMessage struct {
	Direction string                `json:"direction"`
	Factors   []decision.ScanFactor `json:"factors"`
	Timestamp time.Time             `json:"timestamp,omitempty"`
}

// DoorMessage is the wire form of a door position event.
type DoorMessage struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// CoreEvent is the wire form of a published security/lifecycle event.
type CoreEvent struct {
	Type          string    `json:"type"`
	AccessPointID string    `json:"access_point_id,omitempty"`
	PersonnelID   string    `json:"personnel_id,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Bridge subscribes to door gateway traffic and runs scans through the
// decision engine.
type Bridge struct {
	broker  Broker
	engine  *decision.Engine
	metrics *influxdb.Client
	log     *logging.Logger
	topics  mqtt.Topics
}

// New creates a bridge. metrics may be nil when InfluxDB is disabled.
func New(broker Broker, engine *decision.Engine, metrics *influxdb.Client, log *logging.Logger) *Bridge {
	return &Bridge{broker: broker, engine: engine, metrics: metrics, log: log}
}

// Start subscribes to all scan and door topics.
func (b *Bridge) Start() error {
	if err := b.broker.Subscribe(b.topics.AllScans(), verdictQoS, b.handleScan); err != nil {
		return fmt.Errorf("subscribing to scans: %w", err)
	}
	if err := b.broker.Subscribe(b.topics.AllDoors(), verdictQoS, b.handleDoor); err != nil {
		return fmt.Errorf("subscribing to door events: %w", err)
	}
	return nil
}

// handleScan decodes a scan, decides it, and publishes the verdict back
// to the door's verdict topic.
func (b *Bridge) handleScan(topic string, payload []byte) error {
	pointID := mqtt.PointFromTopic(topic)
	if pointID == "" {
		return fmt.Errorf("scan on malformed topic %q", topic)
	}

	var msg ScanMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decoding scan for %s: %w", pointID, err)
	}

	dir := accesspoint.Direction(msg.Direction)
	if msg.Direction == "" {
		dir = accesspoint.DirectionEntry
	} else if !accesspoint.ValidDirection(msg.Direction) {
		return fmt.Errorf("scan for %s with invalid direction %q", pointID, msg.Direction)
	}

	verdict := b.engine.Decide(context.Background(), decision.ScanEvent{
		AccessPointID: pointID,
		Direction:     dir,
		Factors:       msg.Factors,
		Timestamp:     msg.Timestamp,
	})

	b.log.Info("scan decided",
		"access_point_id", pointID,
		"direction", dir,
		"decision", verdict.Decision,
		"reason", verdict.Reason,
		"latency_ms", verdict.Latency.Milliseconds())

	if err := b.publishVerdict(pointID, verdict); err != nil {
		return err
	}

	if verdict.Reason.SecurityEvent() {
		b.publishCoreEvent(CoreEvent{
			Type:          "security",
			AccessPointID: pointID,
			PersonnelID:   verdict.PersonnelID,
			Reason:        string(verdict.Reason),
			Timestamp:     verdict.Timestamp,
		})
	}
	return nil
}

// handleDoor feeds door position changes into the interlock coordinator
// and flags forced openings.
func (b *Bridge) handleDoor(topic string, payload []byte) error {
	pointID := mqtt.PointFromTopic(topic)
	if pointID == "" {
		return fmt.Errorf("door event on malformed topic %q", topic)
	}

	var msg DoorMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decoding door event for %s: %w", pointID, err)
	}

	b.log.Debug("door event", "access_point_id", pointID, "event", msg.Event)

	if b.metrics != nil {
		b.metrics.WriteDoorEvent(pointID, msg.Event)
	}

	switch msg.Event {
	case DoorClosed:
		b.engine.DoorClosed(pointID)
	case DoorForcedOpen, DoorHeldOpen:
		b.publishCoreEvent(CoreEvent{
			Type:          "security",
			AccessPointID: pointID,
			Reason:        msg.Event,
			Timestamp:     time.Now().UTC(),
		})
	}
	return nil
}

func (b *Bridge) publishVerdict(pointID string, v decision.Verdict) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding verdict for %s: %w", pointID, err)
	}
	if err := b.broker.Publish(b.topics.Verdict(pointID), payload, verdictQoS, false); err != nil {
		return fmt.Errorf("publishing verdict for %s: %w", pointID, err)
	}
	return nil
}

// publishCoreEvent is best effort: a monitoring outage must not affect
// door decisions.
func (b *Bridge) publishCoreEvent(ev CoreEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := b.broker.Publish(b.topics.CoreEvent(ev.Type), payload, verdictQoS, false); err != nil {
		b.log.Warn("publishing core event failed", "type", ev.Type, "error", err)
	}
}
