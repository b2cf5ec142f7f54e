package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDecisionMetric records a single access decision outcome.
//
// This is the primary method for decision telemetry. Each evaluated scan
// produces one point tagged by access point, outcome, and reason code,
// with the evaluation latency as the field value. Dashboards aggregate
// these into allow/deny rates and latency percentiles per door.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - pointID: Access point identifier (e.g., "door-lobby-1")
//   - decision: Outcome string ("allow" or "deny")
//   - reason: Reason code (e.g., "OK", "OUTSIDE_SCHEDULE")
//   - latency: Time from scan receipt to verdict
//
// Example:
//
//	client.WriteDecisionMetric("door-lobby-1", "allow", "OK", 3*time.Millisecond)
func (c *Client) WriteDecisionMetric(pointID string, decision string, reason string, latency time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"access_decisions",
		map[string]string{
			"point_id": pointID,
			"decision": decision,
			"reason":   reason,
		},
		map[string]interface{}{
			"latency_ms": float64(latency.Microseconds()) / 1000.0,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteDoorEvent records a door position or tamper event.
//
// Used for tracking door activity: open/close confirmations, forced-open
// and held-open alarms as reported by gateways.
//
// Parameters:
//   - pointID: Access point identifier
//   - eventType: Door event type (e.g., "opened", "closed", "forced_open")
func (c *Client) WriteDoorEvent(pointID string, eventType string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"door_events",
		map[string]string{
			"point_id": pointID,
			"event":    eventType,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteOccupancyMetric records the tracked population of an area.
//
// Written whenever antipassback state changes an area's census, giving
// dashboards a live headcount per secured area.
//
// Parameters:
//   - areaID: Area identifier (e.g., "area-server-room")
//   - occupants: Number of personnel currently tracked inside
func (c *Client) WriteOccupancyMetric(areaID string, occupants int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"area_occupancy",
		map[string]string{
			"area_id": areaID,
		},
		map[string]interface{}{
			"occupants": occupants,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "core-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., replaying buffered
// gateway events after a network outage).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
