package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes per the Ostiary MQTT contract.
//
// Door gateways publish scan and door-position events under the shared
// prefix; Core answers on per-point verdict topics and publishes
// security events for downstream consumers (alarm/automation systems).
const (
	// TopicPrefix is the base for all Ostiary topics.
	TopicPrefix = "ostiary"

	// TopicPrefixCore is the base for core-originated event topics.
	TopicPrefixCore = "ostiary/core"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "ostiary/system"
)

// Topics provides builders for Ostiary MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	verdictTopic := topics.Verdict("door-lobby-1")
//	// Returns: "ostiary/verdict/door-lobby-1"
type Topics struct{}

// Scan returns the topic a door gateway publishes credential scans on.
//
// Example: ostiary/scan/door-lobby-1
func (Topics) Scan(pointID string) string {
	return fmt.Sprintf("%s/scan/%s", TopicPrefix, pointID)
}

// Verdict returns the topic Core publishes decisions on for a point.
// The gateway for that point actuates its relay from this topic.
//
// Example: ostiary/verdict/door-lobby-1
func (Topics) Verdict(pointID string) string {
	return fmt.Sprintf("%s/verdict/%s", TopicPrefix, pointID)
}

// Door returns the topic a gateway publishes door position events on
// (closed confirmations, forced-open, held-open).
//
// Example: ostiary/door/door-lobby-1
func (Topics) Door(pointID string) string {
	return fmt.Sprintf("%s/door/%s", TopicPrefix, pointID)
}

// CoreEvent returns the topic for security-relevant core events consumed
// by the external automation/alarm rule engine.
//
// Example: ostiary/core/event/antipassback_violation
func (Topics) CoreEvent(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixCore, eventType)
}

// SystemStatus returns the system status topic (online/offline, LWT).
//
// Example: ostiary/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllScans returns a pattern matching scans from every access point.
//
// Pattern: ostiary/scan/+
func (Topics) AllScans() string {
	return fmt.Sprintf("%s/scan/+", TopicPrefix)
}

// AllDoors returns a pattern matching door events from every access point.
//
// Pattern: ostiary/door/+
func (Topics) AllDoors() string {
	return fmt.Sprintf("%s/door/+", TopicPrefix)
}

// AllTopics returns a pattern matching all Ostiary topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: ostiary/#
func (Topics) AllTopics() string {
	return "ostiary/#"
}

// PointFromTopic extracts the access point ID from a scan, verdict, or
// door topic. Returns an empty string if the topic does not match the
// expected three-segment shape (ostiary/{category}/{point_id}).
func PointFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != TopicPrefix || parts[2] == "" {
		return ""
	}
	return parts[2]
}
