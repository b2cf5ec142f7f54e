// Package gateway bridges MQTT door traffic to the decision engine:
// scan messages in, verdicts out, door events back into interlock and
// security monitoring.
//
// Topic contract (prefix "ostiary"):
//
//	ostiary/scan/{point}    gateway -> core   credential presentation
//	ostiary/verdict/{point} core -> gateway   decision for the door relay
//	ostiary/door/{point}    gateway -> core   door position events
//	ostiary/core/event/{t}  core -> anyone    security and lifecycle events
package gateway
