// Package mqtt provides MQTT client connectivity for Ostiary Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Ostiary uses MQTT as the message bus connecting the Core to door
// gateways (reader controllers, relay boards, door position sensors).
// The broker decouples Core from controller-specific firmware.
//
//	Door Gateways ↔ MQTT Broker ↔ Ostiary Core
//
// Gateways publish credential scans and door position events; Core
// answers with access verdicts that the gateway turns into relay pulses.
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to scans from every access point
//	err = client.Subscribe(mqtt.Topics{}.AllScans(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a verdict
//	topic := mqtt.Topics{}.Verdict("door-lobby-1")
//	client.Publish(topic, []byte(`{"decision":"allow"}`), 1, false)
package mqtt
