// Package api provides the HTTP REST API and WebSocket server for
// Ostiary Core.
//
// It exposes the configuration surface (personnel, credentials, areas,
// access points, thresholds, auth rules, schedules, holidays, groups,
// rules, grants, interlocks), the decision audit trail, and a dry-run
// decision simulator to operator consoles. Live verdicts stream to
// WebSocket clients.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// All configuration writes invalidate the decision engine's snapshot so
// changes take effect on the next refresh.
package api
