package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// System metrics (no auth required for basic monitoring)
		r.Get("/metrics", s.handleMetrics)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// WS ticket requires authentication - the operator must be
			// logged in to request a ticket
			r.Post("/auth/ws-ticket", s.handleWSTicket)
			r.Get("/auth/me", s.handleMe)
			r.Put("/auth/password", s.handleChangePassword)

			// Read-only surface available to every operator
			r.Get("/personnel", s.handleListPersonnel)
			r.Get("/personnel/{id}", s.handleGetPersonnel)
			r.Get("/personnel/{id}/credentials", s.handleListPersonnelCredentials)
			r.Get("/credentials", s.handleListCredentials)
			r.Get("/credentials/{id}", s.handleGetCredential)
			r.Get("/areas", s.handleListAreas)
			r.Get("/areas/{id}", s.handleGetArea)
			r.Get("/points", s.handleListPoints)
			r.Get("/points/{id}", s.handleGetPoint)
			r.Get("/points/{id}/config", s.handleGetPointConfig)
			r.Get("/thresholds", s.handleListThresholds)
			r.Get("/thresholds/{id}", s.handleGetThreshold)
			r.Get("/auth-rules", s.handleListAuthRules)
			r.Get("/auth-rules/{id}", s.handleGetAuthRule)
			r.Get("/schedules", s.handleListSchedules)
			r.Get("/schedules/{id}", s.handleGetSchedule)
			r.Get("/holidays", s.handleListHolidays)
			r.Get("/groups", s.handleListGroups)
			r.Get("/groups/{id}", s.handleGetGroup)
			r.Get("/rules", s.handleListRules)
			r.Get("/rules/{id}", s.handleGetRule)
			r.Get("/grants", s.handleListGrants)
			r.Get("/interlocks", s.handleListInterlocks)
			r.Get("/interlocks/{id}", s.handleGetInterlock)

			// Decision tooling
			r.Post("/decisions/simulate", s.handleSimulate)
			r.Get("/events", s.handleListEvents)

			// WebSocket (auth via ticket, validated in handler)
			r.Get("/ws", s.handleWebSocket)

			// Configuration writes require the admin role
			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)

				r.Post("/personnel", s.handleCreatePersonnel)
				r.Patch("/personnel/{id}", s.handleUpdatePersonnel)
				r.Delete("/personnel/{id}", s.handleDeactivatePersonnel)

				r.Post("/credentials", s.handleCreateCredential)
				r.Put("/credentials/{id}/status", s.handleSetCredentialStatus)
				r.Delete("/credentials/{id}", s.handleDeleteCredential)

				r.Post("/areas", s.handleCreateArea)
				r.Delete("/areas/{id}", s.handleDeleteArea)

				r.Post("/points", s.handleCreatePoint)
				r.Patch("/points/{id}", s.handleUpdatePoint)
				r.Delete("/points/{id}", s.handleDeletePoint)
				r.Put("/points/{id}/config", s.handleSetPointConfig)

				r.Post("/thresholds", s.handleCreateThreshold)
				r.Delete("/thresholds/{id}", s.handleDeleteThreshold)

				r.Post("/auth-rules", s.handleCreateAuthRule)
				r.Delete("/auth-rules/{id}", s.handleDeleteAuthRule)

				r.Post("/schedules", s.handleCreateSchedule)
				r.Delete("/schedules/{id}", s.handleDeleteSchedule)
				r.Post("/schedules/{id}/items", s.handleAddScheduleItem)
				r.Delete("/schedules/{id}/items/{itemID}", s.handleDeleteScheduleItem)

				r.Post("/holidays", s.handleCreateHoliday)
				r.Delete("/holidays/{id}", s.handleDeleteHoliday)

				r.Post("/groups", s.handleCreateGroup)
				r.Put("/groups/{id}/members", s.handleSetGroupMembers)
				r.Delete("/groups/{id}", s.handleDeleteGroup)

				r.Post("/rules", s.handleCreateRule)
				r.Delete("/rules/{id}", s.handleDeleteRule)

				r.Post("/grants", s.handleCreateGrant)
				r.Delete("/grants/{personnelID}/{ruleID}", s.handleDeleteGrant)

				r.Post("/interlocks", s.handleCreateInterlock)
				r.Delete("/interlocks/{id}", s.handleDeleteInterlock)

				r.Post("/antipassback/reset", s.handleAntipassbackReset)
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleMetrics returns basic operational counters.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"uptime_seconds":    int(time.Since(s.started).Seconds()),
		"websocket_clients": s.hub.ClientCount(),
		"tracked_personnel": s.engine.Tracker().TrackedCount(),
		"version":           s.version,
	})
}
