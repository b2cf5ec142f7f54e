package api

import (
	"net/http"
	"time"

	"github.com/ostiary/ostiary-core/internal/accesspoint"
	"github.com/ostiary/ostiary-core/internal/decision"
)

// simulateRequest is the body for POST /decisions/simulate.
type simulateRequest struct {
	AccessPointID string                `json:"access_point_id"`
	Direction     string                `json:"direction"`
	Factors       []decision.ScanFactor `json:"factors"`
	At            *time.Time            `json:"at,omitempty"`
}

// handleSimulate evaluates a hypothetical scan without committing
// antipassback movement, acquiring interlocks, or recording audit events.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AccessPointID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "access_point_id is required")
		return
	}
	if req.Direction == "" {
		req.Direction = string(accesspoint.DirectionEntry)
	}
	if !accesspoint.ValidDirection(req.Direction) {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "direction must be ENTRY or EXIT")
		return
	}

	scan := decision.ScanEvent{
		AccessPointID: req.AccessPointID,
		Direction:     accesspoint.Direction(req.Direction),
		Factors:       req.Factors,
	}
	if req.At != nil {
		scan.Timestamp = *req.At
	}

	verdict := s.engine.Simulate(r.Context(), scan)
	writeJSON(w, http.StatusOK, verdict)
}

// antipassbackResetRequest is the body for POST /antipassback/reset.
// An empty personnel_id resets every tracked person.
type antipassbackResetRequest struct {
	PersonnelID string `json:"personnel_id,omitempty"`
}

// handleAntipassbackReset forgives antipassback state, site-wide or for
// one person. Used after tailgating incidents or evacuation musters.
func (s *Server) handleAntipassbackReset(w http.ResponseWriter, r *http.Request) {
	var req antipassbackResetRequest
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}

	tracker := s.engine.Tracker()
	if req.PersonnelID == "" {
		tracker.ResetAll()
		s.logger.Info("antipassback state reset", "scope", "all")
	} else {
		tracker.Reset(req.PersonnelID)
		s.logger.Info("antipassback state reset", "scope", "personnel", "personnel_id", req.PersonnelID)
	}

	w.WriteHeader(http.StatusNoContent)
}
