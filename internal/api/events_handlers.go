package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ostiary/ostiary-core/internal/audit"
)

// handleListEvents returns decision audit events, newest first.
// Supported query parameters: access_point_id, personnel_id, decision,
// reason, since, until (RFC 3339), limit.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		AccessPointID: q.Get("access_point_id"),
		PersonnelID:   q.Get("personnel_id"),
		Decision:      q.Get("decision"),
		Reason:        q.Get("reason"),
	}

	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, "since must be RFC 3339")
			return
		}
		filter.Since = t
	}
	if v := q.Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, "until must be RFC 3339")
			return
		}
		filter.Until = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	events, err := s.audit.List(r.Context(), filter)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
