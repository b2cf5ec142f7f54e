package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ostiary/ostiary-core/internal/accesspoint"
)

// --- Access points ---

func (s *Server) handleListPoints(w http.ResponseWriter, r *http.Request) {
	points, err := s.points.ListPoints(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleGetPoint(w http.ResponseWriter, r *http.Request) {
	p, err := s.points.GetPoint(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreatePoint(w http.ResponseWriter, r *http.Request) {
	var p accesspoint.AccessPoint
	if !decodeJSON(w, r, &p) {
		return
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := accesspoint.ValidatePoint(&p); err != nil {
		writeRepoError(w, err)
		return
	}
	if err := s.points.CreatePoint(r.Context(), &p); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePoint(w http.ResponseWriter, r *http.Request) {
	existing, err := s.points.GetPoint(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRepoError(w, err)
		return
	}

	updated := *existing
	if !decodeJSON(w, r, &updated) {
		return
	}
	updated.ID = existing.ID
	if err := accesspoint.ValidatePoint(&updated); err != nil {
		writeRepoError(w, err)
		return
	}
	if err := s.points.UpdatePoint(r.Context(), &updated); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePoint(w http.ResponseWriter, r *http.Request) {
	if err := s.points.DeletePoint(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// --- Point configs ---

func (s *Server) handleGetPointConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.points.GetConfig(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleSetPointConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.points.GetPoint(r.Context(), id); err != nil {
		writeRepoError(w, err)
		return
	}

	var cfg accesspoint.PointConfig
	if !decodeJSON(w, r, &cfg) {
		return
	}
	cfg.AccessPointID = id
	if err := s.points.SetConfig(r.Context(), &cfg); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusOK, cfg)
}

// --- Thresholds ---

func (s *Server) handleListThresholds(w http.ResponseWriter, r *http.Request) {
	ths, err := s.points.ListThresholds(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ths)
}

func (s *Server) handleGetThreshold(w http.ResponseWriter, r *http.Request) {
	th, err := s.points.GetThreshold(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, th)
}

func (s *Server) handleCreateThreshold(w http.ResponseWriter, r *http.Request) {
	var th accesspoint.Threshold
	if !decodeJSON(w, r, &th) {
		return
	}
	if th.ID == "" {
		th.ID = uuid.NewString()
	}
	if err := accesspoint.ValidateThreshold(&th); err != nil {
		writeRepoError(w, err)
		return
	}
	if err := s.points.CreateThreshold(r.Context(), &th); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusCreated, th)
}

func (s *Server) handleDeleteThreshold(w http.ResponseWriter, r *http.Request) {
	if err := s.points.DeleteThreshold(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// --- Auth rules ---

func (s *Server) handleListAuthRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.points.ListAuthRules(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handleGetAuthRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.points.GetAuthRule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleCreateAuthRule(w http.ResponseWriter, r *http.Request) {
	var rule accesspoint.AuthRule
	if !decodeJSON(w, r, &rule) {
		return
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	// ValidateAuthRule parses the mode expression, so unparseable
	// expressions are rejected here rather than failing closed at
	// decision time.
	if err := accesspoint.ValidateAuthRule(&rule); err != nil {
		writeRepoError(w, err)
		return
	}
	if err := s.points.CreateAuthRule(r.Context(), &rule); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleDeleteAuthRule(w http.ResponseWriter, r *http.Request) {
	if err := s.points.DeleteAuthRule(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}
