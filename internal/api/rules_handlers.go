package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ostiary/ostiary-core/internal/rules"
)

// --- Access groups ---

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.rules.ListGroups(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	g, err := s.rules.GetGroup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var g rules.AccessGroup
	if !decodeJSON(w, r, &g) {
		return
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if err := rules.ValidateName(g.Name); err != nil {
		writeRepoError(w, err)
		return
	}
	if err := s.rules.CreateGroup(r.Context(), &g); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusCreated, g)
}

// setGroupMembersRequest is the body for PUT /groups/{id}/members.
type setGroupMembersRequest struct {
	PointIDs []string `json:"point_ids"`
}

func (s *Server) handleSetGroupMembers(w http.ResponseWriter, r *http.Request) {
	var req setGroupMembersRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.rules.SetGroupMembers(r.Context(), chi.URLParam(r, "id"), req.PointIDs); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.rules.DeleteGroup(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// --- Access rules ---

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	list, err := s.rules.ListRules(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.rules.GetRule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule rules.AccessRule
	if !decodeJSON(w, r, &rule) {
		return
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if err := rules.ValidateName(rule.Name); err != nil {
		writeRepoError(w, err)
		return
	}
	for i := range rule.Items {
		if rule.Items[i].ID == "" {
			rule.Items[i].ID = uuid.NewString()
		}
		rule.Items[i].RuleID = rule.ID
		if err := rules.ValidateItem(&rule.Items[i]); err != nil {
			writeRepoError(w, err)
			return
		}
	}
	if err := s.rules.CreateRule(r.Context(), &rule); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.rules.DeleteRule(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// --- Grants ---

func (s *Server) handleListGrants(w http.ResponseWriter, r *http.Request) {
	if personnelID := r.URL.Query().Get("personnel_id"); personnelID != "" {
		grants, err := s.rules.ListGrantsByPersonnel(r.Context(), personnelID)
		if err != nil {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, grants)
		return
	}

	grants, err := s.rules.ListGrants(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grants)
}

func (s *Server) handleCreateGrant(w http.ResponseWriter, r *http.Request) {
	var g rules.Grant
	if !decodeJSON(w, r, &g) {
		return
	}
	if g.PersonnelID == "" || g.RuleID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "personnel_id and rule_id are required")
		return
	}
	if _, err := s.directory.GetPersonnel(r.Context(), g.PersonnelID); err != nil {
		writeRepoError(w, err)
		return
	}
	if _, err := s.rules.GetRule(r.Context(), g.RuleID); err != nil {
		writeRepoError(w, err)
		return
	}
	if err := s.rules.CreateGrant(r.Context(), &g); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleDeleteGrant(w http.ResponseWriter, r *http.Request) {
	personnelID := chi.URLParam(r, "personnelID")
	ruleID := chi.URLParam(r, "ruleID")
	if err := s.rules.DeleteGrant(r.Context(), personnelID, ruleID); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// --- Interlocks ---

func (s *Server) handleListInterlocks(w http.ResponseWriter, r *http.Request) {
	interlocks, err := s.rules.ListInterlocks(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, interlocks)
}

func (s *Server) handleGetInterlock(w http.ResponseWriter, r *http.Request) {
	il, err := s.rules.GetInterlock(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, il)
}

func (s *Server) handleCreateInterlock(w http.ResponseWriter, r *http.Request) {
	var il rules.Interlock
	if !decodeJSON(w, r, &il) {
		return
	}
	if il.ID == "" {
		il.ID = uuid.NewString()
	}
	if err := rules.ValidateName(il.Name); err != nil {
		writeRepoError(w, err)
		return
	}
	if err := s.rules.CreateInterlock(r.Context(), &il); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusCreated, il)
}

func (s *Server) handleDeleteInterlock(w http.ResponseWriter, r *http.Request) {
	if err := s.rules.DeleteInterlock(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}
