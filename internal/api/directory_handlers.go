package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ostiary/ostiary-core/internal/directory"
)

// --- Personnel ---

func (s *Server) handleListPersonnel(w http.ResponseWriter, r *http.Request) {
	people, err := s.directory.ListPersonnel(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, people)
}

func (s *Server) handleGetPersonnel(w http.ResponseWriter, r *http.Request) {
	p, err := s.directory.GetPersonnel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreatePersonnel(w http.ResponseWriter, r *http.Request) {
	var p directory.Personnel
	if !decodeJSON(w, r, &p) {
		return
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.IsActive = true
	if err := directory.ValidatePersonnel(&p); err != nil {
		writeRepoError(w, err)
		return
	}
	if err := s.directory.CreatePersonnel(r.Context(), &p); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePersonnel(w http.ResponseWriter, r *http.Request) {
	existing, err := s.directory.GetPersonnel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRepoError(w, err)
		return
	}

	// Patch semantics: the body overlays the stored record.
	updated := *existing
	if !decodeJSON(w, r, &updated) {
		return
	}
	updated.ID = existing.ID
	if err := directory.ValidatePersonnel(&updated); err != nil {
		writeRepoError(w, err)
		return
	}
	if err := s.directory.UpdatePersonnel(r.Context(), &updated); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeactivatePersonnel(w http.ResponseWriter, r *http.Request) {
	if err := s.directory.DeactivatePersonnel(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// --- Credentials ---

func (s *Server) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := s.directory.ListCredentials(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, creds)
}

func (s *Server) handleListPersonnelCredentials(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.directory.GetPersonnel(r.Context(), id); err != nil {
		writeRepoError(w, err)
		return
	}
	creds, err := s.directory.ListCredentialsByPersonnel(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, creds)
}

func (s *Server) handleGetCredential(w http.ResponseWriter, r *http.Request) {
	c, err := s.directory.GetCredential(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCreateCredential(w http.ResponseWriter, r *http.Request) {
	var c directory.Credential
	if !decodeJSON(w, r, &c) {
		return
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = directory.StatusActive
	}
	if err := directory.ValidateCredential(&c); err != nil {
		writeRepoError(w, err)
		return
	}
	if _, err := s.directory.GetPersonnel(r.Context(), c.PersonnelID); err != nil {
		writeRepoError(w, err)
		return
	}
	if err := s.directory.CreateCredential(r.Context(), &c); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusCreated, c)
}

// setCredentialStatusRequest is the body for PUT /credentials/{id}/status.
type setCredentialStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleSetCredentialStatus(w http.ResponseWriter, r *http.Request) {
	var req setCredentialStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !directory.ValidCredentialStatus(req.Status) {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "unknown credential status")
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.directory.UpdateCredentialStatus(r.Context(), id, directory.CredentialStatus(req.Status)); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCredential(w http.ResponseWriter, r *http.Request) {
	if err := s.directory.DeleteCredential(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// --- Areas ---

func (s *Server) handleListAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := s.directory.ListAreas(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, areas)
}

func (s *Server) handleGetArea(w http.ResponseWriter, r *http.Request) {
	a, err := s.directory.GetArea(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleCreateArea(w http.ResponseWriter, r *http.Request) {
	var a directory.Area
	if !decodeJSON(w, r, &a) {
		return
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := directory.ValidateArea(&a); err != nil {
		writeRepoError(w, err)
		return
	}
	if err := s.directory.CreateArea(r.Context(), &a); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleDeleteArea(w http.ResponseWriter, r *http.Request) {
	if err := s.directory.DeleteArea(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}
