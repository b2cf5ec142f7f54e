package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ostiary/ostiary-core/internal/schedule"
)

// --- Schedules ---

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.schedules.ListSchedules(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schedules)
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := s.schedules.GetSchedule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var sched schedule.TimeSchedule
	if !decodeJSON(w, r, &sched) {
		return
	}
	if sched.ID == "" {
		sched.ID = uuid.NewString()
	}
	for i := range sched.Items {
		if sched.Items[i].ID == "" {
			sched.Items[i].ID = uuid.NewString()
		}
		sched.Items[i].ScheduleID = sched.ID
		if err := schedule.ValidateItem(&sched.Items[i]); err != nil {
			writeRepoError(w, err)
			return
		}
	}
	if err := s.schedules.CreateSchedule(r.Context(), &sched); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusCreated, sched)
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.schedules.DeleteSchedule(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// --- Schedule items ---

func (s *Server) handleAddScheduleItem(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "id")
	if _, err := s.schedules.GetSchedule(r.Context(), scheduleID); err != nil {
		writeRepoError(w, err)
		return
	}

	var item schedule.TimeScheduleItem
	if !decodeJSON(w, r, &item) {
		return
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.ScheduleID = scheduleID
	if err := schedule.ValidateItem(&item); err != nil {
		writeRepoError(w, err)
		return
	}
	if err := s.schedules.AddItem(r.Context(), &item); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleDeleteScheduleItem(w http.ResponseWriter, r *http.Request) {
	if err := s.schedules.DeleteItem(r.Context(), chi.URLParam(r, "itemID")); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// --- Holidays ---

func (s *Server) handleListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := s.schedules.ListHolidays(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, holidays)
}

func (s *Server) handleCreateHoliday(w http.ResponseWriter, r *http.Request) {
	var h schedule.Holiday
	if !decodeJSON(w, r, &h) {
		return
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if err := schedule.ValidateHoliday(&h); err != nil {
		writeRepoError(w, err)
		return
	}
	if err := s.schedules.CreateHoliday(r.Context(), &h); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusCreated, h)
}

func (s *Server) handleDeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := s.schedules.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeRepoError(w, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}
