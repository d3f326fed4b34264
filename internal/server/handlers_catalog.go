package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/ironlog/internal/models"
)

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Defaults())
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	workouts, err := s.catalog.GetAllWorkouts(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if workouts == nil {
		workouts = []models.WorkoutDay{}
	}
	writeJSON(w, http.StatusOK, workouts)
}

// handleToday resolves the effective workout for the current weekday, if the
// plan has one.
func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	workouts, err := s.catalog.GetAllWorkouts(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	today := models.WeekdayID(time.Now().Weekday())
	for _, wk := range workouts {
		if wk.Day == today {
			writeJSON(w, http.StatusOK, wk)
			return
		}
	}
	writeError(w, http.StatusNotFound, "no workout planned for "+today)
}

func (s *Server) handleSaveWorkout(w http.ResponseWriter, r *http.Request) {
	var workout models.WorkoutDay
	if err := json.NewDecoder(r.Body).Decode(&workout); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	saved, err := s.catalog.SaveWorkout(r.Context(), workout)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.catalog.DeleteWorkout(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (s *Server) handleConvertWorkout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	day, err := s.catalog.FindWorkout(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	custom, err := s.catalog.ConvertToCustom(r.Context(), day)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, custom)
}

func (s *Server) handleDuplicateWorkout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Name string `json:"name"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}
	day, err := s.catalog.FindWorkout(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dup, err := s.catalog.Duplicate(r.Context(), day, body.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dup)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.catalog.Export(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="ironlog-workouts.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}
	count, err := s.catalog.Import(r.Context(), data)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": count})
}
