package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/stats"
)

// sessionView is what GET /session returns: the phase plus, when one is
// active, the session and timer snapshots.
type sessionView struct {
	Phase   string                 `json:"phase"`
	Session *models.WorkoutSession `json:"session,omitempty"`
	Timer   *models.TimerState     `json:"timer,omitempty"`
}

func (s *Server) currentView() sessionView {
	view := sessionView{Phase: string(s.engine.Phase())}
	if sess, ok := s.engine.Active(); ok {
		view.Session = &sess
	}
	if t, ok := s.timer.State(); ok {
		view.Timer = &t
	}
	return view
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.currentView())
}

func (s *Server) handleStartWorkout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		WorkoutDayID string `json:"workout_day_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if body.WorkoutDayID == "" {
		writeError(w, http.StatusBadRequest, "workout_day_id is required")
		return
	}
	sess, err := s.engine.StartWorkout(r.Context(), body.WorkoutDayID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleCompleteWarmup(w http.ResponseWriter, r *http.Request) {
	s.engine.CompleteWarmup(r.Context())
	writeJSON(w, http.StatusOK, s.currentView())
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	exerciseID := chi.URLParam(r, "id")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid set index")
		return
	}
	var patch models.SetDataPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.engine.CompleteSet(r.Context(), exerciseID, index, patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.currentView())
}

func (s *Server) handleCompleteExercise(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.CompleteExercise(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.currentView())
}

func (s *Server) handleSkipExercise(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.SkipExercise(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.currentView())
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	var patch models.ExercisePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.engine.UpdateExercise(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.currentView())
}

func (s *Server) handleCompleteAbdominal(w http.ResponseWriter, r *http.Request) {
	s.engine.CompleteAbdominal(r.Context())
	writeJSON(w, http.StatusOK, s.currentView())
}

func (s *Server) handleCompleteAerobic(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ActualDuration int      `json:"actual_duration"`
		Distance       *float64 `json:"distance,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	s.engine.CompleteAerobic(r.Context(), body.ActualDuration, body.Distance)
	writeJSON(w, http.StatusOK, s.currentView())
}

func (s *Server) handleSkipAerobic(w http.ResponseWriter, r *http.Request) {
	s.engine.SkipAerobic(r.Context())
	writeJSON(w, http.StatusOK, s.currentView())
}

func (s *Server) handleApplyChanges(w http.ResponseWriter, r *http.Request) {
	applied, err := s.engine.ApplyPermanentChanges(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"applied": applied})
}

func (s *Server) handleFinishWorkout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Notes string `json:"notes"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}
	finished, err := s.engine.FinishWorkout(r.Context(), body.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, finished)
}

func (s *Server) handleCancelWorkout(w http.ResponseWriter, r *http.Request) {
	s.engine.CancelWorkout(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleGetTimer(w http.ResponseWriter, r *http.Request) {
	if t, ok := s.timer.State(); ok {
		writeJSON(w, http.StatusOK, t)
		return
	}
	writeJSON(w, http.StatusOK, models.TimerState{})
}

func (s *Server) handleStartTimer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Duration   int              `json:"duration"`
		Type       models.TimerType `json:"type"`
		ExerciseID string           `json:"exercise_id"`
		SetIndex   int              `json:"set_index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if body.Duration <= 0 {
		writeError(w, http.StatusBadRequest, "duration must be positive")
		return
	}
	if body.Type == "" {
		body.Type = models.RestBetweenSets
	}
	state := s.timer.Start(r.Context(), body.Duration, body.Type, body.ExerciseID, body.SetIndex)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handlePauseTimer(w http.ResponseWriter, r *http.Request) {
	s.timer.Pause(r.Context())
	writeJSON(w, http.StatusOK, s.currentView())
}

func (s *Server) handleResumeTimer(w http.ResponseWriter, r *http.Request) {
	s.timer.Resume(r.Context())
	writeJSON(w, http.StatusOK, s.currentView())
}

func (s *Server) handleCancelTimer(w http.ResponseWriter, r *http.Request) {
	s.timer.Cancel(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.engine.History(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if history == nil {
		history = []models.WorkoutSession{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	cached, err := s.stats.Load(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cached)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	history, err := s.engine.History(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats.PersonalRecords(history))
}

func (s *Server) handleSuggestion(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("exercise")
	if name == "" {
		writeError(w, http.StatusBadRequest, "exercise parameter required")
		return
	}
	history, err := s.engine.History(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	suggestion, ok := stats.SuggestNext(history, name)
	if !ok {
		writeError(w, http.StatusNotFound, "no history for "+name)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}
