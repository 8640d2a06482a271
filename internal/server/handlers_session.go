package server

import (
	"encoding/json"
	"net/http"

	"github.com/FloScythe/fitness-rpg/internal/models"
	"github.com/FloScythe/fitness-rpg/internal/session"
	"github.com/go-chi/chi/v5"
)

// setInput is the flat wire shape of a set. Exactly one metric group
// must be present; MetricsFromFields picks the variant.
type setInput struct {
	ExerciseIndex   int      `json:"exercise_index"`
	WeightKg        *float64 `json:"weight_kg,omitempty"`
	Reps            *int     `json:"reps,omitempty"`
	DurationSeconds *int     `json:"duration_seconds,omitempty"`
	RPE             *float64 `json:"rpe,omitempty"`
	Warmup          bool     `json:"warmup"`
}

func (s *Server) handleSessionCurrent(w http.ResponseWriter, r *http.Request) {
	snap := s.machine.Current()
	if snap == nil {
		writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": true, "session": snap})
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	id, err := s.machine.Start()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"workout_id": id})
}

func (s *Server) handleSessionAddExercise(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ExerciseID string `json:"exercise_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	index, err := s.machine.AddExercise(r.Context(), body.ExerciseID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"exercise_index": index})
}

func (s *Server) handleSessionAddSet(w http.ResponseWriter, r *http.Request) {
	var body setInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	metrics := models.MetricsFromFields(body.WeightKg, body.Reps, body.DurationSeconds)
	set, err := s.machine.AddSet(r.Context(), body.ExerciseIndex, metrics, session.SetOptions{
		RPE:    body.RPE,
		Warmup: body.Warmup,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (s *Server) handleSessionComplete(w http.ResponseWriter, r *http.Request) {
	result, err := s.machine.Complete(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSessionCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.machine.Cancel(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleEditSet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body setInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	metrics := models.MetricsFromFields(body.WeightKg, body.Reps, body.DurationSeconds)
	set, err := s.machine.EditSet(r.Context(), id, metrics, session.SetOptions{
		RPE:    body.RPE,
		Warmup: body.Warmup,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}
