package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/FloScythe/fitness-rpg/internal/models"
	"github.com/FloScythe/fitness-rpg/internal/rpg"
	"github.com/go-chi/chi/v5"
)

func parseFloat(s string, out *float64) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*out = v
	return nil
}

func parseInt(s string, out *int) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*out = v
	return nil
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.CurrentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no profile"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  user,
		"level": rpg.LevelFromXP(user.TotalXP),
	})
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.store.ListExercises(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleExerciseRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	def, err := s.store.GetExercise(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if def == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "exercise not found"})
		return
	}
	best, err := s.store.BestOneRepMax(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"exercise_id": id,
		"name":        def.Name,
		"best_one_rm": best,
	})
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	workouts, err := s.store.ListWorkouts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	workout, err := s.store.GetWorkoutDetails(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if workout == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.syncMgr.DeleteWorkout(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (s *Server) handleProgression(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var input struct {
		WeightKg  float64
		Reps      int
		RPE       *float64
		Equipment rpg.Equipment
	}
	if err := parseFloat(q.Get("weight_kg"), &input.WeightKg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "weight_kg parameter required"})
		return
	}
	if err := parseInt(q.Get("reps"), &input.Reps); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reps parameter required"})
		return
	}
	if v := q.Get("rpe"); v != "" {
		var rpe float64
		if err := parseFloat(v, &rpe); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid rpe"})
			return
		}
		input.RPE = &rpe
	}
	input.Equipment = rpg.Equipment(q.Get("equipment"))

	writeJSON(w, http.StatusOK, rpg.SuggestProgression(input.WeightKg, input.Reps, input.RPE, input.Equipment))
}

func (s *Server) handleRest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var rpe *float64
	if v := q.Get("rpe"); v != "" {
		var parsed float64
		if err := parseFloat(v, &parsed); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid rpe"})
			return
		}
		rpe = &parsed
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"rest_seconds": rpg.SuggestRestSeconds(q.Get("goal"), rpe),
	})
}

func (s *Server) handleDeload(w http.ResponseWriter, r *http.Request) {
	volumes, err := s.store.RecentVolumes(r.Context(), 4)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deload_recommended": rpg.ShouldDeload(volumes),
		"recent_volumes":     volumes,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrEmptySession):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, models.ErrSyncUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
