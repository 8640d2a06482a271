package syncer

import (
	"time"

	"github.com/FloScythe/fitness-rpg/internal/models"
)

// Wire shapes of GET /sync/pull. Field names follow the server's
// snake_case contract; conversion to local entities happens in the
// merge step.

type wireUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	TotalXP  int    `json:"total_xp"`
	Level    int    `json:"level"`
	LastSync string `json:"last_sync,omitempty"`
}

type pullResponse struct {
	User     *wireUser     `json:"user"`
	Workouts []wireWorkout `json:"workouts"`
}

type wireWorkout struct {
	UUID        string         `json:"uuid"`
	WorkoutDate time.Time      `json:"workout_date"`
	EndTime     *time.Time     `json:"end_time,omitempty"`
	DurationMs  int64          `json:"duration_ms"`
	TotalVolume float64        `json:"total_volume"`
	XPEarned    int            `json:"xp_earned"`
	IsCompleted bool           `json:"is_completed"`
	Exercises   []wireExercise `json:"exercises"`
}

type wireExercise struct {
	UUID         string    `json:"uuid"`
	ExerciseUUID string    `json:"exercise_uuid"`
	OrderIndex   int       `json:"order_index"`
	TotalSets    int       `json:"total_sets"`
	TotalVolume  float64   `json:"total_volume"`
	Estimated1RM *float64  `json:"estimated_1rm,omitempty"`
	Sets         []wireSet `json:"sets"`
}

type wireSet struct {
	UUID            string     `json:"uuid"`
	SetNumber       int        `json:"set_number"`
	WeightKg        *float64   `json:"weight_kg,omitempty"`
	Reps            *int       `json:"reps,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	RPE             *float64   `json:"rpe,omitempty"`
	Volume          float64    `json:"volume"`
	Estimated1RM    float64    `json:"estimated_1rm"`
	XPAwarded       int        `json:"xp_awarded"`
	IsWarmup        bool       `json:"is_warmup"`
	IsPR            bool       `json:"is_pr"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

func (w wireWorkout) toModel() models.Workout {
	workout := models.Workout{
		ID:            w.UUID,
		StartedAt:     w.WorkoutDate,
		EndedAt:       w.EndTime,
		DurationMs:    w.DurationMs,
		TotalVolumeKg: w.TotalVolume,
		TotalXPEarned: w.XPEarned,
		Completed:     w.IsCompleted,
	}
	for _, ex := range w.Exercises {
		we := models.WorkoutExercise{
			ID:            ex.UUID,
			WorkoutID:     w.UUID,
			ExerciseID:    ex.ExerciseUUID,
			OrderIndex:    ex.OrderIndex,
			TotalSets:     ex.TotalSets,
			TotalVolumeKg: ex.TotalVolume,
			BestOneRepMax: ex.Estimated1RM,
		}
		for _, set := range ex.Sets {
			s := models.ExerciseSet{
				ID:                set.UUID,
				WorkoutExerciseID: ex.UUID,
				SetNumber:         set.SetNumber,
				Metrics:           models.MetricsFromFields(set.WeightKg, set.Reps, set.DurationSeconds),
				RPE:               set.RPE,
				Warmup:            set.IsWarmup,
				PersonalRecord:    set.IsPR,
				VolumeKg:          set.Volume,
				XPAwarded:         set.XPAwarded,
				OneRepMax:         set.Estimated1RM,
			}
			if set.CreatedAt != nil {
				s.CreatedAt = *set.CreatedAt
			}
			we.Sets = append(we.Sets, s)
		}
		workout.Exercises = append(workout.Exercises, we)
	}
	return workout
}
