package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups exercises by the muscle area they train. The category
// determines the XP multiplier applied to every set of its exercises.
type Category string

const (
	CategoryChest     Category = "chest"
	CategoryBack      Category = "back"
	CategoryLegs      Category = "legs"
	CategoryShoulders Category = "shoulders"
	CategoryArms      Category = "arms"
	CategoryCore      Category = "core"
	CategoryCardio    Category = "cardio"
)

// MovementType selects which set metrics an exercise records and which
// XP formula applies to it.
type MovementType string

const (
	// MovementWeighted records weight and reps (barbell/dumbbell/machine work).
	MovementWeighted MovementType = "weighted"
	// MovementReps records reps only (push-ups, pull-ups, dips).
	MovementReps MovementType = "reps"
	// MovementTimed records a duration (planks, cardio).
	MovementTimed MovementType = "timed"
)

// User is the single local profile. Level is always derived from TotalXP;
// the two are never updated independently.
type User struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	TotalXP    int        `json:"total_xp"`
	Level      int        `json:"level"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	Offline    bool       `json:"offline"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ExerciseDefinition is a catalog entry. Definitions are seeded once and
// read-only afterwards.
type ExerciseDefinition struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Category     Category     `json:"category"`
	Movement     MovementType `json:"movement"`
	XPMultiplier float64      `json:"xp_multiplier"`
}

// Workout is one training session. TotalVolumeKg and TotalXPEarned are
// sums over the contained non-warmup sets, recomputed whenever a
// constituent changes.
type Workout struct {
	ID            string            `json:"id"`
	StartedAt     time.Time         `json:"started_at"`
	EndedAt       *time.Time        `json:"ended_at,omitempty"`
	DurationMs    int64             `json:"duration_ms"`
	TotalVolumeKg float64           `json:"total_volume_kg"`
	TotalXPEarned int               `json:"total_xp_earned"`
	Completed     bool              `json:"completed"`
	Exercises     []WorkoutExercise `json:"exercises,omitempty"`
}

// WorkoutExercise joins a workout to an exercise definition, ordered by
// OrderIndex, and carries aggregates over its sets.
type WorkoutExercise struct {
	ID            string        `json:"id"`
	WorkoutID     string        `json:"workout_id"`
	ExerciseID    string        `json:"exercise_id"`
	OrderIndex    int           `json:"order_index"`
	TotalSets     int           `json:"total_sets"`
	TotalVolumeKg float64       `json:"total_volume_kg"`
	BestOneRepMax *float64      `json:"best_one_rep_max,omitempty"`
	Sets          []ExerciseSet `json:"sets,omitempty"`
}

// NewID returns a fresh entity identifier.
func NewID() string {
	return uuid.NewString()
}
