package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SetMetrics is the recorded measurement of one set. Exactly one variant
// applies per movement type, so readers never have to guess which
// optional fields are populated.
type SetMetrics interface {
	Movement() MovementType
}

// WeightedSet is weight lifted for a number of reps.
type WeightedSet struct {
	WeightKg float64
	Reps     int
}

func (WeightedSet) Movement() MovementType { return MovementWeighted }

// RepsSet is a bodyweight set counted in reps.
type RepsSet struct {
	Reps int
}

func (RepsSet) Movement() MovementType { return MovementReps }

// TimedSet is a set held or performed for a duration.
type TimedSet struct {
	Seconds int
}

func (TimedSet) Movement() MovementType { return MovementTimed }

// ExerciseSet is one completed set. VolumeKg, XPAwarded, OneRepMax and
// PersonalRecord are derived at insertion time and recomputed on edit.
type ExerciseSet struct {
	ID                string
	WorkoutExerciseID string
	SetNumber         int
	Metrics           SetMetrics
	RPE               *float64
	Warmup            bool
	PersonalRecord    bool
	VolumeKg          float64
	XPAwarded         int
	OneRepMax         float64
	CreatedAt         time.Time
}

// setJSON is the flat wire shape shared with the sync protocol: the
// metric fields appear as optional keys depending on movement type.
type setJSON struct {
	ID                string   `json:"id"`
	WorkoutExerciseID string   `json:"workout_exercise_id"`
	SetNumber         int      `json:"set_number"`
	WeightKg          *float64 `json:"weight_kg,omitempty"`
	Reps              *int     `json:"reps,omitempty"`
	DurationSeconds   *int     `json:"duration_seconds,omitempty"`
	RPE               *float64 `json:"rpe,omitempty"`
	Warmup            bool     `json:"is_warmup"`
	PersonalRecord    bool     `json:"is_pr"`
	VolumeKg          float64  `json:"volume_kg"`
	XPAwarded         int      `json:"xp_awarded"`
	OneRepMax         float64  `json:"estimated_1rm"`
	CreatedAt         string   `json:"created_at"`
}

// MarshalJSON flattens the metrics variant into the wire shape.
func (s ExerciseSet) MarshalJSON() ([]byte, error) {
	out := setJSON{
		ID:                s.ID,
		WorkoutExerciseID: s.WorkoutExerciseID,
		SetNumber:         s.SetNumber,
		RPE:               s.RPE,
		Warmup:            s.Warmup,
		PersonalRecord:    s.PersonalRecord,
		VolumeKg:          s.VolumeKg,
		XPAwarded:         s.XPAwarded,
		OneRepMax:         s.OneRepMax,
		CreatedAt:         s.CreatedAt.UTC().Format(time.RFC3339),
	}
	switch m := s.Metrics.(type) {
	case WeightedSet:
		out.WeightKg = &m.WeightKg
		out.Reps = &m.Reps
	case RepsSet:
		out.Reps = &m.Reps
	case TimedSet:
		out.DurationSeconds = &m.Seconds
	case nil:
		return nil, fmt.Errorf("exercise set %s has no metrics", s.ID)
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the metrics variant from whichever wire fields
// are present: weight implies weighted, duration implies timed, bare
// reps implies repetition-only.
func (s *ExerciseSet) UnmarshalJSON(data []byte) error {
	var in setJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.ID = in.ID
	s.WorkoutExerciseID = in.WorkoutExerciseID
	s.SetNumber = in.SetNumber
	s.RPE = in.RPE
	s.Warmup = in.Warmup
	s.PersonalRecord = in.PersonalRecord
	s.VolumeKg = in.VolumeKg
	s.XPAwarded = in.XPAwarded
	s.OneRepMax = in.OneRepMax
	if in.CreatedAt != "" {
		t, err := time.Parse(time.RFC3339, in.CreatedAt)
		if err != nil {
			return fmt.Errorf("parsing set created_at: %w", err)
		}
		s.CreatedAt = t
	}
	s.Metrics = MetricsFromFields(in.WeightKg, in.Reps, in.DurationSeconds)
	if s.Metrics == nil {
		return fmt.Errorf("exercise set %s: no metric fields present", in.ID)
	}
	return nil
}

// MetricsFromFields reconstructs a SetMetrics variant from the nullable
// column/wire representation. Returns nil when no field is set.
func MetricsFromFields(weightKg *float64, reps, durationSeconds *int) SetMetrics {
	switch {
	case weightKg != nil && reps != nil:
		return WeightedSet{WeightKg: *weightKg, Reps: *reps}
	case durationSeconds != nil:
		return TimedSet{Seconds: *durationSeconds}
	case reps != nil:
		return RepsSet{Reps: *reps}
	}
	return nil
}

// MetricFields splits a SetMetrics variant into the nullable
// column/wire representation.
func MetricFields(m SetMetrics) (weightKg *float64, reps, durationSeconds *int) {
	switch v := m.(type) {
	case WeightedSet:
		return &v.WeightKg, &v.Reps, nil
	case RepsSet:
		return nil, &v.Reps, nil
	case TimedSet:
		return nil, nil, &v.Seconds
	}
	return nil, nil, nil
}
