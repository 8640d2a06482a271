package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/FloScythe/fitness-rpg/internal/models"
)

// GetSet reads a set row by id. Returns nil when absent.
func (s *Store) GetSet(ctx context.Context, id string) (*models.ExerciseSet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, workout_exercise_id, set_number, weight_kg, reps, duration_seconds,
		   rpe, is_warmup, is_pr, volume_kg, xp_awarded, estimated_1rm, created_at
		 FROM exercise_sets WHERE id = ?`, id)

	var set models.ExerciseSet
	var weight, rpe sql.NullFloat64
	var reps, duration sql.NullInt64
	err := row.Scan(&set.ID, &set.WorkoutExerciseID, &set.SetNumber,
		&weight, &reps, &duration, &rpe, &set.Warmup, &set.PersonalRecord,
		&set.VolumeKg, &set.XPAwarded, &set.OneRepMax, &set.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning set: %w", err)
	}

	var wPtr *float64
	var rPtr, dPtr *int
	if weight.Valid {
		v := weight.Float64
		wPtr = &v
	}
	if reps.Valid {
		v := int(reps.Int64)
		rPtr = &v
	}
	if duration.Valid {
		v := int(duration.Int64)
		dPtr = &v
	}
	set.Metrics = models.MetricsFromFields(wPtr, rPtr, dPtr)
	if rpe.Valid {
		v := rpe.Float64
		set.RPE = &v
	}
	return &set, nil
}

// GetWorkoutExercise reads a join row by id. Returns nil when absent.
func (s *Store) GetWorkoutExercise(ctx context.Context, id string) (*models.WorkoutExercise, error) {
	var we models.WorkoutExercise
	var best sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, workout_id, exercise_id, order_index, total_sets, total_volume_kg, best_one_rep_max
		 FROM workout_exercises WHERE id = ?`, id).
		Scan(&we.ID, &we.WorkoutID, &we.ExerciseID, &we.OrderIndex,
			&we.TotalSets, &we.TotalVolumeKg, &best)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning workout exercise: %w", err)
	}
	if best.Valid {
		v := best.Float64
		we.BestOneRepMax = &v
	}
	return &we, nil
}

// BestOneRepMaxExcluding is BestOneRepMax with one set left out of the
// comparison, used when that set is being re-evaluated after an edit.
func (s *Store) BestOneRepMaxExcluding(ctx context.Context, exerciseID, excludeSetID string) (*float64, error) {
	var best sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(es.estimated_1rm)
		 FROM exercise_sets es
		 JOIN workout_exercises we ON we.id = es.workout_exercise_id
		 WHERE we.exercise_id = ? AND es.is_warmup = 0 AND es.id != ?`,
		exerciseID, excludeSetID).Scan(&best)
	if err != nil {
		return nil, fmt.Errorf("querying best 1rm: %w", err)
	}
	if !best.Valid {
		return nil, nil
	}
	v := best.Float64
	return &v, nil
}
