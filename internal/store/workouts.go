package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/FloScythe/fitness-rpg/internal/models"
)

// PutWorkout upserts a workout row by id. Nested exercises and sets are
// persisted through their own Put methods.
func (s *Store) PutWorkout(ctx context.Context, w models.Workout) error {
	if w.ID == "" {
		return fmt.Errorf("workout missing id: %w", models.ErrValidation)
	}
	var endedAt any
	if w.EndedAt != nil {
		endedAt = w.EndedAt.UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workouts (id, started_at, ended_at, duration_ms, total_volume_kg, total_xp_earned, completed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   started_at = excluded.started_at,
		   ended_at = excluded.ended_at,
		   duration_ms = excluded.duration_ms,
		   total_volume_kg = excluded.total_volume_kg,
		   total_xp_earned = excluded.total_xp_earned,
		   completed = excluded.completed`,
		w.ID, w.StartedAt.UTC(), endedAt, w.DurationMs, w.TotalVolumeKg, w.TotalXPEarned, w.Completed)
	if err != nil {
		return fmt.Errorf("upserting workout: %w", err)
	}
	return nil
}

// GetWorkout reads a workout row by id, without nested entities.
// Returns nil when absent.
func (s *Store) GetWorkout(ctx context.Context, id string) (*models.Workout, error) {
	var w models.Workout
	var endedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, ended_at, duration_ms, total_volume_kg, total_xp_earned, completed
		 FROM workouts WHERE id = ?`, id).
		Scan(&w.ID, &w.StartedAt, &endedAt, &w.DurationMs, &w.TotalVolumeKg, &w.TotalXPEarned, &w.Completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning workout: %w", err)
	}
	if endedAt.Valid {
		t := endedAt.Time
		w.EndedAt = &t
	}
	return &w, nil
}

// ListWorkouts returns all workout rows, most recent first, without
// nested entities.
func (s *Store) ListWorkouts(ctx context.Context) ([]models.Workout, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, ended_at, duration_ms, total_volume_kg, total_xp_earned, completed
		 FROM workouts ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing workouts: %w", err)
	}
	defer rows.Close()

	var out []models.Workout
	for rows.Next() {
		var w models.Workout
		var endedAt sql.NullTime
		if err := rows.Scan(&w.ID, &w.StartedAt, &endedAt, &w.DurationMs,
			&w.TotalVolumeKg, &w.TotalXPEarned, &w.Completed); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		if endedAt.Valid {
			t := endedAt.Time
			w.EndedAt = &t
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// GetWorkoutDetails reads a workout with its exercises and sets,
// ordered by order_index and set_number. Returns nil when absent.
func (s *Store) GetWorkoutDetails(ctx context.Context, id string) (*models.Workout, error) {
	w, err := s.GetWorkout(ctx, id)
	if err != nil || w == nil {
		return w, err
	}
	exercises, err := s.ListWorkoutExercises(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range exercises {
		sets, err := s.ListSets(ctx, exercises[i].ID)
		if err != nil {
			return nil, err
		}
		exercises[i].Sets = sets
	}
	w.Exercises = exercises
	return w, nil
}

// DeleteWorkout removes a workout and its nested exercises and sets in
// one transaction. Idempotent: deleting an absent id succeeds.
func (s *Store) DeleteWorkout(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM exercise_sets WHERE workout_exercise_id IN
		   (SELECT id FROM workout_exercises WHERE workout_id = ?)`, id); err != nil {
		return fmt.Errorf("deleting sets: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM workout_exercises WHERE workout_id = ?`, id); err != nil {
		return fmt.Errorf("deleting workout exercises: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM workouts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

// PutWorkoutExercise upserts a workout/exercise join row by id.
func (s *Store) PutWorkoutExercise(ctx context.Context, we models.WorkoutExercise) error {
	if we.ID == "" {
		return fmt.Errorf("workout exercise missing id: %w", models.ErrValidation)
	}
	var best any
	if we.BestOneRepMax != nil {
		best = *we.BestOneRepMax
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workout_exercises (id, workout_id, exercise_id, order_index, total_sets, total_volume_kg, best_one_rep_max)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   total_sets = excluded.total_sets,
		   total_volume_kg = excluded.total_volume_kg,
		   best_one_rep_max = excluded.best_one_rep_max`,
		we.ID, we.WorkoutID, we.ExerciseID, we.OrderIndex, we.TotalSets, we.TotalVolumeKg, best)
	if err != nil {
		return fmt.Errorf("upserting workout exercise: %w", err)
	}
	return nil
}

// ListWorkoutExercises returns the join rows of a workout ordered by
// order_index, without sets.
func (s *Store) ListWorkoutExercises(ctx context.Context, workoutID string) ([]models.WorkoutExercise, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workout_id, exercise_id, order_index, total_sets, total_volume_kg, best_one_rep_max
		 FROM workout_exercises WHERE workout_id = ? ORDER BY order_index`, workoutID)
	if err != nil {
		return nil, fmt.Errorf("listing workout exercises: %w", err)
	}
	defer rows.Close()

	var out []models.WorkoutExercise
	for rows.Next() {
		var we models.WorkoutExercise
		var best sql.NullFloat64
		if err := rows.Scan(&we.ID, &we.WorkoutID, &we.ExerciseID, &we.OrderIndex,
			&we.TotalSets, &we.TotalVolumeKg, &best); err != nil {
			return nil, fmt.Errorf("scanning workout exercise: %w", err)
		}
		if best.Valid {
			v := best.Float64
			we.BestOneRepMax = &v
		}
		out = append(out, we)
	}
	return out, rows.Err()
}

// PutSet upserts a set row by id.
func (s *Store) PutSet(ctx context.Context, set models.ExerciseSet) error {
	if set.ID == "" {
		return fmt.Errorf("set missing id: %w", models.ErrValidation)
	}
	weight, reps, duration := models.MetricFields(set.Metrics)
	var w, r, d, rpe any
	if weight != nil {
		w = *weight
	}
	if reps != nil {
		r = *reps
	}
	if duration != nil {
		d = *duration
	}
	if set.RPE != nil {
		rpe = *set.RPE
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exercise_sets (id, workout_exercise_id, set_number, weight_kg, reps, duration_seconds,
		   rpe, is_warmup, is_pr, volume_kg, xp_awarded, estimated_1rm, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   set_number = excluded.set_number,
		   weight_kg = excluded.weight_kg,
		   reps = excluded.reps,
		   duration_seconds = excluded.duration_seconds,
		   rpe = excluded.rpe,
		   is_warmup = excluded.is_warmup,
		   is_pr = excluded.is_pr,
		   volume_kg = excluded.volume_kg,
		   xp_awarded = excluded.xp_awarded,
		   estimated_1rm = excluded.estimated_1rm`,
		set.ID, set.WorkoutExerciseID, set.SetNumber, w, r, d,
		rpe, set.Warmup, set.PersonalRecord, set.VolumeKg, set.XPAwarded, set.OneRepMax,
		set.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upserting set: %w", err)
	}
	return nil
}

// ListSets returns the sets of a workout exercise ordered by set_number.
func (s *Store) ListSets(ctx context.Context, workoutExerciseID string) ([]models.ExerciseSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workout_exercise_id, set_number, weight_kg, reps, duration_seconds,
		   rpe, is_warmup, is_pr, volume_kg, xp_awarded, estimated_1rm, created_at
		 FROM exercise_sets WHERE workout_exercise_id = ? ORDER BY set_number`, workoutExerciseID)
	if err != nil {
		return nil, fmt.Errorf("listing sets: %w", err)
	}
	defer rows.Close()

	var out []models.ExerciseSet
	for rows.Next() {
		var set models.ExerciseSet
		var weight, rpe sql.NullFloat64
		var reps, duration sql.NullInt64
		if err := rows.Scan(&set.ID, &set.WorkoutExerciseID, &set.SetNumber,
			&weight, &reps, &duration, &rpe, &set.Warmup, &set.PersonalRecord,
			&set.VolumeKg, &set.XPAwarded, &set.OneRepMax, &set.CreatedAt); err != nil {
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
		out = append(out, set)
	}
	return out, rows.Err()
}

// BestOneRepMax returns the best non-warmup estimated 1RM ever recorded
// for an exercise definition, or nil when none exists.
func (s *Store) BestOneRepMax(ctx context.Context, exerciseID string) (*float64, error) {
	var best sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(es.estimated_1rm)
		 FROM exercise_sets es
		 JOIN workout_exercises we ON we.id = es.workout_exercise_id
		 WHERE we.exercise_id = ? AND es.is_warmup = 0`, exerciseID).Scan(&best)
	if err != nil {
		return nil, fmt.Errorf("querying best 1rm: %w", err)
	}
	if !best.Valid {
		return nil, nil
	}
	v := best.Float64
	return &v, nil
}

// SumCompletedXP sums total_xp_earned across all completed workouts.
// Used when a deletion forces the profile XP to be rebuilt from what
// remains rather than decremented.
func (s *Store) SumCompletedXP(ctx context.Context) (int, error) {
	var sum sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(total_xp_earned) FROM workouts WHERE completed = 1`).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("summing workout xp: %w", err)
	}
	return int(sum.Int64), nil
}

// CountCompletedWorkouts counts completed workouts.
func (s *Store) CountCompletedWorkouts(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM workouts WHERE completed = 1`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting workouts: %w", err)
	}
	return n, nil
}

// RecentVolumes returns the total volume of the most recent completed
// workouts in chronological order, up to limit.
func (s *Store) RecentVolumes(ctx context.Context, limit int) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT total_volume_kg FROM
		   (SELECT total_volume_kg, started_at FROM workouts
		    WHERE completed = 1 ORDER BY started_at DESC LIMIT ?)
		 ORDER BY started_at`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent volumes: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning volume: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
