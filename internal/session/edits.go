package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/FloScythe/fitness-rpg/internal/models"
	"github.com/FloScythe/fitness-rpg/internal/rpg"
)

// EditSet replaces the metrics of a persisted set and recomputes the
// whole derivation chain: the set's own derived fields, the parent
// exercise aggregates, the workout totals, and the profile XP/level.
// The edited set and the profile change are both enqueued for sync.
func (m *Machine) EditSet(ctx context.Context, setID string, metrics models.SetMetrics, opts SetOptions) (*models.ExerciseSet, error) {
	if metrics == nil {
		return nil, fmt.Errorf("set has no metrics: %w", models.ErrValidation)
	}

	set, err := m.store.GetSet(ctx, setID)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, fmt.Errorf("set %q: %w", setID, models.ErrNotFound)
	}
	we, err := m.store.GetWorkoutExercise(ctx, set.WorkoutExerciseID)
	if err != nil {
		return nil, err
	}
	if we == nil {
		return nil, fmt.Errorf("workout exercise %q: %w", set.WorkoutExerciseID, models.ErrNotFound)
	}
	def, err := m.store.GetExercise(ctx, we.ExerciseID)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, fmt.Errorf("exercise %q: %w", we.ExerciseID, models.ErrNotFound)
	}
	if metrics.Movement() != def.Movement {
		return nil, fmt.Errorf("exercise %q records %s sets, got %s: %w",
			def.ID, def.Movement, metrics.Movement(), models.ErrValidation)
	}

	set.Metrics = metrics
	set.RPE = opts.RPE
	set.Warmup = opts.Warmup
	set.VolumeKg = 0
	set.OneRepMax = 0
	set.XPAwarded = 0
	set.PersonalRecord = false

	if w, ok := metrics.(models.WeightedSet); ok {
		set.VolumeKg = rpg.SetVolume(w.WeightKg, w.Reps)
		set.OneRepMax = rpg.EstimateOneRepMax(w.WeightKg, w.Reps)
	}
	if !set.Warmup {
		set.XPAwarded = rpg.SetXP(metrics, def.XPMultiplier)
		if set.OneRepMax > 0 {
			prior, err := m.store.BestOneRepMaxExcluding(ctx, def.ID, set.ID)
			if err != nil {
				return nil, err
			}
			set.PersonalRecord = rpg.IsPersonalRecord(set.OneRepMax, prior)
		}
	}

	if err := m.store.PutSet(ctx, *set); err != nil {
		return nil, err
	}
	if err := m.recomputeAggregates(ctx, *we); err != nil {
		return nil, err
	}
	if err := m.recomputeProfile(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("marshaling set payload: %w", err)
	}
	if _, err := m.store.Enqueue(ctx, models.SyncEntitySet, set.ID, models.SyncActionUpdate, payload); err != nil {
		return nil, err
	}
	return set, nil
}

// recomputeAggregates rebuilds the exercise aggregates and workout
// totals from the stored sets. Aggregates are never adjusted by delta.
func (m *Machine) recomputeAggregates(ctx context.Context, we models.WorkoutExercise) error {
	sets, err := m.store.ListSets(ctx, we.ID)
	if err != nil {
		return err
	}
	we.TotalSets = len(sets)
	we.TotalVolumeKg = 0
	we.BestOneRepMax = nil
	for _, set := range sets {
		if set.Warmup {
			continue
		}
		we.TotalVolumeKg += set.VolumeKg
		if set.OneRepMax > 0 && (we.BestOneRepMax == nil || set.OneRepMax > *we.BestOneRepMax) {
			v := set.OneRepMax
			we.BestOneRepMax = &v
		}
	}
	if err := m.store.PutWorkoutExercise(ctx, we); err != nil {
		return err
	}

	workout, err := m.store.GetWorkout(ctx, we.WorkoutID)
	if err != nil {
		return err
	}
	if workout == nil {
		return fmt.Errorf("workout %q: %w", we.WorkoutID, models.ErrNotFound)
	}
	joins, err := m.store.ListWorkoutExercises(ctx, workout.ID)
	if err != nil {
		return err
	}
	workout.TotalVolumeKg = 0
	workout.TotalXPEarned = 0
	for _, join := range joins {
		workout.TotalVolumeKg += join.TotalVolumeKg
		sets, err := m.store.ListSets(ctx, join.ID)
		if err != nil {
			return err
		}
		for _, set := range sets {
			workout.TotalXPEarned += set.XPAwarded
		}
	}
	return m.store.PutWorkout(ctx, *workout)
}

// recomputeProfile rebuilds the profile's XP from the sum of all
// remaining completed workouts, then re-derives the level. Summation
// instead of subtraction keeps the total drift-free after merges.
func (m *Machine) recomputeProfile(ctx context.Context) error {
	user, err := m.store.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}
	total, err := m.store.SumCompletedXP(ctx)
	if err != nil {
		return err
	}
	oldLevel := user.Level
	user.TotalXP = total
	info := rpg.LevelFromXP(total)
	user.Level = info.Level
	if err := m.store.PutUser(ctx, *user); err != nil {
		return err
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshaling profile payload: %w", err)
	}
	if _, err := m.store.Enqueue(ctx, models.SyncEntityProfile, user.ID, models.SyncActionUpdate, payload); err != nil {
		return err
	}
	if user.Level > oldLevel {
		m.notifyLevelUp(LevelUp{OldLevel: oldLevel, NewLevel: user.Level})
	}
	return nil
}

// RecomputeProfile is the exported entry point used after a workout
// deletion.
func (m *Machine) RecomputeProfile(ctx context.Context) error {
	return m.recomputeProfile(ctx)
}
