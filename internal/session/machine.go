// Package session tracks a workout being recorded. A session lives
// purely in memory while in progress; completion persists the workout
// with its nested entities, enqueues it for sync, and credits the
// earned XP to the profile. Cancellation discards everything.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/FloScythe/fitness-rpg/internal/models"
	"github.com/FloScythe/fitness-rpg/internal/rpg"
	"github.com/FloScythe/fitness-rpg/internal/store"
)

// Machine is the workout session state machine. The zero-valued states
// are NoSession (no active workout) and InProgress (active field set);
// Completed and Cancelled are terminal and return the machine to
// NoSession.
type Machine struct {
	store *store.Store
	log   *slog.Logger
	now   func() time.Time

	mu        sync.Mutex
	active    *activeWorkout
	listeners []Listener
}

type activeWorkout struct {
	id        string
	startedAt time.Time
	exercises []activeExercise
}

type activeExercise struct {
	id            string
	def           models.ExerciseDefinition
	orderIndex    int
	sets          []models.ExerciseSet
	totalVolumeKg float64
	bestOneRepMax *float64
}

// New creates a session machine over the given store.
func New(st *store.Store, log *slog.Logger) *Machine {
	return &Machine{store: st, log: log, now: time.Now}
}

// SetClock overrides the time source. Test hook.
func (m *Machine) SetClock(now func() time.Time) { m.now = now }

// Register adds a listener for session events.
func (m *Machine) Register(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// InProgress reports whether a session is active.
func (m *Machine) InProgress() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}

// Start begins a new session. Fails when one is already in progress.
func (m *Machine) Start() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		return "", fmt.Errorf("session already in progress: %w", models.ErrInvalidState)
	}
	m.active = &activeWorkout{
		id:        models.NewID(),
		startedAt: m.now().UTC(),
	}
	m.log.Info("session started", "workout_id", m.active.id)
	return m.active.id, nil
}

// AddExercise appends an exercise to the active session and returns its
// index. The definition must exist in the catalog.
func (m *Machine) AddExercise(ctx context.Context, exerciseID string) (int, error) {
	def, err := m.store.GetExercise(ctx, exerciseID)
	if err != nil {
		return 0, err
	}
	if def == nil {
		return 0, fmt.Errorf("exercise %q: %w", exerciseID, models.ErrNotFound)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return 0, fmt.Errorf("no session in progress: %w", models.ErrInvalidState)
	}
	index := len(m.active.exercises)
	m.active.exercises = append(m.active.exercises, activeExercise{
		id:         models.NewID(),
		def:        *def,
		orderIndex: index,
	})
	return index, nil
}

// SetOptions carries the optional attributes of a new set.
type SetOptions struct {
	RPE    *float64
	Warmup bool
}

// AddSet records a completed set on the exercise at the given index.
// Derived fields (volume, XP, estimated 1RM, PR flag) and the
// exercise-level aggregates are computed in the same step, so no stale
// aggregate is ever observable.
func (m *Machine) AddSet(ctx context.Context, exerciseIndex int, metrics models.SetMetrics, opts SetOptions) (models.ExerciseSet, error) {
	if metrics == nil {
		return models.ExerciseSet{}, fmt.Errorf("set has no metrics: %w", models.ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return models.ExerciseSet{}, fmt.Errorf("no session in progress: %w", models.ErrInvalidState)
	}
	if exerciseIndex < 0 || exerciseIndex >= len(m.active.exercises) {
		return models.ExerciseSet{}, fmt.Errorf("no exercise at index %d: %w", exerciseIndex, models.ErrInvalidState)
	}
	ex := &m.active.exercises[exerciseIndex]

	if metrics.Movement() != ex.def.Movement {
		return models.ExerciseSet{}, fmt.Errorf("exercise %q records %s sets, got %s: %w",
			ex.def.ID, ex.def.Movement, metrics.Movement(), models.ErrValidation)
	}

	set := models.ExerciseSet{
		ID:                models.NewID(),
		WorkoutExerciseID: ex.id,
		SetNumber:         len(ex.sets) + 1,
		Metrics:           metrics,
		RPE:               opts.RPE,
		Warmup:            opts.Warmup,
		CreatedAt:         m.now().UTC(),
	}

	if w, ok := metrics.(models.WeightedSet); ok {
		set.VolumeKg = rpg.SetVolume(w.WeightKg, w.Reps)
		set.OneRepMax = rpg.EstimateOneRepMax(w.WeightKg, w.Reps)
	}

	// Warmups never award XP, never count toward aggregates, and are
	// never evaluated for records.
	if !set.Warmup {
		set.XPAwarded = rpg.SetXP(metrics, ex.def.XPMultiplier)
		if set.OneRepMax > 0 {
			prior, err := m.bestPrior(ctx, ex)
			if err != nil {
				return models.ExerciseSet{}, err
			}
			set.PersonalRecord = rpg.IsPersonalRecord(set.OneRepMax, prior)
		}
		ex.totalVolumeKg += set.VolumeKg
		if set.OneRepMax > 0 && (ex.bestOneRepMax == nil || set.OneRepMax > *ex.bestOneRepMax) {
			v := set.OneRepMax
			ex.bestOneRepMax = &v
		}
	}

	ex.sets = append(ex.sets, set)

	if set.PersonalRecord {
		m.notifyPersonalRecord(PersonalRecord{
			ExerciseID:   ex.def.ID,
			ExerciseName: ex.def.Name,
			OneRepMax:    set.OneRepMax,
		})
	}
	return set, nil
}

// bestPrior is the best non-warmup 1RM for the exercise across all
// persisted history plus the sets already recorded in this session.
func (m *Machine) bestPrior(ctx context.Context, ex *activeExercise) (*float64, error) {
	best, err := m.store.BestOneRepMax(ctx, ex.def.ID)
	if err != nil {
		return nil, err
	}
	for i := range m.active.exercises {
		other := &m.active.exercises[i]
		if other.def.ID != ex.def.ID || other.bestOneRepMax == nil {
			continue
		}
		if best == nil || *other.bestOneRepMax > *best {
			v := *other.bestOneRepMax
			best = &v
		}
	}
	return best, nil
}

// CompleteResult is what Complete returns: the persisted workout and
// how the profile moved.
type CompleteResult struct {
	Workout      models.Workout
	XPEarned     int
	LevelsGained int
	Level        rpg.LevelInfo
	Achievements []rpg.Achievement
}

// Complete finalizes the active session: computes totals over all
// non-warmup sets, persists the workout tree, enqueues it for sync,
// credits the XP to the profile and recomputes the level. The machine
// returns to NoSession.
func (m *Machine) Complete(ctx context.Context) (*CompleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil, fmt.Errorf("no session in progress: %w", models.ErrInvalidState)
	}
	if len(m.active.exercises) == 0 {
		return nil, models.ErrEmptySession
	}

	endedAt := m.now().UTC()
	workout := models.Workout{
		ID:         m.active.id,
		StartedAt:  m.active.startedAt,
		EndedAt:    &endedAt,
		DurationMs: endedAt.Sub(m.active.startedAt).Milliseconds(),
		Completed:  true,
	}

	for _, ex := range m.active.exercises {
		we := models.WorkoutExercise{
			ID:            ex.id,
			WorkoutID:     workout.ID,
			ExerciseID:    ex.def.ID,
			OrderIndex:    ex.orderIndex,
			TotalSets:     len(ex.sets),
			TotalVolumeKg: ex.totalVolumeKg,
			BestOneRepMax: ex.bestOneRepMax,
			Sets:          ex.sets,
		}
		workout.Exercises = append(workout.Exercises, we)
		workout.TotalVolumeKg += ex.totalVolumeKg
		for _, set := range ex.sets {
			workout.TotalXPEarned += set.XPAwarded
		}
	}

	if err := m.persist(ctx, workout); err != nil {
		return nil, err
	}

	result := &CompleteResult{Workout: workout, XPEarned: workout.TotalXPEarned}
	if err := m.creditXP(ctx, workout.TotalXPEarned, result); err != nil {
		return nil, err
	}

	m.active = nil
	m.log.Info("session completed",
		"workout_id", workout.ID,
		"volume_kg", workout.TotalVolumeKg,
		"xp", workout.TotalXPEarned,
		"levels_gained", result.LevelsGained,
	)
	return result, nil
}

func (m *Machine) persist(ctx context.Context, workout models.Workout) error {
	if err := m.store.PutWorkout(ctx, workout); err != nil {
		return err
	}
	for _, we := range workout.Exercises {
		if err := m.store.PutWorkoutExercise(ctx, we); err != nil {
			return err
		}
		for _, set := range we.Sets {
			if err := m.store.PutSet(ctx, set); err != nil {
				return err
			}
		}
	}

	payload, err := json.Marshal(workout)
	if err != nil {
		return fmt.Errorf("marshaling workout payload: %w", err)
	}
	// A crash between the workout write and this enqueue leaves a local
	// workout the server never hears about; the next profile sync
	// reconciles the XP and the workout stays safe locally.
	if _, err := m.store.Enqueue(ctx, models.SyncEntityWorkout, workout.ID, models.SyncActionCreate, payload); err != nil {
		return err
	}
	return nil
}

func (m *Machine) creditXP(ctx context.Context, earned int, result *CompleteResult) error {
	user, err := m.store.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("no local profile: %w", models.ErrNotFound)
	}

	oldLevel := user.Level
	oldXP := user.TotalXP
	user.TotalXP += earned
	info := rpg.LevelFromXP(user.TotalXP)
	user.Level = info.Level
	if err := m.store.PutUser(ctx, *user); err != nil {
		return err
	}
	profilePayload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshaling profile payload: %w", err)
	}
	if _, err := m.store.Enqueue(ctx, models.SyncEntityProfile, user.ID, models.SyncActionUpdate, profilePayload); err != nil {
		return err
	}

	result.Level = info
	result.LevelsGained = info.Level - oldLevel

	count, err := m.store.CountCompletedWorkouts(ctx)
	if err != nil {
		return err
	}
	// Milestones already satisfied before this workout are not news.
	prior := make(map[string]bool)
	for _, a := range rpg.CheckAchievements(count-1, oldXP, func(string) bool { return false }) {
		prior[a.ID] = true
	}
	result.Achievements = rpg.CheckAchievements(count, user.TotalXP, func(id string) bool { return prior[id] })

	m.notifyXPGained(XPGained{
		Amount:    earned,
		Source:    "workout",
		NewTotal:  user.TotalXP,
		LeveledUp: result.LevelsGained > 0,
	})
	if result.LevelsGained > 0 {
		m.notifyLevelUp(LevelUp{OldLevel: oldLevel, NewLevel: info.Level})
	}
	return nil
}

// Cancel discards the active session without persisting anything.
func (m *Machine) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return fmt.Errorf("no session in progress: %w", models.ErrInvalidState)
	}
	id := m.active.id
	m.active = nil
	m.log.Info("session cancelled", "workout_id", id)
	return nil
}

// Snapshot is a read-only view of the active session for display.
type Snapshot struct {
	WorkoutID string             `json:"workout_id"`
	StartedAt time.Time          `json:"started_at"`
	Exercises []SnapshotExercise `json:"exercises"`
}

// SnapshotExercise is one exercise within a Snapshot.
type SnapshotExercise struct {
	ExerciseID    string               `json:"exercise_id"`
	Name          string               `json:"name"`
	OrderIndex    int                  `json:"order_index"`
	TotalVolumeKg float64              `json:"total_volume_kg"`
	Sets          []models.ExerciseSet `json:"sets"`
}

// Current returns a snapshot of the active session, or nil when idle.
func (m *Machine) Current() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil
	}
	snap := &Snapshot{WorkoutID: m.active.id, StartedAt: m.active.startedAt}
	for _, ex := range m.active.exercises {
		snap.Exercises = append(snap.Exercises, SnapshotExercise{
			ExerciseID:    ex.def.ID,
			Name:          ex.def.Name,
			OrderIndex:    ex.orderIndex,
			TotalVolumeKg: ex.totalVolumeKg,
			Sets:          ex.sets,
		})
	}
	return snap
}
