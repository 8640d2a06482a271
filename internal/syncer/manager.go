// Package syncer reconciles local pending mutations with the remote
// server while tolerating intermittent connectivity. The local store
// is the source of truth: sync failures never block recording, and a
// pull never lowers a larger local XP total.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/FloScythe/fitness-rpg/internal/models"
	"github.com/FloScythe/fitness-rpg/internal/rpg"
	"github.com/FloScythe/fitness-rpg/internal/store"
)

// ConnectivityProbe reports whether the network path to the server is
// believed usable. Injected so the manager is testable offline.
type ConnectivityProbe interface {
	Online() bool
}

// ProbeFunc adapts a function to a ConnectivityProbe.
type ProbeFunc func() bool

func (f ProbeFunc) Online() bool { return f() }

// Options tunes the retry and scheduling behavior.
type Options struct {
	BaseDelay   time.Duration // first retry delay, doubled per attempt
	MaxAttempts int           // push attempts before giving up
	Interval    time.Duration // periodic full-sync cadence
	MinInterval time.Duration // skip a periodic sync if one ran more recently
}

// DefaultOptions matches the browser build: 3 attempts, 30s cadence,
// 5 minute freshness window.
func DefaultOptions() Options {
	return Options{
		BaseDelay:   5 * time.Second,
		MaxAttempts: 3,
		Interval:    30 * time.Second,
		MinInterval: 5 * time.Minute,
	}
}

// Manager owns the sync queue lifecycle: enqueue, push with bounded
// backoff, pull with deterministic merge, and deletion propagation.
type Manager struct {
	store  *store.Store
	client *Client
	tokens TokenSource
	probe  ConnectivityProbe
	opts   Options
	log    *slog.Logger
	sleep  func(context.Context, time.Duration) error

	syncing  atomic.Bool
	mu       sync.Mutex
	lastSync time.Time
	lastErr  error
}

// New creates a sync manager.
func New(st *store.Store, client *Client, tokens TokenSource, probe ConnectivityProbe, opts Options, log *slog.Logger) *Manager {
	return &Manager{
		store:  st,
		client: client,
		tokens: tokens,
		probe:  probe,
		opts:   opts,
		log:    log,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// canSync reports whether any network sync may run at all.
func (m *Manager) canSync() bool {
	return m.tokens.Token() != "" && m.probe.Online()
}

// Enqueue appends a pending mutation to the durable queue.
func (m *Manager) Enqueue(ctx context.Context, entityType models.SyncEntityType, entityID string,
	action models.SyncAction, payload json.RawMessage) error {
	_, err := m.store.Enqueue(ctx, entityType, entityID, action, payload)
	return err
}

// PushPending sends all pending queue entries in one batch. A no-op
// when offline, unauthenticated, or a sync is already in flight.
func (m *Manager) PushPending(ctx context.Context) error {
	if !m.syncing.CompareAndSwap(false, true) {
		return models.ErrSyncUnavailable
	}
	defer m.syncing.Store(false)
	return m.push(ctx)
}

func (m *Manager) push(ctx context.Context) error {
	if !m.canSync() {
		return models.ErrSyncUnavailable
	}

	entries, err := m.store.PendingEntries(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	var lastErr error
	for attempt := 1; attempt <= m.opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := m.opts.BaseDelay << (attempt - 2)
			if err := m.sleep(ctx, delay); err != nil {
				return err
			}
		}

		result, err := m.client.Push(ctx, entries)
		if err != nil {
			lastErr = err
			if err := m.store.IncrementAttempts(ctx, ids); err != nil {
				m.log.Warn("failed to record push attempt", "error", err)
			}
			m.log.Warn("push attempt failed", "attempt", attempt, "entries", len(entries), "error", err)
			continue
		}

		if err := m.store.MarkSynced(ctx, ids); err != nil {
			return err
		}
		if result.User != nil {
			if err := m.mergeUser(ctx, *result.User); err != nil {
				return err
			}
		}
		m.setSynced()
		m.log.Info("pushed pending entries", "count", len(entries))
		return nil
	}

	// Exhausted. Data stays pending locally; surfaced as non-fatal.
	err = fmt.Errorf("push failed after %d attempts: %w", m.opts.MaxAttempts, lastErr)
	m.setError(err)
	return err
}

// PullFromServer fetches the remote view and merges it in. Entities
// absent locally are inserted; the profile is merged by taking the
// larger XP total and re-deriving the level from it.
func (m *Manager) PullFromServer(ctx context.Context) error {
	if !m.syncing.CompareAndSwap(false, true) {
		return models.ErrSyncUnavailable
	}
	defer m.syncing.Store(false)
	return m.pull(ctx)
}

func (m *Manager) pull(ctx context.Context) error {
	if !m.canSync() {
		return models.ErrSyncUnavailable
	}

	resp, err := m.client.Pull(ctx)
	if err != nil {
		m.setError(err)
		return fmt.Errorf("pull: %w", err)
	}

	inserted := 0
	for _, remote := range resp.Workouts {
		local, err := m.store.GetWorkout(ctx, remote.UUID)
		if err != nil {
			return err
		}
		if local != nil {
			// Local copy wins: the device may hold newer edits the
			// server has not seen yet.
			continue
		}
		if err := m.insertWorkoutTree(ctx, remote.toModel()); err != nil {
			return err
		}
		inserted++
	}

	if resp.User != nil {
		if err := m.mergeUser(ctx, *resp.User); err != nil {
			return err
		}
	}

	m.setSynced()
	m.log.Info("pulled from server", "remote_workouts", len(resp.Workouts), "inserted", inserted)
	return nil
}

func (m *Manager) insertWorkoutTree(ctx context.Context, w models.Workout) error {
	if err := m.store.PutWorkout(ctx, w); err != nil {
		return err
	}
	for _, we := range w.Exercises {
		if err := m.store.PutWorkoutExercise(ctx, we); err != nil {
			return err
		}
		for _, set := range we.Sets {
			if set.Metrics == nil {
				m.log.Warn("skipping remote set without metrics", "set_id", set.ID)
				continue
			}
			if err := m.store.PutSet(ctx, set); err != nil {
				return err
			}
		}
	}
	return nil
}

// mergeUser applies the max-XP rule: the larger of local and remote
// totals wins and the level is always re-derived from the winner.
func (m *Manager) mergeUser(ctx context.Context, remote wireUser) error {
	user, err := m.store.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		now := time.Now().UTC()
		merged := models.User{
			ID:         remote.ID,
			Username:   remote.Username,
			TotalXP:    remote.TotalXP,
			Level:      rpg.LevelFromXP(remote.TotalXP).Level,
			LastSyncAt: &now,
			CreatedAt:  now,
		}
		return m.store.PutUser(ctx, merged)
	}

	merged := max(user.TotalXP, remote.TotalXP)
	user.TotalXP = merged
	user.Level = rpg.LevelFromXP(merged).Level
	now := time.Now().UTC()
	user.LastSyncAt = &now
	return m.store.PutUser(ctx, *user)
}

// FullSync pushes first, then pulls: local progress must reach the
// server before the pull could otherwise shadow it.
func (m *Manager) FullSync(ctx context.Context) error {
	if !m.syncing.CompareAndSwap(false, true) {
		return models.ErrSyncUnavailable
	}
	defer m.syncing.Store(false)

	if err := m.push(ctx); err != nil {
		return err
	}
	return m.pull(ctx)
}

// DeleteWorkout removes a workout locally, propagates the deletion
// remotely (a 404 means already gone), and rebuilds the profile XP
// from the workouts that remain.
func (m *Manager) DeleteWorkout(ctx context.Context, workoutID string) error {
	w, err := m.store.GetWorkout(ctx, workoutID)
	if err != nil {
		return err
	}
	if w == nil {
		return fmt.Errorf("workout %q: %w", workoutID, models.ErrNotFound)
	}

	if err := m.store.DeleteWorkout(ctx, workoutID); err != nil {
		return err
	}

	if m.canSync() {
		if err := m.client.DeleteWorkout(ctx, workoutID); err != nil {
			// Remote delete failed; queue it for replay instead.
			m.log.Warn("remote delete failed, queueing", "workout_id", workoutID, "error", err)
			if _, qErr := m.store.Enqueue(ctx, models.SyncEntityWorkout, workoutID,
				models.SyncActionDelete, json.RawMessage(`{}`)); qErr != nil {
				return qErr
			}
		}
	} else {
		if _, err := m.store.Enqueue(ctx, models.SyncEntityWorkout, workoutID,
			models.SyncActionDelete, json.RawMessage(`{}`)); err != nil {
			return err
		}
	}

	return m.recomputeProfile(ctx)
}

// recomputeProfile rebuilds TotalXP as the sum over remaining completed
// workouts. Summation, not subtraction: a prior merge may have counted
// the deleted workout's XP differently than its stored total.
func (m *Manager) recomputeProfile(ctx context.Context) error {
	user, err := m.store.CurrentUser(ctx)
	if err != nil || user == nil {
		return err
	}
	total, err := m.store.SumCompletedXP(ctx)
	if err != nil {
		return err
	}
	user.TotalXP = total
	user.Level = rpg.LevelFromXP(total).Level
	if err := m.store.PutUser(ctx, *user); err != nil {
		return err
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshaling profile payload: %w", err)
	}
	_, err = m.store.Enqueue(ctx, models.SyncEntityProfile, user.ID, models.SyncActionUpdate, payload)
	return err
}

// Run executes a full sync on a fixed cadence until the context is
// cancelled. Ticks are skipped while unauthenticated or offline and
// when the last successful sync is fresher than MinInterval.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	m.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Manager) tick(ctx context.Context) {
	if !m.canSync() {
		return
	}
	m.mu.Lock()
	fresh := !m.lastSync.IsZero() && time.Since(m.lastSync) < m.opts.MinInterval
	m.mu.Unlock()
	if fresh {
		return
	}
	if err := m.FullSync(ctx); err != nil && err != models.ErrSyncUnavailable {
		m.log.Warn("periodic sync failed", "error", err)
	}
}

// Status describes the manager for the status endpoint.
type Status struct {
	State     string     `json:"state"`
	Pending   int        `json:"pending"`
	LastSync  *time.Time `json:"last_sync,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// Status reports the current sync state and queue depth.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	pending, err := m.store.PendingCount(ctx)
	if err != nil {
		return Status{}, err
	}
	st := Status{State: "idle", Pending: pending}
	if m.syncing.Load() {
		st.State = "syncing"
	}
	m.mu.Lock()
	if !m.lastSync.IsZero() {
		t := m.lastSync
		st.LastSync = &t
	}
	if m.lastErr != nil {
		st.LastError = m.lastErr.Error()
	}
	m.mu.Unlock()
	return st, nil
}

func (m *Manager) setSynced() {
	m.mu.Lock()
	m.lastSync = time.Now().UTC()
	m.lastErr = nil
	m.mu.Unlock()
}

func (m *Manager) setError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
