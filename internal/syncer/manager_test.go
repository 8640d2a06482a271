package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FloScythe/fitness-rpg/internal/models"
	"github.com/FloScythe/fitness-rpg/internal/store"
)

func newTestManager(t *testing.T, serverURL, token string, online bool) (*Manager, *store.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), log)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	tokens := staticToken(token)
	opts := Options{BaseDelay: time.Millisecond, MaxAttempts: 3, Interval: time.Hour, MinInterval: time.Hour}
	m := New(st, NewClient(serverURL, tokens), tokens, ProbeFunc(func() bool { return online }), opts, log)
	m.sleep = func(context.Context, time.Duration) error { return nil }
	return m, st
}

func seedUser(t *testing.T, st *store.Store, xp, level int) models.User {
	t.Helper()
	u := models.User{ID: models.NewID(), Username: "flo", TotalXP: xp, Level: level, CreatedAt: time.Now().UTC()}
	if err := st.PutUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

// TestPushPendingSuccess verifies a successful batch marks every entry
// synced.
func TestPushPendingSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req pushRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(PushResult{Synced: len(req.Items)})
	}))
	defer srv.Close()

	m, st := newTestManager(t, srv.URL, "tok", true)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := st.Enqueue(ctx, models.SyncEntityWorkout, "w", models.SyncActionCreate, json.RawMessage(`{}`)); err != nil {
			t.Fatal(err)
		}
	}

	if err := m.PushPending(ctx); err != nil {
		t.Fatalf("PushPending: %v", err)
	}
	count, _ := st.PendingCount(ctx)
	if count != 0 {
		t.Errorf("pending after push = %d, want 0", count)
	}
}

// TestPushPendingRetries verifies failed attempts back off and the
// batch eventually succeeds within the attempt budget.
func TestPushPendingRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "try later", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(PushResult{Synced: 1})
	}))
	defer srv.Close()

	m, st := newTestManager(t, srv.URL, "tok", true)
	var delays []time.Duration
	m.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	ctx := context.Background()
	if _, err := st.Enqueue(ctx, models.SyncEntityWorkout, "w", models.SyncActionCreate, json.RawMessage(`{}`)); err != nil {
		t.Fatal(err)
	}

	if err := m.PushPending(ctx); err != nil {
		t.Fatalf("PushPending: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	// Doubling delays: base, then 2*base.
	if len(delays) != 2 || delays[1] != 2*delays[0] {
		t.Errorf("delays = %v, want doubling backoff", delays)
	}
	count, _ := st.PendingCount(ctx)
	if count != 0 {
		t.Errorf("pending = %d, want 0", count)
	}
}

// TestPushPendingExhausted verifies entries stay pending with their
// attempt counts after the budget runs out.
func TestPushPendingExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	m, st := newTestManager(t, srv.URL, "tok", true)
	ctx := context.Background()
	if _, err := st.Enqueue(ctx, models.SyncEntityWorkout, "w", models.SyncActionCreate, json.RawMessage(`{}`)); err != nil {
		t.Fatal(err)
	}

	if err := m.PushPending(ctx); err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	pending, _ := st.PendingEntries(ctx)
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1 (data never dropped)", len(pending))
	}
	if pending[0].AttemptCount != 3 {
		t.Errorf("attempts = %d, want 3", pending[0].AttemptCount)
	}

	status, _ := m.Status(ctx)
	if status.LastError == "" {
		t.Error("Status.LastError empty after failed push")
	}
}

// TestPushUnavailable verifies offline and unauthenticated managers
// refuse without touching the network.
func TestPushUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request reached server while unavailable")
	}))
	defer srv.Close()

	tests := []struct {
		name   string
		token  string
		online bool
	}{
		{"offline", "tok", false},
		{"unauthenticated", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, st := newTestManager(t, srv.URL, tt.token, tt.online)
			ctx := context.Background()
			if _, err := st.Enqueue(ctx, models.SyncEntityWorkout, "w", models.SyncActionCreate, json.RawMessage(`{}`)); err != nil {
				t.Fatal(err)
			}
			if err := m.PushPending(ctx); !errors.Is(err, models.ErrSyncUnavailable) {
				t.Errorf("error = %v, want ErrSyncUnavailable", err)
			}
		})
	}
}

// TestSyncInFlightGuard verifies a second sync is skipped, not queued,
// while one runs.
func TestSyncInFlightGuard(t *testing.T) {
	m, _ := newTestManager(t, "http://unused.invalid", "tok", true)
	m.syncing.Store(true)
	if err := m.PushPending(context.Background()); !errors.Is(err, models.ErrSyncUnavailable) {
		t.Errorf("error = %v, want ErrSyncUnavailable", err)
	}
	if err := m.PullFromServer(context.Background()); !errors.Is(err, models.ErrSyncUnavailable) {
		t.Errorf("error = %v, want ErrSyncUnavailable", err)
	}
}

// TestPullInsertsMissingWorkouts verifies remote workouts absent
// locally are inserted as full trees and existing ones are untouched.
func TestPullInsertsMissingWorkouts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"user": null,
			"workouts": [
				{"uuid": "remote-1", "workout_date": "2026-08-20T10:00:00Z", "total_volume": 400, "xp_earned": 480, "is_completed": true,
				 "exercises": [{"uuid": "we-r1", "exercise_uuid": "bench-press", "order_index": 0, "total_sets": 1,
				   "sets": [{"uuid": "s-r1", "set_number": 1, "weight_kg": 80, "reps": 5, "volume": 400, "xp_awarded": 480}]}]},
				{"uuid": "local-1", "workout_date": "2026-08-19T10:00:00Z", "total_volume": 9999, "xp_earned": 9999, "is_completed": true, "exercises": []}
			]
		}`))
	}))
	defer srv.Close()

	m, st := newTestManager(t, srv.URL, "tok", true)
	ctx := context.Background()
	local := models.Workout{ID: "local-1", StartedAt: time.Now().UTC(), TotalVolumeKg: 100, Completed: true}
	if err := st.PutWorkout(ctx, local); err != nil {
		t.Fatal(err)
	}

	if err := m.PullFromServer(ctx); err != nil {
		t.Fatalf("PullFromServer: %v", err)
	}

	inserted, _ := st.GetWorkoutDetails(ctx, "remote-1")
	if inserted == nil {
		t.Fatal("remote workout not inserted")
	}
	if len(inserted.Exercises) != 1 || len(inserted.Exercises[0].Sets) != 1 {
		t.Errorf("inserted tree = %+v", inserted.Exercises)
	}

	kept, _ := st.GetWorkout(ctx, "local-1")
	if kept.TotalVolumeKg != 100 {
		t.Errorf("local workout overwritten: volume = %v, want 100", kept.TotalVolumeKg)
	}
}

// TestMergeUserMaxXP verifies the profile merge never lowers the XP
// total and always re-derives the level.
func TestMergeUserMaxXP(t *testing.T) {
	tests := []struct {
		name      string
		localXP   int
		remoteXP  int
		wantXP    int
		wantLevel int
	}{
		{"local wins", 500, 300, 500, 2},
		{"remote wins", 300, 600, 600, 3},
		{"equal", 400, 400, 400, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"user":     map[string]any{"id": "u-1", "username": "flo", "total_xp": tt.remoteXP, "level": 1},
					"workouts": []any{},
				})
			}))
			defer srv.Close()

			m, st := newTestManager(t, srv.URL, "tok", true)
			ctx := context.Background()
			seedUser(t, st, tt.localXP, 1)

			if err := m.PullFromServer(ctx); err != nil {
				t.Fatalf("PullFromServer: %v", err)
			}

			user, _ := st.CurrentUser(ctx)
			if user.TotalXP != tt.wantXP {
				t.Errorf("TotalXP = %d, want %d", user.TotalXP, tt.wantXP)
			}
			if user.Level != tt.wantLevel {
				t.Errorf("Level = %d, want %d", user.Level, tt.wantLevel)
			}
			if user.LastSyncAt == nil {
				t.Error("LastSyncAt not updated")
			}
		})
	}
}

// TestDeleteWorkoutOnline verifies local cascade delete, tolerant
// remote delete, and the profile rebuild.
func TestDeleteWorkoutOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound) // already gone remotely
	}))
	defer srv.Close()

	m, st := newTestManager(t, srv.URL, "tok", true)
	ctx := context.Background()
	seedUser(t, st, 750, 3)
	w := models.Workout{ID: "w-1", StartedAt: time.Now().UTC(), TotalXPEarned: 750, Completed: true}
	if err := st.PutWorkout(ctx, w); err != nil {
		t.Fatal(err)
	}

	if err := m.DeleteWorkout(ctx, "w-1"); err != nil {
		t.Fatalf("DeleteWorkout: %v", err)
	}

	if got, _ := st.GetWorkout(ctx, "w-1"); got != nil {
		t.Error("workout survived delete")
	}
	user, _ := st.CurrentUser(ctx)
	if user.TotalXP != 0 || user.Level != 1 {
		t.Errorf("profile = %d xp level %d, want 0/1", user.TotalXP, user.Level)
	}
}

// TestDeleteWorkoutOffline verifies the deletion is queued for replay
// when the server is unreachable.
func TestDeleteWorkoutOffline(t *testing.T) {
	m, st := newTestManager(t, "http://unused.invalid", "tok", false)
	ctx := context.Background()
	seedUser(t, st, 100, 1)
	w := models.Workout{ID: "w-1", StartedAt: time.Now().UTC(), TotalXPEarned: 100, Completed: true}
	if err := st.PutWorkout(ctx, w); err != nil {
		t.Fatal(err)
	}

	if err := m.DeleteWorkout(ctx, "w-1"); err != nil {
		t.Fatalf("DeleteWorkout: %v", err)
	}

	pending, _ := st.PendingEntries(ctx)
	var queued bool
	for _, e := range pending {
		if e.EntityType == models.SyncEntityWorkout && e.EntityID == "w-1" && e.Action == models.SyncActionDelete {
			queued = true
		}
	}
	if !queued {
		t.Errorf("delete not queued: %+v", pending)
	}
}

// TestDeleteWorkoutMissing verifies deleting an unknown id reports
// not-found.
func TestDeleteWorkoutMissing(t *testing.T) {
	m, _ := newTestManager(t, "http://unused.invalid", "tok", false)
	if err := m.DeleteWorkout(context.Background(), "nope"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// TestFullSyncPushesBeforePull verifies ordering so fresh local work
// reaches the server before the pull merges.
func TestFullSyncPushesBeforePull(t *testing.T) {
	var order []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, r.URL.Path)
		switch r.URL.Path {
		case "/sync/push":
			json.NewEncoder(w).Encode(PushResult{Synced: 1})
		case "/sync/pull":
			w.Write([]byte(`{"user": null, "workouts": []}`))
		}
	}))
	defer srv.Close()

	m, st := newTestManager(t, srv.URL, "tok", true)
	ctx := context.Background()
	if _, err := st.Enqueue(ctx, models.SyncEntityWorkout, "w", models.SyncActionCreate, json.RawMessage(`{}`)); err != nil {
		t.Fatal(err)
	}

	if err := m.FullSync(ctx); err != nil {
		t.Fatalf("FullSync: %v", err)
	}
	if len(order) != 2 || order[0] != "/sync/push" || order[1] != "/sync/pull" {
		t.Errorf("request order = %v, want push then pull", order)
	}

	status, _ := m.Status(ctx)
	if status.LastSync == nil {
		t.Error("Status.LastSync not set after FullSync")
	}
	if status.State != "idle" {
		t.Errorf("State = %q, want idle", status.State)
	}
}
