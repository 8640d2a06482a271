package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FloScythe/fitness-rpg/internal/auth"
	"github.com/FloScythe/fitness-rpg/internal/session"
	"github.com/FloScythe/fitness-rpg/internal/store"
	"github.com/FloScythe/fitness-rpg/internal/syncer"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "test.db"), log)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	if _, err := st.SeedExercises(ctx, store.DefaultCatalog()); err != nil {
		t.Fatal(err)
	}
	if _, err := st.EnsureUser(ctx, "tester"); err != nil {
		t.Fatal(err)
	}

	authSes, err := auth.NewSession("http://unused.invalid", dir, log)
	if err != nil {
		t.Fatal(err)
	}
	opts := syncer.Options{BaseDelay: time.Millisecond, MaxAttempts: 1, Interval: time.Hour, MinInterval: time.Hour}
	syncMgr := syncer.New(st, syncer.NewClient("http://unused.invalid", authSes), authSes,
		syncer.ProbeFunc(func() bool { return false }), opts, log)
	machine := session.New(st, log)

	return New(st, machine, syncMgr, authSes, log), st
}

func doJSON(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var parsed map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("response is not a JSON object: %v\n%s", err, w.Body.String())
		}
	}
	return w, parsed
}

// TestProfileEndpoint verifies the profile carries the derived level
// block.
func TestProfileEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	w, body := doJSON(t, srv, http.MethodGet, "/api/v1/profile", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	level, ok := body["level"].(map[string]any)
	if !ok {
		t.Fatalf("missing level block: %v", body)
	}
	if level["level"].(float64) != 1 {
		t.Errorf("level = %v, want 1", level["level"])
	}
}

// TestListExercisesEndpoint verifies the seeded catalog is served.
func TestListExercisesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exercises", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var exercises []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &exercises); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(exercises) != len(store.DefaultCatalog()) {
		t.Errorf("exercises = %d, want %d", len(exercises), len(store.DefaultCatalog()))
	}
}

// TestSessionFlowOverHTTP drives a whole workout through the API.
func TestSessionFlowOverHTTP(t *testing.T) {
	srv, st := newTestServer(t)

	w, body := doJSON(t, srv, http.MethodPost, "/api/v1/session/start", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d, body = %s", w.Code, w.Body.String())
	}
	workoutID, _ := body["workout_id"].(string)
	if workoutID == "" {
		t.Fatal("start returned no workout_id")
	}

	w, _ = doJSON(t, srv, http.MethodPost, "/api/v1/session/exercises", `{"exercise_id":"bench-press"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("add exercise status = %d, body = %s", w.Code, w.Body.String())
	}

	w, body = doJSON(t, srv, http.MethodPost, "/api/v1/session/sets",
		`{"exercise_index":0,"weight_kg":80,"reps":5}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("add set status = %d, body = %s", w.Code, w.Body.String())
	}
	if body["xp_awarded"].(float64) != 480 {
		t.Errorf("xp_awarded = %v, want 480", body["xp_awarded"])
	}

	w, _ = doJSON(t, srv, http.MethodGet, "/api/v1/session", "")
	if w.Code != http.StatusOK {
		t.Fatalf("session status = %d", w.Code)
	}

	w, _ = doJSON(t, srv, http.MethodPost, "/api/v1/session/complete", "")
	if w.Code != http.StatusOK {
		t.Fatalf("complete status = %d, body = %s", w.Code, w.Body.String())
	}

	stored, err := st.GetWorkout(context.Background(), workoutID)
	if err != nil || stored == nil {
		t.Fatalf("workout not persisted: %v", err)
	}
	if !stored.Completed {
		t.Error("workout not marked completed")
	}
}

// TestErrorMapping verifies domain errors land on the right HTTP
// statuses.
func TestErrorMapping(t *testing.T) {
	srv, _ := newTestServer(t)

	// Conflict: double start.
	if w, _ := doJSON(t, srv, http.MethodPost, "/api/v1/session/start", ""); w.Code != http.StatusCreated {
		t.Fatalf("first start = %d", w.Code)
	}
	if w, _ := doJSON(t, srv, http.MethodPost, "/api/v1/session/start", ""); w.Code != http.StatusConflict {
		t.Errorf("double start = %d, want 409", w.Code)
	}

	// Not found: unknown exercise.
	if w, _ := doJSON(t, srv, http.MethodPost, "/api/v1/session/exercises", `{"exercise_id":"nope"}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown exercise = %d, want 404", w.Code)
	}

	// Bad request: completing an empty session.
	if w, _ := doJSON(t, srv, http.MethodPost, "/api/v1/session/complete", ""); w.Code != http.StatusBadRequest {
		t.Errorf("empty complete = %d, want 400", w.Code)
	}

	// Not found: unknown workout.
	if w, _ := doJSON(t, srv, http.MethodGet, "/api/v1/workouts/nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown workout = %d, want 404", w.Code)
	}
}

// TestSyncStatusEndpoint verifies queue depth shows up.
func TestSyncStatusEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()
	if _, err := st.Enqueue(ctx, "workout", "w-1", "create", json.RawMessage(`{}`)); err != nil {
		t.Fatal(err)
	}

	w, body := doJSON(t, srv, http.MethodGet, "/api/v1/sync/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["pending"].(float64) != 1 {
		t.Errorf("pending = %v, want 1", body["pending"])
	}
	if body["state"] != "idle" {
		t.Errorf("state = %v, want idle", body["state"])
	}
}

// TestDeleteWorkoutEndpoint verifies an offline delete still succeeds
// locally and queues the propagation.
func TestDeleteWorkoutEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	// Record a workout first.
	doJSON(t, srv, http.MethodPost, "/api/v1/session/start", "")
	doJSON(t, srv, http.MethodPost, "/api/v1/session/exercises", `{"exercise_id":"squat"}`)
	doJSON(t, srv, http.MethodPost, "/api/v1/session/sets", `{"exercise_index":0,"weight_kg":100,"reps":5}`)
	doJSON(t, srv, http.MethodPost, "/api/v1/session/complete", "")

	workouts, _ := st.ListWorkouts(ctx)
	if len(workouts) != 1 {
		t.Fatalf("workouts = %d, want 1", len(workouts))
	}

	w, _ := doJSON(t, srv, http.MethodDelete, "/api/v1/workouts/"+workouts[0].ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body = %s", w.Code, w.Body.String())
	}
	if remaining, _ := st.ListWorkouts(ctx); len(remaining) != 0 {
		t.Error("workout survived delete")
	}
	user, _ := st.CurrentUser(ctx)
	if user.TotalXP != 0 {
		t.Errorf("profile xp = %d after delete, want 0", user.TotalXP)
	}
}

// TestCoachEndpoints verifies the recommendation routes.
func TestCoachEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	w, body := doJSON(t, srv, http.MethodGet, "/api/v1/coach/progression?weight_kg=100&reps=5&rpe=6&equipment=barbell", "")
	if w.Code != http.StatusOK {
		t.Fatalf("progression status = %d", w.Code)
	}
	if body["suggested_weight_kg"].(float64) != 102.5 {
		t.Errorf("suggested weight = %v, want 102.5", body["suggested_weight_kg"])
	}

	w, body = doJSON(t, srv, http.MethodGet, "/api/v1/coach/rest?goal=strength", "")
	if w.Code != http.StatusOK {
		t.Fatalf("rest status = %d", w.Code)
	}
	if body["rest_seconds"].(float64) != 180 {
		t.Errorf("rest = %v, want 180", body["rest_seconds"])
	}

	w, body = doJSON(t, srv, http.MethodGet, "/api/v1/coach/deload", "")
	if w.Code != http.StatusOK {
		t.Fatalf("deload status = %d", w.Code)
	}
	if body["deload_recommended"].(bool) {
		t.Error("deload recommended with no history")
	}

	if w, _ := doJSON(t, srv, http.MethodGet, "/api/v1/coach/progression", ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing params = %d, want 400", w.Code)
	}
}

// TestCORSPreflight verifies OPTIONS short-circuits with permissive
// headers.
func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/profile", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}
