package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/FloScythe/fitness-rpg/internal/models"
)

// TestQueueLifecycle verifies FIFO ordering and the pending→synced
// transition.
func TestQueueLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	payload := json.RawMessage(`{"total_xp":100}`)
	id1, err := st.Enqueue(ctx, models.SyncEntityWorkout, "w-1", models.SyncActionCreate, payload)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	id2, err := st.Enqueue(ctx, models.SyncEntityProfile, "u-1", models.SyncActionUpdate, payload)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("ids not monotonic: %d then %d", id1, id2)
	}

	pending, err := st.PendingEntries(ctx)
	if err != nil {
		t.Fatalf("PendingEntries: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	if pending[0].ID != id1 || pending[1].ID != id2 {
		t.Error("pending entries not in enqueue order")
	}
	if pending[0].EntityType != models.SyncEntityWorkout || pending[0].Action != models.SyncActionCreate {
		t.Errorf("entry 1 = %+v", pending[0])
	}
	if pending[0].Status != models.SyncStatusPending {
		t.Errorf("fresh entry status = %q", pending[0].Status)
	}

	if err := st.MarkSynced(ctx, []int64{id1}); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	count, err := st.PendingCount(ctx)
	if err != nil {
		t.Fatalf("PendingCount: %v", err)
	}
	if count != 1 {
		t.Errorf("pending after MarkSynced = %d, want 1", count)
	}

	pending, _ = st.PendingEntries(ctx)
	if len(pending) != 1 || pending[0].ID != id2 {
		t.Errorf("remaining pending = %+v, want only id %d", pending, id2)
	}
}

// TestIncrementAttempts verifies the attempt counter rises on failed
// pushes without changing the status.
func TestIncrementAttempts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.Enqueue(ctx, models.SyncEntityWorkout, "w-1", models.SyncActionCreate, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := st.IncrementAttempts(ctx, []int64{id}); err != nil {
			t.Fatalf("IncrementAttempts: %v", err)
		}
	}

	pending, _ := st.PendingEntries(ctx)
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if pending[0].AttemptCount != 3 {
		t.Errorf("attempts = %d, want 3", pending[0].AttemptCount)
	}
	if pending[0].Status != models.SyncStatusPending {
		t.Errorf("status = %q, want pending", pending[0].Status)
	}
}

// TestClearQueue verifies a full wipe.
func TestClearQueue(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := st.Enqueue(ctx, models.SyncEntityWorkout, "w", models.SyncActionCreate, json.RawMessage(`{}`)); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	if err := st.ClearQueue(ctx); err != nil {
		t.Fatalf("ClearQueue: %v", err)
	}
	count, _ := st.PendingCount(ctx)
	if count != 0 {
		t.Errorf("pending after clear = %d, want 0", count)
	}
}
