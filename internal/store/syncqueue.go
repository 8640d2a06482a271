package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/FloScythe/fitness-rpg/internal/models"
)

// Enqueue appends a pending sync entry and returns its assigned id.
func (s *Store) Enqueue(ctx context.Context, entityType models.SyncEntityType, entityID string,
	action models.SyncAction, payload json.RawMessage) (int64, error) {
	if entityID == "" {
		return 0, fmt.Errorf("sync entry missing entity id: %w", models.ErrValidation)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_queue (entity_type, entity_id, action, payload, status, created_at, attempt_count)
		 VALUES (?, ?, ?, ?, ?, ?, 0)`,
		entityType, entityID, action, string(payload), models.SyncStatusPending, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("enqueuing sync entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading sync entry id: %w", err)
	}
	return id, nil
}

// PendingEntries returns all pending entries in enqueue order.
func (s *Store) PendingEntries(ctx context.Context) ([]models.SyncQueueEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entity_type, entity_id, action, payload, status, created_at, attempt_count
		 FROM sync_queue WHERE status = ? ORDER BY id`, models.SyncStatusPending)
	if err != nil {
		return nil, fmt.Errorf("listing pending entries: %w", err)
	}
	defer rows.Close()

	var out []models.SyncQueueEntry
	for rows.Next() {
		var e models.SyncQueueEntry
		var payload string
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action,
			&payload, &e.Status, &e.CreatedAt, &e.AttemptCount); err != nil {
			return nil, fmt.Errorf("scanning sync entry: %w", err)
		}
		e.Payload = json.RawMessage(payload)
		out = append(out, e)
	}
	return out, rows.Err()
}

// PendingCount counts pending entries.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_queue WHERE status = ?`, models.SyncStatusPending).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting pending entries: %w", err)
	}
	return n, nil
}

// MarkSynced transitions the given entries to synced. Entries are kept
// for audit; they are removed only by ClearQueue.
func (s *Store) MarkSynced(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args := idList(`UPDATE sync_queue SET status = ? WHERE id IN`, ids)
	args = append([]any{models.SyncStatusSynced}, args...)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("marking entries synced: %w", err)
	}
	return nil
}

// IncrementAttempts bumps attempt_count on the given entries after a
// failed push.
func (s *Store) IncrementAttempts(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args := idList(`UPDATE sync_queue SET attempt_count = attempt_count + 1 WHERE id IN`, ids)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("incrementing attempts: %w", err)
	}
	return nil
}

// ClearQueue removes every entry, synced or pending.
func (s *Store) ClearQueue(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sync_queue`); err != nil {
		return fmt.Errorf("clearing sync queue: %w", err)
	}
	return nil
}

func idList(prefix string, ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return prefix + " (" + strings.Join(placeholders, ",") + ")", args
}
