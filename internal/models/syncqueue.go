package models

import (
	"encoding/json"
	"time"
)

// SyncEntityType identifies which kind of record a queue entry carries.
type SyncEntityType string

const (
	SyncEntityWorkout SyncEntityType = "workout"
	SyncEntitySet     SyncEntityType = "exercise_set"
	SyncEntityProfile SyncEntityType = "profile"
)

// SyncAction is the mutation a queue entry replays against the server.
type SyncAction string

const (
	SyncActionCreate SyncAction = "create"
	SyncActionUpdate SyncAction = "update"
	SyncActionDelete SyncAction = "delete"
)

// SyncStatus tracks whether the server has acknowledged an entry.
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSynced  SyncStatus = "synced"
)

// SyncQueueEntry is one pending outbound mutation. Entries transition
// pending→synced on server acknowledgment and are kept afterwards for
// audit until the queue is explicitly cleared.
type SyncQueueEntry struct {
	ID           int64           `json:"id"`
	EntityType   SyncEntityType  `json:"entity_type"`
	EntityID     string          `json:"entity_id"`
	Action       SyncAction      `json:"action"`
	Payload      json.RawMessage `json:"payload"`
	Status       SyncStatus      `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	AttemptCount int             `json:"attempt_count"`
}
