package models

import "errors"

// Error kinds shared across the engine. Wrap with fmt.Errorf("...: %w")
// and classify with errors.Is.
var (
	// ErrValidation marks a malformed record (missing primary key,
	// invalid field). Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a reference to an entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState marks an operation that is invalid for the current
	// session state. A usage error, surfaced immediately.
	ErrInvalidState = errors.New("invalid session state")

	// ErrEmptySession marks an attempt to complete a session with no
	// exercises recorded.
	ErrEmptySession = errors.New("session has no exercises")

	// ErrSyncUnavailable marks a sync attempt skipped because the client
	// is offline, unauthenticated, or already syncing. Not a failure:
	// local data stays intact and the queue keeps its entries.
	ErrSyncUnavailable = errors.New("sync unavailable")
)
