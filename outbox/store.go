package outbox

import (
	"context"

	"github.com/xraph/conduit/id"
)

// Store defines the persistence contract for outbox entries.
type Store interface {
	// Enqueue creates a pending entry.
	Enqueue(ctx context.Context, e *Entry) error

	// EnqueueBatch creates multiple entries atomically (fan-out).
	EnqueueBatch(ctx context.Context, es []*Entry) error

	// Dequeue claims due entries: pending with next_attempt_at <= now.
	// Implementations must ensure no entry is handed to two concurrent
	// callers (e.g. SKIP LOCKED).
	Dequeue(ctx context.Context, limit int) ([]*Entry, error)

	// UpdateEntry modifies an entry (status, attempt count, next_attempt_at, etc.).
	UpdateEntry(ctx context.Context, e *Entry) error

	// GetEntry returns an entry by ID.
	GetEntry(ctx context.Context, entryID id.ID) (*Entry, error)

	// ListByEndpoint returns entry history for an endpoint.
	ListByEndpoint(ctx context.Context, epID id.ID, opts ListOpts) ([]*Entry, error)

	// CountPending returns the number of entries awaiting delivery.
	CountPending(ctx context.Context) (int64, error)
}
