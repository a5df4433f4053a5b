package dlq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/conduit/endpoint"
	"github.com/xraph/conduit/id"
	"github.com/xraph/conduit/internal/entity"
	"github.com/xraph/conduit/outbox"
)

// defaultReplayMaxAttempts is the attempt budget given to replayed entries.
const defaultReplayMaxAttempts = 5

// Service manages the dead letter queue.
//
// Replay is explicit: a replayed entry becomes a brand new pending outbox
// entry with a fresh attempt budget, never a mutation of the dead one.
type Service struct {
	store   Store
	entries outbox.Store
	logger  *slog.Logger

	// MaxAttempts is the attempt budget for replayed entries.
	MaxAttempts int
}

// NewService creates a new DLQ service.
func NewService(store Store, entries outbox.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       store,
		entries:     entries,
		logger:      logger,
		MaxAttempts: defaultReplayMaxAttempts,
	}
}

// PushFailed creates a DLQ entry from a dead-lettered outbox entry.
// ep may be nil when the endpoint no longer exists; the entry is still
// preserved for inspection and replay. Implements delivery.DLQPusher.
func (svc *Service) PushFailed(ctx context.Context, e *outbox.Entry, ep *endpoint.Endpoint, lastError string, lastStatusCode int) error {
	url := ""
	if ep != nil {
		url = ep.URL
	}
	entry := &Entry{
		Entity:         entity.New(),
		ID:             id.NewDLQID(),
		EntryID:        e.ID,
		EndpointID:     e.EndpointID,
		EventType:      e.EventType,
		TenantID:       e.TenantID,
		URL:            url,
		Payload:        e.Payload,
		Error:          lastError,
		AttemptCount:   e.Attempt,
		LastStatusCode: lastStatusCode,
		FailedAt:       time.Now().UTC(),
	}

	return svc.store.Push(ctx, entry)
}

// List returns DLQ entries matching the given options.
func (svc *Service) List(ctx context.Context, opts ListOpts) ([]*Entry, error) {
	return svc.store.ListDLQ(ctx, opts)
}

// Get returns a DLQ entry by ID.
func (svc *Service) Get(ctx context.Context, dlqID id.ID) (*Entry, error) {
	return svc.store.GetDLQ(ctx, dlqID)
}

// Replay re-enqueues a single DLQ entry as a fresh pending outbox entry and
// returns the new entry.
func (svc *Service) Replay(ctx context.Context, dlqID id.ID) (*outbox.Entry, error) {
	entry, err := svc.store.GetDLQ(ctx, dlqID)
	if err != nil {
		return nil, err
	}

	e := svc.freshEntry(entry)
	if err := svc.entries.Enqueue(ctx, e); err != nil {
		return nil, fmt.Errorf("dlq: replay enqueue: %w", err)
	}

	now := time.Now().UTC()
	if err := svc.store.MarkReplayed(ctx, dlqID, now); err != nil {
		return nil, err
	}

	svc.logger.InfoContext(ctx, "dlq entry replayed",
		slog.String("dlq_id", dlqID.String()),
		slog.String("entry_id", e.ID.String()),
		slog.String("event_type", e.EventType))

	return e, nil
}

// ReplayBulk re-enqueues all not-yet-replayed DLQ entries whose failure time
// falls within the window. Returns the number of entries replayed.
func (svc *Service) ReplayBulk(ctx context.Context, from, to time.Time) (int64, error) {
	list, err := svc.store.ListDLQ(ctx, ListOpts{From: &from, To: &to})
	if err != nil {
		return 0, err
	}

	var replayed int64
	for _, entry := range list {
		if entry.ReplayedAt != nil {
			continue
		}
		if _, err := svc.Replay(ctx, entry.ID); err != nil {
			return replayed, err
		}
		replayed++
	}
	return replayed, nil
}

// Purge removes old DLQ entries.
func (svc *Service) Purge(ctx context.Context, before time.Time) (int64, error) {
	return svc.store.Purge(ctx, before)
}

// Count returns the total number of DLQ entries.
func (svc *Service) Count(ctx context.Context) (int64, error) {
	return svc.store.CountDLQ(ctx)
}

// freshEntry builds the replacement outbox entry for a replay: same event
// bytes and destination, attempt count reset to zero, due immediately.
func (svc *Service) freshEntry(entry *Entry) *outbox.Entry {
	return &outbox.Entry{
		Entity:        entity.New(),
		ID:            id.NewEntryID(),
		EventType:     entry.EventType,
		Payload:       entry.Payload,
		TenantID:      entry.TenantID,
		EndpointID:    entry.EndpointID,
		Status:        outbox.StatusPending,
		Attempt:       0,
		MaxAttempts:   svc.MaxAttempts,
		NextAttemptAt: time.Now().UTC(),
	}
}
