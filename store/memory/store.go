// Package memory provides an in-memory Store implementation for unit testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/conduit"
	"github.com/xraph/conduit/dlq"
	"github.com/xraph/conduit/endpoint"
	"github.com/xraph/conduit/id"
	"github.com/xraph/conduit/outbox"
	conduitstore "github.com/xraph/conduit/store"
)

// compile-time interface check.
var _ conduitstore.Store = (*Store)(nil)

// dequeueLease matches the claim window used by the durable backends: a
// claimed entry stays pending with its next_attempt_at pushed forward, so a
// worker that dies mid-delivery loses the claim when the lease expires.
const dequeueLease = time.Minute

// Store is an in-memory implementation of store.Store for testing.
type Store struct {
	mu sync.RWMutex

	endpoints  map[string]*endpoint.Endpoint // keyed by ID string
	entries    map[string]*outbox.Entry      // keyed by ID string
	dlqEntries map[string]*dlq.Entry         // keyed by ID string

	lease  time.Duration
	closed bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		endpoints:  make(map[string]*endpoint.Endpoint),
		entries:    make(map[string]*outbox.Entry),
		dlqEntries: make(map[string]*dlq.Entry),
		lease:      dequeueLease,
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Migrate is a no-op for the in-memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the in-memory store.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return conduit.ErrStoreClosed
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ──────────────────────────────────────────────────
// endpoint.Store
// ──────────────────────────────────────────────────

// CreateEndpoint persists a new endpoint.
func (s *Store) CreateEndpoint(_ context.Context, ep *endpoint.Endpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.endpoints[ep.ID.String()] = ep
	return nil
}

// GetEndpoint returns an endpoint by ID.
func (s *Store) GetEndpoint(_ context.Context, epID id.ID) (*endpoint.Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ep, ok := s.endpoints[epID.String()]
	if !ok {
		return nil, conduit.ErrEndpointNotFound
	}
	return ep, nil
}

// UpdateEndpoint modifies an existing endpoint.
func (s *Store) UpdateEndpoint(_ context.Context, ep *endpoint.Endpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.endpoints[ep.ID.String()]; !ok {
		return conduit.ErrEndpointNotFound
	}
	ep.UpdatedAt = time.Now().UTC()
	s.endpoints[ep.ID.String()] = ep
	return nil
}

// DeleteEndpoint removes an endpoint.
func (s *Store) DeleteEndpoint(_ context.Context, epID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.endpoints[epID.String()]; !ok {
		return conduit.ErrEndpointNotFound
	}
	delete(s.endpoints, epID.String())
	return nil
}

// ListEndpoints returns endpoints for a tenant, optionally filtered.
func (s *Store) ListEndpoints(_ context.Context, tenantID string, opts endpoint.ListOpts) ([]*endpoint.Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*endpoint.Endpoint, 0, len(s.endpoints))
	for _, ep := range s.endpoints {
		if ep.TenantID != tenantID {
			continue
		}
		if opts.Enabled != nil && ep.Enabled != *opts.Enabled {
			continue
		}
		result = append(result, ep)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

// Resolve finds all enabled endpoints matching an event type for a tenant,
// including global endpoints.
func (s *Store) Resolve(_ context.Context, tenantID, eventType string) ([]*endpoint.Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*endpoint.Endpoint
	for _, ep := range s.endpoints {
		if ep.Matches(tenantID, eventType) {
			result = append(result, ep)
		}
	}
	return result, nil
}

// SetEnabled enables or disables an endpoint.
func (s *Store) SetEnabled(_ context.Context, epID id.ID, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ep, ok := s.endpoints[epID.String()]
	if !ok {
		return conduit.ErrEndpointNotFound
	}
	ep.Enabled = enabled
	ep.UpdatedAt = time.Now().UTC()
	return nil
}

// ──────────────────────────────────────────────────
// outbox.Store
// ──────────────────────────────────────────────────

// Enqueue creates a pending entry.
func (s *Store) Enqueue(_ context.Context, e *outbox.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[e.ID.String()] = e
	return nil
}

// EnqueueBatch creates multiple entries atomically.
func (s *Store) EnqueueBatch(_ context.Context, es []*outbox.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range es {
		s.entries[e.ID.String()] = e
	}
	return nil
}

// copyEntry returns a shallow copy of the entry.
func copyEntry(e *outbox.Entry) *outbox.Entry {
	cp := *e
	return &cp
}

// Dequeue claims due entries by pushing their NextAttemptAt forward one
// lease window, mirroring the SKIP LOCKED backends. Claimed entries stay
// pending; the worker's UpdateEntry call records the true outcome and
// schedule, and an abandoned claim simply becomes due again after the lease.
// Returns copies so callers can mutate without holding a lock.
func (s *Store) Dequeue(_ context.Context, limit int) ([]*outbox.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	candidates := make([]*outbox.Entry, 0, len(s.entries))

	for _, e := range s.entries {
		if e.Status != outbox.StatusPending {
			continue
		}
		if e.NextAttemptAt.After(now) {
			continue
		}
		candidates = append(candidates, e)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].NextAttemptAt.Before(candidates[j].NextAttemptAt)
	})

	if limit > 0 && limit < len(candidates) {
		candidates = candidates[:limit]
	}

	claimedUntil := now.Add(s.lease)
	result := make([]*outbox.Entry, 0, len(candidates))
	for _, e := range candidates {
		e.NextAttemptAt = claimedUntil
		e.UpdatedAt = now.UTC()
		result = append(result, copyEntry(e))
	}

	return result, nil
}

// UpdateEntry modifies an entry. Writing a pending entry with an earlier
// NextAttemptAt releases a Dequeue claim before its lease expires.
func (s *Store) UpdateEntry(_ context.Context, e *outbox.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[e.ID.String()]; !ok {
		return conduit.ErrEntryNotFound
	}
	e.UpdatedAt = time.Now().UTC()
	s.entries[e.ID.String()] = e
	return nil
}

// GetEntry returns a copy of the entry by ID.
func (s *Store) GetEntry(_ context.Context, entryID id.ID) (*outbox.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[entryID.String()]
	if !ok {
		return nil, conduit.ErrEntryNotFound
	}
	return copyEntry(e), nil
}

// ListByEndpoint returns entry history for an endpoint.
func (s *Store) ListByEndpoint(_ context.Context, epID id.ID, opts outbox.ListOpts) ([]*outbox.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*outbox.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.EndpointID.String() != epID.String() {
			continue
		}
		if opts.Status != nil && e.Status != *opts.Status {
			continue
		}
		result = append(result, e)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

// CountPending returns the number of entries awaiting delivery.
func (s *Store) CountPending(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, e := range s.entries {
		if e.Status == outbox.StatusPending {
			count++
		}
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// dlq.Store
// ──────────────────────────────────────────────────

// Push moves a permanently failed entry into the DLQ.
func (s *Store) Push(_ context.Context, entry *dlq.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dlqEntries[entry.ID.String()] = entry
	return nil
}

// ListDLQ returns DLQ entries, optionally filtered.
func (s *Store) ListDLQ(_ context.Context, opts dlq.ListOpts) ([]*dlq.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*dlq.Entry, 0, len(s.dlqEntries))
	for _, e := range s.dlqEntries {
		if opts.TenantID != "" && e.TenantID != opts.TenantID {
			continue
		}
		if opts.EndpointID != nil && e.EndpointID.String() != opts.EndpointID.String() {
			continue
		}
		if opts.From != nil && e.FailedAt.Before(*opts.From) {
			continue
		}
		if opts.To != nil && e.FailedAt.After(*opts.To) {
			continue
		}
		result = append(result, e)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].FailedAt.After(result[j].FailedAt)
	})

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

// GetDLQ returns a DLQ entry by ID.
func (s *Store) GetDLQ(_ context.Context, dlqID id.ID) (*dlq.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.dlqEntries[dlqID.String()]
	if !ok {
		return nil, conduit.ErrDLQNotFound
	}
	return e, nil
}

// MarkReplayed stamps a DLQ entry with its replay time.
func (s *Store) MarkReplayed(_ context.Context, dlqID id.ID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.dlqEntries[dlqID.String()]
	if !ok {
		return conduit.ErrDLQNotFound
	}
	e.ReplayedAt = &at
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// Purge deletes DLQ entries older than a threshold.
func (s *Store) Purge(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for k, e := range s.dlqEntries {
		if e.CreatedAt.Before(before) {
			delete(s.dlqEntries, k)
			count++
		}
	}
	return count, nil
}

// CountDLQ returns the total number of DLQ entries.
func (s *Store) CountDLQ(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.dlqEntries)), nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func applyPagination[T any](items []*T, offset, limit int) []*T {
	if offset > 0 && offset < len(items) {
		items = items[offset:]
	} else if offset >= len(items) {
		return nil
	}

	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}
