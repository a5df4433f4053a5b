package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	conduit "github.com/xraph/conduit"
	"github.com/xraph/conduit/id"
	"github.com/xraph/conduit/internal/entity"
	"github.com/xraph/conduit/outbox"
)

// entryModel is the JSON representation stored in Redis.
type entryModel struct {
	ID             string          `json:"id"`
	EventType      string          `json:"event_type"`
	Payload        json.RawMessage `json:"payload"`
	TenantID       string          `json:"tenant_id"`
	EndpointID     string          `json:"endpoint_id"`
	Status         string          `json:"status"`
	Attempt        int             `json:"attempt"`
	MaxAttempts    int             `json:"max_attempts"`
	NextAttemptAt  time.Time       `json:"next_attempt_at"`
	LastError      string          `json:"last_error"`
	LastStatusCode int             `json:"last_status_code"`
	LastLatencyMs  int             `json:"last_latency_ms"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func toEntryModel(e *outbox.Entry) *entryModel {
	return &entryModel{
		ID:             e.ID.String(),
		EventType:      e.EventType,
		Payload:        e.Payload,
		TenantID:       e.TenantID,
		EndpointID:     e.EndpointID.String(),
		Status:         string(e.Status),
		Attempt:        e.Attempt,
		MaxAttempts:    e.MaxAttempts,
		NextAttemptAt:  e.NextAttemptAt,
		LastError:      e.LastError,
		LastStatusCode: e.LastStatusCode,
		LastLatencyMs:  e.LastLatencyMs,
		CompletedAt:    e.CompletedAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func fromEntryModel(m *entryModel) (*outbox.Entry, error) {
	entryID, err := id.ParseEntryID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse entry ID %q: %w", m.ID, err)
	}
	epID, err := id.ParseEndpointID(m.EndpointID)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint ID %q: %w", m.EndpointID, err)
	}
	return &outbox.Entry{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             entryID,
		EventType:      m.EventType,
		Payload:        m.Payload,
		TenantID:       m.TenantID,
		EndpointID:     epID,
		Status:         outbox.Status(m.Status),
		Attempt:        m.Attempt,
		MaxAttempts:    m.MaxAttempts,
		NextAttemptAt:  m.NextAttemptAt,
		LastError:      m.LastError,
		LastStatusCode: m.LastStatusCode,
		LastLatencyMs:  m.LastLatencyMs,
		CompletedAt:    m.CompletedAt,
	}, nil
}

// dequeueScript atomically claims due entries from the pending sorted set.
// KEYS[1] = conduit:z:out:pending
// ARGV[1] = current unix timestamp (score threshold)
// ARGV[2] = limit
var dequeueScript = goredis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
if #ids == 0 then return {} end
for i, id in ipairs(ids) do
    redis.call('ZREM', KEYS[1], id)
end
return ids
`)

func (s *Store) Enqueue(ctx context.Context, e *outbox.Entry) error {
	m := toEntryModel(e)
	key := entityKey(prefixEntry, m.ID)

	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("conduit/redis: enqueue entry: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.ZAdd(ctx, zEntryPend, goredis.Z{Score: scoreFromTime(m.NextAttemptAt), Member: m.ID})
	pipe.ZAdd(ctx, zEntryEP+m.EndpointID, goredis.Z{Score: scoreFromTime(m.CreatedAt), Member: m.ID})
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("conduit/redis: enqueue entry indexes: %w", err)
	}
	return nil
}

func (s *Store) EnqueueBatch(ctx context.Context, es []*outbox.Entry) error {
	if len(es) == 0 {
		return nil
	}

	pipe := s.rdb.Pipeline()
	for _, e := range es {
		m := toEntryModel(e)
		key := entityKey(prefixEntry, m.ID)

		raw, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("conduit/redis: enqueue batch marshal: %w", err)
		}
		pipe.Set(ctx, key, raw, 0)
		pipe.ZAdd(ctx, zEntryPend, goredis.Z{Score: scoreFromTime(m.NextAttemptAt), Member: m.ID})
		pipe.ZAdd(ctx, zEntryEP+m.EndpointID, goredis.Z{Score: scoreFromTime(m.CreatedAt), Member: m.ID})
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("conduit/redis: enqueue batch: %w", err)
	}
	return nil
}

// Dequeue atomically claims due entry IDs using the Lua script: removal from
// the pending zset is the claim, so no two callers get the same entry.
func (s *Store) Dequeue(ctx context.Context, limit int) ([]*outbox.Entry, error) {
	nowScore := fmt.Sprintf("%f", scoreFromTime(now()))
	result, err := dequeueScript.Run(ctx, s.rdb, []string{zEntryPend}, nowScore, limit).StringSlice()
	if err != nil {
		if isRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("conduit/redis: dequeue script: %w", err)
	}
	if len(result) == 0 {
		return nil, nil
	}

	entries := make([]*outbox.Entry, 0, len(result))
	for _, entryID := range result {
		var m entryModel
		if err := s.getEntity(ctx, entityKey(prefixEntry, entryID), &m); err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("conduit/redis: dequeue get: %w", err)
		}

		e, err := fromEntryModel(&m)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, nil
}

func (s *Store) UpdateEntry(ctx context.Context, e *outbox.Entry) error {
	m := toEntryModel(e)
	m.UpdatedAt = now()
	key := entityKey(prefixEntry, m.ID)

	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("conduit/redis: update entry: %w", err)
	}

	// A pending entry goes back into the dequeue set for its next attempt.
	if e.Status == outbox.StatusPending {
		s.rdb.ZAdd(ctx, zEntryPend, goredis.Z{Score: scoreFromTime(m.NextAttemptAt), Member: m.ID})
	}
	return nil
}

func (s *Store) GetEntry(ctx context.Context, entryID id.ID) (*outbox.Entry, error) {
	var m entryModel
	if err := s.getEntity(ctx, entityKey(prefixEntry, entryID.String()), &m); err != nil {
		if isNotFound(err) {
			return nil, conduit.ErrEntryNotFound
		}
		return nil, fmt.Errorf("conduit/redis: get entry: %w", err)
	}
	return fromEntryModel(&m)
}

func (s *Store) ListByEndpoint(ctx context.Context, epID id.ID, opts outbox.ListOpts) ([]*outbox.Entry, error) {
	ids, err := s.rdb.ZRange(ctx, zEntryEP+epID.String(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("conduit/redis: list by endpoint: %w", err)
	}

	result := make([]*outbox.Entry, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- { // reverse for DESC order
		var m entryModel
		if err := s.getEntity(ctx, entityKey(prefixEntry, ids[i]), &m); err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		if opts.Status != nil && outbox.Status(m.Status) != *opts.Status {
			continue
		}
		e, err := fromEntryModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}

	return applyPagination(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountPending(ctx context.Context) (int64, error) {
	count, err := s.rdb.ZCard(ctx, zEntryPend).Result()
	if err != nil {
		return 0, fmt.Errorf("conduit/redis: count pending: %w", err)
	}
	return count, nil
}
