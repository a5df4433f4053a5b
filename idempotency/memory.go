package idempotency

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

// Memory is an in-process Store implementation.
//
// Keys are spread across a fixed set of shards, each with its own lock, so
// unrelated keys never contend. Expired records are treated as absent on the
// next TryPut for the same key; Sweep reclaims the rest opportunistically.
type Memory struct {
	shards [shardCount]memoryShard
	now    func() time.Time
}

type memoryShard struct {
	mu      sync.Mutex
	records map[string]time.Time // key -> expiry
}

// compile-time interface check.
var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory idempotency store.
func NewMemory() *Memory {
	m := &Memory{now: time.Now}
	for i := range m.shards {
		m.shards[i].records = make(map[string]time.Time)
	}
	return m
}

// TryPut implements Store. First writer wins; a key whose record has expired
// counts as absent and is overwritten in place.
func (m *Memory) TryPut(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	sh := m.shard(key)
	now := m.now()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if expiry, ok := sh.records[key]; ok && now.Before(expiry) {
		return false, nil
	}
	sh.records[key] = now.Add(ttl)
	return true, nil
}

// Sweep removes all expired records. Intended to run on a low-priority
// schedule; correctness never depends on it.
func (m *Memory) Sweep(_ context.Context) int {
	now := m.now()
	removed := 0

	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.Lock()
		for key, expiry := range sh.records {
			if !now.Before(expiry) {
				delete(sh.records, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len returns the number of records currently held, including expired ones
// not yet swept.
func (m *Memory) Len() int {
	n := 0
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.Lock()
		n += len(sh.records)
		sh.mu.Unlock()
	}
	return n
}

func (m *Memory) shard(key string) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &m.shards[h.Sum32()%shardCount]
}
