// Package ratelimit paces outbound webhook deliveries per endpoint.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter hands out delivery slots using one token bucket per key, created
// on first use. A bucket's per-second rate doubles as its burst capacity,
// so an idle endpoint can absorb a short fan-out spike before pacing
// kicks in.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
}

type tokenBucket struct {
	available float64
	perSecond float64
	refilled  time.Time
}

// New creates an empty limiter.
func New() *Limiter {
	return &Limiter{
		buckets: make(map[string]*tokenBucket),
	}
}

// Take consumes one delivery slot for the key if one is available.
// perSecond <= 0 disables pacing for the key entirely.
func (l *Limiter) Take(key string, perSecond int) bool {
	if perSecond <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok {
		// Fresh buckets start full.
		b = &tokenBucket{
			available: float64(perSecond),
			perSecond: float64(perSecond),
			refilled:  now,
		}
		l.buckets[key] = b
	} else {
		// Endpoint rate limits can be changed through the API; pick up the
		// new rate on the next Take rather than requiring a Forget.
		b.perSecond = float64(perSecond)
		b.available += now.Sub(b.refilled).Seconds() * b.perSecond
		if b.available > b.perSecond {
			b.available = b.perSecond
		}
		b.refilled = now
	}

	if b.available < 1 {
		return false
	}
	b.available--
	return true
}

// Wait blocks until a delivery slot is available or ctx is done.
// perSecond <= 0 returns immediately.
func (l *Limiter) Wait(ctx context.Context, key string, perSecond int) error {
	if perSecond <= 0 {
		return nil
	}

	interval := time.Second / time.Duration(perSecond)
	for {
		if l.Take(key, perSecond) {
			return nil
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Forget drops the bucket for a key, e.g. after its endpoint is deleted.
func (l *Limiter) Forget(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}
