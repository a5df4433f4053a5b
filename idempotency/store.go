// Package idempotency deduplicates mutating requests for a bounded window.
//
// The store exposes a single primitive: TryPut. It atomically records a key
// the first time it is seen and reports false for every subsequent attempt
// until the record expires. Callers use the boolean to decide between
// "proceed" and "replay the prior outcome". There is no removal API, and
// expired records are simply treated as absent.
package idempotency

import (
	"context"
	"time"
)

// DefaultTTL is the default deduplication window for client requests.
const DefaultTTL = 24 * time.Hour

// Store is the idempotency deduplication contract.
type Store interface {
	// TryPut atomically records key with the given lifetime. It returns true
	// and commits the record iff no live record exists for key; otherwise it
	// returns false without mutating state. Concurrent callers for the same
	// key observe exactly one winner.
	TryPut(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Key derives the stored key from the tenant and the caller-supplied token.
func Key(tenantID, token string) string {
	return tenantID + "::" + token
}
