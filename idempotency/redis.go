package idempotency

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "conduit:idem:"

// Redis is a Store implementation backed by Redis SET NX PX, giving the
// first-writer-wins guarantee across processes.
type Redis struct {
	rdb goredis.UniversalClient
}

// compile-time interface check.
var _ Store = (*Redis)(nil)

// NewRedis creates a Redis-backed idempotency store.
func NewRedis(rdb goredis.UniversalClient) *Redis {
	return &Redis{rdb: rdb}
}

// TryPut implements Store. Expiry is handled by Redis key TTLs.
func (r *Redis) TryPut(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	ok, err := r.rdb.SetNX(ctx, redisKeyPrefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency: redis setnx: %w", err)
	}
	return ok, nil
}
