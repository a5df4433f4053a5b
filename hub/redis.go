package hub

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

const channelPrefix = "conduit:hub:"

// envelope is the JSON wire format published to Redis channels.
type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Redis is a Hub backed by Redis pub/sub, one channel per group.
type Redis struct {
	rdb goredis.UniversalClient
}

// compile-time interface check.
var _ Hub = (*Redis)(nil)

// NewRedis creates a Redis-backed hub.
func NewRedis(rdb goredis.UniversalClient) *Redis {
	return &Redis{rdb: rdb}
}

// Publish implements Hub via PUBLISH on the group's channel.
func (r *Redis) Publish(ctx context.Context, groupKey, eventName string, payload []byte) error {
	raw, err := json.Marshal(envelope{Event: eventName, Payload: payload})
	if err != nil {
		return fmt.Errorf("hub: marshal envelope: %w", err)
	}
	if err := r.rdb.Publish(ctx, channelPrefix+groupKey, raw).Err(); err != nil {
		return fmt.Errorf("hub: redis publish: %w", err)
	}
	return nil
}

// Subscribe returns a message channel for the given group, backed by a Redis
// subscription that is closed when ctx is cancelled.
func (r *Redis) Subscribe(ctx context.Context, groupKey string) (<-chan Message, error) {
	sub := r.rdb.Subscribe(ctx, channelPrefix+groupKey)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("hub: redis subscribe: %w", err)
	}

	out := make(chan Message, 64)
	go func() {
		defer close(out)
		defer sub.Close()

		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				var env envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					continue
				}
				select {
				case out <- Message{Group: groupKey, Event: env.Event, Payload: env.Payload}:
				default:
					// Slow consumer: drop rather than block the reader.
				}
			}
		}
	}()

	return out, nil
}
