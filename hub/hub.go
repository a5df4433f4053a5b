// Package hub defines the real-time publish interface Conduit fans out to.
//
// The hub is an external collaborator: Conduit only calls Publish and never
// implements group membership or transport. Adapters for in-process use
// (Memory) and Redis pub/sub are provided; anything with the same primitive
// can be plugged in.
package hub

import "context"

// Hub is the publish primitive of the real-time layer.
type Hub interface {
	// Publish sends an event to every subscriber of the given group.
	// Delivery is best-effort: implementations must not retry.
	Publish(ctx context.Context, groupKey, eventName string, payload []byte) error
}

// GroupKey returns the real-time group for a tenant.
func GroupKey(tenantID string) string {
	return "tenant::" + tenantID
}

// Nop is a Hub that discards everything. Used when no real-time layer is
// configured.
type Nop struct{}

// Publish implements Hub as a no-op.
func (Nop) Publish(context.Context, string, string, []byte) error { return nil }
