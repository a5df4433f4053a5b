package endpoint

import (
	"github.com/xraph/conduit/catalog"
	"github.com/xraph/conduit/id"
	"github.com/xraph/conduit/internal/entity"
)

// Endpoint represents a webhook delivery target.
type Endpoint struct {
	entity.Entity

	// ID is the unique TypeID for this endpoint.
	ID id.ID `json:"id"`

	// Name is the stable human-assigned identifier, used to scope the
	// delivery circuit breaker ("webhook:<name>") and in logs.
	Name string `json:"name"`

	// TenantID identifies the tenant that owns this endpoint.
	// Empty means the endpoint is global: it receives every tenant's events.
	TenantID string `json:"tenant_id,omitempty"`

	// URL is the webhook delivery URL.
	URL string `json:"url"`

	// Description is a human-readable description of this endpoint.
	Description string `json:"description"`

	// Secret is the HMAC signing secret for this endpoint. Never serialized.
	Secret string `json:"-"`

	// EventTypes are glob patterns for event type subscriptions.
	EventTypes []string `json:"event_types"`

	// Headers are custom HTTP headers sent with each delivery.
	Headers map[string]string `json:"headers,omitempty"`

	// Enabled indicates whether the endpoint is active for deliveries.
	Enabled bool `json:"enabled"`

	// RateLimit is the maximum deliveries per second. 0 means unlimited.
	RateLimit int `json:"rate_limit"`

	// Metadata holds user-defined key-value pairs.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Matches reports whether this endpoint should receive an event of the given
// tenant and type: the endpoint must be enabled, tenant-matching (or global),
// and subscribed to a matching pattern.
func (ep *Endpoint) Matches(tenantID, eventType string) bool {
	if !ep.Enabled {
		return false
	}
	if ep.TenantID != "" && ep.TenantID != tenantID {
		return false
	}
	for _, pattern := range ep.EventTypes {
		if catalog.Match(pattern, eventType) {
			return true
		}
	}
	return false
}
