package outbox

import (
	"time"

	"github.com/xraph/conduit/id"
	"github.com/xraph/conduit/internal/entity"
)

// Status represents the current status of an outbox entry.
type Status string

const (
	// StatusPending indicates the entry is awaiting delivery.
	StatusPending Status = "pending"

	// StatusDelivered indicates the entry was successfully delivered.
	StatusDelivered Status = "delivered"

	// StatusDeadLettered indicates the entry exhausted its attempts and was
	// moved to the dead-letter queue.
	StatusDeadLettered Status = "dead_lettered"
)

// Entry is one queued webhook delivery: a single event payload bound for a
// single endpoint. Fan-out to N endpoints enqueues N entries.
type Entry struct {
	entity.Entity

	// ID is the unique TypeID for this entry.
	ID id.ID `json:"id"`

	// EventType names the event being delivered.
	EventType string `json:"event_type"`

	// Payload is the exact event body. Delivery signs and sends these bytes
	// unmodified.
	Payload []byte `json:"payload"`

	// TenantID identifies the tenant the event belongs to.
	TenantID string `json:"tenant_id"`

	// EndpointID references the target endpoint.
	EndpointID id.ID `json:"endpoint_id"`

	// Status is the current entry status.
	Status Status `json:"status"`

	// Attempt is the number of delivery attempts made so far. A fresh entry
	// starts at 0.
	Attempt int `json:"attempt"`

	// MaxAttempts is the total attempts allowed before dead-lettering.
	MaxAttempts int `json:"max_attempts"`

	// NextAttemptAt is when the entry next becomes due.
	NextAttemptAt time.Time `json:"next_attempt_at"`

	// LastError is the error message from the most recent failed attempt.
	LastError string `json:"last_error,omitempty"`

	// LastStatusCode is the HTTP status code from the most recent attempt.
	LastStatusCode int `json:"last_status_code,omitempty"`

	// LastLatencyMs is the latency in milliseconds of the most recent attempt.
	LastLatencyMs int `json:"last_latency_ms,omitempty"`

	// CompletedAt is when the entry reached a terminal status.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ListOpts configures filtering and pagination for entry listing.
type ListOpts struct {
	Offset int
	Limit  int
	Status *Status
}
