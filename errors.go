package conduit

import "errors"

// Sentinel errors returned by Conduit operations.
var (
	// ErrNoStore is returned when a Conduit is created without a store.
	ErrNoStore = errors.New("conduit: store is required")

	// ErrEndpointNotFound is returned when an endpoint cannot be found.
	ErrEndpointNotFound = errors.New("conduit: endpoint not found")

	// ErrEntryNotFound is returned when an outbox entry cannot be found.
	ErrEntryNotFound = errors.New("conduit: outbox entry not found")

	// ErrDLQNotFound is returned when a DLQ entry cannot be found.
	ErrDLQNotFound = errors.New("conduit: dlq entry not found")

	// ErrStoreClosed is returned when a store operation is attempted after the store is closed.
	ErrStoreClosed = errors.New("conduit: store is closed")

	// ErrEventTypeNotFound is returned when publishing an event type that is not registered.
	ErrEventTypeNotFound = errors.New("conduit: event type not found")

	// ErrEventTypeDeprecated is returned when publishing an event with a deprecated type.
	ErrEventTypeDeprecated = errors.New("conduit: event type is deprecated")

	// ErrPayloadValidationFailed is returned when a payload fails JSON Schema validation.
	ErrPayloadValidationFailed = errors.New("conduit: payload validation failed")

	// ErrDuplicateIdempotencyKey is returned when an idempotency key has
	// already been used within its deduplication window.
	ErrDuplicateIdempotencyKey = errors.New("conduit: duplicate idempotency key")

	// ErrNoIdempotencyStore is returned by PublishIdempotent when no
	// idempotency store was configured.
	ErrNoIdempotencyStore = errors.New("conduit: idempotency store is required")
)
