package conduit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/conduit/breaker"
	"github.com/xraph/conduit/catalog"
	"github.com/xraph/conduit/delivery"
	"github.com/xraph/conduit/dlq"
	"github.com/xraph/conduit/endpoint"
	"github.com/xraph/conduit/hub"
	"github.com/xraph/conduit/id"
	"github.com/xraph/conduit/idempotency"
	"github.com/xraph/conduit/observability"
	"github.com/xraph/conduit/outbox"
	"github.com/xraph/conduit/store"
)

// Dispatcher is the fan-out stage behind Publish. The default implementation
// broadcasts to the hub and enqueues one outbox entry per matching endpoint.
// A no-op implementation is installed when dispatch is disabled.
type Dispatcher interface {
	Dispatch(ctx context.Context, eventType string, payload []byte, tenantID string) error
}

// Conduit is the main entry point. Create one with New, start it, publish
// events, and stop it on shutdown.
type Conduit struct {
	config Config
	logger *slog.Logger

	store    store.Store
	hub      hub.Hub
	registry *catalog.Registry
	idem     idempotency.Store
	breaker  *breaker.Breaker
	metrics  *observability.Metrics
	tracer   *observability.Tracer

	validator   *catalog.Validator
	endpointSvc *endpoint.Service
	dlqSvc      *dlq.Service
	worker      *delivery.Worker
	dispatcher  Dispatcher

	dispatchDisabled bool
	staticEndpoints  []endpoint.Config
}

// wireServices builds the service graph once the options are applied.
func (c *Conduit) wireServices() {
	if c.hub == nil {
		c.hub = hub.Nop{}
	}
	if c.breaker == nil {
		cfg := breaker.DefaultConfig()
		if c.metrics != nil {
			cfg.OnStateChange = func(name string, from, to breaker.State) {
				c.metrics.RecordBreakerTransition(name, string(from), string(to))
			}
		}
		c.breaker = breaker.New(cfg)
	}

	c.validator = catalog.NewValidator()
	c.endpointSvc = endpoint.NewService(c.store, c.logger)

	c.dlqSvc = dlq.NewService(c.store, c.store, c.logger)
	c.dlqSvc.MaxAttempts = c.config.MaxAttempts

	c.worker = delivery.NewWorker(c.store, c.dlqSvc, c.breaker, delivery.WorkerConfig{
		Concurrency:    c.config.Concurrency,
		PollInterval:   c.config.PollInterval,
		BatchSize:      c.config.BatchSize,
		RequestTimeout: c.config.RequestTimeout,
		InitialBackoff: c.config.InitialBackoff,
		Metrics:        c.metrics,
		Tracer:         c.tracer,
	}, c.logger)

	if c.dispatchDisabled {
		c.dispatcher = nopDispatcher{}
	} else {
		c.dispatcher = &fanoutDispatcher{c: c}
	}
}

// Start runs store migrations and begins the background delivery worker.
func (c *Conduit) Start(ctx context.Context) error {
	if err := c.store.Migrate(ctx); err != nil {
		return fmt.Errorf("conduit: migrate: %w", err)
	}
	if len(c.staticEndpoints) > 0 {
		if _, err := endpoint.LoadConfigs(ctx, c.endpointSvc, c.staticEndpoints); err != nil {
			return fmt.Errorf("conduit: load endpoints: %w", err)
		}
	}
	c.worker.Start(ctx)
	c.logger.InfoContext(ctx, "conduit started",
		"concurrency", c.config.Concurrency,
		"poll_interval", c.config.PollInterval,
		"batch_size", c.config.BatchSize)
	return nil
}

// Stop shuts down the delivery worker, waiting up to ShutdownTimeout for
// in-flight deliveries.
func (c *Conduit) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ShutdownTimeout)
	defer cancel()
	c.worker.Stop(ctx)
	c.logger.InfoContext(ctx, "conduit stopped")
	return nil
}

// Publish validates an event and fans it out: a best-effort broadcast to the
// real-time hub, then one durable outbox entry per matching endpoint. The two
// paths are independent; a hub failure never blocks webhook delivery.
//
// With a catalog configured the event type must be registered, not
// deprecated, and the payload must satisfy the type's schema if one is set.
func (c *Conduit) Publish(ctx context.Context, eventType string, payload []byte, tenantID string) error {
	return c.dispatcher.Dispatch(ctx, eventType, payload, tenantID)
}

// PublishIdempotent is Publish guarded by an idempotency token. The first
// call with a given (tenant, token) pair within the deduplication window
// publishes; later calls return ErrDuplicateIdempotencyKey without side
// effects.
func (c *Conduit) PublishIdempotent(ctx context.Context, eventType string, payload []byte, tenantID, token string) error {
	if c.idem == nil {
		return ErrNoIdempotencyStore
	}

	ok, err := c.idem.TryPut(ctx, idempotency.Key(tenantID, token), idempotency.DefaultTTL)
	if err != nil {
		return fmt.Errorf("conduit: idempotency check: %w", err)
	}
	if !ok {
		if c.metrics != nil {
			c.metrics.IdempotentReplays.Inc()
		}
		return fmt.Errorf("%w: %s", ErrDuplicateIdempotencyKey, token)
	}

	return c.Publish(ctx, eventType, payload, tenantID)
}

// Endpoints returns the endpoint management service.
func (c *Conduit) Endpoints() *endpoint.Service { return c.endpointSvc }

// DLQ returns the dead letter queue service.
func (c *Conduit) DLQ() *dlq.Service { return c.dlqSvc }

// Catalog returns the event type registry, or nil if none was configured.
func (c *Conduit) Catalog() *catalog.Registry { return c.registry }

// Hub returns the real-time hub.
func (c *Conduit) Hub() hub.Hub { return c.hub }

// Store returns the backing store.
func (c *Conduit) Store() store.Store { return c.store }

// nopDispatcher drops every event after validation is skipped entirely.
type nopDispatcher struct{}

func (nopDispatcher) Dispatch(context.Context, string, []byte, string) error { return nil }

// fanoutDispatcher is the default dispatch path.
type fanoutDispatcher struct {
	c *Conduit
}

func (d *fanoutDispatcher) Dispatch(ctx context.Context, eventType string, payload []byte, tenantID string) error {
	c := d.c

	if err := c.validate(eventType, payload); err != nil {
		return err
	}

	// Real-time broadcast is best effort. Log and move on.
	if err := c.hub.Publish(ctx, hub.GroupKey(tenantID), eventType, payload); err != nil {
		c.logger.WarnContext(ctx, "hub publish failed",
			"event_type", eventType, "tenant_id", tenantID, "error", err)
	}

	endpoints, err := c.store.Resolve(ctx, tenantID, eventType)
	if err != nil {
		return fmt.Errorf("conduit: resolve endpoints: %w", err)
	}

	if c.metrics != nil {
		c.metrics.EventsPublishedTotal.Inc()
	}

	if len(endpoints) == 0 {
		c.logger.DebugContext(ctx, "no matching endpoints",
			"event_type", eventType, "tenant_id", tenantID)
		return nil
	}

	now := time.Now().UTC()
	entries := make([]*outbox.Entry, 0, len(endpoints))
	for _, ep := range endpoints {
		entries = append(entries, &outbox.Entry{
			Entity:        NewEntity(),
			ID:            id.NewEntryID(),
			EventType:     eventType,
			Payload:       payload,
			TenantID:      tenantID,
			EndpointID:    ep.ID,
			Status:        outbox.StatusPending,
			MaxAttempts:   c.config.MaxAttempts,
			NextAttemptAt: now,
		})
	}

	if err := c.store.EnqueueBatch(ctx, entries); err != nil {
		return fmt.Errorf("conduit: enqueue: %w", err)
	}

	if c.metrics != nil {
		c.metrics.PendingEntries.Add(float64(len(entries)))
	}

	c.logger.DebugContext(ctx, "event published",
		"event_type", eventType, "tenant_id", tenantID, "endpoints", len(entries))
	return nil
}

// validate checks the event type and payload against the catalog, when one
// is configured.
func (c *Conduit) validate(eventType string, payload []byte) error {
	if c.registry == nil {
		return nil
	}

	et, err := c.registry.GetType(eventType)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrEventTypeNotFound, eventType)
	}
	if et.IsDeprecated {
		return fmt.Errorf("%w: %s", ErrEventTypeDeprecated, eventType)
	}

	if len(et.Definition.Schema) == 0 {
		return nil
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", ErrPayloadValidationFailed, err)
	}
	if err := c.validator.Validate(et.Definition.Schema, doc); err != nil {
		return fmt.Errorf("%w: %v", ErrPayloadValidationFailed, err)
	}
	return nil
}
