package conduit

import (
	"log/slog"
	"time"

	"github.com/xraph/conduit/breaker"
	"github.com/xraph/conduit/catalog"
	"github.com/xraph/conduit/endpoint"
	"github.com/xraph/conduit/hub"
	"github.com/xraph/conduit/idempotency"
	"github.com/xraph/conduit/observability"
	"github.com/xraph/conduit/store"
)

// Option configures a Conduit instance.
type Option func(*Conduit) error

// New creates a Conduit with the given options. A store is required.
func New(opts ...Option) (*Conduit, error) {
	c := &Conduit{
		config: DefaultConfig(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.store == nil {
		return nil, ErrNoStore
	}

	c.wireServices()
	return c, nil
}

// WithStore sets the backing store. Required.
func WithStore(s store.Store) Option {
	return func(c *Conduit) error {
		c.store = s
		return nil
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Conduit) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithHub sets the real-time hub that every published event is broadcast to.
// Defaults to a no-op hub.
func WithHub(h hub.Hub) Option {
	return func(c *Conduit) error {
		c.hub = h
		return nil
	}
}

// WithCatalog sets the event type registry. When set, Publish validates the
// event type and its payload schema before fan-out.
func WithCatalog(r *catalog.Registry) Option {
	return func(c *Conduit) error {
		c.registry = r
		return nil
	}
}

// WithBreaker sets a shared circuit breaker for delivery attempts. Defaults
// to a breaker with DefaultConfig.
func WithBreaker(cb *breaker.Breaker) Option {
	return func(c *Conduit) error {
		c.breaker = cb
		return nil
	}
}

// WithIdempotencyStore sets the store used for idempotency key bookkeeping.
// Optional; PublishIdempotent returns an error without one.
func WithIdempotencyStore(s idempotency.Store) Option {
	return func(c *Conduit) error {
		c.idem = s
		return nil
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Conduit) error {
		c.metrics = m
		return nil
	}
}

// WithTracer sets the delivery tracer.
func WithTracer(t *observability.Tracer) Option {
	return func(c *Conduit) error {
		c.tracer = t
		return nil
	}
}

// WithEndpoints registers statically configured endpoints at Start, before
// any delivery runs. A malformed entry fails Start.
func WithEndpoints(configs []endpoint.Config) Option {
	return func(c *Conduit) error {
		c.staticEndpoints = configs
		return nil
	}
}

// WithDispatchDisabled turns Publish into a validation-only no-op: nothing
// is broadcast and nothing is enqueued. Useful for dark launches.
func WithDispatchDisabled() Option {
	return func(c *Conduit) error {
		c.dispatchDisabled = true
		return nil
	}
}

// WithConcurrency sets the number of delivery workers.
func WithConcurrency(n int) Option {
	return func(c *Conduit) error {
		if n > 0 {
			c.config.Concurrency = n
		}
		return nil
	}
}

// WithPollInterval sets how often the worker polls for due entries.
func WithPollInterval(d time.Duration) Option {
	return func(c *Conduit) error {
		if d > 0 {
			c.config.PollInterval = d
		}
		return nil
	}
}

// WithBatchSize sets the maximum entries dequeued per poll cycle.
func WithBatchSize(n int) Option {
	return func(c *Conduit) error {
		if n > 0 {
			c.config.BatchSize = n
		}
		return nil
	}
}

// WithRequestTimeout sets the per-attempt HTTP timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Conduit) error {
		if d > 0 {
			c.config.RequestTimeout = d
		}
		return nil
	}
}

// WithMaxAttempts sets the default delivery attempt budget per entry.
func WithMaxAttempts(n int) Option {
	return func(c *Conduit) error {
		if n > 0 {
			c.config.MaxAttempts = n
		}
		return nil
	}
}

// WithInitialBackoff sets the base delay for exponential retry backoff.
func WithInitialBackoff(d time.Duration) Option {
	return func(c *Conduit) error {
		if d > 0 {
			c.config.InitialBackoff = d
		}
		return nil
	}
}

// WithShutdownTimeout sets the graceful shutdown deadline.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Conduit) error {
		if d > 0 {
			c.config.ShutdownTimeout = d
		}
		return nil
	}
}
