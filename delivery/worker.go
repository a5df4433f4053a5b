package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/conduit/breaker"
	"github.com/xraph/conduit/endpoint"
	"github.com/xraph/conduit/id"
	"github.com/xraph/conduit/observability"
	"github.com/xraph/conduit/outbox"
	"github.com/xraph/conduit/ratelimit"
)

// WorkerStore is the interface the worker needs for delivery operations.
type WorkerStore interface {
	Dequeue(ctx context.Context, limit int) ([]*outbox.Entry, error)
	UpdateEntry(ctx context.Context, e *outbox.Entry) error
	GetEndpoint(ctx context.Context, epID id.ID) (*endpoint.Endpoint, error)
	SetEnabled(ctx context.Context, epID id.ID, enabled bool) error
}

// DLQPusher pushes permanently failed entries to the dead letter queue.
type DLQPusher interface {
	PushFailed(ctx context.Context, e *outbox.Entry, ep *endpoint.Endpoint, lastError string, lastStatusCode int) error
}

// WorkerConfig holds worker configuration.
type WorkerConfig struct {
	Concurrency    int
	PollInterval   time.Duration
	BatchSize      int
	RequestTimeout time.Duration
	InitialBackoff time.Duration
	Metrics        *observability.Metrics
	Tracer         *observability.Tracer
}

// Worker is the background delivery loop: it polls the outbox for due
// entries and dispatches them to a bounded pool of goroutines. Each attempt
// runs through the per-endpoint circuit breaker and rate limiter.
type Worker struct {
	store   WorkerStore
	sender  *Sender
	retrier *Retrier
	dlq     DLQPusher
	breaker *breaker.Breaker
	limiter *ratelimit.Limiter
	config  WorkerConfig
	logger  *slog.Logger
	now     func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker creates a delivery worker.
func NewWorker(store WorkerStore, dlq DLQPusher, cb *breaker.Breaker, cfg WorkerConfig, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if cb == nil {
		cb = breaker.New(breaker.DefaultConfig())
	}
	return &Worker{
		store:   store,
		sender:  NewSender(cfg.RequestTimeout),
		retrier: NewRetrier(cfg.InitialBackoff),
		dlq:     dlq,
		breaker: cb,
		limiter: ratelimit.New(),
		config:  cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Start begins the delivery poll loop.
func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pollLoop(ctx)
	}()
}

// Stop cancels the poll loop and waits for in-flight attempts to complete.
func (w *Worker) Stop(_ context.Context) {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// pollLoop periodically dequeues due entries and dispatches them to workers.
func (w *Worker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.config.Concurrency)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			batch, err := w.store.Dequeue(ctx, w.config.BatchSize)
			if err != nil {
				w.logger.ErrorContext(ctx, "dequeue failed", "error", err)
				continue
			}

			for _, e := range batch {
				select {
				case <-ctx.Done():
					return
				case sem <- struct{}{}:
				}

				w.wg.Add(1)
				go func(entry *outbox.Entry) {
					defer w.wg.Done()
					defer func() { <-sem }()
					w.process(ctx, entry)
				}(e)
			}
		}
	}
}

// process handles a single entry: fetch endpoint, send, decide, update.
func (w *Worker) process(ctx context.Context, e *outbox.Entry) {
	var span trace.Span
	if w.config.Tracer != nil {
		ctx, span = w.config.Tracer.StartDeliverySpan(ctx, e.ID.String(), e.EventType, e.EndpointID.String())
	}

	ep, err := w.store.GetEndpoint(ctx, e.EndpointID)
	if err != nil {
		w.logger.ErrorContext(ctx, "get endpoint failed",
			"entry_id", e.ID, "endpoint_id", e.EndpointID, "error", err)
		w.abortAttempt(ctx, e, "endpoint lookup failed: "+err.Error())
		if span != nil {
			w.config.Tracer.EndDeliverySpan(span, 0, 0, err.Error())
		}
		return
	}

	// Respect the endpoint's delivery rate, if any. Wait only aborts on
	// context cancellation, i.e. shutdown: make the entry due again right
	// away instead of letting the dequeue lease run out.
	if err := w.limiter.Wait(ctx, ep.ID.String(), ep.RateLimit); err != nil {
		e.NextAttemptAt = w.now().UTC()
		if updateErr := w.store.UpdateEntry(ctx, e); updateErr != nil {
			w.logger.DebugContext(ctx, "release claim failed",
				"entry_id", e.ID, "error", updateErr)
		}
		if span != nil {
			w.config.Tracer.EndDeliverySpan(span, 0, 0, err.Error())
		}
		return
	}

	e.Attempt++
	result := w.attempt(ctx, ep, e)

	// Record result on entry.
	e.LastError = result.Error
	e.LastStatusCode = result.StatusCode
	e.LastLatencyMs = result.LatencyMs

	latencySeconds := float64(result.LatencyMs) / 1000.0

	decision := w.retrier.Decide(result, e)

	switch decision {
	case Delivered:
		now := w.now().UTC()
		e.Status = outbox.StatusDelivered
		e.CompletedAt = &now
		if w.config.Metrics != nil {
			w.config.Metrics.RecordDelivery("delivered", latencySeconds)
			w.config.Metrics.PendingEntries.Dec()
		}
		w.logger.DebugContext(ctx, "delivered",
			"entry_id", e.ID, "endpoint", ep.Name, "attempt", e.Attempt,
			"status", result.StatusCode, "latency_ms", result.LatencyMs)

	case Retry:
		e.Status = outbox.StatusPending
		e.NextAttemptAt = w.retrier.ComputeNextAttempt(e.Attempt)
		if w.config.Metrics != nil {
			w.config.Metrics.RecordDelivery("retried", latencySeconds)
		}
		w.logger.DebugContext(ctx, "retry scheduled",
			"entry_id", e.ID, "endpoint", ep.Name, "attempt", e.Attempt,
			"error", result.Error, "next_at", e.NextAttemptAt)

	case DLQ:
		w.deadLetter(ctx, e, ep, result, latencySeconds)
		w.logger.WarnContext(ctx, "entry dead lettered",
			"entry_id", e.ID, "endpoint", ep.Name, "attempt", e.Attempt,
			"status", result.StatusCode, "error", result.Error)

	case DisableEndpoint:
		if disableErr := w.store.SetEnabled(ctx, e.EndpointID, false); disableErr != nil {
			w.logger.ErrorContext(ctx, "disable endpoint failed",
				"endpoint_id", e.EndpointID, "error", disableErr)
		}
		w.deadLetter(ctx, e, ep, result, latencySeconds)
		w.logger.WarnContext(ctx, "endpoint disabled (410 Gone)",
			"endpoint_id", e.EndpointID, "endpoint", ep.Name, "entry_id", e.ID)
	}

	if span != nil {
		w.config.Tracer.EndDeliverySpan(span, e.LastStatusCode, e.LastLatencyMs, e.LastError)
	}

	if updateErr := w.store.UpdateEntry(ctx, e); updateErr != nil {
		w.logger.ErrorContext(ctx, "update entry failed",
			"entry_id", e.ID, "error", updateErr)
	}
}

// abortAttempt records an attempt that never reached the wire, rescheduling
// the entry with backoff so it is retried instead of waiting out its dequeue
// lease. An entry whose endpoint stays unresolvable exhausts its budget and
// dead-letters like any other failure.
func (w *Worker) abortAttempt(ctx context.Context, e *outbox.Entry, reason string) {
	e.Attempt++
	e.LastError = reason
	if e.Attempt >= e.MaxAttempts {
		now := w.now().UTC()
		e.Status = outbox.StatusDeadLettered
		e.CompletedAt = &now
		if w.dlq != nil {
			if dlqErr := w.dlq.PushFailed(ctx, e, nil, reason, 0); dlqErr != nil {
				w.logger.ErrorContext(ctx, "push to DLQ failed",
					"entry_id", e.ID, "error", dlqErr)
			}
		}
		w.logger.WarnContext(ctx, "entry dead lettered",
			"entry_id", e.ID, "attempt", e.Attempt, "error", reason)
	} else {
		e.NextAttemptAt = w.retrier.ComputeNextAttempt(e.Attempt)
	}

	if err := w.store.UpdateEntry(ctx, e); err != nil {
		w.logger.ErrorContext(ctx, "update entry failed",
			"entry_id", e.ID, "error", err)
	}
}

// attempt runs one HTTP delivery through the endpoint's circuit breaker.
// When the circuit is open the attempt is not sent at all and counts as a
// retryable failure.
func (w *Worker) attempt(ctx context.Context, ep *endpoint.Endpoint, e *outbox.Entry) Result {
	var result Result

	err := w.breaker.Execute(ctx, "webhook:"+ep.Name, func(ctx context.Context) error {
		result = w.sender.Send(ctx, ep, e)
		if result.StatusCode >= 200 && result.StatusCode < 300 {
			return nil
		}
		if result.Error != "" {
			return errors.New(result.Error)
		}
		return fmt.Errorf("status %d", result.StatusCode)
	}, nil)

	if errors.Is(err, breaker.ErrOpen) {
		return Result{Error: "circuit open: " + ep.Name}
	}
	return result
}

// deadLetter marks an entry terminally failed and pushes it to the DLQ.
func (w *Worker) deadLetter(ctx context.Context, e *outbox.Entry, ep *endpoint.Endpoint, result Result, latencySeconds float64) {
	now := w.now().UTC()
	e.Status = outbox.StatusDeadLettered
	e.CompletedAt = &now
	if w.dlq != nil {
		if dlqErr := w.dlq.PushFailed(ctx, e, ep, result.Error, result.StatusCode); dlqErr != nil {
			w.logger.ErrorContext(ctx, "push to DLQ failed",
				"entry_id", e.ID, "error", dlqErr)
		}
	}
	if w.config.Metrics != nil {
		w.config.Metrics.RecordDelivery("failed", latencySeconds)
		w.config.Metrics.PendingEntries.Dec()
		w.config.Metrics.DLQSize.Inc()
	}
}
