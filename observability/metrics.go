package observability

import (
	gu "github.com/xraph/go-utils/metrics"
)

// Metrics holds metric instruments for Conduit, backed by any go-utils
// MetricFactory (e.g. the forge-managed metrics system via fapp.Metrics()).
type Metrics struct {
	EventsPublishedTotal gu.Counter
	DeliveriesTotal      gu.Counter
	DeliveryLatency      gu.Histogram
	DLQSize              gu.Gauge
	PendingEntries       gu.Gauge
	BreakerTransitions   gu.Counter
	IdempotentReplays    gu.Counter
}

// NewMetrics creates Conduit metric instruments using the supplied factory.
// Pass fapp.Metrics() from a forge extension, or metrics.NewMetricsCollector()
// for standalone usage.
func NewMetrics(factory gu.MetricFactory) *Metrics {
	return &Metrics{
		EventsPublishedTotal: factory.Counter("conduit_events_published_total"),
		DeliveriesTotal:      factory.Counter("conduit_deliveries_total"),
		DeliveryLatency:      factory.Histogram("conduit_delivery_latency_seconds"),
		DLQSize:              factory.Gauge("conduit_dlq_size"),
		PendingEntries:       factory.Gauge("conduit_pending_entries"),
		BreakerTransitions:   factory.Counter("conduit_breaker_transitions_total"),
		IdempotentReplays:    factory.Counter("conduit_idempotent_replays_total"),
	}
}

// RecordDelivery records a delivery attempt with the given outcome and latency.
func (m *Metrics) RecordDelivery(outcome string, latencySeconds float64) {
	m.DeliveriesTotal.WithLabels(map[string]string{"outcome": outcome}).Inc()
	m.DeliveryLatency.Observe(latencySeconds)
}

// RecordBreakerTransition records a circuit state change.
func (m *Metrics) RecordBreakerTransition(circuit, from, to string) {
	m.BreakerTransitions.WithLabels(map[string]string{
		"circuit": circuit,
		"from":    from,
		"to":      to,
	}).Inc()
}
