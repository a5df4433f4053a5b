package observability

import (
	"testing"

	gu "github.com/xraph/go-utils/metrics"
)

func TestNewMetricsInstruments(t *testing.T) {
	m := NewMetrics(gu.NewMetricsCollector("conduit"))

	if m.EventsPublishedTotal == nil {
		t.Fatal("EventsPublishedTotal should not be nil")
	}
	if m.DeliveriesTotal == nil {
		t.Fatal("DeliveriesTotal should not be nil")
	}
	if m.DeliveryLatency == nil {
		t.Fatal("DeliveryLatency should not be nil")
	}
	if m.DLQSize == nil {
		t.Fatal("DLQSize should not be nil")
	}
	if m.PendingEntries == nil {
		t.Fatal("PendingEntries should not be nil")
	}
	if m.BreakerTransitions == nil {
		t.Fatal("BreakerTransitions should not be nil")
	}
	if m.IdempotentReplays == nil {
		t.Fatal("IdempotentReplays should not be nil")
	}
}

func TestRecordDelivery(t *testing.T) {
	m := NewMetrics(gu.NewMetricsCollector("conduit"))

	m.RecordDelivery("delivered", 0.5)
	m.RecordDelivery("retried", 1.2)
	m.RecordDelivery("failed", 0.3)
}

func TestRecordBreakerTransition(t *testing.T) {
	m := NewMetrics(gu.NewMetricsCollector("conduit"))

	m.RecordBreakerTransition("webhook:billing", "closed", "open")
	m.RecordBreakerTransition("webhook:billing", "open", "half_open")
}
