package delivery_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/conduit/breaker"
	"github.com/xraph/conduit/delivery"
	"github.com/xraph/conduit/endpoint"
	"github.com/xraph/conduit/id"
	"github.com/xraph/conduit/internal/entity"
	"github.com/xraph/conduit/outbox"
	"github.com/xraph/conduit/store/memory"
)

// stubDLQ is a simple DLQ pusher that records pushed entries.
type stubDLQ struct {
	count atomic.Int32
}

func (s *stubDLQ) PushFailed(_ context.Context, _ *outbox.Entry, _ *endpoint.Endpoint, _ string, _ int) error {
	s.count.Add(1)
	return nil
}

func setupWorker(t *testing.T, handler http.Handler, dlq delivery.DLQPusher) (*memory.Store, *delivery.Worker, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := memory.New()
	cfg := delivery.WorkerConfig{
		Concurrency:    2,
		PollInterval:   20 * time.Millisecond,
		BatchSize:      10,
		RequestTimeout: 5 * time.Second,
		InitialBackoff: 10 * time.Millisecond,
	}

	// A roomy failure threshold keeps the breaker out of the way for tests
	// that exercise retry exhaustion.
	cb := breaker.New(breaker.Config{FailureThreshold: 100, SuccessThreshold: 1, OpenDuration: time.Second})
	worker := delivery.NewWorker(store, dlq, cb, cfg, nil)
	return store, worker, srv
}

func seedEntry(t *testing.T, store *memory.Store, url string) (*endpoint.Endpoint, *outbox.Entry) {
	t.Helper()
	ctx := context.Background()

	ep := &endpoint.Endpoint{
		Entity:     entity.New(),
		ID:         id.NewEndpointID(),
		Name:       "test-hook",
		TenantID:   "tenant-1",
		URL:        url,
		Secret:     "whsec_test_secret_1234567890abcdef1234567890abcdef",
		EventTypes: []string{"test.event"},
		Enabled:    true,
	}
	if err := store.CreateEndpoint(ctx, ep); err != nil {
		t.Fatal(err)
	}

	e := &outbox.Entry{
		Entity:        entity.New(),
		ID:            id.NewEntryID(),
		EventType:     "test.event",
		Payload:       []byte(`{"hello":"world"}`),
		TenantID:      "tenant-1",
		EndpointID:    ep.ID,
		Status:        outbox.StatusPending,
		Attempt:       0,
		MaxAttempts:   3,
		NextAttemptAt: time.Now().UTC(),
	}
	if err := store.Enqueue(ctx, e); err != nil {
		t.Fatal(err)
	}

	return ep, e
}

func waitForStatus(t *testing.T, store *memory.Store, entryID id.ID, want outbox.Status) *outbox.Entry {
	t.Helper()
	ctx := context.Background()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			got, _ := store.GetEntry(ctx, entryID)
			t.Fatalf("timeout waiting for status %s, current: %+v", want, got)
		default:
		}

		got, err := store.GetEntry(ctx, entryID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status == want {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWorkerDeliversSuccessfully(t *testing.T) {
	var delivered atomic.Int32

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		delivered.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	dlq := &stubDLQ{}
	store, worker, srv := setupWorker(t, handler, dlq)

	_, e := seedEntry(t, store, srv.URL)

	ctx := context.Background()
	worker.Start(ctx)
	got := waitForStatus(t, store, e.ID, outbox.StatusDelivered)
	worker.Stop(ctx)

	if delivered.Load() != 1 {
		t.Fatalf("expected 1 delivery, got %d", delivered.Load())
	}
	if got.Attempt != 1 {
		t.Fatalf("expected 1 attempt, got %d", got.Attempt)
	}
	if got.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}
	if dlq.count.Load() != 0 {
		t.Fatal("expected no DLQ pushes")
	}
}

func TestWorkerRetriesAndSucceeds(t *testing.T) {
	var attempts atomic.Int32

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	dlq := &stubDLQ{}
	store, worker, srv := setupWorker(t, handler, dlq)

	_, e := seedEntry(t, store, srv.URL)

	ctx := context.Background()
	worker.Start(ctx)
	got := waitForStatus(t, store, e.ID, outbox.StatusDelivered)
	worker.Stop(ctx)

	if attempts.Load() < 3 {
		t.Fatalf("expected at least 3 attempts, got %d", attempts.Load())
	}
	if got.Attempt != 3 {
		t.Fatalf("expected attempt 3, got %d", got.Attempt)
	}
	if dlq.count.Load() != 0 {
		t.Fatal("expected no DLQ pushes")
	}
}

func TestWorkerExhaustsRetriesAndDeadLetters(t *testing.T) {
	var attempts atomic.Int32

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	dlqPusher := &stubDLQ{}
	store, worker, srv := setupWorker(t, handler, dlqPusher)

	_, e := seedEntry(t, store, srv.URL)

	ctx := context.Background()
	worker.Start(ctx)
	got := waitForStatus(t, store, e.ID, outbox.StatusDeadLettered)
	worker.Stop(ctx)

	if got.Attempt != 3 {
		t.Fatalf("expected exactly max attempts (3), got %d", got.Attempt)
	}
	if dlqPusher.count.Load() != 1 {
		t.Fatalf("expected 1 DLQ push, got %d", dlqPusher.count.Load())
	}

	// No further attempts after dead-lettering.
	final := attempts.Load()
	time.Sleep(100 * time.Millisecond)
	if attempts.Load() != final {
		t.Fatalf("expected no attempts after dead-lettering, got %d more", attempts.Load()-final)
	}
}

func TestWorkerClientErrorDeadLettersImmediately(t *testing.T) {
	var attempts atomic.Int32

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	dlqPusher := &stubDLQ{}
	store, worker, srv := setupWorker(t, handler, dlqPusher)

	_, e := seedEntry(t, store, srv.URL)

	ctx := context.Background()
	worker.Start(ctx)
	got := waitForStatus(t, store, e.ID, outbox.StatusDeadLettered)
	worker.Stop(ctx)

	if got.Attempt != 1 {
		t.Fatalf("expected dead-letter on first attempt, got %d", got.Attempt)
	}
	if attempts.Load() != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts.Load())
	}
	if dlqPusher.count.Load() != 1 {
		t.Fatalf("expected 1 DLQ push, got %d", dlqPusher.count.Load())
	}
}

func TestWorker410DisablesEndpoint(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
	})

	dlqPusher := &stubDLQ{}
	store, worker, srv := setupWorker(t, handler, dlqPusher)

	ep, e := seedEntry(t, store, srv.URL)

	ctx := context.Background()
	worker.Start(ctx)
	waitForStatus(t, store, e.ID, outbox.StatusDeadLettered)
	worker.Stop(ctx)

	epGot, err := store.GetEndpoint(ctx, ep.ID)
	if err != nil {
		t.Fatal(err)
	}
	if epGot.Enabled {
		t.Fatal("expected endpoint to be disabled after 410")
	}

	if dlqPusher.count.Load() != 1 {
		t.Fatalf("expected 1 DLQ push for 410, got %d", dlqPusher.count.Load())
	}
}

func TestWorkerOpenCircuitSkipsSend(t *testing.T) {
	var attempts atomic.Int32

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := memory.New()
	cfg := delivery.WorkerConfig{
		Concurrency:    1,
		PollInterval:   20 * time.Millisecond,
		BatchSize:      10,
		RequestTimeout: 5 * time.Second,
		InitialBackoff: 10 * time.Millisecond,
	}

	// Opens after the first failure and stays open well past the test.
	cb := breaker.New(breaker.Config{FailureThreshold: 1, SuccessThreshold: 1, OpenDuration: time.Minute})
	worker := delivery.NewWorker(store, &stubDLQ{}, cb, cfg, nil)

	_, e := seedEntry(t, store, srv.URL)

	ctx := context.Background()
	worker.Start(ctx)
	got := waitForStatus(t, store, e.ID, outbox.StatusDeadLettered)
	worker.Stop(ctx)

	// Only the first attempt reached the endpoint; the rest were rejected
	// by the open circuit but still consumed the entry's attempt budget.
	if attempts.Load() != 1 {
		t.Fatalf("expected 1 HTTP attempt, got %d", attempts.Load())
	}
	if got.Attempt != 3 {
		t.Fatalf("expected attempt budget consumed, got %d", got.Attempt)
	}
	if got.LastError == "" {
		t.Fatal("expected last error to be recorded")
	}
}

func TestWorkerGracefulShutdown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	store, worker, srv := setupWorker(t, handler, nil)

	ctx := context.Background()

	for range 5 {
		seedEntry(t, store, srv.URL)
	}

	worker.Start(ctx)

	// Give the worker a moment to start processing.
	time.Sleep(200 * time.Millisecond)

	// Stop should wait for in-flight work.
	worker.Stop(ctx)

	pending, err := store.CountPending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("pending after shutdown: %d", pending)
}

func TestWorkerNilDLQ(t *testing.T) {
	// The worker tolerates a missing DLQ pusher.
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	store, worker, srv := setupWorker(t, handler, nil)

	_, e := seedEntry(t, store, srv.URL)

	ctx := context.Background()
	worker.Start(ctx)
	waitForStatus(t, store, e.ID, outbox.StatusDeadLettered)
	worker.Stop(ctx)
}

func TestWorkerMissingEndpointDeadLetters(t *testing.T) {
	// An entry whose endpoint was deleted while it sat in the outbox must
	// not stay claimed forever. Each failed lookup consumes an attempt and
	// the entry eventually dead-letters.
	handler := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no delivery should reach the wire")
	})

	dlqPusher := &stubDLQ{}
	store, worker, _ := setupWorker(t, handler, dlqPusher)

	ctx := context.Background()
	e := &outbox.Entry{
		Entity:        entity.New(),
		ID:            id.NewEntryID(),
		EventType:     "test.event",
		Payload:       []byte(`{}`),
		TenantID:      "tenant-1",
		EndpointID:    id.NewEndpointID(), // never created
		Status:        outbox.StatusPending,
		MaxAttempts:   2,
		NextAttemptAt: time.Now().UTC(),
	}
	if err := store.Enqueue(ctx, e); err != nil {
		t.Fatal(err)
	}

	worker.Start(ctx)
	got := waitForStatus(t, store, e.ID, outbox.StatusDeadLettered)
	worker.Stop(ctx)

	if got.Attempt != 2 {
		t.Fatalf("expected exactly max attempts (2), got %d", got.Attempt)
	}
	if got.LastError == "" {
		t.Fatal("expected last error to record the lookup failure")
	}
	if dlqPusher.count.Load() != 1 {
		t.Fatalf("expected 1 DLQ push, got %d", dlqPusher.count.Load())
	}
}
