package dlq_test

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/conduit/dlq"
	"github.com/xraph/conduit/endpoint"
	"github.com/xraph/conduit/id"
	"github.com/xraph/conduit/internal/entity"
	"github.com/xraph/conduit/outbox"
	"github.com/xraph/conduit/store/memory"
)

func ctx() context.Context { return context.Background() }

func newService() (*dlq.Service, *memory.Store) {
	store := memory.New()
	svc := dlq.NewService(store, store, nil)
	return svc, store
}

func deadEntry() (*outbox.Entry, *endpoint.Endpoint) {
	e := &outbox.Entry{
		Entity:         entity.New(),
		ID:             id.NewEntryID(),
		EventType:      "invoice.created",
		Payload:        []byte(`{"amount":100}`),
		TenantID:       "tenant-1",
		EndpointID:     id.NewEndpointID(),
		Status:         outbox.StatusDeadLettered,
		Attempt:        5,
		MaxAttempts:    5,
		LastStatusCode: 500,
	}
	ep := &endpoint.Endpoint{
		Entity:   entity.New(),
		ID:       e.EndpointID,
		Name:     "billing",
		TenantID: "tenant-1",
		URL:      "https://example.com/webhook",
	}
	return e, ep
}

func TestPushFailed(t *testing.T) {
	svc, store := newService()

	e, ep := deadEntry()
	if err := svc.PushFailed(ctx(), e, ep, "server error", 500); err != nil {
		t.Fatal(err)
	}

	entries, err := store.ListDLQ(ctx(), dlq.ListOpts{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.EntryID != e.ID {
		t.Fatalf("entry ID mismatch: got %v, want %v", entry.EntryID, e.ID)
	}
	if entry.EndpointID != e.EndpointID {
		t.Fatal("endpoint ID mismatch")
	}
	if entry.EventType != "invoice.created" {
		t.Fatalf("event type: got %q", entry.EventType)
	}
	if entry.TenantID != "tenant-1" {
		t.Fatalf("tenant ID: got %q", entry.TenantID)
	}
	if entry.URL != "https://example.com/webhook" {
		t.Fatal("URL mismatch")
	}
	if string(entry.Payload) != `{"amount":100}` {
		t.Fatalf("payload mismatch: got %s", entry.Payload)
	}
	if entry.Error != "server error" {
		t.Fatalf("error: got %q", entry.Error)
	}
	if entry.AttemptCount != 5 {
		t.Fatalf("attempt count: got %d, want 5", entry.AttemptCount)
	}
	if entry.LastStatusCode != 500 {
		t.Fatalf("status code: got %d, want 500", entry.LastStatusCode)
	}
}

func TestPushMultipleAndList(t *testing.T) {
	svc, _ := newService()

	for range 3 {
		e, ep := deadEntry()
		if err := svc.PushFailed(ctx(), e, ep, "err", 500); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := svc.List(ctx(), dlq.ListOpts{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
}

func TestGetDLQEntry(t *testing.T) {
	svc, _ := newService()

	e, ep := deadEntry()
	if err := svc.PushFailed(ctx(), e, ep, "err", 500); err != nil {
		t.Fatal(err)
	}

	entries, _ := svc.List(ctx(), dlq.ListOpts{Limit: 1})
	if len(entries) == 0 {
		t.Fatal("expected at least 1 entry")
	}

	got, err := svc.Get(ctx(), entries[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != entries[0].ID {
		t.Fatal("ID mismatch on Get")
	}
}

func TestCount(t *testing.T) {
	svc, _ := newService()

	count, err := svc.Count(ctx())
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("expected 0, got %d", count)
	}

	for range 5 {
		e, ep := deadEntry()
		svc.PushFailed(ctx(), e, ep, "err", 500)
	}

	count, err = svc.Count(ctx())
	if err != nil {
		t.Fatal(err)
	}
	if count != 5 {
		t.Fatalf("expected 5, got %d", count)
	}
}

func TestReplayCreatesFreshEntry(t *testing.T) {
	svc, store := newService()

	e, ep := deadEntry()
	svc.PushFailed(ctx(), e, ep, "err", 500)

	entries, _ := svc.List(ctx(), dlq.ListOpts{Limit: 1})
	if len(entries) == 0 {
		t.Fatal("expected entry")
	}

	fresh, err := svc.Replay(ctx(), entries[0].ID)
	if err != nil {
		t.Fatal(err)
	}

	// The replayed entry is brand new: pending, attempt reset, same bytes.
	if fresh.ID == e.ID {
		t.Fatal("expected a new entry ID")
	}
	if fresh.Status != outbox.StatusPending {
		t.Fatalf("expected pending, got %s", fresh.Status)
	}
	if fresh.Attempt != 0 {
		t.Fatalf("expected attempt 0, got %d", fresh.Attempt)
	}
	if string(fresh.Payload) != string(e.Payload) {
		t.Fatal("payload mismatch")
	}
	if fresh.EndpointID != e.EndpointID {
		t.Fatal("endpoint mismatch")
	}

	// It is queued for delivery.
	got, err := store.GetEntry(ctx(), fresh.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != outbox.StatusPending {
		t.Fatalf("expected stored entry pending, got %s", got.Status)
	}

	// The DLQ entry is stamped.
	stamped, _ := store.GetDLQ(ctx(), entries[0].ID)
	if stamped.ReplayedAt == nil {
		t.Fatal("expected replayed_at to be set")
	}
}

func TestReplayBulkSkipsReplayed(t *testing.T) {
	svc, _ := newService()

	for range 3 {
		e, ep := deadEntry()
		svc.PushFailed(ctx(), e, ep, "err", 500)
	}

	entries, _ := svc.List(ctx(), dlq.ListOpts{Limit: 10})
	if _, err := svc.Replay(ctx(), entries[0].ID); err != nil {
		t.Fatal(err)
	}

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)
	replayed, err := svc.ReplayBulk(ctx(), from, to)
	if err != nil {
		t.Fatal(err)
	}
	if replayed != 2 {
		t.Fatalf("expected 2 replayed, got %d", replayed)
	}
}

func TestPurge(t *testing.T) {
	svc, _ := newService()

	for range 3 {
		e, ep := deadEntry()
		svc.PushFailed(ctx(), e, ep, "err", 500)
	}

	purged, err := svc.Purge(ctx(), time.Now().Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if purged != 3 {
		t.Fatalf("expected 3 purged, got %d", purged)
	}

	count, _ := svc.Count(ctx())
	if count != 0 {
		t.Fatalf("expected 0 after purge, got %d", count)
	}
}
