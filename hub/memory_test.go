package hub_test

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/conduit/hub"
)

func TestMemoryPublishReachesGroupSubscribers(t *testing.T) {
	m := hub.NewMemory(8)
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := m.Subscribe(ctx, hub.GroupKey("t1"))
	other := m.Subscribe(ctx, hub.GroupKey("t2"))

	if err := m.Publish(ctx, hub.GroupKey("t1"), "fx.quote.created", []byte(`{"id":1}`)); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-sub:
		if msg.Event != "fx.quote.created" {
			t.Fatalf("event = %q", msg.Event)
		}
		if msg.Group != "tenant::t1" {
			t.Fatalf("group = %q", msg.Group)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive message")
	}

	select {
	case msg := <-other:
		t.Fatalf("tenant t2 received t1's message: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemorySlowSubscriberDoesNotBlockPublish(t *testing.T) {
	m := hub.NewMemory(1)
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = m.Subscribe(ctx, "g") // never read

	done := make(chan struct{})
	go func() {
		for range 100 {
			_ = m.Publish(ctx, "g", "e", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestMemoryUnsubscribeOnContextCancel(t *testing.T) {
	m := hub.NewMemory(8)
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub := m.Subscribe(ctx, "g")
	cancel()

	select {
	case _, ok := <-sub:
		if ok {
			t.Fatal("expected closed channel after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancel")
	}
}

func TestGroupKey(t *testing.T) {
	if got := hub.GroupKey("t1"); got != "tenant::t1" {
		t.Fatalf("GroupKey = %q", got)
	}
}
