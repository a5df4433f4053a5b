package idempotency_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/conduit/idempotency"
)

func TestTryPutFirstWriterWins(t *testing.T) {
	store := idempotency.NewMemory()
	ctx := context.Background()

	ok, err := store.TryPut(ctx, "t1::k1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first TryPut = (%v, %v), want (true, nil)", ok, err)
	}

	ok, err = store.TryPut(ctx, "t1::k1", time.Minute)
	if err != nil || ok {
		t.Fatalf("second TryPut = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestTryPutDistinctKeys(t *testing.T) {
	store := idempotency.NewMemory()
	ctx := context.Background()

	keys := []string{"t1::a", "t1::b", "t2::a", "::x"}
	for _, k := range keys {
		ok, err := store.TryPut(ctx, k, time.Minute)
		if err != nil || !ok {
			t.Fatalf("TryPut(%q) = (%v, %v), want (true, nil)", k, ok, err)
		}
	}
}

func TestTryPutAfterExpiry(t *testing.T) {
	store := idempotency.NewMemory()
	ctx := context.Background()

	if ok, _ := store.TryPut(ctx, "t1::k1", 20*time.Millisecond); !ok {
		t.Fatal("first TryPut lost")
	}
	if ok, _ := store.TryPut(ctx, "t1::k1", 20*time.Millisecond); ok {
		t.Fatal("duplicate accepted before expiry")
	}

	time.Sleep(30 * time.Millisecond)

	if ok, _ := store.TryPut(ctx, "t1::k1", time.Minute); !ok {
		t.Fatal("TryPut after expiry should win again")
	}
}

func TestTryPutConcurrentSingleWinner(t *testing.T) {
	store := idempotency.NewMemory()
	ctx := context.Background()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.TryPut(ctx, "t1::contended", time.Minute)
			if err != nil {
				t.Error(err)
				return
			}
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Fatalf("%d winners for one key, want exactly 1", got)
	}
}

func TestSweepReclaimsExpired(t *testing.T) {
	store := idempotency.NewMemory()
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		if ok, _ := store.TryPut(ctx, k, 10*time.Millisecond); !ok {
			t.Fatalf("TryPut(%q) lost", k)
		}
	}
	if ok, _ := store.TryPut(ctx, "keeper", time.Hour); !ok {
		t.Fatal("TryPut(keeper) lost")
	}

	time.Sleep(20 * time.Millisecond)

	if removed := store.Sweep(ctx); removed != 3 {
		t.Fatalf("Sweep removed %d, want 3", removed)
	}
	if got := store.Len(); got != 1 {
		t.Fatalf("Len() = %d after sweep, want 1", got)
	}
}

func TestKey(t *testing.T) {
	if got := idempotency.Key("t1", "abc"); got != "t1::abc" {
		t.Fatalf("Key() = %q, want %q", got, "t1::abc")
	}
}
