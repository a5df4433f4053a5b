package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestTakeUnlimited(t *testing.T) {
	l := New()
	for i := 0; i < 50; i++ {
		if !l.Take("ep_unpaced", 0) {
			t.Fatal("perSecond 0 must never deny")
		}
	}
}

func TestTakeBurstThenDeny(t *testing.T) {
	l := New()

	// The bucket starts full at the per-second rate.
	for i := 0; i < 3; i++ {
		if !l.Take("ep_billing", 3) {
			t.Fatalf("take %d should be within burst", i+1)
		}
	}
	if l.Take("ep_billing", 3) {
		t.Fatal("take beyond burst should be denied")
	}
}

func TestTakeRefillsOverTime(t *testing.T) {
	l := New()

	for i := 0; i < 10; i++ {
		l.Take("ep_orders", 10)
	}
	if l.Take("ep_orders", 10) {
		t.Fatal("bucket should be empty")
	}

	// At 10/s a slot is back within ~100ms.
	time.Sleep(200 * time.Millisecond)
	if !l.Take("ep_orders", 10) {
		t.Fatal("bucket should have refilled a slot")
	}
}

func TestTakePicksUpNewRate(t *testing.T) {
	l := New()

	// Drain at the old rate, then raise the limit: the refill math must
	// use the new rate without a Forget in between.
	l.Take("ep_tuned", 1)
	if l.Take("ep_tuned", 1) {
		t.Fatal("bucket should be empty at rate 1")
	}

	time.Sleep(120 * time.Millisecond)
	if !l.Take("ep_tuned", 50) {
		t.Fatal("raised rate should refill fast enough for another slot")
	}
}

func TestWaitPacesDeliveries(t *testing.T) {
	l := New()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Drain the burst, then Wait must block for roughly one slot interval.
	for i := 0; i < 20; i++ {
		l.Take("ep_paced", 20)
	}

	start := time.Now()
	if err := l.Wait(ctx, "ep_paced", 20); err != nil {
		t.Fatalf("Wait should have acquired a slot, got %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatal("Wait returned without pacing")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l := New()

	l.Take("ep_stuck", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "ep_stuck", 1); err == nil {
		t.Fatal("Wait must give up when the context is done")
	}
}

func TestForget(t *testing.T) {
	l := New()

	l.Take("ep_gone", 1)
	if l.Take("ep_gone", 1) {
		t.Fatal("bucket should be empty")
	}

	l.Forget("ep_gone")

	if !l.Take("ep_gone", 1) {
		t.Fatal("a forgotten key should start with a fresh bucket")
	}
}

func TestTakeConcurrentStaysWithinBurst(t *testing.T) {
	l := New()

	const workers = 200
	const rate = 100

	var wg sync.WaitGroup
	var mu sync.Mutex
	taken := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Take("ep_shared", rate) {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// The burst is the per-second rate; a sliver of refill can slip in
	// while the goroutines run, but nowhere near double.
	if taken < rate-10 || taken > rate+10 {
		t.Fatalf("expected about %d slots taken, got %d", rate, taken)
	}
}
