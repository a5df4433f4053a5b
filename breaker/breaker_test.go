package breaker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/conduit/breaker"
)

var errRemote = errors.New("remote failure")

func failing(context.Context) error { return errRemote }
func succeeding(context.Context) error { return nil }

func newBreaker(failures, successes int, open time.Duration) *breaker.Breaker {
	return breaker.New(breaker.Config{
		FailureThreshold: failures,
		SuccessThreshold: successes,
		OpenDuration:     open,
	})
}

func TestOpensOnExactlyNthFailure(t *testing.T) {
	b := newBreaker(3, 1, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		if err := b.Execute(ctx, "svc", failing, nil); !errors.Is(err, errRemote) {
			t.Fatalf("failure %d: got %v, want operation error", i, err)
		}
		if got := b.State("svc"); got != breaker.StateClosed {
			t.Fatalf("after %d failures state = %s, want closed", i, got)
		}
	}

	// The 3rd consecutive failure trips the circuit.
	if err := b.Execute(ctx, "svc", failing, nil); !errors.Is(err, errRemote) {
		t.Fatalf("3rd failure: got %v", err)
	}
	if got := b.State("svc"); got != breaker.StateOpen {
		t.Fatalf("after threshold state = %s, want open", got)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := newBreaker(3, 1, time.Minute)
	ctx := context.Background()

	_ = b.Execute(ctx, "svc", failing, nil)
	_ = b.Execute(ctx, "svc", failing, nil)
	_ = b.Execute(ctx, "svc", succeeding, nil)
	_ = b.Execute(ctx, "svc", failing, nil)
	_ = b.Execute(ctx, "svc", failing, nil)

	// Never 3 consecutive failures, so still closed.
	if got := b.State("svc"); got != breaker.StateClosed {
		t.Fatalf("state = %s, want closed", got)
	}
}

func TestOpenRejectsWithoutCallingOperation(t *testing.T) {
	b := newBreaker(1, 1, time.Minute)
	ctx := context.Background()

	_ = b.Execute(ctx, "svc", failing, nil)

	called := false
	err := b.Execute(ctx, "svc", func(context.Context) error {
		called = true
		return nil
	}, nil)

	if !errors.Is(err, breaker.ErrOpen) {
		t.Fatalf("got %v, want ErrOpen", err)
	}
	if called {
		t.Fatal("operation was invoked while circuit open")
	}
}

func TestOpenInvokesFallback(t *testing.T) {
	b := newBreaker(1, 1, time.Minute)
	ctx := context.Background()

	_ = b.Execute(ctx, "svc", failing, nil)

	fallbackRan := false
	err := b.Execute(ctx, "svc", failing, func(context.Context) error {
		fallbackRan = true
		return nil
	})

	if err != nil {
		t.Fatalf("fallback path returned %v", err)
	}
	if !fallbackRan {
		t.Fatal("fallback was not invoked")
	}
}

func TestHalfOpenProbeAfterDeadline(t *testing.T) {
	b := newBreaker(1, 2, 20*time.Millisecond)
	ctx := context.Background()

	_ = b.Execute(ctx, "svc", failing, nil)
	if got := b.State("svc"); got != breaker.StateOpen {
		t.Fatalf("state = %s, want open", got)
	}

	time.Sleep(30 * time.Millisecond)

	// First call after the deadline goes through as a probe.
	if err := b.Execute(ctx, "svc", succeeding, nil); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if got := b.State("svc"); got != breaker.StateHalfOpen {
		t.Fatalf("after 1 probe success state = %s, want half_open", got)
	}

	// Second consecutive success closes it.
	if err := b.Execute(ctx, "svc", succeeding, nil); err != nil {
		t.Fatalf("probe 2: %v", err)
	}
	if got := b.State("svc"); got != breaker.StateClosed {
		t.Fatalf("after success threshold state = %s, want closed", got)
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	b := newBreaker(1, 2, 20*time.Millisecond)
	ctx := context.Background()

	_ = b.Execute(ctx, "svc", failing, nil)
	time.Sleep(30 * time.Millisecond)

	// Probe fails: straight back to open with a fresh deadline.
	if err := b.Execute(ctx, "svc", failing, nil); !errors.Is(err, errRemote) {
		t.Fatalf("probe: got %v", err)
	}

	snap := b.Snapshot("svc")
	if snap.State != breaker.StateOpen {
		t.Fatalf("state = %s, want open", snap.State)
	}
	if snap.NextRetryAt.IsZero() {
		t.Fatal("reopened circuit has no retry deadline")
	}
	if err := b.Execute(ctx, "svc", succeeding, nil); !errors.Is(err, breaker.ErrOpen) {
		t.Fatalf("call while reopened: got %v, want ErrOpen", err)
	}
}

func TestNextRetrySetOnlyWhenOpen(t *testing.T) {
	b := newBreaker(2, 1, time.Minute)
	ctx := context.Background()

	if snap := b.Snapshot("svc"); !snap.NextRetryAt.IsZero() {
		t.Fatal("closed circuit has a retry deadline")
	}

	_ = b.Execute(ctx, "svc", failing, nil)
	_ = b.Execute(ctx, "svc", failing, nil)

	if snap := b.Snapshot("svc"); snap.NextRetryAt.IsZero() {
		t.Fatal("open circuit missing retry deadline")
	}

	b.Reset("svc")
	if snap := b.Snapshot("svc"); !snap.NextRetryAt.IsZero() {
		t.Fatal("reset circuit still has a retry deadline")
	}
}

func TestManualReset(t *testing.T) {
	b := newBreaker(1, 1, time.Hour)
	ctx := context.Background()

	_ = b.Execute(ctx, "svc", failing, nil)
	if got := b.State("svc"); got != breaker.StateOpen {
		t.Fatalf("state = %s, want open", got)
	}

	b.Reset("svc")

	if err := b.Execute(ctx, "svc", succeeding, nil); err != nil {
		t.Fatalf("call after reset: %v", err)
	}
	if got := b.State("svc"); got != breaker.StateClosed {
		t.Fatalf("state = %s, want closed", got)
	}
}

func TestCircuitsAreIndependent(t *testing.T) {
	b := newBreaker(1, 1, time.Hour)
	ctx := context.Background()

	_ = b.Execute(ctx, "bad", failing, nil)

	if got := b.State("bad"); got != breaker.StateOpen {
		t.Fatalf("bad state = %s, want open", got)
	}
	if err := b.Execute(ctx, "good", succeeding, nil); err != nil {
		t.Fatalf("unrelated circuit affected: %v", err)
	}
	if got := b.State("good"); got != breaker.StateClosed {
		t.Fatalf("good state = %s, want closed", got)
	}
}

func TestOnStateChange(t *testing.T) {
	var mu sync.Mutex
	var transitions []string

	b := breaker.New(breaker.Config{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		OpenDuration:     10 * time.Millisecond,
		OnStateChange: func(name string, from, to breaker.State) {
			mu.Lock()
			transitions = append(transitions, name+":"+string(from)+"->"+string(to))
			mu.Unlock()
		},
	})
	ctx := context.Background()

	_ = b.Execute(ctx, "svc", failing, nil)
	time.Sleep(20 * time.Millisecond)
	_ = b.Execute(ctx, "svc", succeeding, nil)

	mu.Lock()
	defer mu.Unlock()
	want := []string{
		"svc:closed->open",
		"svc:open->half_open",
		"svc:half_open->closed",
	}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestConcurrentFailuresOpenOnce(t *testing.T) {
	opened := 0
	var mu sync.Mutex

	b := breaker.New(breaker.Config{
		FailureThreshold: 50,
		SuccessThreshold: 1,
		OpenDuration:     time.Hour,
		OnStateChange: func(_ string, _, to breaker.State) {
			if to == breaker.StateOpen {
				mu.Lock()
				opened++
				mu.Unlock()
			}
		},
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Execute(ctx, "svc", failing, nil)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if opened != 1 {
		t.Fatalf("circuit opened %d times, want exactly 1", opened)
	}
}
