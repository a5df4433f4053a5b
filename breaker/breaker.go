// Package breaker provides a per-resource circuit breaker for outbound calls.
//
// Each named resource gets its own failure-threshold state machine, created
// lazily on first use and kept for the life of the process. State transitions
// for a given name are serialized on that circuit's own lock, so concurrent
// callers of unrelated resources never contend.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Execute when the circuit is open and no fallback is
// supplied. Callers must treat it as retryable-later, not as evidence about
// the health of the guarded resource on this particular call.
var ErrOpen = errors.New("breaker: circuit open")

// State is the current state of a circuit.
type State string

const (
	// StateClosed passes calls through, counting consecutive failures.
	StateClosed State = "closed"

	// StateOpen rejects calls immediately until the retry deadline elapses.
	StateOpen State = "open"

	// StateHalfOpen lets trial probes through, counting consecutive successes.
	StateHalfOpen State = "half_open"
)

// Config holds the thresholds shared by all circuits of a Breaker.
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens a
	// closed circuit.
	FailureThreshold int

	// SuccessThreshold is the number of consecutive half-open successes that
	// closes the circuit again.
	SuccessThreshold int

	// OpenDuration is how long an open circuit rejects calls before allowing
	// a half-open probe.
	OpenDuration time.Duration

	// OnStateChange, when set, is invoked after every state transition.
	// Called outside the circuit lock.
	OnStateChange func(name string, from, to State)
}

// DefaultConfig returns the default breaker thresholds.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenDuration:     30 * time.Second,
	}
}

// Snapshot is a point-in-time copy of a circuit's counters.
type Snapshot struct {
	Name         string
	State        State
	FailureCount int
	SuccessCount int
	NextRetryAt  time.Time // zero unless State is open
}

// Breaker manages one circuit per resource name.
type Breaker struct {
	config Config

	mu       sync.RWMutex
	circuits map[string]*circuit

	now func() time.Time
}

// circuit is the state machine for a single named resource.
// All fields are guarded by mu; nextRetryAt is set iff state is open.
type circuit struct {
	mu           sync.Mutex
	state        State
	failureCount int
	successCount int
	nextRetryAt  time.Time
}

// New creates a Breaker with the given config. Zero or negative thresholds
// fall back to the defaults.
func New(cfg Config) *Breaker {
	def := DefaultConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenDuration <= 0 {
		cfg.OpenDuration = def.OpenDuration
	}
	return &Breaker{
		config:   cfg,
		circuits: make(map[string]*circuit),
		now:      time.Now,
	}
}

// Operation is the guarded call. A nil error counts as success.
type Operation func(ctx context.Context) error

// Fallback is invoked instead of the operation when the circuit is open.
type Fallback func(ctx context.Context) error

// Execute runs op through the circuit named name.
//
// If the circuit is open and the retry deadline has not elapsed, op is never
// invoked: the fallback runs if non-nil, otherwise ErrOpen is returned. Once
// the deadline elapses the circuit moves to half-open and the call proceeds
// as a trial probe.
func (b *Breaker) Execute(ctx context.Context, name string, op Operation, fallback Fallback) error {
	c := b.circuit(name)

	if !b.allow(name, c) {
		if fallback != nil {
			return fallback(ctx)
		}
		return ErrOpen
	}

	err := op(ctx)
	if err != nil {
		b.recordFailure(name, c)
		return err
	}

	b.recordSuccess(name, c)
	return nil
}

// State returns the current state of the named circuit without creating it.
// Unknown names report StateClosed, matching a circuit that was never used.
func (b *Breaker) State(name string) State {
	b.mu.RLock()
	c, ok := b.circuits[name]
	b.mu.RUnlock()
	if !ok {
		return StateClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the named circuit's counters.
func (b *Breaker) Snapshot(name string) Snapshot {
	b.mu.RLock()
	c, ok := b.circuits[name]
	b.mu.RUnlock()
	if !ok {
		return Snapshot{Name: name, State: StateClosed}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Name:         name,
		State:        c.state,
		FailureCount: c.failureCount,
		SuccessCount: c.successCount,
		NextRetryAt:  c.nextRetryAt,
	}
}

// Reset forces the named circuit back to closed with cleared counters.
// Intended for operational recovery after a known-fixed endpoint.
func (b *Breaker) Reset(name string) {
	b.mu.RLock()
	c, ok := b.circuits[name]
	b.mu.RUnlock()
	if !ok {
		return
	}

	c.mu.Lock()
	from := c.state
	c.state = StateClosed
	c.failureCount = 0
	c.successCount = 0
	c.nextRetryAt = time.Time{}
	c.mu.Unlock()

	b.notify(name, from, StateClosed)
}

// circuit returns the circuit for name, creating it on first use.
func (b *Breaker) circuit(name string) *circuit {
	b.mu.RLock()
	c, ok := b.circuits[name]
	b.mu.RUnlock()
	if ok {
		return c
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok = b.circuits[name]; ok {
		return c
	}
	c = &circuit{state: StateClosed}
	b.circuits[name] = c
	return c
}

// allow reports whether a call may proceed, transitioning open circuits to
// half-open once the retry deadline has elapsed.
func (b *Breaker) allow(name string, c *circuit) bool {
	c.mu.Lock()

	switch c.state {
	case StateClosed, StateHalfOpen:
		c.mu.Unlock()
		return true
	case StateOpen:
		if b.now().Before(c.nextRetryAt) {
			c.mu.Unlock()
			return false
		}
		c.state = StateHalfOpen
		c.successCount = 0
		c.nextRetryAt = time.Time{}
		c.mu.Unlock()
		b.notify(name, StateOpen, StateHalfOpen)
		return true
	default:
		c.mu.Unlock()
		return true
	}
}

func (b *Breaker) recordSuccess(name string, c *circuit) {
	c.mu.Lock()

	switch c.state {
	case StateClosed:
		c.failureCount = 0
		c.mu.Unlock()
	case StateHalfOpen:
		c.successCount++
		if c.successCount >= b.config.SuccessThreshold {
			c.state = StateClosed
			c.failureCount = 0
			c.successCount = 0
			c.mu.Unlock()
			b.notify(name, StateHalfOpen, StateClosed)
			return
		}
		c.mu.Unlock()
	default:
		c.mu.Unlock()
	}
}

func (b *Breaker) recordFailure(name string, c *circuit) {
	c.mu.Lock()

	switch c.state {
	case StateClosed:
		c.failureCount++
		if c.failureCount >= b.config.FailureThreshold {
			c.state = StateOpen
			c.failureCount = 0
			c.nextRetryAt = b.now().Add(b.config.OpenDuration)
			c.mu.Unlock()
			b.notify(name, StateClosed, StateOpen)
			return
		}
		c.mu.Unlock()
	case StateHalfOpen:
		// A single failed probe reopens the circuit with a fresh deadline.
		c.state = StateOpen
		c.successCount = 0
		c.nextRetryAt = b.now().Add(b.config.OpenDuration)
		c.mu.Unlock()
		b.notify(name, StateHalfOpen, StateOpen)
	default:
		c.mu.Unlock()
	}
}

func (b *Breaker) notify(name string, from, to State) {
	if b.config.OnStateChange != nil && from != to {
		b.config.OnStateChange(name, from, to)
	}
}
