package conduit

import "time"

// Defaults for the delivery retry policy.
const (
	// DefaultMaxAttempts is the default number of delivery attempts before
	// an entry is dead-lettered.
	DefaultMaxAttempts = 5

	// DefaultInitialBackoff is the base delay for the exponential backoff
	// schedule: initial * 2^(attempt-1).
	DefaultInitialBackoff = 300 * time.Millisecond
)

// Config holds the configuration for a Conduit instance.
type Config struct {
	// Concurrency is the number of delivery worker goroutines.
	Concurrency int

	// PollInterval is how often the delivery worker checks for due entries.
	PollInterval time.Duration

	// BatchSize is the maximum number of entries dequeued per poll cycle.
	BatchSize int

	// RequestTimeout is the HTTP timeout per delivery attempt.
	RequestTimeout time.Duration

	// MaxAttempts is the global default for maximum delivery attempts.
	MaxAttempts int

	// InitialBackoff is the base delay for exponential retry backoff.
	InitialBackoff time.Duration

	// ShutdownTimeout is the maximum time to wait for in-flight deliveries on shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:     10,
		PollInterval:    1 * time.Second,
		BatchSize:       50,
		RequestTimeout:  30 * time.Second,
		MaxAttempts:     DefaultMaxAttempts,
		InitialBackoff:  DefaultInitialBackoff,
		ShutdownTimeout: 30 * time.Second,
	}
}
