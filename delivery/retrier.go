package delivery

import (
	"time"

	"github.com/xraph/conduit/outbox"
)

// Decision is the outcome of evaluating a delivery attempt.
type Decision int

const (
	// Delivered means the delivery was successful (2xx).
	Delivered Decision = iota

	// Retry means the delivery should be retried later.
	Retry

	// DLQ means the entry has permanently failed and should move to the dead letter queue.
	DLQ

	// DisableEndpoint means the endpoint should be disabled (e.g., 410 Gone).
	DisableEndpoint
)

// Result holds the outcome of a single delivery attempt.
type Result struct {
	StatusCode int
	Error      string
	Response   string
	LatencyMs  int
}

// Retrier decides what to do after a delivery attempt and schedules retries
// with exponential backoff: the Nth retry waits initialBackoff * 2^(N-1).
type Retrier struct {
	initialBackoff time.Duration
	now            func() time.Time
}

// NewRetrier creates a retrier with the given initial backoff.
func NewRetrier(initialBackoff time.Duration) *Retrier {
	return &Retrier{
		initialBackoff: initialBackoff,
		now:            time.Now,
	}
}

// Decide determines what to do with an entry after an attempt.
//
// Decision matrix:
//   - 2xx → Delivered
//   - 410 → DisableEndpoint + DLQ
//   - 400–499 (except 410, 429) → DLQ immediately (client error won't self-correct)
//   - 429 → Retry (rate limited)
//   - 500–599 → Retry if attempts remain, else DLQ
//   - 0 (connection/timeout error, circuit open) → Retry if attempts remain, else DLQ
func (r *Retrier) Decide(res Result, e *outbox.Entry) Decision {
	code := res.StatusCode

	// 2xx → success
	if code >= 200 && code < 300 {
		return Delivered
	}

	// 410 Gone → disable endpoint
	if code == 410 {
		return DisableEndpoint
	}

	// 429 Too Many Requests → always retry (if within limits)
	if code == 429 {
		return r.retryOrDLQ(e)
	}

	// 400–499 (client errors) → DLQ immediately
	if code >= 400 && code < 500 {
		return DLQ
	}

	// 500–599 or 0 (network error, breaker open) → retry if possible
	return r.retryOrDLQ(e)
}

// retryOrDLQ returns Retry if the entry has attempts remaining, otherwise DLQ.
func (r *Retrier) retryOrDLQ(e *outbox.Entry) Decision {
	if e.Attempt < e.MaxAttempts {
		return Retry
	}
	return DLQ
}

// ComputeNextAttempt returns when the entry next becomes due. attempt is the
// number of attempts already made, so after the first failure the delay is
// exactly initialBackoff.
func (r *Retrier) ComputeNextAttempt(attempt int) time.Time {
	return r.now().UTC().Add(r.Backoff(attempt))
}

// maxBackoffShift caps the exponential schedule. Shifting further would
// overflow int64 for large attempt budgets, turning the delay zero or
// negative and retrying in a hot loop.
const maxBackoffShift = 16

// Backoff returns the delay before the next attempt: initialBackoff doubled
// for every attempt after the first, capped at initialBackoff * 2^16.
func (r *Retrier) Backoff(attempt int) time.Duration {
	shift := attempt - 1
	if shift < 0 {
		shift = 0
	}
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	return r.initialBackoff << shift
}
