package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xraph/conduit/endpoint"
	"github.com/xraph/conduit/outbox"
	"github.com/xraph/conduit/signature"
)

const maxResponseBody = 1024 // 1KB cap on response body storage

// Sender performs HTTP webhook delivery.
type Sender struct {
	client *http.Client
	now    func() time.Time
}

// NewSender creates a sender with the given HTTP timeout.
func NewSender(timeout time.Duration) *Sender {
	return &Sender{
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

// Send delivers an outbox entry to an endpoint and returns the result.
// The entry's payload bytes are signed and sent exactly as stored.
func (s *Sender) Send(ctx context.Context, ep *endpoint.Endpoint, e *outbox.Entry) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(e.Payload))
	if err != nil {
		return Result{Error: fmt.Sprintf("create request: %v", err)}
	}

	// Standard headers.
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Conduit/1.0")
	req.Header.Set("X-Conduit-Event-Type", e.EventType)
	req.Header.Set("X-Conduit-Entry-ID", e.ID.String())

	// HMAC signature over the raw body, timestamp embedded in the header.
	req.Header.Set("X-Conduit-Signature", signature.Sign(e.Payload, ep.Secret, s.now().Unix()))

	// Custom endpoint headers.
	for k, v := range ep.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := s.client.Do(req) //nolint:gosec // G704: URL is a user-configured webhook destination; SSRF is by design.
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return Result{
			Error:     err.Error(),
			LatencyMs: int(latency),
		}
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if readErr != nil {
		return Result{
			StatusCode: resp.StatusCode,
			Error:      fmt.Sprintf("read response: %v", readErr),
			LatencyMs:  int(latency),
		}
	}

	return Result{
		StatusCode: resp.StatusCode,
		Response:   string(respBody),
		LatencyMs:  int(latency),
	}
}
