package delivery_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xraph/conduit/delivery"
	"github.com/xraph/conduit/endpoint"
	"github.com/xraph/conduit/id"
	"github.com/xraph/conduit/internal/entity"
	"github.com/xraph/conduit/outbox"
	"github.com/xraph/conduit/signature"
)

func newTestEndpoint(url string) *endpoint.Endpoint {
	return &endpoint.Endpoint{
		Entity:     entity.New(),
		ID:         id.NewEndpointID(),
		Name:       "test-hook",
		TenantID:   "tenant-1",
		URL:        url,
		Secret:     "whsec_test_secret_1234567890abcdef1234567890abcdef",
		EventTypes: []string{"test.event"},
		Enabled:    true,
	}
}

func newTestEntry(epID id.ID) *outbox.Entry {
	return &outbox.Entry{
		Entity:        entity.New(),
		ID:            id.NewEntryID(),
		EventType:     "test.event",
		Payload:       []byte(`{"hello":"world"}`),
		TenantID:      "tenant-1",
		EndpointID:    epID,
		Status:        outbox.StatusPending,
		MaxAttempts:   5,
		NextAttemptAt: time.Now().UTC(),
	}
}

func TestSenderHappyPath(t *testing.T) {
	var receivedHeaders http.Header
	var receivedBody string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHeaders = r.Header
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			t.Error(err)
		}
		receivedBody = string(bodyBytes)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	sender := delivery.NewSender(5 * time.Second)
	ep := newTestEndpoint(srv.URL)
	e := newTestEntry(ep.ID)

	result := sender.Send(context.Background(), ep, e)

	if result.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", result.StatusCode)
	}
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	if result.Response != `{"ok":true}` {
		t.Fatalf("unexpected response: %s", result.Response)
	}
	if result.LatencyMs < 0 {
		t.Fatal("latency should be non-negative")
	}

	// The body is the stored payload bytes, unmodified.
	if receivedBody != `{"hello":"world"}` {
		t.Fatalf("body: got %q", receivedBody)
	}

	// Standard headers.
	if receivedHeaders.Get("Content-Type") != "application/json" {
		t.Fatal("missing Content-Type")
	}
	if receivedHeaders.Get("User-Agent") != "Conduit/1.0" {
		t.Fatal("missing User-Agent")
	}
	if receivedHeaders.Get("X-Conduit-Event-Type") != "test.event" {
		t.Fatal("missing X-Conduit-Event-Type")
	}
	if receivedHeaders.Get("X-Conduit-Entry-ID") != e.ID.String() {
		t.Fatal("missing X-Conduit-Entry-ID")
	}

	// Signature header carries both timestamp and digest.
	sig := receivedHeaders.Get("X-Conduit-Signature")
	if sig == "" {
		t.Fatal("missing signature header")
	}
	if !strings.HasPrefix(sig, "t=") || !strings.Contains(sig, "v1=") {
		t.Fatalf("malformed signature header: %q", sig)
	}
}

func TestSenderSignatureVerifies(t *testing.T) {
	var receivedSig string
	var receivedBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedSig = r.Header.Get("X-Conduit-Signature")
		receivedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := delivery.NewSender(5 * time.Second)
	ep := newTestEndpoint(srv.URL)
	e := newTestEntry(ep.ID)

	sender.Send(context.Background(), ep, e)

	// A receiver holding the secret can verify the exact bytes it read.
	if err := signature.Verify(receivedBody, ep.Secret, receivedSig, 5*time.Minute); err != nil {
		t.Fatalf("signature verification failed: %v", err)
	}

	// Tampered body must fail.
	tampered := append([]byte{}, receivedBody...)
	tampered[0] ^= 0xFF
	if err := signature.Verify(tampered, ep.Secret, receivedSig, 5*time.Minute); err == nil {
		t.Fatal("expected verification failure for tampered body")
	}
}

func TestSenderCustomHeaders(t *testing.T) {
	var receivedHeaders http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHeaders = r.Header
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := delivery.NewSender(5 * time.Second)
	ep := newTestEndpoint(srv.URL)
	ep.Headers = map[string]string{
		"X-Custom-Header": "custom-value",
		"Authorization":   "Bearer token123",
	}
	e := newTestEntry(ep.ID)

	result := sender.Send(context.Background(), ep, e)

	if result.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", result.StatusCode)
	}
	if receivedHeaders.Get("X-Custom-Header") != "custom-value" {
		t.Fatal("missing custom header")
	}
	if receivedHeaders.Get("Authorization") != "Bearer token123" {
		t.Fatal("missing Authorization header")
	}
}

func TestSenderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// Very short timeout.
	sender := delivery.NewSender(50 * time.Millisecond)
	ep := newTestEndpoint(srv.URL)
	e := newTestEntry(ep.ID)

	result := sender.Send(context.Background(), ep, e)

	if result.StatusCode != 0 {
		t.Fatalf("expected status 0 on timeout, got %d", result.StatusCode)
	}
	if result.Error == "" {
		t.Fatal("expected error on timeout")
	}
	if result.LatencyMs <= 0 {
		t.Fatal("expected positive latency")
	}
}

func TestSenderConnectionRefused(t *testing.T) {
	sender := delivery.NewSender(5 * time.Second)
	ep := newTestEndpoint("http://127.0.0.1:1") // port 1 should refuse connections
	e := newTestEntry(ep.ID)

	result := sender.Send(context.Background(), ep, e)

	if result.StatusCode != 0 {
		t.Fatalf("expected status 0 on connection refused, got %d", result.StatusCode)
	}
	if result.Error == "" {
		t.Fatal("expected error on connection refused")
	}
}

func TestSenderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal error"))
	}))
	defer srv.Close()

	sender := delivery.NewSender(5 * time.Second)
	ep := newTestEndpoint(srv.URL)
	e := newTestEntry(ep.ID)

	result := sender.Send(context.Background(), ep, e)

	if result.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", result.StatusCode)
	}
	if result.Response != "internal error" {
		t.Fatalf("unexpected response: %s", result.Response)
	}
}
