package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	conduit "github.com/xraph/conduit"
	"github.com/xraph/conduit/api"
	"github.com/xraph/conduit/catalog"
	"github.com/xraph/conduit/store/memory"
)

// testServer creates a Handler backed by a memory store and returns the test server.
func testServer(t *testing.T, opts ...conduit.Option) *httptest.Server {
	t.Helper()

	opts = append([]conduit.Option{
		conduit.WithStore(memory.New()),
		conduit.WithCatalog(catalog.NewRegistry()),
	}, opts...)

	c, err := conduit.New(opts...)
	if err != nil {
		t.Fatal(err)
	}

	h := api.NewHandler(c, nil)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

// --- Event Types ---

func TestEventTypes_CRUD(t *testing.T) {
	srv := testServer(t)

	// Create
	resp := doJSON(t, "POST", srv.URL+"/event-types", map[string]any{
		"name":        "order.created",
		"description": "Fired when an order is created",
		"version":     "2025-01-01",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	var et map[string]any
	decodeBody(t, resp, &et)
	def, _ := et["definition"].(map[string]any)
	if def == nil || def["name"] != "order.created" {
		t.Fatalf("expected definition.name order.created, got %v", et)
	}

	// Get by name
	resp = doJSON(t, "GET", srv.URL+"/event-types/order.created", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// List
	resp = doJSON(t, "GET", srv.URL+"/event-types", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.StatusCode)
	}
	var list []map[string]any
	decodeBody(t, resp, &list)
	if len(list) != 1 {
		t.Fatalf("expected 1 event type, got %d", len(list))
	}

	// Delete (soft-delete marks as deprecated)
	resp = doJSON(t, "DELETE", srv.URL+"/event-types/order.created", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Get after soft-delete returns 200 with deprecated=true
	resp = doJSON(t, "GET", srv.URL+"/event-types/order.created", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get after delete: expected 200, got %d", resp.StatusCode)
	}
	var deletedET map[string]any
	decodeBody(t, resp, &deletedET)
	if deletedET["deprecated"] != true {
		t.Fatalf("expected deprecated=true, got %v", deletedET["deprecated"])
	}
}

func TestEventTypes_CreateMissingName(t *testing.T) {
	srv := testServer(t)

	resp := doJSON(t, "POST", srv.URL+"/event-types", map[string]any{
		"description": "no name",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

// --- Endpoints ---

func TestEndpoints_CRUD(t *testing.T) {
	srv := testServer(t)

	// Create
	resp := doJSON(t, "POST", srv.URL+"/endpoints", map[string]any{
		"name":        "billing",
		"tenant_id":   "tenant-1",
		"url":         "https://example.com/webhook",
		"event_types": []string{"order.*"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	var ep map[string]any
	decodeBody(t, resp, &ep)
	epID, ok := ep["id"].(string)
	if !ok || epID == "" {
		t.Fatal("expected non-empty endpoint ID")
	}

	// Get
	resp = doJSON(t, "GET", srv.URL+"/endpoints/"+epID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// List
	resp = doJSON(t, "GET", srv.URL+"/endpoints?tenant_id=tenant-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.StatusCode)
	}
	var eps []map[string]any
	decodeBody(t, resp, &eps)
	if len(eps) != 1 {
		t.Fatalf("expected 1 endpoint, got %d", len(eps))
	}

	// Update
	resp = doJSON(t, "PUT", srv.URL+"/endpoints/"+epID, map[string]any{
		"name":        "billing",
		"url":         "https://example.com/updated",
		"event_types": []string{"order.*", "invoice.*"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	var updated map[string]any
	decodeBody(t, resp, &updated)
	if updated["url"] != "https://example.com/updated" {
		t.Fatalf("expected updated URL, got %v", updated["url"])
	}

	// Disable
	resp = doJSON(t, "PATCH", srv.URL+"/endpoints/"+epID+"/disable", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("disable: expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Enable
	resp = doJSON(t, "PATCH", srv.URL+"/endpoints/"+epID+"/enable", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("enable: expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Rotate secret
	resp = doJSON(t, "POST", srv.URL+"/endpoints/"+epID+"/rotate-secret", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rotate: expected 200, got %d", resp.StatusCode)
	}
	var secretResp map[string]string
	decodeBody(t, resp, &secretResp)
	if secretResp["secret"] == "" {
		t.Fatal("expected non-empty secret")
	}

	// Delete
	resp = doJSON(t, "DELETE", srv.URL+"/endpoints/"+epID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Get deleted → 404
	resp = doJSON(t, "GET", srv.URL+"/endpoints/"+epID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get deleted: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestEndpoints_CreateMissingName(t *testing.T) {
	srv := testServer(t)

	resp := doJSON(t, "POST", srv.URL+"/endpoints", map[string]any{
		"tenant_id":   "tenant-1",
		"url":         "https://example.com/webhook",
		"event_types": []string{"*"},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

// --- Publish ---

func TestPublish_Accepted(t *testing.T) {
	srv := testServer(t)

	// Register the type first; the catalog validates on publish.
	resp := doJSON(t, "POST", srv.URL+"/event-types", map[string]any{
		"name": "order.created",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create type: expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, "POST", srv.URL+"/events", map[string]any{
		"type":      "order.created",
		"tenant_id": "tenant-1",
		"data":      map[string]any{"order_id": "123"},
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("publish: expected 202, got %d", resp.StatusCode)
	}
	var out map[string]any
	decodeBody(t, resp, &out)
	if out["status"] != "accepted" {
		t.Fatalf("expected accepted status, got %v", out)
	}
}

func TestPublish_UnknownType(t *testing.T) {
	srv := testServer(t)

	resp := doJSON(t, "POST", srv.URL+"/events", map[string]any{
		"type":      "does.not.exist",
		"tenant_id": "tenant-1",
		"data":      map[string]any{},
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPublish_MissingFields(t *testing.T) {
	srv := testServer(t)

	// Missing type
	resp := doJSON(t, "POST", srv.URL+"/events", map[string]any{
		"tenant_id": "tenant-1",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing type, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Missing tenant_id
	resp = doJSON(t, "POST", srv.URL+"/events", map[string]any{
		"type": "order.created",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing tenant_id, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

// --- Stats ---

func TestStats(t *testing.T) {
	srv := testServer(t)

	resp := doJSON(t, "GET", srv.URL+"/stats", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", resp.StatusCode)
	}
	var stats map[string]any
	decodeBody(t, resp, &stats)

	if _, ok := stats["pending_entries"]; !ok {
		t.Fatal("expected pending_entries in response")
	}
	if _, ok := stats["dlq_size"]; !ok {
		t.Fatal("expected dlq_size in response")
	}
}

// --- DLQ ---

func TestDLQ_ListEmpty(t *testing.T) {
	srv := testServer(t)

	resp := doJSON(t, "GET", srv.URL+"/dlq", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list dlq: expected 200, got %d", resp.StatusCode)
	}
	var entries []map[string]any
	decodeBody(t, resp, &entries)
	if len(entries) != 0 {
		t.Fatalf("expected 0 entries, got %d", len(entries))
	}
}

func TestDLQ_ReplayInvalidID(t *testing.T) {
	srv := testServer(t)

	resp := doJSON(t, "POST", srv.URL+"/dlq/not-a-valid-id/replay", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("replay invalid id: expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDLQ_BulkReplayBadBody(t *testing.T) {
	srv := testServer(t)

	resp := doJSON(t, "POST", srv.URL+"/dlq/replay", map[string]any{
		"from": "not-a-date",
		"to":   "2025-01-01T00:00:00Z",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

// --- Outbox entries ---

func TestEntries_ListAfterPublish(t *testing.T) {
	srv := testServer(t)

	resp := doJSON(t, "POST", srv.URL+"/event-types", map[string]any{
		"name": "order.created",
	})
	resp.Body.Close()

	resp = doJSON(t, "POST", srv.URL+"/endpoints", map[string]any{
		"name":        "hook",
		"tenant_id":   "tenant-1",
		"url":         "https://example.com/webhook",
		"event_types": []string{"*"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create endpoint: expected 201, got %d", resp.StatusCode)
	}
	var ep map[string]any
	decodeBody(t, resp, &ep)
	epID := ep["id"].(string)

	// No entries yet.
	resp = doJSON(t, "GET", srv.URL+"/endpoints/"+epID+"/entries", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list entries: expected 200, got %d", resp.StatusCode)
	}
	var entries []map[string]any
	decodeBody(t, resp, &entries)
	if len(entries) != 0 {
		t.Fatalf("expected 0 entries, got %d", len(entries))
	}

	// Publish creates one entry for the endpoint.
	resp = doJSON(t, "POST", srv.URL+"/events", map[string]any{
		"type":      "order.created",
		"tenant_id": "tenant-1",
		"data":      map[string]any{"order_id": "123"},
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("publish: expected 202, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, "GET", srv.URL+"/endpoints/"+epID+"/entries", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list entries: expected 200, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &entries)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0]["status"] != "pending" {
		t.Fatalf("expected pending entry, got %v", entries[0]["status"])
	}
}

// --- Invalid IDs ---

func TestEndpoint_InvalidID(t *testing.T) {
	srv := testServer(t)

	resp := doJSON(t, "GET", srv.URL+"/endpoints/not-a-valid-id", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestEntry_InvalidID(t *testing.T) {
	srv := testServer(t)

	resp := doJSON(t, "GET", srv.URL+"/entries/not-a-valid-id", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
