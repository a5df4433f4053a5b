package idempotency

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/xraph/conduit/scope"
)

// Header names for the idempotent request contract.
const (
	// RequestHeader carries the caller-supplied deduplication token.
	RequestHeader = "Idempotency-Key"

	// ReplayHeader is set to "true" on responses served from a prior outcome.
	ReplayHeader = "Idempotent-Replay"
)

// MiddlewareOption configures the idempotency middleware.
type MiddlewareOption func(*middleware)

// WithTTL overrides the deduplication window (default 24h).
func WithTTL(ttl time.Duration) MiddlewareOption {
	return func(m *middleware) { m.ttl = ttl }
}

// WithTenantResolver overrides how the tenant is derived from a request.
// The default reads the tenant previously attached via scope.WithTenant.
func WithTenantResolver(fn func(*http.Request) string) MiddlewareOption {
	return func(m *middleware) { m.tenant = fn }
}

// Middleware wraps an http.Handler with the Idempotency-Key contract:
// mutating requests carrying the header are executed at most once per
// (tenant, token) pair within the TTL; duplicates receive the recorded
// original response with the Idempotent-Replay header set.
//
// The Store stays the sole deduplication primitive; the recorded responses
// live in a middleware-owned cache with the same lifetime.
func Middleware(store Store, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	m := &middleware{
		store:  store,
		ttl:    DefaultTTL,
		tenant: func(r *http.Request) string { return scope.Tenant(r.Context()) },
		cache:  newResponseCache(),
	}
	for _, opt := range opts {
		opt(m)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.serve(next, w, r)
		})
	}
}

type middleware struct {
	store  Store
	ttl    time.Duration
	tenant func(*http.Request) string
	cache  *responseCache
}

func (m *middleware) serve(next http.Handler, w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(RequestHeader)
	if token == "" || !mutating(r.Method) {
		next.ServeHTTP(w, r)
		return
	}

	key := Key(m.tenant(r), token)

	fresh, err := m.store.TryPut(r.Context(), key, m.ttl)
	if err != nil {
		// Deduplication must never take the write path down with it.
		next.ServeHTTP(w, r)
		return
	}

	if !fresh {
		if rec, ok := m.cache.get(key); ok {
			rec.replay(w)
			return
		}
		// Duplicate arrived while the original is still executing.
		http.Error(w, "request with this idempotency key is already in progress", http.StatusConflict)
		return
	}

	rec := &recordedResponse{ResponseWriter: w, status: http.StatusOK}
	next.ServeHTTP(rec, r)
	m.cache.put(key, rec, m.ttl)
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// recordedResponse captures the original outcome while streaming it to the
// first caller.
type recordedResponse struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
	contentType string
}

func (r *recordedResponse) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.contentType = r.Header().Get("Content-Type")
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *recordedResponse) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}

func (r *recordedResponse) replay(w http.ResponseWriter) {
	if r.contentType != "" {
		w.Header().Set("Content-Type", r.contentType)
	}
	w.Header().Set(ReplayHeader, "true")
	w.WriteHeader(r.status)
	_, _ = w.Write(r.body.Bytes())
}

// responseCache holds recorded outcomes for replay, expiring with the same
// TTL as the idempotency records.
type responseCache struct {
	mu      sync.RWMutex
	entries map[string]cachedResponse
}

type cachedResponse struct {
	rec     *recordedResponse
	expires time.Time
}

func newResponseCache() *responseCache {
	return &responseCache{entries: make(map[string]cachedResponse)}
}

func (c *responseCache) get(key string) (*recordedResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expires) {
		return nil, false
	}
	return e.rec, true
}

func (c *responseCache) put(key string, rec *recordedResponse, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Opportunistic cleanup keeps the cache bounded by live keys.
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cachedResponse{rec: rec, expires: now.Add(ttl)}
}
