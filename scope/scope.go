// Package scope propagates the tenant identity through context.
//
// Conduit never derives the tenant itself: the host application resolves it
// (header, host, session) and attaches it with WithTenant. Everything in the
// core only reads it back.
package scope

import "context"

type tenantKey struct{}

// WithTenant returns a context carrying the given tenant identifier.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	if tenantID == "" {
		return ctx
	}
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// Tenant extracts the tenant identifier from the context.
// Returns an empty string when no tenant is attached.
func Tenant(ctx context.Context) string {
	if v, ok := ctx.Value(tenantKey{}).(string); ok {
		return v
	}
	return ""
}
