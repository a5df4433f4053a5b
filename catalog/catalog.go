// Package catalog manages webhook event type definitions.
//
// Event types in Conduit are code-configured: the host application registers
// its definitions at boot and the registry lives in memory for the process
// lifetime. Payload validation against a definition's JSON Schema happens at
// publish time via the Validator.
package catalog

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/xraph/conduit/id"
	"github.com/xraph/conduit/internal/entity"
)

// Registry errors.
var (
	// ErrTypeNotFound is returned when an event type is not registered.
	ErrTypeNotFound = errors.New("catalog: event type not found")
)

// Registry is the in-memory catalog of registered event types.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*EventType // keyed by definition name
}

// NewRegistry creates an empty event type registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]*EventType),
	}
}

// RegisterType registers or updates an event type definition (upsert by name).
func (r *Registry) RegisterType(def WebhookDefinition, opts ...RegisterOption) *EventType {
	ro := registerOptions{}
	for _, o := range opts {
		o(&ro)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.types[def.Name]; ok {
		existing.Definition = def
		existing.UpdatedAt = time.Now().UTC()
		if ro.metadata != nil {
			existing.Metadata = ro.metadata
		}
		return existing
	}

	et := &EventType{
		Entity:     entity.New(),
		ID:         id.NewEventTypeID(),
		Definition: def,
		ScopeAppID: ro.scopeAppID,
		Metadata:   ro.metadata,
	}
	r.types[def.Name] = et
	return et
}

// GetType returns an event type by name.
func (r *Registry) GetType(name string) (*EventType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	et, ok := r.types[name]
	if !ok {
		return nil, ErrTypeNotFound
	}
	return et, nil
}

// ListTypes returns registered event types, optionally filtered.
func (r *Registry) ListTypes(opts ListOpts) []*EventType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*EventType, 0, len(r.types))
	for _, et := range r.types {
		if !opts.IncludeDeprecated && et.IsDeprecated {
			continue
		}
		if opts.Group != "" && et.Definition.Group != opts.Group {
			continue
		}
		result = append(result, et)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Definition.Name < result[j].Definition.Name
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result
}

// DeprecateType soft-deletes an event type: publishing it fails afterwards,
// but the definition stays listed for documentation.
func (r *Registry) DeprecateType(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	et, ok := r.types[name]
	if !ok {
		return ErrTypeNotFound
	}

	now := time.Now().UTC()
	et.IsDeprecated = true
	et.DeprecatedAt = &now
	et.UpdatedAt = now
	return nil
}

// MatchTypes returns event types whose name matches the given pattern.
func (r *Registry) MatchTypes(pattern string) []*EventType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*EventType
	for _, et := range r.types {
		if Match(pattern, et.Definition.Name) {
			result = append(result, et)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Definition.Name < result[j].Definition.Name
	})
	return result
}

// RegisterOption configures RegisterType behavior.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	scopeAppID string
	metadata   map[string]string
}

// WithScopeAppID sets the app scope on a registered event type.
func WithScopeAppID(appID string) RegisterOption {
	return func(o *registerOptions) { o.scopeAppID = appID }
}

// WithMetadata sets metadata on a registered event type.
func WithMetadata(md map[string]string) RegisterOption {
	return func(o *registerOptions) { o.metadata = md }
}
