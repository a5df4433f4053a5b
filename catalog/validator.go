package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validator checks event payloads against the JSON Schema attached to an
// event type definition. Compiled schemas are cached by content hash, so
// repeated publishes of the same type compile once.
type Validator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema // keyed by sha256 of the schema bytes
}

// NewValidator creates a new schema validator.
func NewValidator() *Validator {
	return &Validator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate checks data against the schema. An empty schema accepts anything.
func (v *Validator) Validate(schema json.RawMessage, data any) error {
	if len(schema) == 0 {
		return nil
	}

	s, err := v.schemaFor(schema)
	if err != nil {
		return fmt.Errorf("schema compile: %w", err)
	}
	return s.Validate(data)
}

// schemaFor returns the compiled form of the schema, compiling and caching
// it on first sight.
func (v *Validator) schemaFor(schema json.RawMessage) (*jsonschema.Schema, error) {
	sum := sha256.Sum256(schema)
	key := hex.EncodeToString(sum[:])

	v.mu.RLock()
	s, ok := v.compiled[key]
	v.mu.RUnlock()
	if ok {
		return s, nil
	}

	var doc any
	if err := json.Unmarshal(schema, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	// The compiler addresses schemas by URL; the content hash makes one up.
	url := "conduit://schemas/" + key

	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.compiled[key] = s
	v.mu.Unlock()

	return s, nil
}
