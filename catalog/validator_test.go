package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/xraph/conduit/catalog"
)

var paymentSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"amount":   {"type": "number"},
		"currency": {"type": "string"}
	},
	"required": ["amount", "currency"]
}`)

func TestValidatorAcceptsMatchingPayload(t *testing.T) {
	v := catalog.NewValidator()

	tests := []struct {
		name    string
		data    any
		wantErr bool
	}{
		{"complete payload", map[string]any{"amount": 100.50, "currency": "USD"}, false},
		{"missing required field", map[string]any{"amount": 100.50}, true},
		{"wrong field type", map[string]any{"amount": "a lot", "currency": "USD"}, true},
		{"not an object", "just a string", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(paymentSchema, tt.data)
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected payload to pass, got: %v", err)
			}
		})
	}
}

func TestValidatorEmptySchemaAcceptsAnything(t *testing.T) {
	v := catalog.NewValidator()

	for _, data := range []any{nil, "text", 42, map[string]any{"whatever": true}} {
		if err := v.Validate(nil, data); err != nil {
			t.Fatalf("empty schema should skip validation, got: %v", err)
		}
	}
}

func TestValidatorMalformedSchema(t *testing.T) {
	v := catalog.NewValidator()

	err := v.Validate(json.RawMessage(`{"type": `), map[string]any{})
	if err == nil {
		t.Fatal("expected compile error for malformed schema JSON")
	}
}

func TestValidatorReusesCompiledSchema(t *testing.T) {
	v := catalog.NewValidator()

	data := map[string]any{"amount": 10.0, "currency": "EUR"}

	// Same schema bytes twice: the second call hits the cache and must
	// behave identically.
	if err := v.Validate(paymentSchema, data); err != nil {
		t.Fatal(err)
	}
	if err := v.Validate(paymentSchema, data); err != nil {
		t.Fatal(err)
	}

	// Still enforces the schema after caching.
	if err := v.Validate(paymentSchema, map[string]any{"currency": "EUR"}); err == nil {
		t.Fatal("expected cached schema to keep rejecting bad payloads")
	}
}
