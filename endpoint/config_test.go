package endpoint_test

import (
	"testing"

	"github.com/xraph/conduit/endpoint"
	"github.com/xraph/conduit/store/memory"
)

func TestLoadConfigs(t *testing.T) {
	svc := endpoint.NewService(memory.New(), nil)

	eps, err := endpoint.LoadConfigs(ctx(), svc, []endpoint.Config{
		{Name: "billing", URL: "https://example.com/billing", Active: true, EventTypes: []string{"invoice.*"}},
		{Name: "audit", URL: "https://example.com/audit", Active: false},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(eps) != 2 {
		t.Fatalf("expected 2 endpoints, got %d", len(eps))
	}

	if !eps[0].Enabled {
		t.Fatal("expected billing enabled")
	}
	if eps[1].Enabled {
		t.Fatal("expected audit disabled")
	}
	// EventTypes defaults to match-all.
	if len(eps[1].EventTypes) != 1 || eps[1].EventTypes[0] != "*" {
		t.Fatalf("expected default pattern, got %v", eps[1].EventTypes)
	}
}

func TestLoadConfigsFailFast(t *testing.T) {
	cases := []struct {
		name    string
		configs []endpoint.Config
	}{
		{"malformed URL", []endpoint.Config{{Name: "x", URL: "::not-a-url"}}},
		{"missing scheme", []endpoint.Config{{Name: "x", URL: "example.com/hook"}}},
		{"missing name", []endpoint.Config{{URL: "https://example.com"}}},
		{"duplicate name", []endpoint.Config{
			{Name: "x", URL: "https://example.com/a"},
			{Name: "x", URL: "https://example.com/b"},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := endpoint.NewService(memory.New(), nil)
			if _, err := endpoint.LoadConfigs(ctx(), svc, tc.configs); err == nil {
				t.Fatal("expected load to fail")
			}
		})
	}
}
