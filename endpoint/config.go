package endpoint

import (
	"context"
	"fmt"
)

// Config declares a webhook endpoint in static configuration. Endpoints
// declared this way are registered at startup, before any delivery runs.
type Config struct {
	// Name is the stable identifier for the endpoint. Required.
	Name string `json:"name" yaml:"name"`

	// URL is the delivery URL. Validated at load time.
	URL string `json:"url" yaml:"url"`

	// Secret is the HMAC signing secret. Auto-generated when empty.
	Secret string `json:"secret" yaml:"secret"`

	// Active controls whether the endpoint starts enabled.
	Active bool `json:"active" yaml:"active"`

	// TenantID scopes the endpoint to one tenant. Empty means global.
	TenantID string `json:"tenant_id" yaml:"tenant_id"`

	// EventTypes are the subscription patterns. Defaults to ["*"].
	EventTypes []string `json:"event_types" yaml:"event_types"`

	// Headers are custom HTTP headers sent with each delivery.
	Headers map[string]string `json:"headers" yaml:"headers"`

	// RateLimit is the maximum deliveries per second. 0 means unlimited.
	RateLimit int `json:"rate_limit" yaml:"rate_limit"`
}

// Settings holds the delivery tuning knobs shared by all configured endpoints.
type Settings struct {
	// TimeoutSeconds bounds a single delivery HTTP request.
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`

	// MaxAttempts is the total attempts before an entry is dead-lettered.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// InitialBackoffMs is the delay before the first retry. Subsequent
	// retries double it.
	InitialBackoffMs int `json:"initial_backoff_ms" yaml:"initial_backoff_ms"`
}

// DefaultSettings returns the delivery defaults.
func DefaultSettings() Settings {
	return Settings{
		TimeoutSeconds:   30,
		MaxAttempts:      5,
		InitialBackoffMs: 300,
	}
}

// LoadConfigs registers statically configured endpoints with the service.
// A malformed entry fails the whole load so misconfiguration is caught at
// startup rather than on first delivery.
func LoadConfigs(ctx context.Context, svc *Service, configs []Config) ([]*Endpoint, error) {
	eps := make([]*Endpoint, 0, len(configs))
	seen := make(map[string]struct{}, len(configs))

	for i, cfg := range configs {
		if cfg.Name == "" {
			return nil, fmt.Errorf("endpoint config [%d]: name required", i)
		}
		if _, dup := seen[cfg.Name]; dup {
			return nil, fmt.Errorf("endpoint config %q: duplicate name", cfg.Name)
		}
		seen[cfg.Name] = struct{}{}

		if err := validateURL(cfg.URL); err != nil {
			return nil, fmt.Errorf("endpoint config %q: %w", cfg.Name, err)
		}

		eventTypes := cfg.EventTypes
		if len(eventTypes) == 0 {
			eventTypes = []string{"*"}
		}

		ep, err := svc.Create(ctx, Input{
			Name:       cfg.Name,
			TenantID:   cfg.TenantID,
			URL:        cfg.URL,
			Secret:     cfg.Secret,
			EventTypes: eventTypes,
			Headers:    cfg.Headers,
			RateLimit:  cfg.RateLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("endpoint config %q: %w", cfg.Name, err)
		}

		if !cfg.Active {
			if err := svc.SetEnabled(ctx, ep.ID, false); err != nil {
				return nil, fmt.Errorf("endpoint config %q: %w", cfg.Name, err)
			}
			ep.Enabled = false
		}

		eps = append(eps, ep)
	}

	return eps, nil
}
