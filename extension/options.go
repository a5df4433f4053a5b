package extension

import (
	"log/slog"

	conduit "github.com/xraph/conduit"
	"github.com/xraph/conduit/store"
)

// ExtOption configures the Conduit Forge extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend via a conduit option.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.opts = append(e.opts, conduit.WithStore(s))
	}
}

// WithBasePath sets the URL prefix for all conduit webhook routes.
func WithBasePath(prefix string) ExtOption {
	return func(e *Extension) {
		e.config.BasePath = prefix
	}
}

// WithConfig sets the extension configuration directly.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithConduitOption appends a raw conduit.Option to the extension.
func WithConduitOption(opt conduit.Option) ExtOption {
	return func(e *Extension) {
		e.opts = append(e.opts, opt)
	}
}

// WithDisableRoutes disables automatic route registration.
func WithDisableRoutes() ExtOption {
	return func(e *Extension) {
		e.config.DisableRoutes = true
	}
}

// WithLogger sets the structured logger used by the extension.
func WithLogger(logger *slog.Logger) ExtOption {
	return func(e *Extension) {
		if logger != nil {
			e.logger = logger
		}
	}
}
