package extension

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"

	conduit "github.com/xraph/conduit"
	"github.com/xraph/conduit/api"
)

// Extension wires Conduit into a host application.
type Extension struct {
	config  Config
	opts    []conduit.Option
	conduit *conduit.Conduit
	logger  *slog.Logger
}

// New creates a new Conduit Forge extension.
func New(opts ...ExtOption) *Extension {
	e := &Extension{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init builds the Conduit instance from the configuration plus any raw
// options. It must be called before Start or RegisterRoutes.
func (e *Extension) Init() error {
	all := append(e.config.ToConduitOptions(), conduit.WithLogger(e.logger))
	all = append(all, e.opts...)

	c, err := conduit.New(all...)
	if err != nil {
		return fmt.Errorf("extension: init: %w", err)
	}
	e.conduit = c
	return nil
}

// Start runs store migrations and begins delivery.
func (e *Extension) Start(ctx context.Context) error {
	if e.conduit == nil {
		return fmt.Errorf("extension: Init must be called before Start")
	}
	return e.conduit.Start(ctx)
}

// Stop gracefully shuts down the delivery worker.
func (e *Extension) Stop(ctx context.Context) error {
	if e.conduit == nil {
		return nil
	}
	return e.conduit.Stop(ctx)
}

// Conduit returns the underlying Conduit instance.
func (e *Extension) Conduit() *conduit.Conduit { return e.conduit }

// BasePath returns the configured URL prefix.
func (e *Extension) BasePath() string { return e.config.BasePath }

// Handler creates the plain admin API handler.
// This can be used standalone without Forge integration.
func (e *Extension) Handler() http.Handler {
	return api.NewHandler(e.conduit, e.logger)
}

// RegisterRoutes mounts the admin API into the given Forge router with
// OpenAPI metadata, honoring DisableRoutes.
func (e *Extension) RegisterRoutes(router forge.Router, log forge.Logger) {
	if e.config.DisableRoutes {
		return
	}
	api.NewForgeAPI(e.conduit, log).RegisterRoutes(router)
}
