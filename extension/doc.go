// Package extension provides the Forge extension for mounting Conduit.
//
// The extension integrates Conduit into the Forge application framework by:
//   - Building the Conduit instance from configuration plus options
//   - Running store migrations and starting the delivery worker on Start
//   - Gracefully stopping the worker on Stop
//   - Mounting admin API routes with OpenAPI metadata under a configurable prefix
//
// Usage:
//
//	ext := extension.New(
//	    extension.WithStore(postgresStore),
//	    extension.WithBasePath("/webhooks"),
//	)
//	if err := ext.Init(); err != nil {
//	    log.Fatal(err)
//	}
//	ext.RegisterRoutes(router, logger)
//	ext.Start(ctx)
//	defer ext.Stop(ctx)
package extension
