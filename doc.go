// Package conduit provides a composable event fan-out and delivery core for Go.
//
// Conduit is a library, not a service. Import it into your application to get
// tenant-scoped webhook endpoints, a durable outbox with exponential backoff
// retries, per-endpoint circuit breaking, HMAC-signed deliveries, and a dead
// letter queue with explicit replay. A Publish call fans an event out to a
// real-time hub and to every matching webhook endpoint independently.
//
// Key features:
//   - Durable outbox: one entry per matched endpoint, delivery survives restarts
//   - HMAC-SHA256 signature on every delivery ("t=<unix>, v1=<hex>")
//   - Exponential backoff retries with a replayable dead letter queue
//   - Per-endpoint circuit breaker and rate limiting
//   - Idempotency primitives for at-most-once publishes
//   - Composable store pattern (Postgres, SQLite, Mongo, Redis, Memory)
//
// Quick start:
//
//	c, err := conduit.New(
//	    conduit.WithStore(memoryStore),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c.Start(ctx)
//	defer c.Stop(ctx)
//
//	c.Publish(ctx, "invoice.created", payload, "tenant_123")
package conduit
