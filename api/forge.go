package api

import (
	"net/http"
	"time"

	"github.com/xraph/forge"

	conduit "github.com/xraph/conduit"
	"github.com/xraph/conduit/catalog"
	"github.com/xraph/conduit/dlq"
	"github.com/xraph/conduit/endpoint"
	"github.com/xraph/conduit/id"
	"github.com/xraph/conduit/outbox"
)

// ForgeAPI wires all Forge-style HTTP handlers together.
type ForgeAPI struct {
	conduit *conduit.Conduit
	log     forge.Logger
}

// NewForgeAPI creates a ForgeAPI around a Conduit instance.
func NewForgeAPI(c *conduit.Conduit, log forge.Logger) *ForgeAPI {
	return &ForgeAPI{
		conduit: c,
		log:     log,
	}
}

// RegisterRoutes registers all Conduit admin API routes into the given Forge
// router with full OpenAPI metadata.
func (a *ForgeAPI) RegisterRoutes(router forge.Router) {
	a.registerEventTypeRoutes(router)
	a.registerEndpointRoutes(router)
	a.registerPublishRoutes(router)
	a.registerEntryRoutes(router)
	a.registerDLQRoutes(router)
	a.registerStatsRoutes(router)
}

// ---------------------------------------------------------------------------
// Event type routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerEventTypeRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("event-types"))

	if err := g.POST("/event-types", a.createEventTypeForge,
		forge.WithSummary("Register event type"),
		forge.WithDescription("Registers a new webhook event type in the catalog."),
		forge.WithOperationID("createEventType"),
		forge.WithRequestSchema(CreateEventTypeForgeRequest{}),
		forge.WithCreatedResponse(catalog.EventType{}),
		forge.WithErrorResponses(),
	); err != nil {
		// Log the error and continue registering other routes instead of failing completely.
		// This ensures that if one route has an issue, the rest of the API remains available.
		a.log.Error("Failed to register createEventType route", forge.Error(err))
	}

	if err := g.GET("/event-types", a.listEventTypesForge,
		forge.WithSummary("List event types"),
		forge.WithDescription("Returns a paginated list of registered event types."),
		forge.WithOperationID("listEventTypes"),
		forge.WithRequestSchema(ListEventTypesForgeRequest{}),
		forge.WithListResponse(catalog.EventType{}, http.StatusOK),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register listEventTypes route", forge.Error(err))
	}

	if err := g.GET("/event-types/:name", a.getEventTypeForge,
		forge.WithSummary("Get event type"),
		forge.WithDescription("Returns details of a specific event type."),
		forge.WithOperationID("getEventType"),
		forge.WithResponseSchema(http.StatusOK, "Event type details", catalog.EventType{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getEventType route", forge.Error(err))
	}

	if err := g.DELETE("/event-types/:name", a.deprecateEventTypeForge,
		forge.WithSummary("Deprecate event type"),
		forge.WithDescription("Soft-deletes an event type. Publishing events of this type will fail."),
		forge.WithOperationID("deprecateEventType"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register deprecateEventType route", forge.Error(err))
	}
}

func (a *ForgeAPI) createEventTypeForge(ctx forge.Context, req *CreateEventTypeForgeRequest) (*catalog.EventType, error) {
	reg := a.conduit.Catalog()
	if reg == nil {
		return nil, forge.NewHTTPError(http.StatusNotImplemented, "event type catalog not configured")
	}
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}

	def := catalog.WebhookDefinition{
		Name:          req.Name,
		Description:   req.Description,
		Group:         req.Group,
		Schema:        req.Schema,
		SchemaVersion: req.SchemaVersion,
		Version:       req.Version,
	}

	var opts []catalog.RegisterOption
	if req.ScopeAppID != "" {
		opts = append(opts, catalog.WithScopeAppID(req.ScopeAppID))
	}
	if req.Metadata != nil {
		opts = append(opts, catalog.WithMetadata(req.Metadata))
	}

	et := reg.RegisterType(def, opts...)

	if err := ctx.JSON(http.StatusCreated, et); err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.JSON.
	return nil, nil
}

func (a *ForgeAPI) listEventTypesForge(_ forge.Context, req *ListEventTypesForgeRequest) ([]*catalog.EventType, error) {
	reg := a.conduit.Catalog()
	if reg == nil {
		return nil, forge.NewHTTPError(http.StatusNotImplemented, "event type catalog not configured")
	}

	limit := req.Limit
	if limit == 0 {
		limit = 50
	}

	opts := catalog.ListOpts{
		Offset:            req.Offset,
		Limit:             limit,
		Group:             req.Group,
		IncludeDeprecated: req.IncludeDeprecated == "true",
	}

	return reg.ListTypes(opts), nil
}

func (a *ForgeAPI) getEventTypeForge(_ forge.Context, req *GetEventTypeForgeRequest) (*catalog.EventType, error) {
	reg := a.conduit.Catalog()
	if reg == nil {
		return nil, forge.NewHTTPError(http.StatusNotImplemented, "event type catalog not configured")
	}

	et, err := reg.GetType(req.Name)
	if err != nil {
		return nil, mapError(err)
	}

	return et, nil
}

func (a *ForgeAPI) deprecateEventTypeForge(ctx forge.Context, req *DeprecateEventTypeForgeRequest) (*catalog.EventType, error) {
	reg := a.conduit.Catalog()
	if reg == nil {
		return nil, forge.NewHTTPError(http.StatusNotImplemented, "event type catalog not configured")
	}

	if err := reg.DeprecateType(req.Name); err != nil {
		return nil, mapError(err)
	}

	if err := ctx.NoContent(http.StatusNoContent); err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.NoContent.
	return nil, nil
}

// ---------------------------------------------------------------------------
// Endpoint routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerEndpointRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("endpoints"))

	if err := g.POST("/endpoints", a.createEndpointForge,
		forge.WithSummary("Create endpoint"),
		forge.WithDescription("Creates a new webhook endpoint for a tenant."),
		forge.WithOperationID("createEndpoint"),
		forge.WithRequestSchema(CreateEndpointForgeRequest{}),
		forge.WithCreatedResponse(endpoint.Endpoint{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register createEndpoint route", forge.Error(err))
	}

	if err := g.GET("/endpoints", a.listEndpointsForge,
		forge.WithSummary("List endpoints"),
		forge.WithDescription("Returns a paginated list of endpoints for a tenant."),
		forge.WithOperationID("listEndpoints"),
		forge.WithRequestSchema(ListEndpointsForgeRequest{}),
		forge.WithListResponse(endpoint.Endpoint{}, http.StatusOK),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register listEndpoints route", forge.Error(err))
	}

	if err := g.GET("/endpoints/:endpointId", a.getEndpointForge,
		forge.WithSummary("Get endpoint"),
		forge.WithDescription("Returns details of a specific endpoint."),
		forge.WithOperationID("getEndpoint"),
		forge.WithResponseSchema(http.StatusOK, "Endpoint details", endpoint.Endpoint{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getEndpoint route", forge.Error(err))
	}

	if err := g.PUT("/endpoints/:endpointId", a.updateEndpointForge,
		forge.WithSummary("Update endpoint"),
		forge.WithDescription("Updates mutable fields of an endpoint."),
		forge.WithOperationID("updateEndpoint"),
		forge.WithRequestSchema(UpdateEndpointForgeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated endpoint", endpoint.Endpoint{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register updateEndpoint route", forge.Error(err))
	}

	if err := g.DELETE("/endpoints/:endpointId", a.deleteEndpointForge,
		forge.WithSummary("Delete endpoint"),
		forge.WithDescription("Permanently deletes an endpoint."),
		forge.WithOperationID("deleteEndpoint"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register deleteEndpoint route", forge.Error(err))
	}

	if err := g.PATCH("/endpoints/:endpointId/enable", a.enableEndpointForge,
		forge.WithSummary("Enable endpoint"),
		forge.WithDescription("Re-enables a disabled endpoint."),
		forge.WithOperationID("enableEndpoint"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register enableEndpoint route", forge.Error(err))
	}

	if err := g.PATCH("/endpoints/:endpointId/disable", a.disableEndpointForge,
		forge.WithSummary("Disable endpoint"),
		forge.WithDescription("Disables an endpoint, pausing all deliveries."),
		forge.WithOperationID("disableEndpoint"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register disableEndpoint route", forge.Error(err))
	}

	if err := g.POST("/endpoints/:endpointId/rotate-secret", a.rotateSecretForge,
		forge.WithSummary("Rotate secret"),
		forge.WithDescription("Generates a new signing secret for the endpoint."),
		forge.WithOperationID("rotateEndpointSecret"),
		forge.WithResponseSchema(http.StatusOK, "New signing secret", SecretForgeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register rotateSecret route", forge.Error(err))
	}
}

func (a *ForgeAPI) createEndpointForge(ctx forge.Context, req *CreateEndpointForgeRequest) (*endpoint.Endpoint, error) {
	input := endpoint.Input{
		Name:        req.Name,
		TenantID:    req.TenantID,
		URL:         req.URL,
		Description: req.Description,
		Secret:      req.Secret,
		EventTypes:  req.EventTypes,
		Headers:     req.Headers,
		RateLimit:   req.RateLimit,
		Metadata:    req.Metadata,
	}

	ep, err := a.conduit.Endpoints().Create(ctx.Context(), input)
	if err != nil {
		return nil, mapError(err)
	}

	if err := ctx.JSON(http.StatusCreated, ep); err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.JSON.
	return nil, nil
}

func (a *ForgeAPI) listEndpointsForge(ctx forge.Context, req *ListEndpointsForgeRequest) ([]*endpoint.Endpoint, error) {
	limit := req.Limit
	if limit == 0 {
		limit = 50
	}

	opts := endpoint.ListOpts{
		Offset: req.Offset,
		Limit:  limit,
	}

	eps, err := a.conduit.Endpoints().List(ctx.Context(), req.TenantID, opts)
	if err != nil {
		return nil, mapError(err)
	}

	return eps, nil
}

func (a *ForgeAPI) getEndpointForge(ctx forge.Context, req *GetEndpointForgeRequest) (*endpoint.Endpoint, error) {
	epID, err := id.ParseEndpointID(req.EndpointID)
	if err != nil {
		return nil, forge.BadRequest("invalid endpoint ID")
	}

	ep, getErr := a.conduit.Endpoints().Get(ctx.Context(), epID)
	if getErr != nil {
		return nil, mapError(getErr)
	}

	return ep, nil
}

func (a *ForgeAPI) updateEndpointForge(ctx forge.Context, req *UpdateEndpointForgeRequest) (*endpoint.Endpoint, error) {
	epID, err := id.ParseEndpointID(req.EndpointID)
	if err != nil {
		return nil, forge.BadRequest("invalid endpoint ID")
	}

	input := endpoint.Input{
		Name:        req.Name,
		URL:         req.URL,
		Description: req.Description,
		EventTypes:  req.EventTypes,
		Headers:     req.Headers,
		RateLimit:   req.RateLimit,
		Metadata:    req.Metadata,
	}

	ep, updateErr := a.conduit.Endpoints().Update(ctx.Context(), epID, input)
	if updateErr != nil {
		return nil, mapError(updateErr)
	}

	return ep, nil
}

func (a *ForgeAPI) deleteEndpointForge(ctx forge.Context, req *DeleteEndpointForgeRequest) (*endpoint.Endpoint, error) {
	epID, err := id.ParseEndpointID(req.EndpointID)
	if err != nil {
		return nil, forge.BadRequest("invalid endpoint ID")
	}

	if deleteErr := a.conduit.Endpoints().Delete(ctx.Context(), epID); deleteErr != nil {
		return nil, mapError(deleteErr)
	}

	if err := ctx.NoContent(http.StatusNoContent); err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.NoContent.
	return nil, nil
}

func (a *ForgeAPI) enableEndpointForge(ctx forge.Context, req *EndpointActionForgeRequest) (*endpoint.Endpoint, error) {
	return a.setEnabledForge(ctx, req, true)
}

func (a *ForgeAPI) disableEndpointForge(ctx forge.Context, req *EndpointActionForgeRequest) (*endpoint.Endpoint, error) {
	return a.setEnabledForge(ctx, req, false)
}

func (a *ForgeAPI) setEnabledForge(ctx forge.Context, req *EndpointActionForgeRequest, enabled bool) (*endpoint.Endpoint, error) {
	epID, err := id.ParseEndpointID(req.EndpointID)
	if err != nil {
		return nil, forge.BadRequest("invalid endpoint ID")
	}

	if setErr := a.conduit.Endpoints().SetEnabled(ctx.Context(), epID, enabled); setErr != nil {
		return nil, mapError(setErr)
	}

	if err := ctx.NoContent(http.StatusNoContent); err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.NoContent.
	return nil, nil
}

func (a *ForgeAPI) rotateSecretForge(ctx forge.Context, req *EndpointActionForgeRequest) (*SecretForgeResponse, error) {
	epID, err := id.ParseEndpointID(req.EndpointID)
	if err != nil {
		return nil, forge.BadRequest("invalid endpoint ID")
	}

	newSecret, rotateErr := a.conduit.Endpoints().RotateSecret(ctx.Context(), epID)
	if rotateErr != nil {
		return nil, mapError(rotateErr)
	}

	return &SecretForgeResponse{Secret: newSecret}, nil
}

// ---------------------------------------------------------------------------
// Publish routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerPublishRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("events"))

	if err := g.POST("/events", a.publishEventForge,
		forge.WithSummary("Publish event"),
		forge.WithDescription("Validates an event, broadcasts it to the hub, and fans out one outbox entry per matching endpoint."),
		forge.WithOperationID("publishEvent"),
		forge.WithRequestSchema(PublishEventForgeRequest{}),
		forge.WithResponseSchema(http.StatusAccepted, "Event accepted", PublishEventForgeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register publishEvent route", forge.Error(err))
	}
}

func (a *ForgeAPI) publishEventForge(ctx forge.Context, req *PublishEventForgeRequest) (*PublishEventForgeResponse, error) {
	if req.Type == "" {
		return nil, forge.BadRequest("type is required")
	}
	if req.TenantID == "" {
		return nil, forge.BadRequest("tenant_id is required")
	}

	var err error
	if req.IdempotencyKey != "" {
		err = a.conduit.PublishIdempotent(ctx.Context(), req.Type, req.Data, req.TenantID, req.IdempotencyKey)
	} else {
		err = a.conduit.Publish(ctx.Context(), req.Type, req.Data, req.TenantID)
	}
	if err != nil {
		return nil, mapError(err)
	}

	resp := &PublishEventForgeResponse{
		Type:     req.Type,
		TenantID: req.TenantID,
		Status:   "accepted",
	}

	if err := ctx.JSON(http.StatusAccepted, resp); err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.JSON.
	return nil, nil
}

// ---------------------------------------------------------------------------
// Outbox entry routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerEntryRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("entries"))

	if err := g.GET("/endpoints/:endpointId/entries", a.listEntriesForge,
		forge.WithSummary("List outbox entries"),
		forge.WithDescription("Returns outbox entries for a specific endpoint."),
		forge.WithOperationID("listEntries"),
		forge.WithRequestSchema(ListEntriesForgeRequest{}),
		forge.WithListResponse(outbox.Entry{}, http.StatusOK),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register listEntries route", forge.Error(err))
	}

	if err := g.GET("/entries/:entryId", a.getEntryForge,
		forge.WithSummary("Get outbox entry"),
		forge.WithDescription("Returns details of a specific outbox entry."),
		forge.WithOperationID("getEntry"),
		forge.WithResponseSchema(http.StatusOK, "Outbox entry details", outbox.Entry{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getEntry route", forge.Error(err))
	}
}

func (a *ForgeAPI) listEntriesForge(ctx forge.Context, req *ListEntriesForgeRequest) ([]*outbox.Entry, error) {
	epID, err := id.ParseEndpointID(req.EndpointID)
	if err != nil {
		return nil, forge.BadRequest("invalid endpoint ID")
	}

	limit := req.Limit
	if limit == 0 {
		limit = 50
	}

	opts := outbox.ListOpts{
		Offset: req.Offset,
		Limit:  limit,
	}

	if req.Status != "" {
		status := outbox.Status(req.Status)
		opts.Status = &status
	}

	entries, listErr := a.conduit.Store().ListByEndpoint(ctx.Context(), epID, opts)
	if listErr != nil {
		return nil, mapError(listErr)
	}

	return entries, nil
}

func (a *ForgeAPI) getEntryForge(ctx forge.Context, req *GetEntryForgeRequest) (*outbox.Entry, error) {
	entryID, err := id.ParseEntryID(req.EntryID)
	if err != nil {
		return nil, forge.BadRequest("invalid entry ID")
	}

	e, getErr := a.conduit.Store().GetEntry(ctx.Context(), entryID)
	if getErr != nil {
		return nil, mapError(getErr)
	}

	return e, nil
}

// ---------------------------------------------------------------------------
// DLQ routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerDLQRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("dlq"))

	if err := g.GET("/dlq", a.listDLQForge,
		forge.WithSummary("List DLQ entries"),
		forge.WithDescription("Returns dead letter queue entries, optionally filtered by tenant."),
		forge.WithOperationID("listDLQ"),
		forge.WithRequestSchema(ListDLQForgeRequest{}),
		forge.WithListResponse(dlq.Entry{}, http.StatusOK),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register listDLQ route", forge.Error(err))
	}

	if err := g.POST("/dlq/:dlqId/replay", a.replayDLQForge,
		forge.WithSummary("Replay DLQ entry"),
		forge.WithDescription("Enqueues a fresh outbox entry for a dead lettered delivery."),
		forge.WithOperationID("replayDLQ"),
		forge.WithCreatedResponse(outbox.Entry{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register replayDLQ route", forge.Error(err))
	}

	if err := g.POST("/dlq/replay", a.replayBulkDLQForge,
		forge.WithSummary("Bulk replay DLQ"),
		forge.WithDescription("Re-enqueues DLQ entries within a time range."),
		forge.WithOperationID("replayBulkDLQ"),
		forge.WithRequestSchema(ReplayBulkDLQForgeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Replay result", ReplayBulkForgeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register replayBulkDLQ route", forge.Error(err))
	}
}

func (a *ForgeAPI) listDLQForge(ctx forge.Context, req *ListDLQForgeRequest) ([]*dlq.Entry, error) {
	limit := req.Limit
	if limit == 0 {
		limit = 50
	}

	opts := dlq.ListOpts{
		Offset:   req.Offset,
		Limit:    limit,
		TenantID: req.TenantID,
	}

	entries, err := a.conduit.DLQ().List(ctx.Context(), opts)
	if err != nil {
		return nil, mapError(err)
	}

	return entries, nil
}

func (a *ForgeAPI) replayDLQForge(ctx forge.Context, req *ReplayDLQForgeRequest) (*outbox.Entry, error) {
	dlqID, err := id.ParseDLQID(req.DLQID)
	if err != nil {
		return nil, forge.BadRequest("invalid DLQ ID")
	}

	fresh, replayErr := a.conduit.DLQ().Replay(ctx.Context(), dlqID)
	if replayErr != nil {
		return nil, mapError(replayErr)
	}

	if err := ctx.JSON(http.StatusCreated, fresh); err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.JSON.
	return nil, nil
}

func (a *ForgeAPI) replayBulkDLQForge(ctx forge.Context, req *ReplayBulkDLQForgeRequest) (*ReplayBulkForgeResponse, error) {
	from, err := time.Parse(time.RFC3339, req.From)
	if err != nil {
		return nil, forge.BadRequest("invalid 'from' time format (use RFC3339)")
	}
	to, err := time.Parse(time.RFC3339, req.To)
	if err != nil {
		return nil, forge.BadRequest("invalid 'to' time format (use RFC3339)")
	}

	count, replayErr := a.conduit.DLQ().ReplayBulk(ctx.Context(), from, to)
	if replayErr != nil {
		return nil, mapError(replayErr)
	}

	return &ReplayBulkForgeResponse{Replayed: count}, nil
}

// ---------------------------------------------------------------------------
// Stats routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerStatsRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("stats"))

	if err := g.GET("/stats", a.getStatsForge,
		forge.WithSummary("System statistics"),
		forge.WithDescription("Returns aggregate counts of pending entries and DLQ entries."),
		forge.WithOperationID("getStats"),
		forge.WithResponseSchema(http.StatusOK, "System statistics", StatsForgeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getStats route", forge.Error(err))
	}
}

func (a *ForgeAPI) getStatsForge(ctx forge.Context, _ *StatsForgeRequest) (*StatsForgeResponse, error) {
	pending, err := a.conduit.Store().CountPending(ctx.Context())
	if err != nil {
		return nil, mapError(err)
	}

	dlqCount, err := a.conduit.Store().CountDLQ(ctx.Context())
	if err != nil {
		return nil, mapError(err)
	}

	return &StatsForgeResponse{
		PendingEntries: pending,
		DLQSize:        dlqCount,
	}, nil
}
