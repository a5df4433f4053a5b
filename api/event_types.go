package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xraph/conduit/catalog"
)

type createEventTypeRequest struct {
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Group         string            `json:"group,omitempty"`
	Schema        json.RawMessage   `json:"schema,omitempty"`
	SchemaVersion string            `json:"schema_version,omitempty"`
	Version       string            `json:"version,omitempty"`
	ScopeAppID    string            `json:"scope_app_id,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// registry returns the configured event type registry, writing an error
// response when none was configured.
func (h *Handler) registry(w http.ResponseWriter) *catalog.Registry {
	reg := h.conduit.Catalog()
	if reg == nil {
		writeError(w, http.StatusNotImplemented, "event type catalog not configured")
	}
	return reg
}

func (h *Handler) createEventType(w http.ResponseWriter, r *http.Request) {
	reg := h.registry(w)
	if reg == nil {
		return
	}

	var req createEventTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
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
	writeJSON(w, http.StatusCreated, et)
}

func (h *Handler) listEventTypes(w http.ResponseWriter, r *http.Request) {
	reg := h.registry(w)
	if reg == nil {
		return
	}

	opts := catalog.ListOpts{
		Offset:            queryInt(r, "offset", 0),
		Limit:             queryInt(r, "limit", 50),
		Group:             queryParam(r, "group"),
		IncludeDeprecated: queryParam(r, "include_deprecated") == "true",
	}

	writeJSON(w, http.StatusOK, reg.ListTypes(opts))
}

func (h *Handler) getEventType(w http.ResponseWriter, r *http.Request) {
	reg := h.registry(w)
	if reg == nil {
		return
	}

	et, err := reg.GetType(r.PathValue("name"))
	if err != nil {
		if errors.Is(err, catalog.ErrTypeNotFound) {
			writeError(w, http.StatusNotFound, "event type not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, et)
}

func (h *Handler) deprecateEventType(w http.ResponseWriter, r *http.Request) {
	reg := h.registry(w)
	if reg == nil {
		return
	}

	if err := reg.DeprecateType(r.PathValue("name")); err != nil {
		if errors.Is(err, catalog.ErrTypeNotFound) {
			writeError(w, http.StatusNotFound, "event type not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
