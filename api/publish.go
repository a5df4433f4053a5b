package api

import (
	"encoding/json"
	"errors"
	"net/http"

	conduit "github.com/xraph/conduit"
)

type publishEventRequest struct {
	Type           string          `json:"type"`
	TenantID       string          `json:"tenant_id"`
	Data           json.RawMessage `json:"data"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

type publishEventResponse struct {
	Type     string `json:"type"`
	TenantID string `json:"tenant_id"`
	Status   string `json:"status"`
}

func (h *Handler) publishEvent(w http.ResponseWriter, r *http.Request) {
	var req publishEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Type == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}
	if req.TenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}

	var err error
	if req.IdempotencyKey != "" {
		err = h.conduit.PublishIdempotent(r.Context(), req.Type, req.Data, req.TenantID, req.IdempotencyKey)
	} else {
		err = h.conduit.Publish(r.Context(), req.Type, req.Data, req.TenantID)
	}

	if err != nil {
		switch {
		case errors.Is(err, conduit.ErrEventTypeNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, conduit.ErrEventTypeDeprecated):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, conduit.ErrPayloadValidationFailed):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, conduit.ErrDuplicateIdempotencyKey):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, conduit.ErrNoIdempotencyStore):
			writeError(w, http.StatusNotImplemented, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusAccepted, publishEventResponse{
		Type:     req.Type,
		TenantID: req.TenantID,
		Status:   "accepted",
	})
}
