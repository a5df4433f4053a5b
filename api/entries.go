package api

import (
	"errors"
	"net/http"

	conduit "github.com/xraph/conduit"
	"github.com/xraph/conduit/id"
	"github.com/xraph/conduit/outbox"
)

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	epID, err := id.ParseEndpointID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid endpoint ID")
		return
	}

	opts := outbox.ListOpts{
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", 50),
	}

	statusStr := queryParam(r, "status")
	if statusStr != "" {
		status := outbox.Status(statusStr)
		opts.Status = &status
	}

	entries, listErr := h.conduit.Store().ListByEndpoint(r.Context(), epID, opts)
	if listErr != nil {
		writeError(w, http.StatusInternalServerError, listErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) getEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := id.ParseEntryID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry ID")
		return
	}

	e, getErr := h.conduit.Store().GetEntry(r.Context(), entryID)
	if getErr != nil {
		if errors.Is(getErr, conduit.ErrEntryNotFound) {
			writeError(w, http.StatusNotFound, "entry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, getErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, e)
}
