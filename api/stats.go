package api

import (
	"net/http"
)

type statsResponse struct {
	PendingEntries int64 `json:"pending_entries"`
	DLQSize        int64 `json:"dlq_size"`
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pending, err := h.conduit.Store().CountPending(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dlqCount, err := h.conduit.Store().CountDLQ(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		PendingEntries: pending,
		DLQSize:        dlqCount,
	})
}
