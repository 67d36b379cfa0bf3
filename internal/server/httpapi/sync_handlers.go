package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/notesync/internal/wire"
)

func (h *Handler) syncNotes(w http.ResponseWriter, r *http.Request) {
	var req wire.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := userIDFromContext(r.Context())
	resp, err := h.sync.Sync(r.Context(), userID, &req)
	if err != nil {
		h.logger.Warn(r.Context(), "sync failed", "user_id", userID, "error", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(userIDFromContext(r.Context()), w, r)
}
