package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/wire"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, wire.ErrorResponse{Error: message, StatusCode: status})
}

// respondServiceError maps service errors to HTTP statuses. Unknown errors
// become an opaque 500 so internals never leak to clients.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		respondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrInvalidSyncToken):
		respondError(w, http.StatusBadRequest, "sync token mismatch")
	case errors.Is(err, common.ErrStorageLimitExceeded):
		respondError(w, http.StatusRequestEntityTooLarge, "storage limit exceeded")
	case errors.Is(err, common.ErrorNotFound):
		respondError(w, http.StatusNotFound, "not found")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
