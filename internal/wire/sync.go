package wire

import (
	"encoding/base64"
	"fmt"
)

// SyncTokenLen is the base64 length of the 16-byte per-user sync token.
const SyncTokenLen = 24

// SyncRequest is one push+pull round-trip from a client.
type SyncRequest struct {
	LastSyncedTo int64  `json:"last_synced_to"`
	Puts         []Put  `json:"puts"`
	SyncToken    string `json:"sync_token"`
}

// Validate checks the request envelope and every contained Put.
func (r *SyncRequest) Validate() error {
	if r.LastSyncedTo < 0 {
		return fmt.Errorf("last_synced_to must be non-negative")
	}
	if len(r.SyncToken) != SyncTokenLen {
		return fmt.Errorf("sync_token must be %d characters", SyncTokenLen)
	}
	if _, err := base64.StdEncoding.DecodeString(r.SyncToken); err != nil {
		return fmt.Errorf("sync_token is not valid base64: %w", err)
	}
	for i := range r.Puts {
		if err := r.Puts[i].Validate(); err != nil {
			return fmt.Errorf("puts[%d]: %w", i, err)
		}
	}
	return nil
}

// SyncResponse is the server's answer to a SyncRequest. Puts are the pull
// set (changes the client has not seen), Conflicts carry the authoritative
// server rows for rejected writes, and SyncedTo is the new cursor. A record
// id never appears in both Puts and Conflicts of the same response.
type SyncResponse struct {
	Puts      []Put `json:"puts"`
	Conflicts []Put `json:"conflicts"`
	SyncedTo  int64 `json:"synced_to"`
}

// ErrorResponse is the failure shape for every endpoint. StatusCode 401
// specifically means "re-authenticate"; all other codes are transient or
// user-facing errors.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"statusCode"`
}
