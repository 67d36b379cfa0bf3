package httpapi

import (
	"encoding/json"
	"net/http"
	"unicode/utf8"
)

// CredentialsRequest is the body of /api/register and /api/login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly minted access token.
type TokenResponse struct {
	Token string `json:"token"`
}

// WipeRequest re-confirms the password before destroying account data.
type WipeRequest struct {
	Password string `json:"password"`
}

const (
	minPasswordLen = 8
	maxUsernameLen = 64
)

func (req *CredentialsRequest) validate() string {
	if req.Username == "" || utf8.RuneCountInString(req.Username) > maxUsernameLen {
		return "invalid username"
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLen {
		return "password too short"
	}
	return ""
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	if _, err := h.users.Register(r.Context(), req.Username, req.Password); err != nil {
		h.logger.Warn(r.Context(), "registration failed", "username", req.Username, "error", err)
		// most likely a duplicate username; don't reveal which
		respondError(w, http.StatusConflict, "registration failed")
		return
	}

	token, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, TokenResponse{Token: token})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	token, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, TokenResponse{Token: token})
}

func (h *Handler) wipe(w http.ResponseWriter, r *http.Request) {
	var req WipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	userID := userIDFromContext(r.Context())
	if err := h.users.Wipe(r.Context(), userID, req.Password); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, struct{}{})
}
