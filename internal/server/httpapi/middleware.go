package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/notesync/internal/server/auth"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

// withAuth verifies the bearer token and stashes the user id in the request
// context. The websocket endpoint also accepts the token as a query
// parameter because browser websocket clients cannot set headers.
func (h *Handler) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			respondError(w, http.StatusUnauthorized, "missing token")
			return
		}
		userID, err := auth.GetUserIDFromToken(token, h.jwtSecret)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
