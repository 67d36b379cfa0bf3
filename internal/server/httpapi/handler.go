// Package httpapi exposes the server over JSON/HTTP: account endpoints,
// the sync endpoint and the websocket notification endpoint.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/notesync/internal/logging"
	"github.com/dmitrijs2005/notesync/internal/server/models"
	"github.com/dmitrijs2005/notesync/internal/wire"
)

// UserService is the slice of the account service the API needs.
type UserService interface {
	Register(ctx context.Context, username string, password string) (*models.User, error)
	Login(ctx context.Context, userName string, password string) (string, error)
	Wipe(ctx context.Context, userID string, password string) error
}

// SyncService is the slice of the reconciler the API needs.
type SyncService interface {
	Sync(ctx context.Context, userID string, req *wire.SyncRequest) (*wire.SyncResponse, error)
}

// WSHub upgrades authenticated requests to notification sessions.
type WSHub interface {
	ServeWS(userID string, w http.ResponseWriter, r *http.Request)
}

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	users     UserService
	sync      SyncService
	hub       WSHub
	jwtSecret []byte
	logger    logging.Logger
}

func NewHandler(users UserService, sync SyncService, hub WSHub, jwtSecret []byte, logger logging.Logger) *Handler {
	return &Handler{
		users:     users,
		sync:      sync,
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    logger.With("module", "httpapi"),
	}
}

// Router builds the route table. Everything under /api except register and
// login requires a bearer token.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/register", h.register).Methods("POST")
	api.HandleFunc("/login", h.login).Methods("POST")

	protected := api.NewRoute().Subrouter()
	protected.Use(h.withAuth)
	protected.HandleFunc("/sync", h.syncNotes).Methods("POST")
	protected.HandleFunc("/wipe", h.wipe).Methods("POST")
	protected.HandleFunc("/ws", h.serveWS).Methods("GET")

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
