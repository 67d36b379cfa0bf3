// Package transport talks to the sync server over its JSON HTTP API and
// listens for push notifications on its websocket endpoint.
package transport

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/notesync/internal/wire"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// Client is the server API surface the sync engine and CLI depend on.
type Client interface {
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
	Sync(ctx context.Context, token string, req *wire.SyncRequest) (*wire.SyncResponse, error)
	Wipe(ctx context.Context, token, password string) error
}
