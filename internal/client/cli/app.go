// Package cli implements the interactive notesync client: a small REPL over
// the local store with background sync against the server.
package cli

import (
	"bufio"
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/notesync/internal/client/config"
	"github.com/dmitrijs2005/notesync/internal/client/localdb"
	"github.com/dmitrijs2005/notesync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/notesync/internal/client/services"
	"github.com/dmitrijs2005/notesync/internal/client/sync"
	"github.com/dmitrijs2005/notesync/internal/client/transport"
	"github.com/dmitrijs2005/notesync/internal/logging"
)

type App struct {
	config  *config.Config
	db      *localdb.LocalDB
	auth    services.AuthService
	records services.RecordService
	syncer  *sync.Syncer
	reader  *bufio.Reader

	// stops the current websocket listener, nil when none is running
	stopListener context.CancelFunc
}

func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	ctx := context.Background()

	db, err := localdb.Open(ctx, c.DatabaseFile)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	apiClient := transport.NewHTTPClient(c.ServerAddr)

	return &App{
		config:  c,
		db:      db,
		auth:    services.NewAuthService(apiClient, db),
		records: services.NewRecordService(db),
		syncer:  sync.NewSyncer(db, apiClient, logger),
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.db.Close()

	go a.syncer.Run(ctx, a.config.SyncInterval)
	a.startNotifications(ctx)
	a.syncer.Trigger()

	a.Root(ctx)
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	loggedIn, err := a.auth.LoggedIn(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return false
	}
	return loggedIn
}

// startNotifications (re)connects the websocket listener with the current
// session token so pushes from other devices trigger a sync immediately.
// Without a session it is a no-op; the interval ticker still syncs.
func (a *App) startNotifications(ctx context.Context) {
	if a.stopListener != nil {
		a.stopListener()
		a.stopListener = nil
	}

	token, err := a.db.Metadata(a.db.DB).Get(ctx, metadata.KeyAuthToken)
	if err != nil || len(token) == 0 {
		return
	}

	listenCtx, cancel := context.WithCancel(ctx)
	a.stopListener = cancel
	listener := transport.NewWSListener(a.config.ServerAddr, string(token), a.syncer.Trigger)
	go func() {
		if err := listener.Run(listenCtx); err != nil && listenCtx.Err() == nil {
			log.Printf("notification listener stopped: %v", err)
		}
	}()
}
