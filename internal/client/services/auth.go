// Package services contains the application services behind the CLI:
// account/session management and local record editing. The sync round-trip
// itself lives in the sync package.
package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/notesync/internal/client/localdb"
	"github.com/dmitrijs2005/notesync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/notesync/internal/client/transport"
	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/cryptox"
	"github.com/dmitrijs2005/notesync/internal/dbx"
)

// AuthService manages the account session and the key+token pair.
//
// The pair is the real secret: whoever holds it can decrypt the records and
// address the account's sync scope. Login only establishes an API session;
// a fresh pair is generated on first login and must be imported (ImportPair)
// on every further device.
type AuthService interface {
	Register(ctx context.Context, username string, password []byte) error
	Login(ctx context.Context, username string, password []byte) error
	Logout(ctx context.Context) error
	LoggedIn(ctx context.Context) (bool, error)
	UserName(ctx context.Context) (string, error)
	ExportPair(ctx context.Context) (string, error)
	ImportPair(ctx context.Context, encoded string) error
	Wipe(ctx context.Context, password []byte) error
}

type authService struct {
	client transport.Client
	db     *localdb.LocalDB
}

func NewAuthService(client transport.Client, db *localdb.LocalDB) AuthService {
	return &authService{client: client, db: db}
}

func (a *authService) meta() metadata.Repository {
	return a.db.Metadata(a.db.DB)
}

func (a *authService) Register(ctx context.Context, username string, password []byte) error {
	token, err := a.client.Register(ctx, username, string(password))
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return a.saveSession(ctx, username, token)
}

func (a *authService) Login(ctx context.Context, username string, password []byte) error {
	token, err := a.client.Login(ctx, username, string(password))
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return a.saveSession(ctx, username, token)
}

// saveSession stores the session and, on a first device, generates the
// key+token pair. An already stored pair is never replaced here: a second
// device logging in must import the first device's pair instead.
func (a *authService) saveSession(ctx context.Context, username, token string) error {
	return dbx.WithTx(ctx, a.db.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		meta := a.db.Metadata(tx)
		if err := meta.Set(ctx, metadata.KeyUserName, []byte(username)); err != nil {
			return err
		}
		if err := meta.Set(ctx, metadata.KeyAuthToken, []byte(token)); err != nil {
			return err
		}
		existing, err := meta.Get(ctx, metadata.KeyKeyTokenPair)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}
		pair := cryptox.NewKeyTokenPair()
		return meta.Set(ctx, metadata.KeyKeyTokenPair, []byte(pair.Encode()))
	})
}

// Logout drops the API session. Records and the key+token pair stay local so
// the user keeps reading their notes offline.
func (a *authService) Logout(ctx context.Context) error {
	return a.meta().Delete(ctx, metadata.KeyAuthToken)
}

func (a *authService) LoggedIn(ctx context.Context) (bool, error) {
	token, err := a.meta().Get(ctx, metadata.KeyAuthToken)
	if err != nil {
		return false, err
	}
	return len(token) > 0, nil
}

func (a *authService) UserName(ctx context.Context) (string, error) {
	name, err := a.meta().Get(ctx, metadata.KeyUserName)
	if err != nil {
		return "", err
	}
	return string(name), nil
}

func (a *authService) ExportPair(ctx context.Context) (string, error) {
	raw, err := a.meta().Get(ctx, metadata.KeyKeyTokenPair)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", common.ErrorNotFound
	}
	return string(raw), nil
}

// ImportPair replaces the stored pair with one pasted from another device.
// The paste is verified before anything is overwritten, and the sync cursor
// is reset so the next round pulls the full history of the new scope.
func (a *authService) ImportPair(ctx context.Context, encoded string) error {
	pair, err := cryptox.DecodeKeyTokenPair(encoded)
	if err != nil {
		return fmt.Errorf("import pair: %w", err)
	}
	return dbx.WithTx(ctx, a.db.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		meta := a.db.Metadata(tx)
		if err := meta.Set(ctx, metadata.KeyKeyTokenPair, []byte(pair.Encode())); err != nil {
			return err
		}
		return meta.Delete(ctx, metadata.KeyLastSyncedTo)
	})
}

// Wipe destroys the account's server-side data (the server re-verifies the
// password) and then clears the whole local store including the pair.
func (a *authService) Wipe(ctx context.Context, password []byte) error {
	token, err := a.meta().Get(ctx, metadata.KeyAuthToken)
	if err != nil {
		return err
	}
	if len(token) == 0 {
		return common.ErrorUnauthorized
	}
	if err := a.client.Wipe(ctx, string(token), string(password)); err != nil {
		return fmt.Errorf("wipe: %w", err)
	}
	return dbx.WithTx(ctx, a.db.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := a.db.Records(tx).DeleteAll(ctx); err != nil {
			return err
		}
		if err := a.db.BaseVers(tx).DeleteAll(ctx); err != nil {
			return err
		}
		return a.db.Metadata(tx).Clear(ctx)
	})
}
