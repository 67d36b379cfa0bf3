// Package services implements the server-side business logic: the sync
// reconciler, account management and background maintenance.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/dbx"
	"github.com/dmitrijs2005/notesync/internal/logging"
	"github.com/dmitrijs2005/notesync/internal/server/models"
	"github.com/dmitrijs2005/notesync/internal/server/repositories/notes"
	"github.com/dmitrijs2005/notesync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/notesync/internal/wire"
)

// Notifier lets the reconciler tell a user's other live sessions that a push
// happened so they can re-sync promptly. Best-effort: a missed notification
// is harmless because periodic sync catches up eventually.
type Notifier interface {
	NotifyPushed(userID string)
}

// SyncService reconciles client pushes against stored rows and computes the
// pull set, all inside one database transaction per request.
type SyncService struct {
	db           *sql.DB
	repos        repomanager.RepositoryManager
	logger       logging.Logger
	notifier     Notifier
	storageLimit int64

	// now is a seam for tests; returns server time.
	now func() time.Time
}

// NewSyncService constructs the reconciler. storageLimit is the per-user
// ciphertext byte quota; zero disables the quota. notifier may be nil.
func NewSyncService(db *sql.DB, repos repomanager.RepositoryManager, storageLimit int64, notifier Notifier, logger logging.Logger) *SyncService {
	return &SyncService{
		db:           db,
		repos:        repos,
		logger:       logger.With("module", "sync_service"),
		notifier:     notifier,
		storageLimit: storageLimit,
		now:          time.Now,
	}
}

// Sync applies one push+pull round-trip for userID.
//
// Within a single transaction it binds the sync token, enforces the storage
// quota, classifies every incoming Put as accept / idempotent no-op /
// conflict, applies accepted writes, and computes the pull set (rows changed
// after the client's cursor, minus ids reported as conflicts this round).
// Any error rolls back the whole batch; partial application is impossible.
func (s *SyncService) Sync(ctx context.Context, userID string, req *wire.SyncRequest) (*wire.SyncResponse, error) {
	var resp *wire.SyncResponse
	var pushed bool

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		userRepo := s.repos.Users(tx)
		noteRepo := s.repos.Notes(tx)

		user, err := userRepo.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}

		// Token binding: first sync adopts the client's token, afterwards it
		// must match exactly. A mismatch is a hard rejection, not a conflict.
		if user.SyncToken == "" {
			if err := userRepo.SetSyncToken(ctx, userID, req.SyncToken); err != nil {
				return fmt.Errorf("adopt sync token: %w", err)
			}
		} else if user.SyncToken != req.SyncToken {
			return common.ErrInvalidSyncToken
		}

		ids := make([]string, 0, len(req.Puts))
		for i := range req.Puts {
			ids = append(ids, req.Puts[i].ID)
		}
		existingRows, err := noteRepo.GetByClientIDs(ctx, userID, ids)
		if err != nil {
			return fmt.Errorf("load existing rows: %w", err)
		}
		existing := make(map[string]*models.NoteRow, len(existingRows))
		for _, row := range existingRows {
			existing[row.ClientID] = row
		}

		if err := s.checkQuota(ctx, noteRepo, userID, req.Puts, existing); err != nil {
			return err
		}

		now := s.now().UnixMilli()
		var inserts, updates []*models.NoteRow
		var conflicts []wire.Put
		conflictIDs := make(map[string]struct{})

		for i := range req.Puts {
			p := &req.Puts[i]
			old, ok := existing[p.ID]
			switch {
			case !ok:
				// Genuine create.
				row := models.RowFromPut(userID, p)
				row.ServerCreatedAt = now
				row.ServerUpdatedAt = now
				if row.Deleted() {
					row.ServerDeletedAt = now
				}
				inserts = append(inserts, row)
				existing[p.ID] = row
			case p.Version > old.Version:
				// Genuine forward write.
				row := models.RowFromPut(userID, p)
				row.ServerCreatedAt = old.ServerCreatedAt
				row.ServerUpdatedAt = now
				if row.Deleted() {
					row.ServerDeletedAt = now
				}
				updates = append(updates, row)
				existing[p.ID] = row
			default:
				stored := old.ToPut()
				if stored.Equal(p) {
					// Client retrying after a lost response; drop silently.
					continue
				}
				// Stale write with different content: the stored row stays
				// authoritative and goes back to the client as a conflict.
				conflicts = append(conflicts, stored)
				conflictIDs[p.ID] = struct{}{}
			}
		}

		if err := noteRepo.BulkInsert(ctx, inserts); err != nil {
			return fmt.Errorf("apply creates: %w", err)
		}
		if err := noteRepo.BulkUpdate(ctx, updates); err != nil {
			return fmt.Errorf("apply updates: %w", err)
		}
		pushed = len(inserts)+len(updates) > 0

		pulled, err := noteRepo.SelectUpdatedSince(ctx, userID, req.LastSyncedTo)
		if err != nil {
			return fmt.Errorf("compute pull set: %w", err)
		}

		syncedTo := req.LastSyncedTo
		puts := make([]wire.Put, 0, len(pulled))
		for _, row := range pulled {
			if _, isConflict := conflictIDs[row.ClientID]; isConflict {
				// The client already holds the authoritative view via the
				// conflict payload; do not also pull it.
				continue
			}
			if row.ServerUpdatedAt > syncedTo {
				syncedTo = row.ServerUpdatedAt
			}
			puts = append(puts, row.ToPut())
		}

		resp = &wire.SyncResponse{Puts: puts, Conflicts: conflicts, SyncedTo: syncedTo}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if pushed && s.notifier != nil {
		s.notifier.NotifyPushed(userID)
	}
	return resp, nil
}

// checkQuota projects the user's total stored ciphertext length as if every
// incoming Put were accepted and rejects the request wholesale if the quota
// would be exceeded. Runs before any mutation.
func (s *SyncService) checkQuota(ctx context.Context, repo notes.Repository, userID string, puts []wire.Put, existing map[string]*models.NoteRow) error {
	if s.storageLimit <= 0 {
		return nil
	}
	total, err := repo.SumCipherLen(ctx, userID)
	if err != nil {
		return fmt.Errorf("sum cipher length: %w", err)
	}
	projected := total
	for i := range puts {
		if old, ok := existing[puts[i].ID]; ok {
			projected -= int64(len(old.CipherText))
		}
		projected += int64(len(puts[i].CipherText))
	}
	if projected > s.storageLimit {
		return common.ErrStorageLimitExceeded
	}
	return nil
}
