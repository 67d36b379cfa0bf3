package notes

import (
	"context"

	"github.com/dmitrijs2005/notesync/internal/server/models"
)

// Repository is the storage contract the sync reconciler depends on. All
// methods operate on a single user's rows; implementations are bound to a
// dbx.DBTX so the reconciler can run them inside one transaction.
type Repository interface {
	GetByClientIDs(ctx context.Context, userID string, clientIDs []string) ([]*models.NoteRow, error)
	BulkInsert(ctx context.Context, rows []*models.NoteRow) error
	BulkUpdate(ctx context.Context, rows []*models.NoteRow) error
	SelectUpdatedSince(ctx context.Context, userID string, since int64) ([]*models.NoteRow, error)
	SumCipherLen(ctx context.Context, userID string) (int64, error)
	DeleteTombstonedBefore(ctx context.Context, cutoff int64) (int64, error)
	DeleteAllForUser(ctx context.Context, userID string) error
}
