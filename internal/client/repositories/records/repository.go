package records

import (
	"context"

	"github.com/dmitrijs2005/notesync/internal/client/models"
)

// Repository is the local store for decrypted records. Implementations are
// bound to a dbx.DBTX so the sync apply step can run inside one transaction.
type Repository interface {
	GetByID(ctx context.Context, id string) (*models.Record, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Record, error)
	GetAlive(ctx context.Context) ([]*models.Record, error)
	GetDirty(ctx context.Context) ([]*models.Record, error)
	GetSyncedTombstones(ctx context.Context) ([]*models.Record, error)
	Upsert(ctx context.Context, r *models.Record) error
	UpsertMany(ctx context.Context, rs []*models.Record) error
	DeleteByIDs(ctx context.Context, ids []string) error
	DeleteAll(ctx context.Context) error
}
