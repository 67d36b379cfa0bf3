package basevers

import (
	"context"

	"github.com/dmitrijs2005/notesync/internal/client/models"
)

// Repository stores merge ancestors: the last copy of each record known to
// be in sync with the server.
type Repository interface {
	GetByIDs(ctx context.Context, ids []string) ([]*models.Record, error)
	UpsertMany(ctx context.Context, rs []*models.Record) error
	DeleteByIDs(ctx context.Context, ids []string) error
	DeleteAll(ctx context.Context) error
}
