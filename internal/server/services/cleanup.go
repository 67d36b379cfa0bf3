package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/notesync/internal/logging"
	"github.com/dmitrijs2005/notesync/internal/server/repositories/repomanager"
)

// CleanupService periodically removes tombstoned rows older than the
// configured retention. Every live client is assumed to have synced the
// deletion by then.
type CleanupService struct {
	db        *sql.DB
	repos     repomanager.RepositoryManager
	logger    logging.Logger
	retention time.Duration
	interval  time.Duration

	now func() time.Time
}

func NewCleanupService(db *sql.DB, repos repomanager.RepositoryManager, retention, interval time.Duration, logger logging.Logger) *CleanupService {
	return &CleanupService{
		db:        db,
		repos:     repos,
		logger:    logger.With("module", "cleanup_service"),
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// RunOnce deletes expired tombstones and returns the number of rows removed.
func (s *CleanupService) RunOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention).UnixMilli()
	return s.repos.Notes(s.db).DeleteTombstonedBefore(ctx, cutoff)
}

// Run executes RunOnce on every tick until ctx is cancelled. Errors are
// logged and the loop keeps going.
func (s *CleanupService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.RunOnce(ctx)
			if err != nil {
				s.logger.Error(ctx, "tombstone cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				s.logger.Info(ctx, "tombstone cleanup", "removed", removed)
			}
		}
	}
}
