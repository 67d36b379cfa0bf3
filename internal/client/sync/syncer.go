package sync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	stdsync "sync"
	"time"

	"github.com/dmitrijs2005/notesync/internal/client/codec"
	"github.com/dmitrijs2005/notesync/internal/client/localdb"
	"github.com/dmitrijs2005/notesync/internal/client/models"
	"github.com/dmitrijs2005/notesync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/notesync/internal/client/transport"
	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/cryptox"
	"github.com/dmitrijs2005/notesync/internal/dbx"
	"github.com/dmitrijs2005/notesync/internal/logging"
	"github.com/dmitrijs2005/notesync/internal/wire"
)

var (
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrNoKeyTokenPair = errors.New("no key+token pair configured")
)

// Syncer runs the push+pull round-trip against the server. Rounds are
// serialized: callers that trigger while a round is in flight get one
// coalesced follow-up round instead of a pile-up.
type Syncer struct {
	db     *localdb.LocalDB
	client transport.Client
	logger logging.Logger
	now    func() time.Time

	mu      stdsync.Mutex
	trigger chan struct{}

	conflictMu stdsync.Mutex
	unresolved []*Conflict
}

func NewSyncer(db *localdb.LocalDB, client transport.Client, logger logging.Logger) *Syncer {
	return &Syncer{
		db:      db,
		client:  client,
		logger:  logger,
		now:     time.Now,
		trigger: make(chan struct{}, 1),
	}
}

// Trigger requests a sync round without blocking. Triggers arriving while a
// round is running collapse into a single follow-up round.
func (s *Syncer) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run syncs on every trigger and on a fixed interval until ctx is done.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.trigger:
		}
		if err := s.SyncNow(ctx); err != nil {
			if errors.Is(err, ErrNotLoggedIn) || errors.Is(err, ErrNoKeyTokenPair) {
				continue
			}
			s.logger.Error(ctx, "sync failed", "error", err)
		}
	}
}

// SyncNow runs one full round: push dirty records, resolve conflicts against
// the stored ancestors, apply the pull set and advance the cursor.
func (s *Syncer) SyncNow(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta := s.db.Metadata(s.db.DB)

	pair, err := s.loadPair(ctx, meta)
	if err != nil {
		return err
	}
	authToken, err := meta.Get(ctx, metadata.KeyAuthToken)
	if err != nil {
		return fmt.Errorf("read auth token: %w", err)
	}
	if len(authToken) == 0 {
		return ErrNotLoggedIn
	}

	cursor, err := s.loadCursor(ctx, meta)
	if err != nil {
		return err
	}

	// snapshot the upload set so edits made while the request is in flight
	// can be detected when the echo comes back
	dirty, err := s.db.Records(s.db.DB).GetDirty(ctx)
	if err != nil {
		return fmt.Errorf("collect dirty records: %w", err)
	}
	upload := make([]*models.Record, 0, len(dirty))
	uploaded := make(map[string]*models.Record, len(dirty))
	for _, r := range dirty {
		if r.Empty() {
			continue
		}
		upload = append(upload, r)
		uploaded[r.ID] = r.Clone()
	}

	cdc := codec.New(pair.Key)
	puts, err := cdc.EncodeBatch(upload)
	if err != nil {
		return fmt.Errorf("encrypt upload: %w", err)
	}

	resp, err := s.client.Sync(ctx, string(authToken), &wire.SyncRequest{
		LastSyncedTo: cursor,
		Puts:         puts,
		SyncToken:    pair.SyncToken,
	})
	if err != nil {
		if errors.Is(err, transport.ErrUnauthorized) {
			// session expired; drop it so the user is asked to log in again
			if derr := meta.Delete(ctx, metadata.KeyAuthToken); derr != nil {
				s.logger.Warn(ctx, "failed to drop stale auth token", "error", derr)
			}
			return fmt.Errorf("%w: %w", ErrNotLoggedIn, err)
		}
		return fmt.Errorf("sync request: %w", err)
	}

	pulls, decodeErrs := cdc.DecodeBatch(resp.Puts)
	for _, derr := range decodeErrs {
		s.logger.Warn(ctx, "skipping undecryptable pulled record", "error", derr)
	}
	serverSides, decodeErrs := cdc.DecodeBatch(resp.Conflicts)
	for _, derr := range decodeErrs {
		s.logger.Warn(ctx, "skipping undecryptable conflict record", "error", derr)
	}

	merged, unresolved, err := s.resolveConflicts(ctx, serverSides)
	if err != nil {
		return err
	}

	applied, err := s.apply(ctx, uploaded, pulls, merged, cursor, resp.SyncedTo)
	if err != nil {
		return fmt.Errorf("apply sync response: %w", err)
	}

	s.queueUnresolved(unresolved)

	s.logger.Info(ctx, "sync finished",
		"pushed", len(puts),
		"pulled", len(pulls),
		"applied", applied,
		"merged", len(merged),
		"unresolved", len(unresolved),
		"synced_to", resp.SyncedTo,
	)
	return nil
}

func (s *Syncer) loadPair(ctx context.Context, meta metadata.Repository) (*cryptox.KeyTokenPair, error) {
	raw, err := meta.Get(ctx, metadata.KeyKeyTokenPair)
	if err != nil {
		return nil, fmt.Errorf("read key+token pair: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNoKeyTokenPair
	}
	pair, err := cryptox.DecodeKeyTokenPair(string(raw))
	if err != nil {
		return nil, fmt.Errorf("stored key+token pair is damaged: %w", err)
	}
	return pair, nil
}

func (s *Syncer) loadCursor(ctx context.Context, meta metadata.Repository) (int64, error) {
	raw, err := meta.Get(ctx, metadata.KeyLastSyncedTo)
	if err != nil {
		return 0, fmt.Errorf("read sync cursor: %w", err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	cursor, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("stored sync cursor is damaged: %w", err)
	}
	return cursor, nil
}

// mergedConflict pairs an automatic merge result with the server row it was
// merged against; the server row becomes the new ancestor.
type mergedConflict struct {
	record *models.Record
	server *models.Record
}

// resolveConflicts pairs each rejected write with its local copy and stored
// ancestor, merges what it can and returns the rest for the user.
func (s *Syncer) resolveConflicts(ctx context.Context, serverSides []*models.Record) ([]mergedConflict, []*Conflict, error) {
	if len(serverSides) == 0 {
		return nil, nil, nil
	}

	ids := make([]string, len(serverSides))
	for i, r := range serverSides {
		ids[i] = r.ID
	}
	locals, err := s.db.Records(s.db.DB).GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load local conflict sides: %w", err)
	}
	bases, err := s.db.BaseVers(s.db.DB).GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load conflict ancestors: %w", err)
	}
	localByID := make(map[string]*models.Record, len(locals))
	for _, r := range locals {
		localByID[r.ID] = r
	}
	baseByID := make(map[string]*models.Record, len(bases))
	for _, r := range bases {
		baseByID[r.ID] = r
	}

	now := s.now().UnixMilli()
	var merged []mergedConflict
	var unresolved []*Conflict
	for _, server := range serverSides {
		c := &Conflict{
			Local:  localByID[server.ID],
			Server: server,
			Base:   baseByID[server.ID],
		}
		if rec := c.Merge(now); rec != nil {
			merged = append(merged, mergedConflict{record: rec, server: server})
			continue
		}
		unresolved = append(unresolved, c)
	}
	return merged, unresolved, nil
}

// apply writes the round's outcome in one transaction: the pull set, merge
// results, ancestor updates, tombstone purge and the advanced cursor.
func (s *Syncer) apply(ctx context.Context, uploaded map[string]*models.Record, pulls []*models.Record, merged []mergedConflict, cursor, syncedTo int64) (int, error) {
	applied := 0
	err := dbx.WithTx(ctx, s.db.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		recs := s.db.Records(tx)
		bases := s.db.BaseVers(tx)
		meta := s.db.Metadata(tx)

		for _, pull := range pulls {
			curr, err := recs.GetByID(ctx, pull.ID)
			if err != nil && !errors.Is(err, common.ErrorNotFound) {
				return err
			}

			if up, wasUploaded := uploaded[pull.ID]; curr != nil && wasUploaded && curr.UpdatedAt > up.UpdatedAt {
				// edited while the push was in flight: keep the newer local
				// content but step past the server's accepted version
				keep := curr.Clone()
				if pull.Version > keep.Version {
					keep.Version = pull.Version
				}
				keep.Version++
				keep.State = models.StateDirty
				if err := recs.Upsert(ctx, keep); err != nil {
					return err
				}
				if err := bases.UpsertMany(ctx, []*models.Record{pull}); err != nil {
					return err
				}
				continue
			}
			if curr != nil && curr.Version >= pull.Version && curr.UpdatedAt != pull.UpdatedAt {
				// a concurrent local edit already superseded this row; it
				// will be pushed (and possibly conflict) next round
				continue
			}

			if err := recs.Upsert(ctx, pull); err != nil {
				return err
			}
			if err := bases.UpsertMany(ctx, []*models.Record{pull}); err != nil {
				return err
			}
			applied++
		}

		for _, m := range merged {
			if err := recs.Upsert(ctx, m.record); err != nil {
				return err
			}
			if err := bases.UpsertMany(ctx, []*models.Record{m.server}); err != nil {
				return err
			}
		}

		// tombstones acknowledged by the server are no longer needed locally
		gone, err := recs.GetSyncedTombstones(ctx)
		if err != nil {
			return err
		}
		if len(gone) > 0 {
			ids := make([]string, len(gone))
			for i, r := range gone {
				ids[i] = r.ID
			}
			if err := recs.DeleteByIDs(ctx, ids); err != nil {
				return err
			}
			if err := bases.DeleteByIDs(ctx, ids); err != nil {
				return err
			}
		}

		if syncedTo > cursor {
			return meta.Set(ctx, metadata.KeyLastSyncedTo, []byte(strconv.FormatInt(syncedTo, 10)))
		}
		return nil
	})
	return applied, err
}

// queueUnresolved replaces queued conflicts for the same record with the
// fresh round's view and appends the rest.
func (s *Syncer) queueUnresolved(conflicts []*Conflict) {
	if len(conflicts) == 0 {
		return
	}
	s.conflictMu.Lock()
	defer s.conflictMu.Unlock()

	byID := make(map[string]int, len(s.unresolved))
	for i, c := range s.unresolved {
		byID[c.Server.ID] = i
	}
	for _, c := range conflicts {
		if i, ok := byID[c.Server.ID]; ok {
			s.unresolved[i] = c
			continue
		}
		s.unresolved = append(s.unresolved, c)
	}
}

// Conflicts returns the queued conflicts awaiting a user decision.
func (s *Syncer) Conflicts() []*Conflict {
	s.conflictMu.Lock()
	defer s.conflictMu.Unlock()
	out := make([]*Conflict, len(s.unresolved))
	copy(out, s.unresolved)
	return out
}

// Resolve settles a queued conflict by record id. The chosen copy is written
// to the store (dirty when keeping local, so the next round pushes it) and
// the server row becomes the new ancestor.
func (s *Syncer) Resolve(ctx context.Context, id string, keepLocal bool) error {
	s.conflictMu.Lock()
	idx := -1
	for i, c := range s.unresolved {
		if c.Server.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.conflictMu.Unlock()
		return fmt.Errorf("no queued conflict for record %s: %w", id, common.ErrorNotFound)
	}
	c := s.unresolved[idx]
	s.conflictMu.Unlock()

	if keepLocal && c.Local == nil {
		return fmt.Errorf("record %s has no local copy to keep", id)
	}

	var rec *models.Record
	if keepLocal {
		rec = c.PickLocal()
	} else {
		rec = c.PickServer()
	}

	err := dbx.WithTx(ctx, s.db.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.db.Records(tx).Upsert(ctx, rec); err != nil {
			return err
		}
		return s.db.BaseVers(tx).UpsertMany(ctx, []*models.Record{c.Server})
	})
	if err != nil {
		return fmt.Errorf("apply conflict decision: %w", err)
	}

	s.conflictMu.Lock()
	for i, q := range s.unresolved {
		if q == c {
			s.unresolved = append(s.unresolved[:i], s.unresolved[i+1:]...)
			break
		}
	}
	s.conflictMu.Unlock()
	return nil
}
