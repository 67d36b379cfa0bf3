package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/dbx"
	"github.com/dmitrijs2005/notesync/internal/logging"
	"github.com/dmitrijs2005/notesync/internal/server/models"
	"github.com/dmitrijs2005/notesync/internal/server/repositories/notes"
	"github.com/dmitrijs2005/notesync/internal/server/repositories/users"
	"github.com/dmitrijs2005/notesync/internal/wire"
)

// --- in-memory fakes ---

type fakeUsersRepo struct {
	users map[string]*models.User
}

func (r *fakeUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUsersRepo) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	for _, u := range r.users {
		if u.UserName == userName {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (r *fakeUsersRepo) SetSyncToken(ctx context.Context, id string, token string) error {
	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.SyncToken = token
	return nil
}

type fakeNotesRepo struct {
	rows map[string]*models.NoteRow // keyed by client id; single-user tests
}

func (r *fakeNotesRepo) GetByClientIDs(ctx context.Context, userID string, clientIDs []string) ([]*models.NoteRow, error) {
	var out []*models.NoteRow
	for _, id := range clientIDs {
		if row, ok := r.rows[id]; ok {
			copied := *row
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeNotesRepo) BulkInsert(ctx context.Context, rows []*models.NoteRow) error {
	for _, row := range rows {
		r.rows[row.ClientID] = row
	}
	return nil
}

func (r *fakeNotesRepo) BulkUpdate(ctx context.Context, rows []*models.NoteRow) error {
	for _, row := range rows {
		r.rows[row.ClientID] = row
	}
	return nil
}

func (r *fakeNotesRepo) SelectUpdatedSince(ctx context.Context, userID string, since int64) ([]*models.NoteRow, error) {
	var out []*models.NoteRow
	for _, row := range r.rows {
		if row.ServerUpdatedAt > since {
			copied := *row
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServerUpdatedAt < out[j].ServerUpdatedAt })
	return out, nil
}

func (r *fakeNotesRepo) SumCipherLen(ctx context.Context, userID string) (int64, error) {
	var total int64
	for _, row := range r.rows {
		total += int64(len(row.CipherText))
	}
	return total, nil
}

func (r *fakeNotesRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	for id := range r.rows {
		delete(r.rows, id)
	}
	return nil
}

func (r *fakeNotesRepo) DeleteTombstonedBefore(ctx context.Context, cutoff int64) (int64, error) {
	var removed int64
	for id, row := range r.rows {
		if row.ServerDeletedAt != 0 && row.ServerDeletedAt < cutoff {
			delete(r.rows, id)
			removed++
		}
	}
	return removed, nil
}

type fakeRepoManager struct {
	usersRepo *fakeUsersRepo
	notesRepo *fakeNotesRepo
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                  { return m.usersRepo }
func (m *fakeRepoManager) Notes(db dbx.DBTX) notes.Repository                  { return m.notesRepo }

type fakeNotifier struct {
	notified []string
}

func (n *fakeNotifier) NotifyPushed(userID string) { n.notified = append(n.notified, userID) }

// --- fixture ---

const (
	testUserID = "d2b8ef20-26a6-4c5a-a3ee-566ad89a2f01"
	testToken  = "AAAAAAAAAAAAAAAAAAAAAA=="
	testNow    = int64(5000)
)

type syncFixture struct {
	svc      *SyncService
	mock     sqlmock.Sqlmock
	users    *fakeUsersRepo
	notes    *fakeNotesRepo
	notifier *fakeNotifier
}

func newSyncFixture(t *testing.T, storageLimit int64) *syncFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &syncFixture{
		mock: mock,
		users: &fakeUsersRepo{users: map[string]*models.User{
			testUserID: {ID: testUserID, UserName: "alice", SyncToken: testToken},
		}},
		notes:    &fakeNotesRepo{rows: map[string]*models.NoteRow{}},
		notifier: &fakeNotifier{},
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.svc = NewSyncService(db, &fakeRepoManager{usersRepo: f.users, notesRepo: f.notes}, storageLimit, f.notifier, logger)
	f.svc.now = func() time.Time { return time.UnixMilli(testNow) }
	return f
}

func makePut(id string, version int64, cipher string) wire.Put {
	return wire.Put{
		ID:         id,
		Type:       wire.TypeNote,
		CreatedAt:  100,
		UpdatedAt:  200,
		Version:    version,
		CipherText: cipher,
		IV:         "aXY=",
	}
}

func storedRow(id string, version int64, cipher string, serverUpdatedAt int64) *models.NoteRow {
	return &models.NoteRow{
		UserID:          testUserID,
		ClientID:        id,
		Type:            wire.TypeNote,
		CipherText:      cipher,
		IV:              "aXY=",
		Version:         version,
		CreatedAt:       100,
		UpdatedAt:       200,
		ServerCreatedAt: serverUpdatedAt,
		ServerUpdatedAt: serverUpdatedAt,
	}
}

// --- tests ---

const (
	idA = "11111111-1111-4111-8111-111111111111"
	idB = "22222222-2222-4222-8222-222222222222"
)

func TestSync_CreateIsAcceptedAndEchoedBack(t *testing.T) {
	f := newSyncFixture(t, 0)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	resp, err := f.svc.Sync(context.Background(), testUserID, &wire.SyncRequest{
		LastSyncedTo: 0,
		SyncToken:    testToken,
		Puts:         []wire.Put{makePut(idA, 1, "abc")},
	})
	require.NoError(t, err)

	row := f.notes.rows[idA]
	require.NotNil(t, row)
	assert.Equal(t, testNow, row.ServerUpdatedAt)
	assert.Equal(t, testNow, row.ServerCreatedAt)

	// accepted write comes back in the pull set so the client can mark it synced
	require.Len(t, resp.Puts, 1)
	assert.Equal(t, idA, resp.Puts[0].ID)
	assert.Empty(t, resp.Conflicts)
	assert.Equal(t, testNow, resp.SyncedTo)
	assert.Equal(t, []string{testUserID}, f.notifier.notified)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSync_FirstSyncAdoptsToken(t *testing.T) {
	f := newSyncFixture(t, 0)
	f.users.users[testUserID].SyncToken = ""
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	_, err := f.svc.Sync(context.Background(), testUserID, &wire.SyncRequest{SyncToken: testToken})
	require.NoError(t, err)
	assert.Equal(t, testToken, f.users.users[testUserID].SyncToken)
}

func TestSync_TokenMismatchIsRejected(t *testing.T) {
	f := newSyncFixture(t, 0)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Sync(context.Background(), testUserID, &wire.SyncRequest{
		SyncToken: "BBBBBBBBBBBBBBBBBBBBBB==",
		Puts:      []wire.Put{makePut(idA, 1, "abc")},
	})
	require.ErrorIs(t, err, common.ErrInvalidSyncToken)
	assert.Empty(t, f.notes.rows, "rejected request must not write")
	assert.Empty(t, f.notifier.notified)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSync_ForwardWriteReplacesRow(t *testing.T) {
	f := newSyncFixture(t, 0)
	f.notes.rows[idA] = storedRow(idA, 1, "old", 1000)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	put := makePut(idA, 2, "new")
	resp, err := f.svc.Sync(context.Background(), testUserID, &wire.SyncRequest{
		LastSyncedTo: 1000,
		SyncToken:    testToken,
		Puts:         []wire.Put{put},
	})
	require.NoError(t, err)

	row := f.notes.rows[idA]
	assert.Equal(t, int64(2), row.Version)
	assert.Equal(t, "new", row.CipherText)
	assert.Equal(t, testNow, row.ServerUpdatedAt)
	assert.Equal(t, int64(1000), row.ServerCreatedAt, "creation timestamp is preserved on update")
	assert.Empty(t, resp.Conflicts)
	assert.Equal(t, testNow, resp.SyncedTo)
}

func TestSync_IdempotentRetryIsDroppedSilently(t *testing.T) {
	f := newSyncFixture(t, 0)
	f.notes.rows[idA] = storedRow(idA, 2, "same", 1000)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	resp, err := f.svc.Sync(context.Background(), testUserID, &wire.SyncRequest{
		LastSyncedTo: 1000,
		SyncToken:    testToken,
		Puts:         []wire.Put{makePut(idA, 2, "same")},
	})
	require.NoError(t, err)

	assert.Empty(t, resp.Conflicts, "identical retry is not a conflict")
	assert.Empty(t, resp.Puts)
	assert.Equal(t, int64(1000), resp.SyncedTo)
	assert.Equal(t, int64(1000), f.notes.rows[idA].ServerUpdatedAt, "retry must not rewrite the row")
	assert.Empty(t, f.notifier.notified, "no write means no notification")
}

func TestSync_StaleWriteReturnsConflict(t *testing.T) {
	f := newSyncFixture(t, 0)
	f.notes.rows[idA] = storedRow(idA, 2, "server-content", 2000)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	resp, err := f.svc.Sync(context.Background(), testUserID, &wire.SyncRequest{
		LastSyncedTo: 1000,
		SyncToken:    testToken,
		Puts:         []wire.Put{makePut(idA, 2, "client-content")},
	})
	require.NoError(t, err)

	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, "server-content", resp.Conflicts[0].CipherText, "conflict carries the authoritative row")
	assert.Equal(t, "server-content", f.notes.rows[idA].CipherText, "stored row is untouched")

	// the conflicting id is excluded from the pull set even though its
	// server_updated_at is past the cursor
	for _, p := range resp.Puts {
		assert.NotEqual(t, idA, p.ID)
	}
}

func TestSync_PullSetExcludesConflictsButKeepsOthers(t *testing.T) {
	f := newSyncFixture(t, 0)
	f.notes.rows[idA] = storedRow(idA, 2, "server-a", 3000)
	f.notes.rows[idB] = storedRow(idB, 1, "server-b", 2000)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	resp, err := f.svc.Sync(context.Background(), testUserID, &wire.SyncRequest{
		LastSyncedTo: 1000,
		SyncToken:    testToken,
		Puts:         []wire.Put{makePut(idA, 2, "client-a")},
	})
	require.NoError(t, err)

	require.Len(t, resp.Puts, 1)
	assert.Equal(t, idB, resp.Puts[0].ID)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, idA, resp.Conflicts[0].ID)
	assert.Equal(t, int64(2000), resp.SyncedTo, "cursor advances over pulled rows only")
}

func TestSync_CursorNeverRegresses(t *testing.T) {
	f := newSyncFixture(t, 0)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	resp, err := f.svc.Sync(context.Background(), testUserID, &wire.SyncRequest{
		LastSyncedTo: 9999,
		SyncToken:    testToken,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9999), resp.SyncedTo)
}

func TestSync_QuotaExceededRejectsWholeBatch(t *testing.T) {
	f := newSyncFixture(t, 10)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Sync(context.Background(), testUserID, &wire.SyncRequest{
		SyncToken: testToken,
		Puts: []wire.Put{
			makePut(idA, 1, "12345"),
			makePut(idB, 1, "1234567890"),
		},
	})
	require.ErrorIs(t, err, common.ErrStorageLimitExceeded)
	assert.Empty(t, f.notes.rows, "nothing may be written when the batch is over quota")
}

func TestSync_QuotaCountsReplacedRowOnlyOnce(t *testing.T) {
	f := newSyncFixture(t, 10)
	f.notes.rows[idA] = storedRow(idA, 1, "1234567890", 1000)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	// replacing a 10-byte row with a 5-byte row stays under the 10-byte limit
	_, err := f.svc.Sync(context.Background(), testUserID, &wire.SyncRequest{
		LastSyncedTo: 1000,
		SyncToken:    testToken,
		Puts:         []wire.Put{makePut(idA, 2, "12345")},
	})
	require.NoError(t, err)
	assert.Equal(t, "12345", f.notes.rows[idA].CipherText)
}

func TestSync_TombstoneSetsServerDeletedAt(t *testing.T) {
	f := newSyncFixture(t, 0)
	f.notes.rows[idA] = storedRow(idA, 1, "content", 1000)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	tombstone := wire.Put{
		ID:        idA,
		Type:      wire.TypeNote,
		CreatedAt: 100,
		UpdatedAt: 300,
		Version:   2,
		DeletedAt: 300,
	}
	_, err := f.svc.Sync(context.Background(), testUserID, &wire.SyncRequest{
		LastSyncedTo: 1000,
		SyncToken:    testToken,
		Puts:         []wire.Put{tombstone},
	})
	require.NoError(t, err)

	row := f.notes.rows[idA]
	assert.True(t, row.Deleted())
	assert.Equal(t, testNow, row.ServerDeletedAt)
	assert.Empty(t, row.CipherText)
}

func TestSync_DuplicateIDsInOneBatch(t *testing.T) {
	f := newSyncFixture(t, 0)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	// second occurrence sees the first as the stored row: v2 > v1, accepted
	resp, err := f.svc.Sync(context.Background(), testUserID, &wire.SyncRequest{
		SyncToken: testToken,
		Puts: []wire.Put{
			makePut(idA, 1, "first"),
			makePut(idA, 2, "second"),
		},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Conflicts)
	assert.Equal(t, "second", f.notes.rows[idA].CipherText)
	assert.Equal(t, int64(2), f.notes.rows[idA].Version)
}

func TestCleanup_RemovesOnlyExpiredTombstones(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	notesRepo := &fakeNotesRepo{rows: map[string]*models.NoteRow{}}
	old := storedRow(idA, 2, "", 1000)
	old.DeletedAt = 1000
	old.ServerDeletedAt = 1000
	fresh := storedRow(idB, 2, "", 4000)
	fresh.DeletedAt = 4000
	fresh.ServerDeletedAt = 4000
	notesRepo.rows[idA] = old
	notesRepo.rows[idB] = fresh

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := NewCleanupService(db, &fakeRepoManager{notesRepo: notesRepo}, time.Second, time.Hour, logger)
	svc.now = func() time.Time { return time.UnixMilli(3000) }

	removed, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.NotContains(t, notesRepo.rows, idA)
	assert.Contains(t, notesRepo.rows, idB)
}
