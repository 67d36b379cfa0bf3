package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/notesync/internal/client/localdb"
	"github.com/dmitrijs2005/notesync/internal/client/models"
	"github.com/dmitrijs2005/notesync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/cryptox"
	"github.com/dmitrijs2005/notesync/internal/wire"
)

type fakeClient struct {
	registerErr error
	loginErr    error
	wipeErr     error
	wipeToken   string
	token       string
}

func (f *fakeClient) Register(ctx context.Context, username, password string) (string, error) {
	return f.token, f.registerErr
}

func (f *fakeClient) Login(ctx context.Context, username, password string) (string, error) {
	return f.token, f.loginErr
}

func (f *fakeClient) Sync(ctx context.Context, token string, req *wire.SyncRequest) (*wire.SyncResponse, error) {
	return &wire.SyncResponse{}, nil
}

func (f *fakeClient) Wipe(ctx context.Context, token, password string) error {
	f.wipeToken = token
	return f.wipeErr
}

func newTestDB(t *testing.T) *localdb.LocalDB {
	t.Helper()
	db, err := localdb.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLogin_SavesSessionAndGeneratesPair(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	fake := &fakeClient{token: "jwt-token"}
	svc := NewAuthService(fake, db)

	require.NoError(t, svc.Login(ctx, "alice", []byte("password123")))

	loggedIn, err := svc.LoggedIn(ctx)
	require.NoError(t, err)
	assert.True(t, loggedIn)

	name, err := svc.UserName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	encoded, err := svc.ExportPair(ctx)
	require.NoError(t, err)
	_, err = cryptox.DecodeKeyTokenPair(encoded)
	require.NoError(t, err)

	// a second login must not rotate the pair
	require.NoError(t, svc.Login(ctx, "alice", []byte("password123")))
	again, err := svc.ExportPair(ctx)
	require.NoError(t, err)
	assert.Equal(t, encoded, again)
}

func TestLogin_ServerErrorLeavesNoSession(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewAuthService(&fakeClient{loginErr: errors.New("boom")}, db)

	require.Error(t, svc.Login(ctx, "alice", []byte("password123")))
	loggedIn, err := svc.LoggedIn(ctx)
	require.NoError(t, err)
	assert.False(t, loggedIn)
}

func TestLogout_KeepsPair(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewAuthService(&fakeClient{token: "jwt-token"}, db)

	require.NoError(t, svc.Login(ctx, "alice", []byte("password123")))
	require.NoError(t, svc.Logout(ctx))

	loggedIn, err := svc.LoggedIn(ctx)
	require.NoError(t, err)
	assert.False(t, loggedIn)

	_, err = svc.ExportPair(ctx)
	require.NoError(t, err, "the pair survives logout")
}

func TestImportPair_ResetsCursor(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewAuthService(&fakeClient{token: "jwt-token"}, db)

	meta := db.Metadata(db.DB)
	require.NoError(t, meta.Set(ctx, metadata.KeyLastSyncedTo, []byte("5000")))

	pair := cryptox.NewKeyTokenPair()
	require.NoError(t, svc.ImportPair(ctx, pair.Encode()))

	cursor, err := meta.Get(ctx, metadata.KeyLastSyncedTo)
	require.NoError(t, err)
	assert.Nil(t, cursor, "new scope starts from the beginning")

	encoded, err := svc.ExportPair(ctx)
	require.NoError(t, err)
	assert.Equal(t, pair.Encode(), encoded)
}

func TestImportPair_RejectsDamage(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(&fakeClient{}, db)
	require.Error(t, svc.ImportPair(context.Background(), "not:a:pair"))
}

func TestWipe_ClearsEverything(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	fake := &fakeClient{token: "jwt-token"}
	svc := NewAuthService(fake, db)
	recs := NewRecordService(db)

	require.NoError(t, svc.Login(ctx, "alice", []byte("password123")))
	_, err := recs.AddNote(ctx, "t", "body", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Wipe(ctx, []byte("password123")))
	assert.Equal(t, "jwt-token", fake.wipeToken)

	rows, err := recs.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
	_, err = svc.ExportPair(ctx)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestWipe_NotLoggedIn(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(&fakeClient{}, db)
	require.ErrorIs(t, svc.Wipe(context.Background(), []byte("password123")), common.ErrorUnauthorized)
}

func newTestRecordService(t *testing.T) (*recordService, *localdb.LocalDB) {
	db := newTestDB(t)
	svc := NewRecordService(db).(*recordService)
	svc.now = func() time.Time { return time.UnixMilli(7000) }
	return svc, db
}

func TestAddAndGet(t *testing.T) {
	svc, _ := newTestRecordService(t)
	ctx := context.Background()

	note, err := svc.AddNote(ctx, "groceries", "milk\neggs", []string{"home"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), note.Version)
	assert.Equal(t, int64(7000), note.CreatedAt)
	assert.Equal(t, models.StateDirty, note.State)

	got, err := svc.Get(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "milk\neggs", got.Txt)

	todo, err := svc.AddTodo(ctx, "chores", []string{"dishes", "laundry"})
	require.NoError(t, err)
	require.Len(t, todo.Todos, 2)
	assert.NotEmpty(t, todo.Todos[0].ID)
	assert.Equal(t, int64(7000), todo.Todos[0].UpdatedAt)

	hue := 120
	label, err := svc.AddLabel(ctx, "work", &hue)
	require.NoError(t, err)
	assert.Equal(t, wire.TypeLabel, label.Type)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestEdit_BumpsVersionOnlyFromSynced(t *testing.T) {
	svc, db := newTestRecordService(t)
	ctx := context.Background()

	note, err := svc.AddNote(ctx, "t", "v1", nil)
	require.NoError(t, err)

	// still dirty: more edits ride the same version
	require.NoError(t, svc.SetNoteText(ctx, note.ID, "v2"))
	got, err := svc.Get(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)

	// simulate a completed sync
	got.State = models.StateSynced
	require.NoError(t, db.Records(db.DB).Upsert(ctx, got))

	require.NoError(t, svc.SetNoteText(ctx, note.ID, "v3"))
	got, err = svc.Get(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, models.StateDirty, got.State)
}

func TestToggleTodoItem(t *testing.T) {
	svc, _ := newTestRecordService(t)
	ctx := context.Background()

	todo, err := svc.AddTodo(ctx, "chores", []string{"dishes"})
	require.NoError(t, err)

	itemID := todo.Todos[0].ID
	require.NoError(t, svc.ToggleTodoItem(ctx, todo.ID, itemID))

	got, err := svc.Get(ctx, todo.ID)
	require.NoError(t, err)
	assert.True(t, got.Todos[0].Done)

	require.Error(t, svc.ToggleTodoItem(ctx, todo.ID, "ghost"))
}

func TestDelete_MakesTombstone(t *testing.T) {
	svc, db := newTestRecordService(t)
	ctx := context.Background()

	note, err := svc.AddNote(ctx, "t", "body", nil)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, note.ID))

	_, err = svc.Get(ctx, note.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)

	// the tombstone is still in the store, waiting to be pushed
	raw, err := db.Records(db.DB).GetByID(ctx, note.ID)
	require.NoError(t, err)
	assert.True(t, raw.Deleted())
	assert.Equal(t, models.StateDirty, raw.State)
	assert.Empty(t, raw.Txt)
}
