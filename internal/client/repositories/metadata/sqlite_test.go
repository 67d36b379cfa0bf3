package metadata_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/notesync/internal/client/localdb"
	"github.com/dmitrijs2005/notesync/internal/client/repositories/metadata"
)

func newTestRepo(t *testing.T) *metadata.SQLiteRepository {
	t.Helper()
	db, err := localdb.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return metadata.NewSQLiteRepository(db.DB)
}

func TestSetGetDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	got, err := repo.Get(ctx, metadata.KeyAuthToken)
	require.NoError(t, err)
	assert.Nil(t, got, "missing key reads as nil")

	require.NoError(t, repo.Set(ctx, metadata.KeyAuthToken, []byte("tok1")))
	require.NoError(t, repo.Set(ctx, metadata.KeyAuthToken, []byte("tok2")))

	got, err = repo.Get(ctx, metadata.KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, []byte("tok2"), got)

	require.NoError(t, repo.Delete(ctx, metadata.KeyAuthToken))
	got, err = repo.Get(ctx, metadata.KeyAuthToken)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClear(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, metadata.KeyLastSyncedTo, []byte("123")))
	require.NoError(t, repo.Set(ctx, metadata.KeyUserName, []byte("alice")))
	require.NoError(t, repo.Clear(ctx))

	for _, key := range []string{metadata.KeyLastSyncedTo, metadata.KeyUserName} {
		got, err := repo.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
}
