package wire

import (
	"encoding/base64"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPut() Put {
	return Put{
		ID:         uuid.NewString(),
		Type:       TypeNote,
		CreatedAt:  1000,
		UpdatedAt:  2000,
		Version:    1,
		CipherText: "abc",
		IV:         "def",
	}
}

func TestPutValidate(t *testing.T) {
	t.Run("valid live put", func(t *testing.T) {
		p := validPut()
		assert.NoError(t, p.Validate())
	})

	t.Run("valid tombstone", func(t *testing.T) {
		p := validPut()
		p.CipherText = ""
		p.IV = ""
		p.DeletedAt = 3000
		assert.NoError(t, p.Validate())
	})

	t.Run("tombstone with content rejected", func(t *testing.T) {
		p := validPut()
		p.DeletedAt = 3000
		assert.Error(t, p.Validate())
	})

	t.Run("live put without iv rejected", func(t *testing.T) {
		p := validPut()
		p.IV = ""
		assert.Error(t, p.Validate())
	})

	t.Run("bad id rejected", func(t *testing.T) {
		p := validPut()
		p.ID = "not-a-uuid"
		assert.Error(t, p.Validate())
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		p := validPut()
		p.Type = "bookmark"
		assert.Error(t, p.Validate())
	})

	t.Run("zero version rejected", func(t *testing.T) {
		p := validPut()
		p.Version = 0
		assert.Error(t, p.Validate())
	})
}

func TestPutEqual(t *testing.T) {
	a := validPut()
	b := a
	assert.True(t, a.Equal(&b))

	b.CipherText = "other"
	assert.False(t, a.Equal(&b))
}

func TestSyncRequestValidate(t *testing.T) {
	token := base64.StdEncoding.EncodeToString(make([]byte, 16))
	require.Len(t, token, SyncTokenLen)

	t.Run("valid", func(t *testing.T) {
		r := SyncRequest{LastSyncedTo: 0, Puts: []Put{validPut()}, SyncToken: token}
		assert.NoError(t, r.Validate())
	})

	t.Run("short token rejected", func(t *testing.T) {
		r := SyncRequest{SyncToken: "abc"}
		assert.Error(t, r.Validate())
	})

	t.Run("bad put reported with index", func(t *testing.T) {
		bad := validPut()
		bad.Version = 0
		r := SyncRequest{Puts: []Put{validPut(), bad}, SyncToken: token}
		err := r.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "puts[1]")
	})
}
