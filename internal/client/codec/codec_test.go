package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/notesync/internal/client/models"
	"github.com/dmitrijs2005/notesync/internal/cryptox"
	"github.com/dmitrijs2005/notesync/internal/wire"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	return New(cryptox.GenerateKey())
}

func TestEncodeDecode_Note(t *testing.T) {
	c := newTestCodec(t)

	r := &models.Record{
		ID:        "n1",
		Type:      wire.TypeNote,
		Version:   3,
		CreatedAt: 100,
		UpdatedAt: 200,
		State:     models.StateDirty,
		Title:     "shopping",
		Txt:       "milk\neggs",
		Labels:    []string{"l1"},
	}

	put, err := c.Encode(r)
	require.NoError(t, err)
	assert.NotEmpty(t, put.CipherText)
	assert.NotEmpty(t, put.IV)
	assert.NotContains(t, put.CipherText, "milk", "content must not leak")

	got, err := c.Decode(&put)
	require.NoError(t, err)
	assert.Equal(t, r.Title, got.Title)
	assert.Equal(t, r.Txt, got.Txt)
	assert.Equal(t, r.Labels, got.Labels)
	assert.Equal(t, models.StateSynced, got.State, "decoded records come from the server")
	assert.Equal(t, r.Version, got.Version)
}

func TestEncodeDecode_Todo(t *testing.T) {
	c := newTestCodec(t)

	r := &models.Record{
		ID:        "t1",
		Type:      wire.TypeTodo,
		Version:   1,
		CreatedAt: 100,
		UpdatedAt: 200,
		Title:     "chores",
		Todos: []models.TodoItem{
			{ID: "a", Txt: "dishes", Done: true, UpdatedAt: 150},
			{ID: "b", Txt: "laundry", UpdatedAt: 160},
		},
	}

	put, err := c.Encode(r)
	require.NoError(t, err)

	got, err := c.Decode(&put)
	require.NoError(t, err)
	assert.Equal(t, r.Todos, got.Todos)
	assert.Equal(t, "chores", got.Title)
}

func TestEncodeDecode_Label(t *testing.T) {
	c := newTestCodec(t)

	hue := 210
	r := &models.Record{
		ID:        "l1",
		Type:      wire.TypeLabel,
		Version:   2,
		CreatedAt: 100,
		UpdatedAt: 200,
		Name:      "work",
		Hue:       &hue,
	}

	put, err := c.Encode(r)
	require.NoError(t, err)

	got, err := c.Decode(&put)
	require.NoError(t, err)
	assert.Equal(t, "work", got.Name)
	require.NotNil(t, got.Hue)
	assert.Equal(t, 210, *got.Hue)
}

func TestEncode_TombstoneCarriesNoContent(t *testing.T) {
	c := newTestCodec(t)

	r := &models.Record{ID: "n1", Type: wire.TypeNote, Version: 2, CreatedAt: 1, UpdatedAt: 2, DeletedAt: 2, Txt: "gone"}
	put, err := c.Encode(r)
	require.NoError(t, err)

	assert.Empty(t, put.CipherText)
	assert.Empty(t, put.IV)
	assert.Equal(t, int64(2), put.DeletedAt)

	got, err := c.Decode(&put)
	require.NoError(t, err)
	assert.True(t, got.Deleted())
	assert.Empty(t, got.Txt)
}

func TestDecode_LegacyPlainTextPayload(t *testing.T) {
	c := newTestCodec(t)

	// a payload that is not JSON becomes the note text verbatim
	cipherText, iv, err := cryptox.Encrypt(c.key, "just some old text")
	require.NoError(t, err)
	put := wire.Put{ID: "n1", Type: wire.TypeNote, Version: 1, CreatedAt: 1, UpdatedAt: 1, CipherText: cipherText, IV: iv}

	got, err := c.Decode(&put)
	require.NoError(t, err)
	assert.Equal(t, "just some old text", got.Txt)
	assert.Empty(t, got.Title)
}

func TestDecode_LegacyTodoPayloadBecomesSingleItem(t *testing.T) {
	c := newTestCodec(t)

	cipherText, iv, err := cryptox.Encrypt(c.key, "old todo line")
	require.NoError(t, err)
	put := wire.Put{ID: "t1", Type: wire.TypeTodo, Version: 1, CreatedAt: 1, UpdatedAt: 1, CipherText: cipherText, IV: iv}

	got, err := c.Decode(&put)
	require.NoError(t, err)
	require.Len(t, got.Todos, 1)
	assert.Equal(t, "old todo line", got.Todos[0].Txt)
	assert.NotEmpty(t, got.Todos[0].ID, "legacy items get a fresh id")
}

func TestDecodeBatch_SkipsUndecryptableItems(t *testing.T) {
	c := newTestCodec(t)
	other := newTestCodec(t)

	good, err := c.Encode(&models.Record{ID: "n1", Type: wire.TypeNote, Version: 1, CreatedAt: 1, UpdatedAt: 1, Txt: "ok"})
	require.NoError(t, err)
	bad, err := other.Encode(&models.Record{ID: "n2", Type: wire.TypeNote, Version: 1, CreatedAt: 1, UpdatedAt: 1, Txt: "nope"})
	require.NoError(t, err)

	records, errs := c.DecodeBatch([]wire.Put{good, bad})
	require.Len(t, records, 1)
	assert.Equal(t, "n1", records[0].ID)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "n2")
}

func TestEncodeBatch_RoundTrip(t *testing.T) {
	c := newTestCodec(t)

	records := []*models.Record{
		{ID: "n1", Type: wire.TypeNote, Version: 1, CreatedAt: 1, UpdatedAt: 1, Txt: "a"},
		{ID: "l1", Type: wire.TypeLabel, Version: 1, CreatedAt: 1, UpdatedAt: 1, Name: "b"},
	}
	puts, err := c.EncodeBatch(records)
	require.NoError(t, err)
	require.Len(t, puts, 2)

	got, errs := c.DecodeBatch(puts)
	assert.Empty(t, errs)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Txt)
	assert.Equal(t, "b", got[1].Name)
}
