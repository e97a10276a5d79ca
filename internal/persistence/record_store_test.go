package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileStore(t *testing.T) (*RecordStore, *FileBackend) {
	t.Helper()
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	return NewRecordStore(backend), backend
}

func TestRecordStore_MissingCollectionLoadsEmpty(t *testing.T) {
	store, _ := newFileStore(t)
	ctx := context.Background()

	users := map[string]any{}
	require.NoError(t, store.Load(ctx, CollectionUsers, &users))
	assert.Empty(t, users)

	tickets := []map[string]string{}
	require.NoError(t, store.Load(ctx, CollectionTickets, &tickets))
	assert.NotNil(t, tickets)
	assert.Empty(t, tickets)
}

func TestRecordStore_EmptyRoundTrip(t *testing.T) {
	store, backend := newFileStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, CollectionUsers, map[string]any{}))
	require.NoError(t, store.Save(ctx, CollectionTickets, []map[string]string{}))

	users := map[string]any{}
	require.NoError(t, store.Load(ctx, CollectionUsers, &users))
	assert.Equal(t, map[string]any{}, users)

	var tickets []map[string]string
	require.NoError(t, store.Load(ctx, CollectionTickets, &tickets))
	assert.Equal(t, []map[string]string{}, tickets)

	raw, err := os.ReadFile(backend.Path(CollectionTickets))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestRecordStore_ReadsLegacyLayout(t *testing.T) {
	store, backend := newFileStore(t)
	ctx := context.Background()

	legacy := `[{"fname": "Ann", "lname": "Lee", "email": "ann@x.com", "type": "VIP"}]`
	require.NoError(t, os.WriteFile(backend.Path(CollectionTickets), []byte(legacy), 0o600))

	var tickets []map[string]string
	require.NoError(t, store.Load(ctx, CollectionTickets, &tickets))
	require.Len(t, tickets, 1)
	assert.Equal(t, "VIP", tickets[0]["type"])
	assert.Equal(t, "tickets_data.json", filepath.Base(backend.Path(CollectionTickets)))
}

func TestRecordStore_SaveFailureIsIO(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	require.NoError(t, err)
	store := NewRecordStore(backend)

	// replace the data dir with a regular file so writes cannot succeed
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("not a dir"), 0o600))

	err = store.Save(context.Background(), CollectionUsers, map[string]any{"ann": 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
	assert.Error(t, store.Ping(context.Background()))
}

func TestRecordStore_CorruptFileIsIO(t *testing.T) {
	store, backend := newFileStore(t)
	require.NoError(t, os.WriteFile(backend.Path(CollectionUsers), []byte("{not json"), 0o600))

	users := map[string]any{}
	err := store.Load(context.Background(), CollectionUsers, &users)
	assert.ErrorIs(t, err, ErrIO)
}

func TestFileBackend_WriteSetsPermissions(t *testing.T) {
	_, backend := newFileStore(t)
	require.NoError(t, backend.Write(context.Background(), CollectionUsers, []byte("{}")))

	info, err := os.Stat(backend.Path(CollectionUsers))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerms), info.Mode().Perm())
}
