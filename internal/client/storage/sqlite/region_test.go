package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/datapool/internal/client/storage"
)

func createTestStorage(t *testing.T) *Storage {
	t.Helper()

	ctx := context.Background()
	store, err := New(ctx, filepath.Join(t.TempDir(), "cache_test.db"))
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func TestNew_RunsMigrations(t *testing.T) {
	store := createTestStorage(t)

	// Таблица создана миграцией - запись проходит без ошибок
	ctx := context.Background()
	require.NoError(t, store.WriteState(ctx, "k", []byte("v")))
}

func TestStorage_RegionState_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	const key = "inventory:owner=me"
	payload := []byte(`[["obj-1","vatom",{"a":1}]]`)

	_, err := store.ReadState(ctx, key)
	assert.ErrorIs(t, err, storage.ErrStateNotFound)

	require.NoError(t, store.WriteState(ctx, key, payload))

	got, err := store.ReadState(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Перезапись заменяет содержимое целиком
	require.NoError(t, store.WriteState(ctx, key, []byte(`[]`)))
	got, err = store.ReadState(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)
}

func TestStorage_DeleteState(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	require.NoError(t, store.WriteState(ctx, "region-a", []byte("a")))
	require.NoError(t, store.DeleteState(ctx, "region-a"))

	_, err := store.ReadState(ctx, "region-a")
	assert.ErrorIs(t, err, storage.ErrStateNotFound)

	// Удаление несуществующего ключа не считается ошибкой
	assert.NoError(t, store.DeleteState(ctx, "never-existed"))
}
