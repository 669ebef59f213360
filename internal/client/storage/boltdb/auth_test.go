package boltdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/datapool/internal/client/storage"
)

// создаём тестовое BoltDB хранилище
func createTestStorage(t *testing.T) *Storage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "client_test.db")

	ctx := context.Background()
	store, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func TestStorage_SaveGetDeleteAuth(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	auth := &storage.AuthData{
		AccessToken:  "encrypted-access-token",
		RefreshToken: "encrypted-refresh-token",
		ClientID:     "client-1",
		ExpiresAt:    time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}

	// Проверяем что GetAuth до сохранения выдаст ErrAuthNotFound
	_, err := store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	// Сохраняем auth
	err = store.SaveAuth(ctx, auth)
	require.NoError(t, err)

	// Получаем auth и сравниваем
	got, err := store.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth, got)

	// Удаляем и убеждаемся что данных больше нет
	require.NoError(t, store.DeleteAuth(ctx))
	_, err = store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	// Повторное удаление - ErrAuthNotFound
	err = store.DeleteAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)
}

func TestStorage_SaveAuth_Overwrite(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	first := &storage.AuthData{AccessToken: "first", RefreshToken: "r1"}
	second := &storage.AuthData{AccessToken: "second", RefreshToken: "r2"}

	require.NoError(t, store.SaveAuth(ctx, first))
	require.NoError(t, store.SaveAuth(ctx, second))

	got, err := store.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", got.AccessToken)
	assert.Equal(t, "r2", got.RefreshToken)
}

func TestStorage_Auth_Closed(t *testing.T) {
	ctx := context.Background()
	s := &Storage{db: nil}

	err := s.SaveAuth(ctx, &storage.AuthData{})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	_, err = s.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	err = s.DeleteAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
