package auth

import (
	"context"
	"crypto/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/datapool/internal/client/storage"
	"github.com/iudanet/datapool/internal/client/storage/boltdb"
	"github.com/iudanet/datapool/internal/crypto"
)

func newTestTokenStore(t *testing.T) *TokenStore {
	t.Helper()

	st, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})

	key := make([]byte, crypto.KeySize)
	_, err = rand.Read(key)
	require.NoError(t, err)

	ts, err := NewTokenStore(st, key)
	require.NoError(t, err)
	return ts
}

func TestNewTokenStore_BadKey(t *testing.T) {
	_, err := NewTokenStore(nil, []byte("short"))
	assert.Error(t, err)
}

func TestTokenStore_SaveLoad(t *testing.T) {
	ts := newTestTokenStore(t)
	ctx := context.Background()

	tokens := Tokens{
		AccessToken:  "access-value",
		RefreshToken: "refresh-value",
		ExpiresAt:    time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}

	require.NoError(t, ts.Save(ctx, tokens, "client-123"))

	loaded, clientID, err := ts.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, tokens.AccessToken, loaded.AccessToken)
	assert.Equal(t, tokens.RefreshToken, loaded.RefreshToken)
	assert.True(t, tokens.ExpiresAt.Equal(loaded.ExpiresAt))
	assert.Equal(t, "client-123", clientID)
}

func TestTokenStore_TokensEncryptedAtRest(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := boltdb.New(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})

	key := make([]byte, crypto.KeySize)
	_, err = rand.Read(key)
	require.NoError(t, err)

	ts, err := NewTokenStore(st, key)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, ts.Save(ctx, Tokens{
		AccessToken:  "plaintext-access",
		RefreshToken: "plaintext-refresh",
	}, "client-123"))

	// На нижнем слое токены не равны открытому тексту
	raw, err := st.GetAuth(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, "plaintext-access", raw.AccessToken)
	assert.NotEqual(t, "plaintext-refresh", raw.RefreshToken)
	assert.Equal(t, "client-123", raw.ClientID)
}

func TestTokenStore_LoadWithWrongKey(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := boltdb.New(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})

	keyA := make([]byte, crypto.KeySize)
	_, err = rand.Read(keyA)
	require.NoError(t, err)
	keyB := make([]byte, crypto.KeySize)
	_, err = rand.Read(keyB)
	require.NoError(t, err)

	tsA, err := NewTokenStore(st, keyA)
	require.NoError(t, err)
	require.NoError(t, tsA.Save(context.Background(), Tokens{AccessToken: "a", RefreshToken: "r"}, ""))

	tsB, err := NewTokenStore(st, keyB)
	require.NoError(t, err)
	_, _, err = tsB.Load(context.Background())
	assert.Error(t, err)
}

func TestTokenStore_LoadNotFound(t *testing.T) {
	ts := newTestTokenStore(t)

	_, _, err := ts.Load(context.Background())
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)
}

func TestTokenStore_Delete(t *testing.T) {
	ts := newTestTokenStore(t)
	ctx := context.Background()

	require.NoError(t, ts.Save(ctx, Tokens{AccessToken: "a", RefreshToken: "r"}, ""))
	require.NoError(t, ts.Delete(ctx))

	_, _, err := ts.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)
}
