package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/iudanet/datapool/internal/client/storage"
	"github.com/iudanet/datapool/internal/crypto"
)

// Tokens держит текущую пару токенов в памяти (в открытом виде)
type Tokens struct {
	ExpiresAt    time.Time // срок действия access token (нулевое время - неизвестен)
	AccessToken  string
	RefreshToken string
}

// Valid reports whether an access token is present.
func (t Tokens) Valid() bool {
	return t.AccessToken != ""
}

// Expired сообщает, истек ли access token к моменту now.
// Токен с неизвестным сроком действия считается живым.
func (t Tokens) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// TokenStore - слой шифрования между координатором и хранилищем.
// Токены шифруются перед записью и расшифровываются при чтении,
// в памяти и в AuthData на выходе они всегда в открытом виде.
type TokenStore struct {
	storage storage.AuthStorage
	key     []byte
}

// NewTokenStore создает TokenStore.
// encryptionKey должен быть ровно crypto.KeySize байт.
func NewTokenStore(st storage.AuthStorage, encryptionKey []byte) (*TokenStore, error) {
	if len(encryptionKey) != crypto.KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", crypto.KeySize, len(encryptionKey))
	}
	return &TokenStore{
		storage: st,
		key:     encryptionKey,
	}, nil
}

// Save шифрует токены и сохраняет их в хранилище
func (s *TokenStore) Save(ctx context.Context, tokens Tokens, clientID string) error {
	encryptedAccess, err := s.seal(tokens.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	encryptedRefresh, err := s.seal(tokens.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	return s.storage.SaveAuth(ctx, &storage.AuthData{
		ExpiresAt:    tokens.ExpiresAt,
		AccessToken:  encryptedAccess,
		RefreshToken: encryptedRefresh,
		ClientID:     clientID,
	})
}

// Load читает и расшифровывает сохраненные токены.
// Возвращает storage.ErrAuthNotFound, если сохраненных данных нет.
func (s *TokenStore) Load(ctx context.Context) (Tokens, string, error) {
	stored, err := s.storage.GetAuth(ctx)
	if err != nil {
		return Tokens{}, "", err
	}

	access, err := s.open(stored.AccessToken)
	if err != nil {
		return Tokens{}, "", fmt.Errorf("failed to decrypt access token: %w", err)
	}
	refresh, err := s.open(stored.RefreshToken)
	if err != nil {
		return Tokens{}, "", fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	return Tokens{
		ExpiresAt:    stored.ExpiresAt,
		AccessToken:  access,
		RefreshToken: refresh,
	}, stored.ClientID, nil
}

// Delete удаляет сохраненные токены (logout)
func (s *TokenStore) Delete(ctx context.Context) error {
	return s.storage.DeleteAuth(ctx)
}

// seal шифрует значение и кодирует в base64 для хранения
func (s *TokenStore) seal(value string) (string, error) {
	encrypted, err := crypto.Encrypt([]byte(value), s.key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(encrypted), nil
}

// open декодирует base64 и расшифровывает значение
func (s *TokenStore) open(value string) (string, error) {
	encrypted, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", fmt.Errorf("failed to base64 decode: %w", err)
	}
	decrypted, err := crypto.Decrypt(encrypted, s.key)
	if err != nil {
		return "", err
	}
	return string(decrypted), nil
}
