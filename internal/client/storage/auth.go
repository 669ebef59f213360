package storage

import (
	"context"
	"time"
)

// AuthStorage defines interface for storing authentication data on client
// This is the lowest storage layer - it works with raw data (already encrypted tokens)
// and doesn't perform any encryption/decryption itself.
type AuthStorage interface {
	// SaveAuth stores authentication data as-is (tokens should already be encrypted)
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves stored authentication data as-is (tokens will be encrypted)
	// Returns ErrAuthNotFound if no auth data exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes stored authentication data (logout)
	DeleteAuth(ctx context.Context) error
}

// AuthData represents authentication information in storage
// IMPORTANT: This struct is used at different layers with different token states:
// - In memory (coordinator): tokens are plaintext
// - In storage (BoltDB): tokens are encrypted (base64-encoded ciphertext)
// The encryption/decryption happens in auth.TokenStore layer.
type AuthData struct {
	ExpiresAt    time.Time `json:"expires_at"`    // срок действия access token (из exp claim)
	AccessToken  string    `json:"access_token"`  // access token
	RefreshToken string    `json:"refresh_token"` // refresh token
	ClientID     string    `json:"client_id"`     // уникальный ID клиента/устройства (UUID)
}
