package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/iudanet/datapool/internal/client/auth"
)

// RunLogin сохраняет пару токенов платформы в зашифрованном виде.
// Токены вводятся вручную (получены из внешнего потока авторизации),
// парольная фраза защищает их в локальном хранилище.
func (c *Cli) RunLogin(ctx context.Context, p Passphrase) error {
	accessToken, err := c.io.ReadInput("Access token: ")
	if err != nil {
		return fmt.Errorf("failed to read access token: %w", err)
	}
	if accessToken == "" {
		return fmt.Errorf("access token cannot be empty")
	}

	refreshToken, err := c.io.ReadInput("Refresh token: ")
	if err != nil {
		return fmt.Errorf("failed to read refresh token: %w", err)
	}
	if refreshToken == "" {
		return fmt.Errorf("refresh token cannot be empty")
	}

	passphrase, err := c.getPassphrase(p, true)
	if err != nil {
		return fmt.Errorf("failed to get passphrase: %w", err)
	}

	// Новая сессия - новый clientID и новая соль
	clientID := uuid.NewString()
	if _, err := c.createSalt(); err != nil {
		return err
	}

	tokenStore, err := c.openTokenStore(passphrase, clientID)
	if err != nil {
		return err
	}

	if err := c.startSession(tokenStore, auth.Tokens{}, clientID); err != nil {
		return err
	}

	// SetTokens извлекает срок действия из токена и сохраняет пару
	// через TokenStore
	if err := c.coordinator.SetTokens(ctx, accessToken, refreshToken); err != nil {
		return fmt.Errorf("failed to set tokens: %w", err)
	}

	c.io.Println("Tokens stored.")
	c.io.Printf("Client ID: %s\n", clientID)
	return nil
}
