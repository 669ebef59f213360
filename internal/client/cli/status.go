package cli

import (
	"context"
	"fmt"
	"time"
)

// RunStatus показывает состояние авторизации
func (c *Cli) RunStatus(ctx context.Context, p Passphrase) error {
	if err := c.unlock(ctx, p); err != nil {
		return err
	}

	raw, err := c.storage.GetAuth(ctx)
	if err != nil {
		return fmt.Errorf("failed to get auth data: %w", err)
	}

	tokens, err := c.coordinator.Tokens()
	if err != nil {
		return fmt.Errorf("failed to get tokens: %w", err)
	}

	c.io.Println("Authenticated.")
	c.io.Printf("Client ID:  %s\n", raw.ClientID)
	c.io.Printf("Server:     %s\n", c.serverURL)

	switch {
	case tokens.ExpiresAt.IsZero():
		c.io.Println("Expires:    unknown")
	case tokens.Expired(time.Now()):
		c.io.Printf("Expires:    %s (expired, will refresh on next request)\n",
			tokens.ExpiresAt.Format(time.RFC3339))
	default:
		c.io.Printf("Expires:    %s\n", tokens.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}
