package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/iudanet/datapool/internal/client/region"
)

// RunLogout удаляет сохраненные токены и соль и рассылает смену сессии
// пулу регионов, чтобы сессионные кэши были вычищены
func (c *Cli) RunLogout(ctx context.Context, p Passphrase) error {
	if err := c.unlock(ctx, p); err != nil {
		return err
	}

	// Сессия кончилась - регионы с привязкой к ней закрываются и
	// вычищают персистентный кэш
	c.pool.OnSessionChanged(ctx, region.SessionInfo{})

	if err := c.coordinator.ClearTokens(ctx); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}

	if err := os.Remove(c.saltPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove salt file: %w", err)
	}

	c.io.Println("Logged out.")
	return nil
}
