package cli

import (
	"context"
	"fmt"
)

// RunSync принудительно пересинхронизирует коллекцию с сервером
func (c *Cli) RunSync(ctx context.Context, args []string, p Passphrase) error {
	collectionType, descriptor, err := parseCollectionArgs(args)
	if err != nil {
		return err
	}

	if err := c.unlock(ctx, p); err != nil {
		return err
	}

	reg, err := c.openRegion(ctx, collectionType, descriptor)
	if err != nil {
		return fmt.Errorf("failed to open region: %w", err)
	}

	if err := reg.ForceSynchronize(ctx); err != nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}

	c.io.Printf("Synchronized %s: %d objects\n", reg.StateKey(), reg.Len())
	return nil
}
