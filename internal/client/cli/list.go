package cli

import (
	"context"
	"encoding/json"
	"fmt"
)

// RunList открывает регион коллекции, дожидается синхронизации и
// печатает все объекты
func (c *Cli) RunList(ctx context.Context, args []string, p Passphrase) error {
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

	views, err := reg.GetAllStable(ctx)
	if err != nil {
		return fmt.Errorf("failed to synchronize region: %w", err)
	}

	if len(views) == 0 {
		c.io.Println("No objects.")
		return nil
	}

	for _, view := range views {
		line, err := json.Marshal(view)
		if err != nil {
			return fmt.Errorf("failed to format object: %w", err)
		}
		c.io.Println(string(line))
	}
	c.io.Printf("Total: %d\n", len(views))
	return nil
}
