package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/datapool/internal/client/region"
)

// RunWatch печатает события региона до отмены контекста (Ctrl+C)
func (c *Cli) RunWatch(ctx context.Context, args []string, p Passphrase) error {
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

	unsubscribe := reg.Subscribe(func(e region.Event) {
		switch e.Type {
		case region.EventObjectUpdated:
			c.io.Printf("%s %s\n", e.Type, e.ObjectID)
		case region.EventError:
			c.io.Printf("%s %v\n", e.Type, e.Err)
		default:
			c.io.Println(string(e.Type))
		}
	})
	defer unsubscribe()

	c.io.Printf("Watching %s (Ctrl+C to stop)\n", reg.StateKey())

	if err := reg.Synchronize(ctx); err != nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}

	<-ctx.Done()
	return nil
}
