package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/dmitrijs2005/notesync/internal/wire"
)

// conflicts lists the records waiting for a manual decision.
func (a *App) conflicts() error {
	queued := a.syncer.Conflicts()
	if len(queued) == 0 {
		fmt.Println("No conflicts.")
		return nil
	}
	for _, c := range queued {
		title := c.Server.Title
		if c.Server.Type == wire.TypeLabel {
			title = c.Server.Name
		}
		fmt.Printf("%s  [%s]  %s\n", c.Server.ID, c.Server.Type, title)
	}
	fmt.Println("Resolve with: pick <id> local|server")
	return nil
}

// pick settles one queued conflict.
func (a *App) pick(ctx context.Context, id, side string) error {
	var keepLocal bool
	switch side {
	case "local":
		keepLocal = true
	case "server":
	default:
		fmt.Println("Usage: pick <id> local|server")
		return nil
	}

	if err := a.syncer.Resolve(ctx, id, keepLocal); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	fmt.Printf("Kept the %s copy of %s\n", side, id)
	a.syncer.Trigger()
	return nil
}
