package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/notesync/internal/common"
)

// pair prints the key+token pair for copying to another device.
func (a *App) pair(ctx context.Context) error {
	encoded, err := a.auth.ExportPair(ctx)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			fmt.Println("No pair yet; log in first.")
			return nil
		}
		log.Printf("error: %v", err)
		return err
	}
	fmt.Println("Copy this to your other device (it is the only way to decrypt your notes):")
	fmt.Println(encoded)
	return nil
}

// importPair reads a pasted pair from another device and adopts it.
func (a *App) importPair(ctx context.Context) error {
	encoded, err := getSimpleText(a.reader, "Paste the key+token pair from your other device", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.auth.ImportPair(ctx, encoded); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	fmt.Println("Pair imported. Your notes will appear after the next sync.")
	a.syncer.Trigger()
	return nil
}
