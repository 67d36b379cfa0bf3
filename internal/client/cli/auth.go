package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/notesync/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for credentials, creates the account and starts the
// notification listener with the fresh session. The password byte slice is
// wiped before returning.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Register(ctx, userName, password); err != nil {
		log.Printf("Registration unsuccessful: %s", err.Error())
		return err
	}

	fmt.Println("Success! Your key+token pair was generated; run 'pair' to copy it to other devices.")
	a.startNotifications(ctx)
	a.syncer.Trigger()
	return nil
}

// Login prompts for credentials and authenticates against the server.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Login(ctx, userName, password); err != nil {
		log.Printf("Login unsuccessful: %s", err.Error())
		return err
	}

	log.Printf("Login successful")
	a.startNotifications(ctx)
	a.syncer.Trigger()
	return nil
}

// Logout drops the session; notes stay readable offline.
func (a *App) Logout(ctx context.Context) error {
	if a.stopListener != nil {
		a.stopListener()
		a.stopListener = nil
	}
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out. Your notes remain available offline.")
	return nil
}

// Wipe re-confirms the password, destroys the account's server-side data and
// clears the local store.
func (a *App) Wipe(ctx context.Context) error {
	confirm, err := getSimpleText(a.reader, "This deletes ALL your data on the server and this device. Type 'yes' to continue", os.Stdout)
	if err != nil {
		return err
	}
	if confirm != "yes" {
		fmt.Println("Cancelled.")
		return nil
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Wipe(ctx, password); err != nil {
		log.Printf("Wipe unsuccessful: %s", err.Error())
		return err
	}

	if a.stopListener != nil {
		a.stopListener()
		a.stopListener = nil
	}
	fmt.Println("All data deleted.")
	return nil
}
