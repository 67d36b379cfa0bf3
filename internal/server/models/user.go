package models

import "time"

// User is a registered account. SyncToken is empty until the user's first
// device performs its initial sync; after adoption every sync call must
// present the exact same token.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	Salt         []byte
	SyncToken    string
	CreatedAt    time.Time
}
