package metadata

import "context"

// Well-known keys.
const (
	KeyLastSyncedTo = "last_synced_to"
	KeyKeyTokenPair = "key_token_pair"
	KeyAuthToken    = "auth_token"
	KeyUserName     = "username"
)

// Repository is a small key/value store for sync state and credentials.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
