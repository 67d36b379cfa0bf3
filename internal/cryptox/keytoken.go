package cryptox

import (
	"encoding/base64"
	"fmt"
	"hash/crc32"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/notesync/internal/common"
)

// syncTokenSize is the raw sync token length in bytes (24 base64 chars).
const syncTokenSize = 16

// KeyTokenPair couples the encryption key with the per-user sync token.
// The two are distributed together as one copyable secret so a device can
// never use a key against the wrong token scope.
type KeyTokenPair struct {
	Key       []byte // AES-256 key
	SyncToken string // base64, sent on every sync call
}

// NewKeyTokenPair generates a fresh key and sync token for a first device.
func NewKeyTokenPair() *KeyTokenPair {
	return &KeyTokenPair{
		Key:       GenerateKey(),
		SyncToken: common.GenerateRandBase64(syncTokenSize),
	}
}

// checksum guards against truncated or corrupted pastes. CRC32 (IEEE) over
// the raw key bytes followed by the raw token bytes.
func checksum(key, token []byte) uint32 {
	buf := make([]byte, 0, len(key)+len(token))
	buf = append(buf, key...)
	buf = append(buf, token...)
	return crc32.ChecksumIEEE(buf)
}

// Encode renders the pair as "key:token:checksum", the form shown to the
// user for copying to another device.
func (p *KeyTokenPair) Encode() string {
	tokenBin, err := base64.StdEncoding.DecodeString(p.SyncToken)
	if err != nil {
		panic(fmt.Sprintf("sync token is not base64: %v", err))
	}
	return fmt.Sprintf("%s:%s:%d",
		base64.StdEncoding.EncodeToString(p.Key),
		p.SyncToken,
		checksum(p.Key, tokenBin))
}

// DecodeKeyTokenPair parses and verifies a pasted secret. Any structural
// damage (wrong part count, bad base64, wrong lengths, checksum mismatch)
// is rejected before the secret is ever used against the server.
func DecodeKeyTokenPair(s string) (*KeyTokenPair, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("expected key:token:checksum")
	}

	key, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("key is not valid base64: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}

	tokenBin, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("token is not valid base64: %w", err)
	}
	if len(tokenBin) != syncTokenSize {
		return nil, fmt.Errorf("token must be %d bytes, got %d", syncTokenSize, len(tokenBin))
	}

	sum, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("checksum is not a number: %w", err)
	}
	if uint32(sum) != checksum(key, tokenBin) {
		return nil, fmt.Errorf("checksum mismatch")
	}

	return &KeyTokenPair{Key: key, SyncToken: parts[1]}, nil
}
