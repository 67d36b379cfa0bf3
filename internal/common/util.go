package common

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateRandByteArray returns size cryptographically random bytes.
// It panics if the system entropy source fails, which matches crypto/rand
// behavior on all supported platforms.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// GenerateRandBase64 returns size random bytes encoded as standard base64.
func GenerateRandBase64(size int) string {
	return base64.StdEncoding.EncodeToString(GenerateRandByteArray(size))
}

// WipeByteArray overwrites the buffer with zeros. Used for key material
// that should not linger in memory longer than necessary.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
