// Package cryptox implements the encryption boundary of the sync protocol:
// AES-GCM over record payloads, producing (cipher_text, iv) pairs, plus the
// copyable key+token secret shared between a user's devices. The server only
// ever sees the outputs of this package.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// ivSize is the GCM nonce length in bytes.
const ivSize = 12

// GenerateKey returns a fresh random AES-256 key.
func GenerateKey() []byte {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		panic(err)
	}
	return key
}

// Encrypt seals plaintext with AES-GCM under key. A new random IV is
// generated per call; ciphertext and IV are returned base64-encoded, ready
// to be placed on a wire Put.
func Encrypt(key []byte, plaintext string) (cipherText, iv string, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", "", fmt.Errorf("cipher init: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", "", fmt.Errorf("gcm init: %w", err)
	}

	nonce := make([]byte, ivSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", "", fmt.Errorf("nonce: %w", err)
	}

	sealed := aesgcm.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), base64.StdEncoding.EncodeToString(nonce), nil
}

// Decrypt reverses Encrypt. It fails if the key is wrong, the IV does not
// match, or the ciphertext was tampered with.
func Decrypt(key []byte, cipherText, iv string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(cipherText)
	if err != nil {
		return "", fmt.Errorf("cipher_text is not valid base64: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(iv)
	if err != nil {
		return "", fmt.Errorf("iv is not valid base64: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("cipher init: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("gcm init: %w", err)
	}

	plaintext, err := aesgcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}
