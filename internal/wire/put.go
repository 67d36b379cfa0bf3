// Package wire defines the JSON shapes exchanged between client and server
// during a sync round-trip. The server never sees plaintext: every Put
// carries an opaque (cipher_text, iv) pair produced on the client.
package wire

import (
	"fmt"

	"github.com/google/uuid"
)

// RecordType discriminates the three record kinds carried over the wire.
type RecordType string

const (
	TypeNote  RecordType = "note"
	TypeTodo  RecordType = "todo"
	TypeLabel RecordType = "label"
)

// Valid reports whether t is one of the known record types.
func (t RecordType) Valid() bool {
	return t == TypeNote || t == TypeTodo || t == TypeLabel
}

// Put is the encrypted representation of one record change (create, update
// or delete). Timestamps are client-clock milliseconds. A tombstone has
// DeletedAt set and carries no content; a live Put carries both CipherText
// and IV.
type Put struct {
	ID         string     `json:"id"`
	Type       RecordType `json:"type"`
	CreatedAt  int64      `json:"created_at"`
	UpdatedAt  int64      `json:"updated_at"`
	Version    int64      `json:"version"`
	CipherText string     `json:"cipher_text,omitempty"`
	IV         string     `json:"iv,omitempty"`
	DeletedAt  int64      `json:"deleted_at,omitempty"`
}

// Deleted reports whether the Put is a tombstone.
func (p *Put) Deleted() bool { return p.DeletedAt != 0 }

// Validate checks the structural invariants of a single Put:
// a well-formed id, a known type, positive version and timestamps, and
// content present exactly when the record is alive.
func (p *Put) Validate() error {
	if err := uuid.Validate(p.ID); err != nil {
		return fmt.Errorf("invalid id %q: %w", p.ID, err)
	}
	if !p.Type.Valid() {
		return fmt.Errorf("unknown record type %q", p.Type)
	}
	if p.Version < 1 {
		return fmt.Errorf("version must be positive, got %d", p.Version)
	}
	if p.CreatedAt <= 0 || p.UpdatedAt <= 0 {
		return fmt.Errorf("timestamps must be positive")
	}
	if p.Deleted() {
		if p.CipherText != "" || p.IV != "" {
			return fmt.Errorf("tombstone must not carry content")
		}
		return nil
	}
	if p.CipherText == "" || p.IV == "" {
		return fmt.Errorf("live record must carry cipher_text and iv")
	}
	return nil
}

// Equal reports field-for-field equality. The server uses this to recognize
// an idempotent retry: a Put identical to the stored row is dropped silently
// instead of being reported as a conflict.
func (p *Put) Equal(o *Put) bool {
	return p.ID == o.ID &&
		p.Type == o.Type &&
		p.CreatedAt == o.CreatedAt &&
		p.UpdatedAt == o.UpdatedAt &&
		p.Version == o.Version &&
		p.CipherText == o.CipherText &&
		p.IV == o.IV &&
		p.DeletedAt == o.DeletedAt
}
