package models

import "github.com/dmitrijs2005/notesync/internal/wire"

// NoteRow is one encrypted record as stored server-side. The server never
// decrypts CipherText; it only tracks versions and timestamps.
//
// CreatedAt/UpdatedAt/DeletedAt are client-clock milliseconds reported by
// the owning device. ServerCreatedAt/ServerUpdatedAt/ServerDeletedAt are
// server-clock milliseconds; ServerUpdatedAt is the sync cursor axis.
// (UserID, ClientID) is unique per user.
type NoteRow struct {
	UserID          string
	ClientID        string
	Type            wire.RecordType
	CipherText      string
	IV              string
	Version         int64
	CreatedAt       int64
	UpdatedAt       int64
	DeletedAt       int64
	ServerCreatedAt int64
	ServerUpdatedAt int64
	ServerDeletedAt int64
}

// Deleted reports whether the row is a tombstone.
func (n *NoteRow) Deleted() bool { return n.DeletedAt != 0 }

// ToPut converts the stored row back into its wire shape.
func (n *NoteRow) ToPut() wire.Put {
	return wire.Put{
		ID:         n.ClientID,
		Type:       n.Type,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
		Version:    n.Version,
		CipherText: n.CipherText,
		IV:         n.IV,
		DeletedAt:  n.DeletedAt,
	}
}

// RowFromPut builds a storable row from an accepted client Put. Server
// timestamps are filled in by the repository layer.
func RowFromPut(userID string, p *wire.Put) *NoteRow {
	return &NoteRow{
		UserID:     userID,
		ClientID:   p.ID,
		Type:       p.Type,
		CipherText: p.CipherText,
		IV:         p.IV,
		Version:    p.Version,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		DeletedAt:  p.DeletedAt,
	}
}
