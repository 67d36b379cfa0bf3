// Package models defines the client-side record shapes: the decrypted
// note/todo/label union kept in the local store, and the snapshots used as
// merge ancestors.
package models

import (
	"github.com/dmitrijs2005/notesync/internal/wire"
)

// RecordState tracks whether a record still needs to be pushed.
type RecordState string

const (
	StateDirty  RecordState = "dirty"
	StateSynced RecordState = "synced"
)

// TodoItem is one entry of a todo list. ID and UpdatedAt are required for
// list merging; legacy items without them make the list unmergeable.
type TodoItem struct {
	ID        string `json:"id"`
	Txt       string `json:"txt"`
	Done      bool   `json:"done"`
	UpdatedAt int64  `json:"updated_at"`
}

// Record is the decrypted client-side view of one note, todo list or label.
// The content fields used depend on Type: notes carry Title/Txt, todos carry
// Title/Todos, labels carry Name/Hue. Labels attached to a note or todo are
// referenced by id.
type Record struct {
	ID        string
	Type      wire.RecordType
	Version   int64
	CreatedAt int64
	UpdatedAt int64
	DeletedAt int64
	State     RecordState

	Title  string
	Txt    string
	Todos  []TodoItem
	Labels []string

	Name string
	Hue  *int
}

// Deleted reports whether the record is a tombstone.
func (r *Record) Deleted() bool { return r.DeletedAt != 0 }

// Empty reports whether the record holds nothing worth syncing: an alive
// note or todo with no title and no content. Empty records are kept out of
// the upload set so throwaway drafts never reach the server.
func (r *Record) Empty() bool {
	if r.Deleted() || r.Title != "" {
		return false
	}
	switch r.Type {
	case wire.TypeNote:
		return r.Txt == ""
	case wire.TypeTodo:
		return len(r.Todos) == 0 || (len(r.Todos) == 1 && r.Todos[0].Txt == "")
	default:
		return false
	}
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := *r
	if r.Todos != nil {
		c.Todos = make([]TodoItem, len(r.Todos))
		copy(c.Todos, r.Todos)
	}
	if r.Labels != nil {
		c.Labels = make([]string, len(r.Labels))
		copy(c.Labels, r.Labels)
	}
	if r.Hue != nil {
		hue := *r.Hue
		c.Hue = &hue
	}
	return &c
}

// TodosMergeable reports whether every item carries the id and timestamp the
// list merge depends on.
func TodosMergeable(todos []TodoItem) bool {
	for _, t := range todos {
		if t.ID == "" || t.UpdatedAt == 0 {
			return false
		}
	}
	return true
}

// TodosEqualIgnoringMeta compares two lists by content and order, ignoring
// the per-item id and timestamp. Used for the merge fast path.
func TodosEqualIgnoringMeta(a, b []TodoItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Txt != b[i].Txt || a[i].Done != b[i].Done {
			return false
		}
	}
	return true
}
