// Package sync implements the client side of the push+pull round-trip:
// collecting dirty records, resolving conflicts against merge ancestors and
// applying the server's answer to the local store.
package sync

import (
	"github.com/dmitrijs2005/notesync/internal/client/models"
	"github.com/dmitrijs2005/notesync/internal/merge"
	"github.com/dmitrijs2005/notesync/internal/wire"
)

// Conflict pairs the two sides of a rejected write with the common ancestor
// snapshot taken at the last successful sync. Base is nil when no ancestor
// exists (the record was created independently on both sides).
type Conflict struct {
	Local  *models.Record
	Server *models.Record
	Base   *models.Record
}

// mergeable reports whether an automatic merge may even be attempted.
// Tombstones, type mismatches, a missing ancestor and a clean local copy all
// force the conflict to the user.
func (c *Conflict) mergeable() bool {
	if c.Base == nil || c.Local == nil || c.Server == nil {
		return false
	}
	if c.Local.State != models.StateDirty {
		return false
	}
	if c.Local.Type != c.Server.Type || c.Local.Type != c.Base.Type {
		return false
	}
	if c.Local.Deleted() || c.Server.Deleted() {
		return false
	}
	return true
}

// Merge attempts an automatic three-way merge and returns nil when the
// conflict needs the user's decision. A successful merge is dirty, versioned
// past both sides and stamped with now, so the next round pushes it.
func (c *Conflict) Merge(now int64) *models.Record {
	if !c.mergeable() {
		return nil
	}
	switch c.Local.Type {
	case wire.TypeNote:
		return c.mergeNote(now)
	case wire.TypeTodo:
		return c.mergeTodo(now)
	case wire.TypeLabel:
		return c.mergeLabel()
	default:
		return nil
	}
}

// newer returns whichever side was edited last, preferring local on a tie.
func (c *Conflict) newer() *models.Record {
	if c.Server.UpdatedAt > c.Local.UpdatedAt {
		return c.Server
	}
	return c.Local
}

// merged builds the skeleton every merge result shares: identity and
// creation time from the ancestor, the title of the later edit, and a
// version past both sides.
func (c *Conflict) merged(now int64) *models.Record {
	version := c.Local.Version
	if c.Server.Version > version {
		version = c.Server.Version
	}
	return &models.Record{
		ID:        c.Base.ID,
		Type:      c.Base.Type,
		Version:   version + 1,
		CreatedAt: c.Base.CreatedAt,
		UpdatedAt: now,
		State:     models.StateDirty,
		Title:     c.newer().Title,
		Labels:    c.newer().Labels,
	}
}

func (c *Conflict) mergeNote(now int64) *models.Record {
	var txt string
	switch {
	case c.Local.Txt == c.Server.Txt:
		txt = c.Local.Txt
	case c.Base.Txt == "":
		// no ancestor text to diff against
		return nil
	default:
		txt = merge.ThreeWayText(c.Base.Txt, c.Local.Txt, c.Server.Txt)
	}
	rec := c.merged(now)
	rec.Txt = txt
	return rec
}

func (c *Conflict) mergeTodo(now int64) *models.Record {
	var todos []models.TodoItem
	switch {
	case models.TodosEqualIgnoringMeta(c.Local.Todos, c.Server.Todos):
		todos = c.Local.Todos
	case !models.TodosMergeable(c.Local.Todos) ||
		!models.TodosMergeable(c.Server.Todos) ||
		!models.TodosMergeable(c.Base.Todos):
		// legacy items without ids or timestamps cannot be aligned
		return nil
	default:
		todos = mergeTodoItems(c.Base.Todos, c.Local.Todos, c.Server.Todos)
	}
	rec := c.merged(now)
	rec.Todos = todos
	return rec
}

// mergeTodoItems merges two edits of an ordered list by running a three-way
// merge over the item id sequences and then, for each surviving id, keeping
// the copy with the later per-item timestamp.
func mergeTodoItems(base, local, server []models.TodoItem) []models.TodoItem {
	ids := merge.ThreeWayIDs(todoIDs(base), todoIDs(local), todoIDs(server))

	localByID := todoIndex(local)
	serverByID := todoIndex(server)

	result := make([]models.TodoItem, 0, len(ids))
	for _, id := range ids {
		l, inLocal := localByID[id]
		s, inServer := serverByID[id]
		switch {
		case inLocal && inServer:
			if s.UpdatedAt > l.UpdatedAt {
				result = append(result, s)
			} else {
				result = append(result, l)
			}
		case inLocal:
			result = append(result, l)
		case inServer:
			result = append(result, s)
		}
	}
	return result
}

func todoIDs(todos []models.TodoItem) []string {
	ids := make([]string, len(todos))
	for i, t := range todos {
		ids[i] = t.ID
	}
	return ids
}

func todoIndex(todos []models.TodoItem) map[string]models.TodoItem {
	m := make(map[string]models.TodoItem, len(todos))
	for _, t := range todos {
		m[t.ID] = t
	}
	return m
}

// mergeLabel resolves label conflicts last-writer-wins: a label is a single
// (name, hue) pair, there is nothing to merge field by field.
func (c *Conflict) mergeLabel() *models.Record {
	rec := c.newer().Clone()
	version := c.Local.Version
	if c.Server.Version > version {
		version = c.Server.Version
	}
	rec.Version = version + 1
	if c.Local.UpdatedAt > rec.UpdatedAt {
		rec.UpdatedAt = c.Local.UpdatedAt
	}
	if c.Server.UpdatedAt > rec.UpdatedAt {
		rec.UpdatedAt = c.Server.UpdatedAt
	}
	rec.State = models.StateDirty
	return rec
}

// PickLocal resolves a conflict by keeping the local copy: it is re-versioned
// past the server row and left dirty so the next round pushes it.
func (c *Conflict) PickLocal() *models.Record {
	rec := c.Local.Clone()
	if c.Server.Version > rec.Version {
		rec.Version = c.Server.Version
	}
	rec.Version++
	rec.State = models.StateDirty
	return rec
}

// PickServer resolves a conflict by adopting the server copy as-is.
func (c *Conflict) PickServer() *models.Record {
	rec := c.Server.Clone()
	rec.State = models.StateSynced
	return rec
}
