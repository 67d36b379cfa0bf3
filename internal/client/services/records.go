package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/notesync/internal/client/localdb"
	"github.com/dmitrijs2005/notesync/internal/client/models"
	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/wire"
)

// RecordService is the local editing surface: every mutation stamps the
// record dirty so the next sync round pushes it.
type RecordService interface {
	List(ctx context.Context) ([]*models.Record, error)
	Get(ctx context.Context, id string) (*models.Record, error)
	AddNote(ctx context.Context, title, txt string, labels []string) (*models.Record, error)
	AddTodo(ctx context.Context, title string, items []string) (*models.Record, error)
	AddLabel(ctx context.Context, name string, hue *int) (*models.Record, error)
	SetNoteText(ctx context.Context, id, txt string) error
	SetTitle(ctx context.Context, id, title string) error
	AddTodoItem(ctx context.Context, id, txt string) error
	ToggleTodoItem(ctx context.Context, id, itemID string) error
	Delete(ctx context.Context, id string) error
}

type recordService struct {
	db  *localdb.LocalDB
	now func() time.Time
}

func NewRecordService(db *localdb.LocalDB) RecordService {
	return &recordService{db: db, now: time.Now}
}

func (s *recordService) List(ctx context.Context) ([]*models.Record, error) {
	return s.db.Records(s.db.DB).GetAlive(ctx)
}

func (s *recordService) Get(ctx context.Context, id string) (*models.Record, error) {
	rec, err := s.db.Records(s.db.DB).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Deleted() {
		return nil, common.ErrorNotFound
	}
	return rec, nil
}

func (s *recordService) add(ctx context.Context, rec *models.Record) (*models.Record, error) {
	now := s.now().UnixMilli()
	rec.ID = uuid.NewString()
	rec.Version = 1
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.State = models.StateDirty
	if err := s.db.Records(s.db.DB).Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("save record: %w", err)
	}
	return rec, nil
}

func (s *recordService) AddNote(ctx context.Context, title, txt string, labels []string) (*models.Record, error) {
	return s.add(ctx, &models.Record{Type: wire.TypeNote, Title: title, Txt: txt, Labels: labels})
}

func (s *recordService) AddTodo(ctx context.Context, title string, items []string) (*models.Record, error) {
	now := s.now().UnixMilli()
	todos := make([]models.TodoItem, 0, len(items))
	for _, txt := range items {
		todos = append(todos, models.TodoItem{ID: uuid.NewString(), Txt: txt, UpdatedAt: now})
	}
	return s.add(ctx, &models.Record{Type: wire.TypeTodo, Title: title, Todos: todos})
}

func (s *recordService) AddLabel(ctx context.Context, name string, hue *int) (*models.Record, error) {
	return s.add(ctx, &models.Record{Type: wire.TypeLabel, Name: name, Hue: hue})
}

// edit loads the record, applies fn and stamps the result dirty. The version
// is stepped only on the synced-to-dirty transition so one push carries any
// number of local edits.
func (s *recordService) edit(ctx context.Context, id string, fn func(rec *models.Record) error) error {
	repo := s.db.Records(s.db.DB)
	rec, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.Deleted() {
		return common.ErrorNotFound
	}
	if err := fn(rec); err != nil {
		return err
	}
	rec.UpdatedAt = s.now().UnixMilli()
	if rec.State == models.StateSynced {
		rec.Version++
	}
	rec.State = models.StateDirty
	if err := repo.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

func (s *recordService) SetNoteText(ctx context.Context, id, txt string) error {
	return s.edit(ctx, id, func(rec *models.Record) error {
		if rec.Type != wire.TypeNote {
			return fmt.Errorf("record %s is not a note", id)
		}
		rec.Txt = txt
		return nil
	})
}

func (s *recordService) SetTitle(ctx context.Context, id, title string) error {
	return s.edit(ctx, id, func(rec *models.Record) error {
		if rec.Type == wire.TypeLabel {
			rec.Name = title
			return nil
		}
		rec.Title = title
		return nil
	})
}

func (s *recordService) AddTodoItem(ctx context.Context, id, txt string) error {
	return s.edit(ctx, id, func(rec *models.Record) error {
		if rec.Type != wire.TypeTodo {
			return fmt.Errorf("record %s is not a todo list", id)
		}
		rec.Todos = append(rec.Todos, models.TodoItem{
			ID:        uuid.NewString(),
			Txt:       txt,
			UpdatedAt: s.now().UnixMilli(),
		})
		return nil
	})
}

func (s *recordService) ToggleTodoItem(ctx context.Context, id, itemID string) error {
	return s.edit(ctx, id, func(rec *models.Record) error {
		if rec.Type != wire.TypeTodo {
			return fmt.Errorf("record %s is not a todo list", id)
		}
		for i := range rec.Todos {
			if rec.Todos[i].ID == itemID {
				rec.Todos[i].Done = !rec.Todos[i].Done
				rec.Todos[i].UpdatedAt = s.now().UnixMilli()
				return nil
			}
		}
		return fmt.Errorf("todo item %s: %w", itemID, common.ErrorNotFound)
	})
}

// Delete turns the record into a tombstone; the row disappears locally only
// after the server has acknowledged the delete.
func (s *recordService) Delete(ctx context.Context, id string) error {
	return s.edit(ctx, id, func(rec *models.Record) error {
		rec.DeletedAt = s.now().UnixMilli()
		rec.Txt = ""
		rec.Todos = nil
		rec.Labels = nil
		return nil
	})
}
