package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/notesync/internal/client/models"
	"github.com/dmitrijs2005/notesync/internal/wire"
)

func (a *App) addNote(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Enter title", os.Stdout)
	if err != nil {
		return err
	}
	txt, err := GetMultiline(a.reader, "Enter note text", os.Stdout)
	if err != nil {
		return err
	}

	rec, err := a.records.AddNote(ctx, title, txt, nil)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	fmt.Printf("Added note %s\n", rec.ID)
	a.syncer.Trigger()
	return nil
}

func (a *App) addTodo(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Enter title", os.Stdout)
	if err != nil {
		return err
	}
	items, err := GetMultiline(a.reader, "Enter todo items, one per line", os.Stdout)
	if err != nil {
		return err
	}
	var lines []string
	for _, line := range strings.Split(items, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	rec, err := a.records.AddTodo(ctx, title, lines)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	fmt.Printf("Added todo list %s\n", rec.ID)
	a.syncer.Trigger()
	return nil
}

func (a *App) addLabel(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter label name", os.Stdout)
	if err != nil {
		return err
	}
	hueText, err := getSimpleText(a.reader, "Enter hue 0-359 (empty for none)", os.Stdout)
	if err != nil {
		return err
	}
	var hue *int
	if hueText != "" {
		h, err := strconv.Atoi(hueText)
		if err != nil || h < 0 || h > 359 {
			fmt.Println("Hue must be a number between 0 and 359")
			return nil
		}
		hue = &h
	}

	rec, err := a.records.AddLabel(ctx, name, hue)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	fmt.Printf("Added label %s\n", rec.ID)
	a.syncer.Trigger()
	return nil
}

func (a *App) list(ctx context.Context) error {
	recs, err := a.records.List(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	if len(recs) == 0 {
		fmt.Println("Nothing here yet. Try 'addnote'.")
		return nil
	}
	for _, rec := range recs {
		fmt.Println(formatListLine(rec))
	}
	return nil
}

func formatListLine(rec *models.Record) string {
	switch rec.Type {
	case wire.TypeLabel:
		return fmt.Sprintf("%s  [label] %s", rec.ID, rec.Name)
	case wire.TypeTodo:
		done := 0
		for _, item := range rec.Todos {
			if item.Done {
				done++
			}
		}
		return fmt.Sprintf("%s  [todo]  %s (%d/%d)", rec.ID, rec.Title, done, len(rec.Todos))
	default:
		return fmt.Sprintf("%s  [note]  %s", rec.ID, rec.Title)
	}
}

func (a *App) show(ctx context.Context, id string) error {
	rec, err := a.records.Get(ctx, id)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	switch rec.Type {
	case wire.TypeNote:
		fmt.Printf("# %s\n%s\n", rec.Title, rec.Txt)
	case wire.TypeTodo:
		fmt.Printf("# %s\n", rec.Title)
		for _, item := range rec.Todos {
			mark := " "
			if item.Done {
				mark = "x"
			}
			fmt.Printf("[%s] %s  %s\n", mark, item.ID, item.Txt)
		}
	case wire.TypeLabel:
		if rec.Hue != nil {
			fmt.Printf("label %s (hue %d)\n", rec.Name, *rec.Hue)
		} else {
			fmt.Printf("label %s\n", rec.Name)
		}
	}
	if len(rec.Labels) > 0 {
		fmt.Printf("labels: %s\n", strings.Join(rec.Labels, ", "))
	}
	return nil
}

func (a *App) edit(ctx context.Context, id string) error {
	rec, err := a.records.Get(ctx, id)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	if rec.Type != wire.TypeNote {
		fmt.Println("Only notes can be edited this way; use 'add'/'check' for todo items.")
		return nil
	}

	txt, err := GetMultiline(a.reader, "Enter new note text", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.records.SetNoteText(ctx, id, txt); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	a.syncer.Trigger()
	return nil
}

func (a *App) check(ctx context.Context, id, itemID string) error {
	if err := a.records.ToggleTodoItem(ctx, id, itemID); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	a.syncer.Trigger()
	return nil
}

func (a *App) delete(ctx context.Context, id string) error {
	if err := a.records.Delete(ctx, id); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	fmt.Println("Deleted. The change reaches your other devices on the next sync.")
	a.syncer.Trigger()
	return nil
}
