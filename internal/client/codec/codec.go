// Package codec converts between the decrypted client Record shape and the
// encrypted wire Put shape. Alive records serialize their content as one
// opaque JSON payload that becomes the AES-GCM plaintext; tombstones carry
// no payload at all.
package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/notesync/internal/client/models"
	"github.com/dmitrijs2005/notesync/internal/cryptox"
	"github.com/dmitrijs2005/notesync/internal/wire"
)

type notePayload struct {
	Title  string   `json:"title"`
	Txt    string   `json:"txt"`
	Labels []string `json:"labels,omitempty"`
}

type todoPayload struct {
	Title  string            `json:"title"`
	Todos  []models.TodoItem `json:"todos"`
	Labels []string          `json:"labels,omitempty"`
}

type labelPayload struct {
	Name string `json:"name"`
	Hue  *int   `json:"hue"`
}

// Codec encrypts and decrypts record content with a fixed key.
type Codec struct {
	key []byte
}

func New(key []byte) *Codec {
	return &Codec{key: key}
}

// Encode turns a Record into its encrypted wire shape.
func (c *Codec) Encode(r *models.Record) (wire.Put, error) {
	put := wire.Put{
		ID:        r.ID,
		Type:      r.Type,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Version:   r.Version,
		DeletedAt: r.DeletedAt,
	}
	if r.Deleted() {
		return put, nil
	}

	var payload interface{}
	switch r.Type {
	case wire.TypeNote:
		payload = notePayload{Title: r.Title, Txt: r.Txt, Labels: r.Labels}
	case wire.TypeTodo:
		todos := r.Todos
		if todos == nil {
			todos = []models.TodoItem{}
		}
		payload = todoPayload{Title: r.Title, Todos: todos, Labels: r.Labels}
	case wire.TypeLabel:
		payload = labelPayload{Name: r.Name, Hue: r.Hue}
	default:
		return wire.Put{}, fmt.Errorf("unknown record type %q", r.Type)
	}

	plain, err := json.Marshal(payload)
	if err != nil {
		return wire.Put{}, fmt.Errorf("marshal payload: %w", err)
	}
	cipherText, iv, err := cryptox.Encrypt(c.key, string(plain))
	if err != nil {
		return wire.Put{}, fmt.Errorf("encrypt payload: %w", err)
	}
	put.CipherText = cipherText
	put.IV = iv
	return put, nil
}

// EncodeBatch encrypts a batch of records. Encryption failures abort the
// batch: they indicate a broken key, not bad data.
func (c *Codec) EncodeBatch(records []*models.Record) ([]wire.Put, error) {
	puts := make([]wire.Put, 0, len(records))
	for _, r := range records {
		put, err := c.Encode(r)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		puts = append(puts, put)
	}
	return puts, nil
}

// Decode turns an encrypted Put back into a Record in state synced.
// Payloads that decrypt but fail to parse are treated as legacy plain text
// rather than an error, so one odd record never breaks a sync.
func (c *Codec) Decode(p *wire.Put) (*models.Record, error) {
	r := &models.Record{
		ID:        p.ID,
		Type:      p.Type,
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		DeletedAt: p.DeletedAt,
		State:     models.StateSynced,
	}
	if p.Deleted() {
		return r, nil
	}

	plain, err := cryptox.Decrypt(c.key, p.CipherText, p.IV)
	if err != nil {
		return nil, fmt.Errorf("decrypt record %s: %w", p.ID, err)
	}

	switch p.Type {
	case wire.TypeNote:
		var payload notePayload
		if err := json.Unmarshal([]byte(plain), &payload); err != nil {
			r.Txt = plain
			return r, nil
		}
		r.Title = payload.Title
		r.Txt = payload.Txt
		r.Labels = payload.Labels
	case wire.TypeTodo:
		var payload todoPayload
		if err := json.Unmarshal([]byte(plain), &payload); err != nil {
			if plain != "" {
				r.Todos = []models.TodoItem{{
					ID:        uuid.NewString(),
					Txt:       plain,
					UpdatedAt: time.Now().UnixMilli(),
				}}
			}
			return r, nil
		}
		r.Title = payload.Title
		r.Todos = payload.Todos
		r.Labels = payload.Labels
	case wire.TypeLabel:
		var payload labelPayload
		if err := json.Unmarshal([]byte(plain), &payload); err != nil {
			r.Name = plain
			return r, nil
		}
		r.Name = payload.Name
		r.Hue = payload.Hue
	default:
		return nil, fmt.Errorf("unknown record type %q", p.Type)
	}
	return r, nil
}

// DecodeBatch decrypts a batch independently per item: a record that cannot
// be decrypted is skipped and reported, the rest of the batch goes through.
func (c *Codec) DecodeBatch(puts []wire.Put) ([]*models.Record, []error) {
	records := make([]*models.Record, 0, len(puts))
	var errs []error
	for i := range puts {
		r, err := c.Decode(&puts[i])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		records = append(records, r)
	}
	return records, errs
}
