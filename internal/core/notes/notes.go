// Package notes keeps a small note book in either the device-local or the account-synced
// store, reconciling the two on load by last write wins.
package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"thetool/internal/core/reconcile"
	"thetool/internal/logfields"
	"thetool/internal/metrics"
	"thetool/internal/storage"
)

const (
	keyNotes   = "notes"
	keyActive  = "activeNoteId"
	keyUseSync = "notesUseSync"

	widgetName   = "notes"
	untitled     = "Untitled Note"
	welcomeTitle = "Welcome to Notes"
	welcomeBody  = "Welcome to your personal notes!\n\nStart writing your thoughts here!"
)

var (
	// ErrNotFound is returned for an unknown note ID.
	ErrNotFound = errors.New("note not found")
	// ErrLastNote is returned when deleting the only remaining note.
	ErrLastNote = errors.New("cannot delete the last note")
)

// Note is a single titled text note.
type Note struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
	Pinned   bool      `json:"pinned"`
}

// Config contains runtime options for a Book.
type Config struct {
	Local   storage.Store
	Synced  storage.Store
	Clock   clockwork.Clock
	Metrics metrics.Recorder
	Logger  *slog.Logger
}

// Book is the in-memory note collection.
type Book struct {
	// persistMu orders saves so a stale document never overwrites a newer one.
	persistMu sync.Mutex
	mu        sync.Mutex
	options   Config
	notes     []Note
	active    string
	useSync   bool
}

// New creates an empty book. Local is required; Synced may be nil.
func New(options Config) *Book {
	if options.Clock == nil {
		options.Clock = clockwork.NewRealClock()
	}
	if options.Metrics == nil {
		options.Metrics = metrics.NoopRecorder{}
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	options.Logger = options.Logger.With(logfields.Widget(widgetName))
	return &Book{options: options}
}

type document struct {
	notes   []Note
	active  string
	useSync bool
}

func (doc document) newest() reconcile.Candidate {
	candidate := reconcile.Candidate{Present: len(doc.notes) > 0}
	for _, note := range doc.notes {
		if note.Modified.After(candidate.Modified) {
			candidate.Modified = note.Modified
		}
	}
	return candidate
}

// Load reads both stores and keeps the copy with the most recent modification. An empty
// book gets a welcome note.
func (book *Book) Load(ctx context.Context) error {
	local, err := readDocument(ctx, book.options.Local)
	if err != nil {
		return fmt.Errorf("load local notes: %w", err)
	}
	chosen := local
	source := reconcile.SourceLocal
	if book.options.Synced != nil {
		synced, err := readDocument(ctx, book.options.Synced)
		if err != nil {
			book.options.Logger.Warn("Synced notes unavailable", logfields.Store("synced"), logfields.Error(err))
		} else if reconcile.Latest(local.newest(), synced.newest()) == reconcile.SourceSynced {
			chosen = synced
			source = reconcile.SourceSynced
		}
	}

	book.mu.Lock()
	book.notes = chosen.notes
	book.active = chosen.active
	book.useSync = chosen.useSync && book.options.Synced != nil
	created := false
	if len(book.notes) == 0 {
		book.notes = []Note{book.newNoteLocked(welcomeTitle, welcomeBody)}
		book.active = book.notes[0].ID
		created = true
	}
	if book.indexLocked(book.active) < 0 {
		book.active = book.notes[0].ID
	}
	count := len(book.notes)
	book.mu.Unlock()

	book.options.Logger.Info("Notes loaded", logfields.Store(string(source)), slog.Int("count", count))
	if created {
		return book.Save(ctx)
	}
	return nil
}

// Save writes the book to the synced store when sync is enabled, otherwise to the local
// store. A failed synced write disables sync and retries locally.
func (book *Book) Save(ctx context.Context) error {
	book.persistMu.Lock()
	defer book.persistMu.Unlock()

	book.mu.Lock()
	doc := book.documentLocked()
	book.mu.Unlock()

	if doc.useSync && book.options.Synced != nil {
		err := writeDocument(ctx, book.options.Synced, doc)
		if err == nil {
			return nil
		}
		book.options.Metrics.IncPersistFailure(widgetName, "synced")
		book.options.Logger.Warn("Synced notes write failed, falling back to local storage",
			logfields.Store("synced"), logfields.Error(err))

		book.mu.Lock()
		book.useSync = false
		doc = book.documentLocked()
		book.mu.Unlock()
	}

	if err := writeDocument(ctx, book.options.Local, doc); err != nil {
		book.options.Metrics.IncPersistFailure(widgetName, "local")
		return fmt.Errorf("save local notes: %w", err)
	}
	return nil
}

// Create adds a note at the front of the book, makes it active and saves.
func (book *Book) Create(ctx context.Context, title, content string) (Note, error) {
	if strings.TrimSpace(title) == "" {
		title = untitled
	}
	book.mu.Lock()
	note := book.newNoteLocked(title, content)
	book.notes = append([]Note{note}, book.notes...)
	book.active = note.ID
	book.mu.Unlock()

	book.options.Logger.Debug("Note created", logfields.NoteID(note.ID))
	return note, book.Save(ctx)
}

// Update replaces the title and content of a note and bumps its modification time.
func (book *Book) Update(ctx context.Context, id, title, content string) error {
	if strings.TrimSpace(title) == "" {
		title = untitled
	}
	book.mu.Lock()
	index := book.indexLocked(id)
	if index < 0 {
		book.mu.Unlock()
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	book.notes[index].Title = title
	book.notes[index].Content = content
	book.notes[index].Modified = book.options.Clock.Now()
	book.mu.Unlock()

	return book.Save(ctx)
}

// Delete removes a note. The last note cannot be deleted. When the active note goes, the
// note that took its position becomes active.
func (book *Book) Delete(ctx context.Context, id string) error {
	book.mu.Lock()
	index := book.indexLocked(id)
	if index < 0 {
		book.mu.Unlock()
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	if len(book.notes) <= 1 {
		book.mu.Unlock()
		return ErrLastNote
	}
	book.notes = slices.Delete(book.notes, index, index+1)
	if book.active == id {
		book.active = book.notes[min(index, len(book.notes)-1)].ID
	}
	book.mu.Unlock()

	book.options.Logger.Debug("Note deleted", logfields.NoteID(id))
	return book.Save(ctx)
}

// TogglePin flips the pinned flag of a note.
func (book *Book) TogglePin(ctx context.Context, id string) error {
	book.mu.Lock()
	index := book.indexLocked(id)
	if index < 0 {
		book.mu.Unlock()
		return fmt.Errorf("pin %s: %w", id, ErrNotFound)
	}
	book.notes[index].Pinned = !book.notes[index].Pinned
	book.mu.Unlock()

	return book.Save(ctx)
}

// SetActive selects the note shown in the editor.
func (book *Book) SetActive(ctx context.Context, id string) error {
	book.mu.Lock()
	if book.indexLocked(id) < 0 {
		book.mu.Unlock()
		return fmt.Errorf("activate %s: %w", id, ErrNotFound)
	}
	book.active = id
	book.mu.Unlock()

	return book.Save(ctx)
}

// SetUseSync chooses the store future saves go to. Enabling sync without a synced store
// is ignored.
func (book *Book) SetUseSync(ctx context.Context, enabled bool) error {
	book.mu.Lock()
	book.useSync = enabled && book.options.Synced != nil
	book.mu.Unlock()

	return book.Save(ctx)
}

// UseSync reports whether saves go to the synced store.
func (book *Book) UseSync() bool {
	book.mu.Lock()
	defer book.mu.Unlock()
	return book.useSync
}

// Active returns the active note.
func (book *Book) Active() (Note, bool) {
	book.mu.Lock()
	defer book.mu.Unlock()
	index := book.indexLocked(book.active)
	if index < 0 {
		return Note{}, false
	}
	return book.notes[index], true
}

// List returns pinned notes first, then the rest, each group newest-modified first.
func (book *Book) List() []Note {
	book.mu.Lock()
	list := slices.Clone(book.notes)
	book.mu.Unlock()

	slices.SortStableFunc(list, func(a, b Note) int {
		if a.Pinned != b.Pinned {
			if a.Pinned {
				return -1
			}
			return 1
		}
		return b.Modified.Compare(a.Modified)
	})
	return list
}

// Search returns the listed notes whose title or content contains query, case-insensitively.
func (book *Book) Search(query string) []Note {
	query = strings.ToLower(strings.TrimSpace(query))
	list := book.List()
	if query == "" {
		return list
	}
	return slices.DeleteFunc(list, func(note Note) bool {
		return !strings.Contains(strings.ToLower(note.Title), query) &&
			!strings.Contains(strings.ToLower(note.Content), query)
	})
}

func (book *Book) newNoteLocked(title, content string) Note {
	now := book.options.Clock.Now()
	return Note{
		ID:       uuid.NewString(),
		Title:    title,
		Content:  content,
		Created:  now,
		Modified: now,
	}
}

func (book *Book) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(book.notes, func(note Note) bool { return note.ID == id })
}

func (book *Book) documentLocked() document {
	return document{notes: slices.Clone(book.notes), active: book.active, useSync: book.useSync}
}

func readDocument(ctx context.Context, store storage.Store) (document, error) {
	values, err := store.Get(ctx, keyNotes, keyActive, keyUseSync)
	if err != nil {
		return document{}, err
	}
	var doc document
	if raw, ok := values[keyNotes]; ok {
		if err := json.Unmarshal(raw, &doc.notes); err != nil {
			return document{}, fmt.Errorf("decode %s: %w", keyNotes, err)
		}
	}
	if raw, ok := values[keyActive]; ok {
		// A malformed active ID only loses the selection.
		_ = json.Unmarshal(raw, &doc.active)
	}
	if raw, ok := values[keyUseSync]; ok {
		_ = json.Unmarshal(raw, &doc.useSync)
	}
	return doc, nil
}

func writeDocument(ctx context.Context, store storage.Store, doc document) error {
	notes := doc.notes
	if notes == nil {
		notes = []Note{}
	}
	entries := make(map[string][]byte, 3)
	for key, value := range map[string]any{keyNotes: notes, keyActive: doc.active, keyUseSync: doc.useSync} {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		entries[key] = raw
	}
	return store.Set(ctx, entries)
}
