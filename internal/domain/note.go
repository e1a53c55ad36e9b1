package domain

import (
	"context"
	"time"
)

// DefaultCategory is applied to notes stored without a category.
const DefaultCategory = "Uncategorized"

type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Date      string    `json:"date"` // calendar date, YYYY-MM-DD
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotePatch carries the fields of a partial update. Nil fields are left
// untouched; UpdatedAt is always written.
type NotePatch struct {
	Title     *string   `json:"title,omitempty"`
	Content   *string   `json:"content,omitempty"`
	Category  *string   `json:"category,omitempty"`
	Date      *string   `json:"date,omitempty"`
	UpdatedAt time.Time `json:"-"`
}

// Apply returns a copy of n with the patch fields written over it.
func (p NotePatch) Apply(n Note) Note {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Category != nil {
		n.Category = *p.Category
	}
	if p.Date != nil {
		n.Date = *p.Date
	}
	if !p.UpdatedAt.IsZero() {
		n.UpdatedAt = p.UpdatedAt
	}
	return n
}

type CategorySummary struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// NoteSnapshot is a consistent view of one user's notes at a point in time.
// Categories and Total always describe the full set, never the filtered view.
type NoteSnapshot struct {
	Notes      []Note            `json:"notes"`
	Total      int               `json:"total"`
	Categories []CategorySummary `json:"categories"`
	Query      string            `json:"query,omitempty"`
	Selected   *Note             `json:"selected,omitempty"`
	Loading    bool              `json:"loading"`
	Loaded     bool              `json:"loaded"`
}

// NoteDocumentStore is the remote per-user note collection.
type NoteDocumentStore interface {
	Create(ctx context.Context, userID string, note Note) (string, error)
	List(ctx context.Context, userID string) ([]Note, error)
	Update(ctx context.Context, userID, noteID string, patch NotePatch) error
	Delete(ctx context.Context, userID, noteID string) error
}

// NoteRepository caches one session's notes and keeps the derived category
// summary consistent with the last applied fetch.
type NoteRepository interface {
	FetchNotes(ctx context.Context, userID string) (NoteSnapshot, error)
	AddNote(ctx context.Context, userID string, note Note) (NoteSnapshot, error)
	UpdateNote(ctx context.Context, userID, noteID string, patch NotePatch) (NoteSnapshot, error)
	DeleteNote(ctx context.Context, userID, noteID string) (NoteSnapshot, error)
	SearchNotes(ctx context.Context, userID, query string) (NoteSnapshot, error)
	SetSelectedNote(note *Note)
	FindNote(noteID string) (Note, bool)
	Snapshot() NoteSnapshot
	Close()
}
