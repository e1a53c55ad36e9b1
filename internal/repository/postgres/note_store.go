package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/divyadhiman22/MyNotes/internal/domain"
	"github.com/divyadhiman22/MyNotes/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type noteStore struct {
	db *pgxpool.Pool
}

// NewNoteStore returns the notes table as a per-user document collection.
func NewNoteStore(db *pgxpool.Pool) domain.NoteDocumentStore {
	return &noteStore{db: db}
}

func (s *noteStore) Create(ctx context.Context, userID string, note domain.Note) (string, error) {
	id := uuid.New()
	query := `INSERT INTO notes (id, user_id, title, content, category, note_date, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.db.Exec(ctx, query, id, userID, note.Title, note.Content, note.Category,
		note.Date, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("insert note: %w", err)
	}
	return id.String(), nil
}

func (s *noteStore) List(ctx context.Context, userID string) ([]domain.Note, error) {
	query := `SELECT id, title, content, category, note_date, created_at, updated_at
              FROM notes WHERE user_id = $1 ORDER BY created_at, id`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]domain.Note, 0)
	for rows.Next() {
		var n domain.Note
		var id uuid.UUID
		if err := rows.Scan(&id, &n.Title, &n.Content, &n.Category, &n.Date, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.ID = id.String()
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// Update writes only the non-nil patch fields plus updated_at.
func (s *noteStore) Update(ctx context.Context, userID, noteID string, patch domain.NotePatch) error {
	id, err := uuid.Parse(noteID)
	if err != nil {
		return apperror.NotFound("Note not found")
	}

	args := []interface{}{userID, id}
	var sets []string
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Content != nil {
		add("content", *patch.Content)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Date != nil {
		add("note_date", *patch.Date)
	}
	add("updated_at", patch.UpdatedAt)

	query := `UPDATE notes SET ` + strings.Join(sets, ", ") + ` WHERE user_id = $1 AND id = $2`
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Note not found")
	}
	return nil
}

func (s *noteStore) Delete(ctx context.Context, userID, noteID string) error {
	id, err := uuid.Parse(noteID)
	if err != nil {
		return apperror.NotFound("Note not found")
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM notes WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Note not found")
	}
	return nil
}
