package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/divyadhiman22/MyNotes/internal/domain"
	"github.com/divyadhiman22/MyNotes/pkg/apperror"

	"github.com/google/uuid"
)

// NoteStore keeps every user's notes in process memory.
type NoteStore struct {
	mu    sync.RWMutex
	notes map[string]map[string]domain.Note // user id -> note id -> note
	order map[string]int64
	next  int64
}

func NewNoteStore() *NoteStore {
	return &NoteStore{
		notes: make(map[string]map[string]domain.Note),
		order: make(map[string]int64),
	}
}

func (s *NoteStore) Create(ctx context.Context, userID string, note domain.Note) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	note.ID = uuid.NewString()
	if s.notes[userID] == nil {
		s.notes[userID] = make(map[string]domain.Note)
	}
	s.notes[userID][note.ID] = note
	s.next++
	s.order[note.ID] = s.next
	return note.ID, nil
}

// List returns notes in insertion order.
func (s *NoteStore) List(ctx context.Context, userID string) ([]domain.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	notes := make([]domain.Note, 0, len(s.notes[userID]))
	for _, n := range s.notes[userID] {
		notes = append(notes, n)
	}
	sort.Slice(notes, func(i, j int) bool {
		return s.order[notes[i].ID] < s.order[notes[j].ID]
	})
	return notes, nil
}

func (s *NoteStore) Update(ctx context.Context, userID, noteID string, patch domain.NotePatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[userID][noteID]
	if !ok {
		return apperror.NotFound("Note not found")
	}
	s.notes[userID][noteID] = patch.Apply(n)
	return nil
}

func (s *NoteStore) Delete(ctx context.Context, userID, noteID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[userID][noteID]; !ok {
		return apperror.NotFound("Note not found")
	}
	delete(s.notes[userID], noteID)
	delete(s.order, noteID)
	return nil
}
