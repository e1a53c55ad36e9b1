package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/divyadhiman22/MyNotes/internal/domain"
	"github.com/divyadhiman22/MyNotes/pkg/apperror"

	"golang.org/x/text/cases"
)

// ErrRepositoryClosed is returned once the owning session view is gone.
var ErrRepositoryClosed = apperror.Stale("This notes view has been closed")

type noteRepository struct {
	store  domain.NoteDocumentStore
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	all        []domain.Note
	categories []domain.CategorySummary
	query      string
	selected   *domain.Note
	pending    int
	loaded     bool
	seq        uint64
	closed     bool
}

type NoteRepositoryOption func(*noteRepository)

// WithClock overrides the timestamp source used for created/updated stamps.
func WithClock(now func() time.Time) NoteRepositoryOption {
	return func(r *noteRepository) {
		r.now = now
	}
}

func NewNoteRepository(store domain.NoteDocumentStore, logger *slog.Logger, opts ...NoteRepositoryOption) domain.NoteRepository {
	if logger == nil {
		logger = slog.Default()
	}
	r := &noteRepository{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FetchNotes replaces the cached set with the store's contents. Only the most
// recently issued fetch may apply; older or cancelled ones report Stale.
func (r *noteRepository) FetchNotes(ctx context.Context, userID string) (domain.NoteSnapshot, error) {
	if err := requireUser(userID); err != nil {
		return r.Snapshot(), err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return domain.NoteSnapshot{}, ErrRepositoryClosed
	}
	r.seq++
	seq := r.seq
	r.pending++
	r.mu.Unlock()
	defer r.done()

	notes, err := r.store.List(ctx, userID)
	if err != nil {
		if ctx.Err() != nil {
			return r.Snapshot(), apperror.Stale("Request was cancelled")
		}
		r.logger.Error("fetch notes failed", "user_id", userID, "error", err)
		return r.Snapshot(), remoteError(err)
	}

	for i := range notes {
		notes[i].Category = categoryOrDefault(notes[i].Category)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.NoteSnapshot{}, ErrRepositoryClosed
	}
	if seq != r.seq || ctx.Err() != nil {
		r.logger.Debug("discarding stale fetch", "user_id", userID, "seq", seq, "latest", r.seq)
		return r.snapshotLocked(), apperror.Stale("A newer request replaced this one")
	}

	r.all = notes
	r.categories = summarize(notes)
	r.query = ""
	r.loaded = true
	if r.selected != nil {
		r.selected = findNote(notes, r.selected.ID)
	}
	return r.snapshotLocked(), nil
}

func (r *noteRepository) AddNote(ctx context.Context, userID string, note domain.Note) (domain.NoteSnapshot, error) {
	if err := requireUser(userID); err != nil {
		return r.Snapshot(), err
	}
	if note.ID != "" {
		return r.Snapshot(), apperror.BadRequest("A new note must not carry an id")
	}
	if err := r.begin(); err != nil {
		return domain.NoteSnapshot{}, err
	}
	defer r.done()

	note.Category = categoryOrDefault(note.Category)
	note.CreatedAt = r.now().UTC()
	note.UpdatedAt = note.CreatedAt

	id, err := r.store.Create(ctx, userID, note)
	if err != nil {
		r.logger.Error("add note failed", "user_id", userID, "error", err)
		return r.Snapshot(), remoteError(err)
	}
	r.logger.Info("note added", "user_id", userID, "note_id", id)

	return r.refreshAfterWrite(ctx, userID)
}

func (r *noteRepository) UpdateNote(ctx context.Context, userID, noteID string, patch domain.NotePatch) (domain.NoteSnapshot, error) {
	if err := requireUser(userID); err != nil {
		return r.Snapshot(), err
	}
	if strings.TrimSpace(noteID) == "" {
		return r.Snapshot(), apperror.BadRequest("Note id is required")
	}
	if err := r.begin(); err != nil {
		return domain.NoteSnapshot{}, err
	}
	defer r.done()

	if patch.Category != nil {
		category := categoryOrDefault(*patch.Category)
		patch.Category = &category
	}
	patch.UpdatedAt = r.now().UTC()

	if err := r.store.Update(ctx, userID, noteID, patch); err != nil {
		r.logger.Error("update note failed", "user_id", userID, "note_id", noteID, "error", err)
		return r.Snapshot(), remoteError(err)
	}

	r.mu.Lock()
	r.selected = nil
	r.mu.Unlock()

	return r.refreshAfterWrite(ctx, userID)
}

func (r *noteRepository) DeleteNote(ctx context.Context, userID, noteID string) (domain.NoteSnapshot, error) {
	if err := requireUser(userID); err != nil {
		return r.Snapshot(), err
	}
	if strings.TrimSpace(noteID) == "" {
		return r.Snapshot(), apperror.BadRequest("Note id is required")
	}
	if err := r.begin(); err != nil {
		return domain.NoteSnapshot{}, err
	}
	defer r.done()

	if err := r.store.Delete(ctx, userID, noteID); err != nil {
		r.logger.Error("delete note failed", "user_id", userID, "note_id", noteID, "error", err)
		return r.Snapshot(), remoteError(err)
	}

	r.mu.Lock()
	if r.selected != nil && r.selected.ID == noteID {
		r.selected = nil
	}
	r.mu.Unlock()

	return r.refreshAfterWrite(ctx, userID)
}

// refreshAfterWrite reloads the cache once a store write has succeeded. A
// superseded refresh is not an error here: the write stands and the newer
// fetch owns the cache. Other refresh failures still report that the write
// went through, so callers do not retry it.
func (r *noteRepository) refreshAfterWrite(ctx context.Context, userID string) (domain.NoteSnapshot, error) {
	snap, err := r.FetchNotes(ctx, userID)
	if err == nil {
		return snap, nil
	}
	if apperror.Is(err, apperror.KindStale) {
		return r.Snapshot(), nil
	}
	r.logger.Warn("refresh after write failed", "user_id", userID, "error", err)
	return snap, apperror.WithKind(apperror.KindRemote, http.StatusServiceUnavailable,
		"Your change was saved, but the notes list could not be refreshed.", err)
}

// SearchNotes narrows the visible notes without touching the cached full set.
// An empty cache is filled by exactly one fetch first. Leading and trailing
// spaces in the query are ignored.
func (r *noteRepository) SearchNotes(ctx context.Context, userID, query string) (domain.NoteSnapshot, error) {
	if err := requireUser(userID); err != nil {
		return r.Snapshot(), err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return domain.NoteSnapshot{}, ErrRepositoryClosed
	}
	empty := len(r.all) == 0
	r.mu.Unlock()

	if empty {
		if snap, err := r.FetchNotes(ctx, userID); err != nil {
			return snap, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.NoteSnapshot{}, ErrRepositoryClosed
	}
	r.query = strings.TrimSpace(query)
	return r.snapshotLocked(), nil
}

func (r *noteRepository) SetSelectedNote(note *domain.Note) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if note == nil {
		r.selected = nil
		return
	}
	n := *note
	r.selected = &n
}

func (r *noteRepository) FindNote(noteID string) (domain.Note, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := findNote(r.all, noteID); n != nil {
		return *n, true
	}
	return domain.Note{}, false
}

func (r *noteRepository) Snapshot() domain.NoteSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Close drops the cache. Results of operations still in flight are discarded.
func (r *noteRepository) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.all = nil
	r.categories = nil
	r.selected = nil
	r.query = ""
	r.loaded = false
}

func (r *noteRepository) begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRepositoryClosed
	}
	r.pending++
	return nil
}

func (r *noteRepository) done() {
	r.mu.Lock()
	r.pending--
	r.mu.Unlock()
}

func (r *noteRepository) snapshotLocked() domain.NoteSnapshot {
	snap := domain.NoteSnapshot{
		Notes:      filterNotes(r.all, r.query),
		Total:      len(r.all),
		Categories: append([]domain.CategorySummary(nil), r.categories...),
		Query:      r.query,
		Loading:    r.pending > 0,
		Loaded:     r.loaded,
	}
	if snap.Categories == nil {
		snap.Categories = []domain.CategorySummary{}
	}
	if r.selected != nil {
		n := *r.selected
		snap.Selected = &n
	}
	return snap
}

// summarize counts notes per category in order of first appearance.
// Grouping is case-sensitive.
func summarize(notes []domain.Note) []domain.CategorySummary {
	index := make(map[string]int)
	summary := make([]domain.CategorySummary, 0)
	for _, n := range notes {
		if i, ok := index[n.Category]; ok {
			summary[i].Count++
			continue
		}
		index[n.Category] = len(summary)
		summary = append(summary, domain.CategorySummary{Name: n.Category, Count: 1})
	}
	return summary
}

func filterNotes(notes []domain.Note, query string) []domain.Note {
	out := make([]domain.Note, 0, len(notes))
	if query == "" {
		return append(out, notes...)
	}
	// Caser values keep state and must not be shared across goroutines.
	fold := cases.Fold()
	q := fold.String(query)
	for _, n := range notes {
		if strings.Contains(fold.String(n.Title), q) ||
			strings.Contains(fold.String(n.Content), q) ||
			strings.Contains(fold.String(n.Category), q) {
			out = append(out, n)
		}
	}
	return out
}

func findNote(notes []domain.Note, id string) *domain.Note {
	for i := range notes {
		if notes[i].ID == id {
			n := notes[i]
			return &n
		}
	}
	return nil
}

// categoryOrDefault maps an empty or whitespace-only category to the default.
func categoryOrDefault(category string) string {
	if strings.TrimSpace(category) == "" {
		return domain.DefaultCategory
	}
	return category
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperror.Unauthorized("User not authenticated")
	}
	return nil
}

// remoteError keeps typed store errors (such as not found) and wraps the rest.
func remoteError(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.Remote(err)
}
