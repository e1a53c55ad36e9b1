package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/divyadhiman22/MyNotes/internal/domain"
)

var ErrRegistryClosed = errors.New("session registry closed")

// Workspace is the per-session state: its guard and its note cache.
type Workspace struct {
	SessionID string
	Guard     *Guard
	Notes     domain.NoteRepository

	release  func()
	lastUsed time.Time
}

// Registry owns one Workspace per live session. Workspaces are dropped on
// sign-out, after sitting idle, or when the registry closes.
type Registry struct {
	source   domain.SessionSource
	newNotes func() domain.NoteRepository
	policy   Policy
	idleTTL  time.Duration
	logger   *slog.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	workspaces map[string]*Workspace
	closed     bool
}

func NewRegistry(source domain.SessionSource, newNotes func() domain.NoteRepository, policy Policy, idleTTL time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		source:     source,
		newNotes:   newNotes,
		policy:     policy,
		idleTTL:    idleTTL,
		logger:     logger,
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
		workspaces: make(map[string]*Workspace),
	}
}

func (r *Registry) Policy() Policy {
	return r.policy
}

// Acquire returns the session's workspace, creating and subscribing it on
// first use.
func (r *Registry) Acquire(ctx context.Context, sessionID string, cachedAuthenticated bool) (*Workspace, error) {
	if ws, err := r.lookup(sessionID); ws != nil || err != nil {
		return ws, err
	}

	guard := NewGuard(r.source, sessionID, r.policy)
	guard.Seed(cachedAuthenticated)
	guard.OnChange(func(st domain.SessionState) {
		if !st.IsAuthenticated {
			r.releaseAsync(sessionID)
		}
	})

	release, err := guard.Observe(r.ctx)
	if err != nil {
		return nil, err
	}
	ws := &Workspace{
		SessionID: sessionID,
		Guard:     guard,
		Notes:     r.newNotes(),
		release:   release,
		lastUsed:  r.now(),
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		ws.close()
		return nil, ErrRegistryClosed
	}
	if existing, ok := r.workspaces[sessionID]; ok {
		existing.lastUsed = r.now()
		r.mu.Unlock()
		ws.close()
		return existing, nil
	}
	r.workspaces[sessionID] = ws
	r.mu.Unlock()
	r.logger.Debug("workspace opened", "session_id", sessionID)

	// A signed-out event may have been applied before the insert above.
	select {
	case <-guard.Loaded():
		if !guard.State().IsAuthenticated {
			r.Release(sessionID)
		}
	default:
	}
	return ws, nil
}

func (r *Registry) lookup(sessionID string) (*Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRegistryClosed
	}
	ws, ok := r.workspaces[sessionID]
	if !ok {
		return nil, nil
	}
	ws.lastUsed = r.now()
	return ws, nil
}

// Release tears down the session's workspace if it exists.
func (r *Registry) Release(sessionID string) {
	r.mu.Lock()
	ws, ok := r.workspaces[sessionID]
	delete(r.workspaces, sessionID)
	r.mu.Unlock()

	if ok {
		ws.close()
		r.logger.Debug("workspace released", "session_id", sessionID)
	}
}

// releaseAsync runs Release off the observer goroutine, since Release waits
// for the observer. Close joins it.
func (r *Registry) releaseAsync(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.Release(sessionID)
	}()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// StartJanitor evicts workspaces idle for longer than the idle TTL.
func (r *Registry) StartJanitor(interval time.Duration) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.EvictIdle()
			case <-r.ctx.Done():
				return
			}
		}
	}()
}

// EvictIdle releases every workspace unused for longer than the idle TTL and
// returns how many were released.
func (r *Registry) EvictIdle() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*Workspace
	for id, ws := range r.workspaces {
		if ws.lastUsed.Before(cutoff) {
			idle = append(idle, ws)
			delete(r.workspaces, id)
		}
	}
	r.mu.Unlock()

	for _, ws := range idle {
		ws.close()
	}
	if len(idle) > 0 {
		r.logger.Info("evicted idle workspaces", "count", len(idle))
	}
	return len(idle)
}

// Close releases every workspace and stops the janitor.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	all := r.workspaces
	r.workspaces = make(map[string]*Workspace)
	r.mu.Unlock()

	r.cancel()
	for _, ws := range all {
		ws.close()
	}
	r.wg.Wait()
}

func (ws *Workspace) close() {
	ws.release()
	ws.Notes.Close()
}
