package session

import (
	"context"
	"sync"

	"github.com/divyadhiman22/MyNotes/internal/domain"
)

// Guard tracks one session's auth state from the live session stream. The
// stream is the only source of truth; the cached hint from Seed is only a
// display value until the first event arrives.
type Guard struct {
	source    domain.SessionSource
	sessionID string
	policy    Policy

	mu        sync.RWMutex
	state     domain.SessionState
	hint      bool
	listeners []func(domain.SessionState)

	loaded   chan struct{}
	loadOnce sync.Once
}

func NewGuard(source domain.SessionSource, sessionID string, policy Policy) *Guard {
	return &Guard{
		source:    source,
		sessionID: sessionID,
		policy:    policy,
		state:     domain.SessionState{IsLoading: true},
		loaded:    make(chan struct{}),
	}
}

// Seed records the client's cached "was authenticated" hint.
func (g *Guard) Seed(cachedAuthenticated bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hint = cachedAuthenticated
}

// Hint returns the cached value, which may disagree with State once loaded.
func (g *Guard) Hint() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hint
}

// OnChange registers fn to run after every applied event. fn runs on the
// observer goroutine and must not call the release func returned by Observe.
func (g *Guard) OnChange(fn func(domain.SessionState)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// Observe subscribes to the session stream. The returned release func is
// idempotent and returns once no further events will be applied.
func (g *Guard) Observe(ctx context.Context) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	events, err := g.source.Watch(ctx, g.sessionID)
	if err != nil {
		cancel()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if ctx.Err() != nil {
				continue
			}
			g.apply(ev)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

func (g *Guard) apply(ev domain.SessionEvent) {
	next := domain.SessionState{}
	if ev.User != nil {
		next.UserID = ev.User.ID
		next.Email = ev.User.Email
		next.IsAuthenticated = true
	}

	g.mu.Lock()
	g.state = next
	g.hint = next.IsAuthenticated
	listeners := append([]func(domain.SessionState){}, g.listeners...)
	g.mu.Unlock()

	g.loadOnce.Do(func() { close(g.loaded) })
	for _, fn := range listeners {
		fn(next)
	}
}

func (g *Guard) State() domain.SessionState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Loaded is closed once the first session event has been applied.
func (g *Guard) Loaded() <-chan struct{} {
	return g.loaded
}

// AwaitLoaded blocks until the first event or until ctx is done.
func (g *Guard) AwaitLoaded(ctx context.Context) error {
	select {
	case <-g.loaded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Guard) Decide(path string, freshLogin bool) Decision {
	return g.policy.Decide(g.State(), path, freshLogin)
}
