package memory

import (
	"context"
	"sync"
	"time"

	"github.com/divyadhiman22/MyNotes/internal/domain"

	"github.com/google/uuid"
)

// SessionStore is an in-process session table with change notification.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	watchers map[string]map[chan struct{}]struct{}
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
		watchers: make(map[string]map[chan struct{}]struct{}),
		now:      time.Now,
	}
}

func (s *SessionStore) Create(ctx context.Context, user domain.SessionUser, ttl time.Duration) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	sess := domain.Session{
		ID:        uuid.NewString(),
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.notifyLocked(sess.ID)
	s.mu.Unlock()
	return &sess, nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.liveLocked(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *SessionStore) Revoke(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	s.notifyLocked(sessionID)
	return nil
}

// Watch emits the session's current state, then every change including
// expiry. Intermediate states may be coalesced; the latest is always delivered.
func (s *SessionStore) Watch(ctx context.Context, sessionID string) (<-chan domain.SessionEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wake := make(chan struct{}, 1)
	s.mu.Lock()
	if s.watchers[sessionID] == nil {
		s.watchers[sessionID] = make(map[chan struct{}]struct{})
	}
	s.watchers[sessionID][wake] = struct{}{}
	s.mu.Unlock()

	out := make(chan domain.SessionEvent)
	go func() {
		defer close(out)
		defer s.unwatch(sessionID, wake)

		first := true
		var last string
		for {
			ev, expiresAt := s.current(sessionID)
			if key := eventKey(ev); first || key != last {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
				first, last = false, key
			}

			var timer *time.Timer
			var expired <-chan time.Time
			if ev.User != nil {
				timer = time.NewTimer(time.Until(expiresAt))
				expired = timer.C
			}
			stop := false
			select {
			case <-wake:
			case <-expired:
			case <-ctx.Done():
				stop = true
			}
			if timer != nil {
				timer.Stop()
			}
			if stop {
				return
			}
		}
	}()
	return out, nil
}

func eventKey(ev domain.SessionEvent) string {
	if ev.User == nil {
		return ""
	}
	return ev.User.ID
}

func (s *SessionStore) current(sessionID string) (domain.SessionEvent, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := domain.SessionEvent{SessionID: sessionID, At: s.now().UTC()}
	sess, ok := s.liveLocked(sessionID)
	if !ok {
		return ev, time.Time{}
	}
	user := sess.User
	ev.User = &user
	return ev, sess.ExpiresAt
}

func (s *SessionStore) liveLocked(sessionID string) (domain.Session, bool) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, false
	}
	if !s.now().Before(sess.ExpiresAt) {
		delete(s.sessions, sessionID)
		return domain.Session{}, false
	}
	return sess, true
}

func (s *SessionStore) notifyLocked(sessionID string) {
	for w := range s.watchers[sessionID] {
		select {
		case w <- struct{}{}:
		default:
		}
	}
}

func (s *SessionStore) unwatch(sessionID string, wake chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watchers[sessionID], wake)
	if len(s.watchers[sessionID]) == 0 {
		delete(s.watchers, sessionID)
	}
}
