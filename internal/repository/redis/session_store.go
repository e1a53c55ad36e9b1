package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/divyadhiman22/MyNotes/internal/domain"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	sessionPrefix = "session:"
	channelPrefix = "session:events:"
)

// SessionStore keeps sessions as expiring keys and announces changes on a
// per-session pub/sub channel.
type SessionStore struct {
	client *goredis.Client
}

func NewSessionStore(client *goredis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) key(sessionID string) string {
	return sessionPrefix + sessionID
}

func (s *SessionStore) channel(sessionID string) string {
	return channelPrefix + sessionID
}

func (s *SessionStore) Create(ctx context.Context, user domain.SessionUser, ttl time.Duration) (*domain.Session, error) {
	now := time.Now().UTC()
	sess := domain.Session{
		ID:        uuid.NewString(),
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sess.ID), data, ttl).Err(); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &sess, nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Revoke deletes the session and tells every watcher it is signed out.
func (s *SessionStore) Revoke(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel(sessionID), "revoked").Err(); err != nil {
		return fmt.Errorf("publish revoke: %w", err)
	}
	return nil
}

// Watch subscribes before reading the current state so no change between the
// two can be missed. Each notification re-reads the key, and key expiry is
// reported as signed out.
func (s *SessionStore) Watch(ctx context.Context, sessionID string) (<-chan domain.SessionEvent, error) {
	pubsub := s.client.Subscribe(ctx, s.channel(sessionID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe session events: %w", err)
	}

	first, expiresAt, err := s.current(ctx, sessionID)
	if err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan domain.SessionEvent, 1)
	out <- first

	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		last := first.User != nil
		for {
			var expired <-chan time.Time
			var timer *time.Timer
			if last {
				timer = time.NewTimer(time.Until(expiresAt))
				expired = timer.C
			}

			select {
			case _, ok := <-msgs:
				if !ok {
					stopTimer(timer)
					return
				}
			case <-expired:
			case <-ctx.Done():
				stopTimer(timer)
				return
			}
			stopTimer(timer)

			ev, exp, err := s.current(ctx, sessionID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				// Unreadable state is treated as signed out.
				ev = domain.SessionEvent{SessionID: sessionID, At: time.Now().UTC()}
			}
			if authed := ev.User != nil; authed == last && authed {
				expiresAt = exp
				continue
			}
			last, expiresAt = ev.User != nil, exp

			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *SessionStore) current(ctx context.Context, sessionID string) (domain.SessionEvent, time.Time, error) {
	ev := domain.SessionEvent{SessionID: sessionID, At: time.Now().UTC()}
	sess, err := s.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return ev, time.Time{}, nil
	}
	if err != nil {
		return ev, time.Time{}, err
	}
	user := sess.User
	ev.User = &user
	return ev, sess.ExpiresAt, nil
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}
