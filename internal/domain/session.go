package domain

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionUser is the identity carried by a signed-in session.
type SessionUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

type Session struct {
	ID        string      `json:"id"`
	User      SessionUser `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// SessionEvent is one notification from the live session stream. A nil User
// means the session is signed out.
type SessionEvent struct {
	SessionID string       `json:"session_id"`
	User      *SessionUser `json:"user,omitempty"`
	At        time.Time    `json:"at"`
}

type SessionState struct {
	UserID          string `json:"user_id,omitempty"`
	Email           string `json:"email,omitempty"`
	IsAuthenticated bool   `json:"is_authenticated"`
	IsLoading       bool   `json:"is_loading"`
}

// SessionSource delivers a session's auth state as a stream. Watch emits the
// current state first, then every change, and closes the channel once ctx is
// done.
type SessionSource interface {
	Watch(ctx context.Context, sessionID string) (<-chan SessionEvent, error)
}

type SessionStore interface {
	SessionSource
	Create(ctx context.Context, user SessionUser, ttl time.Duration) (*Session, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	Revoke(ctx context.Context, sessionID string) error
}
