package session_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/divyadhiman22/MyNotes/internal/domain"
	"github.com/divyadhiman22/MyNotes/internal/repository/memory"
	"github.com/divyadhiman22/MyNotes/internal/session"
	"github.com/divyadhiman22/MyNotes/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newRegistry(store *memory.SessionStore, idle time.Duration) *session.Registry {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notes := memory.NewNoteStore()
	return session.NewRegistry(store, func() domain.NoteRepository {
		return usecase.NewNoteRepository(notes, logger)
	}, session.DefaultPolicy(), idle, logger)
}

func TestRegistryAcquire(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	registry := newRegistry(store, time.Hour)
	defer registry.Close()

	sess, err := store.Create(ctx, domain.SessionUser{ID: "u1"}, time.Hour)
	require.NoError(t, err)

	ws, err := registry.Acquire(ctx, sess.ID, false)
	require.NoError(t, err)
	require.NoError(t, ws.Guard.AwaitLoaded(ctx))
	assert.True(t, ws.Guard.State().IsAuthenticated)

	t.Run("Same session shares one workspace", func(t *testing.T) {
		again, err := registry.Acquire(ctx, sess.ID, true)
		require.NoError(t, err)
		assert.Same(t, ws, again)
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("Sign-out releases the workspace and its cache", func(t *testing.T) {
		_, err := ws.Notes.AddNote(ctx, "u1", domain.Note{Title: "a"})
		require.NoError(t, err)

		require.NoError(t, store.Revoke(ctx, sess.ID))
		eventually(t, func() bool { return registry.Len() == 0 })
		assert.Empty(t, ws.Notes.Snapshot().Notes)
		_, err = ws.Notes.FetchNotes(ctx, "u1")
		assert.ErrorIs(t, err, usecase.ErrRepositoryClosed)
	})
}

func TestRegistryUnknownSession(t *testing.T) {
	ctx := context.Background()
	registry := newRegistry(memory.NewSessionStore(), time.Hour)
	defer registry.Close()

	ws, err := registry.Acquire(ctx, "forged", true)
	require.NoError(t, err)
	require.NoError(t, ws.Guard.AwaitLoaded(ctx))
	assert.False(t, ws.Guard.State().IsAuthenticated)
	eventually(t, func() bool { return registry.Len() == 0 })
}

func TestRegistryEviction(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	registry := newRegistry(store, 10*time.Millisecond)
	defer registry.Close()

	sess, err := store.Create(ctx, domain.SessionUser{ID: "u1"}, time.Hour)
	require.NoError(t, err)
	_, err = registry.Acquire(ctx, sess.ID, true)
	require.NoError(t, err)

	registry.StartJanitor(5 * time.Millisecond)
	eventually(t, func() bool { return registry.Len() == 0 })
}

func TestRegistryClose(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	registry := newRegistry(store, time.Hour)

	sess, err := store.Create(ctx, domain.SessionUser{ID: "u1"}, time.Hour)
	require.NoError(t, err)
	_, err = registry.Acquire(ctx, sess.ID, false)
	require.NoError(t, err)

	registry.Close()
	registry.Close()
	assert.Equal(t, 0, registry.Len())

	_, err = registry.Acquire(ctx, sess.ID, false)
	assert.ErrorIs(t, err, session.ErrRegistryClosed)
}

func TestRegistryCloseJoinsSignOutRelease(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	registry := newRegistry(store, time.Hour)

	sess, err := store.Create(ctx, domain.SessionUser{ID: "u1"}, time.Hour)
	require.NoError(t, err)
	ws, err := registry.Acquire(ctx, sess.ID, true)
	require.NoError(t, err)
	require.NoError(t, ws.Guard.AwaitLoaded(ctx))

	require.NoError(t, store.Revoke(ctx, sess.ID))
	registry.Close()

	assert.Equal(t, 0, registry.Len())
	goleak.VerifyNone(t)
}
