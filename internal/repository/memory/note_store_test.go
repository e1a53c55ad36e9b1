package memory_test

import (
	"context"
	"testing"

	"github.com/divyadhiman22/MyNotes/internal/domain"
	"github.com/divyadhiman22/MyNotes/internal/repository/memory"
	"github.com/divyadhiman22/MyNotes/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewNoteStore()

	first, err := store.Create(ctx, "u1", domain.Note{Title: "first", Category: "Work"})
	require.NoError(t, err)
	second, err := store.Create(ctx, "u1", domain.Note{Title: "second", Category: "Home"})
	require.NoError(t, err)
	_, err = store.Create(ctx, "u2", domain.Note{Title: "other user"})
	require.NoError(t, err)

	t.Run("List is scoped per user and keeps insertion order", func(t *testing.T) {
		notes, err := store.List(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, first, notes[0].ID)
		assert.Equal(t, second, notes[1].ID)
	})

	t.Run("Update writes only the given fields", func(t *testing.T) {
		title := "renamed"
		require.NoError(t, store.Update(ctx, "u1", first, domain.NotePatch{Title: &title}))
		notes, _ := store.List(ctx, "u1")
		assert.Equal(t, "renamed", notes[0].Title)
		assert.Equal(t, "Work", notes[0].Category)
	})

	t.Run("Other users cannot touch a note", func(t *testing.T) {
		err := store.Delete(ctx, "u2", first)
		assert.True(t, apperror.Is(err, apperror.KindNotFound))
	})

	t.Run("Delete removes the note", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "u1", second))
		notes, _ := store.List(ctx, "u1")
		assert.Len(t, notes, 1)
		assert.True(t, apperror.Is(store.Delete(ctx, "u1", second), apperror.KindNotFound))
	})

	t.Run("Cancelled context fails", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.List(cctx, "u1")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
