package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/divyadhiman22/MyNotes/internal/domain"
)

func TestNavigation(t *testing.T) {
	uc := NewPageUsecase()

	public := uc.Navigation(false)
	assert.Equal(t, "/login", public[len(public)-1].Path)
	for _, l := range public {
		assert.NotEqual(t, "/home", l.Path)
	}

	private := uc.Navigation(true)
	paths := make([]string, 0, len(private))
	for _, l := range private {
		paths = append(paths, l.Path)
	}
	assert.Subset(t, paths, []string{"/home", "/add", "/view", "/edit"})
}

func TestNoteFormDefaults(t *testing.T) {
	uc := &pageUsecase{now: func() time.Time { return time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC) }}

	fields := uc.NoteForm(domain.Note{})
	assert.Equal(t, "2024-03-09", fields[3].Default)

	fields = uc.NoteForm(domain.Note{Title: "Groceries", Date: "2023-12-01"})
	assert.Equal(t, "Groceries", fields[0].Default)
	assert.Equal(t, "2023-12-01", fields[3].Default)
}

func TestServices(t *testing.T) {
	services := NewPageUsecase().Services()
	assert.Len(t, services, 4)
	assert.Equal(t, "Quick Search", services[3].Title)
}
