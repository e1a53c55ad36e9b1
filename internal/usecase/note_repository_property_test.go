package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/divyadhiman22/MyNotes/internal/domain"
	"github.com/divyadhiman22/MyNotes/internal/repository/memory"
	"github.com/divyadhiman22/MyNotes/internal/usecase"

	"pgregory.net/rapid"
)

func genNote() *rapid.Generator[domain.Note] {
	return rapid.Custom(func(t *rapid.T) domain.Note {
		return domain.Note{
			Title:    rapid.StringMatching(`[A-Za-z ]{0,12}`).Draw(t, "title"),
			Content:  rapid.StringMatching(`[A-Za-z ]{0,24}`).Draw(t, "content"),
			Category: rapid.SampledFrom([]string{"", "Work", "work", "Home", "Ideas"}).Draw(t, "category"),
			Date:     "2024-01-01",
		}
	})
}

// Category counts always add up to the full set and list each category once,
// in order of first appearance.
func TestCategorySummaryProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		notes := rapid.SliceOfN(genNote(), 0, 20).Draw(t, "notes")
		store := memory.NewNoteStore()
		for _, n := range notes {
			if _, err := store.Create(context.Background(), "u1", n); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		repo := usecase.NewNoteRepository(store, quietLogger)
		snap, err := repo.FetchNotes(context.Background(), "u1")
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}

		var order []string
		seen := map[string]bool{}
		for _, n := range snap.Notes {
			if !seen[n.Category] {
				seen[n.Category] = true
				order = append(order, n.Category)
			}
		}

		total := 0
		if len(snap.Categories) != len(order) {
			t.Fatalf("got %d categories, want %d", len(snap.Categories), len(order))
		}
		for i, c := range snap.Categories {
			if c.Name != order[i] {
				t.Fatalf("category %d = %q, want %q", i, c.Name, order[i])
			}
			if c.Name == "" {
				t.Fatalf("empty category name leaked into summary")
			}
			total += c.Count
		}
		if total != len(notes) {
			t.Fatalf("counts sum to %d, want %d", total, len(notes))
		}
	})
}

// A search never changes the full set and only returns matching notes.
func TestSearchProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		notes := rapid.SliceOfN(genNote(), 1, 15).Draw(t, "notes")
		query := rapid.StringMatching(`[A-Za-z]{0,3}`).Draw(t, "query")

		store := memory.NewNoteStore()
		for _, n := range notes {
			if _, err := store.Create(context.Background(), "u1", n); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		repo := usecase.NewNoteRepository(store, quietLogger)
		snap, err := repo.SearchNotes(context.Background(), "u1", query)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if snap.Total != len(notes) {
			t.Fatalf("total = %d, want %d", snap.Total, len(notes))
		}

		q := strings.ToLower(query)
		want := 0
		for _, n := range notes {
			category := n.Category
			if category == "" {
				category = domain.DefaultCategory
			}
			if strings.Contains(strings.ToLower(n.Title), q) ||
				strings.Contains(strings.ToLower(n.Content), q) ||
				strings.Contains(strings.ToLower(category), q) {
				want++
			}
		}
		if len(snap.Notes) != want {
			t.Fatalf("matched %d notes, want %d", len(snap.Notes), want)
		}
	})
}
