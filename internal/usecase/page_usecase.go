package usecase

import (
	"time"

	"github.com/divyadhiman22/MyNotes/internal/domain"
	"github.com/divyadhiman22/MyNotes/pkg/validation"
)

type pageUsecase struct {
	now func() time.Time
}

func NewPageUsecase() domain.PageUsecase {
	return &pageUsecase{now: time.Now}
}

// Navigation returns the nav bar. The authenticated links are shown only
// once the session is known to be live.
func (u *pageUsecase) Navigation(showAuthNav bool) []domain.NavLink {
	if showAuthNav {
		return []domain.NavLink{
			{Label: "HOME", Path: "/home"},
			{Label: "ADD", Path: "/add"},
			{Label: "VIEW", Path: "/view"},
			{Label: "EDIT", Path: "/edit"},
			{Label: "LOGOUT", Path: "/v1/auth/logout"},
		}
	}
	return []domain.NavLink{
		{Label: "HOME", Path: "/"},
		{Label: "SERVICES", Path: "/services"},
		{Label: "CONTACT", Path: "/contact"},
		{Label: "SIGN IN", Path: "/login"},
	}
}

func (u *pageUsecase) Services() []domain.Service {
	return []domain.Service{
		{
			Title:       "Simple & Smart Note-Taking",
			Description: "Create clean, well-structured notes with ease. Perfect for daily study, journaling, or brainstorming.",
		},
		{
			Title:       "Privacy & Security",
			Description: "Your notes are private to your account. We respect your privacy: no tracking, no ads.",
		},
		{
			Title:       "Editable Notes",
			Description: "Create and update your notes anytime. Revise, reorder, or add new info effortlessly.",
		},
		{
			Title:       "Quick Search",
			Description: "Find what you need in seconds by searching title, content, or category.",
		},
	}
}

func (u *pageUsecase) LoginForm() []domain.FormField {
	return []domain.FormField{
		{Name: "email", Label: "Email", Type: "email", Required: true, Rules: []string{"Valid email address"}},
		{Name: "password", Label: "Password", Type: "password", Required: true},
	}
}

func (u *pageUsecase) SignUpForm() []domain.FormField {
	return []domain.FormField{
		{Name: "email", Label: "Email", Type: "email", Required: true, Rules: []string{"Valid email address"}},
		{Name: "password", Label: "Password", Type: "password", Required: true, Rules: validation.PasswordRules()},
		{Name: "confirm_password", Label: "Confirm Password", Type: "password", Required: true, Rules: []string{"Must match password"}},
	}
}

func (u *pageUsecase) ContactForm() []domain.FormField {
	return []domain.FormField{
		{Name: "name", Label: "Your Name", Type: "text", Required: true},
		{Name: "email", Label: "Your Email", Type: "email", Required: true},
		{Name: "subject", Label: "Subject", Type: "text"},
		{Name: "message", Label: "Your Message", Type: "textarea", Required: true},
	}
}

// NoteForm returns the add/edit form prefilled from defaults. A blank date
// becomes today.
func (u *pageUsecase) NoteForm(defaults domain.Note) []domain.FormField {
	date := defaults.Date
	if date == "" {
		date = u.now().Format(validation.DateLayout)
	}
	return []domain.FormField{
		{Name: "title", Label: "Title", Type: "text", Required: true, Default: defaults.Title},
		{Name: "content", Label: "Content", Type: "textarea", Required: true, Default: defaults.Content},
		{Name: "category", Label: "Category", Type: "text", Default: defaults.Category},
		{Name: "date", Label: "Date", Type: "date", Required: true, Default: date, Rules: []string{"YYYY-MM-DD"}},
	}
}
