package domain

// NavLink is one entry of the navigation bar.
type NavLink struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

type Service struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// FormField describes one input of a rendered form and its rules.
type FormField struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Default  string   `json:"default,omitempty"`
	Rules    []string `json:"rules,omitempty"`
}

type PageView struct {
	Page    string       `json:"page"`
	Title   string       `json:"title"`
	Nav     []NavLink    `json:"nav"`
	Session SessionState `json:"session"`
	Data    interface{}  `json:"data,omitempty"`
}

type PageUsecase interface {
	Navigation(showAuthNav bool) []NavLink
	Services() []Service
	LoginForm() []FormField
	SignUpForm() []FormField
	ContactForm() []FormField
	NoteForm(defaults Note) []FormField
}
