package session

import (
	"strings"

	"github.com/divyadhiman22/MyNotes/internal/domain"
)

// Policy holds the navigation rules applied to every request.
type Policy struct {
	// ProtectedPrefixes are path prefixes that need a signed-in user.
	ProtectedPrefixes []string
	// PublicEntry is where unauthenticated visitors of protected paths go.
	PublicEntry string
	// DefaultView is where a fresh sign-in lands.
	DefaultView string
	// ForwardFrom lists paths a freshly signed-in user is moved away from.
	ForwardFrom []string
}

func DefaultPolicy() Policy {
	return Policy{
		ProtectedPrefixes: []string{"/home", "/add", "/view", "/edit"},
		PublicEntry:       "/login",
		DefaultView:       "/home",
		ForwardFrom:       []string{"/"},
	}
}

// Decision is the outcome of evaluating a path against the session state.
type Decision struct {
	Redirect    string `json:"redirect,omitempty"`
	ShowAuthNav bool   `json:"show_auth_nav"`
	Loading     bool   `json:"loading"`
}

// IsProtected matches whole path segments, so "/home" covers "/home/x" but
// not "/homepage".
func (p Policy) IsProtected(path string) bool {
	for _, prefix := range p.ProtectedPrefixes {
		if path == prefix || strings.HasPrefix(path, strings.TrimRight(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

// Decide never redirects while the session is still loading.
func (p Policy) Decide(state domain.SessionState, path string, freshLogin bool) Decision {
	if state.IsLoading {
		return Decision{Loading: true}
	}
	if !state.IsAuthenticated {
		if p.IsProtected(path) && path != p.PublicEntry {
			return Decision{Redirect: p.PublicEntry}
		}
		return Decision{}
	}

	d := Decision{ShowAuthNav: true}
	if freshLogin && p.forwards(path) && path != p.DefaultView {
		d.Redirect = p.DefaultView
	}
	return d
}

func (p Policy) forwards(path string) bool {
	for _, f := range p.ForwardFrom {
		if path == f {
			return true
		}
	}
	return false
}
