package session_test

import (
	"testing"

	"github.com/divyadhiman22/MyNotes/internal/domain"
	"github.com/divyadhiman22/MyNotes/internal/session"

	"github.com/stretchr/testify/assert"
)

func TestPolicyDecide(t *testing.T) {
	policy := session.DefaultPolicy()
	loading := domain.SessionState{IsLoading: true}
	signedOut := domain.SessionState{}
	signedIn := domain.SessionState{UserID: "u1", IsAuthenticated: true}

	tests := []struct {
		name  string
		state domain.SessionState
		path  string
		fresh bool
		want  session.Decision
	}{
		{"loading never redirects", loading, "/home", false, session.Decision{Loading: true}},
		{"loading hides auth nav", loading, "/", true, session.Decision{Loading: true}},
		{"signed out on protected path", signedOut, "/home", false, session.Decision{Redirect: "/login"}},
		{"signed out on nested protected path", signedOut, "/edit/42", false, session.Decision{Redirect: "/login"}},
		{"signed out on public path", signedOut, "/services", false, session.Decision{}},
		{"signed out on entry", signedOut, "/login", false, session.Decision{}},
		{"prefix match respects segments", signedOut, "/homepage", false, session.Decision{}},
		{"signed in on protected path", signedIn, "/add", false, session.Decision{ShowAuthNav: true}},
		{"fresh sign-in lands on default view", signedIn, "/", true, session.Decision{ShowAuthNav: true, Redirect: "/home"}},
		{"returning visit to landing stays", signedIn, "/", false, session.Decision{ShowAuthNav: true}},
		{"fresh sign-in elsewhere stays", signedIn, "/services", true, session.Decision{ShowAuthNav: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Decide(tt.state, tt.path, tt.fresh))
		})
	}
}

func TestPolicyIsProtected(t *testing.T) {
	policy := session.Policy{ProtectedPrefixes: []string{"/notes/"}}
	assert.True(t, policy.IsProtected("/notes/1"))
	assert.False(t, policy.IsProtected("/notesy"))
}
