package v1_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/divyadhiman22/MyNotes/config"
	"github.com/divyadhiman22/MyNotes/internal/delivery/http/middleware"
	v1 "github.com/divyadhiman22/MyNotes/internal/delivery/http/v1"
	"github.com/divyadhiman22/MyNotes/internal/domain"
	"github.com/divyadhiman22/MyNotes/internal/repository/memory"
	"github.com/divyadhiman22/MyNotes/internal/session"
	"github.com/divyadhiman22/MyNotes/internal/usecase"
	"github.com/divyadhiman22/MyNotes/pkg/auth"
	"github.com/divyadhiman22/MyNotes/pkg/email"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Environment:              "test",
		FrontendURL:              "http://localhost:5173",
		PublicEntryPath:          "/login",
		SessionLoadTimeout:       time.Second,
		RateLimitWindowSeconds:   60,
		RateLimitLoginThreshold:  100,
		RateLimitGlobalThreshold: 1000,
	}

	sessions := memory.NewSessionStore()
	notes := memory.NewNoteStore()
	registry := session.NewRegistry(sessions, func() domain.NoteRepository {
		return usecase.NewNoteRepository(notes, quiet)
	}, session.DefaultPolicy(), time.Hour, quiet)
	t.Cleanup(registry.Close)

	router := v1.NewRouter(v1.RouterDeps{
		AuthUC: usecase.NewAuthUsecase(usecase.AuthDeps{
			Users:      memory.NewUserRepository(),
			Sessions:   sessions,
			Tokens:     auth.NewTokenIssuer("router-test"),
			Logger:     quiet,
			BcryptCost: bcrypt.MinCost,
		}),
		ContactUC: usecase.NewContactUsecase(email.NewEmailService(email.Config{})),
		PageUC:    usecase.NewPageUsecase(),
		HealthUC:  usecase.NewHealthUsecase(nil),
		Registry:  registry,
		Config:    cfg,
	})
	return &testServer{t: t, router: router}
}

type reqOpt func(*http.Request)

func bearer(token string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func cookie(name, value string) reqOpt {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: name, Value: value}) }
}

func header(name, value string) reqOpt {
	return func(r *http.Request) { r.Header.Set(name, value) }
}

func (s *testServer) do(method, path string, body interface{}, opts ...reqOpt) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) apiResponse {
	t.Helper()
	var res apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(res.Data, data))
	}
	return res
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}

func (s *testServer) signUp(emailAddr string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/v1/auth/signup", map[string]string{
		"email": emailAddr, "password": "Secret@12", "confirm_password": "Secret@12",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var data v1.AuthResponse
	decode(s.t, rec, &data)
	return data.Token
}

func TestProtectedRoutesWithoutSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/home", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = s.do(http.MethodGet, "/v1/notes", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", decode(t, rec, nil).Kind)

	rec = s.do(http.MethodGet, "/v1/notes", nil, bearer("not-a-token"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var view domain.PageView
	decode(t, rec, &view)
	assert.False(t, view.Session.IsAuthenticated)
	assert.Equal(t, "/login", view.Nav[len(view.Nav)-1].Path)
}

func TestSignUpSetsSessionCookies(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/v1/auth/signup", map[string]string{
		"email": "ann@example.com", "password": "Secret@12", "confirm_password": "Secret@12",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	authCookie := responseCookie(rec, middleware.AuthCookieName)
	require.NotNil(t, authCookie)
	assert.True(t, authCookie.HttpOnly)
	assert.Equal(t, "true", responseCookie(rec, middleware.HintCookieName).Value)
	assert.Equal(t, "true", responseCookie(rec, middleware.FreshLoginCookieName).Value)

	t.Run("Fresh login is forwarded once", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/", nil,
			cookie(middleware.AuthCookieName, authCookie.Value),
			cookie(middleware.FreshLoginCookieName, "true"))
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/home", rec.Header().Get("Location"))
		cleared := responseCookie(rec, middleware.FreshLoginCookieName)
		require.NotNil(t, cleared)
		assert.True(t, cleared.MaxAge < 0)

		rec = s.do(http.MethodGet, "/", nil, cookie(middleware.AuthCookieName, authCookie.Value))
		assert.Equal(t, http.StatusOK, rec.Code)
		var view domain.PageView
		decode(t, rec, &view)
		assert.True(t, view.Session.IsAuthenticated)
		assert.Equal(t, "/home", view.Nav[0].Path)
	})

	t.Run("Stale hint cookie is cleared", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/services", nil, cookie(middleware.HintCookieName, "true"))
		assert.Equal(t, http.StatusOK, rec.Code)
		hint := responseCookie(rec, middleware.HintCookieName)
		require.NotNil(t, hint)
		assert.True(t, hint.MaxAge < 0)
	})
}

func TestSignUpErrors(t *testing.T) {
	s := newTestServer(t)
	s.signUp("bob@example.com")

	tests := []struct {
		name string
		body map[string]string
		code int
		kind string
	}{
		{"Invalid email", map[string]string{"email": "bob", "password": "Secret@12", "confirm_password": "Secret@12"},
			http.StatusBadRequest, "invalid_email"},
		{"Weak password", map[string]string{"email": "new@example.com", "password": "secret", "confirm_password": "secret"},
			http.StatusBadRequest, "weak_password"},
		{"Email in use", map[string]string{"email": "bob@example.com", "password": "Secret@12", "confirm_password": "Secret@12"},
			http.StatusConflict, "email_in_use"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/v1/auth/signup", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.kind, decode(t, rec, nil).Kind)
		})
	}

	rec := s.do(http.MethodPost, "/v1/auth/login", map[string]string{"email": "bob@example.com", "password": "Wrong@123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password. Please try again.", decode(t, rec, nil).Message)
}

func TestNotesLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp("cat@example.com")

	rec := s.do(http.MethodPost, "/v1/notes", map[string]string{
		"title": "Groceries", "content": "Milk and eggs", "date": "2024-05-01",
	}, bearer(token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var snap domain.NoteSnapshot
	decode(t, rec, &snap)
	require.Len(t, snap.Notes, 1)
	assert.Equal(t, domain.DefaultCategory, snap.Notes[0].Category)
	noteID := snap.Notes[0].ID

	rec = s.do(http.MethodPost, "/v1/notes", map[string]string{
		"title": "Plan", "content": "Quarterly goals", "category": "Work", "date": "2024-05-02",
	}, bearer(token))
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("Invalid date is rejected", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/v1/notes", map[string]string{
			"title": "x", "content": "y", "date": "2024-02-30",
		}, bearer(token))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Search keeps the full set", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/v1/notes/search?q=MILK", nil, bearer(token))
		require.Equal(t, http.StatusOK, rec.Code)
		var snap domain.NoteSnapshot
		decode(t, rec, &snap)
		assert.Len(t, snap.Notes, 1)
		assert.Equal(t, 2, snap.Total)
		assert.Len(t, snap.Categories, 2)
	})

	t.Run("Categories", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/v1/categories", nil, bearer(token))
		var cats []domain.CategorySummary
		decode(t, rec, &cats)
		assert.Equal(t, []domain.CategorySummary{{Name: domain.DefaultCategory, Count: 1}, {Name: "Work", Count: 1}}, cats)
	})

	t.Run("Select then update clears the selection", func(t *testing.T) {
		rec := s.do(http.MethodPut, "/v1/notes/selected", map[string]string{"id": noteID}, bearer(token))
		require.Equal(t, http.StatusOK, rec.Code)
		var snap domain.NoteSnapshot
		decode(t, rec, &snap)
		require.NotNil(t, snap.Selected)

		rec = s.do(http.MethodPatch, "/v1/notes/"+noteID, map[string]string{"title": "Shopping"}, bearer(token))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		snap = domain.NoteSnapshot{}
		decode(t, rec, &snap)
		assert.Nil(t, snap.Selected)
		assert.Equal(t, "Shopping", snap.Notes[0].Title)
		assert.Equal(t, "Milk and eggs", snap.Notes[0].Content)
	})

	t.Run("Unknown note", func(t *testing.T) {
		rec := s.do(http.MethodDelete, "/v1/notes/missing", nil, bearer(token))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", decode(t, rec, nil).Kind)
	})

	t.Run("Pages render from the workspace", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/view?id="+noteID, nil, bearer(token))
		require.Equal(t, http.StatusOK, rec.Code)
		var view struct {
			Page string          `json:"page"`
			Data v1.NotePageData `json:"data"`
		}
		decode(t, rec, &view)
		require.NotNil(t, view.Data.Note)
		assert.Equal(t, "Shopping", view.Data.Note.Title)

		rec = s.do(http.MethodGet, "/home?q=quarterly", nil, bearer(token))
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &view)
		assert.Len(t, view.Data.Notes.Notes, 1)
	})

	t.Run("Delete", func(t *testing.T) {
		rec := s.do(http.MethodDelete, "/v1/notes/"+noteID, nil, bearer(token))
		require.Equal(t, http.StatusOK, rec.Code)
		var snap domain.NoteSnapshot
		decode(t, rec, &snap)
		assert.Equal(t, 1, snap.Total)
	})
}

func TestCSRFOnCookieSessions(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp("dan@example.com")
	body := map[string]string{"title": "t", "content": "c", "date": "2024-01-01"}

	rec := s.do(http.MethodPost, "/v1/notes", body, cookie(middleware.AuthCookieName, token))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/v1/notes", body,
		cookie(middleware.AuthCookieName, token),
		cookie(middleware.CSRFTokenCookieName, "abc"),
		header(middleware.CSRFTokenHeaderName, "abc"))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestLogoutEndsTheSession(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp("eve@example.com")

	rec := s.do(http.MethodGet, "/v1/notes", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/v1/auth/logout", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := responseCookie(rec, middleware.AuthCookieName)
	require.NotNil(t, cleared)
	assert.True(t, cleared.MaxAge < 0)

	assert.Eventually(t, func() bool {
		return s.do(http.MethodGet, "/v1/notes", nil, bearer(token)).Code == http.StatusUnauthorized
	}, time.Second, 10*time.Millisecond)

	rec = s.do(http.MethodGet, "/edit", nil, bearer(token))
	assert.Equal(t, http.StatusFound, rec.Code)

	rec = s.do(http.MethodPost, "/v1/auth/logout", nil, bearer(token))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestContactAndHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/contact", map[string]string{
		"name": "Ann", "email": "ann@example.com", "message": "Hi",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", decode(t, rec, nil).Kind)

	rec = s.do(http.MethodPost, "/contact", map[string]string{"name": "Ann", "email": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}
