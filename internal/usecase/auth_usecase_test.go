package usecase_test

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/divyadhiman22/MyNotes/internal/domain"
	"github.com/divyadhiman22/MyNotes/internal/repository/memory"
	"github.com/divyadhiman22/MyNotes/internal/usecase"
	"github.com/divyadhiman22/MyNotes/pkg/apperror"
	"github.com/divyadhiman22/MyNotes/pkg/auth"
	"github.com/divyadhiman22/MyNotes/pkg/security"
)

type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) Name() string { return "google" }

func (m *MockIdentityProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (m *MockIdentityProvider) Exchange(ctx context.Context, code string) (*domain.OAuthIdentity, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OAuthIdentity), args.Error(1)
}

type authFixture struct {
	uc       domain.AuthUsecase
	users    *memory.UserRepository
	sessions *memory.SessionStore
	provider *MockIdentityProvider
	tokens   *auth.TokenIssuer
}

func newAuthFixture(t *testing.T, maxAttempts int) authFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := security.DefaultLoginTrackerConfig()
	cfg.MaxAttempts = maxAttempts

	f := authFixture{
		users:    memory.NewUserRepository(),
		sessions: memory.NewSessionStore(),
		provider: new(MockIdentityProvider),
		tokens:   auth.NewTokenIssuer("test-secret"),
	}
	f.uc = usecase.NewAuthUsecase(usecase.AuthDeps{
		Users:      f.users,
		Sessions:   f.sessions,
		Tokens:     f.tokens,
		Provider:   f.provider,
		Logins:     security.NewLoginTracker(client, cfg, nil),
		Logger:     quietLogger,
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	return f
}

func signUp(email, password, confirm string) domain.SignUpInput {
	return domain.SignUpInput{Email: email, Password: password, ConfirmPassword: confirm}
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()
	meta := domain.ClientMeta{IP: "10.0.0.1", UserAgent: "test"}

	t.Run("Creates the user and a live session", func(t *testing.T) {
		f := newAuthFixture(t, 5)
		res, err := f.uc.SignUp(ctx, signUp("ann@example.com", "Secret@12", "Secret@12"), meta)
		require.NoError(t, err)
		assert.Equal(t, "ann@example.com", res.User.Email)
		assert.NotEmpty(t, res.Token)

		claims, err := f.uc.ParseToken(res.Token)
		require.NoError(t, err)
		assert.Equal(t, res.User.ID, claims.UserID)

		sess, err := f.sessions.Get(ctx, claims.SessionID)
		require.NoError(t, err)
		assert.Equal(t, res.User.ID, sess.User.ID)
	})

	tests := []struct {
		name  string
		input domain.SignUpInput
		kind  apperror.Kind
		msg   string
	}{
		{"Invalid email", signUp("not-an-email", "Secret@12", "Secret@12"), apperror.KindInvalidEmail,
			"Invalid email format. Please check your email address."},
		{"Weak password", signUp("ann@example.com", "password", "password"), apperror.KindWeakPassword,
			"Password is too weak. Please use a stronger password."},
		{"Too long password", signUp("ann@example.com", "Secret@123456789", "Secret@123456789"), apperror.KindWeakPassword,
			"Password is too weak. Please use a stronger password."},
		{"Mismatched confirmation", signUp("ann@example.com", "Secret@12", "Secret@13"), apperror.KindValidation,
			"Passwords do not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t, 5)
			_, err := f.uc.SignUp(ctx, tt.input, meta)
			assert.True(t, apperror.Is(err, tt.kind), "got %v", err)
			assert.EqualError(t, err, tt.msg)
		})
	}

	t.Run("Existing email is in use regardless of case", func(t *testing.T) {
		f := newAuthFixture(t, 5)
		_, err := f.uc.SignUp(ctx, signUp("ann@example.com", "Secret@12", "Secret@12"), meta)
		require.NoError(t, err)
		_, err = f.uc.SignUp(ctx, signUp("ANN@example.com", "Secret@12", "Secret@12"), meta)
		assert.True(t, apperror.Is(err, apperror.KindEmailInUse))
		assert.EqualError(t, err, "This email is already in use. Please try another email.")
	})
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	meta := domain.ClientMeta{IP: "10.0.0.2", UserAgent: "test"}

	t.Run("Valid credentials open a session", func(t *testing.T) {
		f := newAuthFixture(t, 5)
		_, err := f.uc.SignUp(ctx, signUp("bob@example.com", "Secret@12", "Secret@12"), meta)
		require.NoError(t, err)

		res, err := f.uc.SignIn(ctx, domain.SignInInput{Email: "bob@example.com", Password: "Secret@12"}, meta)
		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", res.User.Email)
	})

	t.Run("Wrong password and unknown user look the same", func(t *testing.T) {
		f := newAuthFixture(t, 5)
		_, err := f.uc.SignUp(ctx, signUp("bob@example.com", "Secret@12", "Secret@12"), meta)
		require.NoError(t, err)

		_, errWrong := f.uc.SignIn(ctx, domain.SignInInput{Email: "bob@example.com", Password: "Nope@1234"}, meta)
		_, errUnknown := f.uc.SignIn(ctx, domain.SignInInput{Email: "eve@example.com", Password: "Nope@1234"}, meta)
		assert.EqualError(t, errWrong, "Invalid email or password. Please try again.")
		assert.EqualError(t, errUnknown, "Invalid email or password. Please try again.")
	})

	t.Run("Repeated failures block the account", func(t *testing.T) {
		f := newAuthFixture(t, 2)
		_, err := f.uc.SignUp(ctx, signUp("bob@example.com", "Secret@12", "Secret@12"), meta)
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			_, err := f.uc.SignIn(ctx, domain.SignInInput{Email: "bob@example.com", Password: "Wrong@123"}, meta)
			require.True(t, apperror.Is(err, apperror.KindInvalidCredentials))
		}
		_, err = f.uc.SignIn(ctx, domain.SignInInput{Email: "bob@example.com", Password: "Secret@12"}, meta)
		assert.True(t, apperror.Is(err, apperror.KindRateLimited))
	})
}

func TestSignInWithProvider(t *testing.T) {
	ctx := context.Background()
	meta := domain.ClientMeta{IP: "10.0.0.3"}
	identity := &domain.OAuthIdentity{
		Provider: "google", Subject: "g-1", Email: "cat@example.com", Name: "Cat", Picture: "https://example.com/c.png",
	}

	stateFrom := func(t *testing.T, uc domain.AuthUsecase) string {
		t.Helper()
		raw, err := uc.ProviderAuthURL(ctx)
		require.NoError(t, err)
		u, err := url.Parse(raw)
		require.NoError(t, err)
		return u.Query().Get("state")
	}

	t.Run("First sign-in creates the user, later ones reuse it", func(t *testing.T) {
		f := newAuthFixture(t, 5)
		f.provider.On("Exchange", mock.Anything, "code").Return(identity, nil)

		first, err := f.uc.SignInWithProvider(ctx, stateFrom(t, f.uc), "code", meta)
		require.NoError(t, err)
		assert.Equal(t, "Cat", first.User.DisplayName)
		assert.Equal(t, "google", first.User.Provider)

		second, err := f.uc.SignInWithProvider(ctx, stateFrom(t, f.uc), "code", meta)
		require.NoError(t, err)
		assert.Equal(t, first.User.ID, second.User.ID)
		assert.NotEqual(t, first.Session.ID, second.Session.ID)
	})

	t.Run("Existing password account is linked by email", func(t *testing.T) {
		f := newAuthFixture(t, 5)
		f.provider.On("Exchange", mock.Anything, "code").Return(identity, nil)
		created, err := f.uc.SignUp(ctx, signUp("cat@example.com", "Secret@12", "Secret@12"), meta)
		require.NoError(t, err)

		res, err := f.uc.SignInWithProvider(ctx, stateFrom(t, f.uc), "code", meta)
		require.NoError(t, err)
		assert.Equal(t, created.User.ID, res.User.ID)
	})

	t.Run("State is single use", func(t *testing.T) {
		f := newAuthFixture(t, 5)
		f.provider.On("Exchange", mock.Anything, "code").Return(identity, nil)
		state := stateFrom(t, f.uc)

		_, err := f.uc.SignInWithProvider(ctx, state, "code", meta)
		require.NoError(t, err)
		_, err = f.uc.SignInWithProvider(ctx, state, "code", meta)
		assert.True(t, apperror.Is(err, apperror.KindValidation))
		f.provider.AssertNumberOfCalls(t, "Exchange", 1)
	})

	t.Run("Provider failure", func(t *testing.T) {
		f := newAuthFixture(t, 5)
		f.provider.On("Exchange", mock.Anything, "bad").Return(nil, errors.New("invalid_grant"))
		_, err := f.uc.SignInWithProvider(ctx, stateFrom(t, f.uc), "bad", meta)
		assert.True(t, apperror.Is(err, apperror.KindProvider))
	})

	t.Run("Not configured", func(t *testing.T) {
		uc := usecase.NewAuthUsecase(usecase.AuthDeps{
			Users: memory.NewUserRepository(), Sessions: memory.NewSessionStore(),
			Tokens: auth.NewTokenIssuer("s"), Logger: quietLogger,
		})
		_, err := uc.ProviderAuthURL(ctx)
		assert.True(t, apperror.Is(err, apperror.KindUnavailable))
	})
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, 5)
	res, err := f.uc.SignUp(ctx, signUp("dan@example.com", "Secret@12", "Secret@12"), domain.ClientMeta{})
	require.NoError(t, err)

	require.NoError(t, f.uc.SignOut(ctx, res.Session.ID, domain.ClientMeta{}))
	_, err = f.sessions.Get(ctx, res.Session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	err = f.uc.SignOut(ctx, "", domain.ClientMeta{})
	assert.True(t, apperror.Is(err, apperror.KindUnauthenticated))
}
