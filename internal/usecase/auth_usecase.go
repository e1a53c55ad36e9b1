package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/divyadhiman22/MyNotes/internal/domain"
	"github.com/divyadhiman22/MyNotes/pkg/apperror"
	"github.com/divyadhiman22/MyNotes/pkg/auth"
	"github.com/divyadhiman22/MyNotes/pkg/security"
	"github.com/divyadhiman22/MyNotes/pkg/validation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const oauthStateTTL = 10 * time.Minute

// LoginGuard throttles repeated failed sign-ins.
type LoginGuard interface {
	IsBlocked(ctx context.Context, email, ip string) (bool, error)
	RecordFailedAttempt(ctx context.Context, email, ip, userAgent string) (bool, int, error)
	ClearAttempts(ctx context.Context, email, ip string) error
}

type AuthDeps struct {
	Users      domain.UserRepository
	Sessions   domain.SessionStore
	Tokens     *auth.TokenIssuer
	Provider   domain.IdentityProvider // nil disables provider sign-in
	Logins     LoginGuard              // nil disables throttling
	Audit      *security.SecurityLogger
	Validate   *validator.Validate
	Logger     *slog.Logger
	SessionTTL time.Duration
	BcryptCost int
}

type signUpForm struct {
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=8,max=15,strong_password"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

type authUsecase struct {
	deps AuthDeps
	now  func() time.Time

	stateMu sync.Mutex
	states  map[string]time.Time
}

func NewAuthUsecase(deps AuthDeps) domain.AuthUsecase {
	if deps.Validate == nil {
		deps.Validate = validation.New()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Audit == nil {
		deps.Audit = security.NewNopSecurityLogger()
	}
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = 7 * 24 * time.Hour
	}
	if deps.BcryptCost == 0 {
		deps.BcryptCost = bcrypt.DefaultCost
	}
	return &authUsecase{
		deps:   deps,
		now:    time.Now,
		states: make(map[string]time.Time),
	}
}

func (u *authUsecase) SignUp(ctx context.Context, input domain.SignUpInput, meta domain.ClientMeta) (*domain.AuthResult, error) {
	form := signUpForm{
		Email:           strings.TrimSpace(input.Email),
		Password:        input.Password,
		ConfirmPassword: input.ConfirmPassword,
	}
	if err := u.deps.Validate.Struct(form); err != nil {
		switch {
		case validation.HasTagOn(err, "Email", ""):
			return nil, apperror.InvalidEmail()
		case validation.HasTagOn(err, "Password", ""):
			return nil, apperror.WeakPassword()
		default:
			return nil, apperror.BadRequest(strings.Join(validation.FormatValidationErrors(err), "; "))
		}
	}

	existing, err := u.deps.Users.GetByEmail(ctx, form.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.EmailInUse()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), u.deps.BcryptCost)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	now := u.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        form.Email,
		Provider:     domain.ProviderPassword,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.deps.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	u.deps.Audit.Log(ctx, security.SecurityEvent{
		Event:        security.EventSignUp,
		SubjectType:  "email",
		SubjectValue: user.Email,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
	})
	return u.openSession(ctx, user)
}

func (u *authUsecase) SignIn(ctx context.Context, input domain.SignInInput, meta domain.ClientMeta) (*domain.AuthResult, error) {
	email := strings.TrimSpace(input.Email)
	if err := u.deps.Validate.Var(email, "required,email"); err != nil {
		return nil, apperror.InvalidEmail()
	}

	if u.deps.Logins != nil {
		blocked, err := u.deps.Logins.IsBlocked(ctx, email, meta.IP)
		if err != nil {
			u.deps.Logger.Warn("login block check failed", "error", err)
		}
		if blocked {
			u.deps.Audit.LogLoginBlocked(ctx, email, meta.IP, meta.UserAgent)
			return nil, apperror.TooManyRequests("Too many failed attempts. Please try again later.")
		}
	}

	user, err := u.deps.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		u.recordFailure(ctx, email, meta)
		return nil, apperror.InvalidCredentials()
	}

	if u.deps.Logins != nil {
		if err := u.deps.Logins.ClearAttempts(ctx, email, meta.IP); err != nil {
			u.deps.Logger.Warn("clear login attempts failed", "error", err)
		}
	}
	u.deps.Audit.Log(ctx, security.SecurityEvent{
		Event:        security.EventLoginSuccess,
		SubjectType:  "user_id",
		SubjectValue: user.ID,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
	})
	return u.openSession(ctx, user)
}

func (u *authUsecase) recordFailure(ctx context.Context, email string, meta domain.ClientMeta) {
	if u.deps.Logins == nil {
		u.deps.Audit.LogLoginFailed(ctx, email, meta.IP, meta.UserAgent, "invalid_credentials")
		return
	}
	if _, _, err := u.deps.Logins.RecordFailedAttempt(ctx, email, meta.IP, meta.UserAgent); err != nil {
		u.deps.Logger.Warn("record failed login failed", "error", err)
	}
}

// ProviderAuthURL starts the provider flow with a fresh one-time state.
func (u *authUsecase) ProviderAuthURL(ctx context.Context) (string, error) {
	if u.deps.Provider == nil {
		return "", apperror.Unavailable("Google sign-in is not configured")
	}
	state := uuid.NewString()

	u.stateMu.Lock()
	now := u.now()
	for s, issued := range u.states {
		if now.Sub(issued) > oauthStateTTL {
			delete(u.states, s)
		}
	}
	u.states[state] = now
	u.stateMu.Unlock()

	return u.deps.Provider.AuthCodeURL(state), nil
}

func (u *authUsecase) consumeState(state string) bool {
	u.stateMu.Lock()
	defer u.stateMu.Unlock()
	issued, ok := u.states[state]
	if !ok {
		return false
	}
	delete(u.states, state)
	return u.now().Sub(issued) <= oauthStateTTL
}

// SignInWithProvider finishes the provider flow. The user record is created
// on first sign-in only; later sign-ins reuse it.
func (u *authUsecase) SignInWithProvider(ctx context.Context, state, code string, meta domain.ClientMeta) (*domain.AuthResult, error) {
	if u.deps.Provider == nil {
		return nil, apperror.Unavailable("Google sign-in is not configured")
	}
	if state == "" || !u.consumeState(state) {
		return nil, apperror.BadRequest("Invalid or expired sign-in state. Please try again.")
	}
	if code == "" {
		return nil, apperror.BadRequest("Missing authorization code")
	}

	identity, err := u.deps.Provider.Exchange(ctx, code)
	if err != nil {
		u.deps.Audit.Log(ctx, security.SecurityEvent{
			Event:     security.EventProviderFailed,
			IP:        meta.IP,
			UserAgent: meta.UserAgent,
			Details:   map[string]interface{}{"provider": u.deps.Provider.Name()},
		})
		u.deps.Logger.Error("provider exchange failed", "provider", u.deps.Provider.Name(), "error", err)
		return nil, apperror.ProviderFailed("Google sign-in failed. Please try again.", err)
	}

	user, err := u.ensureProviderUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	u.deps.Audit.Log(ctx, security.SecurityEvent{
		Event:        security.EventLoginSuccess,
		SubjectType:  "user_id",
		SubjectValue: user.ID,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
		Details:      map[string]interface{}{"provider": identity.Provider},
	})
	return u.openSession(ctx, user)
}

func (u *authUsecase) ensureProviderUser(ctx context.Context, identity *domain.OAuthIdentity) (*domain.User, error) {
	user, err := u.deps.Users.GetByIdentity(ctx, identity.Provider, identity.Subject)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	// An existing account with the same verified email is linked, not duplicated.
	user, err = u.deps.Users.GetByEmail(ctx, identity.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		now := u.now().UTC()
		user = &domain.User{
			ID:          uuid.NewString(),
			Email:       identity.Email,
			DisplayName: identity.Name,
			PhotoURL:    identity.Picture,
			Provider:    identity.Provider,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := u.deps.Users.Create(ctx, user); err != nil {
			return nil, err
		}
		u.deps.Logger.Info("user created from provider", "user_id", user.ID, "provider", identity.Provider)
	}

	if err := u.deps.Users.LinkIdentity(ctx, identity.Provider, identity.Subject, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *authUsecase) SignOut(ctx context.Context, sessionID string, meta domain.ClientMeta) error {
	if sessionID == "" {
		return apperror.Unauthorized("User not authenticated")
	}
	if err := u.deps.Sessions.Revoke(ctx, sessionID); err != nil {
		return apperror.Remote(err)
	}
	u.deps.Audit.Log(ctx, security.SecurityEvent{
		Event:        security.EventLogout,
		SubjectType:  "session_id",
		SubjectValue: sessionID,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
	})
	return nil
}

func (u *authUsecase) ParseToken(token string) (*domain.TokenClaims, error) {
	claims, err := u.deps.Tokens.Parse(token)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid or expired session")
	}
	return &domain.TokenClaims{
		UserID:    claims.Subject,
		SessionID: claims.SessionID,
		Email:     claims.Email,
	}, nil
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := u.deps.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("User not found")
	}
	return user, nil
}

func (u *authUsecase) openSession(ctx context.Context, user *domain.User) (*domain.AuthResult, error) {
	sess, err := u.deps.Sessions.Create(ctx, domain.SessionUser{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}, u.deps.SessionTTL)
	if err != nil {
		return nil, apperror.Remote(err)
	}

	token, err := u.deps.Tokens.Issue(user.ID, sess.ID, user.Email, sess.ExpiresAt)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &domain.AuthResult{
		User:      user,
		Session:   sess,
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}
