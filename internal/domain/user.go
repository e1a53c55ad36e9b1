package domain

import (
	"context"
	"time"
)

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name,omitempty"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	Provider     string    `json:"provider"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserRepository lookups return (nil, nil) when no user matches.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	GetByIdentity(ctx context.Context, provider, subject string) (*User, error)
	LinkIdentity(ctx context.Context, provider, subject, userID string) error
}

// OAuthIdentity is the verified profile returned by an identity provider.
type OAuthIdentity struct {
	Provider string
	Subject  string
	Email    string
	Name     string
	Picture  string
}

type IdentityProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*OAuthIdentity, error)
}

type SignUpInput struct {
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type SignInInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ClientMeta describes the caller for audit logging and throttling.
type ClientMeta struct {
	IP        string
	UserAgent string
}

type AuthResult struct {
	User      *User     `json:"user"`
	Session   *Session  `json:"-"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenClaims is the verified content of a session token.
type TokenClaims struct {
	UserID    string
	SessionID string
	Email     string
}

type AuthUsecase interface {
	SignUp(ctx context.Context, input SignUpInput, meta ClientMeta) (*AuthResult, error)
	SignIn(ctx context.Context, input SignInInput, meta ClientMeta) (*AuthResult, error)
	ProviderAuthURL(ctx context.Context) (string, error)
	SignInWithProvider(ctx context.Context, state, code string, meta ClientMeta) (*AuthResult, error)
	SignOut(ctx context.Context, sessionID string, meta ClientMeta) error
	ParseToken(token string) (*TokenClaims, error)
	GetCurrentUser(ctx context.Context, id string) (*User, error)
}
