package postgres

import (
	"context"
	"errors"

	"github.com/divyadhiman22/MyNotes/internal/domain"
	"github.com/divyadhiman22/MyNotes/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL error codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const userColumns = `id, email, COALESCE(password_hash, ''), display_name, photo_url, provider, created_at, updated_at`

type userRepo struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) domain.UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, email, password_hash, display_name, photo_url, provider, created_at, updated_at)
              VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, query, user.ID, user.Email, user.PasswordHash, user.DisplayName,
		user.PhotoURL, user.Provider, user.CreatedAt, user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.EmailInUse()
		}
		return apperror.Internal(err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

func (r *userRepo) GetByIdentity(ctx context.Context, provider, subject string) (*domain.User, error) {
	query := `SELECT u.id, u.email, COALESCE(u.password_hash, ''), u.display_name, u.photo_url, u.provider, u.created_at, u.updated_at
              FROM oauth_identities i JOIN users u ON u.id = i.user_id
              WHERE i.provider = $1 AND i.subject = $2`
	return r.getOne(ctx, query, provider, subject)
}

func (r *userRepo) getOne(ctx context.Context, query string, args ...interface{}) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName,
		&user.PhotoURL, &user.Provider, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	query := `UPDATE users SET email = $2, password_hash = NULLIF($3, ''), display_name = $4,
              photo_url = $5, updated_at = $6 WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, user.ID, user.Email, user.PasswordHash, user.DisplayName,
		user.PhotoURL, user.UpdatedAt)
	if err != nil {
		return apperror.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("User not found")
	}
	return nil
}

func (r *userRepo) LinkIdentity(ctx context.Context, provider, subject, userID string) error {
	query := `INSERT INTO oauth_identities (provider, subject, user_id) VALUES ($1, $2, $3)
              ON CONFLICT (provider, subject) DO NOTHING`
	tag, err := r.db.Exec(ctx, query, provider, subject, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return apperror.NotFound("User not found")
		}
		return apperror.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		var owner string
		err := r.db.QueryRow(ctx, `SELECT user_id FROM oauth_identities WHERE provider = $1 AND subject = $2`,
			provider, subject).Scan(&owner)
		if err != nil {
			return apperror.Internal(err)
		}
		if owner != userID {
			return apperror.Conflict("Identity already linked to another account")
		}
	}
	return nil
}
