package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/divyadhiman22/MyNotes/internal/domain"
	"github.com/divyadhiman22/MyNotes/pkg/apperror"
)

type UserRepository struct {
	mu         sync.RWMutex
	users      map[string]domain.User
	identities map[string]string // provider:subject -> user id
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:      make(map[string]domain.User),
		identities: make(map[string]string),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return apperror.Conflict("User already exists")
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperror.EmailInUse()
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return apperror.NotFound("User not found")
	}
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) GetByIdentity(ctx context.Context, provider, subject string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.identities[provider+":"+subject]
	if !ok {
		return nil, nil
	}
	if u, ok := r.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *UserRepository) LinkIdentity(ctx context.Context, provider, subject, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := provider + ":" + subject
	if existing, ok := r.identities[key]; ok && existing != userID {
		return apperror.Conflict("Identity already linked to another account")
	}
	r.identities[key] = userID
	return nil
}
