package user

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"workshopflow/internal/kvstore"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// Repository keeps every account in one JSON list under the users key.
type Repository struct {
	mu sync.Mutex
	kv kvstore.Store
}

func NewRepository(kv kvstore.Store) *Repository {
	return &Repository{kv: kv}
}

func (r *Repository) load(ctx context.Context) ([]User, error) {
	var users []User
	err := kvstore.LoadJSON(ctx, r.kv, kvstore.KeyUsers, &users)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	return users, err
}

func (r *Repository) CreateUser(ctx context.Context, u *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range users {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, ErrEmailTaken
		}
	}

	u.ID = uuid.NewString()
	users = append(users, *u)
	if err := kvstore.SaveJSON(ctx, r.kv, kvstore.KeyUsers, users); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}
