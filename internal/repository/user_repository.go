package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/ticketbooth/eventpass/internal/domain"
	"github.com/ticketbooth/eventpass/internal/persistence"
)

// ErrNotFound is returned when a keyed lookup misses.
var ErrNotFound = errors.New("record not found")

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Load(ctx context.Context) (domain.Users, error)
	Save(ctx context.Context, users domain.Users) error
	// Mutate loads the collection, applies fn and saves the result while
	// holding the collection lock. Nothing is saved when fn fails.
	Mutate(ctx context.Context, fn func(users domain.Users) error) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type userRepository struct {
	store *persistence.RecordStore
	mu    sync.Mutex
}

// NewUserRepository returns a RecordStore-backed implementation.
func NewUserRepository(store *persistence.RecordStore) UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) Load(ctx context.Context) (domain.Users, error) {
	users := domain.Users{}
	if err := r.store.Load(ctx, persistence.CollectionUsers, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = domain.Users{}
	}
	for username, user := range users {
		user.Username = username
		users[username] = user
	}
	return users, nil
}

func (r *userRepository) Save(ctx context.Context, users domain.Users) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(ctx, users)
}

func (r *userRepository) save(ctx context.Context, users domain.Users) error {
	if users == nil {
		users = domain.Users{}
	}
	return r.store.Save(ctx, persistence.CollectionUsers, users)
}

func (r *userRepository) Mutate(ctx context.Context, fn func(users domain.Users) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(users); err != nil {
		return err
	}
	return r.save(ctx, users)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	users, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	user, ok := users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}
