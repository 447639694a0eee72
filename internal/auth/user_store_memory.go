package auth

import (
	"context"
	"sync"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// NewInMemoryUserStore returns a UserStore backed by an in-memory map.
// It mirrors the conditional rotation semantics of the PostgreSQL store
// under a mutex, for tests and local development.
func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{users: make(map[string]models.User)}
}

// InMemoryUserStore implements UserStore without a database.
type InMemoryUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

// Put inserts or replaces a user record.
func (s *InMemoryUserStore) Put(user models.User) {
	s.mu.Lock()
	s.users[user.ID] = user
	s.mu.Unlock()
}

// FindByID retrieves a user by ID.
func (s *InMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

// FindByIdentity retrieves a user by username or email.
func (s *InMemoryUserStore) FindByIdentity(_ context.Context, identity string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == identity || user.Email == identity {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

// SetRefreshToken overwrites the stored token unconditionally.
func (s *InMemoryUserStore) SetRefreshToken(_ context.Context, id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = token
	s.users[id] = user
	return nil
}

// RotateRefreshToken swaps the stored token only if it still equals current.
func (s *InMemoryUserStore) RotateRefreshToken(_ context.Context, id, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok || user.RefreshToken != current {
		return repositories.ErrTokenMismatch
	}
	user.RefreshToken = next
	s.users[id] = user
	return nil
}

var _ UserStore = (*InMemoryUserStore)(nil)
