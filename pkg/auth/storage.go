package auth

import (
	"context"
	"sync"
)

// Storage is the durable user store. Emails are passed already normalized.
type Storage interface {
	UserExistsByEmail(ctx context.Context, email string) (bool, error)
	// GetUserByEmail returns ErrUserNotFound when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// CreateUser must enforce email uniqueness and return
	// ErrEmailAlreadyExists on conflict; it is the final arbiter when
	// registrations race.
	CreateUser(ctx context.Context, user *User) error
	// UpdatePasswordHash returns ErrUserNotFound when no user has the email.
	UpdatePasswordHash(ctx context.Context, email string, hash []byte) error
}

// MemoryStorage is a process-local Storage for development and tests.
type MemoryStorage struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{users: make(map[string]User)}
}

func (s *MemoryStorage) UserExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[email]
	return ok, nil
}

func (s *MemoryStorage) GetUserByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (s *MemoryStorage) CreateUser(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return ErrEmailAlreadyExists
	}
	s.users[user.Email] = *user
	return nil
}

func (s *MemoryStorage) UpdatePasswordHash(_ context.Context, email string, hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	s.users[email] = u
	return nil
}

// Len returns the number of stored users.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
