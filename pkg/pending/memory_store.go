package pending

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/authcore/pkg/clock"
)

// MemoryStore keeps registrations in a process-local map. Entries older
// than the TTL are treated as absent and dropped on access. Everything is
// lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Registration
	ttl     time.Duration
	clock   clock.Clock
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source.
func WithClock(c clock.Clock) MemoryOption {
	return func(s *MemoryStore) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewMemoryStore creates an empty store. A non-positive ttl disables expiry.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]Registration),
		ttl:     ttl,
		clock:   clock.Default,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Put(_ context.Context, reg Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(reg.Email); ok {
		return ErrAlreadyExists
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = s.clock.Now()
	}
	s.entries[reg.Email] = reg
	return nil
}

func (s *MemoryStore) Get(_ context.Context, email string) (Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.live(email)
	if !ok {
		return Registration{}, ErrNotFound
	}
	return reg, nil
}

func (s *MemoryStore) Take(_ context.Context, email string) (Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.live(email)
	if !ok {
		return Registration{}, ErrNotFound
	}
	delete(s.entries, email)
	return reg, nil
}

func (s *MemoryStore) Remove(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, email)
	return nil
}

func (s *MemoryStore) Contains(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live(email)
	return ok, nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// live returns the entry for email, dropping it if expired. Caller holds s.mu.
func (s *MemoryStore) live(email string) (Registration, bool) {
	reg, ok := s.entries[email]
	if !ok {
		return Registration{}, false
	}
	if s.ttl > 0 && s.clock.Now().Sub(reg.CreatedAt) >= s.ttl {
		delete(s.entries, email)
		return Registration{}, false
	}
	return reg, true
}
