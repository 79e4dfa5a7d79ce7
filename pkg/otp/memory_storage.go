package otp

import (
	"context"
	"sync"
)

type recordKey struct {
	email   string
	purpose Purpose
}

// MemoryStorage keeps records in a process-local map.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[recordKey]Record
}

// NewMemoryStorage creates an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[recordKey]Record)}
}

func (s *MemoryStorage) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[recordKey{rec.Email, rec.Purpose}] = rec
	return nil
}

func (s *MemoryStorage) Find(_ context.Context, email string, purpose Purpose) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[recordKey{email, purpose}]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStorage) Delete(_ context.Context, email string, purpose Purpose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, recordKey{email, purpose})
	return nil
}
