package credentials

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu    sync.RWMutex
	value Credential
}

// NewMemoryStore returns a store seeded with initial (may be empty).
func NewMemoryStore(initial Credential) *MemoryStore {
	return &MemoryStore{value: initial}
}

func (s *MemoryStore) Get(ctx context.Context) (Credential, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.value != "", nil
}

func (s *MemoryStore) Set(ctx context.Context, c Credential) error {
	if c == "" {
		return ErrEmptyCredential
	}
	s.mu.Lock()
	s.value = c
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.value = ""
	s.mu.Unlock()
	return nil
}
