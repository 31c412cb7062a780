package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemorySessionStore is the default session capability: process-local,
// safe for concurrent use, no persistence.
type MemorySessionStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{values: make(map[string]string)}
}

func (s *MemorySessionStore) Get(_ context.Context, key string) (string, bool, error) {
	if s == nil {
		return "", false, fmt.Errorf("core: session store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, fmt.Errorf("core: session key is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *MemorySessionStore) Set(_ context.Context, key string, value string) error {
	if s == nil {
		return fmt.Errorf("core: session store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("core: session key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, key string) error {
	if s == nil {
		return fmt.Errorf("core: session store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("core: session key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

var _ SessionStore = (*MemorySessionStore)(nil)
