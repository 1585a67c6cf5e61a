package store

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps worlds in process memory. It is used for tests and for
// throwaway worlds.
type MemoryStore struct {
	mu     sync.RWMutex
	worlds map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{worlds: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.worlds[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorldNotFound, name)
	}
	return bytes.Clone(data), nil
}

func (s *MemoryStore) Save(_ context.Context, name string, data []byte) error {
	if err := ValidName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.worlds[name] = bytes.Clone(data)
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.worlds[name]
	return ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.worlds[name]; !ok {
		return fmt.Errorf("%w: %s", ErrWorldNotFound, name)
	}
	delete(s.worlds, name)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.worlds))
	for name := range s.worlds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
