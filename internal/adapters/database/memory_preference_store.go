package database

import (
	"context"
	"sync"

	"github.com/zatekoja/medbackoffice/internal/domain/providers"
)

// MemoryPreferenceStore keeps preferences in process memory. It is used when
// no database is configured; values are lost on restart.
type MemoryPreferenceStore struct {
	mu     sync.RWMutex
	values map[string]map[string]string
}

// NewMemoryPreferenceStore creates an empty store.
func NewMemoryPreferenceStore() *MemoryPreferenceStore {
	return &MemoryPreferenceStore{values: make(map[string]map[string]string)}
}

var _ providers.PreferenceStore = (*MemoryPreferenceStore)(nil)

// Get returns the stored value or providers.ErrPreferenceNotFound.
func (s *MemoryPreferenceStore) Get(_ context.Context, userID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[userID][key]
	if !ok {
		return "", providers.ErrPreferenceNotFound
	}
	return value, nil
}

// Set stores the value.
func (s *MemoryPreferenceStore) Set(_ context.Context, userID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.values[userID]
	if !ok {
		user = make(map[string]string)
		s.values[userID] = user
	}
	user[key] = value
	return nil
}

// Delete removes the value.
func (s *MemoryPreferenceStore) Delete(_ context.Context, userID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values[userID], key)
	return nil
}
