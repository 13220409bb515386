package memory

import (
	"context"
	"sync"

	"rodger/internal/storage"
)

// Store keeps documents in process memory. Nothing survives a restart.
type Store struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func New() *Store {
	return &Store{docs: make(map[string][]byte)}
}

// NewWithDocuments seeds the store, e.g. with fixtures in tests.
func NewWithDocuments(docs map[string][]byte) *Store {
	s := New()
	for k, v := range docs {
		s.docs[k] = append([]byte(nil), v...)
	}
	return s
}

func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.docs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *Store) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = append([]byte(nil), data...)
	return nil
}

func (s *Store) Close() error { return nil }
