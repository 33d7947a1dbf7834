// Package memblob is an in-memory blobstore.Store, used in tests and as
// the single-node default when durability across restarts is not
// required.
package memblob

import (
	"context"
	"sync"

	"github.com/relaydoc/relaydoc/pkg/blobstore"
)

// Store is a mutex-guarded map implementation of blobstore.Store.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Put(_ context.Context, payload []byte) (string, error) {
	id := blobstore.IDFor(payload)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[id]; !exists {
		cp := make([]byte, len(payload))
		copy(cp, payload)
		s.data[id] = cp
	}
	return id, nil
}

func (s *Store) Get(_ context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.data[id]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	return cp, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}
