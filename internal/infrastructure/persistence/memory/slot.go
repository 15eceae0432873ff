// Package memory keeps task slots in process memory. Nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/rezkam/tally/internal/domain"
)

// Store holds every slot payload in a map.
type Store struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{slots: make(map[string][]byte)}
}

// Slot returns the slot stored under key.
func (s *Store) Slot(key string) *Slot {
	return &Slot{store: s, key: key}
}

// Slot is one key in a Store.
type Slot struct {
	store *Store
	key   string
}

func (s *Slot) Load(ctx context.Context) ([]byte, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	data, ok := s.store.slots[s.key]
	if !ok {
		return nil, domain.ErrSlotEmpty
	}
	return append([]byte(nil), data...), nil
}

func (s *Slot) Save(ctx context.Context, data []byte) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	s.store.slots[s.key] = append([]byte(nil), data...)
	return nil
}

func (s *Slot) Delete(ctx context.Context) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	delete(s.store.slots, s.key)
	return nil
}
