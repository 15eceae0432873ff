// Package fs stores task slots as JSON files in a directory.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rezkam/tally/internal/domain"
)

// ErrInvalidKey is returned for keys that cannot be used as a file name.
var ErrInvalidKey = errors.New("invalid slot key")

// Store is a directory holding one <key>.json file per slot.
type Store struct {
	baseDir string
	mu      sync.RWMutex
}

// NewStore creates the base directory if needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Slot returns the slot stored under key.
func (s *Store) Slot(key string) (*Slot, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return &Slot{store: s, path: filepath.Join(s.baseDir, key+".json")}, nil
}

// Slot is a single JSON file. Writes go to a temp file in the same directory
// and are renamed into place, so readers never see a partial payload.
type Slot struct {
	store *Store
	path  string
}

// Load reads the file. Returns domain.ErrSlotEmpty if it does not exist.
func (s *Slot) Load(ctx context.Context) ([]byte, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrSlotEmpty
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Save atomically replaces the file contents.
func (s *Slot) Save(ctx context.Context, data []byte) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	tmp, err := os.CreateTemp(s.store.baseDir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

// Delete removes the file. A missing file is not an error.
func (s *Slot) Delete(ctx context.Context) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
