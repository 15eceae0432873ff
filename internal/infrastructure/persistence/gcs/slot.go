// Package gcs stores task slots as JSON objects in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/rezkam/tally/internal/domain"
)

// Store is a bucket holding one <key>.json object per slot.
type Store struct {
	client *storage.Client
	bucket string
}

// NewStore creates a GCS client for bucketName.
// It assumes the client is authenticated (e.g. via GOOGLE_APPLICATION_CREDENTIALS).
func NewStore(ctx context.Context, bucketName string) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &Store{client: client, bucket: bucketName}, nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Slot returns the slot stored under key.
func (s *Store) Slot(key string) *Slot {
	return &Slot{object: s.client.Bucket(s.bucket).Object(ObjectName(key))}
}

// ObjectName maps a slot key to its object name.
func ObjectName(key string) string {
	return key + ".json"
}

// Slot is a single object. GCS object writes are atomic on Close.
type Slot struct {
	object *storage.ObjectHandle
}

// Load reads the object. Returns domain.ErrSlotEmpty if it does not exist.
func (s *Slot) Load(ctx context.Context) ([]byte, error) {
	r, err := s.object.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, domain.ErrSlotEmpty
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}

// Save replaces the object contents.
func (s *Slot) Save(ctx context.Context, data []byte) error {
	w := s.object.NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize object: %w", err)
	}
	return nil
}

// Delete removes the object. A missing object is not an error.
func (s *Slot) Delete(ctx context.Context) error {
	err := s.object.Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
