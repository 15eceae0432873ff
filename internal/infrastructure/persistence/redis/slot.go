// Package redis stores task slots as plain Redis string keys.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rezkam/tally/internal/domain"
)

// DefaultKeyPrefix namespaces slot keys inside a shared Redis database.
const DefaultKeyPrefix = "tally:"

// Store wraps a Redis client.
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore wraps client. An empty prefix uses DefaultKeyPrefix.
func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Dial connects to addr and verifies the connection with PING.
func Dial(ctx context.Context, addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return NewStore(client, ""), nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Slot returns the slot stored under key.
func (s *Store) Slot(key string) *Slot {
	return &Slot{client: s.client, key: s.prefix + key}
}

// Slot is one Redis string key. No TTL is set.
type Slot struct {
	client *redis.Client
	key    string
}

// Load reads the key. Returns domain.ErrSlotEmpty if it does not exist.
func (s *Slot) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSlotEmpty
		}
		return nil, fmt.Errorf("failed to load slot %s: %w", s.key, err)
	}
	return data, nil
}

// Save overwrites the key with no expiry.
func (s *Slot) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save slot %s: %w", s.key, err)
	}
	return nil
}

// Delete removes the key. A missing key is not an error.
func (s *Slot) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", s.key, err)
	}
	return nil
}
