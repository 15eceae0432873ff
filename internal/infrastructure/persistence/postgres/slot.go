// Package postgres stores task slots in a PostgreSQL task_slots table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rezkam/tally/internal/domain"
)

// Store wraps the connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Slot returns the slot stored under key.
func (s *Store) Slot(key string) *Slot {
	return &Slot{pool: s.pool, key: key}
}

// Slot is one row of task_slots.
type Slot struct {
	pool *pgxpool.Pool
	key  string
}

func (s *Slot) Load(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM task_slots WHERE key = $1`, s.key).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSlotEmpty
		}
		return nil, fmt.Errorf("failed to load slot %s: %w", s.key, err)
	}
	return payload, nil
}

func (s *Slot) Save(ctx context.Context, data []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO task_slots (key, payload, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		s.key, data)
	if err != nil {
		return fmt.Errorf("failed to save slot %s: %w", s.key, err)
	}
	return nil
}

func (s *Slot) Delete(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM task_slots WHERE key = $1`, s.key); err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", s.key, err)
	}
	return nil
}
