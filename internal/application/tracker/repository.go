package tracker

import (
	"context"

	"github.com/rezkam/tally/internal/domain"
)

// Slot persists the serialized task list under a single fixed key.
// The whole list is written on every mutation; there are no partial writes.
type Slot interface {
	// Load returns the stored payload.
	// Returns domain.ErrSlotEmpty if nothing has been stored yet.
	Load(ctx context.Context) ([]byte, error)

	// Save overwrites the stored payload.
	Save(ctx context.Context, data []byte) error

	// Delete removes the stored payload. Deleting an empty slot is not an error.
	Delete(ctx context.Context) error
}

// SeedSource fetches the bundled seed resource: a JSON array of raw task-like records.
type SeedSource interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Generator produces a batch of plausible, well-formed tasks.
type Generator interface {
	Generate(count int) []domain.Task
}
