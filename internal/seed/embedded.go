// Package seed provides the fallback sources used when no persisted task list
// exists: the bundled seed resource and a synthetic generator.
package seed

import (
	"context"
	_ "embed"
)

//go:embed tasks.json
var embeddedTasks []byte

// EmbeddedSource serves the seed resource compiled into the binary.
// The records are intentionally loose (missing fields, legacy enum spellings)
// and go through the normalizer like any other raw input.
type EmbeddedSource struct{}

// NewEmbeddedSource returns the bundled seed source.
func NewEmbeddedSource() EmbeddedSource {
	return EmbeddedSource{}
}

// Fetch returns a copy of the bundled JSON array.
func (EmbeddedSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]byte(nil), embeddedTasks...), nil
}
