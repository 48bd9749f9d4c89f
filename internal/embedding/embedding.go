// Package embedding defines the text embedding contract used for indexing
// and semantic search.
package embedding

import (
	"context"
	"fmt"
)

// Embedder turns text into fixed-size vectors.
type Embedder interface {
	// Embed returns the vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector size every call produces.
	Dimensions() int

	// ModelName identifies the model for logs and stats.
	ModelName() string
}

// CheckBatch verifies a batch result lines up with its inputs.
func CheckBatch(vectors [][]float32, n, dims int) error {
	if len(vectors) != n {
		return fmt.Errorf("embedding: got %d vectors for %d inputs", len(vectors), n)
	}
	for i, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("embedding: vector %d has %d dimensions, want %d", i, len(v), dims)
		}
	}
	return nil
}
