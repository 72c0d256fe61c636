// Package embedding generates text embeddings for semantic indexing and
// retrieval.
package embedding

import "context"

// Embedder turns text into a dense vector. Implementations must be safe for
// concurrent use.
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, text string) ([]float32, error)
}
