// Package vectorstore defines the contract the research pipeline uses to
// talk to the semantic index.
package vectorstore

import "context"

// Point is one verse embedding stored in the index.
type Point struct {
	VerseID string
	Vector  []float32
	Payload map[string]any
}

// Match is a search hit: the verse identifier plus its similarity score.
type Match struct {
	VerseID string  `json:"verse_id"`
	Score   float64 `json:"score"`
}

// Index is a semantic-search service over verse embeddings. Implementations
// must be safe for concurrent use.
type Index interface {
	// EnsureReady creates the backing collection if it does not exist.
	EnsureReady(ctx context.Context, dimension int) error
	// Upsert stores or replaces the given points.
	Upsert(ctx context.Context, points []Point) error
	// Search returns up to topK matches ordered by descending score. Fewer
	// than topK results, or none at all, is not an error.
	Search(ctx context.Context, vector []float32, topK int) ([]Match, error)
	// Count reports the number of stored points.
	Count(ctx context.Context) (int, error)
}
