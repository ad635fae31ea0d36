// Package vector defines the store collaborator contract for the memory
// layer: named, isolated collections of id+text+metadata records with
// top-K nearest-neighbor search.
package vector

import "context"

// Hit is a read-only search result projection. Score is a relevance score
// in [0, 1], higher is more similar.
type Hit struct {
	ID       string
	Score    float32
	Text     string
	Metadata map[string]any
}

// Driver handles storage and retrieval of memory records in one named
// collection. Records in different collections never cross-contaminate.
type Driver interface {
	// Store persists a record under the given id.
	Store(ctx context.Context, id, text string, metadata map[string]any) error

	// Update overwrites the record at id wholesale: text and metadata are
	// replaced, the id is preserved. May be implemented as Store with the
	// same id.
	Update(ctx context.Context, id, text string, metadata map[string]any) error

	// Search returns up to topK hits ranked by descending relevance, each
	// with Score >= threshold.
	Search(ctx context.Context, query string, topK int, threshold float32) ([]Hit, error)

	// Delete removes the record at id. Deleting a missing id is not an
	// error.
	Delete(ctx context.Context, id string) error

	// Close releases any resources held by the driver.
	Close() error
}

// FilterHits drops hits scoring below threshold. Drivers are expected to
// filter server-side where possible; this enforces the contract defensively
// on the client side as well.
func FilterHits(hits []Hit, threshold float32) []Hit {
	filtered := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if h.Score >= threshold {
			filtered = append(filtered, h)
		}
	}
	return filtered
}
