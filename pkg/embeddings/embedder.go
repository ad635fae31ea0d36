// Package embeddings
package embeddings

import "context"

// Embedder provides text embedding capabilities for vector drivers that
// embed client-side. Drivers backed by services that embed server-side
// (e.g. Chroma) never use one.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
