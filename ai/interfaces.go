package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedTexts generates vector embeddings for multiple text strings in
	// a batch. The returned slice contains embeddings in the same order as
	// the input texts. Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the identifier of the underlying embedding model.
	// Cached vectors are only valid for the model that produced them, so
	// the name participates in cache keys.
	ModelName() string

	// Dimensions returns the length of the vectors this embedder produces.
	Dimensions() int
}
