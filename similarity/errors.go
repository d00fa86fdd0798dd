package similarity

import "errors"

var (
	// ErrDimensionMismatch is returned when two vectors have different
	// lengths.
	ErrDimensionMismatch = errors.New("similarity: vector dimension mismatch")

	// ErrEmbedderRequired is returned when constructing an optimizer
	// without an embedder.
	ErrEmbedderRequired = errors.New("similarity: embedder is required")

	// ErrEngineRequired is returned when constructing an optimizer
	// without a batch engine.
	ErrEngineRequired = errors.New("similarity: batch engine is required")

	// ErrEmbeddingCount is returned when the embedder returns a
	// different number of vectors than texts requested.
	ErrEmbeddingCount = errors.New("similarity: embedder returned wrong vector count")
)
