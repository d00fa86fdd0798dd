package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
)

const defaultDimensions = 384

// Embedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type Embedder struct {
	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// Model overrides the reported model name. Defaults to "mock-embedder".
	Model string

	// Dim overrides the vector length. Defaults to 384.
	Dim int

	mu        sync.Mutex
	callCount int
	textCount int
}

// NewEmbedder creates a mock embedder with default deterministic behavior.
// Returns the concrete type so tests can inspect call counts.
func NewEmbedder() *Embedder {
	return &Embedder{}
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.callCount++
	m.textCount += len(texts)
	m.mu.Unlock()

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = deterministicVector(text, m.Dimensions())
	}
	return vectors, nil
}

// ModelName returns the mock model identifier.
func (m *Embedder) ModelName() string {
	if m.Model != "" {
		return m.Model
	}
	return "mock-embedder"
}

// Dimensions returns the vector length the mock produces.
func (m *Embedder) Dimensions() int {
	if m.Dim > 0 {
		return m.Dim
	}
	return defaultDimensions
}

// CallCount returns the number of EmbedTexts calls made.
func (m *Embedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// TextCount returns the total number of texts embedded across all calls.
func (m *Embedder) TextCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.textCount
}

// Reset clears the counters and any injected behavior.
func (m *Embedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.textCount = 0
	m.EmbedTextsFunc = nil
}

// deterministicVector creates a unit-length embedding vector from text.
// It uses FNV hash so the same text always produces the same vector.
func deterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%2000)/1000.0 - 1.0
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares > 0 {
		norm := float32(1.0 / math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] *= norm
		}
	}

	return vector
}
