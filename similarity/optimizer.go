package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/surge/ai"
	"github.com/poiesic/surge/batch"
	"github.com/poiesic/surge/cache"
	"github.com/poiesic/surge/core"
)

// Optimizer batches embedding lookups for similarity computation.
//
// A run partitions the input texts into cache hits and misses, embeds
// the distinct misses through the batch engine under the embedding
// context (so provider caps and adaptive sizing apply), stores the new
// vectors with a TTL, and reassembles everything by original position.
type Optimizer struct {
	embedder ai.Embedder
	store    cache.Store
	engine   *batch.Engine
	ttl      time.Duration
	batchCtx core.BatchContext
	logger   *slog.Logger
}

// OptimizerOption configures an Optimizer.
type OptimizerOption func(*Optimizer)

// WithTTL sets the cache lifetime for newly embedded vectors.
// Default is cache.DefaultTTL.
func WithTTL(ttl time.Duration) OptimizerOption {
	return func(o *Optimizer) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithBatchContext sets the strategy context used for embedding calls.
// Default is the embedding domain with the "openai" subtype.
func WithBatchContext(ctx core.BatchContext) OptimizerOption {
	return func(o *Optimizer) {
		o.batchCtx = ctx
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) OptimizerOption {
	return func(o *Optimizer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOptimizer creates an optimizer. A nil store falls back to an
// unbounded in-memory cache.
func NewOptimizer(embedder ai.Embedder, store cache.Store, engine *batch.Engine, opts ...OptimizerOption) (*Optimizer, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if engine == nil {
		return nil, ErrEngineRequired
	}
	if store == nil {
		store = cache.NewMemory()
	}

	o := &Optimizer{
		embedder: embedder,
		store:    store,
		engine:   engine,
		ttl:      cache.DefaultTTL,
		batchCtx: core.BatchContext{Domain: core.DomainEmbedding, SubType: "openai"},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Vectors returns an embedding per input text, in input order. Cached
// vectors are reused; only distinct cache misses hit the embedder.
func (o *Optimizer) Vectors(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := o.embedder.ModelName()
	vectors := make([][]float32, len(texts))

	// Partition by cache key. Duplicate texts share a key and are
	// embedded at most once.
	positions := make(map[string][]int)
	var missTexts []string
	hits := 0
	for i, text := range texts {
		key := cache.KeyFor(text, model)
		if entry, ok := o.store.Get(key); ok {
			vectors[i] = entry.Vector
			hits++
			continue
		}
		if _, seen := positions[key]; !seen {
			missTexts = append(missTexts, text)
		}
		positions[key] = append(positions[key], i)
	}

	o.logger.Debug("embedding cache partition",
		"texts", len(texts), "hits", hits, "misses", len(missTexts))

	if len(missTexts) == 0 {
		return vectors, nil
	}

	embedded, err := batch.ProcessBatches(ctx, o.engine, missTexts,
		func(ctx context.Context, chunk []string) ([][]float32, error) {
			out, err := o.embedder.EmbedTexts(ctx, chunk)
			if err != nil {
				return nil, err
			}
			if len(out) != len(chunk) {
				return nil, fmt.Errorf("%w: got %d for %d texts",
					ErrEmbeddingCount, len(out), len(chunk))
			}
			return out, nil
		}, batch.ProcessOptions{
			Context:     o.batchCtx,
			EnableRetry: true,
		})
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(missTexts) {
		return nil, fmt.Errorf("%w: got %d for %d texts",
			ErrEmbeddingCount, len(embedded), len(missTexts))
	}

	now := time.Now().UTC()
	for i, text := range missTexts {
		key := cache.KeyFor(text, model)
		vector := embedded[i]
		for _, pos := range positions[key] {
			vectors[pos] = vector
		}
		if err := o.store.Put(key, cache.Entry{
			Vector:    vector,
			Model:     model,
			CreatedAt: now,
			TTL:       o.ttl,
		}); err != nil {
			// A failed cache write costs a future re-embed, nothing more.
			o.logger.Warn("cache write failed", "key", key, "err", err)
		}
	}

	return vectors, nil
}

// Similarities returns the pairwise cosine similarity matrix for the
// texts, embedding only what the cache cannot serve.
func (o *Optimizer) Similarities(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := o.Vectors(ctx, texts)
	if err != nil {
		return nil, err
	}
	return Matrix(vectors)
}
