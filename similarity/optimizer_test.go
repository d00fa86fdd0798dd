package similarity

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/surge/ai/mock"
	"github.com/poiesic/surge/batch"
	"github.com/poiesic/surge/cache"
	"github.com/poiesic/surge/metrics"
)

type calmMonitor struct{}

func (calmMonitor) Usage() float64 { return 0.10 }
func (calmMonitor) ForceGC()       {}

func newOptimizer(t *testing.T, embedder *mock.Embedder, opts ...OptimizerOption) (*Optimizer, *cache.Memory) {
	t.Helper()
	manager := metrics.NewManager(metrics.WithMemoryMonitor(calmMonitor{}))
	engine, err := batch.NewEngine(batch.DefaultEngineConfig(), batch.WithMetricsManager(manager))
	require.NoError(t, err)

	store := cache.NewMemory()
	t.Cleanup(func() { _ = store.Close() })

	o, err := NewOptimizer(embedder, store, engine, opts...)
	require.NoError(t, err)
	return o, store
}

func TestNewOptimizer_Validation(t *testing.T) {
	manager := metrics.NewManager(metrics.WithMemoryMonitor(calmMonitor{}))
	engine, err := batch.NewEngine(batch.DefaultEngineConfig(), batch.WithMetricsManager(manager))
	require.NoError(t, err)

	_, err = NewOptimizer(nil, nil, engine)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewOptimizer(mock.NewEmbedder(), nil, nil)
	assert.ErrorIs(t, err, ErrEngineRequired)

	o, err := NewOptimizer(mock.NewEmbedder(), nil, engine)
	require.NoError(t, err)
	assert.NotNil(t, o, "nil store falls back to in-memory cache")
}

func TestVectors_CacheHitsSkipEmbedder(t *testing.T) {
	embedder := mock.NewEmbedder()
	o, _ := newOptimizer(t, embedder)

	texts := []string{"alpha", "beta", "gamma"}
	first, err := o.Vectors(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, 3, embedder.TextCount())

	second, err := o.Vectors(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 3, embedder.TextCount(), "second run is served entirely from cache")
}

func TestVectors_DuplicatesEmbeddedOnce(t *testing.T) {
	embedder := mock.NewEmbedder()
	o, _ := newOptimizer(t, embedder)

	vectors, err := o.Vectors(context.Background(), []string{"same", "same", "same", "other"})
	require.NoError(t, err)
	require.Len(t, vectors, 4)
	assert.Equal(t, 2, embedder.TextCount(), "distinct texts only")
	assert.Equal(t, vectors[0], vectors[1])
	assert.Equal(t, vectors[1], vectors[2])
	assert.NotEqual(t, vectors[0], vectors[3])
}

func TestVectors_ProviderCapRespected(t *testing.T) {
	embedder := mock.NewEmbedder()

	var mu sync.Mutex
	maxChunk := 0
	calls := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		mu.Lock()
		if len(texts) > maxChunk {
			maxChunk = len(texts)
		}
		calls++
		mu.Unlock()
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = []float32{1, 0}
		}
		return out, nil
	}

	o, _ := newOptimizer(t, embedder)

	texts := make([]string, 250)
	for i := range texts {
		texts[i] = "text-" + string(rune('a'+i%26)) + string(rune('0'+i/26))
	}

	vectors, err := o.Vectors(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 250)
	assert.LessOrEqual(t, maxChunk, 100, "openai provider cap bounds each remote call")
	assert.GreaterOrEqual(t, calls, 3)
}

func TestVectors_PositionalReassembly(t *testing.T) {
	embedder := mock.NewEmbedder()
	o, store := newOptimizer(t, embedder)

	// Pre-seed "beta" so the run mixes hits and misses.
	seeded := []float32{0, 1, 0}
	require.NoError(t, store.Put(cache.KeyFor("beta", embedder.ModelName()), cache.Entry{
		Vector: seeded,
		Model:  embedder.ModelName(),
	}))

	vectors, err := o.Vectors(context.Background(), []string{"alpha", "beta", "gamma"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, seeded, vectors[1], "cached vector lands at its original position")
	assert.Equal(t, 2, embedder.TextCount(), "only the misses were embedded")
}

func TestVectors_WrongCountFromEmbedder(t *testing.T) {
	embedder := mock.NewEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}
	o, _ := newOptimizer(t, embedder)

	_, err := o.Vectors(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingCount)
}

func TestVectors_Empty(t *testing.T) {
	o, _ := newOptimizer(t, mock.NewEmbedder())
	vectors, err := o.Vectors(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestSimilarities_MatrixFromTexts(t *testing.T) {
	embedder := mock.NewEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		fixed := map[string][]float32{
			"north": {1, 0},
			"east":  {0, 1},
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = fixed[text]
		}
		return out, nil
	}
	o, _ := newOptimizer(t, embedder)

	matrix, err := o.Similarities(context.Background(), []string{"north", "east"})
	require.NoError(t, err)
	require.Len(t, matrix, 2)
	assert.Equal(t, float32(1.0), matrix[0][0])
	assert.Equal(t, float32(1.0), matrix[1][1])
	assert.InDelta(t, 0.0, float64(matrix[0][1]), 1e-6)
	assert.Equal(t, matrix[0][1], matrix[1][0])
}

func TestSimilarities_CachedRunMakesNoRemoteCalls(t *testing.T) {
	embedder := mock.NewEmbedder()
	o, _ := newOptimizer(t, embedder)
	texts := []string{"one", "two", "three", "four"}

	_, err := o.Similarities(context.Background(), texts)
	require.NoError(t, err)
	before := embedder.CallCount()

	matrix, err := o.Similarities(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, matrix, 4)
	assert.Equal(t, before, embedder.CallCount(), "all vectors came from cache")
}
