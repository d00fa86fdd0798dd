package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedTexts_Deterministic(t *testing.T) {
	m := NewEmbedder()

	first, err := m.EmbedTexts(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)
	second, err := m.EmbedTexts(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)

	assert.Equal(t, first, second, "same text embeds identically")
	assert.NotEqual(t, first[0], first[1], "different texts embed differently")
	assert.Len(t, first[0], m.Dimensions())
	assert.Equal(t, 2, m.CallCount())
	assert.Equal(t, 4, m.TextCount())
}

func TestEmbedTexts_UnitLength(t *testing.T) {
	m := NewEmbedder()
	vectors, err := m.EmbedTexts(context.Background(), []string{"normalize me"})
	require.NoError(t, err)

	var sumSquares float64
	for _, v := range vectors[0] {
		sumSquares += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sumSquares, 1e-3)
}

func TestEmbedTexts_Injectable(t *testing.T) {
	m := NewEmbedder()
	m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = []float32{1, 0}
		}
		return out, nil
	}

	vectors, err := m.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, vectors, 3)
	assert.Equal(t, []float32{1, 0}, vectors[0])
}
