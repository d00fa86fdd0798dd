package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine_SelfSimilarity(t *testing.T) {
	v := []float32{0.3, -0.7, 0.2, 1.5}
	sim, err := Cosine(v, v)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-5)
}

func TestCosine_Orthogonal(t *testing.T) {
	sim, err := Cosine([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-6)
}

func TestCosine_Opposite(t *testing.T) {
	sim, err := Cosine([]float32{1, 2}, []float32{-1, -2})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-5)
}

func TestCosine_Symmetry(t *testing.T) {
	a := []float32{0.1, 0.9, -0.4}
	b := []float32{0.8, -0.2, 0.5}
	ab, err := Cosine(a, b)
	require.NoError(t, err)
	ba, err := Cosine(b, a)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
}

func TestCosine_DimensionMismatch(t *testing.T) {
	_, err := Cosine([]float32{1, 2}, []float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestCosine_ZeroNorm(t *testing.T) {
	sim, err := Cosine([]float32{0, 0, 0}, []float32{1, 2, 3})
	require.NoError(t, err)
	assert.Zero(t, sim)
}

func TestMatrix_Properties(t *testing.T) {
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{1, 1, 0},
	}

	matrix, err := Matrix(vectors)
	require.NoError(t, err)
	require.Len(t, matrix, 3)

	for i := range matrix {
		require.Len(t, matrix[i], 3)
		assert.Equal(t, float32(1.0), matrix[i][i], "diagonal is exactly 1")
		for j := range matrix[i] {
			assert.Equal(t, matrix[i][j], matrix[j][i], "matrix is symmetric")
		}
	}

	assert.InDelta(t, 0.0, float64(matrix[0][1]), 1e-6)
	assert.InDelta(t, 0.7071, float64(matrix[0][2]), 1e-3)
}

func TestMatrix_Empty(t *testing.T) {
	matrix, err := Matrix(nil)
	require.NoError(t, err)
	assert.Empty(t, matrix)
}

func TestMatrix_DimensionMismatch(t *testing.T) {
	_, err := Matrix([][]float32{{1, 2}, {1, 2, 3}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
