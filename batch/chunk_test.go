package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBatches_Partitioning(t *testing.T) {
	items := make([]int, 237)
	for i := range items {
		items[i] = i
	}

	batches := CreateBatches(items, 50)
	require.Len(t, batches, 5)
	for i := 0; i < 4; i++ {
		assert.Len(t, batches[i], 50)
	}
	assert.Len(t, batches[4], 37)

	// Concatenation reproduces the input order with no gaps or overlaps.
	var flat []int
	for _, b := range batches {
		flat = append(flat, b...)
	}
	assert.Equal(t, items, flat)
}

func TestCreateBatches_ExactMultiple(t *testing.T) {
	batches := CreateBatches([]string{"a", "b", "c", "d"}, 2)
	require.Len(t, batches, 2)
	assert.Equal(t, []string{"a", "b"}, batches[0])
	assert.Equal(t, []string{"c", "d"}, batches[1])
}

func TestCreateBatches_SizeLargerThanInput(t *testing.T) {
	batches := CreateBatches([]int{1, 2, 3}, 10)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 3)
}

func TestCreateBatches_Empty(t *testing.T) {
	assert.Nil(t, CreateBatches([]int{}, 10))
}

func TestCreateBatches_NonPositiveSize(t *testing.T) {
	batches := CreateBatches([]int{1, 2, 3}, 0)
	require.Len(t, batches, 1, "non-positive size degrades to a single batch")
	assert.Len(t, batches[0], 3)
}

func TestCreateBatches_CountFormula(t *testing.T) {
	for _, tc := range []struct{ n, b, want int }{
		{1, 1, 1}, {10, 3, 4}, {100, 50, 2}, {101, 50, 3}, {50, 50, 1},
	} {
		items := make([]int, tc.n)
		assert.Len(t, CreateBatches(items, tc.b), tc.want, "n=%d b=%d", tc.n, tc.b)
	}
}
