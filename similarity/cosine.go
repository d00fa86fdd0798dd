// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package similarity

import (
	"fmt"
	"math"
)

// Cosine returns the cosine similarity of two vectors in [-1, 1].
// Vectors of different lengths are an error. A zero-norm vector has
// similarity 0 with everything.
func Cosine(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}

// Matrix returns the pairwise cosine similarity matrix for the vectors.
// The diagonal is 1.0 and each unordered pair is computed once and
// mirrored.
func Matrix(vectors [][]float32) ([][]float32, error) {
	n := len(vectors)
	matrix := make([][]float32, n)
	for i := range matrix {
		matrix[i] = make([]float32, n)
		matrix[i][i] = 1.0
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim, err := Cosine(vectors[i], vectors[j])
			if err != nil {
				return nil, fmt.Errorf("pair (%d, %d): %w", i, j, err)
			}
			matrix[i][j] = sim
			matrix[j][i] = sim
		}
	}
	return matrix, nil
}
