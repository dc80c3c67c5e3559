package embedding

import (
	"fmt"
	"math"
)

// Normalize keeps the leading dim components of v and scales them to unit
// Euclidean length. The input slice is not modified.
func Normalize(v []float32, dim int) ([]float32, error) {
	if dim <= 0 || len(v) < dim {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrDimension, len(v), dim)
	}

	var sum float64
	for _, x := range v[:dim] {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, ErrZeroVector
	}

	out := make([]float32, dim)
	for i, x := range v[:dim] {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}
