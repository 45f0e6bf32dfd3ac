package embedding

import (
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

// Average combines enrollment samples into one template: element-wise mean in
// sample order, then L2 normalization. All samples must share a non-zero length.
func Average(samples [][]float64) ([]float64, error) {
	if len(samples) == 0 {
		return nil, domain.ErrInputContract.WithError(fmt.Errorf("no samples to aggregate"))
	}

	dim := len(samples[0])
	if dim == 0 {
		return nil, domain.ErrInputContract.WithError(fmt.Errorf("sample 0 is empty"))
	}

	sum := make([]float64, dim)
	for i, s := range samples {
		if len(s) != dim {
			return nil, domain.ErrInputContract.WithError(
				fmt.Errorf("sample %d has length %d, expected %d", i, len(s), dim))
		}
		for j, v := range s {
			sum[j] += v
		}
	}

	n := float64(len(samples))
	for j := range sum {
		sum[j] /= n
	}

	return Normalize(sum), nil
}

// Normalize returns v scaled to unit length. A zero vector is returned as a
// zero vector of the same length.
func Normalize(v []float64) []float64 {
	out := make([]float64, len(v))

	norm := Norm(v)
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// Norm returns the L2 norm of v
func Norm(v []float64) float64 {
	var sq float64
	for _, x := range v {
		sq += x * x
	}
	return math.Sqrt(sq)
}
