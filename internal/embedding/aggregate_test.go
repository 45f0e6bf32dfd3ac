package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

func TestAverage(t *testing.T) {
	t.Run("single sample equals its normalization", func(t *testing.T) {
		s := []float64{3, 4, 0}
		got, err := Average([][]float64{s})
		require.NoError(t, err)
		assert.InDeltaSlice(t, Normalize(s), got, 1e-12)
		assert.InDeltaSlice(t, []float64{0.6, 0.8, 0}, got, 1e-12)
	})

	t.Run("mean then normalize", func(t *testing.T) {
		got, err := Average([][]float64{{2, 0}, {0, 2}})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, Norm(got), 1e-12)
		assert.InDelta(t, got[0], got[1], 1e-12)
	})

	t.Run("opposite samples collapse to zero vector", func(t *testing.T) {
		got, err := Average([][]float64{{1, -1}, {-1, 1}})
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0}, got)
	})

	t.Run("deterministic", func(t *testing.T) {
		samples := [][]float64{{0.1, 0.7, -0.2}, {0.3, 0.1, 0.9}, {-0.5, 0.2, 0.4}}
		a, err := Average(samples)
		require.NoError(t, err)
		b, err := Average(samples)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("input not mutated", func(t *testing.T) {
		s := []float64{3, 4}
		_, err := Average([][]float64{s})
		require.NoError(t, err)
		assert.Equal(t, []float64{3, 4}, s)
	})
}

func TestAverage_ContractViolations(t *testing.T) {
	tests := []struct {
		name    string
		samples [][]float64
	}{
		{"no samples", nil},
		{"empty sample", [][]float64{{}}},
		{"mismatched lengths", [][]float64{{1, 2, 3}, {1, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Average(tt.samples)
			assert.ErrorIs(t, err, domain.ErrInputContract)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, []float64{0, 0, 0}, Normalize([]float64{0, 0, 0}))
	assert.Empty(t, Normalize(nil))
	assert.InDelta(t, 1.0, Norm(Normalize([]float64{1, 2, 3, 4})), 1e-12)
}
