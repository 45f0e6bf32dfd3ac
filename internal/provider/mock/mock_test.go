package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
	"github.com/saturnino-fabrica-de-software/vivo/internal/embedding"
)

func patterned(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i%256) ^ seed
	}
	return b
}

func TestProvider_DetectFaces(t *testing.T) {
	p := New()

	tests := []struct {
		name      string
		image     []byte
		wantFaces int
		wantErr   bool
	}{
		{"valid image", make([]byte, 5000), 1, false},
		{"image too small", make([]byte, 100), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faces, err := p.DetectFaces(context.Background(), tt.image)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidImage)
				return
			}
			require.NoError(t, err)
			assert.Len(t, faces, tt.wantFaces)
		})
	}
}

func TestProvider_Embed(t *testing.T) {
	p := New()
	ctx := context.Background()

	a, err := p.Embed(ctx, patterned(5000, 0))
	require.NoError(t, err)
	assert.Len(t, a, embeddingDimension)
	assert.InDelta(t, 1.0, embedding.Norm(a), 1e-9)

	again, err := p.Embed(ctx, patterned(5000, 0))
	require.NoError(t, err)
	assert.Equal(t, a, again, "deterministic")

	b, err := p.Embed(ctx, patterned(5000, 7))
	require.NoError(t, err)
	d, err := embedding.Distance(a, b)
	require.NoError(t, err)
	assert.Greater(t, d, 0.0)

	_, err = p.Embed(ctx, []byte("tiny"))
	assert.ErrorIs(t, err, domain.ErrInvalidImage)
}

func TestProvider_Model(t *testing.T) {
	assert.Equal(t, "mock-sha256", New().Model())
}
