package mock

import (
	"context"
	"crypto/sha256"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
	"github.com/saturnino-fabrica-de-software/vivo/internal/embedding"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider"
)

const (
	embeddingDimension = 512
	minImageSize       = 1000
	modelName          = "mock-sha256"
)

// Provider is a deterministic detector and embedder for development and tests.
// The same image bytes always produce the same embedding.
type Provider struct{}

// New creates a mock provider
func New() *Provider {
	return &Provider{}
}

// DetectFaces reports one centered face for any large enough payload
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if len(image) < minImageSize {
		return nil, domain.ErrInvalidImage
	}

	return []provider.DetectedFace{
		{
			BoundingBox: provider.BoundingBox{
				X:      160,
				Y:      120,
				Width:  320,
				Height: 240,
			},
			Confidence:   0.99,
			QualityScore: 0.95,
		},
	}, nil
}

// Embed derives a unit vector from the SHA-256 of the image
func (p *Provider) Embed(ctx context.Context, image []byte) ([]float64, error) {
	if len(image) < minImageSize {
		return nil, domain.ErrInvalidImage
	}
	return generateEmbedding(image), nil
}

func (p *Provider) Model() string {
	return modelName
}

func generateEmbedding(image []byte) []float64 {
	hash := sha256.Sum256(image)
	vec := make([]float64, embeddingDimension)
	for i := range vec {
		vec[i] = (float64(hash[i%len(hash)])/255.0)*2 - 1
	}
	return embedding.Normalize(vec)
}

var (
	_ provider.FaceDetector = (*Provider)(nil)
	_ provider.Embedder     = (*Provider)(nil)
)
