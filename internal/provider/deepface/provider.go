package deepface

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels
)

// Provider implements provider.FaceDetector and provider.Embedder on a DeepFace API
type Provider struct {
	client *Client
	model  string
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
		model:  config.Model,
	}
}

// DetectFaces detects faces in the image. An image without a face yields an empty slice.
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	resp, err := p.represent(ctx, image)
	if err != nil {
		if errors.Is(err, ErrNoFaceInResponse) {
			return []provider.DetectedFace{}, nil
		}
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		faceArea := float64(result.FacialArea.W * result.FacialArea.H)

		confidence := result.FaceConfidence
		if confidence <= 0 {
			confidence = calculateConfidence(faceArea)
		}

		faces = append(faces, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      float64(result.FacialArea.X),
				Y:      float64(result.FacialArea.Y),
				Width:  float64(result.FacialArea.W),
				Height: float64(result.FacialArea.H),
			},
			Confidence:   confidence,
			QualityScore: calculateQuality(faceArea),
		})
	}

	return faces, nil
}

// Embed returns the embedding of the first face DeepFace reports
func (p *Provider) Embed(ctx context.Context, image []byte) ([]float64, error) {
	resp, err := p.represent(ctx, image)
	if err != nil {
		if errors.Is(err, ErrNoFaceInResponse) {
			return nil, domain.ErrNoFaceDetected.WithError(err)
		}
		return nil, fmt.Errorf("embed: %w", err)
	}

	if len(resp.Results) == 0 || len(resp.Results[0].Embedding) == 0 {
		return nil, domain.ErrNoFaceDetected.WithError(ErrNoFaceInResponse)
	}

	return resp.Results[0].Embedding, nil
}

// Model returns the configured DeepFace model name
func (p *Provider) Model() string {
	return p.model
}

// Ping checks that the DeepFace API is reachable
func (p *Provider) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx); err != nil {
		return fmt.Errorf("deepface ping: %w", err)
	}
	return nil
}

// represent maps DeepFace's "face could not be detected" 400 to ErrNoFaceInResponse
func (p *Provider) represent(ctx context.Context, image []byte) (*RepresentResponse, error) {
	resp, err := p.client.Represent(ctx, base64.StdEncoding.EncodeToString(image))
	if err == nil {
		return resp, nil
	}

	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(se.Body), "could not be detected") {
		return nil, ErrNoFaceInResponse
	}
	return nil, err
}

// calculateConfidence estimates confidence from face area when DeepFace
// does not report one. Larger faces are more likely to be accurately detected.
func calculateConfidence(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.5
	}
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}

// calculateQuality estimates quality score based on face area
func calculateQuality(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.4
	}
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.6 + (normalized * 0.35)
}

var (
	_ provider.FaceDetector = (*Provider)(nil)
	_ provider.Embedder     = (*Provider)(nil)
	_ provider.Pinger       = (*Provider)(nil)
)
