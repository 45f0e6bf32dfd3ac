package rekognition

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/vivo/internal/audit"
	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100

	providerName = "rekognition"
)

// Provider implements provider.FaceDetector with AWS Rekognition DetectFaces.
// Rekognition does not expose embeddings, so it cannot serve as an Embedder.
type Provider struct {
	api         DetectFacesAPI
	config      Config
	auditLogger audit.Logger
}

// ProviderOption defines optional configuration for Provider
type ProviderOption func(*Provider)

// WithAuditLogger sets the audit logger for the provider
func WithAuditLogger(logger audit.Logger) ProviderOption {
	return func(p *Provider) {
		p.auditLogger = logger
	}
}

// WithAPI replaces the AWS client, mainly for tests
func WithAPI(api DetectFacesAPI) ProviderOption {
	return func(p *Provider) {
		p.api = api
	}
}

var _ provider.FaceDetector = (*Provider)(nil)

// NewProvider creates a Rekognition detector. Without WithAPI it builds a
// client from the default AWS credential chain.
func NewProvider(ctx context.Context, cfg Config, opts ...ProviderOption) (*Provider, error) {
	p := &Provider{config: cfg}
	for _, opt := range opts {
		opt(p)
	}

	if p.api == nil {
		client, err := NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create rekognition client: %w", err)
		}
		p.api = client
	}

	return p, nil
}

// logAudit is fire-and-forget; audit failures never fail detection
func (p *Provider) logAudit(ctx context.Context, success bool, err error, metadata map[string]string) {
	if p.auditLogger == nil {
		return
	}

	event := audit.Event{
		EventType: audit.EventFaceDetected,
		Provider:  providerName,
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = err.Error()
	}

	_ = p.auditLogger.Log(ctx, event)
}

// validateImage checks the size limits and decodes the image header for its dimensions
func validateImage(img []byte) (width, height int, err error) {
	if len(img) < minImageSize {
		return 0, 0, domain.ErrInvalidImage.WithError(
			fmt.Errorf("image too small (%d bytes, minimum %d)", len(img), minImageSize))
	}
	if len(img) > maxImageSize {
		return 0, 0, domain.ErrInvalidImage.WithError(
			fmt.Errorf("image too large (%d bytes, maximum %d)", len(img), maxImageSize))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return 0, 0, domain.ErrInvalidImage.WithError(err)
	}
	return cfg.Width, cfg.Height, nil
}

// DetectFaces returns pixel-space boxes for every face above MinConfidence.
// An image without faces yields an empty slice.
func (p *Provider) DetectFaces(ctx context.Context, img []byte) ([]provider.DetectedFace, error) {
	meta := map[string]string{"image_size": strconv.Itoa(len(img))}

	width, height, err := validateImage(img)
	if err != nil {
		p.logAudit(ctx, false, err, meta)
		return nil, err
	}

	output, err := p.api.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: img},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		translated := translateError(err)
		p.logAudit(ctx, false, translated, meta)
		return nil, translated
	}

	faces := make([]provider.DetectedFace, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil || detail.Confidence == nil {
			continue
		}
		if *detail.Confidence < p.config.MinConfidence {
			continue
		}
		faces = append(faces, provider.DetectedFace{
			BoundingBox:  toPixels(detail.BoundingBox, float64(width), float64(height)),
			Confidence:   float64(*detail.Confidence) / 100,
			QualityScore: calculateQualityScore(detail.Quality),
			Pose:         toPose(detail.Pose),
		})
	}

	meta["faces_count"] = strconv.Itoa(len(faces))
	p.logAudit(ctx, true, nil, meta)

	return faces, nil
}

// toPixels converts Rekognition's ratio-of-image box into frame pixels
func toPixels(b *types.BoundingBox, width, height float64) provider.BoundingBox {
	return provider.BoundingBox{
		X:      float64(deref(b.Left)) * width,
		Y:      float64(deref(b.Top)) * height,
		Width:  float64(deref(b.Width)) * width,
		Height: float64(deref(b.Height)) * height,
	}
}

func toPose(p *types.Pose) *provider.Pose {
	if p == nil {
		return nil
	}
	return &provider.Pose{
		Pitch: float64(deref(p.Pitch)),
		Roll:  float64(deref(p.Roll)),
		Yaw:   float64(deref(p.Yaw)),
	}
}

// calculateQualityScore weights sharpness over brightness, both reported 0-100
func calculateQualityScore(quality *types.ImageQuality) float64 {
	if quality == nil {
		return 0.0
	}
	brightness := float64(deref(quality.Brightness)) / 100.0
	sharpness := float64(deref(quality.Sharpness)) / 100.0
	return brightness*0.3 + sharpness*0.7
}

func deref(v *float32) float32 {
	if v == nil {
		return 0
	}
	return *v
}
