package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/vivo/internal/audit"
	"github.com/saturnino-fabrica-de-software/vivo/internal/config"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider/rekognition"
)

// ProviderType defines supported face provider backends
type ProviderType string

const (
	// ProviderTypeDeepFace is a self-hosted DeepFace API; detector and embedder
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeRekognition is AWS Rekognition; detector only
	ProviderTypeRekognition ProviderType = "rekognition"
	// ProviderTypeMock is deterministic and offline
	ProviderTypeMock ProviderType = "mock"
)

// Providers bundles the detector and embedder a deployment runs with
type Providers struct {
	Detector provider.FaceDetector
	Embedder provider.Embedder
}

// Pingers returns the providers that can report reachability
func (p Providers) Pingers() []provider.Pinger {
	var out []provider.Pinger
	if pg, ok := p.Detector.(provider.Pinger); ok {
		out = append(out, pg)
	}
	if pg, ok := p.Embedder.(provider.Pinger); ok && any(p.Embedder) != any(p.Detector) {
		out = append(out, pg)
	}
	return out
}

// NewProviders builds detector and embedder from configuration.
//
// Environment variables:
//   - DETECTOR_PROVIDER: "deepface", "rekognition" or "mock" (default: "deepface")
//   - EMBEDDER_PROVIDER: "deepface" or "mock" (default: "deepface")
//   - DEEPFACE_URL, DEEPFACE_MODEL: DeepFace API location and model
//   - AWS_REGION: AWS region for Rekognition; credentials come from the SDK chain
func NewProviders(ctx context.Context, cfg *config.Config, auditLogger audit.Logger) (Providers, error) {
	var df *deepface.Provider
	deepFace := func() *deepface.Provider {
		if df == nil {
			df = createDeepFaceProvider(cfg)
		}
		return df
	}

	var out Providers

	switch ProviderType(cfg.DetectorProvider) {
	case ProviderTypeDeepFace, "":
		out.Detector = deepFace()
	case ProviderTypeRekognition:
		det, err := createRekognitionProvider(ctx, cfg, auditLogger)
		if err != nil {
			return Providers{}, err
		}
		out.Detector = det
	case ProviderTypeMock:
		out.Detector = mock.New()
	default:
		return Providers{}, fmt.Errorf("unknown detector provider: %s (supported: %s, %s, %s)",
			cfg.DetectorProvider, ProviderTypeDeepFace, ProviderTypeRekognition, ProviderTypeMock)
	}

	switch ProviderType(cfg.EmbedderProvider) {
	case ProviderTypeDeepFace, "":
		out.Embedder = deepFace()
	case ProviderTypeMock:
		out.Embedder = mock.New()
	case ProviderTypeRekognition:
		return Providers{}, fmt.Errorf("rekognition does not expose embeddings; use %s or %s as EMBEDDER_PROVIDER",
			ProviderTypeDeepFace, ProviderTypeMock)
	default:
		return Providers{}, fmt.Errorf("unknown embedder provider: %s (supported: %s, %s)",
			cfg.EmbedderProvider, ProviderTypeDeepFace, ProviderTypeMock)
	}

	return out, nil
}

func createRekognitionProvider(ctx context.Context, cfg *config.Config, auditLogger audit.Logger) (provider.FaceDetector, error) {
	rekogConfig := rekognition.DefaultConfig()
	if cfg.AWSRegion != "" {
		rekogConfig.Region = cfg.AWSRegion
	}

	var opts []rekognition.ProviderOption
	if auditLogger != nil {
		opts = append(opts, rekognition.WithAuditLogger(auditLogger))
	}

	prov, err := rekognition.NewProvider(ctx, rekogConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("create rekognition provider: %w", err)
	}
	return prov, nil
}

func createDeepFaceProvider(cfg *config.Config) *deepface.Provider {
	deepfaceConfig := deepface.DefaultConfig()
	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		deepfaceConfig.Model = cfg.DeepFaceModel
	}
	return deepface.NewProvider(deepfaceConfig)
}
