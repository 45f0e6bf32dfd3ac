package face

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vivo/internal/config"
)

func TestNewProviders(t *testing.T) {
	tests := []struct {
		name         string
		detector     string
		embedder     string
		wantDetector string
		wantEmbedder string
		wantPingers  int
		wantErr      string
	}{
		{
			name:         "empty defaults to deepface",
			wantDetector: "*deepface.Provider",
			wantEmbedder: "*deepface.Provider",
			wantPingers:  1,
		},
		{
			name:         "mock for both",
			detector:     "mock",
			embedder:     "mock",
			wantDetector: "*mock.Provider",
			wantEmbedder: "*mock.Provider",
		},
		{
			name:         "mock detector with deepface embedder",
			detector:     "mock",
			embedder:     "deepface",
			wantDetector: "*mock.Provider",
			wantEmbedder: "*deepface.Provider",
			wantPingers:  1,
		},
		{
			name:     "rekognition cannot embed",
			detector: "mock",
			embedder: "rekognition",
			wantErr:  "does not expose embeddings",
		},
		{
			name:     "unknown detector",
			detector: "opencv",
			wantErr:  "unknown detector provider",
		},
		{
			name:     "unknown embedder",
			detector: "mock",
			embedder: "arcface-onnx",
			wantErr:  "unknown embedder provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				DetectorProvider: tt.detector,
				EmbedderProvider: tt.embedder,
				DeepFaceURL:      "http://localhost:5000",
				DeepFaceModel:    "Facenet512",
			}

			p, err := NewProviders(context.Background(), cfg, nil)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantDetector, fmt.Sprintf("%T", p.Detector))
			assert.Equal(t, tt.wantEmbedder, fmt.Sprintf("%T", p.Embedder))
			assert.Len(t, p.Pingers(), tt.wantPingers)
		})
	}
}

func TestNewProviders_SharesDeepFaceInstance(t *testing.T) {
	p, err := NewProviders(context.Background(), &config.Config{DeepFaceModel: "ArcFace"}, nil)
	require.NoError(t, err)
	assert.Same(t, p.Detector, p.Embedder)
	assert.Equal(t, "ArcFace", p.Embedder.Model())
}
