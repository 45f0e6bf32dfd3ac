package deepface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

func newTestProvider(t *testing.T, status int, body any) *Provider {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return NewProvider(testConfig(server.URL))
}

func TestProvider_DetectFaces(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse any
		serverStatus   int
		wantCount      int
		wantErr        bool
	}{
		{
			name: "single face detected",
			serverResponse: RepresentResponse{
				Results: []RepresentResult{
					{Embedding: make([]float64, 512), FacialArea: FacialArea{X: 10, Y: 20, W: 200, H: 200}},
				},
			},
			serverStatus: http.StatusOK,
			wantCount:    1,
		},
		{
			name: "multiple faces detected",
			serverResponse: RepresentResponse{
				Results: []RepresentResult{
					{Embedding: make([]float64, 512), FacialArea: FacialArea{X: 10, Y: 10, W: 100, H: 100}},
					{Embedding: make([]float64, 512), FacialArea: FacialArea{X: 200, Y: 10, W: 100, H: 100}},
				},
			},
			serverStatus: http.StatusOK,
			wantCount:    2,
		},
		{
			name:           "face could not be detected",
			serverResponse: map[string]string{"error": "Face could not be detected in numpy array."},
			serverStatus:   http.StatusBadRequest,
			wantCount:      0,
		},
		{
			name:           "server error",
			serverResponse: RepresentResponse{},
			serverStatus:   http.StatusInternalServerError,
			wantErr:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, tt.serverStatus, tt.serverResponse)
			faces, err := p.DetectFaces(context.Background(), []byte("test-image"))

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Len(t, faces, tt.wantCount)
			if tt.wantCount > 0 {
				assert.Greater(t, faces[0].Confidence, 0.0)
				assert.Greater(t, faces[0].QualityScore, 0.0)
				assert.Equal(t, 10.0, faces[0].BoundingBox.X)
			}
		})
	}
}

func TestProvider_DetectFacesUsesReportedConfidence(t *testing.T) {
	p := newTestProvider(t, http.StatusOK, RepresentResponse{
		Results: []RepresentResult{
			{FacialArea: FacialArea{W: 40, H: 40}, FaceConfidence: 0.93},
		},
	})

	faces, err := p.DetectFaces(context.Background(), []byte("img"))
	require.NoError(t, err)
	require.Len(t, faces, 1)
	assert.Equal(t, 0.93, faces[0].Confidence)
	assert.Equal(t, 0.4, faces[0].QualityScore)
}

func TestProvider_Embed(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse any
		serverStatus   int
		wantEmbLen     int
		wantErr        error
	}{
		{
			name: "first face embedding",
			serverResponse: RepresentResponse{
				Results: []RepresentResult{
					{Embedding: make([]float64, 512), FacialArea: FacialArea{X: 10, Y: 20, W: 200, H: 200}},
					{Embedding: make([]float64, 128), FacialArea: FacialArea{X: 300, Y: 20, W: 50, H: 50}},
				},
			},
			serverStatus: http.StatusOK,
			wantEmbLen:   512,
		},
		{
			name:           "empty results",
			serverResponse: RepresentResponse{Results: []RepresentResult{}},
			serverStatus:   http.StatusOK,
			wantErr:        domain.ErrNoFaceDetected,
		},
		{
			name:           "no face detected",
			serverResponse: map[string]string{"error": "Face could not be detected"},
			serverStatus:   http.StatusBadRequest,
			wantErr:        ErrNoFaceInResponse,
		},
		{
			name:           "server error",
			serverResponse: RepresentResponse{},
			serverStatus:   http.StatusInternalServerError,
			wantErr:        ErrDeepFaceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, tt.serverStatus, tt.serverResponse)
			emb, err := p.Embed(context.Background(), []byte("test-image"))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Len(t, emb, tt.wantEmbLen)
		})
	}
}

func TestProvider_Model(t *testing.T) {
	config := DefaultConfig()
	config.Model = "ArcFace"
	assert.Equal(t, "ArcFace", NewProvider(config).Model())
}

func TestCalculateConfidence(t *testing.T) {
	assert.Equal(t, 0.5, calculateConfidence(100))
	assert.InDelta(t, 0.7, calculateConfidence(minFaceArea), 1e-9)
	assert.InDelta(t, 0.99, calculateConfidence(maxFaceArea*2), 1e-9)
}
