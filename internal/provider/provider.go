package provider

import (
	"context"

	"github.com/saturnino-fabrica-de-software/vivo/internal/capture"
)

// FaceDetector finds face boxes in a still image
type FaceDetector interface {
	// DetectFaces returns every face found, most prominent first when the
	// backend reports an order
	DetectFaces(ctx context.Context, image []byte) ([]DetectedFace, error)
}

// Embedder maps a face image to a descriptor vector
type Embedder interface {
	// Embed returns the embedding of the first face in image
	Embed(ctx context.Context, image []byte) ([]float64, error)

	// Model names the embedding model; templates are only comparable within a model
	Model() string
}

// Pinger is implemented by providers backed by a remote service
type Pinger interface {
	Ping(ctx context.Context) error
}

// DetectedFace represents a detected face in the image
type DetectedFace struct {
	BoundingBox  BoundingBox `json:"bounding_box"`
	Confidence   float64     `json:"confidence"`
	QualityScore float64     `json:"quality_score"`
	Pose         *Pose       `json:"pose,omitempty"`
}

// Pose represents face orientation angles
type Pose struct {
	Pitch float64 `json:"pitch"` // up/down rotation
	Roll  float64 `json:"roll"`  // tilted rotation
	Yaw   float64 `json:"yaw"`   // left/right rotation
}

// BoundingBox represents the face area in the image
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FaceBox converts to the capture gate's box type
func (b BoundingBox) FaceBox() capture.FaceBox {
	return capture.FaceBox{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

// FirstFace applies the single-subject policy: the first detection is the subject.
// ok is false when faces is empty.
func FirstFace(faces []DetectedFace) (DetectedFace, bool) {
	if len(faces) == 0 {
		return DetectedFace{}, false
	}
	return faces[0], true
}
