package capture

import (
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

// FaceBox is a face bounding box in frame pixels
type FaceBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns Width*Height
func (b FaceBox) Area() float64 {
	return b.Width * b.Height
}

// ClampBox clips box to a frameW x frameH frame. ok is false when the box has a
// non-finite coordinate or nothing of positive area remains inside the frame.
func ClampBox(box FaceBox, frameW, frameH float64) (FaceBox, bool) {
	for _, v := range []float64{box.X, box.Y, box.Width, box.Height, frameW, frameH} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return FaceBox{}, false
		}
	}
	if frameW <= 0 || frameH <= 0 || box.Width <= 0 || box.Height <= 0 {
		return FaceBox{}, false
	}

	x0 := math.Max(box.X, 0)
	y0 := math.Max(box.Y, 0)
	x1 := math.Min(box.X+box.Width, frameW)
	y1 := math.Min(box.Y+box.Height, frameH)
	if x1 <= x0 || y1 <= y0 {
		return FaceBox{}, false
	}

	return FaceBox{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, true
}

// ValidateBox is ClampBox for API boundaries: a box that does not survive
// clamping is a contract violation.
func ValidateBox(box FaceBox, frameW, frameH float64) (FaceBox, error) {
	clamped, ok := ClampBox(box, frameW, frameH)
	if !ok {
		return FaceBox{}, domain.ErrInputContract.WithError(
			fmt.Errorf("malformed face box %+v for %gx%g frame", box, frameW, frameH))
	}
	return clamped, nil
}
