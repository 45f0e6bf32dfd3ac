package liveness

import (
	"math"
)

// DefaultMinLandmarks is the smallest point count a detector frame may carry
// and still be evaluated.
const DefaultMinLandmarks = 380

// minEyeWidth guards the EAR denominator
const minEyeWidth = 1e-9

// Point is a 2D landmark in frame pixel coordinates
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LandmarkFrame is the detector output for one video frame
type LandmarkFrame struct {
	Seq    uint64  `json:"seq"`
	Points []Point `json:"points"`
}

// Layout maps semantic landmarks to indices in LandmarkFrame.Points.
// Eye indices are ordered: outer corner, upper lid (2), inner corner, lower lid (2),
// so that (1,5) and (2,4) are the vertical pairs.
type Layout struct {
	LeftEye    [6]int
	RightEye   [6]int
	Nose       int
	LeftCheek  int
	RightCheek int
}

// DefaultLayout returns MediaPipe FaceMesh indices
func DefaultLayout() Layout {
	return Layout{
		LeftEye:    [6]int{33, 160, 158, 133, 153, 144},
		RightEye:   [6]int{263, 387, 385, 362, 380, 373},
		Nose:       1,
		LeftCheek:  234,
		RightCheek: 454,
	}
}

func (l Layout) indices() []int {
	idx := make([]int, 0, 15)
	idx = append(idx, l.LeftEye[:]...)
	idx = append(idx, l.RightEye[:]...)
	return append(idx, l.Nose, l.LeftCheek, l.RightCheek)
}

// MaxIndex returns the highest point index the layout reads
func (l Layout) MaxIndex() int {
	maxIdx := -1
	for _, i := range l.indices() {
		if i > maxIdx {
			maxIdx = i
		}
	}
	return maxIdx
}

// UsableFrame reports whether a frame carries enough finite points to be
// evaluated. A false result means "no face this frame", never an error.
func UsableFrame(frame *LandmarkFrame, layout Layout, minPoints int) bool {
	if frame == nil {
		return false
	}
	if len(frame.Points) < minPoints || len(frame.Points) <= layout.MaxIndex() {
		return false
	}
	for _, i := range layout.indices() {
		if i < 0 || !finitePoint(frame.Points[i]) {
			return false
		}
	}
	return true
}

// EyeAspectRatio computes (|p1-p5| + |p2-p4|) / (2 * |p0-p3|).
// Lower values mean a more closed eye. Returns NaN when the eye has no width.
func EyeAspectRatio(eye [6]Point) float64 {
	horizontal := dist(eye[0], eye[3])
	if horizontal < minEyeWidth {
		return math.NaN()
	}
	vertical := dist(eye[1], eye[5]) + dist(eye[2], eye[4])
	return vertical / (2 * horizontal)
}

// FrameEAR averages left and right eye aspect ratios. ok is false when either
// eye yields no valid ratio; such readings must be discarded.
func FrameEAR(frame *LandmarkFrame, layout Layout) (ear float64, ok bool) {
	left := EyeAspectRatio(pick(frame.Points, layout.LeftEye))
	right := EyeAspectRatio(pick(frame.Points, layout.RightEye))
	if !finite(left) || !finite(right) {
		return 0, false
	}
	return (left + right) / 2, true
}

// HeadTurnOffset returns the nose position between the cheeks, nominally in
// [0,1] with 0.5 facing forward. ok is false when the cheek width is not positive.
func HeadTurnOffset(nose, leftCheek, rightCheek Point) (offset float64, ok bool) {
	if !finitePoint(nose) || !finitePoint(leftCheek) || !finitePoint(rightCheek) {
		return 0, false
	}
	width := rightCheek.X - leftCheek.X
	if width <= 0 {
		return 0, false
	}
	return (nose.X - leftCheek.X) / width, true
}

// FrameTurnOffset applies HeadTurnOffset to a frame
func FrameTurnOffset(frame *LandmarkFrame, layout Layout) (float64, bool) {
	return HeadTurnOffset(
		frame.Points[layout.Nose],
		frame.Points[layout.LeftCheek],
		frame.Points[layout.RightCheek],
	)
}

func pick(points []Point, idx [6]int) [6]Point {
	var out [6]Point
	for i, j := range idx {
		out[i] = points[j]
	}
	return out
}

func dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finitePoint(p Point) bool {
	return finite(p.X) && finite(p.Y)
}
