// Package livenesstest builds synthetic landmark meshes for tests.
package livenesstest

import "github.com/saturnino-fabrica-de-software/vivo/internal/liveness"

// MeshSize matches the 468-point face mesh
const MeshSize = 468

// Frame returns a mesh with both eyes at the given aspect ratio and the nose
// at offset between the cheeks (0.5 faces the camera).
func Frame(ear, offset float64) *liveness.LandmarkFrame {
	layout := liveness.DefaultLayout()
	points := make([]liveness.Point, MeshSize)

	h := 10 * ear
	place := func(idx [6]int, x float64) {
		eye := [6]liveness.Point{
			{X: x, Y: 100}, {X: x + 3, Y: 100 - h}, {X: x + 7, Y: 100 - h},
			{X: x + 10, Y: 100}, {X: x + 7, Y: 100}, {X: x + 3, Y: 100},
		}
		for i, j := range idx {
			points[j] = eye[i]
		}
	}
	place(layout.LeftEye, 60)
	place(layout.RightEye, 130)

	points[layout.LeftCheek] = liveness.Point{X: 0, Y: 120}
	points[layout.RightCheek] = liveness.Point{X: 200, Y: 120}
	points[layout.Nose] = liveness.Point{X: 200 * offset, Y: 130}

	return &liveness.LandmarkFrame{Points: points}
}

// Blink is open, closed, open: enough to pass a blink challenge
func Blink() []*liveness.LandmarkFrame {
	return []*liveness.LandmarkFrame{Frame(0.30, 0.5), Frame(0.15, 0.5), Frame(0.30, 0.5)}
}

// Turn holds the head at offset for n frames
func Turn(offset float64, n int) []*liveness.LandmarkFrame {
	out := make([]*liveness.LandmarkFrame, n)
	for i := range out {
		out[i] = Frame(0.30, offset)
	}
	return out
}
