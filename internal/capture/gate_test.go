package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testBox = FaceBox{X: 100, Y: 80, Width: 200, Height: 220}

func observeN(g *Gate, box *FaceBox, n int) (fires int, last FaceBox) {
	for i := 0; i < n; i++ {
		if b, ok := g.Observe(box); ok {
			fires++
			last = b
		}
	}
	return fires, last
}

func TestGate_FiresOnThreshold(t *testing.T) {
	g := NewGate(DefaultStableFrames, 640, 480)

	fires, _ := observeN(g, &testBox, DefaultStableFrames-1)
	assert.Zero(t, fires)
	assert.Equal(t, DefaultStableFrames-1, g.Count())

	box, ok := g.Observe(&testBox)
	assert.True(t, ok)
	assert.Equal(t, testBox, box)
	assert.Zero(t, g.Count(), "counter restarts after firing")
}

func TestGate_AbsenceResets(t *testing.T) {
	g := NewGate(DefaultStableFrames, 640, 480)

	fires, _ := observeN(g, &testBox, 89)
	assert.Zero(t, fires)

	_, ok := g.Observe(nil)
	assert.False(t, ok)
	assert.Zero(t, g.Count())

	fires, _ = observeN(g, &testBox, 89)
	assert.Zero(t, fires)
	_, ok = g.Observe(&testBox)
	assert.True(t, ok, "fires on the 90th frame after the reset")
}

func TestGate_MalformedBoxIsAbsence(t *testing.T) {
	g := NewGate(3, 640, 480)
	observeN(g, &testBox, 2)

	_, ok := g.Observe(&FaceBox{X: 1000, Y: 1000, Width: 10, Height: 10})
	assert.False(t, ok)
	assert.Zero(t, g.Count())
}

func TestGate_ClampsFiredBox(t *testing.T) {
	g := NewGate(2, 640, 480)
	wide := FaceBox{X: -10, Y: 0, Width: 100, Height: 100}

	fires, last := observeN(g, &wide, 2)
	assert.Equal(t, 1, fires)
	assert.Equal(t, FaceBox{X: 0, Y: 0, Width: 90, Height: 100}, last)
}

func TestGate_FiresOncePerRun(t *testing.T) {
	g := NewGate(10, 640, 480)
	fires, _ := observeN(g, &testBox, 35)
	assert.Equal(t, 3, fires)
}

func TestGate_Defaults(t *testing.T) {
	g := NewGate(0, 640, 480)
	assert.Equal(t, DefaultStableFrames, g.StableFrames())

	observeN(g, &testBox, 5)
	g.Reset()
	assert.Zero(t, g.Count())
}
