package capture

// DefaultStableFrames is three seconds at 30fps
const DefaultStableFrames = 90

// Gate counts consecutive frames with a face present and fires once the count
// reaches the configured threshold. Not safe for concurrent use.
type Gate struct {
	stableFrames int
	count        int
	frameW       float64
	frameH       float64
}

// NewGate creates a gate for a frameW x frameH stream. stableFrames below 1
// falls back to DefaultStableFrames.
func NewGate(stableFrames int, frameW, frameH float64) *Gate {
	if stableFrames < 1 {
		stableFrames = DefaultStableFrames
	}
	return &Gate{stableFrames: stableFrames, frameW: frameW, frameH: frameH}
}

// Resize updates the frame bounds used to clamp boxes
func (g *Gate) Resize(frameW, frameH float64) {
	g.frameW, g.frameH = frameW, frameH
}

// Observe feeds one frame. A nil or malformed box counts as absence and
// resets the counter. When the counter reaches the threshold the clamped box
// is returned with fired=true and the counter starts over.
func (g *Gate) Observe(box *FaceBox) (FaceBox, bool) {
	if box == nil {
		g.count = 0
		return FaceBox{}, false
	}
	clamped, ok := ClampBox(*box, g.frameW, g.frameH)
	if !ok {
		g.count = 0
		return FaceBox{}, false
	}

	g.count++
	if g.count < g.stableFrames {
		return FaceBox{}, false
	}
	g.count = 0
	return clamped, true
}

// Count returns the current run of stable frames
func (g *Gate) Count() int {
	return g.count
}

// StableFrames returns the firing threshold
func (g *Gate) StableFrames() int {
	return g.stableFrames
}

// Reset zeroes the counter
func (g *Gate) Reset() {
	g.count = 0
}
