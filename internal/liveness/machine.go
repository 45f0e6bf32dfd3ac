package liveness

import (
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

// Status of a challenge run
type Status string

const (
	StatusInitializing      Status = "initializing"
	StatusAwaitingChallenge Status = "awaiting_challenge"
	StatusPassed            Status = "passed"
	StatusFailed            Status = "failed"
)

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusPassed || s == StatusFailed
}

// Config holds the thresholds of the challenge state machine
type Config struct {
	// Blink hysteresis: a blink is open (> OpenAbove), closed (< CloseBelow), open again.
	CloseBelow float64
	OpenAbove  float64

	// Turn zones on the image-relative head offset. The band between them is the dead zone.
	TurnLeftBelow  float64
	TurnRightAbove float64

	// HoldFrames is the number of consecutive turned frames required to pass a turn.
	HoldFrames int

	// ResetHoldOnFaceLoss zeroes an in-progress turn hold when a frame has no usable face.
	// When false, such frames are ignored and the hold carries over.
	ResetHoldOnFaceLoss bool

	MinLandmarks int
	Layout       Layout
}

// DefaultConfig returns thresholds tuned for a 30fps webcam stream
func DefaultConfig() Config {
	return Config{
		CloseBelow:          0.22,
		OpenAbove:           0.26,
		TurnLeftBelow:       0.35,
		TurnRightAbove:      0.65,
		HoldFrames:          15,
		ResetHoldOnFaceLoss: false,
		MinLandmarks:        DefaultMinLandmarks,
		Layout:              DefaultLayout(),
	}
}

// Validate checks threshold ordering
func (c Config) Validate() error {
	if !(c.CloseBelow > 0 && c.CloseBelow < c.OpenAbove) {
		return fmt.Errorf("blink thresholds: close (%.3f) must be positive and below open (%.3f)", c.CloseBelow, c.OpenAbove)
	}
	if !(c.TurnLeftBelow > 0 && c.TurnLeftBelow < c.TurnRightAbove && c.TurnRightAbove < 1) {
		return fmt.Errorf("turn thresholds: need 0 < left (%.3f) < right (%.3f) < 1", c.TurnLeftBelow, c.TurnRightAbove)
	}
	if c.HoldFrames < 1 {
		return fmt.Errorf("hold frames must be at least 1, got %d", c.HoldFrames)
	}
	if c.MinLandmarks < 1 {
		return fmt.Errorf("min landmarks must be at least 1, got %d", c.MinLandmarks)
	}
	return nil
}

// ChallengeSession is a read-only view of the machine
type ChallengeSession struct {
	Sequence      []Challenge `json:"sequence"`
	Index         int         `json:"index"`
	Status        Status      `json:"status"`
	Current       Challenge   `json:"current,omitempty"`
	HeldFrames    int         `json:"held_frames"`
	LastEAR       *float64    `json:"last_ear,omitempty"`
	LastOffset    *float64    `json:"last_offset,omitempty"`
	FailureReason string      `json:"failure_reason,omitempty"`
}

// Result describes what one frame did to the machine
type Result struct {
	ChallengeSession
	Ignored   bool      `json:"ignored"`
	Advanced  bool      `json:"advanced"`
	Completed Challenge `json:"completed,omitempty"`
}

type blinkState struct {
	seenOpen bool
	closed   bool
}

// Machine advances a fixed challenge sequence one frame at a time.
// It is not safe for concurrent use; one loop owns it.
type Machine struct {
	cfg      Config
	sequence Sequence
	index    int
	status   Status
	failure  error

	blink blinkState
	held  int

	lastEAR    float64
	lastOffset float64
}

// NewMachine creates a machine in the Initializing state
func NewMachine(cfg Config, sequence Sequence) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("liveness config: %w", err)
	}
	if sequence.Len() == 0 {
		return nil, fmt.Errorf("liveness: empty challenge sequence")
	}
	return &Machine{
		cfg:        cfg,
		sequence:   sequence,
		status:     StatusInitializing,
		lastEAR:    math.NaN(),
		lastOffset: math.NaN(),
	}, nil
}

// Start moves Initializing to AwaitingChallenge; it is a no-op otherwise
func (m *Machine) Start() {
	if m.status == StatusInitializing {
		m.status = StatusAwaitingChallenge
	}
}

// Advance evaluates one frame against the active challenge. A nil or unusable
// frame is ignored. Terminal machines reject frames with ErrSessionFinished.
func (m *Machine) Advance(frame *LandmarkFrame) (Result, error) {
	if m.status.IsTerminal() {
		return Result{ChallengeSession: m.Snapshot()}, domain.ErrSessionFinished
	}
	m.Start()

	current := m.sequence.At(m.index)

	if !UsableFrame(frame, m.cfg.Layout, m.cfg.MinLandmarks) {
		if current.isTurn() && m.cfg.ResetHoldOnFaceLoss {
			m.held = 0
		}
		return Result{ChallengeSession: m.Snapshot(), Ignored: true}, nil
	}

	var advanced, ignored bool
	if current == ChallengeBlink {
		advanced, ignored = m.evalBlink(frame)
	} else {
		advanced, ignored = m.evalTurn(frame, current)
	}

	if advanced {
		m.next()
	}

	return Result{
		ChallengeSession: m.Snapshot(),
		Ignored:          ignored,
		Advanced:         advanced,
		Completed:        completedIf(advanced, current),
	}, nil
}

// Fail terminates the run because of an upstream error. Returns false when
// the machine was already terminal.
func (m *Machine) Fail(err error) bool {
	if m.status.IsTerminal() {
		return false
	}
	if err == nil {
		err = fmt.Errorf("unspecified failure")
	}
	m.status = StatusFailed
	m.failure = err
	return true
}

// Status returns the current status
func (m *Machine) Status() Status {
	return m.status
}

// Err returns the failure that terminated the run, if any
func (m *Machine) Err() error {
	return m.failure
}

// Snapshot returns the current view of the machine
func (m *Machine) Snapshot() ChallengeSession {
	s := ChallengeSession{
		Sequence:   m.sequence.Challenges(),
		Index:      m.index,
		Status:     m.status,
		HeldFrames: m.held,
		LastEAR:    optional(m.lastEAR),
		LastOffset: optional(m.lastOffset),
	}
	if m.index < m.sequence.Len() && !m.status.IsTerminal() {
		s.Current = m.sequence.At(m.index)
	}
	if m.failure != nil {
		s.FailureReason = m.failure.Error()
	}
	return s
}

func (m *Machine) evalBlink(frame *LandmarkFrame) (advanced, ignored bool) {
	ear, ok := FrameEAR(frame, m.cfg.Layout)
	if !ok {
		return false, true
	}
	m.lastEAR = ear

	switch {
	case ear > m.cfg.OpenAbove:
		if m.blink.closed {
			return true, false
		}
		m.blink.seenOpen = true
	case ear < m.cfg.CloseBelow && m.blink.seenOpen:
		m.blink.closed = true
	}
	return false, false
}

func (m *Machine) evalTurn(frame *LandmarkFrame, c Challenge) (advanced, ignored bool) {
	offset, ok := FrameTurnOffset(frame, m.cfg.Layout)
	if !ok {
		return false, true
	}
	m.lastOffset = offset

	if !m.turned(c, offset) {
		m.held = 0
		return false, false
	}

	m.held++
	return m.held >= m.cfg.HoldFrames, false
}

func (m *Machine) turned(c Challenge, offset float64) bool {
	if c == ChallengeTurnLeft {
		return offset < m.cfg.TurnLeftBelow
	}
	return offset > m.cfg.TurnRightAbove
}

func (m *Machine) next() {
	m.index++
	m.blink = blinkState{}
	m.held = 0
	if m.index >= m.sequence.Len() {
		m.status = StatusPassed
	}
}

func completedIf(advanced bool, c Challenge) Challenge {
	if advanced {
		return c
	}
	return ""
}

func optional(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
