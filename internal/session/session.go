package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/vivo/internal/capture"
	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
	"github.com/saturnino-fabrica-de-software/vivo/internal/embedding"
	"github.com/saturnino-fabrica-de-software/vivo/internal/liveness"
)

// Mode is chosen by the caller when the session is created
type Mode string

const (
	ModeEnroll Mode = "enroll"
	ModeVerify Mode = "verify"
)

// ParseMode validates a wire mode
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeEnroll, ModeVerify:
		return m, nil
	default:
		return "", domain.ErrInputContract.WithError(fmt.Errorf("unknown mode %q", s))
	}
}

// Phase of a session
type Phase string

const (
	PhaseLiveness Phase = "liveness"
	PhaseCapture  Phase = "capture"
	PhaseComplete Phase = "complete"
	PhaseFailed   Phase = "failed"
	PhaseStopped  Phase = "stopped"
)

// DefaultSampleCount is the number of captures averaged into one template
const DefaultSampleCount = 3

// Config bundles the tunables of a session
type Config struct {
	Liveness     liveness.Config
	Sequence     liveness.Sequence
	StableFrames int
	SampleCount  int
	Policy       embedding.MatchPolicy
	FrameWidth   float64
	FrameHeight  float64
}

// DefaultConfig returns defaults for a 640x480 stream
func DefaultConfig() Config {
	return Config{
		Liveness:     liveness.DefaultConfig(),
		Sequence:     liveness.DefaultSequence(),
		StableFrames: capture.DefaultStableFrames,
		SampleCount:  DefaultSampleCount,
		Policy:       embedding.DefaultPolicy(),
		FrameWidth:   640,
		FrameHeight:  480,
	}
}

// Validate checks every nested configuration
func (c Config) Validate() error {
	if err := c.Liveness.Validate(); err != nil {
		return err
	}
	if c.Sequence.Len() == 0 {
		return fmt.Errorf("challenge sequence is empty")
	}
	if c.StableFrames < 1 {
		return fmt.Errorf("stable frames must be at least 1, got %d", c.StableFrames)
	}
	if c.SampleCount < 1 {
		return fmt.Errorf("sample count must be at least 1, got %d", c.SampleCount)
	}
	return c.Policy.Validate()
}

// Frame is one detector result. Landmarks drive liveness, Box drives capture.
// Either may be nil when the detector saw no face.
type Frame struct {
	Landmarks   *liveness.LandmarkFrame `json:"landmarks,omitempty"`
	Box         *capture.FaceBox        `json:"box,omitempty"`
	FrameWidth  float64                 `json:"frame_width,omitempty"`
	FrameHeight float64                 `json:"frame_height,omitempty"`
}

// StepResult reports what a frame did
type StepResult struct {
	Phase          Phase                     `json:"phase"`
	Liveness       liveness.ChallengeSession `json:"liveness"`
	Advanced       bool                      `json:"advanced"`
	Completed      liveness.Challenge        `json:"completed,omitempty"`
	Ignored        bool                      `json:"ignored"`
	StableCount    int                       `json:"stable_count"`
	Capture        *capture.FaceBox          `json:"capture,omitempty"`
	AwaitingSample bool                      `json:"awaiting_sample"`
}

// Outcome is the final result of a session
type Outcome struct {
	Kind     domain.OutcomeKind     `json:"kind"`
	Template *domain.Template       `json:"template,omitempty"`
	Match    *embedding.MatchResult `json:"match,omitempty"`
	Reason   string                 `json:"reason,omitempty"`
}

// SampleResult reports progress after AddSample
type SampleResult struct {
	Collected int      `json:"collected"`
	Required  int      `json:"required"`
	Outcome   *Outcome `json:"outcome,omitempty"`
}

// State is a read-only view of a session
type State struct {
	ID               uuid.UUID                 `json:"id"`
	Mode             Mode                      `json:"mode"`
	Phase            Phase                     `json:"phase"`
	ExternalID       string                    `json:"external_id,omitempty"`
	Liveness         liveness.ChallengeSession `json:"liveness"`
	StableCount      int                       `json:"stable_count"`
	StableTarget     int                       `json:"stable_target"`
	SamplesCollected int                       `json:"samples_collected"`
	SamplesRequired  int                       `json:"samples_required"`
	AwaitingSample   bool                      `json:"awaiting_sample"`
	Outcome          *Outcome                  `json:"outcome,omitempty"`
	CreatedAt        time.Time                 `json:"created_at"`
}

// Option configures a Session
type Option func(*Session)

// WithTemplate sets the stored template a verify session compares against
func WithTemplate(t *domain.Template) Option {
	return func(s *Session) {
		s.template = t
		if t != nil && s.externalID == "" {
			s.externalID = t.ExternalID
		}
	}
}

// WithExternalID tags the session with the caller's subject identifier
func WithExternalID(id string) Option {
	return func(s *Session) { s.externalID = id }
}

// WithIdempotencyKey attaches the caller's idempotency key
func WithIdempotencyKey(key string) Option {
	return func(s *Session) { s.idempotencyKey = key }
}

// WithID overrides the generated session id
func WithID(id uuid.UUID) Option {
	return func(s *Session) { s.id = id }
}

// Session drives liveness, capture and enroll-or-verify for one subject.
// It has a single owner; callers serialize access.
type Session struct {
	id             uuid.UUID
	mode           Mode
	cfg            Config
	externalID     string
	idempotencyKey string
	template       *domain.Template
	createdAt      time.Time

	phase   Phase
	machine *liveness.Machine
	gate    *capture.Gate
	samples [][]float64
	pending bool
	outcome *Outcome
}

// New creates a session in PhaseLiveness. The challenge sequence is taken
// from cfg once and never changes afterwards.
func New(cfg Config, mode Mode, opts ...Option) (*Session, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}

	s := &Session{
		id:        uuid.New(),
		mode:      mode,
		cfg:       cfg,
		createdAt: time.Now(),
		phase:     PhaseLiveness,
	}
	for _, opt := range opts {
		opt(s)
	}

	if mode == ModeVerify && (s.template == nil || len(s.template.Embedding) == 0) {
		return nil, domain.ErrInputContract.WithError(fmt.Errorf("verify session requires a stored template"))
	}

	machine, err := liveness.NewMachine(cfg.Liveness, cfg.Sequence)
	if err != nil {
		return nil, err
	}
	s.machine = machine
	s.machine.Start()
	s.gate = capture.NewGate(cfg.StableFrames, cfg.FrameWidth, cfg.FrameHeight)

	return s, nil
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) Mode() Mode {
	return s.mode
}

func (s *Session) Phase() Phase {
	return s.phase
}

func (s *Session) ExternalID() string {
	return s.externalID
}

func (s *Session) IdempotencyKey() string {
	return s.idempotencyKey
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Outcome returns the final result, or nil while the session is running
func (s *Session) Outcome() *Outcome {
	return s.outcome
}

// Template returns the stored template of a verify session
func (s *Session) Template() *domain.Template {
	return s.template
}

// Completed reports whether an outcome has been produced
func (s *Session) Completed() bool {
	return s.outcome != nil && s.phase != PhaseStopped
}

// Finished reports whether the session accepts no more frames or samples
func (s *Session) Finished() bool {
	return s.phase == PhaseComplete || s.phase == PhaseFailed
}

// Samples returns a copy of the accumulated embeddings
func (s *Session) Samples() [][]float64 {
	out := make([][]float64, len(s.samples))
	for i, v := range s.samples {
		out[i] = append([]float64(nil), v...)
	}
	return out
}

func (s *Session) checkActive() error {
	switch s.phase {
	case PhaseStopped:
		return domain.ErrSessionStopped
	case PhaseComplete, PhaseFailed:
		return domain.ErrSessionFinished
	}
	return nil
}

// Step feeds one frame. During liveness the landmarks drive the challenge
// machine; once it passes, boxes drive the capture gate. A gate fire is
// reported once and suppressed until the pending sample arrives.
func (s *Session) Step(frame Frame) (StepResult, error) {
	if err := s.checkActive(); err != nil {
		return s.stepResult(), err
	}

	if s.phase == PhaseLiveness {
		res, err := s.machine.Advance(frame.Landmarks)
		if err != nil {
			return s.stepResult(), err
		}
		if s.machine.Status() == liveness.StatusPassed {
			s.phase = PhaseCapture
		}
		out := s.stepResult()
		out.Liveness = res.ChallengeSession
		out.Advanced = res.Advanced
		out.Completed = res.Completed
		out.Ignored = res.Ignored
		return out, nil
	}

	if frame.FrameWidth > 0 && frame.FrameHeight > 0 {
		s.gate.Resize(frame.FrameWidth, frame.FrameHeight)
	}
	box, fired := s.gate.Observe(frame.Box)

	out := s.stepResult()
	out.Ignored = frame.Box == nil
	if fired && !s.pending {
		s.pending = true
		out.Capture = &box
		out.AwaitingSample = true
	}
	return out, nil
}

// AddSample hands an embedding for the last capture to the session. Enroll
// sessions aggregate once SampleCount samples are collected; verify sessions
// compare the first sample against the stored template.
func (s *Session) AddSample(emb []float64) (SampleResult, error) {
	if err := s.checkActive(); err != nil {
		return s.sampleResult(), err
	}
	if s.phase != PhaseCapture || !s.pending {
		return s.sampleResult(), domain.ErrSampleNotExpected
	}
	if len(emb) == 0 {
		return s.sampleResult(), domain.ErrInputContract.WithError(fmt.Errorf("empty embedding"))
	}
	if len(s.samples) > 0 && len(s.samples[0]) != len(emb) {
		return s.sampleResult(), domain.ErrInputContract.WithError(
			fmt.Errorf("embedding length %d differs from earlier samples (%d)", len(emb), len(s.samples[0])))
	}

	s.pending = false

	if s.mode == ModeVerify {
		match, err := embedding.Verify(emb, s.template.Embedding, s.cfg.Policy)
		if err != nil {
			s.pending = true
			return s.sampleResult(), err
		}
		s.samples = append(s.samples, append([]float64(nil), emb...))
		kind := domain.OutcomeNoMatch
		if match.Match {
			kind = domain.OutcomeMatched
		}
		s.complete(&Outcome{Kind: kind, Template: s.template, Match: &match})
		return s.sampleResult(), nil
	}

	s.samples = append(s.samples, append([]float64(nil), emb...))
	if len(s.samples) < s.cfg.SampleCount {
		return s.sampleResult(), nil
	}

	avg, err := embedding.Average(s.samples)
	if err != nil {
		return s.sampleResult(), err
	}
	now := time.Now()
	s.complete(&Outcome{
		Kind:     domain.OutcomeEnrolled,
		Template: &domain.Template{
			ExternalID:  s.externalID,
			Embedding:   avg,
			SampleCount: len(s.samples),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	})
	return s.sampleResult(), nil
}

func (s *Session) complete(o *Outcome) {
	s.outcome = o
	s.phase = PhaseComplete
}

// Fail terminates the session. Errors matching domain.ErrLivenessFailed are
// recorded as liveness failures, anything else as an upstream failure.
// Returns false if the session had already finished.
func (s *Session) Fail(err error) bool {
	if s.Finished() {
		return false
	}
	if err == nil {
		err = domain.ErrUpstreamFailure
	}

	kind := domain.OutcomeUpstreamFailed
	if errors.Is(err, domain.ErrLivenessFailed) {
		kind = domain.OutcomeLivenessFailed
	}
	s.machine.Fail(err)
	s.pending = false
	s.outcome = &Outcome{Kind: kind, Reason: err.Error()}
	s.phase = PhaseFailed
	return true
}

// Stop aborts the session before the next frame. Captured samples are kept.
func (s *Session) Stop() bool {
	if s.Finished() || s.phase == PhaseStopped {
		return false
	}
	s.outcome = &Outcome{Kind: domain.OutcomeStopped}
	s.phase = PhaseStopped
	return true
}

// Reset discards accumulated samples and the stability counter. A stopped
// session resumes where liveness left off.
func (s *Session) Reset() error {
	if s.Finished() {
		return domain.ErrSessionFinished
	}
	s.samples = nil
	s.pending = false
	s.gate.Reset()

	if s.phase == PhaseStopped {
		s.outcome = nil
		s.phase = PhaseLiveness
		if s.machine.Status() == liveness.StatusPassed {
			s.phase = PhaseCapture
		}
	}
	return nil
}

// State returns a snapshot for transport
func (s *Session) State() State {
	return State{
		ID:               s.id,
		Mode:             s.mode,
		Phase:            s.phase,
		ExternalID:       s.externalID,
		Liveness:         s.machine.Snapshot(),
		StableCount:      s.gate.Count(),
		StableTarget:     s.gate.StableFrames(),
		SamplesCollected: len(s.samples),
		SamplesRequired:  s.required(),
		AwaitingSample:   s.pending,
		Outcome:          s.outcome,
		CreatedAt:        s.createdAt,
	}
}

func (s *Session) required() int {
	if s.mode == ModeVerify {
		return 1
	}
	return s.cfg.SampleCount
}

func (s *Session) stepResult() StepResult {
	return StepResult{
		Phase:          s.phase,
		Liveness:       s.machine.Snapshot(),
		StableCount:    s.gate.Count(),
		AwaitingSample: s.pending,
	}
}

func (s *Session) sampleResult() SampleResult {
	return SampleResult{
		Collected: len(s.samples),
		Required:  s.required(),
		Outcome:   s.outcome,
	}
}
