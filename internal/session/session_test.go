package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vivo/internal/capture"
	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
	"github.com/saturnino-fabrica-de-software/vivo/internal/embedding"
	"github.com/saturnino-fabrica-de-software/vivo/internal/liveness"
)

var faceBox = capture.FaceBox{X: 200, Y: 120, Width: 220, Height: 260}

// landmarks builds a full mesh with both eyes at ear and the head facing forward.
func landmarks(ear float64) *liveness.LandmarkFrame {
	layout := liveness.DefaultLayout()
	points := make([]liveness.Point, 468)
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
	points[layout.Nose] = liveness.Point{X: 100, Y: 130}
	return &liveness.LandmarkFrame{Points: points}
}

func blinkFrames() []Frame {
	return []Frame{
		{Landmarks: landmarks(0.30), Box: &faceBox},
		{Landmarks: landmarks(0.18), Box: &faceBox},
		{Landmarks: landmarks(0.30), Box: &faceBox},
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	seq, _ := liveness.NewSequence(liveness.ChallengeBlink)
	cfg.Sequence = seq
	cfg.StableFrames = 3
	cfg.SampleCount = 2
	return cfg
}

func passLiveness(t *testing.T, s *Session) {
	t.Helper()
	for _, f := range blinkFrames() {
		_, err := s.Step(f)
		require.NoError(t, err)
	}
	require.Equal(t, PhaseCapture, s.Phase())
}

// captureOnce feeds box frames until the gate fires
func captureOnce(t *testing.T, s *Session) capture.FaceBox {
	t.Helper()
	for i := 0; i < 100; i++ {
		res, err := s.Step(Frame{Box: &faceBox})
		require.NoError(t, err)
		if res.Capture != nil {
			return *res.Capture
		}
	}
	t.Fatal("gate never fired")
	return capture.FaceBox{}
}

func storedTemplate() *domain.Template {
	return &domain.Template{ExternalID: "user-1", Embedding: embedding.Normalize([]float64{1, 0, 0})}
}

func TestNew(t *testing.T) {
	t.Run("verify requires template", func(t *testing.T) {
		_, err := New(testConfig(), ModeVerify)
		assert.ErrorIs(t, err, domain.ErrInputContract)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := New(testConfig(), Mode("identify"))
		assert.ErrorIs(t, err, domain.ErrInputContract)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.SampleCount = 0
		_, err := New(cfg, ModeEnroll)
		assert.Error(t, err)
	})

	t.Run("options", func(t *testing.T) {
		s, err := New(testConfig(), ModeVerify, WithTemplate(storedTemplate()), WithIdempotencyKey("k-1"))
		require.NoError(t, err)
		assert.Equal(t, "user-1", s.ExternalID())
		assert.Equal(t, "k-1", s.IdempotencyKey())
		assert.Equal(t, PhaseLiveness, s.Phase())
		assert.Equal(t, liveness.StatusAwaitingChallenge, s.State().Liveness.Status)
	})
}

func TestSession_LivenessIgnoresBoxes(t *testing.T) {
	s, err := New(testConfig(), ModeEnroll)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		res, err := s.Step(Frame{Landmarks: landmarks(0.30), Box: &faceBox})
		require.NoError(t, err)
		assert.Nil(t, res.Capture)
	}
	assert.Equal(t, PhaseLiveness, s.Phase())
	assert.Zero(t, s.State().StableCount)
}

func TestSession_Enroll(t *testing.T) {
	s, err := New(testConfig(), ModeEnroll, WithExternalID("user-42"))
	require.NoError(t, err)
	passLiveness(t, s)

	box := captureOnce(t, s)
	assert.Equal(t, faceBox, box)

	// further fires are suppressed until the sample arrives
	for i := 0; i < 10; i++ {
		res, err := s.Step(Frame{Box: &faceBox})
		require.NoError(t, err)
		assert.Nil(t, res.Capture)
		assert.True(t, res.AwaitingSample)
	}

	first := []float64{0.9, 0.1, 0}
	res, err := s.AddSample(first)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Collected)
	assert.Equal(t, 2, res.Required)
	assert.Nil(t, res.Outcome)

	_, err = s.AddSample(first)
	assert.ErrorIs(t, err, domain.ErrSampleNotExpected)

	captureOnce(t, s)
	second := []float64{0.7, 0.3, 0}
	res, err = s.AddSample(second)
	require.NoError(t, err)
	require.NotNil(t, res.Outcome)

	want, err := embedding.Average([][]float64{first, second})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeEnrolled, res.Outcome.Kind)
	assert.Equal(t, "user-42", res.Outcome.Template.ExternalID)
	assert.Equal(t, want, res.Outcome.Template.Embedding)
	assert.Equal(t, 2, res.Outcome.Template.SampleCount)
	assert.Equal(t, PhaseComplete, s.Phase())
	assert.True(t, s.Completed())

	_, err = s.Step(Frame{Box: &faceBox})
	assert.ErrorIs(t, err, domain.ErrSessionFinished)
	_, err = s.AddSample(second)
	assert.ErrorIs(t, err, domain.ErrSessionFinished)
}

func TestSession_EnrollRejectsMismatchedSample(t *testing.T) {
	s, err := New(testConfig(), ModeEnroll)
	require.NoError(t, err)
	passLiveness(t, s)

	captureOnce(t, s)
	_, err = s.AddSample([]float64{1, 0, 0})
	require.NoError(t, err)

	captureOnce(t, s)
	_, err = s.AddSample([]float64{1, 0})
	assert.ErrorIs(t, err, domain.ErrInputContract)
	assert.Equal(t, 1, s.State().SamplesCollected)
	assert.True(t, s.State().AwaitingSample, "capture is still pending")
}

func TestSession_Verify(t *testing.T) {
	tests := []struct {
		name string
		live []float64
		want domain.OutcomeKind
	}{
		{"match", []float64{1, 0.1, 0}, domain.OutcomeMatched},
		{"no match", []float64{0, 1, 0}, domain.OutcomeNoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(testConfig(), ModeVerify, WithTemplate(storedTemplate()))
			require.NoError(t, err)
			passLiveness(t, s)
			captureOnce(t, s)

			res, err := s.AddSample(tt.live)
			require.NoError(t, err, "a negative comparison is a result, not an error")
			require.NotNil(t, res.Outcome)
			assert.Equal(t, tt.want, res.Outcome.Kind)
			require.NotNil(t, res.Outcome.Match)
			assert.Equal(t, tt.want == domain.OutcomeMatched, res.Outcome.Match.Match)
			assert.False(t, res.Outcome.Kind.IsFailure())
			assert.Equal(t, PhaseComplete, s.Phase())
		})
	}
}

func TestSession_Fail(t *testing.T) {
	t.Run("upstream failure", func(t *testing.T) {
		s, err := New(testConfig(), ModeEnroll)
		require.NoError(t, err)

		assert.True(t, s.Fail(domain.ErrUpstreamFailure.WithError(errors.New("detector down"))))
		assert.Equal(t, PhaseFailed, s.Phase())
		assert.Equal(t, domain.OutcomeUpstreamFailed, s.Outcome().Kind)
		assert.Equal(t, liveness.StatusFailed, s.State().Liveness.Status)
		assert.True(t, s.Outcome().Kind.IsFailure())

		_, err = s.Step(blinkFrames()[0])
		assert.ErrorIs(t, err, domain.ErrSessionFinished)
		assert.False(t, s.Fail(errors.New("again")))
	})

	t.Run("liveness failure is distinct from no match", func(t *testing.T) {
		s, err := New(testConfig(), ModeVerify, WithTemplate(storedTemplate()))
		require.NoError(t, err)

		s.Fail(domain.ErrLivenessFailed)
		assert.Equal(t, domain.OutcomeLivenessFailed, s.Outcome().Kind)
		assert.NotEqual(t, domain.OutcomeNoMatch, s.Outcome().Kind)
	})
}

func TestSession_StopAndReset(t *testing.T) {
	s, err := New(testConfig(), ModeEnroll)
	require.NoError(t, err)
	passLiveness(t, s)
	captureOnce(t, s)
	_, err = s.AddSample([]float64{1, 0, 0})
	require.NoError(t, err)

	assert.True(t, s.Stop())
	assert.False(t, s.Stop())
	assert.Equal(t, PhaseStopped, s.Phase())
	assert.Equal(t, domain.OutcomeStopped, s.Outcome().Kind)
	assert.False(t, s.Completed())
	assert.Len(t, s.Samples(), 1, "stop keeps captured samples")

	_, err = s.Step(Frame{Box: &faceBox})
	assert.ErrorIs(t, err, domain.ErrSessionStopped)
	_, err = s.AddSample([]float64{1, 0, 0})
	assert.ErrorIs(t, err, domain.ErrSessionStopped)

	require.NoError(t, s.Reset())
	assert.Empty(t, s.Samples())
	assert.Equal(t, PhaseCapture, s.Phase(), "liveness already passed")
	assert.Nil(t, s.Outcome())
	assert.Zero(t, s.State().StableCount)
}

func TestSession_ResetAfterCompletion(t *testing.T) {
	s, err := New(testConfig(), ModeVerify, WithTemplate(storedTemplate()))
	require.NoError(t, err)
	passLiveness(t, s)
	captureOnce(t, s)
	_, err = s.AddSample([]float64{1, 0, 0})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Reset(), domain.ErrSessionFinished)
}

func TestSession_SampleBeforeCapture(t *testing.T) {
	s, err := New(testConfig(), ModeEnroll)
	require.NoError(t, err)

	_, err = s.AddSample([]float64{1, 0})
	assert.ErrorIs(t, err, domain.ErrSampleNotExpected)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("verify")
	require.NoError(t, err)
	assert.Equal(t, ModeVerify, m)

	_, err = ParseMode("")
	assert.Error(t, err)
}
