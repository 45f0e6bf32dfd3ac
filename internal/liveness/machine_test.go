package liveness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

func newTestMachine(t *testing.T, cfg Config, challenges ...Challenge) *Machine {
	t.Helper()
	seq, err := NewSequence(challenges...)
	require.NoError(t, err)
	m, err := NewMachine(cfg, seq)
	require.NoError(t, err)
	return m
}

// feedEAR advances the machine once per value and returns how many frames advanced it.
func feedEAR(t *testing.T, m *Machine, values ...float64) int {
	t.Helper()
	advances := 0
	for _, v := range values {
		res, err := m.Advance(testFrame(v, 0.5))
		require.NoError(t, err)
		if res.Advanced {
			advances++
		}
	}
	return advances
}

func feedOffset(t *testing.T, m *Machine, offset float64, n int) Result {
	t.Helper()
	var res Result
	for i := 0; i < n; i++ {
		var err error
		res, err = m.Advance(testFrame(0.30, offset))
		require.NoError(t, err)
	}
	return res
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"close equals open", func(c *Config) { c.CloseBelow = c.OpenAbove }, true},
		{"close above open", func(c *Config) { c.CloseBelow = 0.3; c.OpenAbove = 0.2 }, true},
		{"turn zones overlap", func(c *Config) { c.TurnLeftBelow = 0.7 }, true},
		{"right zone past edge", func(c *Config) { c.TurnRightAbove = 1.2 }, true},
		{"zero hold", func(c *Config) { c.HoldFrames = 0 }, true},
		{"zero landmarks", func(c *Config) { c.MinLandmarks = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewMachine_StartsInitializing(t *testing.T) {
	m := newTestMachine(t, DefaultConfig(), ChallengeBlink)
	assert.Equal(t, StatusInitializing, m.Status())

	_, err := m.Advance(nil)
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingChallenge, m.Status())
}

func TestMachine_Blink(t *testing.T) {
	t.Run("steady open eyes never confirm", func(t *testing.T) {
		m := newTestMachine(t, DefaultConfig(), ChallengeBlink)
		values := make([]float64, 1000)
		for i := range values {
			values[i] = 0.30
		}
		assert.Zero(t, feedEAR(t, m, values...))
		assert.Equal(t, 0, m.Snapshot().Index)
	})

	t.Run("open closed open confirms exactly once", func(t *testing.T) {
		m := newTestMachine(t, DefaultConfig(), ChallengeBlink, ChallengeTurnLeft)

		res, err := m.Advance(testFrame(0.30, 0.5))
		require.NoError(t, err)
		assert.False(t, res.Advanced)

		res, err = m.Advance(testFrame(0.18, 0.5))
		require.NoError(t, err)
		assert.False(t, res.Advanced)

		res, err = m.Advance(testFrame(0.30, 0.5))
		require.NoError(t, err)
		assert.True(t, res.Advanced)
		assert.Equal(t, ChallengeBlink, res.Completed)
		assert.Equal(t, 1, res.Index)
		assert.Equal(t, ChallengeTurnLeft, res.Current)
	})

	t.Run("held open frames around one dip advance once", func(t *testing.T) {
		m := newTestMachine(t, DefaultConfig(), ChallengeBlink, ChallengeTurnLeft)

		values := []float64{0.30, 0.30, 0.30, 0.30, 0.18}
		for i := 0; i < 20; i++ {
			values = append(values, 0.30)
		}
		assert.Equal(t, 1, feedEAR(t, m, values...))

		snap := m.Snapshot()
		assert.Equal(t, 1, snap.Index)
		assert.Equal(t, ChallengeTurnLeft, snap.Current)
		assert.Equal(t, StatusAwaitingChallenge, m.Status())
	})

	t.Run("dip without prior open is ignored", func(t *testing.T) {
		m := newTestMachine(t, DefaultConfig(), ChallengeBlink)
		assert.Zero(t, feedEAR(t, m, 0.18, 0.30))
		assert.Equal(t, 1, feedEAR(t, m, 0.18, 0.30))
	})

	t.Run("readings inside the band neither close nor reopen", func(t *testing.T) {
		m := newTestMachine(t, DefaultConfig(), ChallengeBlink)
		assert.Zero(t, feedEAR(t, m, 0.30, 0.24, 0.23, 0.25, 0.30))
		assert.Equal(t, 1, feedEAR(t, m, 0.20, 0.24, 0.27))
	})

	t.Run("unusable frames between dips keep blink state", func(t *testing.T) {
		m := newTestMachine(t, DefaultConfig(), ChallengeBlink)
		assert.Zero(t, feedEAR(t, m, 0.30, 0.18))

		res, err := m.Advance(&LandmarkFrame{Points: make([]Point, 10)})
		require.NoError(t, err)
		assert.True(t, res.Ignored)

		assert.Equal(t, 1, feedEAR(t, m, 0.30))
	})
}

func TestMachine_Turn(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("hold short by one then neutral resets", func(t *testing.T) {
		m := newTestMachine(t, cfg, ChallengeTurnLeft)

		res := feedOffset(t, m, 0.20, cfg.HoldFrames-1)
		assert.False(t, res.Advanced)
		assert.Equal(t, cfg.HoldFrames-1, res.HeldFrames)

		res = feedOffset(t, m, 0.50, 1)
		assert.False(t, res.Advanced)
		assert.Equal(t, 0, res.HeldFrames)

		res = feedOffset(t, m, 0.20, cfg.HoldFrames-1)
		assert.False(t, res.Advanced)
		res = feedOffset(t, m, 0.20, 1)
		assert.True(t, res.Advanced)
		assert.Equal(t, StatusPassed, res.Status)
	})

	t.Run("wrong direction does not count", func(t *testing.T) {
		m := newTestMachine(t, cfg, ChallengeTurnRight)
		res := feedOffset(t, m, 0.10, cfg.HoldFrames*2)
		assert.False(t, res.Advanced)
		assert.Equal(t, 0, res.HeldFrames)

		res = feedOffset(t, m, 0.90, cfg.HoldFrames)
		assert.True(t, res.Advanced)
	})

	t.Run("dead zone edges are not turned", func(t *testing.T) {
		m := newTestMachine(t, cfg, ChallengeTurnLeft)
		res := feedOffset(t, m, cfg.TurnLeftBelow, cfg.HoldFrames)
		assert.False(t, res.Advanced)
		assert.Equal(t, 0, res.HeldFrames)
	})

	t.Run("face loss keeps hold by default", func(t *testing.T) {
		m := newTestMachine(t, cfg, ChallengeTurnLeft)
		feedOffset(t, m, 0.20, 10)

		res, err := m.Advance(nil)
		require.NoError(t, err)
		assert.True(t, res.Ignored)
		assert.Equal(t, 10, res.HeldFrames)

		res = feedOffset(t, m, 0.20, cfg.HoldFrames-10)
		assert.True(t, res.Advanced)
	})

	t.Run("face loss resets hold when configured", func(t *testing.T) {
		resetCfg := cfg
		resetCfg.ResetHoldOnFaceLoss = true
		m := newTestMachine(t, resetCfg, ChallengeTurnLeft)
		feedOffset(t, m, 0.20, 10)

		res, err := m.Advance(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, res.HeldFrames)

		res = feedOffset(t, m, 0.20, cfg.HoldFrames-10)
		assert.False(t, res.Advanced)
		assert.Equal(t, cfg.HoldFrames-10, res.HeldFrames)
	})
}

func TestMachine_FullSequence(t *testing.T) {
	cfg := DefaultConfig()
	m, err := NewMachine(cfg, DefaultSequence())
	require.NoError(t, err)

	assert.Equal(t, 1, feedEAR(t, m, 0.30, 0.18, 0.30))
	assert.True(t, feedOffset(t, m, 0.20, cfg.HoldFrames).Advanced)
	res := feedOffset(t, m, 0.80, cfg.HoldFrames)
	assert.True(t, res.Advanced)
	assert.Equal(t, ChallengeTurnRight, res.Completed)
	assert.Equal(t, StatusPassed, m.Status())

	before := m.Snapshot()
	res, err = m.Advance(testFrame(0.30, 0.1))
	assert.ErrorIs(t, err, domain.ErrSessionFinished)
	assert.False(t, res.Advanced)
	assert.Equal(t, before, m.Snapshot())
	assert.Equal(t, 3, before.Index)
	assert.Empty(t, before.Current)
}

func TestMachine_Fail(t *testing.T) {
	m := newTestMachine(t, DefaultConfig(), ChallengeBlink)
	feedEAR(t, m, 0.30)

	upstream := errors.New("detector timeout")
	assert.True(t, m.Fail(upstream))
	assert.Equal(t, StatusFailed, m.Status())
	assert.ErrorIs(t, m.Err(), upstream)
	assert.Equal(t, "detector timeout", m.Snapshot().FailureReason)

	_, err := m.Advance(testFrame(0.30, 0.5))
	assert.ErrorIs(t, err, domain.ErrSessionFinished)

	assert.False(t, m.Fail(errors.New("second")), "terminal state is frozen")
	assert.ErrorIs(t, m.Err(), upstream)
}

func TestMachine_SnapshotSignals(t *testing.T) {
	m := newTestMachine(t, DefaultConfig(), ChallengeBlink)
	snap := m.Snapshot()
	assert.Nil(t, snap.LastEAR)

	feedEAR(t, m, 0.27)
	snap = m.Snapshot()
	require.NotNil(t, snap.LastEAR)
	assert.InDelta(t, 0.27, *snap.LastEAR, 1e-9)
	assert.Nil(t, snap.LastOffset)
}
