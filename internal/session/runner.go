package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/vivo/internal/capture"
	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

// FrameSource yields detector results in arrival order. It returns io.EOF
// when the stream ends.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
}

// Embedder turns the captured face region of the current frame into an embedding
type Embedder interface {
	Embed(ctx context.Context, box capture.FaceBox) ([]float64, error)
}

// EmbedderFunc adapts a function to Embedder
type EmbedderFunc func(ctx context.Context, box capture.FaceBox) ([]float64, error)

func (f EmbedderFunc) Embed(ctx context.Context, box capture.FaceBox) ([]float64, error) {
	return f(ctx, box)
}

// StepHook observes every processed frame
type StepHook func(StepResult)

// Runner drives one session from a frame source on a single goroutine
type Runner struct {
	session *Session
	logger  *slog.Logger
	onStep  StepHook
}

// NewRunner creates a runner for s
func NewRunner(s *Session, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{session: s, logger: logger}
}

// OnStep registers a hook called after each frame
func (r *Runner) OnStep(h StepHook) *Runner {
	r.onStep = h
	return r
}

// Run pulls frames until the session finishes, the source ends or ctx is
// cancelled. Cancellation stops the session and keeps its samples. Source or
// embedder errors fail the session with ErrUpstreamFailure.
func (r *Runner) Run(ctx context.Context, src FrameSource, emb Embedder) (*Outcome, error) {
	s := r.session
	log := r.logger.With("session_id", s.ID().String(), "mode", string(s.Mode()))

	for {
		if err := ctx.Err(); err != nil {
			s.Stop()
			log.Info("session stopped", "reason", err.Error())
			return s.Outcome(), domain.ErrSessionStopped.WithError(err)
		}

		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return s.Outcome(), nil
		}
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			return r.fail(log, fmt.Errorf("frame source: %w", err))
		}

		res, err := s.Step(frame)
		if err != nil {
			return s.Outcome(), err
		}
		if r.onStep != nil {
			r.onStep(res)
		}
		if res.Advanced {
			log.Debug("challenge passed", "challenge", string(res.Completed), "index", res.Liveness.Index)
		}

		if res.Capture == nil {
			continue
		}

		vec, err := emb.Embed(ctx, *res.Capture)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			return r.fail(log, fmt.Errorf("embedder: %w", err))
		}

		sample, err := s.AddSample(vec)
		if err != nil {
			return s.Outcome(), err
		}
		log.Debug("sample captured", "collected", sample.Collected, "required", sample.Required)

		if sample.Outcome != nil {
			log.Info("session complete", "outcome", string(sample.Outcome.Kind))
			return sample.Outcome, nil
		}
	}
}

func (r *Runner) fail(log *slog.Logger, err error) (*Outcome, error) {
	wrapped := domain.ErrUpstreamFailure.WithError(err)
	r.session.Fail(wrapped)
	log.Error("session failed", "error", err)
	return r.session.Outcome(), wrapped
}
