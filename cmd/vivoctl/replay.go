package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/vivo/internal/capture"
	"github.com/saturnino-fabrica-de-software/vivo/internal/config"
	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
	"github.com/saturnino-fabrica-de-software/vivo/internal/embedding"
	"github.com/saturnino-fabrica-de-software/vivo/internal/liveness"
	"github.com/saturnino-fabrica-de-software/vivo/internal/session"
)

type replayOptions struct {
	Mode         string
	Sequence     string
	StableFrames int
	Samples      int
	HoldFrames   int
	FrameWidth   float64
	FrameHeight  float64
	Convention   string
	Threshold    float64
	TemplatePath string
	Quiet        bool
	Verbose      bool
}

func newReplayCmd() *cobra.Command {
	opts := replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay <frames.jsonl>",
		Short: "Run a recorded detector stream through a session",
		Long: `Each line of the input is one frame:
  {"seq":1,"landmarks":[{"x":..,"y":..},...],"box":{"x":..,"y":..,"width":..,"height":..},"embedding":[...]}
The embedding of the frame on which capture fires is used as that sample.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := runReplay(cmd.Context(), args[0], opts, cmd.ErrOrStderr())
			if outcome != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(outcome); encErr != nil {
					return encErr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", string(session.ModeEnroll), "Session mode: enroll or verify")
	cmd.Flags().StringVarP(&opts.Sequence, "sequence", "s", strings.Join(liveness.DefaultSequence().Strings(), ","), "Comma separated challenge order")
	cmd.Flags().IntVar(&opts.StableFrames, "stable-frames", capture.DefaultStableFrames, "Consecutive good frames before capture fires")
	cmd.Flags().IntVar(&opts.Samples, "samples", session.DefaultSampleCount, "Samples averaged into an enrolled template")
	cmd.Flags().IntVar(&opts.HoldFrames, "hold-frames", liveness.DefaultConfig().HoldFrames, "Frames a head turn must be held")
	cmd.Flags().Float64Var(&opts.FrameWidth, "frame-width", 640, "Frame width in pixels")
	cmd.Flags().Float64Var(&opts.FrameHeight, "frame-height", 480, "Frame height in pixels")
	cmd.Flags().StringVar(&opts.Convention, "convention", string(embedding.ConventionDistance), "Match convention: distance or similarity")
	cmd.Flags().Float64VarP(&opts.Threshold, "threshold", "t", embedding.DefaultDistanceThreshold, "Match threshold")
	cmd.Flags().StringVar(&opts.TemplatePath, "template", "", "JSON embedding to verify against (verify mode)")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Hide the progress bar")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Debug logging to stderr")

	return cmd
}

func (o replayOptions) sessionConfig() (session.Config, error) {
	seq, err := liveness.ParseSequence(strings.Split(o.Sequence, ","))
	if err != nil {
		return session.Config{}, err
	}
	conv, err := embedding.ParseConvention(o.Convention)
	if err != nil {
		return session.Config{}, err
	}

	cfg := session.DefaultConfig()
	cfg.Sequence = seq
	cfg.StableFrames = o.StableFrames
	cfg.SampleCount = o.Samples
	cfg.Liveness.HoldFrames = o.HoldFrames
	cfg.FrameWidth = o.FrameWidth
	cfg.FrameHeight = o.FrameHeight
	cfg.Policy = embedding.MatchPolicy{Convention: conv, Threshold: o.Threshold}
	return cfg, cfg.Validate()
}

func runReplay(ctx context.Context, path string, opts replayOptions, stderr io.Writer) (*session.Outcome, error) {
	cfg, err := opts.sessionConfig()
	if err != nil {
		return nil, err
	}
	mode, err := session.ParseMode(opts.Mode)
	if err != nil {
		return nil, err
	}

	var sessOpts []session.Option
	if mode == session.ModeVerify {
		if opts.TemplatePath == "" {
			return nil, fmt.Errorf("--template is required in verify mode")
		}
		vec, err := readEmbedding(opts.TemplatePath)
		if err != nil {
			return nil, err
		}
		sessOpts = append(sessOpts, session.WithTemplate(&domain.Template{ExternalID: "replay", Embedding: vec}))
	}

	s, err := session.New(cfg, mode, sessOpts...)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}

	barOut := stderr
	if opts.Quiet {
		barOut = io.Discard
	}
	bar := progressbar.NewOptions(bytes.Count(data, []byte("\n"))+1,
		progressbar.OptionSetDescription("Replaying"),
		progressbar.OptionSetWriter(barOut),
		progressbar.OptionShowCount(),
	)
	defer func() { _ = bar.Finish() }()

	logEnv := "production"
	if opts.Verbose {
		logEnv = "development"
	}
	runner := session.NewRunner(s, config.NewLoggerTo(logEnv, stderr)).OnStep(func(session.StepResult) {
		_ = bar.Add(1)
	})

	src := newJSONLSource(bytes.NewReader(data))
	return runner.Run(ctx, src, src)
}

// frameRecord is one line of a replay file
type frameRecord struct {
	Seq         uint64           `json:"seq"`
	Landmarks   []liveness.Point `json:"landmarks"`
	Box         *capture.FaceBox `json:"box"`
	FrameWidth  float64          `json:"frame_width"`
	FrameHeight float64          `json:"frame_height"`
	Embedding   []float64        `json:"embedding"`
}

// jsonlSource reads frames line by line and embeds captures with the
// embedding recorded on the current line.
type jsonlSource struct {
	scanner *bufio.Scanner
	line    int
	current []float64
}

func newJSONLSource(r io.Reader) *jsonlSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &jsonlSource{scanner: sc}
}

func (j *jsonlSource) Next(ctx context.Context) (session.Frame, error) {
	for j.scanner.Scan() {
		j.line++
		raw := bytes.TrimSpace(j.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var rec frameRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return session.Frame{}, fmt.Errorf("line %d: %w", j.line, err)
		}
		j.current = rec.Embedding

		frame := session.Frame{
			Box:         rec.Box,
			FrameWidth:  rec.FrameWidth,
			FrameHeight: rec.FrameHeight,
		}
		if len(rec.Landmarks) > 0 {
			frame.Landmarks = &liveness.LandmarkFrame{Seq: rec.Seq, Points: rec.Landmarks}
		}
		return frame, nil
	}
	if err := j.scanner.Err(); err != nil {
		return session.Frame{}, err
	}
	return session.Frame{}, io.EOF
}

func (j *jsonlSource) Embed(ctx context.Context, box capture.FaceBox) ([]float64, error) {
	if len(j.current) == 0 {
		return nil, fmt.Errorf("line %d: capture fired but the frame carries no embedding", j.line)
	}
	return j.current, nil
}

// readEmbedding loads a JSON array of floats
func readEmbedding(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read embedding: %w", err)
	}
	var vec []float64
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, fmt.Errorf("parse embedding %s: %w", path, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("embedding %s is empty", path)
	}
	return vec, nil
}
