package config

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/saturnino-fabrica-de-software/vivo/internal/embedding"
	"github.com/saturnino-fabrica-de-software/vivo/internal/liveness"
	"github.com/saturnino-fabrica-de-software/vivo/internal/session"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Providers
	DetectorProvider string `envconfig:"DETECTOR_PROVIDER" default:"deepface"`
	EmbedderProvider string `envconfig:"EMBEDDER_PROVIDER" default:"deepface"`
	DeepFaceURL      string `envconfig:"DEEPFACE_URL" default:"http://localhost:5000"`
	DeepFaceModel    string `envconfig:"DEEPFACE_MODEL" default:"Facenet512"`
	AWSRegion        string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Liveness
	EARCloseBelow       float64  `envconfig:"EAR_CLOSE_BELOW" default:"0.22"`
	EAROpenAbove        float64  `envconfig:"EAR_OPEN_ABOVE" default:"0.26"`
	TurnLeftBelow       float64  `envconfig:"TURN_LEFT_BELOW" default:"0.35"`
	TurnRightAbove      float64  `envconfig:"TURN_RIGHT_ABOVE" default:"0.65"`
	TurnHoldFrames      int      `envconfig:"TURN_HOLD_FRAMES" default:"15"`
	ResetHoldOnFaceLoss bool     `envconfig:"RESET_HOLD_ON_FACE_LOSS" default:"false"`
	MinLandmarks        int      `envconfig:"MIN_LANDMARKS" default:"380"`
	ChallengeSequence   []string `envconfig:"CHALLENGE_SEQUENCE" default:"blink,turn_left,turn_right"`
	RandomizeChallenges bool     `envconfig:"RANDOMIZE_CHALLENGES" default:"false"`

	// Capture
	CaptureStableFrames int     `envconfig:"CAPTURE_STABLE_FRAMES" default:"90"`
	EnrollSampleCount   int     `envconfig:"ENROLL_SAMPLE_COUNT" default:"3"`
	FrameWidth          float64 `envconfig:"FRAME_WIDTH" default:"640"`
	FrameHeight         float64 `envconfig:"FRAME_HEIGHT" default:"480"`

	// Matching
	MatchConvention string  `envconfig:"MATCH_CONVENTION" default:"distance"`
	MatchThreshold  float64 `envconfig:"MATCH_THRESHOLD" default:"0.30"`

	// Sessions
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"5m"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	// Limits
	RateLimitMax        int           `envconfig:"RATE_LIMIT_MAX" default:"600"`
	RateLimitWindow     time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	SessionCreateLimit  int           `envconfig:"SESSION_CREATE_LIMIT" default:"20"`
	SessionCreateWindow time.Duration `envconfig:"SESSION_CREATE_WINDOW" default:"1h"`

	// Outcome webhooks; disabled when WEBHOOK_URL is empty
	WebhookURL         string `envconfig:"WEBHOOK_URL"`
	WebhookSecret      string `envconfig:"WEBHOOK_SECRET"`
	WebhookMaxAttempts int    `envconfig:"WEBHOOK_MAX_ATTEMPTS" default:"5"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the biometric settings form a usable session config
func (c *Config) Validate() error {
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.WebhookURL != "" && c.WebhookSecret == "" {
		return fmt.Errorf("WEBHOOK_SECRET is required when WEBHOOK_URL is set")
	}
	if c.IsProduction() && (c.DetectorProvider == "mock" || c.EmbedderProvider == "mock") {
		return fmt.Errorf("mock face providers are not allowed in production")
	}
	_, err := c.SessionConfig(nil)
	return err
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) LivenessConfig() liveness.Config {
	return liveness.Config{
		CloseBelow:          c.EARCloseBelow,
		OpenAbove:           c.EAROpenAbove,
		TurnLeftBelow:       c.TurnLeftBelow,
		TurnRightAbove:      c.TurnRightAbove,
		HoldFrames:          c.TurnHoldFrames,
		ResetHoldOnFaceLoss: c.ResetHoldOnFaceLoss,
		MinLandmarks:        c.MinLandmarks,
		Layout:              liveness.DefaultLayout(),
	}
}

func (c *Config) MatchPolicy() (embedding.MatchPolicy, error) {
	conv, err := embedding.ParseConvention(c.MatchConvention)
	if err != nil {
		return embedding.MatchPolicy{}, err
	}
	policy := embedding.MatchPolicy{Convention: conv, Threshold: c.MatchThreshold}
	return policy, policy.Validate()
}

// SessionConfig builds the per-session configuration. When RANDOMIZE_CHALLENGES
// is set and r is non-nil the sequence is shuffled once with r.
func (c *Config) SessionConfig(r *rand.Rand) (session.Config, error) {
	seq, err := liveness.ParseSequence(c.ChallengeSequence)
	if err != nil {
		return session.Config{}, fmt.Errorf("CHALLENGE_SEQUENCE: %w", err)
	}
	if c.RandomizeChallenges && r != nil {
		seq = seq.Shuffled(r)
	}

	policy, err := c.MatchPolicy()
	if err != nil {
		return session.Config{}, err
	}

	cfg := session.Config{
		Liveness:     c.LivenessConfig(),
		Sequence:     seq,
		StableFrames: c.CaptureStableFrames,
		SampleCount:  c.EnrollSampleCount,
		Policy:       policy,
		FrameWidth:   c.FrameWidth,
		FrameHeight:  c.FrameHeight,
	}
	return cfg, cfg.Validate()
}
