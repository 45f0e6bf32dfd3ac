package domain

import (
	"time"

	"github.com/google/uuid"
)

// Template is the canonical enrolled embedding for one identity
type Template struct {
	ID          uuid.UUID `json:"id"`
	ExternalID  string    `json:"external_id"`
	Embedding   []float64 `json:"-"`
	SampleCount int       `json:"sample_count"`
	Model       string    `json:"model,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Verification is the audit record of one completed session
type Verification struct {
	ID             uuid.UUID   `json:"id"`
	SessionID      uuid.UUID   `json:"session_id"`
	TemplateID     *uuid.UUID  `json:"template_id,omitempty"`
	ExternalID     string      `json:"external_id"`
	Outcome        OutcomeKind `json:"outcome"`
	Distance       *float64    `json:"distance,omitempty"`
	Matched        bool        `json:"matched"`
	LivenessPassed bool        `json:"liveness_passed"`
	Challenges     []string    `json:"challenges"`
	LatencyMs      int64       `json:"latency_ms"`
	CreatedAt      time.Time   `json:"created_at"`
}

// OutcomeKind tells apart a failed liveness run from a completed comparison
// that simply did not match.
type OutcomeKind string

const (
	OutcomeEnrolled       OutcomeKind = "enrolled"
	OutcomeMatched        OutcomeKind = "matched"
	OutcomeNoMatch        OutcomeKind = "no_match"
	OutcomeLivenessFailed OutcomeKind = "liveness_failed"
	OutcomeUpstreamFailed OutcomeKind = "upstream_failed"
	OutcomeStopped        OutcomeKind = "stopped"
)

// IsFailure reports whether the outcome ended before a biometric decision was made
func (k OutcomeKind) IsFailure() bool {
	switch k {
	case OutcomeLivenessFailed, OutcomeUpstreamFailed, OutcomeStopped:
		return true
	}
	return false
}
