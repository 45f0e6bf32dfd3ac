package webhook

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventSessionCompleted = "session.completed"
	EventSessionFailed    = "session.failed"
)

// Event is the signed body POSTed to the configured endpoint
type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	SessionID uuid.UUID `json:"session_id"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Job is one queued delivery
type Job struct {
	ID          uuid.UUID
	EventType   string
	Payload     []byte
	Attempts    int
	MaxAttempts int
}
