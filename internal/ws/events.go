package ws

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventStep             EventType = "session.step"
	EventChallengePassed  EventType = "challenge.passed"
	EventLivenessPassed   EventType = "liveness.passed"
	EventCaptureReady     EventType = "capture.ready"
	EventSampleCollected  EventType = "sample.collected"
	EventSessionCompleted EventType = "session.completed"
	EventSessionFailed    EventType = "session.failed"
	EventSessionStopped   EventType = "session.stopped"
	EventSessionReset     EventType = "session.reset"
	EventError            EventType = "error"
)

type Event struct {
	SessionID uuid.UUID `json:"session_id"`
	Type      EventType `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
