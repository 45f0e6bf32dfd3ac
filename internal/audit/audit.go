package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of auditable event
type EventType string

const (
	EventSessionCreated   EventType = "SESSION_CREATED"
	EventChallengePassed  EventType = "CHALLENGE_PASSED"
	EventLivenessPassed   EventType = "LIVENESS_PASSED"
	EventSampleCaptured   EventType = "SAMPLE_CAPTURED"
	EventTemplateEnrolled EventType = "TEMPLATE_ENROLLED"
	EventFaceVerified     EventType = "FACE_VERIFIED"
	EventSessionFailed    EventType = "SESSION_FAILED"
	EventSessionStopped   EventType = "SESSION_STOPPED"
	EventSessionReset     EventType = "SESSION_RESET"
	EventTemplateDeleted  EventType = "TEMPLATE_DELETED"
	EventFaceDetected     EventType = "FACE_DETECTED"
)

// Event is one entry of the biometric audit trail. Embeddings never appear here.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	SessionID  uuid.UUID         `json:"session_id,omitempty"`
	EventType  EventType         `json:"event_type"`
	ExternalID string            `json:"external_id,omitempty"`
	Provider   string            `json:"provider,omitempty"`
	Success    bool              `json:"success"`
	Error      string            `json:"error,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	IPAddress  string            `json:"ip_address,omitempty"`
	UserAgent  string            `json:"user_agent,omitempty"`
}

type Logger interface {
	Log(ctx context.Context, event Event) error
}

// SlogLogger writes the trail as structured log records. Failed events are
// raised to warn so they survive a production log level.
type SlogLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
		now:    time.Now,
	}
}

func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now().UTC()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to marshal audit event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(event.EventType)),
		)
		return err
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.Bool("success", event.Success),
	}
	if event.SessionID != uuid.Nil {
		attrs = append(attrs, slog.String("session_id", event.SessionID.String()))
	}
	if event.ExternalID != "" {
		attrs = append(attrs, slog.String("external_id", event.ExternalID))
	}
	attrs = append(attrs, slog.String("event_data", string(eventJSON)))

	l.logger.LogAttrs(ctx, level, "audit_event", attrs...)

	return nil
}

// NoOpLogger drops every event
type NoOpLogger struct{}

func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}
