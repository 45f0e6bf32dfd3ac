package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	defaultMaxAttempts = 5
	defaultTimeout     = 10 * time.Second

	HeaderSignature = "X-Vivo-Signature"
	HeaderEvent     = "X-Vivo-Event"
	HeaderDelivery  = "X-Vivo-Delivery"
)

// DB is satisfied by *pgxpool.Pool and pgxmock
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Config struct {
	URL         string
	Secret      string
	MaxAttempts int
	Timeout     time.Duration
}

// Service queues session outcome events and delivers them, signed, to one
// endpoint. Notify only writes the queue; the Worker does the HTTP calls.
type Service struct {
	db          DB
	client      *http.Client
	url         string
	secret      string
	maxAttempts int
	now         func() time.Time
}

func NewService(db DB, cfg Config) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Service{
		db:          db,
		url:         cfg.URL,
		secret:      cfg.Secret,
		maxAttempts: cfg.MaxAttempts,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		now: time.Now,
	}
}

// Notify enqueues an event for delivery
func (s *Service) Notify(ctx context.Context, eventType string, sessionID uuid.UUID, data any) error {
	event := Event{
		ID:        uuid.New(),
		Type:      eventType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: s.now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	query := `
		INSERT INTO webhook_queue (id, event_type, payload, max_attempts)
		VALUES ($1, $2, $3, $4)
	`

	_, err = s.db.Exec(ctx, query, event.ID, eventType, payload, s.maxAttempts)
	if err != nil {
		return fmt.Errorf("enqueue webhook: %w", err)
	}

	return nil
}

// Send delivers one payload. Any non-2xx answer is an error.
func (s *Service) Send(ctx context.Context, job *Job) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(job.Payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSignature, Sign(s.secret, job.Payload))
	req.Header.Set(HeaderEvent, job.EventType)
	req.Header.Set(HeaderDelivery, job.ID.String())
	req.Header.Set("User-Agent", "Vivo-Webhook/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return nil
}
