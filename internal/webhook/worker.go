package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	defaultPollInterval = 5 * time.Second
	batchSize           = 10
	staleAfter          = 5 * time.Minute
)

type Worker struct {
	db       DB
	service  *Service
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
}

func NewWorker(db DB, service *Service, logger *slog.Logger, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Worker{
		db:       db,
		service:  service,
		logger:   logger.With("component", "webhook_worker"),
		interval: interval,
		now:      time.Now,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("webhook worker started")

	if err := w.requeueStale(ctx); err != nil {
		w.logger.Error("failed to requeue stale webhook jobs", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("webhook worker stopped")
			return
		case <-ticker.C:
			if _, err := w.processQueue(ctx); err != nil {
				w.logger.Error("failed to process webhook queue", "error", err)
			}
		}
	}
}

// requeueStale returns jobs a crashed worker left in sending
func (w *Worker) requeueStale(ctx context.Context) error {
	query := `
		UPDATE webhook_queue
		SET status = 'pending', updated_at = NOW()
		WHERE status = 'sending' AND updated_at < $1
	`
	_, err := w.db.Exec(ctx, query, w.now().Add(-staleAfter))
	return err
}

// processQueue claims a batch of due jobs and delivers them. It returns the
// number of jobs it attempted.
func (w *Worker) processQueue(ctx context.Context) (int, error) {
	jobs, err := w.claim(ctx)
	if err != nil {
		return 0, err
	}

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			w.logger.Error("failed to process webhook job",
				"job_id", job.ID,
				"event", job.EventType,
				"attempts", job.Attempts,
				"error", err,
			)
		}
	}

	return len(jobs), nil
}

func (w *Worker) claim(ctx context.Context) ([]*Job, error) {
	query := `
		UPDATE webhook_queue
		SET status = 'sending', updated_at = NOW()
		WHERE id IN (
			SELECT id FROM webhook_queue
			WHERE status = 'pending' AND next_retry_at <= NOW()
			ORDER BY created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT $1
		)
		RETURNING id, event_type, payload, attempts, max_attempts
	`

	rows, err := w.db.Query(ctx, query, batchSize)
	if err != nil {
		return nil, fmt.Errorf("claim webhook jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.ID, &job.EventType, &job.Payload, &job.Attempts, &job.MaxAttempts); err != nil {
			return nil, fmt.Errorf("scan webhook job: %w", err)
		}
		jobs = append(jobs, &job)
	}

	return jobs, rows.Err()
}

func (w *Worker) processJob(ctx context.Context, job *Job) error {
	if err := w.service.Send(ctx, job); err != nil {
		return w.scheduleRetry(ctx, job, err.Error())
	}
	return w.markComplete(ctx, job)
}

// scheduleRetry backs off exponentially: 1s, 2s, 4s, ...
func (w *Worker) scheduleRetry(ctx context.Context, job *Job, errorMsg string) error {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		return w.markFailed(ctx, job, attempts, errorMsg)
	}

	nextRetry := w.now().Add(time.Duration(1<<job.Attempts) * time.Second)

	query := `
		UPDATE webhook_queue
		SET attempts = $1,
		    next_retry_at = $2,
		    last_error = $3,
		    status = 'pending',
		    updated_at = NOW()
		WHERE id = $4
	`

	_, err := w.db.Exec(ctx, query, attempts, nextRetry, errorMsg, job.ID)
	if err != nil {
		return fmt.Errorf("schedule retry: %w", err)
	}

	w.logger.Info("webhook job scheduled for retry",
		"job_id", job.ID,
		"attempts", attempts,
		"next_retry", nextRetry,
	)

	return nil
}

func (w *Worker) markComplete(ctx context.Context, job *Job) error {
	query := `
		UPDATE webhook_queue
		SET status = 'delivered',
		    attempts = attempts + 1,
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := w.db.Exec(ctx, query, job.ID)
	if err != nil {
		return fmt.Errorf("mark complete: %w", err)
	}

	w.logger.Debug("webhook delivered", "job_id", job.ID, "event", job.EventType)
	return nil
}

func (w *Worker) markFailed(ctx context.Context, job *Job, attempts int, errorMsg string) error {
	query := `
		UPDATE webhook_queue
		SET status = 'failed',
		    attempts = $1,
		    last_error = $2,
		    updated_at = NOW()
		WHERE id = $3
	`

	_, err := w.db.Exec(ctx, query, attempts, errorMsg, job.ID)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}

	w.logger.Warn("webhook job gave up", "job_id", job.ID, "attempts", attempts, "error", errorMsg)
	return nil
}
