package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

// DB interface for database operations
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Limiter counts attempts per key in fixed windows stored in PostgreSQL, so
// every API replica shares the same budget.
type Limiter struct {
	db     DB
	window time.Duration
	now    func() time.Time
}

func NewLimiter(db DB, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Hour
	}
	return &Limiter{
		db:     db,
		window: window,
		now:    time.Now,
	}
}

// Allow records one attempt for key and fails with ErrRateLimitExceeded when
// the window already holds limit attempts. A limit of zero or less disables it.
func (l *Limiter) Allow(ctx context.Context, key string, limit int) error {
	if limit <= 0 {
		return nil
	}

	now := l.now()

	// an expired window restarts at one
	query := `
		INSERT INTO rate_limit_counters (key, count, window_start, window_end)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET
			count = CASE
				WHEN rate_limit_counters.window_end <= $2 THEN 1
				ELSE rate_limit_counters.count + 1
			END,
			window_start = CASE
				WHEN rate_limit_counters.window_end <= $2 THEN $2
				ELSE rate_limit_counters.window_start
			END,
			window_end = CASE
				WHEN rate_limit_counters.window_end <= $2 THEN $3
				ELSE rate_limit_counters.window_end
			END
		RETURNING count
	`

	var count int
	if err := l.db.QueryRow(ctx, query, key, now, now.Add(l.window)).Scan(&count); err != nil {
		return fmt.Errorf("check rate limit: %w", err)
	}

	if count > limit {
		return domain.ErrRateLimitExceeded.WithError(
			fmt.Errorf("%d/%d attempts for %s in %s", count, limit, key, l.window))
	}
	return nil
}

// CleanupExpired removes counters whose window closed over an hour ago
func (l *Limiter) CleanupExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM rate_limit_counters WHERE window_end < NOW() - INTERVAL '1 hour'`
	result, err := l.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
