package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

func TestLimiter_Allow(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		mockCount int
		wantErr   bool
	}{
		{
			name:      "within limit",
			limit:     5,
			mockCount: 2,
		},
		{
			name:      "at limit boundary",
			limit:     5,
			mockCount: 5,
		},
		{
			name:      "exceeds limit",
			limit:     5,
			mockCount: 6,
			wantErr:   true,
		},
		{
			name:  "no limit configured",
			limit: 0,
		},
		{
			name:  "negative limit",
			limit: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			l := NewLimiter(mock, time.Hour)
			l.now = func() time.Time { return now }

			if tt.limit > 0 {
				rows := pgxmock.NewRows([]string{"count"}).AddRow(tt.mockCount)
				mock.ExpectQuery("INSERT INTO rate_limit_counters").
					WithArgs("enroll:user-1", now, now.Add(time.Hour)).
					WillReturnRows(rows)
			}

			err = l.Allow(context.Background(), "enroll:user-1", tt.limit)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrRateLimitExceeded)
				assert.Contains(t, err.Error(), "6/5 attempts")
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLimiter_AllowDatabaseError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO rate_limit_counters").
		WithArgs("k", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	err = NewLimiter(mock, time.Minute).Allow(context.Background(), "k", 3)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrRateLimitExceeded)
	assert.Contains(t, err.Error(), "check rate limit")
}

func TestLimiter_CleanupExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM rate_limit_counters WHERE window_end").
		WillReturnResult(pgxmock.NewResult("DELETE", 5))

	deleted, err := NewLimiter(mock, time.Minute).CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewLimiter_DefaultWindow(t *testing.T) {
	assert.Equal(t, time.Hour, NewLimiter(nil, 0).window)
}
