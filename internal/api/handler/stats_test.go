package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vivo/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
	"github.com/saturnino-fabrica-de-software/vivo/internal/metrics"
)

type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) Summary(ctx context.Context, since time.Time) (*metrics.Summary, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*metrics.Summary), args.Error(1)
}

func TestStatsHandler_Summary(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		query      string
		wantSince  time.Time
		wantStatus int
		callsSvc   bool
	}{
		{"default window", "", now.Add(-24 * time.Hour), 200, true},
		{"one hour", "?window=1h", now.Add(-time.Hour), 200, true},
		{"ninety days", "?window=2160h", now.Add(-2160 * time.Hour), 200, true},
		{"not a duration", "?window=yesterday", time.Time{}, 422, false},
		{"negative", "?window=-1h", time.Time{}, 422, false},
		{"too long", "?window=2161h", time.Time{}, 422, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockStatsService)
			if tt.callsSvc {
				svc.On("Summary", mock.Anything, tt.wantSince).
					Return(&metrics.Summary{Since: tt.wantSince, Total: 3, Outcomes: []metrics.OutcomeStats{
						{Outcome: domain.OutcomeMatched, Count: 3, LivenessPassed: 3},
					}}, nil)
			}

			h := NewStatsHandler(svc)
			h.now = func() time.Time { return now }
			app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(testLogger())})
			app.Get("/v1/stats", h.Summary)

			resp, err := app.Test(httptest.NewRequest("GET", "/v1/stats"+tt.query, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.callsSvc {
				var got metrics.Summary
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
				assert.Equal(t, int64(3), got.Total)
				require.Len(t, got.Outcomes, 1)
				assert.Equal(t, domain.OutcomeMatched, got.Outcomes[0].Outcome)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestStatsHandler_SummaryError(t *testing.T) {
	svc := new(MockStatsService)
	svc.On("Summary", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(testLogger())})
	app.Get("/v1/stats", NewStatsHandler(svc).Summary)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
}
