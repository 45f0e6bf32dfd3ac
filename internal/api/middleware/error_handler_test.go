package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantDetails string
	}{
		{
			name:        "client fault keeps details",
			err:         domain.ErrValidationFailed.WithError(errors.New("limit must be between 1 and 200")),
			wantStatus:  422,
			wantCode:    "VALIDATION_FAILED",
			wantDetails: "limit must be between 1 and 200",
		},
		{
			name:       "upstream detail hidden",
			err:        domain.ErrUpstreamFailure.WithError(errors.New("dial tcp 10.0.0.3:5000: refused")),
			wantStatus: 502,
			wantCode:   "UPSTREAM_FAILURE",
		},
		{
			name:       "wrapped app error",
			err:        fmt.Errorf("get: %w", domain.ErrSessionExpired),
			wantStatus: 410,
			wantCode:   "SESSION_EXPIRED",
		},
		{
			name:       "fiber error",
			err:        fiber.NewError(fiber.StatusMethodNotAllowed, "Method Not Allowed"),
			wantStatus: 405,
			wantCode:   "HTTP_ERROR",
		},
		{
			name:       "unknown route",
			err:        fiber.ErrNotFound,
			wantStatus: 404,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			wantStatus: 500,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body struct {
				Error ErrorBody `json:"error"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantDetails, body.Error.Details)
		})
	}
}
