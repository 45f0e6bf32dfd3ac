package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
	"github.com/saturnino-fabrica-de-software/vivo/internal/metrics"
)

const (
	defaultStatsWindow = 24 * time.Hour
	maxStatsWindow     = 90 * 24 * time.Hour
)

// StatsService is implemented by *metrics.Repository
type StatsService interface {
	Summary(ctx context.Context, since time.Time) (*metrics.Summary, error)
}

type StatsHandler struct {
	service StatsService
	now     func() time.Time
}

func NewStatsHandler(service StatsService) *StatsHandler {
	return &StatsHandler{service: service, now: time.Now}
}

// Summary GET /v1/stats?window=24h
func (h *StatsHandler) Summary(c *fiber.Ctx) error {
	window := defaultStatsWindow
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return domain.ErrValidationFailed.WithError(errors.New("window must be a duration such as 24h"))
		}
		window = d
	}
	if window <= 0 || window > maxStatsWindow {
		return domain.ErrValidationFailed.WithError(errors.New("window must be between 1s and 2160h"))
	}

	sum, err := h.service.Summary(c.UserContext(), h.now().Add(-window).UTC())
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}
	return c.JSON(sum)
}
