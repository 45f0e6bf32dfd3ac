package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
	"github.com/saturnino-fabrica-de-software/vivo/internal/embedding"
)

const maxListLimit = 200

// TemplateService is implemented by *service.SessionService
type TemplateService interface {
	Compare(live, stored []float64) (embedding.MatchResult, error)
	DeleteTemplate(ctx context.Context, externalID string) error
	ListVerifications(ctx context.Context, externalID string, limit int) ([]*domain.Verification, error)
}

type TemplateHandler struct {
	service TemplateService
	logger  *slog.Logger
}

func NewTemplateHandler(service TemplateService, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{
		service: service,
		logger:  logger,
	}
}

// CompareRequest body for POST /v1/templates/compare
type CompareRequest struct {
	Live   []float64 `json:"live" validate:"required,min=1,max=4096"`
	Stored []float64 `json:"stored" validate:"required,min=1,max=4096"`
}

// Compare POST /v1/templates/compare - score two embeddings under the configured policy
func (h *TemplateHandler) Compare(c *fiber.Ctx) error {
	var req CompareRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.service.Compare(req.Live, req.Stored)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// Delete DELETE /v1/templates/:external_id
func (h *TemplateHandler) Delete(c *fiber.Ctx) error {
	externalID := c.Params("external_id")
	if err := validExternalID(externalID); err != nil {
		return err
	}

	if err := h.service.DeleteTemplate(c.UserContext(), externalID); err != nil {
		return err
	}

	h.logger.Info("template deleted", slog.String("external_id", externalID))
	return c.SendStatus(fiber.StatusNoContent)
}

// VerificationsResponse lists the recorded sessions of one subject
type VerificationsResponse struct {
	ExternalID    string                 `json:"external_id"`
	Verifications []*domain.Verification `json:"verifications"`
}

// ListVerifications GET /v1/templates/:external_id/verifications?limit=
func (h *TemplateHandler) ListVerifications(c *fiber.Ctx) error {
	externalID := c.Params("external_id")
	if err := validExternalID(externalID); err != nil {
		return err
	}

	limit := c.QueryInt("limit", 0)
	if limit < 0 || limit > maxListLimit {
		return domain.ErrValidationFailed.WithError(errors.New("limit must be between 1 and 200"))
	}

	list, err := h.service.ListVerifications(c.UserContext(), externalID, limit)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Verification{}
	}

	return c.JSON(VerificationsResponse{
		ExternalID:    externalID,
		Verifications: list,
	})
}
