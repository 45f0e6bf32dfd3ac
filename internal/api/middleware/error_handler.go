package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

// ErrorBody is the envelope every failed request returns
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func errorJSON(c *fiber.Ctx, status int, body ErrorBody) error {
	return c.Status(status).JSON(fiber.Map{"error": body})
}

func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			if fiberErr.Code == fiber.StatusNotFound {
				return errorJSON(c, fiberErr.Code, ErrorBody{
					Code:    domain.ErrNotFound.Code,
					Message: domain.ErrNotFound.Message,
				})
			}
			return errorJSON(c, fiberErr.Code, ErrorBody{
				Code:    "HTTP_ERROR",
				Message: fiberErr.Message,
			})
		}

		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			body := ErrorBody{Code: appErr.Code, Message: appErr.Message}

			if appErr.StatusCode >= 500 {
				logger.Error("request failed",
					slog.String("code", appErr.Code),
					slog.String("path", c.Path()),
					slog.Any("error", appErr.Err),
				)
			} else if appErr.Err != nil {
				// client faults carry the reason, upstream detail stays in the log
				body.Details = appErr.Err.Error()
			}

			return errorJSON(c, appErr.StatusCode, body)
		}

		logger.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Path()),
		)

		return errorJSON(c, fiber.StatusInternalServerError, ErrorBody{
			Code:    domain.ErrInternal.Code,
			Message: domain.ErrInternal.Message,
		})
	}
}
