package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/vivo/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/vivo/internal/capture"
	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
	"github.com/saturnino-fabrica-de-software/vivo/internal/liveness"
	"github.com/saturnino-fabrica-de-software/vivo/internal/service"
	"github.com/saturnino-fabrica-de-software/vivo/internal/session"
	"github.com/saturnino-fabrica-de-software/vivo/internal/ws"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB

	// HeaderIdempotencyKey makes POST /v1/sessions safe to retry
	HeaderIdempotencyKey = "Idempotency-Key"

	wsRequestTimeout = 30 * time.Second
)

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// SessionService is implemented by *service.SessionService
type SessionService interface {
	Create(ctx context.Context, in service.CreateSessionInput) (*session.State, error)
	Get(ctx context.Context, id uuid.UUID) (*session.State, error)
	PushFrame(ctx context.Context, id uuid.UUID, frame session.Frame) (*session.StepResult, error)
	SubmitSample(ctx context.Context, id uuid.UUID, image []byte) (*session.SampleResult, error)
	Stop(ctx context.Context, id uuid.UUID) (*session.State, error)
	Reset(ctx context.Context, id uuid.UUID) (*session.State, error)
	ReportFailure(ctx context.Context, id uuid.UUID, reason string) (*session.State, error)
}

type SessionHandler struct {
	service SessionService
	logger  *slog.Logger
}

func NewSessionHandler(service SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		logger:  logger,
	}
}

// CreateSessionRequest body for POST /v1/sessions
type CreateSessionRequest struct {
	Mode       string `json:"mode" validate:"required,oneof=enroll verify"`
	ExternalID string `json:"external_id" validate:"required,external_id"`
	Replace    bool   `json:"replace"`
}

// FrameRequest is one detector result. Omitted landmarks or box mean the
// detector found no face.
type FrameRequest struct {
	Seq         uint64           `json:"seq"`
	Landmarks   []liveness.Point `json:"landmarks" validate:"omitempty,max=1000"`
	Box         *capture.FaceBox `json:"box"`
	FrameWidth  float64          `json:"frame_width" validate:"gte=0"`
	FrameHeight float64          `json:"frame_height" validate:"gte=0"`
}

func (r FrameRequest) toFrame() session.Frame {
	frame := session.Frame{
		Box:         r.Box,
		FrameWidth:  r.FrameWidth,
		FrameHeight: r.FrameHeight,
	}
	if len(r.Landmarks) > 0 {
		frame.Landmarks = &liveness.LandmarkFrame{Seq: r.Seq, Points: r.Landmarks}
	}
	return frame
}

func sessionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, domain.ErrBadRequest.WithError(errors.New("invalid session id"))
	}
	return id, nil
}

// Create POST /v1/sessions
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	state, err := h.service.Create(c.UserContext(), service.CreateSessionInput{
		Mode:           req.Mode,
		ExternalID:     req.ExternalID,
		IdempotencyKey: strings.TrimSpace(c.Get(HeaderIdempotencyKey)),
		Replace:        req.Replace,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(state)
}

// Get GET /v1/sessions/:id
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	state, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(state)
}

// PushFrame POST /v1/sessions/:id/frames
func (h *SessionHandler) PushFrame(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	var req FrameRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.service.PushFrame(c.UserContext(), id, req.toFrame())
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// SubmitSample POST /v1/sessions/:id/samples (multipart field "image")
func (h *SessionHandler) SubmitSample(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	image, err := extractAndValidateImage(c)
	if err != nil {
		return err
	}

	res, err := h.service.SubmitSample(c.UserContext(), id, image)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// Stop POST /v1/sessions/:id/stop
func (h *SessionHandler) Stop(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	state, err := h.service.Stop(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(state)
}

// FailureRequest body for POST /v1/sessions/:id/failure
type FailureRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// ReportFailure POST /v1/sessions/:id/failure - the client's detector or model
// failed; the session ends as upstream_failed
func (h *SessionHandler) ReportFailure(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	var req FailureRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}

	state, err := h.service.ReportFailure(c.UserContext(), id, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(state)
}

// Reset POST /v1/sessions/:id/reset
func (h *SessionHandler) Reset(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	state, err := h.service.Reset(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(state)
}

// extractAndValidateImage reads the "image" form file
func extractAndValidateImage(c *fiber.Ctx) ([]byte, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(errors.New("image is required"))
	}

	if file.Size == 0 || file.Size > maxImageSize {
		return nil, domain.ErrInvalidImage.WithError(errors.New("image must be between 1 byte and 10MB"))
	}

	contentType := file.Header.Get("Content-Type")
	if !validImageTypes[contentType] {
		return nil, domain.ErrInvalidImage.WithError(errors.New("unsupported content type " + contentType))
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return imageBytes, nil
}

// socketMessage is what clients send over the session socket
type socketMessage struct {
	Type   string        `json:"type"`
	Frame  *FrameRequest `json:"frame,omitempty"`
	Reason string        `json:"reason,omitempty"`
}

// OnSocketMessage lets clients stream frames and control the session over
// the event socket. Results arrive as published events; only errors and pongs
// are replied directly.
func (h *SessionHandler) OnSocketMessage(id uuid.UUID, raw []byte) []byte {
	ctx, cancel := context.WithTimeout(context.Background(), wsRequestTimeout)
	defer cancel()

	var msg socketMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return h.socketError(id, domain.ErrBadRequest.WithError(err))
	}

	var err error
	switch msg.Type {
	case "ping":
		return h.socketReply(id, "pong", nil)
	case "frame":
		if msg.Frame == nil {
			err = domain.ErrValidationFailed.WithError(errors.New("frame is required"))
			break
		}
		if err = validateStruct(msg.Frame); err != nil {
			break
		}
		_, err = h.service.PushFrame(ctx, id, msg.Frame.toFrame())
	case "stop":
		_, err = h.service.Stop(ctx, id)
	case "reset":
		_, err = h.service.Reset(ctx, id)
	case "error":
		if err = validateStruct(&FailureRequest{Reason: msg.Reason}); err != nil {
			break
		}
		_, err = h.service.ReportFailure(ctx, id, msg.Reason)
	default:
		err = domain.ErrBadRequest.WithError(errors.New("unknown message type " + msg.Type))
	}

	if err != nil {
		return h.socketError(id, err)
	}
	return nil
}

func (h *SessionHandler) socketError(id uuid.UUID, err error) []byte {
	body := middleware.ErrorBody{Code: domain.ErrInternal.Code, Message: domain.ErrInternal.Message}

	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		body.Code = appErr.Code
		body.Message = appErr.Message
		if appErr.StatusCode < 500 && appErr.Err != nil {
			body.Details = appErr.Err.Error()
		}
	} else {
		h.logger.Error("socket message failed",
			slog.String("session_id", id.String()),
			slog.Any("error", err),
		)
	}
	return h.socketReply(id, ws.EventError, body)
}

func (h *SessionHandler) socketReply(id uuid.UUID, t ws.EventType, data any) []byte {
	out, err := json.Marshal(ws.Event{
		SessionID: id,
		Type:      t,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		h.logger.Error("encode socket reply", slog.Any("error", err))
		return nil
	}
	return out
}
