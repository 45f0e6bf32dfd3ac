package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/vivo/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/vivo/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/vivo/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/vivo/internal/service"
	"github.com/saturnino-fabrica-de-software/vivo/internal/ws"
)

type Dependencies struct {
	Sessions     *service.SessionService
	Hub          *ws.Hub
	Stats        handler.StatsService
	HealthChecks map[string]handler.Check
	RateLimit    middleware.RateLimiterConfig
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
	cancelHub   context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Vivo API",
		BodyLimit:    12 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept," + handler.HeaderIdempotencyKey,
	}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var checks map[string]handler.Check
	if r.deps != nil {
		checks = r.deps.HealthChecks
	}
	healthHandler := handler.NewHealthHandler(checks)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil || r.deps.Sessions == nil {
		return
	}

	v1 := r.app.Group("/v1")

	limitCfg := r.deps.RateLimit
	if limitCfg.Max <= 0 {
		limitCfg = middleware.DefaultRateLimiterConfig()
	}
	r.rateLimiter = middleware.NewRateLimiter(limitCfg)
	v1.Use(r.rateLimiter.Handler())

	svc := r.deps.Sessions
	sessionHandler := handler.NewSessionHandler(svc, r.logger)
	templateHandler := handler.NewTemplateHandler(svc, r.logger)

	// Session routes
	v1.Post("/sessions", sessionHandler.Create)
	v1.Get("/sessions/:id", sessionHandler.Get)
	v1.Post("/sessions/:id/frames", sessionHandler.PushFrame)
	v1.Post("/sessions/:id/samples", sessionHandler.SubmitSample)
	v1.Post("/sessions/:id/stop", sessionHandler.Stop)
	v1.Post("/sessions/:id/reset", sessionHandler.Reset)
	v1.Post("/sessions/:id/failure", sessionHandler.ReportFailure)

	// Template routes
	v1.Post("/templates/compare", templateHandler.Compare)
	v1.Delete("/templates/:external_id", templateHandler.Delete)
	v1.Get("/templates/:external_id/verifications", templateHandler.ListVerifications)

	if r.deps.Stats != nil {
		v1.Get("/stats", handler.NewStatsHandler(r.deps.Stats).Summary)
	}

	if r.deps.Hub != nil {
		hubCtx, hubCancel := context.WithCancel(context.Background())
		r.cancelHub = hubCancel
		go r.deps.Hub.Run(hubCtx)

		v1.Get("/sessions/:id/ws", ws.UpgradeMiddleware(svc.Exists), ws.Handler(r.deps.Hub, sessionHandler.OnSocketMessage))
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	if r.cancelHub != nil {
		r.cancelHub()
	}

	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
