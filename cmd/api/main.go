package main

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/vivo/internal/api"
	"github.com/saturnino-fabrica-de-software/vivo/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/vivo/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/vivo/internal/audit"
	"github.com/saturnino-fabrica-de-software/vivo/internal/cache"
	"github.com/saturnino-fabrica-de-software/vivo/internal/config"
	"github.com/saturnino-fabrica-de-software/vivo/internal/database"
	"github.com/saturnino-fabrica-de-software/vivo/internal/face"
	"github.com/saturnino-fabrica-de-software/vivo/internal/metrics"
	"github.com/saturnino-fabrica-de-software/vivo/internal/ratelimit"
	"github.com/saturnino-fabrica-de-software/vivo/internal/repository"
	"github.com/saturnino-fabrica-de-software/vivo/internal/service"
	"github.com/saturnino-fabrica-de-software/vivo/internal/session"
	"github.com/saturnino-fabrica-de-software/vivo/internal/webhook"
	"github.com/saturnino-fabrica-de-software/vivo/internal/ws"
)

const sweepInterval = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Vivo API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("detector", cfg.DetectorProvider),
		slog.String("embedder", cfg.EmbedderProvider),
	)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return err
	}
	defer pool.Close()

	auditLogger := audit.NewSlogLogger(logger)

	providers, err := face.NewProviders(ctx, cfg, auditLogger)
	if err != nil {
		return fmt.Errorf("failed to create face providers: %w", err)
	}

	policy, err := cfg.MatchPolicy()
	if err != nil {
		return err
	}

	newSessionConfig, err := sessionConfigFunc(cfg)
	if err != nil {
		return err
	}

	pgCache := cache.NewPGCache(pool)
	limiter := ratelimit.NewLimiter(pool, cfg.SessionCreateWindow)
	hub := ws.NewHub(logger)

	opts := []service.ServiceOption{
		service.WithIdempotency(cache.NewIdempotency(pgCache, cfg.IdempotencyTTL)),
		service.WithCreateLimit(limiter, cfg.SessionCreateLimit),
		service.WithEvents(hub),
		service.WithAuditLogger(auditLogger),
		service.WithLogger(logger),
		service.WithSessionTTL(cfg.SessionTTL),
	}
	if cfg.WebhookURL != "" {
		hooks := webhook.NewService(pool, webhook.Config{
			URL:         cfg.WebhookURL,
			Secret:      cfg.WebhookSecret,
			MaxAttempts: cfg.WebhookMaxAttempts,
		})
		opts = append(opts, service.WithNotifier(hooks))
		go webhook.NewWorker(pool, hooks, logger, 0).Run(ctx)
	}

	svc := service.NewSessionService(
		repository.NewTemplateRepository(pool),
		repository.NewVerificationRepository(pool),
		providers.Detector,
		providers.Embedder,
		newSessionConfig,
		policy,
		opts...,
	)
	go svc.StartCleanup(ctx, 0)
	go sweep(ctx, logger, pgCache, limiter)

	checks := map[string]handler.Check{
		"database": func(ctx context.Context) error { return database.HealthCheck(ctx, pool) },
	}
	for i, p := range providers.Pingers() {
		checks[fmt.Sprintf("provider_%d", i)] = p.Ping
	}

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Sessions:     svc,
		Hub:          hub,
		Stats:        metrics.NewRepository(pool),
		HealthChecks: checks,
		RateLimit: middleware.RateLimiterConfig{
			Max:    cfg.RateLimitMax,
			Window: cfg.RateLimitWindow,
		},
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped")
	return nil
}

// sessionConfigFunc builds one config per session. The shuffle source is
// seeded from crypto/rand so challenge order cannot be predicted from start
// time. It is not safe for concurrent use, so it sits behind a mutex.
func sessionConfigFunc(cfg *config.Config) (service.ConfigFunc, error) {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("seed challenge shuffle: %w", err)
	}

	var mu sync.Mutex
	r := rand.New(rand.NewPCG(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:])))

	return func() (session.Config, error) {
		mu.Lock()
		defer mu.Unlock()
		return cfg.SessionConfig(r)
	}, nil
}

// sweep drops expired idempotency entries and rate limit windows
func sweep(ctx context.Context, logger *slog.Logger, pgCache *cache.PGCache, limiter *ratelimit.Limiter) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := pgCache.CleanupExpired(ctx); err != nil {
				logger.Warn("cache cleanup failed", slog.Any("error", err))
			} else if n > 0 {
				logger.Debug("cache entries expired", slog.Int64("count", n))
			}
			if n, err := limiter.CleanupExpired(ctx); err != nil {
				logger.Warn("rate limit cleanup failed", slog.Any("error", err))
			} else if n > 0 {
				logger.Debug("rate limit windows expired", slog.Int64("count", n))
			}
		}
	}
}
