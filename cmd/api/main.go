package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RMBLOGG/StreamFliix/internal/billing"
	"github.com/RMBLOGG/StreamFliix/internal/cache"
	"github.com/RMBLOGG/StreamFliix/internal/config"
	"github.com/RMBLOGG/StreamFliix/internal/database"
	"github.com/RMBLOGG/StreamFliix/internal/logging"
	"github.com/RMBLOGG/StreamFliix/internal/metrics"
	"github.com/RMBLOGG/StreamFliix/internal/middleware"
	"github.com/RMBLOGG/StreamFliix/internal/queue"
	"github.com/RMBLOGG/StreamFliix/internal/service"
	"github.com/RMBLOGG/StreamFliix/internal/storage"
	"github.com/RMBLOGG/StreamFliix/internal/store"
	"github.com/RMBLOGG/StreamFliix/internal/telemetry"
	"github.com/RMBLOGG/StreamFliix/internal/tracing"
	"github.com/RMBLOGG/StreamFliix/internal/webhook"
)

const serviceName = "streamflix-api"

// LoginThrottle counts login attempts per key within a window
type LoginThrottle interface {
	CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
	ResetRateLimit(ctx context.Context, key string) error
}

// TokenRevoker blacklists bearer tokens before they expire
type TokenRevoker interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
}

// API holds the handler dependencies
type API struct {
	svc         *service.Service
	cfg         *config.Config
	logger      *logging.Logger
	tokens      *middleware.Tokens
	throttle    LoginThrottle
	revoker     TokenRevoker
	rateLimiter *middleware.RateLimiter
}

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg := config.Default()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Error reporting
	if enabled, err := telemetry.InitSentry(cfg.Sentry, serviceName); err != nil {
		logger.WithError(err).Warn("Sentry disabled")
	} else if enabled {
		defer telemetry.Flush()
	}

	// Tracing
	_, tracerCloser, err := tracing.InitTracer(cfg.Tracing)
	if err != nil {
		logger.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer tracerCloser.Close()

	// Metrics listener
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Port)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	// Persistence
	var st store.Store
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory store, data is lost on restart")
		st = store.NewMemoryStore()
	} else {
		db, err := database.New(cfg.Database)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if cfg.Database.Migrate {
			if err := db.Migrate(context.Background()); err != nil {
				logger.Fatalf("Failed to migrate database: %v", err)
			}
		}
		st = database.NewRepository(db, logger)
	}

	// Payment proof storage
	proofs, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	opts := []service.Option{
		service.WithProofStore(proofs),
		service.WithLogger(logger),
	}

	api := &API{
		cfg:         cfg,
		logger:      logger,
		rateLimiter: middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
	}

	// Redis backs settle locks, announcement caching, login throttling and
	// token revocation. Without it those features degrade to no-ops.
	var revocations middleware.RevocationChecker
	if cfg.Redis.Enabled {
		rc, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rc.Close()

		opts = append(opts, service.WithCache(rc))
		api.throttle = rc
		api.revoker = rc
		revocations = rc
	}

	// Events go to RabbitMQ for the worker, or straight to the webhooks
	if cfg.Queue.Enabled {
		q, err := queue.New(cfg.Queue)
		if err != nil {
			logger.Fatalf("Failed to connect to queue: %v", err)
		}
		defer q.Close()
		opts = append(opts, service.WithPublisher(q))
	} else if len(cfg.Webhooks) > 0 {
		opts = append(opts, service.WithPublisher(webhook.NewService(cfg.Webhooks, logger)))
	}

	// Card top-ups
	checkout, err := billing.NewCheckout(cfg.Stripe, cfg.Server.BaseURL)
	switch {
	case errors.Is(err, billing.ErrNotConfigured):
		logger.Info("Stripe not configured, card top-ups disabled")
	case err != nil:
		logger.Fatalf("Failed to initialize Stripe: %v", err)
	default:
		opts = append(opts, service.WithCheckout(checkout))
	}

	api.svc = service.New(st, cfg.App, opts...)
	api.tokens = middleware.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, revocations)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if admin, created, err := api.svc.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logger.Fatalf("Failed to seed admin: %v", err)
	} else if created {
		logger.WithField("email", admin.Email).Info("Created admin account")
	}

	go api.rateLimiter.Cleanup(ctx)

	router, err := setupRouter(api)
	if err != nil {
		logger.Fatalf("Failed to set up router: %v", err)
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Metrics server shutdown failed")
		}
	}

	logger.Info("Server stopped")
}
