package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RMBLOGG/StreamFliix/internal/config"
	"github.com/RMBLOGG/StreamFliix/internal/database"
	"github.com/RMBLOGG/StreamFliix/internal/logging"
	"github.com/RMBLOGG/StreamFliix/internal/metrics"
	"github.com/RMBLOGG/StreamFliix/internal/monitoring"
	"github.com/RMBLOGG/StreamFliix/internal/queue"
	"github.com/RMBLOGG/StreamFliix/internal/telemetry"
	"github.com/RMBLOGG/StreamFliix/internal/webhook"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
)

const serviceName = "streamflix-worker"

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
	logger = logger.WithField("service", serviceName)

	if enabled, err := telemetry.InitSentry(cfg.Sentry, serviceName); err != nil {
		logger.WithError(err).Warn("Sentry disabled")
	} else if enabled {
		defer telemetry.Flush()
	}

	if !cfg.Queue.Enabled {
		logger.Fatal("Queue is disabled, the API delivers webhooks itself")
	}
	if len(cfg.Webhooks) == 0 {
		logger.Warn("No webhook endpoints configured, events will be acknowledged and dropped")
	}

	// Initialize queue
	q, err := queue.New(cfg.Queue)
	if err != nil {
		logger.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	// The review backlog gauge needs the database
	var payments monitoring.PaymentCounter
	if cfg.Database.Driver != "memory" {
		db, err := database.New(cfg.Database)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		payments = database.NewRepository(db, logger)
	}

	hooks := webhook.NewService(cfg.Webhooks, logger)
	monitor := monitoring.NewMonitor(q, payments, cfg.Metrics.MonitorInterval, logger)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.WorkerPort)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.WithError(err).Error("Metrics server stopped")
			}
		}()
	}
	monitor.Start(ctx)

	// Event handler
	handler := func(ctx context.Context, event *models.Event) error {
		eventLogger := logger.WithFields(map[string]interface{}{
			"event_id": event.ID,
			"event":    event.Type,
		})

		deliveries, err := hooks.Deliver(ctx, event)
		monitor.RecordDeliveries(deliveries)
		if err != nil {
			eventLogger.WithError(err).Warn("Webhook delivery failed, scheduling retry")
			telemetry.CaptureError(err, map[string]string{"event": event.Type})
			return err
		}

		eventLogger.WithField("deliveries", len(deliveries)).Debug("Event delivered")
		return nil
	}

	// Start consuming events
	if err := q.ConsumeEvents(ctx, handler); err != nil {
		logger.Fatalf("Failed to consume events: %v", err)
	}
	logger.Info("Worker started, waiting for events...")

	// Handle shutdown gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down worker gracefully...")
	cancel()

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Metrics server shutdown failed")
		}
	}

	snapshot := monitor.Snapshot()
	logger.WithFields(map[string]interface{}{
		"processed_events":   snapshot.ProcessedEvents,
		"delivered_webhooks": snapshot.DeliveredWebhooks,
		"failed_webhooks":    snapshot.FailedWebhooks,
	}).Info("Worker stopped")
}
