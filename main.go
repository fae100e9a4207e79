package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/services"
	"storefront/pkg/logging"
	"storefront/pkg/rabbitmq"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger("storefront", cfg.AppEnv, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// The message broker is optional. Without it order events are not published
	// and no notifications are sent.
	var opts app.Options
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger.Named("rabbitmq"))
		if err != nil {
			logger.Fatal("failed to initialize RabbitMQ client", zap.Error(err))
		}
		defer mqClient.Close()
		opts.Publisher = mqClient
	}

	application, err := app.NewApp(ctx, cfg, logger, opts)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if mqClient != nil {
		notifications := services.NewNotificationService(application.Stores.Users, application.Sender, logger.Named("notifications"))
		logger.Info("starting order events consumer")
		if err := mqClient.ConsumeOrderEvents(ctx, notifications.HandleOrderEvent); err != nil {
			logger.Error("failed to start order events consumer", zap.Error(err))
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting server",
			zap.String("addr", cfg.AppPort),
			zap.String("store", cfg.StoreDriver),
			zap.String("env", cfg.AppEnv),
		)
		if err := application.Fiber.Listen(cfg.AppPort); err != nil {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")
	stop()

	if err := application.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("error during fiber shutdown", zap.Error(err))
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := application.Close(closeCtx); err != nil {
		logger.Error("error closing stores", zap.Error(err))
	}
	logger.Info("server gracefully stopped")
}
