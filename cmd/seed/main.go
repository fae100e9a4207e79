package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/seed"
	"storefront/internal/services"
	"storefront/pkg/logging"

	"go.uber.org/zap"
)

func main() {
	var exitCode int
	defer func() {
		os.Exit(exitCode)
	}()

	file := flag.String("file", "catalog.yaml", "catalog fixture to load")
	timeout := flag.Duration("timeout", time.Minute, "overall time limit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		exitCode = 1
		return
	}
	logger, err := logging.NewLogger("storefront-seed", cfg.AppEnv, cfg.LogFile)
	if err != nil {
		log.Printf("Failed to initialize logger: %v", err)
		exitCode = 1
		return
	}
	defer func() { _ = logger.Sync() }()

	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn("STORE_DRIVER is memory; seeded products will not outlive this process")
	}

	catalog, err := seed.LoadCatalog(*file)
	if err != nil {
		logger.Error("failed to load catalog", zap.String("file", *file), zap.Error(err))
		exitCode = 1
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	application, err := app.NewApp(ctx, cfg, logger, app.Options{})
	if err != nil {
		logger.Error("failed to open stores", zap.Error(err))
		exitCode = 1
		return
	}
	defer application.Close(context.Background())

	stores := application.Stores
	seeder := &seed.Seeder{
		Products:    services.NewProductService(stores.Products),
		Collections: services.NewCollectionService(stores.Collections),
		BestSelling: services.NewBestSellingService(stores.BestSelling, stores.Products),
		Content:     services.NewContentService(stores.Banners, stores.Quotes, stores.NavItems),
		Logger:      logger,
	}
	if _, err := seeder.Apply(ctx, catalog); err != nil {
		logger.Error("seeding failed", zap.Error(err))
		exitCode = 1
	}
}
