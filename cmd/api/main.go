package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nos-commerce-backend/internal/api"
	"github.com/nos-commerce-backend/internal/config"
	"github.com/nos-commerce-backend/internal/data/mongo"
	"github.com/nos-commerce-backend/internal/data/postgres"
	"github.com/nos-commerce-backend/internal/logger"
	"github.com/nos-commerce-backend/internal/notification"
	"github.com/nos-commerce-backend/internal/platform/blob"
	"github.com/nos-commerce-backend/internal/platform/cache"
	"github.com/nos-commerce-backend/internal/platform/messaging/producers"
	"github.com/nos-commerce-backend/internal/platform/persistence"
	"github.com/nos-commerce-backend/internal/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting API server",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	if err := persistence.RunMigrations(cfg.Postgres.URL, cfg.Postgres.MigrationsPath); err != nil {
		log.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize the cache store
	redisCache, err := cache.NewRedisCache(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for the notification topic
	notificationProducer, err := producers.NewNotificationMessageProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize notification Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize the notification dispatcher
	dispatcher, err := notification.NewDispatcher(notificationProducer, notification.PoolConfig{Size: cfg.WorkerPool.Size}, log)
	if err != nil {
		log.Error("Failed to initialize notification dispatcher", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	walletRepo := postgres.NewWalletRepository(log, postgresDB)
	walletTxnRepo := postgres.NewWalletTransactionRepository(log, postgresDB)
	orderRepo := postgres.NewOrderRepository(log, postgresDB)
	orderDetailRepo := postgres.NewOrderDetailRepository(log, postgresDB)
	productRepo := postgres.NewProductRepository(log, postgresDB)
	variantRepo := postgres.NewVariantRepository(log, postgresDB)
	cartRepo := postgres.NewCartRepository(log, postgresDB)
	eventRepo := mongo.NewEventRepository(log, mongoDB.Database())

	// Initialize services
	invalidator := service.NewInvalidator(redisCache, cfg.Cache.EvictionTimeout, log)
	shipping, err := service.NewFlatFeeShipping(cfg.Shipping.FlatFee)
	if err != nil {
		log.Error("Invalid shipping fee configuration", "error", err)
		os.Exit(1)
	}
	blobStore := blob.NewNoopStore(log)

	walletService := service.NewWalletService(postgresDB, walletRepo, walletTxnRepo, accountRepo, eventRepo,
		redisCache, invalidator, dispatcher, cfg.Cache.WalletTTL, cfg.Cache.QueryTTL, log)
	transactionService := service.NewTransactionService(postgresDB, walletRepo, walletTxnRepo, eventRepo, invalidator, log)
	orderService := service.NewOrderService(postgresDB, orderRepo, orderDetailRepo, cartRepo, productRepo, variantRepo,
		accountRepo, walletRepo, walletTxnRepo, eventRepo, redisCache, invalidator, dispatcher, shipping,
		cfg.Cache.QueryTTL, log)
	cartService := service.NewCartService(cartRepo, variantRepo, redisCache, invalidator, cfg.Cache.CartTTL, log)
	productService := service.NewProductService(productRepo, variantRepo, blobStore, redisCache, invalidator, cfg.Cache.QueryTTL, log)

	// Initialize REST server
	server := api.NewServer(log, cfg, accountRepo, orderService, walletService, transactionService, cartService, productService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first so in-flight requests finish against live
	// backends
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	dispatcher.Shutdown()

	if err = notificationProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	if err = redisCache.Close(); err != nil {
		log.Error("Error closing Redis connection", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
