// Package main provides the main entry point for the merchant support console API
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/merchantops/support-console/app/handlers"
	"github.com/merchantops/support-console/app/router"
	"github.com/merchantops/support-console/app/services"
	businessflow "github.com/merchantops/support-console/business_flow"
	"github.com/merchantops/support-console/config"
	"github.com/merchantops/support-console/logger"
	"github.com/merchantops/support-console/repository"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	server    *fiber.App
	logger    *zap.Logger
	stopFuncs []func()
}

func main() {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	app, err := initializeApplication(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize application", zap.Error(err))
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.server.Listen(address); err != nil {
			zlog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-sigChan
	zlog.Info("shutting down gracefully")

	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}

	zlog.Info("server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// initializeMerchantCache builds the directory cache. When the cache is
// disabled the in-memory implementation keeps lookups working.
func initializeMerchantCache(cfg config.CacheConfig, zlog *zap.Logger) services.MerchantCache {
	if !cfg.Enabled {
		zlog.Warn("merchant cache disabled, using in-memory fallback")
		return services.NewMockMerchantCache()
	}

	cache := services.NewRedisMerchantCache(&cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		zlog.Warn("redis unreachable at startup", zap.Error(err))
	}
	return cache
}

// startCacheHealthMonitor periodically pings the cache to surface
// connectivity problems. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, cache services.MerchantCache, zlog *zap.Logger) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := cache.Ping(ctx); err != nil {
					zlog.Warn("cache healthcheck failed", zap.Error(err))
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig, zlog *zap.Logger) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	merchantCache := initializeMerchantCache(cfg.Cache, zlog)
	stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), merchantCache, zlog))

	// Repositories
	ticketRepo := repository.NewSupportRequestRepository(db)
	historyRepo := repository.NewSupportRequestHistoryRepository(db)
	tokenRepo := repository.NewCSATTokenRepository(db)
	responseRepo := repository.NewCSATResponseRepository(db)
	taskRequestRepo := repository.NewClickupTaskRequestRepository(db)
	merchantRepo := repository.NewMerchantRepository(db)
	outletRepo := repository.NewMerchantOutletRepository(db)
	userRepo := repository.NewUserRepository(db)

	// External services
	twilioService := services.NewTwilioService(&cfg.Twilio)
	clickupService := services.NewClickUpService(&cfg.ClickUp)
	posService := services.NewPOSService(&cfg.POS)
	storageService, err := services.NewStorageService(&cfg.Storage)
	if err != nil {
		return nil, err
	}

	// Flows
	ticketFlow := businessflow.NewTicketFlow(
		db,
		ticketRepo,
		historyRepo,
		tokenRepo,
		responseRepo,
		merchantRepo,
		outletRepo,
		userRepo,
		merchantCache,
	)

	csatFlow := businessflow.NewCSATFlow(
		db,
		ticketRepo,
		historyRepo,
		tokenRepo,
		responseRepo,
		userRepo,
		twilioService,
		cfg.CSAT,
	)

	taskRequestFlow := businessflow.NewTaskRequestFlow(
		db,
		taskRequestRepo,
		ticketRepo,
		clickupService,
		storageService,
		ticketFlow,
		zlog,
	)

	webhookFlow := businessflow.NewWebhookFlow(twilioService, ticketFlow)
	analyticsFlow := businessflow.NewAnalyticsFlow(db)
	merchantFlow := businessflow.NewMerchantFlow(merchantRepo, outletRepo, posService, merchantCache, 0)
	userFlow := businessflow.NewUserFlow(userRepo)

	// Handlers
	h := router.Handlers{
		Ticket:      handlers.NewTicketHandler(ticketFlow),
		CSAT:        handlers.NewCSATHandler(csatFlow),
		TaskRequest: handlers.NewTaskRequestHandler(taskRequestFlow),
		Webhook:     handlers.NewWebhookHandler(webhookFlow),
		Analytics:   handlers.NewAnalyticsHandler(analyticsFlow),
		Merchant:    handlers.NewMerchantHandler(merchantFlow),
		User:        handlers.NewUserHandler(userFlow),
		Attachment:  handlers.NewAttachmentHandler(storageService),
	}

	appRouter := router.NewFiberRouter(cfg, h, zlog)

	return &Application{
		router:    appRouter,
		config:    cfg,
		server:    appRouter.GetApp(),
		logger:    zlog,
		stopFuncs: stopFuncs,
	}, nil
}
