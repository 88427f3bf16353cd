package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/johnquangdev/meeting-autopilot/pkg/validator"

	"github.com/johnquangdev/meeting-autopilot/internal/adapter/handler"
	"github.com/johnquangdev/meeting-autopilot/internal/adapter/repository"
	"github.com/johnquangdev/meeting-autopilot/internal/domain/repositories"
	"github.com/johnquangdev/meeting-autopilot/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-autopilot/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-autopilot/internal/usecase/analyzer"
	"github.com/johnquangdev/meeting-autopilot/internal/usecase/dispatch"
	"github.com/johnquangdev/meeting-autopilot/internal/usecase/reconcile"
	"github.com/johnquangdev/meeting-autopilot/pkg/config"
	"github.com/johnquangdev/meeting-autopilot/pkg/llm"
	"github.com/johnquangdev/meeting-autopilot/pkg/mailer"
	"github.com/johnquangdev/meeting-autopilot/pkg/trello"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Task store: postgres for real deployments, memory for local smoke runs
	var taskRepo repositories.TaskRepository
	switch cfg.TaskStore.Driver {
	case "postgres":
		db, err := database.NewPostgresDB(cfg, logger)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.CloseDB(db)

		// Production deployments manage schema via sql-migrate in CI/CD
		if cfg.Database.AutoMigrate {
			if cfg.Server.Environment == "production" {
				log.Fatalf("DB_AUTO_MIGRATE is enabled in production. Manage schema with sql-migrate instead.")
			}
			if err := database.RunMigrations(db, "migrations", logger); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}

		taskRepo = repository.NewTaskRepository(db)
	case "memory":
		logger.Warn("using in-memory task store, tasks will not survive a restart")
		taskRepo = repository.NewMemoryTaskRepository()
	default:
		log.Fatalf("Unknown task store driver %q", cfg.TaskStore.Driver)
	}

	// External capabilities
	geminiClient := llm.NewGeminiClient(&cfg.Gemini)
	trelloClient := trello.NewClient(&cfg.Trello)
	smtpSender := mailer.NewSMTPSender(&cfg.SMTP)

	// Core services
	analyzerService := analyzer.NewService(geminiClient, &cfg.Analyzer, logger)
	dispatchService := dispatch.NewService(taskRepo, smtpSender, trelloClient, &cfg.Dispatch, logger)

	// Reconciliation worker keeps tracker-card tasks converging in the
	// background for as long as the process runs
	reconcileWorker := reconcile.NewWorker(taskRepo, trelloClient, &cfg.Reconcile, nil, logger)
	if err := reconcileWorker.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start reconciliation worker: %v", err)
	}

	// Board metadata cache
	metadataCache := cache.NewMemoryStore()
	defer metadataCache.Stop()

	// Handlers and routes
	automationHandler := handler.NewAutomationHandler(analyzerService, dispatchService, taskRepo, logger)
	trelloHandler := handler.NewTrelloHandler(trelloClient, metadataCache, logger)

	router := handler.NewRouter(cfg, automationHandler, trelloHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("starting server",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
		)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Stop accepting work before stopping the worker so no new tasks appear
	// while reconciliation drains
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	if err := reconcileWorker.Stop(); err != nil {
		logger.Error("failed to stop reconciliation worker", zap.Error(err))
	}

	logger.Info("server stopped gracefully")
}
