package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/cardboard/internal/database"
	"github.com/hugh/cardboard/internal/tasks"
	"github.com/hugh/cardboard/pkg/config"
	"github.com/hugh/cardboard/pkg/queue"
	"github.com/hugh/cardboard/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting cardboard worker")

	if err := util.ValidateCronExpr(cfg.Worker.DigestCron); err != nil {
		logger.Error("invalid DIGEST_CRON", "cron", cfg.Worker.DigestCron, "error", err)
		os.Exit(1)
	}

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Create Asynq server
	srv := queue.NewServer(&cfg.Redis, cfg.Worker.Concurrency)

	// Create task handler
	handler := tasks.NewHandler(db, logger)

	// Register handlers
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	// Periodic digest
	scheduler := queue.NewScheduler(&cfg.Redis)
	entryID, err := scheduler.Register(cfg.Worker.DigestCron, tasks.NewCardDigestTask())
	if err != nil {
		logger.Error("failed to register digest", "error", err)
		os.Exit(1)
	}
	if next, err := util.NextCronTime(cfg.Worker.DigestCron, time.Now()); err == nil {
		logger.Info("card digest scheduled", "entry_id", entryID, "cron", cfg.Worker.DigestCron, "next_run", next)
	}

	if err := srv.Start(mux); err != nil {
		logger.Error("worker error", "error", err)
		os.Exit(1)
	}
	if err := scheduler.Start(); err != nil {
		logger.Error("scheduler error", "error", err)
		srv.Shutdown()
		os.Exit(1)
	}

	logger.Info("worker started, waiting for tasks...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	scheduler.Shutdown()
	srv.Shutdown()

	// Close database connection
	if err := database.Close(db); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("worker stopped")
}
