package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/stockroom/internal/database"
	"github.com/hugh/stockroom/internal/tasks"
	"github.com/hugh/stockroom/pkg/config"
	"github.com/hugh/stockroom/pkg/queue"
	"github.com/hugh/stockroom/pkg/util"
	"github.com/joho/godotenv"
)

// sweepTickInterval is how often the worker checks for due expiry sweeps.
// The sweep handler itself filters on each schedule's next_run_at, so a
// short interval only costs one cheap query.
const sweepTickInterval = time.Minute

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

	logger.Info("starting Stockroom worker")

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Create Asynq server
	srv := queue.NewServer(&cfg.Redis, 10)

	// Create task handler
	handler := tasks.NewHandler(db, logger)

	// Register handlers
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	// Handle shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Periodically enqueue the expiry sweep tick
	client := queue.NewClient(&cfg.Redis)
	go func() {
		ticker := time.NewTicker(sweepTickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := client.Enqueue(tasks.NewExpirySweepTask(), asynq.Queue("low")); err != nil {
					logger.Error("failed to enqueue expiry sweep", "error", err)
				}
			}
		}
	}()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		srv.Shutdown()
		cancel()
	}()

	logger.Info("worker started, waiting for tasks...")

	// Start the server
	if err := srv.Run(mux); err != nil {
		logger.Error("worker error", "error", err)
	}

	// Wait for context cancellation
	<-ctx.Done()

	// Close the enqueue client and database connection
	client.Close()
	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("worker stopped")
}
