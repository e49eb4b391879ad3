package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finadvisor/internal/config"
	"finadvisor/internal/events"
	applog "finadvisor/internal/log"
	"finadvisor/internal/session/sqlite"
)

// The worker consumes snapshot-ingested events and appends them to the
// SQLite history log, so past months survive session expiry.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.Setup()
	logger.Info("Starting finadvisor-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo, err := sqlite.New(cfg.SQLiteDBPath, cfg.SessionTTL)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeSnapshotIngested(gctx, func(msg *events.SnapshotIngested) error {
			return repo.AppendHistory(gctx, sqlite.HistoryEntry{
				SessionID:     msg.SessionID,
				Month:         msg.Month,
				Source:        msg.Source,
				Income:        msg.Income,
				TotalExpenses: msg.TotalExpenses,
				Savings:       msg.Savings,
				HealthScore:   msg.HealthScore,
				CreatedAt:     msg.Timestamp,
			})
		})
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
