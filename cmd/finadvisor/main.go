package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finadvisor/internal/advisor"
	"finadvisor/internal/config"
	"finadvisor/internal/events"
	"finadvisor/internal/groq"
	apphttp "finadvisor/internal/http"
	applog "finadvisor/internal/log"
	"finadvisor/internal/session"
	"finadvisor/internal/session/memory"
	"finadvisor/internal/session/sqlite"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Choose session backend (default: memory).
	var store session.Store
	switch cfg.SessionBackend {
	case "sqlite":
		repo, err := sqlite.New(cfg.SQLiteDBPath, cfg.SessionTTL)
		if err != nil {
			logger.Error("Failed to initialize SQLite session store", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		store = repo
		logger.Info("Initialized sqlite session backend", "path", cfg.SQLiteDBPath)
	default:
		mstore := memory.New(cfg.SessionTTL)
		go func() {
			ticker := time.NewTicker(10 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					mstore.CleanExpired()
				}
			}
		}()
		store = mstore
		logger.Info("Initialized memory session backend")
	}

	groqClient := groq.NewClient(groq.Config{
		APIKey:  cfg.GroqAPIKey,
		BaseURL: cfg.GroqBaseURL,
		Model:   cfg.GroqModel,
		Timeout: cfg.GroqTimeout,
	}, logger)
	adv := advisor.New(groqClient, logger)
	logger.Info("Advisor initialized", "ai_enabled", adv.AIEnabled())

	// Event publishing is optional: a missing broker only loses the
	// snapshot history, never ingestion itself.
	var publisher apphttp.Publisher
	if cfg.EventsEnabled() {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Event publishing disabled", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("Event publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	sessions := session.NewManager(cfg.SecretKey, cfg.SessionTTL)
	srv := apphttp.NewServer(":"+cfg.Port, sessions, store, adv, publisher, apphttp.Options{
		MaxUploadBytes:   cfg.MaxUploadBytes,
		AnalysisCacheTTL: cfg.AnalysisCacheTTL,
	})

	// The write timeout must outlast a blocking AI completion call.
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.GroqTimeout + 15*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting finadvisor server", "port", cfg.Port, "session_backend", cfg.SessionBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
