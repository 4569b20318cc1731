package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/cleanlytics/internal/config"
	"github.com/JonMunkholm/cleanlytics/internal/core"
	"github.com/JonMunkholm/cleanlytics/internal/logging"
	"github.com/JonMunkholm/cleanlytics/internal/metrics"
	"github.com/JonMunkholm/cleanlytics/internal/metrics/prom"
	"github.com/JonMunkholm/cleanlytics/internal/warehouse"
	"github.com/JonMunkholm/cleanlytics/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"session_ttl", cfg.Session.TTL,
		"max_sessions", cfg.Session.MaxSessions,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"database_enabled", cfg.Database.URL != "",
	)

	var opts []web.Option

	if cfg.Metrics.Enabled {
		backend, err := prom.NewBackend()
		if err != nil {
			slog.Error("failed to create metrics backend", "error", err)
			os.Exit(1)
		}
		metrics.SetBackend(backend)
		opts = append(opts, web.WithMetricsHandler(backend.Handler()))
	}

	fallback, err := core.LookupEncoding(cfg.Upload.FallbackEncoding)
	if err != nil {
		slog.Error("invalid fallback encoding", "encoding", cfg.Upload.FallbackEncoding, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// The warehouse is optional; without DATABASE_URL loading is disabled.
	loader, err := warehouse.Open(ctx, warehouse.Config{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	if loader.Configured() {
		defer loader.Close()
		if err := loader.Ping(ctx); err != nil {
			// Loading fails per request until the database comes back.
			slog.Warn("database not reachable", "error", err)
		} else {
			slog.Info("connected to database")
		}
		opts = append(opts, web.WithLoader(loader))
	}

	service := core.NewService(core.ServiceOptions{
		SessionTTL:     cfg.Session.TTL,
		MaxSessions:    cfg.Session.MaxSessions,
		MaxUploadBytes: cfg.Upload.MaxFileSize,
		Fallback:       fallback,
		MaxConcurrent:  cfg.Upload.MaxConcurrent,
		MaxWait:        cfg.Upload.MaxWaitTime,
	})

	server := web.NewServer(service, cfg, opts...)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartSweeper(jobCtx, cfg.Session.SweepInterval)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active parses to complete (with timeout)
		limiter := service.Limiter()
		if active := limiter.ActiveCount(); active > 0 {
			slog.Info("waiting for uploads to complete", "active", active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	// Start server (uses addr from config internally)
	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
