package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sreynich-nang/frontend-PDF-extraction/internal/config"
	"github.com/sreynich-nang/frontend-PDF-extraction/internal/core"
	"github.com/sreynich-nang/frontend-PDF-extraction/internal/extraction"
	"github.com/sreynich-nang/frontend-PDF-extraction/internal/logging"
	"github.com/sreynich-nang/frontend-PDF-extraction/internal/web"
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

	closeLog, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	if err != nil {
		slog.Warn("log file unavailable, logging to console only", "error", err)
	}
	defer closeLog()

	slog.Info("configuration loaded", "config", cfg.String())

	svc := extraction.FromConfig(cfg.Extraction, slog.Default())
	service := core.NewService(svc, core.ServiceConfig{
		MaxFileSize:      cfg.Upload.MaxFileSize,
		MaxConcurrent:    cfg.Upload.MaxConcurrent,
		MaxWaitTime:      cfg.Upload.MaxWaitTime,
		UploadTimeout:    cfg.Upload.Timeout,
		TableConcurrency: cfg.Extraction.TableConcurrency,
	}, slog.Default())

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for running extractions before closing connections
		uploadStatus := service.UploadLimiterStatus()
		if uploadStatus.Active > 0 {
			slog.Info("waiting for extractions to complete", "active", uploadStatus.Active)
			if err := service.WaitForUploads(shutdownCtx); err != nil {
				slog.Warn("extractions did not complete in time", "error", err)
			} else {
				slog.Info("all extractions completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
}
