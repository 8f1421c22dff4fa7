package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/PharmaDash/internal/config"
	"github.com/JonMunkholm/PharmaDash/internal/core"
	"github.com/JonMunkholm/PharmaDash/internal/dataset"
	"github.com/JonMunkholm/PharmaDash/internal/logging"
	"github.com/JonMunkholm/PharmaDash/internal/web"
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
	logOut, logFile := logging.Output(os.Stdout, logging.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	defer logFile.Close()
	logging.Setup(logOut, cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"data_path", cfg.Data.Path,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"metrics_enabled", cfg.Metrics.Enabled,
		"log_file", cfg.Logging.File,
	)

	// Load the pricing table once; every request reads from it
	table, err := dataset.Load(cfg.Data.Path)
	if err != nil {
		slog.Error("failed to load pricing data",
			"error", err,
			"message", core.FormatUserError(err),
		)
		os.Exit(1)
	}

	slog.Info("pricing data loaded",
		"records", table.Len(),
		"table_id", table.ID,
		"source", table.Source,
	)

	service := core.NewService(table,
		core.WithExportLimit(cfg.Export.MaxConcurrent, cfg.Export.MaxWait),
	)
	server := web.NewServer(service, cfg)

	// Graceful shutdown
	idle := make(chan struct{})
	go func() {
		defer close(idle)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let in-flight downloads finish (with timeout)
		if status := service.ExportStatus(); status.Active > 0 {
			slog.Info("waiting for exports to complete", "active", status.Active)
			if err := service.WaitForExports(shutdownCtx); err != nil {
				slog.Warn("exports did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-idle
	slog.Info("server stopped")
}
