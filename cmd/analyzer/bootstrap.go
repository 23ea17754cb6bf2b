package main

import (
	"context"
	"fmt"
	"os"

	"fno-analyzer/internal/backend"
	"fno-analyzer/internal/backend/backendobs"
	"fno-analyzer/internal/interfaces"
	"fno-analyzer/internal/logger"
	"fno-analyzer/internal/present"
	"fno-analyzer/internal/store"
	"fno-analyzer/internal/trace"

	"github.com/joho/godotenv"
)

// initializeSystem loads .env and starts the logger and tracer.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(version); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// shutdownSystem flushes spans and buffered log entries.
func shutdownSystem(ctx context.Context) {
	if err := trace.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shut down tracer: %v\n", err)
	}
	logger.Sync()
}

// loadConfig resolves the configuration once. Nothing mutates it afterwards.
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	logger.Info(ctx, "Configuration loaded",
		"base_url", cfg.API.BaseURL,
		"request_timeout", cfg.API.RequestTimeout.String(),
		"poll_interval", cfg.Positions.PollInterval.String())
	return cfg, nil
}

// initializeBackend builds the analysis service client with observability.
func initializeBackend(cfg *store.Config) interfaces.Backend {
	client := backend.New(backend.Params{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.RequestTimeout,
		Logging: cfg.API.Logging,
	})
	return backendobs.Wrap(client)
}

func initializeFormatter(cfg *store.Config) (*present.Formatter, error) {
	return present.NewFormatter(cfg.UI.Locale)
}
