// Package cli provides common CLI initialization utilities shared by
// cmd/fintrack, cmd/fintrack-login and cmd/fintrack-export.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	"fintrack/internal/gateway"
	"fintrack/internal/log"
	"fintrack/internal/session"
	"fintrack/internal/storage"
)

// SetupLogger initializes structured logging at the given level.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(level string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: log.ComponentApp,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// NewGateway builds the backend client from configuration.
func NewGateway(cfg *config.Config, logger *log.Logger) *gateway.Client {
	return gateway.New(
		gateway.WithBaseURL(cfg.APIBaseURL),
		gateway.WithTimeout(cfg.APITimeout),
		gateway.WithRateLimit(cfg.APIRateLimit),
		gateway.WithLogger(logger),
	)
}

// OpenSessionKV opens the blob store selected by SESSION_BACKEND. The
// returned closer is never nil.
func OpenSessionKV(cfg *config.Config, logger *log.Logger) (session.KV, io.Closer, error) {
	switch cfg.SessionBackend {
	case "memory":
		return session.NewMemoryKV(), nopCloser{}, nil
	case "sqlite":
		kv, err := storage.NewSQLiteKV(cfg.SessionDBPath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open session store at %s: %w", cfg.SessionDBPath, err)
		}
		return kv, kv, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
