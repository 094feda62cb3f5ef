// Package cli provides common CLI initialization utilities shared by
// cmd/expenses, cmd/alert-worker and cmd/create-user.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"expenses/internal/config"
	"expenses/internal/log"
	"expenses/internal/storage"

	"github.com/joho/godotenv"
)

// SetupLogger builds a text logger at the given level, tags it with
// component and installs it as the slog default.
func SetupLogger(level, component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	cfg.Component = component
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig loads configuration and checks it with validate, exiting the
// process on failure. The logger is built from the loaded level.
func LoadConfig(component string, validate func(*config.Config) error) (*config.Config, *log.Logger) {
	cfg := config.Load()
	logger := SetupLogger(cfg.LogLevel, component)
	if err := validate(cfg); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// LoadAndValidateConfig loads the HTTP server configuration.
func LoadAndValidateConfig(component string) (*config.Config, *log.Logger) {
	return LoadConfig(component, (*config.Config).Validate)
}

// LoadAndValidateWorkerConfig loads the alert worker configuration.
func LoadAndValidateWorkerConfig(component string) (*config.Config, *log.Logger) {
	return LoadConfig(component, (*config.Config).ValidateWorker)
}

// InitSQLite opens the SQLite repository and applies migrations.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *log.Logger, cfg *config.Config) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, storage.WithBusyTimeout(cfg.BusyTimeout))
	if err != nil {
		logger.WithComponent(log.ComponentStorage).Error("Failed to initialize SQLite repository",
			log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	logger.Info("SQLite repository ready", "path", cfg.SQLiteDBPath, "busy_timeout", cfg.BusyTimeout)
	return repo
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
func GracefulShutdown(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
	}()
	return ctx, stop
}
