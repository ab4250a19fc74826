// Package cli provides common process initialization for cmd/expensetracker
// and cmd/export-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
)

// NewLogger builds the process logger from a LOG_LEVEL value and installs it
// as the slog default. An unknown level falls back to info; configuration
// validation reports it.
func NewLogger(level, component string) *applog.Logger {
	lvl, err := applog.ParseLevel(level)
	if err != nil {
		lvl = applog.DefaultConfig().Level
	}
	cfg := applog.DefaultConfig()
	cfg.Level = lvl
	cfg.Component = component

	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// Setup loads configuration (.env first, then the environment), creates the
// logger and runs validate. validate is usually (*config.Config).Validate or
// (*config.Config).ValidateWorker.
func Setup(component string, validate func(*config.Config) error) (*config.Config, *applog.Logger, error) {
	cfg := config.Load()
	logger := NewLogger(cfg.LogLevel, component)

	if validate != nil {
		if err := validate(cfg); err != nil {
			return nil, logger, err
		}
	}
	return cfg, logger, nil
}

// MustSetup is Setup for main: it exits the process on invalid configuration.
func MustSetup(component string, validate func(*config.Config) error) (*config.Config, *applog.Logger) {
	cfg, logger, err := Setup(component, validate)
	if err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg, logger
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Fatal logs err with msg and exits.
func Fatal(logger *applog.Logger, msg string, err error, args ...any) {
	logger.Error(msg, append([]any{applog.FieldError, fmt.Sprint(err)}, args...)...)
	os.Exit(1)
}
