package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/text/language"

	"expensetracker/internal/backend"
	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	"expensetracker/internal/exchange"
	apphttp "expensetracker/internal/http"
	applog "expensetracker/internal/log"
)

func main() {
	cfg, logger := cli.MustSetup(applog.ComponentApp, (*config.Config).Validate)

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err.Error())
		}
	}()

	exchangeLogger := logger.Logger
	var rates exchange.RateFetcher = exchange.NewClient(cfg.FXBaseURL, exchange.WithAPIKey(cfg.FXKey))
	rates = exchange.NewLoggingFetcher(exchangeLogger, rates)
	converter := exchange.NewConverter(rates, exchange.WithLogger(exchangeLogger))

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Expenses:    result.Expenses,
		Preferences: result.Preferences,
		Converter:   converter,
		Logger:      logger,
		RateLimit:   cfg.RateLimit,
		Language:    language.Make(cfg.DisplayLanguage),
	})
	if err != nil {
		cli.Fatal(logger, "Failed to create HTTP server", err)
	}
	// WriteTimeout stays zero: the expense stream is long lived.
	srv.ReadTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
	}()

	logger.Info("Starting expense tracker",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"fx_base_url", cfg.FXBaseURL,
		"amqp_enabled", cfg.AMQPURL != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err, "port", cfg.Port)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
