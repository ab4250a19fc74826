package exchange

import (
	"context"
	"log/slog"
	"time"

	applog "expensetracker/internal/log"
)

// loggingFetcher decorates a RateFetcher with logging
type loggingFetcher struct {
	next   RateFetcher
	logger *slog.Logger
}

// NewLoggingFetcher returns a RateFetcher that logs every call to next
func NewLoggingFetcher(logger *slog.Logger, next RateFetcher) RateFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &loggingFetcher{
		next:   next,
		logger: logger.With(applog.FieldComponent, applog.ComponentExchange),
	}
}

func (f *loggingFetcher) Latest(ctx context.Context, req LatestRequest) (resp *RatesResponse, err error) {
	defer func(begin time.Time) {
		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelWarn
		}
		f.logger.Log(ctx, level, "Rate provider call",
			"method", "latest",
			applog.FieldFromCurrency, req.From,
			applog.FieldToCurrency, req.To,
			"took", time.Since(begin),
			applog.FieldSuccess, err == nil,
			applog.FieldError, errString(err))
	}(time.Now())
	return f.next.Latest(ctx, req)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
