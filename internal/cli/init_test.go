package cli

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger("debug", applog.ComponentWorker)
	assert.Equal(t, applog.ComponentWorker, logger.Component())
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger = NewLogger("nonsense", applog.ComponentApp)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestSetup(t *testing.T) {
	t.Setenv("PORT", "9191")
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, logger, err := Setup(applog.ComponentApp, (*config.Config).Validate)
	require.NoError(t, err)
	assert.Equal(t, "9191", cfg.Port)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestSetupReportsValidationError(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	cfg, logger, err := Setup(applog.ComponentApp, (*config.Config).Validate)
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.NotNil(t, logger)
	assert.Contains(t, err.Error(), "invalid port")
}

func TestSetupWithoutValidation(t *testing.T) {
	cfg, _, err := Setup(applog.ComponentApp, nil)
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestSignalContextCancel(t *testing.T) {
	ctx, cancel := SignalContext(context.Background(), NewLogger("error", applog.ComponentApp))
	cancel()
	select {
	case <-ctx.Done():
		assert.True(t, errors.Is(ctx.Err(), context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("context not cancelled")
	}
}
