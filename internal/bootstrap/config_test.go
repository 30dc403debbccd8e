package bootstrap

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnableDebugLogging(t *testing.T) {
	logger := InitLogger()
	t.Cleanup(func() { logLevel.Set(slog.LevelInfo) })

	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))

	EnableDebugLogging()
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}
