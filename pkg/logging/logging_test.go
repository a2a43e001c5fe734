package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/bookmap/pkg/logging"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Equal(t, logging.Default(), logging.FromContext(context.Background()))
}

func TestContextFields(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	ctx = logging.WithRequestID(ctx, "req-123")
	ctx = logging.WithOperation(ctx, "analyze_folders")
	ctx = logging.WithStage(ctx, "review")
	ctx = logging.WithFields(ctx, map[string]any{"folders": 4, "keys": []string{"|Travel", "Life|Travel"}})

	logging.FromContext(ctx).Warn().Msg("review pass discarded")

	assert.Equal(t, "req-123", logging.RequestID(ctx))
	assert.True(t, tl.ContainsAll(`"request_id":"req-123"`, `"operation":"analyze_folders"`, `"stage":"review"`, `"folders":4`, `"Life|Travel"`))
	assert.Equal(t, 1, tl.Count())
	tl.AssertNotContains(t, "first_pass")
}

func TestWithError(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	assert.Equal(t, ctx, logging.WithError(ctx, nil))

	ctx = logging.WithError(ctx, assert.AnError)
	logging.Ctx(ctx).Info().Msg("x")
	tl.AssertContains(t, assert.AnError.Error())

	tl.Clear()
	assert.Equal(t, 0, tl.Count())
}

func TestNewLoggerFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bookmap.log")

	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "warning",
		Format: "json",
		Output: path,
		Fields: map[string]any{"service": "bookmap"},
	})
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "shown")
	assert.Contains(t, string(data), `"service":"bookmap"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestDefaultConfig(t *testing.T) {
	cfg := logging.DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "auto", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.NotNil(t, cfg.Fields)
}
