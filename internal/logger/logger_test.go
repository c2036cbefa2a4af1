package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLogging(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	InitLoggerWithWriter(Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "test-service",
		Version:     "1.0.0",
		Environment: "test",
	}, &buf)

	Info("points credited", "user_id", "u-1", "points", 42)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "test-service", entry["service"])
	assert.Equal(t, "1.0.0", entry["version"])
	assert.Equal(t, "test", entry["environment"])
	assert.Equal(t, "points credited", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "u-1", entry["user_id"])
	assert.Equal(t, float64(42), entry["points"])
}

func TestLevelFiltering(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	InitLoggerWithWriter(Config{Level: "warn", Format: "text"}, &buf)

	Info("dropped")
	Debug("dropped")
	assert.Empty(t, buf.String())

	Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestFromContext_AddsRequestAndUser(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	InitLoggerWithWriter(Config{Level: "info", Format: "json"}, &buf)

	ctx := WithRequestID(context.Background(), "test-req-123")
	ctx = WithUserID(ctx, "user-9")
	FromContext(ctx).Info("tier changed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test-req-123", entry["request_id"])
	assert.Equal(t, "user-9", entry["user_id"])
}

func TestRequestIDFromContext(t *testing.T) {
	_, ok := RequestIDFromContext(context.Background())
	assert.False(t, ok)

	id := GenerateRequestID()
	got, ok := RequestIDFromContext(WithRequestID(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
	assert.Len(t, id, 36)
}

func TestConfigs(t *testing.T) {
	prod := ProductionConfig()
	assert.Equal(t, "json", prod.Format)
	assert.Equal(t, "info", prod.Level)
	assert.Equal(t, "prod", prod.Environment)
	assert.False(t, prod.AddSource)

	dev := DevelopmentConfig()
	assert.Equal(t, "text", dev.Format)
	assert.Equal(t, slog.LevelDebug, dev.LogLevel())
	assert.True(t, dev.AddSource)

	def := DefaultConfig()
	assert.NotEmpty(t, def.ServiceName)
	assert.Equal(t, slog.LevelInfo, Config{Level: "bogus"}.LogLevel())
	assert.Equal(t, slog.LevelWarn, Config{Level: "WARNING"}.LogLevel())
}
