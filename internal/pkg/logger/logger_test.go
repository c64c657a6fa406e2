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

func captureLogger(t *testing.T, cfg *Config) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	if cfg == nil {
		cfg = &Config{Level: "info", Format: "json"}
	}
	cfg.Output = buf
	return New(cfg), buf
}

func TestNew_JSONOutput(t *testing.T) {
	log, buf := captureLogger(t, nil)

	log.Info("entry recorded", "transaction_id", "1726000000123456")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "entry recorded", record["msg"])
	assert.Equal(t, "1726000000123456", record["transaction_id"])
}

func TestNew_TextOutput(t *testing.T) {
	log, buf := captureLogger(t, &Config{Level: "debug", Format: "text"})

	log.Debug("balance cache miss")

	assert.Contains(t, buf.String(), "balance cache miss")
	assert.Contains(t, buf.String(), "level=DEBUG")
}

func TestNew_LevelParsing(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("level_"+tt.level, func(t *testing.T) {
			log, _ := captureLogger(t, &Config{Level: tt.level, Format: "json"})
			assert.True(t, log.Handler().Enabled(context.Background(), tt.want))
			assert.False(t, log.Handler().Enabled(context.Background(), tt.want-1))
		})
	}
}

func TestNew_NilConfigDefaults(t *testing.T) {
	log := New(nil)

	require.NotNil(t, log)
	assert.True(t, log.Handler().Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, log.Handler().Enabled(context.Background(), slog.LevelDebug))
}

func TestNew_LevelFiltering(t *testing.T) {
	log, buf := captureLogger(t, &Config{Level: "warn", Format: "json"})

	log.Debug("dropped debug")
	log.Info("dropped info")
	log.Warn("kept warn")
	log.Error("kept error")

	out := buf.String()
	assert.NotContains(t, out, "dropped debug")
	assert.NotContains(t, out, "dropped info")
	assert.Contains(t, out, "kept warn")
	assert.Contains(t, out, "kept error")
}

func TestCorrelation_RequestAndUserID(t *testing.T) {
	log, buf := captureLogger(t, nil)

	ctx := WithRequestID(context.Background(), "req-7f3a")
	ctx = WithUserID(ctx, "1b4e28ba-2fa1-11d2-883f-0016d3cca427")

	log.InfoContext(ctx, "wallet debited")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "req-7f3a", record["request_id"])
	assert.Equal(t, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", record["user_id"])
}

func TestCorrelation_AbsentIDsAddNothing(t *testing.T) {
	log, buf := captureLogger(t, nil)

	log.InfoContext(context.Background(), "relay tick")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.NotContains(t, record, "request_id")
	assert.NotContains(t, record, "user_id")
	assert.NotContains(t, record, "trace_id")
}

func TestCorrelation_SurvivesWithAttrsAndGroup(t *testing.T) {
	log, buf := captureLogger(t, nil)

	ctx := WithRequestID(context.Background(), "req-9c")
	log.With("component", "relay").WithGroup("batch").InfoContext(ctx, "published", "size", 10)

	out := buf.String()
	assert.Contains(t, out, "req-9c")
	assert.Contains(t, out, "relay")
	assert.Contains(t, out, "batch")
}

func TestRequestIDFromContext(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))

	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
}

func TestUserIDFromContext(t *testing.T) {
	assert.Empty(t, UserIDFromContext(context.Background()))

	ctx := WithUserID(context.Background(), "user-1")
	assert.Equal(t, "user-1", UserIDFromContext(ctx))
}

func TestSetup_InstallsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	buf := &bytes.Buffer{}
	Setup(&Config{Level: "info", Format: "json", Output: buf})

	slog.Info("default logger active")

	assert.Contains(t, buf.String(), "default logger active")
}
