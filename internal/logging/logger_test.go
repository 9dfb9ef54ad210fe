package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
		wantErr  bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestJSONLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelDebug, Format: "json", Output: &buf})

	logger.WithComponent("scanner").
		With("source", "patterns").
		Warn(context.Background(), errors.New("bad xml"), "Skipping file", "file", "a.xml", "line", 3)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "Skipping file", entry["msg"])
	assert.Equal(t, "scanner", entry["component"])
	assert.Equal(t, "bad xml", entry["error"])
	assert.Equal(t, "patterns", entry["source"])
	assert.Equal(t, "a.xml", entry["file"])
	assert.Equal(t, float64(3), entry["line"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelWarn, Output: &buf})
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	assert.Empty(t, buf.String())

	logger.Warn(ctx, nil, "warn message")
	logger.Error(ctx, nil, "error message")
	out := buf.String()
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestWithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(&LoggerConfig{Level: LevelInfo, Output: &buf})
	_ = parent.With("pattern", "Tracker")

	parent.Info(context.Background(), "plain")
	assert.NotContains(t, buf.String(), "Tracker")
}

func TestOddFieldsAreDropped(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelInfo, Output: &buf})
	logger.Info(context.Background(), "odd", "key", "value", 42, "ignored", "dangling")

	out := buf.String()
	assert.Contains(t, out, "key=value")
	assert.NotContains(t, out, "dangling")
	assert.NotContains(t, out, "ignored")
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	ctx := context.Background()
	logger.Error(ctx, errors.New("x"), "nothing happens")
	logger.With("a", 1).Info(ctx, "still nothing")
}

func TestStartOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelInfo, Output: &buf})

	op := logger.StartOperation("generate")
	d := op.End(context.Background(), "pages", 3)

	out := buf.String()
	assert.GreaterOrEqual(t, int64(d), int64(0))
	assert.True(t, strings.Contains(out, "operation=generate"))
	assert.Contains(t, out, "pages=3")
	assert.Contains(t, out, "duration_ms=")
}
