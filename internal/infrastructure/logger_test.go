package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
)

func lastEntry(t *testing.T, content []byte) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestInitializeLoggerWritesJSONFile(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "logs", "test.log")
	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Output:   "file",
		FilePath: logFile,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, GetLogger())

	logger.Info("test message", "key", "value")
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	entry := lastEntry(t, content)
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "INFO", entry["level"])
	assert.NotContains(t, entry, "source")
}

func TestInitializeLoggerOnlyOnce(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	first, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "console"})
	require.NoError(t, err)
	second, err := InitializeLogger(config.LoggingConfig{Level: "debug", Output: "console"})
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug")

	ctx := WithTraceID(context.Background(), "test-trace-123")
	logger.InfoContext(ctx, "test with trace")

	entry := lastEntry(t, buf.Bytes())
	assert.Equal(t, "test-trace-123", entry["trace_id"])

	buf.Reset()
	logger.With("component", "store").WarnContext(ctx, "derived logger")
	entry = lastEntry(t, buf.Bytes())
	assert.Equal(t, "test-trace-123", entry["trace_id"])
	assert.Equal(t, "store", entry["component"])

	buf.Reset()
	logger.Info("no context")
	assert.NotContains(t, lastEntry(t, buf.Bytes()), "trace_id")
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level   string
		debug   bool
		info    bool
		warning bool
	}{
		{level: "debug", debug: true, info: true, warning: true},
		{level: "info", info: true, warning: true},
		{level: "WARNING", warning: true},
		{level: "error"},
		{level: "bogus", info: true, warning: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.level)
			ctx := context.Background()

			logger.Debug("d")
			assert.Equal(t, tt.debug, buf.Len() > 0, "debug")
			buf.Reset()

			logger.Info("i")
			assert.Equal(t, tt.info, buf.Len() > 0, "info")
			buf.Reset()

			logger.WarnContext(ctx, "w")
			assert.Equal(t, tt.warning, buf.Len() > 0, "warn")
			buf.Reset()

			logger.Error("e")
			assert.Positive(t, buf.Len(), "error")
		})
	}
}

func TestContextHelpers(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))

	ctx := EnsureTraceID(context.Background())
	traceID := GetTraceID(ctx)
	require.NotEmpty(t, traceID)

	assert.Equal(t, traceID, GetTraceID(EnsureTraceID(ctx)))
	assert.NotEqual(t, traceID, GenerateTraceID())
}

func TestLoggerHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info")

	WithComponent(logger, "test-component").Info("test message")
	assert.Equal(t, "test-component", lastEntry(t, buf.Bytes())["component"])

	buf.Reset()
	WithError(logger, os.ErrNotExist).Info("error test")
	assert.Contains(t, lastEntry(t, buf.Bytes())["error"], "file does not exist")

	assert.Same(t, logger, WithError(logger, nil))
}

func TestCreateLoggerBothOutputs(t *testing.T) {
	defer CloseLogFile()

	var stdout bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "nested", "both.log")
	logger, err := createLogger(config.LoggingConfig{
		Level:      "info",
		Output:     "both",
		FilePath:   logFile,
		MaxSizeMB:  1,
		MaxBackups: 1,
	}, &stdout)
	require.NoError(t, err)

	logger.Info("mirrored")
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, "mirrored", lastEntry(t, content)["msg"])
	assert.Equal(t, "mirrored", lastEntry(t, stdout.Bytes())["msg"])
}

func TestCreateLoggerRequiresFilePath(t *testing.T) {
	_, err := createLogger(config.LoggingConfig{Level: "info", Output: "file"}, &bytes.Buffer{})
	require.Error(t, err)
}
