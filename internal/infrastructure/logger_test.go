package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predmaint/internal/config"
)

func decodeLastLine(t *testing.T, content []byte) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestInitializeLogger(t *testing.T) {
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

	entry := decodeLastLine(t, content)
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug")

	ctx := WithTraceID(context.Background(), "test-trace-123")
	logger.InfoContext(ctx, "test with trace")

	entry := decodeLastLine(t, buf.Bytes())
	assert.Equal(t, "test-trace-123", entry["trace_id"])
}

func TestTraceIDSurvivesWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(NewLogger(&buf, "info"), "pipeline")

	logger.InfoContext(WithTraceID(context.Background(), "abc"), "stage done")

	entry := decodeLastLine(t, buf.Bytes())
	assert.Equal(t, "abc", entry["trace_id"])
	assert.Equal(t, "pipeline", entry["component"])
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level     string
		logDebug  bool
		wantLines int
	}{
		{level: "debug", logDebug: true, wantLines: 2},
		{level: "info", wantLines: 1},
		{level: "warn", wantLines: 0},
		{level: "bogus", wantLines: 1},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.level)
			logger.Debug("debug line")
			logger.Info("info line")

			out := strings.TrimSpace(buf.String())
			lines := 0
			if out != "" {
				lines = len(strings.Split(out, "\n"))
			}
			assert.Equal(t, tt.wantLines, lines)
		})
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := EnsureTraceID(context.Background())
	traceID := GetTraceID(ctx)
	assert.NotEmpty(t, traceID)

	// existing ids are preserved
	assert.Equal(t, traceID, GetTraceID(EnsureTraceID(ctx)))
	assert.Empty(t, GetTraceID(context.Background()))

	var buf bytes.Buffer
	logger := WithError(NewLogger(&buf, "info"), errors.New("boom"))
	logger.Info("failed")
	assert.Equal(t, "boom", decodeLastLine(t, buf.Bytes())["error"])
}
