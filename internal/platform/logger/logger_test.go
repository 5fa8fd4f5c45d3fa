package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/omniprompt/internal/config"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input string
		want  slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"DEBUG", slog.LevelDebug, true},
		{"Error", slog.LevelError, true},
		{"trace", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
	}

	for _, tc := range testCases {
		level, ok := parseLevel(tc.input)
		assert.Equal(t, tc.want, level, "level for %q", tc.input)
		assert.Equal(t, tc.ok, ok, "validity for %q", tc.input)
	}
}

func TestSetupEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := setup(config.ServerConfig{Port: 8080, LogLevel: "info"}, &buf)
	require.NoError(t, err)
	require.NotNil(t, logger, "Setup must return the configured logger")

	logger.Info("server starting", "port", 8080)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output should be JSON")
	assert.Equal(t, "server starting", entry["msg"])
	assert.Equal(t, float64(8080), entry["port"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestSetupRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := setup(config.ServerConfig{Port: 8080, LogLevel: "warn"}, &buf)
	require.NoError(t, err)

	logger.Info("suppressed")
	assert.Zero(t, buf.Len(), "info output should be filtered at warn level")

	logger.Warn("emitted")
	assert.Contains(t, buf.String(), "emitted")
}

func TestSetupInvalidLevelFallsBack(t *testing.T) {
	var buf bytes.Buffer
	logger, err := setup(config.ServerConfig{Port: 8080, LogLevel: "loud"}, &buf)
	require.NoError(t, err, "invalid level must not fail startup")

	logger.Info("still logs")
	assert.Contains(t, buf.String(), "still logs", "fallback level should be info")
}
