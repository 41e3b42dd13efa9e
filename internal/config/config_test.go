package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HIVECTL_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg := Load()
	assert.Equal(t, "http://localhost:8080/api", cfg.ServerURL)
	assert.Equal(t, "http://localhost:8080", cfg.StreamURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.False(t, cfg.StreamReconnect)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HIVECTL_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("HIVECTL_SERVER_URL", "http://hive.example:9000/api")
	t.Setenv("HIVECTL_STREAM_URL", "http://hive.example:9000")
	t.Setenv("HIVECTL_REQUEST_TIMEOUT", "3s")
	t.Setenv("HIVECTL_POLL_INTERVAL", "250ms")
	t.Setenv("HIVECTL_STREAM_RECONNECT", "true")
	t.Setenv("HIVECTL_LOG_LEVEL", "debug")

	cfg := Load()
	assert.Equal(t, "http://hive.example:9000/api", cfg.ServerURL)
	assert.Equal(t, "http://hive.example:9000", cfg.StreamURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.True(t, cfg.StreamReconnect)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hivectl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"server_url: http://file.example/api\nlog_level: warn\nstream_reconnect: true\n"), 0644))
	t.Setenv("HIVECTL_CONFIG", path)
	t.Setenv("HIVECTL_SERVER_URL", "http://env.example/api")

	cfg := Load()
	// Env beats file, file beats default
	assert.Equal(t, "http://env.example/api", cfg.ServerURL)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.True(t, cfg.StreamReconnect)
}

func TestLoadIgnoresBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hivectl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{{not yaml"), 0644))
	t.Setenv("HIVECTL_CONFIG", path)

	cfg := Load()
	assert.Equal(t, "http://localhost:8080/api", cfg.ServerURL)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupLoggerCreatesLogDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "hivectl", "hivectl.log")

	logger, closeLog := SetupLogger(path, slog.LevelInfo)
	logger.Info("alert stream opened")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "alert stream opened")
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("harvest started", "job_id", "harvest-1")
	logger.Debug("suppressed")

	assert.Contains(t, stderr.String(), "harvest started")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(file.Bytes(), &entry))
	assert.Equal(t, "harvest started", entry["msg"])
	assert.Equal(t, "harvest-1", entry["job_id"])
	assert.NotContains(t, file.String(), "suppressed")
}
