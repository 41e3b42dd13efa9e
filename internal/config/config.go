// Package config loads hivectl configuration from the environment and an
// optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// Apiary backend
	ServerURL string `yaml:"server_url"`
	StreamURL string `yaml:"stream_url"`

	// Request behavior
	RequestTimeout time.Duration `yaml:"request_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`

	// Alert stream
	StreamReconnect bool `yaml:"stream_reconnect"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`

	// Raw level string from file/env, parsed into LogLevel.
	LogLevelName string `yaml:"log_level"`
}

// Load reads configuration with the following precedence: defaults, then
// the config file (if present), then environment variables.
func Load() Config {
	cfg := Config{
		ServerURL:       "http://localhost:8080/api",
		StreamURL:       "http://localhost:8080",
		RequestTimeout:  10 * time.Second,
		PollInterval:    time.Second,
		StreamReconnect: false,
		LogFile:         filepath.Join(os.TempDir(), "hivectl.log"),
		LogLevelName:    "INFO",
	}

	if path := configFilePath(); path != "" {
		if err := mergeFile(&cfg, path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: ignoring config file %s: %v\n", path, err)
		}
	}

	cfg.ServerURL = getEnv("HIVECTL_SERVER_URL", cfg.ServerURL)
	cfg.StreamURL = getEnv("HIVECTL_STREAM_URL", cfg.StreamURL)
	cfg.LogFile = getEnv("HIVECTL_LOG_FILE", cfg.LogFile)
	cfg.LogLevelName = getEnv("HIVECTL_LOG_LEVEL", cfg.LogLevelName)
	if v := os.Getenv("HIVECTL_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if v := os.Getenv("HIVECTL_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PollInterval = d
		}
	}
	if v := os.Getenv("HIVECTL_STREAM_RECONNECT"); v != "" {
		cfg.StreamReconnect = v == "true" || v == "1"
	}

	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	return cfg
}

func configFilePath() string {
	if p := os.Getenv("HIVECTL_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(home, ".config", "hivectl.yaml")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
