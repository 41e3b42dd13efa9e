package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger builds the process logger: human-readable text on stderr
// fanned out with a JSON copy appended to logFile. The returned func closes
// the file. When the file cannot be opened the logger degrades to
// stderr-only instead of failing the command.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	opts := &slog.HandlerOptions{Level: level}
	console := slog.NewTextHandler(os.Stderr, opts)

	f, err := openLogFile(logFile)
	if err != nil {
		l := slog.New(console)
		l.Warn("log file unavailable, logging to stderr only", "file", logFile, "error", err)
		return l, func() error { return nil }
	}

	logger := slog.New(slogmulti.Fanout(console, slog.NewJSONHandler(f, opts)))
	return logger, f.Close
}

// openLogFile appends to path, creating the parent directory first so that
// HIVECTL_LOG_FILE may point into a state dir that does not exist yet.
func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// SetupLoggerWithWriters is the testing seam for SetupLogger.
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	return slog.New(slogmulti.Fanout(
		slog.NewTextHandler(stderr, opts),
		slog.NewJSONHandler(file, opts),
	))
}
