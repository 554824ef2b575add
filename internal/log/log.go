// Package log provides JSON-lines structured logging for rselect.
//
// Log format:
//
//	{"ts":"2026-01-15T10:30:00Z","level":"INFO","msg":"choice confirmed","session":"3f0c...","index":2}
//
// Log levels:
//   - debug: Verbose (log.level, or RSELECT_DEBUG=1)
//   - info: Session start, confirmation, cancellation
//   - warn: Fetch failures
//   - error: Fatal prompt errors
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config configures the structured logger.
type Config struct {
	// Output is the writer for log output (default: io.Discard, since the
	// prompt owns the terminal)
	Output io.Writer

	// Level is the minimum log level (default: LevelInfo)
	Level slog.Level

	// Debug enables debug level logging (overrides Level)
	Debug bool
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: io.Discard,
		Level:  slog.LevelInfo,
	}
}

// New creates a new JSON-lines structured logger.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = io.Discard
	}

	level := cfg.Level
	if cfg.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Key = "ts"
			}
			return a
		},
	}

	return slog.New(slog.NewJSONHandler(output, opts))
}

// ParseLevel converts a level name (debug, info, warn, error) to a
// slog.Level. The empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// OpenFile returns a size-rotated writer for path, creating its directory.
// The caller closes it when the session ends.
func OpenFile(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 2,
		MaxAge:     14, // days
	}, nil
}

// WithSession returns a logger tagged with a fresh session id, so lines
// from one prompt invocation can be grouped.
func WithSession(logger *slog.Logger) (*slog.Logger, string) {
	id := uuid.NewString()
	return logger.With("session", id), id
}

// SessionInfo holds information logged when a prompt session starts.
type SessionInfo struct {
	Version    string
	ConfigPath string
	Source     string
	PID        int
}

// LogSessionStart logs prompt startup information.
func LogSessionStart(logger *slog.Logger, info SessionInfo) {
	logger.Info("session started",
		"version", info.Version,
		"config_path", info.ConfigPath,
		"source", info.Source,
		"pid", info.PID,
	)
}

// LogSessionEnd logs how a prompt session ended.
func LogSessionEnd(logger *slog.Logger, outcome string, exitCode int) {
	logger.Info("session ended", "outcome", outcome, "exit_code", exitCode)
}
