package cache

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jmgilman/go/errors"
)

// LogLevel represents different logging levels
type LogLevel int

// LogLevelDebug represents debug logging level
const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogConfig holds configuration for the cache logger.
type LogConfig struct {
	// Level sets the minimum log level (debug, info, warn, error)
	Level LogLevel
	// Output receives log lines. Defaults to os.Stderr.
	Output io.Writer
	// JSON switches from the text to the JSON handler.
	JSON bool
	// EnableCallerInfo includes file and line number in logs
	EnableCallerInfo bool
}

// DefaultLogConfig returns a default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  LogLevelInfo,
		Output: os.Stderr,
	}
}

// Logger provides structured logging for the cache system.
// A Logger with no underlying slog.Logger discards everything.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a new structured logger with the given configuration.
func NewLogger(config LogConfig) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     config.Level.slogLevel(),
		AddSource: config.EnableCallerInfo,
	}

	var handler slog.Handler
	if config.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return &Logger{logger: slog.New(handler)}
}

// FromSlog wraps an existing slog.Logger.
func FromSlog(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

// Slog returns the underlying slog.Logger, or a discarding one for a no-op Logger.
func (l *Logger) Slog() *slog.Logger {
	if l == nil || l.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.logger
}

// NewNopLogger creates a no-op logger that discards all log messages.
func NewNopLogger() *Logger {
	return &Logger{}
}

// Debug logs debug-level messages
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	if l != nil && l.logger != nil {
		l.logger.DebugContext(ctx, msg, args...)
	}
}

// Info logs info-level messages
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	if l != nil && l.logger != nil {
		l.logger.InfoContext(ctx, msg, args...)
	}
}

// Warn logs warning-level messages
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	if l != nil && l.logger != nil {
		l.logger.WarnContext(ctx, msg, args...)
	}
}

// Error logs error-level messages
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	if l != nil && l.logger != nil {
		l.logger.ErrorContext(ctx, msg, args...)
	}
}

// With returns a logger with additional context fields
func (l *Logger) With(args ...any) *Logger {
	if l == nil || l.logger == nil {
		return l
	}
	return &Logger{logger: l.logger.With(args...)}
}

// WithOperation returns a logger with operation context
func (l *Logger) WithOperation(operation string) *Logger {
	return l.With("operation", operation)
}

// WithKey returns a logger with cache key context
func (l *Logger) WithKey(key string) *Logger {
	return l.With("key", key)
}

// LogCacheHit logs a lookup served from a stored entry.
func LogCacheHit(ctx context.Context, logger *Logger, key string, count int, age time.Duration) {
	logger.Debug(ctx, "cache hit",
		"key", key,
		"count", count,
		"age_ms", age.Milliseconds(),
		"result", "hit")
}

// LogCacheMiss logs a lookup that has to go to the API.
func LogCacheMiss(ctx context.Context, logger *Logger, key string, reason string) {
	logger.Debug(ctx, "cache miss",
		"key", key,
		"reason", reason,
		"result", "miss")
}

// LogFetch logs the outcome of an API fetch performed for a key.
func LogFetch(ctx context.Context, logger *Logger, key string, count int, duration time.Duration, err error) {
	if err != nil {
		logger.Warn(ctx, "fetch failed",
			"key", key,
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
			"code", string(errors.GetCode(err)))
		return
	}
	logger.Info(ctx, "dataset refreshed",
		"key", key,
		"count", count,
		"duration_ms", duration.Milliseconds())
}

// ParseLogLevel parses a string log level into a LogLevel.
func ParseLogLevel(level string) (LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return LogLevelDebug, nil
	case "info", "":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		err := errors.Newf(errors.CodeInvalidConfig, "invalid log level: %s", level)
		return LogLevelInfo, errors.WithContext(err, "level", level)
	}
}
