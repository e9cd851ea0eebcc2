package logger

import (
	"log"
	"log/slog"
	"strings"
)

// Fields carries structured data attached to a log line.
type Fields map[string]interface{}

// Logger is the logging contract shared by every component.
type Logger interface {
	Info(msg string, fields Fields)
	Warn(msg string, fields Fields)
	Error(msg string, err error, fields Fields)
	Debug(msg string, fields Fields)
	// WithFields returns a logger that adds fields to every line.
	WithFields(fields Fields) Logger
}

// Lazy is a field value built only when the line is actually written.
type Lazy func() string

func (f Lazy) LogValue() slog.Value {
	return slog.StringValue(f())
}

func mergeFields(base, extra Fields) Fields {
	merged := make(Fields, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// ParseLevel maps a config string onto a slog level, defaulting to info.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		log.Printf("Warning: unknown log level %q, defaulting to info", levelStr)
		return slog.LevelInfo
	}
}

type noopLogger struct{}

// Noop discards everything.
func Noop() Logger {
	return noopLogger{}
}

func (noopLogger) Info(string, Fields)         {}
func (noopLogger) Warn(string, Fields)         {}
func (noopLogger) Error(string, error, Fields) {}
func (noopLogger) Debug(string, Fields)        {}
func (n noopLogger) WithFields(Fields) Logger  { return n }
