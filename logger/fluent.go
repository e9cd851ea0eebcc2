package logger

import (
	"log/slog"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/pkg/errors"
)

// FluentConfig points at a Fluent Bit / fluentd forward input.
type FluentConfig struct {
	Host      string
	Port      int
	TagPrefix string
}

// NewFluentClient creates the forward client. fluent does not dial eagerly,
// so a bad host only shows up on the first Post.
func NewFluentClient(cfg FluentConfig) (*fluent.Fluent, error) {
	if cfg.TagPrefix == "" {
		return nil, errors.New("fluent tag prefix is required")
	}
	client, err := fluent.New(fluent.Config{
		FluentHost: cfg.Host,
		FluentPort: cfg.Port,
		TagPrefix:  cfg.TagPrefix,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fluent client")
	}
	return client, nil
}

// poster is the subset of *fluent.Fluent the logger needs.
type poster interface {
	Post(tag string, message interface{}) error
}

type FluentLogger struct {
	client   poster
	fields   Fields
	minLevel slog.Level
}

func NewFluentLogger(client *fluent.Fluent, minLevel slog.Leveler) (*FluentLogger, error) {
	if client == nil {
		return nil, errors.New("fluent client cannot be nil")
	}
	return newFluentLogger(client, minLevel), nil
}

func newFluentLogger(client poster, minLevel slog.Leveler) *FluentLogger {
	level := slog.LevelInfo
	if minLevel != nil {
		level = minLevel.Level()
	}
	return &FluentLogger{client: client, fields: Fields{}, minLevel: level}
}

func (l *FluentLogger) post(level slog.Level, tag, msg string, err error, fields Fields) {
	if l.minLevel > level {
		return
	}
	data := mergeFields(l.fields, fields)
	for k, v := range data {
		if valuer, ok := v.(slog.LogValuer); ok {
			data[k] = valuer.LogValue().Resolve().Any()
		}
	}
	if err != nil {
		data["error"] = err.Error()
	}
	data["level"] = tag
	data["message"] = msg
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	_ = l.client.Post(tag, data)
}

func (l *FluentLogger) Info(msg string, fields Fields) {
	l.post(slog.LevelInfo, "info", msg, nil, fields)
}

func (l *FluentLogger) Warn(msg string, fields Fields) {
	l.post(slog.LevelWarn, "warn", msg, nil, fields)
}

func (l *FluentLogger) Error(msg string, err error, fields Fields) {
	l.post(slog.LevelError, "error", msg, err, fields)
}

func (l *FluentLogger) Debug(msg string, fields Fields) {
	l.post(slog.LevelDebug, "debug", msg, nil, fields)
}

func (l *FluentLogger) WithFields(fields Fields) Logger {
	return &FluentLogger{
		client:   l.client,
		fields:   mergeFields(l.fields, fields),
		minLevel: l.minLevel,
	}
}
