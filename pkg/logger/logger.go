// Package logger provides structured logging for the admin backend.
package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog logger with accumulated fields so call sites can
// chain WithField/WithError before emitting.
type Logger struct {
	zl zerolog.Logger
}

// New creates a logger for the named component at the given level. Unknown
// levels fall back to info.
func New(component, level string) *Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zl := zerolog.New(os.Stderr).
		Level(lvl).
		With().
		Timestamp().
		Str("component", component).
		Logger()
	return &Logger{zl: zl}
}

// NewDefault creates an info-level logger for the named component.
func NewDefault(component string) *Logger {
	return New(component, "info")
}

// Named returns a child logger scoped to a sub-component.
func (l *Logger) Named(component string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}

// WithField returns a logger with the field attached to every event.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

// WithFields returns a logger with all fields attached.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zl.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zl: ctx.Logger()}
}

// WithError returns a logger with the error attached.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zl: l.zl.With().AnErr("error", err).Logger()}
}

func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zl.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zl.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zl.Error().Msg(msg) }
