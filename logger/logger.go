package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZeroLogger implements Logger on top of zerolog.
type ZeroLogger struct {
	zlog *zerolog.Logger
}

var _ Logger = (*ZeroLogger)(nil)

// New creates a ZeroLogger writing to stdout at the given level.
// Unknown levels fall back to info. When pretty is true, output is
// console-formatted for human readability.
func New(level string, pretty bool) *ZeroLogger {
	return NewWithWriter(level, pretty, os.Stdout)
}

// NewWithWriter creates a ZeroLogger writing to the given writer.
// Useful for capturing output in tests.
func NewWithWriter(level string, pretty bool, w io.Writer) *ZeroLogger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	l := zerolog.New(w).With().Timestamp().Logger()

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zLevel = zerolog.InfoLevel
	}
	l = l.Level(zLevel)

	return &ZeroLogger{zlog: &l}
}

// Nop returns a logger that discards all events.
func Nop() *ZeroLogger {
	l := zerolog.Nop()
	return &ZeroLogger{zlog: &l}
}

// WithContext returns a logger bound to the zerolog logger stored in ctx,
// if any. Non-context values return the receiver unchanged.
func (l *ZeroLogger) WithContext(ctx any) Logger {
	if c, ok := ctx.(context.Context); ok {
		zl := zerolog.Ctx(c)
		if zl == nil || zl.GetLevel() == zerolog.Disabled {
			return l
		}
		return &ZeroLogger{zlog: zl}
	}
	return l
}

// WithFields returns a child logger with fields attached to every entry.
func (l *ZeroLogger) WithFields(fields map[string]any) Logger {
	log := l.zlog.With().Fields(fields).Logger()
	return &ZeroLogger{zlog: &log}
}

// Info creates an info-level event.
func (l *ZeroLogger) Info() LogEvent { return &zerologEvent{event: l.zlog.Info()} }

// Error creates an error-level event.
func (l *ZeroLogger) Error() LogEvent { return &zerologEvent{event: l.zlog.Error()} }

// Debug creates a debug-level event.
func (l *ZeroLogger) Debug() LogEvent { return &zerologEvent{event: l.zlog.Debug()} }

// Warn creates a warn-level event.
func (l *ZeroLogger) Warn() LogEvent { return &zerologEvent{event: l.zlog.Warn()} }

// zerologEvent adapts *zerolog.Event to the LogEvent interface.
type zerologEvent struct {
	event *zerolog.Event
}

func (e *zerologEvent) Msg(msg string) { e.event.Msg(msg) }

func (e *zerologEvent) Msgf(format string, args ...any) { e.event.Msgf(format, args...) }

func (e *zerologEvent) Err(err error) LogEvent {
	e.event = e.event.Err(err)
	return e
}

func (e *zerologEvent) Str(key, value string) LogEvent {
	e.event = e.event.Str(key, value)
	return e
}

func (e *zerologEvent) Int(key string, value int) LogEvent {
	e.event = e.event.Int(key, value)
	return e
}

func (e *zerologEvent) Int64(key string, value int64) LogEvent {
	e.event = e.event.Int64(key, value)
	return e
}

func (e *zerologEvent) Bool(key string, value bool) LogEvent {
	e.event = e.event.Bool(key, value)
	return e
}

func (e *zerologEvent) Dur(key string, d time.Duration) LogEvent {
	e.event = e.event.Dur(key, d)
	return e
}

func (e *zerologEvent) Interface(key string, i any) LogEvent {
	e.event = e.event.Interface(key, i)
	return e
}

func (e *zerologEvent) Bytes(key string, val []byte) LogEvent {
	e.event = e.event.Bytes(key, val)
	return e
}
