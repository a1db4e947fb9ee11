// Package logger provides structured logging for the job sheet renderer.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Logger is the logging contract consumed by every component.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithGroup(name string) Logger
}

var (
	globalMu sync.RWMutex
	global   *slog.Logger
)

func init() {
	global = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// SetupLogger configures the global logger.
func SetupLogger(debug bool, format string) {
	SetupLoggerWithWriter(os.Stderr, debug, format)
}

// SetupLoggerWithWriter configures the global logger to write to w.
func SetupLoggerWithWriter(w io.Writer, debug bool, format string) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	globalMu.Lock()
	global = slog.New(handler)
	globalMu.Unlock()
}

// GetGlobalLogger returns the global logger behind the Logger interface.
func GetGlobalLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return &slogLogger{l: global}
}

// NewSlogLogger adapts an existing slog.Logger.
func NewSlogLogger(l *slog.Logger) Logger {
	return &slogLogger{l: l}
}

// WithContext returns the global logger annotated with the request id stored in ctx, if any.
func WithContext(ctx context.Context) Logger {
	log := GetGlobalLogger()
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return log.With("request_id", id)
	}
	return log
}

type requestIDKey struct{}

// ContextWithRequestID stores a request id for WithContext.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// WithRender returns a logger scoped to a single render run.
func WithRender(log Logger, renderID string) Logger {
	return log.With("render_id", renderID)
}

type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}

func (s *slogLogger) WithGroup(name string) Logger {
	return &slogLogger{l: s.l.WithGroup(name)}
}

// Debug logs a debug message on the global logger.
func Debug(msg string, args ...any) {
	GetGlobalLogger().Debug(msg, args...)
}

// Info logs an info message on the global logger.
func Info(msg string, args ...any) {
	GetGlobalLogger().Info(msg, args...)
}

// Warn logs a warning message on the global logger.
func Warn(msg string, args ...any) {
	GetGlobalLogger().Warn(msg, args...)
}

// Error logs an error message on the global logger.
func Error(msg string, args ...any) {
	GetGlobalLogger().Error(msg, args...)
}
