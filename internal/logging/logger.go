package logging

import (
	"log/slog"
	"os"
)

// Logger is the application's structured logger. It embeds *slog.Logger so
// the usual Info/Warn/Error/Log methods are available directly.
type Logger struct {
	*slog.Logger
}

// NewLogger returns a text logger at debug level for development and a JSON
// logger at info level otherwise.
func NewLogger(isDevelopment bool) *Logger {
	if isDevelopment {
		return New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// New wraps an arbitrary slog handler.
func New(h slog.Handler) *Logger {
	return &Logger{Logger: slog.New(h)}
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return New(slog.DiscardHandler)
}

// WithFields returns a child logger that always includes the given fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// With returns a child logger with the given key-value pairs attached.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}
