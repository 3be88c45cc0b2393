package dwmblocks

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
)

// SlogAdapter wraps a *slog.Logger to implement the Logger interface.
// This enables integration with Go's structured logging facilities.
//
// Example:
//
//	// Use default slog logger
//	opts := dwmblocks.DefaultOptions()
//	opts.Logger = dwmblocks.NewSlogAdapter(slog.Default())
//
//	// Use a custom slog handler
//	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
//	opts.Logger = dwmblocks.NewSlogAdapter(slog.New(handler))
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a Logger adapter from a *slog.Logger.
// If logger is nil, slog.Default() is used.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Debug logs a debug-level message with optional key-value pairs.
func (s *SlogAdapter) Debug(msg string, args ...any) {
	s.logger.Debug(msg, args...)
}

// Info logs an info-level message with optional key-value pairs.
func (s *SlogAdapter) Info(msg string, args ...any) {
	s.logger.Info(msg, args...)
}

// Warn logs a warning-level message with optional key-value pairs.
func (s *SlogAdapter) Warn(msg string, args ...any) {
	s.logger.Warn(msg, args...)
}

// Error logs an error-level message with optional key-value pairs.
func (s *SlogAdapter) Error(msg string, args ...any) {
	s.logger.Error(msg, args...)
}

// DefaultLogger returns a Logger configured for typical use cases.
// It logs to stderr with text format at Info level.
// For more control, use NewSlogAdapter with a custom slog.Handler.
func DefaultLogger() Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &SlogAdapter{logger: slog.New(handler)}
}

// DebugLogger returns a Logger configured for debugging.
// It logs to stderr with text format at Debug level, including source location.
func DebugLogger() Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})
	return &SlogAdapter{logger: slog.New(handler)}
}

// JSONLogger returns a Logger that outputs JSON-formatted logs.
// This is suitable for running under a session manager that collects logs.
func JSONLogger(w io.Writer, level slog.Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return &SlogAdapter{logger: slog.New(handler)}
}

// NopLogger returns a Logger that discards all log messages.
// Use this when logging should be completely disabled.
func NopLogger() Logger {
	return &nopLogger{}
}

// nopLogger implements Logger but discards all messages.
type nopLogger struct{}

func (n *nopLogger) Debug(msg string, args ...any) {}
func (n *nopLogger) Info(msg string, args ...any)  {}
func (n *nopLogger) Warn(msg string, args ...any)  {}
func (n *nopLogger) Error(msg string, args ...any) {}

// slogLogger returns the *slog.Logger handed to the internal packages.
// Adapters are unwrapped; any other Logger is bridged through loggerHandler.
func slogLogger(l Logger) *slog.Logger {
	switch l := l.(type) {
	case nil, *nopLogger:
		return slog.New(slog.DiscardHandler)
	case *SlogAdapter:
		return l.logger
	default:
		return slog.New(&loggerHandler{logger: l})
	}
}

// loggerHandler is a slog.Handler that forwards records to a Logger as
// flat key-value pairs. Groups are flattened into dotted keys.
type loggerHandler struct {
	logger Logger
	attrs  []any
	group  string
}

func (h *loggerHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *loggerHandler) Handle(_ context.Context, r slog.Record) error {
	args := slices.Clone(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		args = h.appendAttr(args, a)
		return true
	})

	switch {
	case r.Level >= slog.LevelError:
		h.logger.Error(r.Message, args...)
	case r.Level >= slog.LevelWarn:
		h.logger.Warn(r.Message, args...)
	case r.Level >= slog.LevelInfo:
		h.logger.Info(r.Message, args...)
	default:
		h.logger.Debug(r.Message, args...)
	}
	return nil
}

func (h *loggerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &loggerHandler{logger: h.logger, attrs: slices.Clone(h.attrs), group: h.group}
	for _, a := range attrs {
		next.attrs = next.appendAttr(next.attrs, a)
	}
	return next
}

func (h *loggerHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &loggerHandler{logger: h.logger, attrs: h.attrs, group: h.qualify(name)}
}

func (h *loggerHandler) appendAttr(args []any, a slog.Attr) []any {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return args
	}
	if a.Value.Kind() == slog.KindGroup {
		sub := h
		if a.Key != "" {
			sub = &loggerHandler{group: h.qualify(a.Key)}
		}
		for _, ga := range a.Value.Group() {
			args = sub.appendAttr(args, ga)
		}
		return args
	}
	return append(args, h.qualify(a.Key), a.Value.Any())
}

func (h *loggerHandler) qualify(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}
