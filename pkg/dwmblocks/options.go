package dwmblocks

import (
	"io"
	"time"
)

// DefaultShutdownTimeout is the default timeout for graceful shutdown.
// This can be overridden via Options.ShutdownTimeout.
const DefaultShutdownTimeout = 5 * time.Second

// Publisher receives every changed status line. Implementations need not be
// safe for concurrent use; a Bar calls Publish from a single goroutine.
type Publisher interface {
	Publish(text string) error
}

// Options configures the Bar instance behavior.
type Options struct {
	// Publisher receives the status text instead of the X11 root window.
	// It takes precedence over Print and Output and is never closed by the Bar.
	Publisher Publisher

	// Print writes each status line to Output instead of setting the root
	// window name.
	Print bool

	// Output is the destination for Print mode. Nil means os.Stdout.
	// Setting Output implies Print.
	Output io.Writer

	// StripColors removes color escape bytes in Print mode.
	StripColors bool

	// Display is the X display to publish to. Empty means $DISPLAY.
	Display string

	// Policy overrides the configuration's scheduling policy ("tick" or
	// "timers"). Empty means use the configuration file's value.
	Policy string

	// StrictValidation turns configuration warnings into errors.
	StrictValidation bool

	// ShutdownTimeout sets the maximum time to wait for graceful shutdown.
	// Zero means use DefaultShutdownTimeout (5 seconds).
	ShutdownTimeout time.Duration

	// Logger sets a custom logger for debug/info messages.
	// If nil, no logging is performed.
	Logger Logger

	// Metrics sets a custom metrics collector for operational metrics.
	// If nil, DefaultMetrics() is used.
	// Metrics can be exposed via /debug/vars by calling Metrics.RegisterExpvar().
	Metrics *Metrics

	// ErrorTracker sets a custom error tracker for error aggregation.
	// If nil, a private tracker is created per Bar.
	ErrorTracker *ErrorTracker

	// SinkBreaker configures the circuit breaker guarding the publisher.
	// Zero values use the defaults of DefaultBreakerConfig.
	SinkBreaker BreakerConfig

	// WatchConfig enables automatic configuration hot-reloading when the
	// configuration file changes on disk. It only applies to bars created
	// with New.
	WatchConfig bool

	// WatchDebounce sets the debounce interval for file change events.
	// Multiple rapid file modifications within this window trigger only
	// a single reload. Zero means use the default (500ms).
	WatchDebounce time.Duration
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		ShutdownTimeout: 0, // Use DefaultShutdownTimeout
		SinkBreaker:     DefaultBreakerConfig(),
	}
}

// Logger interface for custom logging.
// It follows the slog-style signature for compatibility with Go's structured logging.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, args ...any)
	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, args ...any)
	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, args ...any)
	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, args ...any)
}
