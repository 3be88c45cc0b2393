package dwmblocks

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ErrorCategory classifies an error by the part of the bar it came from.
type ErrorCategory int

const (
	// ErrorCategoryUnknown marks errors that fit no other category.
	ErrorCategoryUnknown ErrorCategory = iota
	// ErrorCategoryConfig is for configuration loading, parsing and validation.
	ErrorCategoryConfig
	// ErrorCategorySink is for failures publishing the status text.
	ErrorCategorySink
	// ErrorCategoryScheduler is for failures of the update loop itself.
	ErrorCategoryScheduler
	// ErrorCategoryWatcher is for configuration file watching errors.
	ErrorCategoryWatcher
	// ErrorCategoryLifecycle is for start, stop and restart failures.
	ErrorCategoryLifecycle

	numErrorCategories
)

// String returns the category name used in logs and metrics.
func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryConfig:
		return "config"
	case ErrorCategorySink:
		return "sink"
	case ErrorCategoryScheduler:
		return "scheduler"
	case ErrorCategoryWatcher:
		return "watcher"
	case ErrorCategoryLifecycle:
		return "lifecycle"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with the category and time it was seen.
type CategorizedError struct {
	// Err is the wrapped error.
	Err error
	// Category is the part of the bar that failed.
	Category ErrorCategory
	// Timestamp is when the error was recorded.
	Timestamp time.Time
}

// Error formats the error as "[category] message".
func (e *CategorizedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] (no error)", e.Category)
	}
	return fmt.Sprintf("[%s] %s", e.Category, e.Err.Error())
}

// Unwrap returns Err.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorizedError creates a CategorizedError stamped with the current time.
func NewCategorizedError(err error, category ErrorCategory) *CategorizedError {
	return &CategorizedError{Err: err, Category: category, Timestamp: time.Now()}
}

// AlertCondition fires when Threshold errors of Category occur within Window.
type AlertCondition struct {
	// Category restricts the condition to one category.
	// ErrorCategoryUnknown counts every category.
	Category ErrorCategory
	// Threshold is the error count that fires the alert.
	Threshold int
	// Window is how far back errors are counted.
	Window time.Duration
}

// AlertHandler receives a fired condition, the matching error count and the
// matching errors, oldest first. Handlers run on their own goroutine.
type AlertHandler func(condition AlertCondition, errorCount int, recent []CategorizedError)

// ErrorTrackerConfig holds the ErrorTracker limits. Zero fields use defaults.
type ErrorTrackerConfig struct {
	// MaxErrors is the maximum number of errors to retain (default: 256).
	MaxErrors int
	// RetentionTime drops errors older than this (default: 1 hour).
	RetentionTime time.Duration
	// AlertCooldown suppresses a condition after it fired (default: 5 minutes).
	AlertCooldown time.Duration
}

// DefaultErrorTrackerConfig returns the default limits.
func DefaultErrorTrackerConfig() ErrorTrackerConfig {
	return ErrorTrackerConfig{
		MaxErrors:     256,
		RetentionTime: time.Hour,
		AlertCooldown: 5 * time.Minute,
	}
}

// ErrorTracker keeps a bounded window of recent errors and raises alerts
// when a category fails repeatedly. Thread-safe for concurrent use.
type ErrorTracker struct {
	mu            sync.RWMutex
	errors        []CategorizedError
	maxErrors     int
	retentionTime time.Duration
	conditions    []AlertCondition
	handlers      []AlertHandler
	lastAlert     map[int]time.Time
	alertCooldown time.Duration

	totals [numErrorCategories]atomic.Int64
}

// NewErrorTracker creates an ErrorTracker.
func NewErrorTracker(cfg ErrorTrackerConfig) *ErrorTracker {
	def := DefaultErrorTrackerConfig()
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = def.MaxErrors
	}
	if cfg.RetentionTime <= 0 {
		cfg.RetentionTime = def.RetentionTime
	}
	if cfg.AlertCooldown <= 0 {
		cfg.AlertCooldown = def.AlertCooldown
	}

	return &ErrorTracker{
		errors:        make([]CategorizedError, 0, cfg.MaxErrors),
		maxErrors:     cfg.MaxErrors,
		retentionTime: cfg.RetentionTime,
		lastAlert:     make(map[int]time.Time),
		alertCooldown: cfg.AlertCooldown,
	}
}

// AddCondition adds an alert condition.
func (t *ErrorTracker) AddCondition(cond AlertCondition) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conditions = append(t.conditions, cond)
}

// SetAlertHandler adds a handler called for every fired condition.
func (t *ErrorTracker) SetAlertHandler(handler AlertHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, handler)
}

// Record stores err and fires any condition it completes.
func (t *ErrorTracker) Record(err *CategorizedError) {
	if err == nil {
		return
	}
	if err.Category >= 0 && err.Category < numErrorCategories {
		t.totals[err.Category].Add(1)
	}

	t.mu.Lock()
	t.errors = append(t.errors, *err)
	if len(t.errors) > t.maxErrors {
		t.errors = t.errors[len(t.errors)-t.maxErrors:]
	}
	t.pruneExpired(time.Now())

	type firing struct {
		cond   AlertCondition
		count  int
		recent []CategorizedError
	}
	var fired []firing
	now := time.Now()
	for i, cond := range t.conditions {
		if last, ok := t.lastAlert[i]; ok && now.Sub(last) < t.alertCooldown {
			continue
		}
		count, recent := t.matching(cond, now)
		if cond.Threshold > 0 && count >= cond.Threshold {
			t.lastAlert[i] = now
			fired = append(fired, firing{cond, count, recent})
		}
	}
	handlers := append([]AlertHandler(nil), t.handlers...)
	t.mu.Unlock()

	for _, f := range fired {
		for _, h := range handlers {
			go func(h AlertHandler, f firing) {
				defer func() { _ = recover() }()
				h(f.cond, f.count, f.recent)
			}(h, f)
		}
	}
}

// matching counts errors for cond inside its window, keeping up to ten of
// the most recent. Must be called with mu held.
func (t *ErrorTracker) matching(cond AlertCondition, now time.Time) (int, []CategorizedError) {
	cutoff := now.Add(-cond.Window)
	var count int
	var recent []CategorizedError
	for i := len(t.errors) - 1; i >= 0; i-- {
		e := t.errors[i]
		if e.Timestamp.Before(cutoff) {
			break
		}
		if cond.Category != ErrorCategoryUnknown && e.Category != cond.Category {
			continue
		}
		count++
		if len(recent) < 10 {
			recent = append(recent, e)
		}
	}
	return count, recent
}

// pruneExpired drops errors past the retention time. t.mu must be held.
func (t *ErrorTracker) pruneExpired(now time.Time) {
	cutoff := now.Add(-t.retentionTime)
	start := 0
	for start < len(t.errors) && !t.errors[start].Timestamp.After(cutoff) {
		start++
	}
	if start > 0 {
		t.errors = t.errors[start:]
	}
}

// ErrorRate returns errors per second over the last window.
func (t *ErrorTracker) ErrorRate(window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	count, _ := t.matching(AlertCondition{Window: window}, time.Now())
	return float64(count) / window.Seconds()
}

// RecentErrors returns the most recent errors, oldest first, up to limit.
func (t *ErrorTracker) RecentErrors(limit int) []CategorizedError {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if limit <= 0 || len(t.errors) == 0 {
		return nil
	}
	start := max(len(t.errors)-limit, 0)
	result := make([]CategorizedError, len(t.errors)-start)
	copy(result, t.errors[start:])
	return result
}

// Total returns the lifetime number of errors recorded for category.
func (t *ErrorTracker) Total(category ErrorCategory) int64 {
	if category < 0 || category >= numErrorCategories {
		return 0
	}
	return t.totals[category].Load()
}

// Clear removes all tracked errors. Lifetime totals are kept.
func (t *ErrorTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = t.errors[:0]
	t.lastAlert = make(map[int]time.Time)
}
