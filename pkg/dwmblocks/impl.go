package dwmblocks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-dwmblocks/internal/config"
	"github.com/opd-ai/go-dwmblocks/internal/scheduler"
	"github.com/opd-ai/go-dwmblocks/internal/segment"
	"github.com/opd-ai/go-dwmblocks/internal/signals"
)

// barImpl is the private implementation of the Bar interface.
type barImpl struct {
	// Configuration
	cfg          *config.Config
	opts         Options
	configSource string
	configPath   string // watched by WatchConfig; empty unless created with New
	configLoader func() (*config.Config, error)

	// Components
	logger  *slog.Logger
	metrics *Metrics
	tracker *ErrorTracker
	sink    *guardedSink
	current *run
	watcher *configWatcher

	// State
	running   atomic.Bool
	startTime time.Time
	lastError atomic.Pointer[CategorizedError]

	// Handlers
	errorHandler ErrorHandler
	eventHandler EventHandler

	// Synchronization. lifecycle serializes Start, Stop and ReloadConfig;
	// mu guards the fields above for quick reads.
	lifecycle sync.Mutex
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Verify interface implementation at compile time.
var _ Bar = (*barImpl)(nil)

// plan is a validated configuration ready to be scheduled.
type plan struct {
	segs   []*segment.Segment
	policy scheduler.Policy
	router *signals.Router
}

// run is one scheduler over one fixed segment set.
type run struct {
	sched   *scheduler.Scheduler
	cancel  context.CancelFunc
	done    chan struct{}
	release func()
}

// stop cancels the run, waits for its loop and drops its signal hold.
func (r *run) stop() {
	r.cancel()
	<-r.done
	r.release()
}

// Start begins updating the status text.
func (b *barImpl) Start() error {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()

	if b.running.Load() {
		return errors.New("bar instance already running")
	}

	b.mu.RLock()
	cfg := b.cfg
	b.mu.RUnlock()

	p, err := b.prepare(cfg)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	sink, err := b.openSink()
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	sink.setColorCodes(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	b.mu.Lock()
	b.ctx, b.cancel, b.sink = ctx, cancel, sink
	b.mu.Unlock()

	r, err := b.newRun(p, p.router.Hold())
	if err != nil {
		cancel()
		sink.Close()
		return fmt.Errorf("failed to initialize: %w", err)
	}

	// Set running state BEFORE starting goroutines to avoid race
	b.running.Store(true)
	b.mu.Lock()
	b.startTime = time.Now()
	b.mu.Unlock()
	b.launch(r, len(p.segs))

	b.metrics.IncrementStarts()
	b.metrics.SetRunning(true)

	if b.opts.WatchConfig && b.configPath != "" {
		b.startWatcher()
	}

	b.logger.Info("status bar started",
		"config", b.configSource, "segments", len(p.segs), "policy", p.policy.String(), "sink", sink.name)
	b.emitEvent(EventStarted, "Instance started")
	return nil
}

// Stop cancels the scheduler and waits for it with the shutdown timeout.
func (b *barImpl) Stop() error {
	if !b.running.Load() {
		return nil // Already stopped
	}

	// The watcher calls ReloadConfig, which takes the lifecycle lock, so it
	// must be stopped before that lock is held here.
	b.mu.Lock()
	w := b.watcher
	b.watcher = nil
	b.mu.Unlock()
	if w != nil {
		w.Stop()
	}

	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()
	if !b.running.Load() {
		return nil
	}

	b.mu.RLock()
	cancel, r, sink := b.cancel, b.current, b.sink
	b.mu.RUnlock()
	cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	// Use configured timeout or default
	timeout := b.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	select {
	case <-done:
	case <-time.After(timeout):
		err := fmt.Errorf("shutdown timeout after %v: some goroutines did not stop", timeout)
		b.notifyError(err, ErrorCategoryLifecycle)
		return err
	}

	if r != nil {
		r.release()
	}
	closeErr := sink.Close()

	b.running.Store(false)
	b.metrics.IncrementStops()
	b.metrics.SetRunning(false)
	b.metrics.SetSegments(0)
	b.logger.Info("status bar stopped")
	b.emitEvent(EventStopped, "Instance stopped")

	if closeErr != nil {
		err := fmt.Errorf("close %s: %w", sink.name, closeErr)
		b.notifyError(err, ErrorCategorySink)
		return err
	}
	return nil
}

// Restart performs a stop followed by a start.
func (b *barImpl) Restart() error {
	if err := b.Stop(); err != nil {
		wrappedErr := fmt.Errorf("stop failed: %w", err)
		b.notifyError(wrappedErr, ErrorCategoryLifecycle)
		return wrappedErr
	}

	// Reload configuration
	if b.configLoader != nil {
		cfg, err := b.configLoader()
		if err != nil {
			wrappedErr := fmt.Errorf("config reload failed: %w", err)
			b.notifyError(wrappedErr, ErrorCategoryConfig)
			return wrappedErr
		}
		b.mu.Lock()
		b.cfg = cfg
		b.mu.Unlock()
		b.emitEvent(EventConfigReloaded, "Configuration reloaded")
	}

	if err := b.Start(); err != nil {
		wrappedErr := fmt.Errorf("start failed: %w", err)
		b.notifyError(wrappedErr, ErrorCategoryLifecycle)
		return wrappedErr
	}

	b.metrics.IncrementRestarts()
	b.emitEvent(EventRestarted, "Instance restarted")
	return nil
}

// ReloadConfig swaps the running segment set for a freshly loaded one.
// The sink stays open, so the status text is replaced rather than cleared.
func (b *barImpl) ReloadConfig() error {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()

	if !b.running.Load() {
		return errors.New("bar instance not running")
	}
	if b.configLoader == nil {
		return errors.New("no config loader available")
	}

	cfg, err := b.configLoader()
	if err != nil {
		wrappedErr := fmt.Errorf("config reload failed: %w", err)
		b.notifyError(wrappedErr, ErrorCategoryConfig)
		return wrappedErr
	}
	p, err := b.prepare(cfg)
	if err != nil {
		wrappedErr := fmt.Errorf("config reload failed: %w", err)
		b.notifyError(wrappedErr, ErrorCategoryConfig)
		return wrappedErr
	}

	// Hold the new signals before the old listener goes away so that none
	// of them can kill the process in between.
	r, err := b.newRun(p, p.router.Hold())
	if err != nil {
		wrappedErr := fmt.Errorf("config reload failed: %w", err)
		b.notifyError(wrappedErr, ErrorCategoryScheduler)
		return wrappedErr
	}

	b.mu.Lock()
	old := b.current
	b.cfg = cfg
	sink := b.sink
	b.mu.Unlock()
	if old != nil {
		old.stop()
	}
	sink.setColorCodes(cfg)
	b.launch(r, len(p.segs))

	b.metrics.IncrementConfigReloads()
	b.logger.Info("configuration reloaded", "segments", len(p.segs), "policy", p.policy.String())
	b.emitEvent(EventConfigReloaded, "Configuration reloaded in-place")
	return nil
}

// prepare validates cfg and resolves segments, policy and signal routing.
func (b *barImpl) prepare(cfg *config.Config) (*plan, error) {
	if cfg == nil {
		return nil, errors.New("configuration is nil")
	}

	rng := signals.PlatformRange()
	v := config.NewValidator().WithStrictMode(b.opts.StrictValidation)
	segs, policy, err := config.BuildWith(v, cfg, rng, b.logger)
	if err != nil {
		return nil, err
	}
	if b.opts.Policy != "" {
		if policy, err = scheduler.ParsePolicy(b.opts.Policy); err != nil {
			return nil, err
		}
	}

	router, err := signals.NewRouter(segs, rng)
	if err != nil {
		return nil, err
	}
	return &plan{segs: segs, policy: policy, router: router}, nil
}

// newRun creates the scheduler for p on the current sink. release is
// called if that fails, and otherwise when the run is stopped.
func (b *barImpl) newRun(p *plan, release func()) (*run, error) {
	b.mu.RLock()
	sink := b.sink
	b.mu.RUnlock()

	sched, err := scheduler.New(p.segs, p.router, sink, scheduler.Options{
		Policy:   p.policy,
		Logger:   b.logger,
		Recorder: b.metrics,
	})
	if err != nil {
		release()
		return nil, err
	}
	return &run{sched: sched, done: make(chan struct{}), release: release}, nil
}

// launch starts r's loop and makes it the current run.
func (b *barImpl) launch(r *run, segments int) {
	b.mu.Lock()
	ctx, cancel := context.WithCancel(b.ctx)
	r.cancel = cancel
	b.current = r
	b.mu.Unlock()

	b.metrics.SetSegments(segments)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer close(r.done)
		if err := r.sched.Run(ctx); err != nil {
			b.notifyError(fmt.Errorf("scheduler stopped: %w", err), ErrorCategoryScheduler)
		}
	}()
}

func (b *barImpl) startWatcher() {
	w, err := newConfigWatcher(b.configPath, b.opts.WatchDebounce,
		func() error {
			// Failures are already reported by ReloadConfig.
			if err := b.ReloadConfig(); err != nil {
				b.logger.Warn("reload after configuration change failed", "error", err)
			}
			return nil
		},
		func(err error) {
			b.notifyError(fmt.Errorf("config watcher: %w", err), ErrorCategoryWatcher)
		})
	if err != nil {
		b.notifyError(fmt.Errorf("failed to watch %s: %w", b.configPath, err), ErrorCategoryWatcher)
		return
	}

	b.mu.Lock()
	b.watcher = w
	b.mu.Unlock()
	b.logger.Debug("watching configuration", "path", b.configPath)
}

// IsRunning returns true if the bar is currently running.
func (b *barImpl) IsRunning() bool {
	return b.running.Load()
}

// Status returns detailed status information about the instance.
func (b *barImpl) Status() Status {
	b.mu.RLock()
	startTime := b.startTime
	configSource := b.configSource
	r := b.current
	sink := b.sink
	b.mu.RUnlock()

	st := Status{
		Running:      b.running.Load(),
		StartTime:    startTime,
		LastError:    b.getError(),
		ConfigSource: configSource,
	}
	if r != nil {
		st.Segments = r.sched.Len()
		st.Policy = r.sched.Policy().String()
		if r.sched.Policy() == scheduler.PolicySharedTick {
			st.Tick = r.sched.TickInterval()
		}
	}
	if sink != nil {
		st.Publishes = sink.published.Load()
		st.Text = sink.Text()
	}
	return st
}

// Text returns the last published status line.
func (b *barImpl) Text() string {
	b.mu.RLock()
	sink := b.sink
	b.mu.RUnlock()
	if sink == nil {
		return ""
	}
	return sink.Text()
}

// Trigger recomputes one segment now.
func (b *barImpl) Trigger(index int) error {
	b.mu.RLock()
	r, ctx := b.current, b.ctx
	b.mu.RUnlock()

	if !b.running.Load() || r == nil {
		return errors.New("bar instance not running")
	}
	return r.sched.Trigger(ctx, segment.ID(index))
}

// SetErrorHandler registers a callback for runtime errors.
func (b *barImpl) SetErrorHandler(handler ErrorHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errorHandler = handler
}

// SetEventHandler registers a callback for lifecycle events.
func (b *barImpl) SetEventHandler(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.eventHandler = handler
}

// Metrics returns the metrics collector for this instance.
func (b *barImpl) Metrics() *Metrics {
	return b.metrics
}

// getError retrieves the last error.
func (b *barImpl) getError() error {
	if ce := b.lastError.Load(); ce != nil {
		return ce.Err
	}
	return nil
}

// notifyError records err and invokes the error handler if registered.
func (b *barImpl) notifyError(err error, category ErrorCategory) {
	ce := NewCategorizedError(err, category)
	b.lastError.Store(ce)
	b.tracker.Record(ce)

	// The scheduler already counts and logs failed publishes.
	if category != ErrorCategorySink {
		b.metrics.IncrementErrors()
		b.logger.Error("status bar error", "category", category.String(), "error", err)
	}

	b.mu.RLock()
	handler := b.errorHandler
	b.mu.RUnlock()

	if handler != nil {
		go func() {
			defer func() {
				// Recover from panics in error handler to prevent crashing
				if r := recover(); r != nil {
					b.logger.Error("error handler panicked", "panic", r, "original_error", err)
				}
			}()
			handler(err)
		}()
	}

	// Also emit an error event
	b.emitEvent(EventError, err.Error())
}

// emitEvent sends an event to the event handler if configured.
func (b *barImpl) emitEvent(eventType EventType, message string) {
	b.metrics.IncrementEventsEmitted()

	b.mu.RLock()
	handler := b.eventHandler
	b.mu.RUnlock()

	if handler == nil {
		return
	}
	event := Event{Type: eventType, Timestamp: time.Now(), Message: message}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				// Recover from panics in the handler to avoid crashing the embedding application.
				b.mu.RLock()
				errHandler := b.errorHandler
				b.mu.RUnlock()
				if errHandler != nil {
					if err, ok := r.(error); ok {
						errHandler(fmt.Errorf("panic in event handler: %w", err))
					} else {
						errHandler(fmt.Errorf("panic in event handler: %v", r))
					}
				}
			}
		}()
		handler(event)
	}()
}
