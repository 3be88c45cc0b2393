// Package scheduler drives segment recomputation and status composition.
//
// A single loop goroutine waits for the next tick, timer, signal or manual
// trigger, dispatches recomputation of the affected segments to worker
// goroutines, and applies their results back to the segment cache before
// recomposing the status line. Only the loop touches cached state, so no
// locking is needed across segments.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/opd-ai/go-dwmblocks/internal/segment"
	"github.com/opd-ai/go-dwmblocks/internal/signals"
)

// requestBuffer is the capacity of the request queue shared by signals,
// per-segment timers and manual triggers.
const requestBuffer = 64

// Options configures a Scheduler.
type Options struct {
	// Policy selects shared-tick or per-segment timer scheduling.
	Policy Policy
	// Logger receives warnings and debug output. Nil means slog.Default().
	Logger *slog.Logger
	// Recorder receives operational events. Nil disables recording.
	Recorder Recorder
}

// source identifies what requested a recomputation.
type source int

const (
	sourceTimer source = iota
	sourceSignal
	sourceTrigger
)

func (s source) String() string {
	switch s {
	case sourceTimer:
		return "timer"
	case sourceSignal:
		return "signal"
	case sourceTrigger:
		return "trigger"
	default:
		return "unknown"
	}
}

type request struct {
	id     segment.ID
	source source
}

type result struct {
	id      segment.ID
	text    string
	elapsed time.Duration
}

// slot is the loop-owned state of one segment.
type slot struct {
	seg        *segment.Segment
	text       string
	lastUpdate time.Time
	inFlight   bool
	// pending records a signal or trigger that arrived while in flight.
	pending bool
}

// Scheduler owns a fixed set of segments for the lifetime of one run.
type Scheduler struct {
	slots      []slot
	router     *signals.Router
	compositor *Compositor
	policy     Policy
	tick       time.Duration
	logger     *slog.Logger
	recorder   Recorder

	requests chan request
	running  atomic.Bool
	text     atomic.Pointer[string]

	// retry is armed by a publish error that carries a retry delay.
	retry  *time.Timer
	retryC <-chan time.Time
}

// New creates a Scheduler for segs. A segment's id is its index in segs.
// The router must have been built from the same slice.
func New(segs []*segment.Segment, router *signals.Router, sink Publisher, opts Options) (*Scheduler, error) {
	if router == nil {
		return nil, errors.New("scheduler: nil signal router")
	}
	if sink == nil {
		return nil, errors.New("scheduler: nil publisher")
	}
	if opts.Policy != PolicySharedTick && opts.Policy != PolicyTimers {
		return nil, fmt.Errorf("scheduler: unknown policy %d", opts.Policy)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	slots := make([]slot, len(segs))
	for i, seg := range segs {
		if seg == nil {
			return nil, fmt.Errorf("scheduler: segment %d is nil", i)
		}
		slots[i] = slot{seg: seg}
	}

	s := &Scheduler{
		slots:      slots,
		router:     router,
		compositor: NewCompositor(len(segs), sink),
		policy:     opts.Policy,
		tick:       Tick(segs),
		logger:     logger,
		recorder:   recorder,
		requests:   make(chan request, requestBuffer),
	}
	empty := ""
	s.text.Store(&empty)
	return s, nil
}

// Len returns the number of segments.
func (s *Scheduler) Len() int {
	return len(s.slots)
}

// TickInterval returns the shared tick, or zero if no segment is polled.
func (s *Scheduler) TickInterval() time.Duration {
	return s.tick
}

// Policy returns the scheduling policy.
func (s *Scheduler) Policy() Policy {
	return s.policy
}

// Text returns the last published status text.
func (s *Scheduler) Text() string {
	return *s.text.Load()
}

// IsRunning reports whether Run is active.
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// Trigger requests an immediate recomputation of segment id, exactly as if
// one of its signals had arrived.
func (s *Scheduler) Trigger(ctx context.Context, id segment.ID) error {
	if id < 0 || int(id) >= len(s.slots) {
		return fmt.Errorf("segment %d does not exist", id)
	}
	select {
	case s.requests <- request{id: id, source: sourceTrigger}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run computes every segment once, publishes the first status line and then
// schedules updates until ctx is done. It returns nil on cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("scheduler already running")
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	results := make(chan result, len(s.slots))

	// Install the listener before the first computation so an early signal
	// is queued instead of killing the process.
	stopSignals := s.router.Listen(ctx, func(sig syscall.Signal, id segment.ID) {
		s.recorder.IncrementSignals()
		select {
		case s.requests <- request{id: id, source: sourceSignal}:
		case <-ctx.Done():
		}
	})
	defer func() {
		cancel()
		wg.Wait()
		stopSignals()
		s.disarmRetry()
	}()

	s.initial(ctx, time.Now())
	s.publish()

	var tickC <-chan time.Time
	switch s.policy {
	case PolicySharedTick:
		if s.tick > 0 {
			ticker := time.NewTicker(s.tick)
			defer ticker.Stop()
			tickC = ticker.C
		}
	case PolicyTimers:
		s.startTimers(ctx, &wg)
	}

	s.logger.Debug("scheduler started",
		"segments", len(s.slots), "policy", s.policy.String(),
		"tick", s.tick, "signals", s.router.Len())

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-tickC:
			s.onTick(ctx, now, results)
		case req := <-s.requests:
			s.dispatch(ctx, req.id, req.source, time.Now(), results)
		case r := <-results:
			s.apply(ctx, r, results)
		case <-s.retryC:
			s.retry, s.retryC = nil, nil
			s.publish()
		}
	}
}

// initial computes every segment concurrently and waits for all of them,
// so the first published line is never partially empty.
func (s *Scheduler) initial(ctx context.Context, now time.Time) {
	var wg sync.WaitGroup
	texts := make([]string, len(s.slots))
	elapsed := make([]time.Duration, len(s.slots))

	for i := range s.slots {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := time.Now()
			texts[i] = s.render(ctx, segment.ID(i), s.slots[i].seg)
			elapsed[i] = time.Since(start)
		}(i)
	}
	wg.Wait()

	for i := range s.slots {
		s.slots[i].text = texts[i]
		s.slots[i].lastUpdate = now
		s.compositor.Set(segment.ID(i), texts[i])
		s.recorder.RecordComputation(segment.ID(i), elapsed[i])
	}
}

// startTimers starts one ticker goroutine per polled segment.
func (s *Scheduler) startTimers(ctx context.Context, wg *sync.WaitGroup) {
	for i := range s.slots {
		interval := s.slots[i].seg.Interval()
		if interval <= 0 {
			continue
		}
		id := segment.ID(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					select {
					case s.requests <- request{id: id, source: sourceTimer}:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}
}

// onTick dispatches every polled segment that is stale at now.
func (s *Scheduler) onTick(ctx context.Context, now time.Time, results chan<- result) {
	for i := range s.slots {
		sl := &s.slots[i]
		interval := sl.seg.Interval()
		if interval <= 0 || sl.inFlight {
			continue
		}
		if stale(now, sl.lastUpdate, interval, s.tick) {
			s.dispatch(ctx, segment.ID(i), sourceTimer, now, results)
		}
	}
}

// dispatch starts a recomputation of id unless one is already in flight.
// Signals and triggers arriving during a computation schedule one re-run;
// timer requests are dropped and the cached value is kept.
func (s *Scheduler) dispatch(ctx context.Context, id segment.ID, src source, now time.Time, results chan<- result) {
	sl := &s.slots[id]
	if sl.inFlight {
		if src != sourceTimer {
			sl.pending = true
		}
		s.logger.Debug("segment busy", "segment", int(id), "source", src.String())
		return
	}

	sl.inFlight = true
	sl.lastUpdate = now
	seg := sl.seg

	go func() {
		start := time.Now()
		text := s.render(ctx, id, seg)
		results <- result{id: id, text: text, elapsed: time.Since(start)}
	}()
}

// apply stores a finished computation and republishes if the line changed.
func (s *Scheduler) apply(ctx context.Context, r result, results chan<- result) {
	sl := &s.slots[r.id]
	sl.inFlight = false
	sl.text = r.text
	s.compositor.Set(r.id, r.text)
	s.recorder.RecordComputation(r.id, r.elapsed)

	if interval := sl.seg.Interval(); interval > 0 && r.elapsed > interval {
		s.recorder.IncrementSlowComputations()
		s.logger.Warn("segment computation exceeded interval",
			"segment", int(r.id), "elapsed", r.elapsed, "interval", interval)
	}

	s.publish()

	if sl.pending {
		sl.pending = false
		s.dispatch(ctx, r.id, sourceSignal, time.Now(), results)
	}
}

func (s *Scheduler) publish() {
	changed, err := s.compositor.PublishIfChanged()
	switch {
	case err != nil:
		s.recorder.IncrementErrors()
		s.logger.Warn("failed to publish status text", "error", err)
		var ra RetryAfterError
		if errors.As(err, &ra) && s.retry == nil {
			s.retry = time.NewTimer(ra.RetryAfter())
			s.retryC = s.retry.C
		}
	case changed:
		s.disarmRetry()
		s.recorder.IncrementPublishes()
		text := s.compositor.Published()
		s.text.Store(&text)
	default:
		s.recorder.IncrementSuppressedPublishes()
	}
}

func (s *Scheduler) disarmRetry() {
	if s.retry != nil {
		s.retry.Stop()
		s.retry, s.retryC = nil, nil
	}
}

// render computes a segment, turning a panicking kind into the error text.
func (s *Scheduler) render(ctx context.Context, id segment.ID, seg *segment.Segment) (text string) {
	defer func() {
		if r := recover(); r != nil {
			s.recorder.IncrementErrors()
			s.logger.Error("segment computation panicked", "segment", int(id), "panic", r)
			text = seg.Format(segment.ErrorText)
		}
	}()
	return seg.Render(ctx)
}
