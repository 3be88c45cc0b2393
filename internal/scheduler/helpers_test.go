package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opd-ai/go-dwmblocks/internal/segment"
	"github.com/opd-ai/go-dwmblocks/internal/signals"
)

var testRange = segment.SignalRange{Min: 34, Max: 64}

// fakeKind is a Kind whose value can be swapped and whose calls are counted.
type fakeKind struct {
	mu       sync.Mutex
	value    string
	calls    atomic.Int32
	active   atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
	gate     chan struct{}
	gateFrom int32
	panicMsg string
}

func newFakeKind(value string) *fakeKind {
	return &fakeKind{value: value}
}

func (k *fakeKind) Compute(ctx context.Context) string {
	n := k.calls.Add(1)
	cur := k.active.Add(1)
	defer k.active.Add(-1)
	for {
		old := k.maxSeen.Load()
		if cur <= old || k.maxSeen.CompareAndSwap(old, cur) {
			break
		}
	}

	if k.gate != nil && n >= k.gateFrom {
		<-k.gate
	}
	if k.delay > 0 && n > 1 {
		time.Sleep(k.delay)
	}
	if k.panicMsg != "" {
		panic(k.panicMsg)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	return k.value
}

func (k *fakeKind) Set(value string) {
	k.mu.Lock()
	k.value = value
	k.mu.Unlock()
}

// recordingSink records every published text.
type recordingSink struct {
	mu    sync.Mutex
	texts []string
	fail  atomic.Bool
}

func (r *recordingSink) Publish(text string) error {
	if r.fail.Load() {
		return errors.New("sink unavailable")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func (r *recordingSink) Published() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.texts))
	copy(out, r.texts)
	return out
}

func (r *recordingSink) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.texts) == 0 {
		return ""
	}
	return r.texts[len(r.texts)-1]
}

// countingRecorder counts scheduler events.
type countingRecorder struct {
	computations atomic.Int64
	slow         atomic.Int64
	signals      atomic.Int64
	publishes    atomic.Int64
	suppressed   atomic.Int64
	errors       atomic.Int64
}

func (c *countingRecorder) RecordComputation(segment.ID, time.Duration) { c.computations.Add(1) }
func (c *countingRecorder) IncrementSlowComputations()                  { c.slow.Add(1) }
func (c *countingRecorder) IncrementSignals()                           { c.signals.Add(1) }
func (c *countingRecorder) IncrementPublishes()                         { c.publishes.Add(1) }
func (c *countingRecorder) IncrementSuppressedPublishes()               { c.suppressed.Add(1) }
func (c *countingRecorder) IncrementErrors()                            { c.errors.Add(1) }

type segSpec struct {
	kind     segment.Kind
	interval time.Duration
	offsets  []int
}

func buildSegments(t *testing.T, specs ...segSpec) []*segment.Segment {
	t.Helper()
	segs := make([]*segment.Segment, len(specs))
	for i, sp := range specs {
		s, err := segment.New(segment.Config{
			Index:         i,
			Kind:          sp.kind,
			Interval:      sp.interval,
			SignalOffsets: sp.offsets,
		}, segment.Defaults{}, testRange)
		if err != nil {
			t.Fatalf("segment.New(%d) error = %v", i, err)
		}
		segs[i] = s
	}
	return segs
}

func newTestScheduler(t *testing.T, sink Publisher, opts Options, specs ...segSpec) *Scheduler {
	t.Helper()
	segs := buildSegments(t, specs...)
	router, err := signals.NewRouter(segs, testRange)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	s, err := New(segs, router, sink, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startScheduler runs s in the background and stops it when the test ends.
func startScheduler(t *testing.T, s *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run() error = %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("Run() did not return after cancel")
		}
	})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// step delivers one tick at now and applies every result it produced.
func step(ctx context.Context, s *Scheduler, now time.Time, results chan result) {
	s.onTick(ctx, now, results)
	for inFlight(s) {
		r := <-results
		s.apply(ctx, r, results)
	}
}

func inFlight(s *Scheduler) bool {
	for i := range s.slots {
		if s.slots[i].inFlight {
			return true
		}
	}
	return false
}
