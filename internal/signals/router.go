// Package signals routes real-time signals to the segments subscribed to them.
//
// One OS-level listener is installed for the union of all subscribed signals;
// an arriving signal fans out to every subscribed segment id.
package signals

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/opd-ai/go-dwmblocks/internal/segment"
)

// notifyBuffer is the capacity of the OS signal channel.
const notifyBuffer = 16

// Router maps signals to the ids of the segments that refresh on them.
// It is read-only after construction.
type Router struct {
	table map[syscall.Signal][]segment.ID
	order []syscall.Signal
}

// NewRouter builds the routing table from segs, where a segment's id is its
// index. Every subscribed signal must lie inside rng; otherwise a
// *segment.ConfigError is returned and the caller must not proceed.
func NewRouter(segs []*segment.Segment, rng segment.SignalRange) (*Router, error) {
	r := &Router{table: make(map[syscall.Signal][]segment.ID)}

	for i, seg := range segs {
		id := segment.ID(i)
		for _, sig := range seg.Signals() {
			if !rng.Contains(sig) {
				return nil, &segment.ConfigError{
					Segment: i,
					Field:   "signals",
					Message: fmt.Sprintf("signal %d is outside the real-time range %d..%d", sig, rng.Min, rng.Max),
				}
			}
			if _, ok := r.table[sig]; !ok {
				r.order = append(r.order, sig)
			}
			r.table[sig] = append(r.table[sig], id)
		}
	}

	return r, nil
}

// Targets returns the ids subscribed to sig, in table construction order.
func (r *Router) Targets(sig syscall.Signal) []segment.ID {
	ids := r.table[sig]
	out := make([]segment.ID, len(ids))
	copy(out, ids)
	return out
}

// Signals returns every distinct subscribed signal in first-seen order.
func (r *Router) Signals() []os.Signal {
	out := make([]os.Signal, len(r.order))
	for i, sig := range r.order {
		out[i] = sig
	}
	return out
}

// Len returns the number of distinct subscribed signals.
func (r *Router) Len() int {
	return len(r.order)
}

// Dispatch calls emit once for each segment subscribed to sig and returns
// the number of requests emitted.
func (r *Router) Dispatch(sig syscall.Signal, emit func(segment.ID)) int {
	ids := r.table[sig]
	for _, id := range ids {
		emit(id)
	}
	return len(ids)
}

// Listen installs a single listener for all subscribed signals and forwards
// arrivals through Dispatch until ctx is done or stop is called. The emit
// callback runs on the listener goroutine. If no signals are subscribed,
// nothing is installed.
func (r *Router) Listen(ctx context.Context, emit func(syscall.Signal, segment.ID)) (stop func()) {
	if len(r.order) == 0 {
		return func() {}
	}

	ch := make(chan os.Signal, notifyBuffer)
	signal.Notify(ch, r.Signals()...)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-ch:
				sig, ok := s.(syscall.Signal)
				if !ok {
					continue
				}
				r.Dispatch(sig, func(id segment.ID) { emit(sig, id) })
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		cancel()
		<-done
	}
}
