package dwmblocks

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/opd-ai/go-dwmblocks/internal/config"
	"github.com/opd-ai/go-dwmblocks/internal/render"
)

// guardedSink sits between the scheduler and the real publisher. It counts
// deliveries, remembers the last delivered line and keeps a failing sink
// behind a circuit breaker.
type guardedSink struct {
	name    string
	inner   Publisher
	closer  io.Closer // nil when the sink belongs to the caller
	breaker *breaker

	onError  func(error)
	onReject func()

	published atomic.Uint64
	last      atomic.Pointer[string]
}

// Publish implements scheduler.Publisher.
func (s *guardedSink) Publish(text string) error {
	err := s.breaker.execute(func() error { return s.inner.Publish(text) })
	switch {
	case errors.Is(err, ErrSinkUnavailable):
		if s.onReject != nil {
			s.onReject()
		}
	case err != nil:
		if s.onError != nil {
			s.onError(fmt.Errorf("publish to %s: %w", s.name, err))
		}
	default:
		s.published.Add(1)
		s.last.Store(&text)
		return nil
	}
	if wait, open := s.breaker.retryAfter(); open {
		return &cooldownError{err: err, wait: wait}
	}
	return err
}

// Text returns the last line the sink accepted.
func (s *guardedSink) Text() string {
	if p := s.last.Load(); p != nil {
		return *p
	}
	return ""
}

// setColorCodes passes the configured color codes to a writer sink so it
// can strip them.
func (s *guardedSink) setColorCodes(cfg *config.Config) {
	ws, ok := s.inner.(*render.WriterSink)
	if !ok || cfg == nil {
		return
	}
	codes := make([]uint8, 0, len(cfg.Colors))
	for _, code := range cfg.Colors {
		if code >= 1 && code <= 255 {
			codes = append(codes, uint8(code))
		}
	}
	ws.SetColorCodes(codes)
}

// Close releases the underlying sink if the bar opened it.
func (s *guardedSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// openSink creates the publisher selected by the options: a caller-supplied
// Publisher, a writer in print mode, or the X11 root window.
func (b *barImpl) openSink() (*guardedSink, error) {
	s := &guardedSink{
		onError: func(err error) { b.notifyError(err, ErrorCategorySink) },
		onReject: func() {
			b.metrics.IncrementSinkRejections()
		},
	}

	switch {
	case b.opts.Publisher != nil:
		s.name, s.inner = "custom publisher", b.opts.Publisher
	case b.opts.Print || b.opts.Output != nil:
		w := b.opts.Output
		if w == nil {
			w = os.Stdout
		}
		s.name = "writer"
		s.inner = render.NewWriterSink(w).WithStripColors(b.opts.StripColors)
	default:
		rw, err := render.NewRootWindow(b.opts.Display)
		if err != nil {
			return nil, fmt.Errorf("open X display: %w", err)
		}
		s.name, s.inner, s.closer = "root window", rw, rw
	}

	s.breaker = newBreaker(b.opts.SinkBreaker, func(from, to BreakerState) {
		msg := fmt.Sprintf("%s circuit %s -> %s", s.name, from, to)
		if to == BreakerOpen {
			b.logger.Warn("status sink disabled after repeated failures",
				"sink", s.name, "cooldown", s.breaker.cfg.Cooldown)
		} else {
			b.logger.Info("status sink state changed", "sink", s.name, "from", from.String(), "to", to.String())
		}
		b.emitEvent(EventSinkStateChanged, msg)
	})
	return s, nil
}
