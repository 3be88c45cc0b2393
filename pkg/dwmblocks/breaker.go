package dwmblocks

import (
	"errors"
	"sync"
	"time"

	"github.com/opd-ai/go-dwmblocks/internal/scheduler"
)

// BreakerState represents the current state of the publisher's circuit breaker.
type BreakerState int

const (
	// BreakerClosed indicates publishes pass through to the sink.
	BreakerClosed BreakerState = iota
	// BreakerOpen indicates the sink kept failing and publishes are refused.
	BreakerOpen
	// BreakerHalfOpen indicates the cooldown elapsed and the next publish
	// tries the sink again.
	BreakerHalfOpen
)

// String returns the string representation of the breaker state.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrSinkUnavailable is returned by a guarded publisher while its breaker is
// open. The status line is not recorded as published, and the bar publishes
// it again once the cooldown has passed.
var ErrSinkUnavailable = errors.New("status sink unavailable: circuit breaker is open")

// cooldownError marks a publish error returned while the breaker is open.
// The scheduler publishes again once the cooldown has passed.
type cooldownError struct {
	err  error
	wait time.Duration
}

var _ scheduler.RetryAfterError = (*cooldownError)(nil)

func (e *cooldownError) Error() string             { return e.err.Error() }
func (e *cooldownError) Unwrap() error             { return e.err }
func (e *cooldownError) RetryAfter() time.Duration { return e.wait }

// BreakerConfig configures the circuit breaker in front of the publisher.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive publish failures before
	// the breaker opens. Default: 5
	FailureThreshold int

	// Cooldown is how long the breaker stays open before one publish is let
	// through as a trial. Default: 30 seconds
	Cooldown time.Duration
}

// DefaultBreakerConfig returns a BreakerConfig with sensible defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
	}
}

// breaker stops a dead X connection from being hit on every recomposition.
// A single successful trial publish closes it again.
type breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu          sync.Mutex
	state       BreakerState
	failures    int
	openedAt    time.Time
	trialing    bool
	onChange    func(from, to BreakerState)
	rejections  int64
	lastFailure error
}

func newBreaker(cfg BreakerConfig, onChange func(from, to BreakerState)) *breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	return &breaker{cfg: cfg, now: time.Now, onChange: onChange}
}

// execute runs fn unless the breaker is open.
func (b *breaker) execute(fn func() error) error {
	if !b.allow() {
		return ErrSinkUnavailable
	}
	err := fn()
	b.record(err)
	return err
}

func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			b.rejections++
			return false
		}
		b.transition(BreakerHalfOpen)
		b.trialing = true
		return true
	default:
		// One trial at a time; the publisher is only called from the
		// scheduler loop, so this only trips if that ever changes.
		if b.trialing {
			b.rejections++
			return false
		}
		b.trialing = true
		return true
	}
}

func (b *breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.trialing = false
	if err == nil {
		b.failures = 0
		b.lastFailure = nil
		b.transition(BreakerClosed)
		return
	}

	b.failures++
	b.lastFailure = err
	if b.state == BreakerHalfOpen || b.failures >= b.cfg.FailureThreshold {
		b.openedAt = b.now()
		b.transition(BreakerOpen)
	}
}

// State returns the current state. An open breaker whose cooldown has
// elapsed reports half-open.
func (b *breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return BreakerHalfOpen
	}
	return b.state
}

// retryAfter returns how much longer an open breaker refuses publishes.
func (b *breaker) retryAfter() (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != BreakerOpen {
		return 0, false
	}
	return max(b.cfg.Cooldown-b.now().Sub(b.openedAt), 0), true
}

// LastFailure returns the error of the most recent failed publish, or nil
// once a publish has succeeded.
func (b *breaker) LastFailure() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastFailure
}

// Rejections returns the number of publishes refused while open.
func (b *breaker) Rejections() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rejections
}

// transition must be called with mu held.
func (b *breaker) transition(to BreakerState) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	if b.onChange != nil {
		go b.onChange(from, to)
	}
}
