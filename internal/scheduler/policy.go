package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/opd-ai/go-dwmblocks/internal/segment"
)

// Policy selects how interval-driven recomputation is scheduled.
type Policy int

const (
	// PolicySharedTick runs one process-wide ticker at the GCD of all
	// intervals and recomputes only segments that are stale on each tick.
	PolicySharedTick Policy = iota
	// PolicyTimers runs an independent ticker per segment.
	PolicyTimers
)

// String returns the configuration name of the policy.
func (p Policy) String() string {
	switch p {
	case PolicySharedTick:
		return "tick"
	case PolicyTimers:
		return "timers"
	default:
		return "unknown"
	}
}

// ParsePolicy parses a configuration name. The empty string selects
// PolicySharedTick.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tick":
		return PolicySharedTick, nil
	case "timers":
		return PolicyTimers, nil
	default:
		return 0, fmt.Errorf("unknown scheduling policy %q (expected 'tick' or 'timers')", s)
	}
}

// Tick returns the greatest common divisor, in whole milliseconds, of the
// intervals of segs. Segments without an interval are ignored. Zero means no
// segment is polled.
func Tick(segs []*segment.Segment) time.Duration {
	var g int64
	for _, s := range segs {
		ms := s.Interval().Milliseconds()
		if ms <= 0 {
			continue
		}
		g = gcd(g, ms)
	}
	return time.Duration(g) * time.Millisecond
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// jitterTolerance bounds how early a tick may find a segment due.
const jitterTolerance = 50 * time.Millisecond

// stale reports whether a segment last updated at last is due at now.
// The slack covers ticker jitter only: a signal moves last off the tick
// grid, and a larger slack would then recompute the segment early.
func stale(now, last time.Time, interval, tick time.Duration) bool {
	return now.Sub(last)+min(tick/2, jitterTolerance) >= interval
}
