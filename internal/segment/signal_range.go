package segment

import (
	"fmt"
	"syscall"
)

// SignalRange is the inclusive range of real-time signal numbers a platform offers.
// It is resolved once at startup and passed explicitly to whoever needs it.
type SignalRange struct {
	Min int
	Max int
}

// Empty reports whether the range contains no signals.
func (r SignalRange) Empty() bool {
	return r.Max < r.Min
}

// Contains reports whether sig lies inside the range.
func (r SignalRange) Contains(sig syscall.Signal) bool {
	return int(sig) >= r.Min && int(sig) <= r.Max
}

// Resolve converts an offset from the range minimum into a concrete signal.
func (r SignalRange) Resolve(offset int) (syscall.Signal, error) {
	if r.Empty() {
		return 0, fmt.Errorf("real-time signals are not available on this platform")
	}
	if offset < 0 {
		return 0, fmt.Errorf("signal offset %d is negative", offset)
	}
	if r.Min+offset > r.Max {
		return 0, fmt.Errorf("signal offset %d exceeds SIGRTMAX (SIGRTMIN+%d)", offset, r.Max-r.Min)
	}
	return syscall.Signal(r.Min + offset), nil
}

// Offset returns the offset of sig from the range minimum.
func (r SignalRange) Offset(sig syscall.Signal) int {
	return int(sig) - r.Min
}
