//go:build !unix

package signals

import (
	"errors"

	"github.com/opd-ai/go-dwmblocks/internal/segment"
)

// Send is not supported on this platform.
func Send(pid, offset int, rng segment.SignalRange) error {
	return errors.New("sending real-time signals is not supported on this platform")
}

// Alive always reports false on this platform.
func Alive(pid int) bool {
	return false
}
