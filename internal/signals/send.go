//go:build unix

package signals

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/opd-ai/go-dwmblocks/internal/segment"
)

// Send delivers SIGRTMIN+offset to the process pid.
func Send(pid, offset int, rng segment.SignalRange) error {
	sig, err := rng.Resolve(offset)
	if err != nil {
		return err
	}
	if err := unix.Kill(pid, sig); err != nil {
		return fmt.Errorf("send signal %d to pid %d: %w", sig, pid, err)
	}
	return nil
}

// Alive reports whether a process with the given pid exists.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
