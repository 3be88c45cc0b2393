//go:build !linux

package signals

import "github.com/opd-ai/go-dwmblocks/internal/segment"

// PlatformRange returns an empty range: real-time signals are only
// supported on Linux, so any subscription fails at startup.
func PlatformRange() segment.SignalRange {
	return segment.SignalRange{Min: 1, Max: 0}
}
