//go:build linux

package signals

import "github.com/opd-ai/go-dwmblocks/internal/segment"

// Linux reserves 32 and 33 for the threading implementation; the C library
// and the Go runtime both start the usable real-time range at 34.
const (
	sigRTMin = 34
	sigRTMax = 64
)

// PlatformRange returns the real-time signal range of the running platform.
func PlatformRange() segment.SignalRange {
	return segment.SignalRange{Min: sigRTMin, Max: sigRTMax}
}
