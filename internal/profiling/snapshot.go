package profiling

import (
	"fmt"
	"runtime"
	"time"
)

// Byte size constants for memory formatting
const (
	KB = 1024
	MB = KB * 1024
	GB = MB * 1024
)

// Snapshot is a point-in-time view of process resources. A status bar runs
// for the whole session, so a steadily rising goroutine count usually means
// segment programs are piling up.
type Snapshot struct {
	Timestamp      time.Time
	HeapAlloc      uint64 // Bytes of allocated heap objects
	HeapObjects    uint64 // Number of allocated heap objects
	GoroutineCount int
	NumGC          uint32
}

// TakeSnapshot reads the current runtime statistics.
func TakeSnapshot() Snapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return Snapshot{
		Timestamp:      time.Now(),
		HeapAlloc:      memStats.HeapAlloc,
		HeapObjects:    memStats.HeapObjects,
		GoroutineCount: runtime.NumGoroutine(),
		NumGC:          memStats.NumGC,
	}
}

// String returns a one-line summary.
func (s Snapshot) String() string {
	return fmt.Sprintf("heap %s (%d objects), %d goroutines, %d GC cycles",
		FormatBytes(s.HeapAlloc), s.HeapObjects, s.GoroutineCount, s.NumGC)
}

// FormatBytes formats a byte count as a human-readable string.
func FormatBytes(bytes uint64) string {
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
