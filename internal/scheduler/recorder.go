package scheduler

import (
	"time"

	"github.com/opd-ai/go-dwmblocks/internal/segment"
)

// Recorder receives operational events from the scheduler loop.
// Implementations must be safe for concurrent use.
type Recorder interface {
	RecordComputation(id segment.ID, d time.Duration)
	IncrementSlowComputations()
	IncrementSignals()
	IncrementPublishes()
	IncrementSuppressedPublishes()
	IncrementErrors()
}

type nopRecorder struct{}

func (nopRecorder) RecordComputation(segment.ID, time.Duration) {}
func (nopRecorder) IncrementSlowComputations()                  {}
func (nopRecorder) IncrementSignals()                           {}
func (nopRecorder) IncrementPublishes()                         {}
func (nopRecorder) IncrementSuppressedPublishes()               {}
func (nopRecorder) IncrementErrors()                            {}
