package signals

import (
	"reflect"
	"syscall"
	"testing"

	"github.com/opd-ai/go-dwmblocks/internal/segment"
)

var testRange = segment.SignalRange{Min: 34, Max: 64}

func mustSegment(t *testing.T, offsets ...int) *segment.Segment {
	t.Helper()
	s, err := segment.New(segment.Config{
		Kind:          segment.NewConstant("x"),
		SignalOffsets: offsets,
	}, segment.Defaults{}, testRange)
	if err != nil {
		t.Fatalf("segment.New() error = %v", err)
	}
	return s
}

func TestRouterFanOut(t *testing.T) {
	segs := []*segment.Segment{
		mustSegment(t, 1),
		mustSegment(t, 2),
		mustSegment(t, 1, 3),
	}
	r, err := NewRouter(segs, testRange)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}

	var got []segment.ID
	n := r.Dispatch(35, func(id segment.ID) { got = append(got, id) })

	if n != 2 {
		t.Errorf("Dispatch() = %d, want 2", n)
	}
	if want := []segment.ID{0, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("dispatched ids = %v, want %v", got, want)
	}
}

func TestRouterUnknownSignal(t *testing.T) {
	r, err := NewRouter([]*segment.Segment{mustSegment(t, 1)}, testRange)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}

	calls := 0
	if n := r.Dispatch(40, func(segment.ID) { calls++ }); n != 0 || calls != 0 {
		t.Errorf("Dispatch() on unsubscribed signal emitted %d requests", calls)
	}
	if ids := r.Targets(40); len(ids) != 0 {
		t.Errorf("Targets() = %v, want empty", ids)
	}
}

func TestRouterSignalsUnion(t *testing.T) {
	segs := []*segment.Segment{
		mustSegment(t, 3, 1),
		mustSegment(t, 1),
		mustSegment(t),
		mustSegment(t, 0),
	}
	r, err := NewRouter(segs, testRange)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}

	got := r.Signals()
	want := []syscall.Signal{37, 35, 34}
	if len(got) != len(want) || r.Len() != len(want) {
		t.Fatalf("Signals() = %v, want %v", got, want)
	}
	for i, sig := range want {
		if got[i] != sig {
			t.Errorf("Signals()[%d] = %v, want %v", i, got[i], sig)
		}
	}
	if ids := r.Targets(35); !reflect.DeepEqual(ids, []segment.ID{0, 1}) {
		t.Errorf("Targets(35) = %v, want [0 1]", ids)
	}
}

func TestNewRouterRejectsOutOfRange(t *testing.T) {
	wide := segment.SignalRange{Min: 34, Max: 80}
	s, err := segment.New(segment.Config{
		Kind:          segment.NewConstant("x"),
		SignalOffsets: []int{40},
	}, segment.Defaults{}, wide)
	if err != nil {
		t.Fatalf("segment.New() error = %v", err)
	}

	_, err = NewRouter([]*segment.Segment{mustSegment(t, 1), s}, testRange)
	if !segment.IsConfigError(err) {
		t.Fatalf("NewRouter() error = %v, want ConfigError", err)
	}
}

func TestRouterNoSignals(t *testing.T) {
	r, err := NewRouter([]*segment.Segment{mustSegment(t)}, testRange)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
	stop := r.Listen(t.Context(), func(syscall.Signal, segment.ID) {
		t.Error("emit should never be called")
	})
	stop()
}
