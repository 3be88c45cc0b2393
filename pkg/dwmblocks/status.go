package dwmblocks

import "time"

// Status is a snapshot of a Bar: whether it is publishing, how it is
// scheduled and the last line it delivered.
type Status struct {
	// Running is true between Start and Stop.
	Running bool
	// StartTime is when the bar last started publishing (zero if never).
	StartTime time.Time
	// Segments is the number of segments in the current configuration.
	Segments int
	// Policy is the active scheduling policy ("tick" or "timers").
	Policy string
	// Tick is the shared tick interval; zero when no segment is polled or
	// the timers policy is active.
	Tick time.Duration
	// Publishes counts status lines the sink accepted since the last start.
	Publishes uint64
	// Text is the last line the sink accepted.
	Text string
	// LastError is the most recent sink, config, watcher or scheduler error.
	LastError error
	// ConfigSource names where the segments came from: a file path, "reader"
	// or "embedded:<path>".
	ConfigSource string
}

// ErrorHandler receives sink, config, watcher and scheduler errors. Each call
// runs on its own goroutine; a panic in the handler is logged and dropped.
type ErrorHandler func(err error)

// EventHandler receives bar lifecycle events. It must not block.
type EventHandler func(event Event)

// Event is one bar lifecycle notification.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Message   string
}

// EventType identifies what happened to the bar.
type EventType int

const (
	// EventStarted: the bar started publishing.
	EventStarted EventType = iota
	// EventStopped: the bar stopped and released its sink.
	EventStopped
	// EventRestarted: the bar was stopped and started again.
	EventRestarted
	// EventConfigReloaded: a new segment list replaced the running one.
	EventConfigReloaded
	// EventError: an error was passed to the ErrorHandler.
	EventError
	// EventSinkStateChanged: the sink breaker moved between closed, open
	// and half-open.
	EventSinkStateChanged
)

// String returns the event name used in logs.
func (e EventType) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventRestarted:
		return "restarted"
	case EventConfigReloaded:
		return "config_reloaded"
	case EventError:
		return "error"
	case EventSinkStateChanged:
		return "sink_state_changed"
	default:
		return "unknown"
	}
}
