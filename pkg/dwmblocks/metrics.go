package dwmblocks

import (
	"expvar"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-dwmblocks/internal/scheduler"
	"github.com/opd-ai/go-dwmblocks/internal/segment"
)

// Metrics provides application-level metrics collection for go-dwmblocks.
// It uses Go's expvar package for exposition, which can be accessed via the
// /debug/vars HTTP endpoint when an HTTP server is running.
//
// Metrics implements the scheduler's event recorder, so segment computations,
// signals and publishes are counted as they happen.
//
// Thread-safe for concurrent use.
type Metrics struct {
	// Lifecycle counters
	starts        atomic.Int64
	stops         atomic.Int64
	restarts      atomic.Int64
	configReloads atomic.Int64
	eventsEmitted atomic.Int64

	// Scheduler counters
	computations        atomic.Int64
	slowComputations    atomic.Int64
	signalsReceived     atomic.Int64
	publishes           atomic.Int64
	suppressedPublishes atomic.Int64
	sinkRejections      atomic.Int64
	errorsTotal         atomic.Int64

	// Latency tracking (stored as nanoseconds)
	computeLatencyNs    atomic.Int64
	computeLatencyCount atomic.Int64

	// Current state gauges
	currentlyRunning atomic.Int32
	activeSegments   atomic.Int32

	// Registration tracking to prevent duplicate expvar registration
	registered atomic.Bool
}

var _ scheduler.Recorder = (*Metrics)(nil)

// NewMetrics creates a new Metrics instance.
// Call RegisterExpvar() to expose metrics via the /debug/vars endpoint.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RegisterExpvar registers all metrics with Go's expvar package.
// This makes metrics available at /debug/vars when an HTTP server is running.
// Safe to call multiple times; subsequent calls are no-ops.
func (m *Metrics) RegisterExpvar() {
	if m.registered.Swap(true) {
		return // Already registered
	}

	// Counters
	expvar.Publish("dwmblocks_starts_total", expvar.Func(func() any { return m.starts.Load() }))
	expvar.Publish("dwmblocks_stops_total", expvar.Func(func() any { return m.stops.Load() }))
	expvar.Publish("dwmblocks_restarts_total", expvar.Func(func() any { return m.restarts.Load() }))
	expvar.Publish("dwmblocks_config_reloads_total", expvar.Func(func() any { return m.configReloads.Load() }))
	expvar.Publish("dwmblocks_events_emitted_total", expvar.Func(func() any { return m.eventsEmitted.Load() }))
	expvar.Publish("dwmblocks_computations_total", expvar.Func(func() any { return m.computations.Load() }))
	expvar.Publish("dwmblocks_slow_computations_total", expvar.Func(func() any { return m.slowComputations.Load() }))
	expvar.Publish("dwmblocks_signals_total", expvar.Func(func() any { return m.signalsReceived.Load() }))
	expvar.Publish("dwmblocks_publishes_total", expvar.Func(func() any { return m.publishes.Load() }))
	expvar.Publish("dwmblocks_suppressed_publishes_total", expvar.Func(func() any { return m.suppressedPublishes.Load() }))
	expvar.Publish("dwmblocks_sink_rejections_total", expvar.Func(func() any { return m.sinkRejections.Load() }))
	expvar.Publish("dwmblocks_errors_total", expvar.Func(func() any { return m.errorsTotal.Load() }))

	// Gauges
	expvar.Publish("dwmblocks_running", expvar.Func(func() any { return m.currentlyRunning.Load() }))
	expvar.Publish("dwmblocks_segments", expvar.Func(func() any { return m.activeSegments.Load() }))

	// Latency averages (milliseconds)
	expvar.Publish("dwmblocks_compute_latency_avg_ms", expvar.Func(func() any {
		count := m.computeLatencyCount.Load()
		if count == 0 {
			return float64(0)
		}
		return float64(m.computeLatencyNs.Load()) / float64(count) / 1e6
	}))
}

// Snapshot returns a point-in-time copy of all metrics.
// Useful for testing or custom metric exposition.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Starts:        m.starts.Load(),
		Stops:         m.stops.Load(),
		Restarts:      m.restarts.Load(),
		ConfigReloads: m.configReloads.Load(),
		EventsEmitted: m.eventsEmitted.Load(),

		Computations:        m.computations.Load(),
		SlowComputations:    m.slowComputations.Load(),
		SignalsReceived:     m.signalsReceived.Load(),
		Publishes:           m.publishes.Load(),
		SuppressedPublishes: m.suppressedPublishes.Load(),
		SinkRejections:      m.sinkRejections.Load(),
		ErrorsTotal:         m.errorsTotal.Load(),

		Running:  m.currentlyRunning.Load() > 0,
		Segments: int(m.activeSegments.Load()),

		ComputeLatencyAvg: safeDivide(m.computeLatencyNs.Load(), m.computeLatencyCount.Load()),
	}
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	// Lifecycle counters
	Starts        int64
	Stops         int64
	Restarts      int64
	ConfigReloads int64
	EventsEmitted int64

	// Scheduler counters
	Computations        int64
	SlowComputations    int64
	SignalsReceived     int64
	Publishes           int64
	SuppressedPublishes int64
	SinkRejections      int64
	ErrorsTotal         int64

	// Gauges
	Running  bool
	Segments int

	// ComputeLatencyAvg is the mean segment computation time.
	ComputeLatencyAvg time.Duration
}

// Lifecycle counters

// IncrementStarts records a start operation.
func (m *Metrics) IncrementStarts() {
	m.starts.Add(1)
}

// IncrementStops records a stop operation.
func (m *Metrics) IncrementStops() {
	m.stops.Add(1)
}

// IncrementRestarts records a restart operation.
func (m *Metrics) IncrementRestarts() {
	m.restarts.Add(1)
}

// IncrementConfigReloads records a configuration reload.
func (m *Metrics) IncrementConfigReloads() {
	m.configReloads.Add(1)
}

// IncrementEventsEmitted records an event emission.
func (m *Metrics) IncrementEventsEmitted() {
	m.eventsEmitted.Add(1)
}

// Scheduler events

// RecordComputation records one finished segment computation.
func (m *Metrics) RecordComputation(_ segment.ID, d time.Duration) {
	m.computations.Add(1)
	m.computeLatencyNs.Add(d.Nanoseconds())
	m.computeLatencyCount.Add(1)
}

// IncrementSlowComputations records a computation that outlasted its interval.
func (m *Metrics) IncrementSlowComputations() {
	m.slowComputations.Add(1)
}

// IncrementSignals records a signal routed to a segment.
func (m *Metrics) IncrementSignals() {
	m.signalsReceived.Add(1)
}

// IncrementPublishes records a status line handed to the publisher.
func (m *Metrics) IncrementPublishes() {
	m.publishes.Add(1)
}

// IncrementSuppressedPublishes records a recomposition that produced the
// already published line.
func (m *Metrics) IncrementSuppressedPublishes() {
	m.suppressedPublishes.Add(1)
}

// IncrementSinkRejections records a publish refused by the open circuit
// breaker.
func (m *Metrics) IncrementSinkRejections() {
	m.sinkRejections.Add(1)
}

// IncrementErrors records an error occurrence.
func (m *Metrics) IncrementErrors() {
	m.errorsTotal.Add(1)
}

// Gauge methods

// SetRunning updates the running state gauge.
func (m *Metrics) SetRunning(running bool) {
	if running {
		m.currentlyRunning.Store(1)
	} else {
		m.currentlyRunning.Store(0)
	}
}

// SetSegments updates the configured segment gauge.
func (m *Metrics) SetSegments(count int) {
	m.activeSegments.Store(int32(count))
}

// Reset clears all metrics. Useful for testing.
func (m *Metrics) Reset() {
	m.starts.Store(0)
	m.stops.Store(0)
	m.restarts.Store(0)
	m.configReloads.Store(0)
	m.eventsEmitted.Store(0)

	m.computations.Store(0)
	m.slowComputations.Store(0)
	m.signalsReceived.Store(0)
	m.publishes.Store(0)
	m.suppressedPublishes.Store(0)
	m.sinkRejections.Store(0)
	m.errorsTotal.Store(0)

	m.computeLatencyNs.Store(0)
	m.computeLatencyCount.Store(0)

	m.currentlyRunning.Store(0)
	m.activeSegments.Store(0)
}

// safeDivide performs safe division, returning 0 for divide by zero.
func safeDivide(total, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total / count)
}

// defaultMetrics is a global metrics instance for convenience.
var defaultMetrics = NewMetrics()

// DefaultMetrics returns the global default Metrics instance.
// This can be used when a single application-wide metrics collector is sufficient.
func DefaultMetrics() *Metrics {
	return defaultMetrics
}
