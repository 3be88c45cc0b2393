package dwmblocks

import (
	"fmt"
	"time"

	"github.com/opd-ai/go-dwmblocks/internal/profiling"
	"github.com/opd-ai/go-dwmblocks/internal/scheduler"
)

// HealthStatus represents the overall health state of a component.
type HealthStatus string

const (
	// HealthOK indicates the component is functioning normally.
	HealthOK HealthStatus = "ok"
	// HealthDegraded indicates partial functionality or non-critical issues.
	HealthDegraded HealthStatus = "degraded"
	// HealthUnhealthy indicates the component is not functioning.
	HealthUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck contains the health status of the Bar instance and its components.
type HealthCheck struct {
	// Status is the overall health status.
	Status HealthStatus

	// Timestamp is when the health check was performed.
	Timestamp time.Time

	// Uptime is the duration since the instance started (zero if not running).
	Uptime time.Duration

	// Components contains health status for individual components.
	Components map[string]ComponentHealth

	// Message provides additional context about the health status.
	Message string
}

// ComponentHealth represents the health status of an individual component.
type ComponentHealth struct {
	// Status is the health status of this component.
	Status HealthStatus

	// Message provides details about the component's state.
	Message string

	// LastUpdated is when this component was last successfully updated.
	LastUpdated time.Time
}

// IsHealthy returns true if the overall status is HealthOK.
func (h HealthCheck) IsHealthy() bool {
	return h.Status == HealthOK
}

// IsDegraded returns true if the overall status is HealthDegraded.
func (h HealthCheck) IsDegraded() bool {
	return h.Status == HealthDegraded
}

// IsUnhealthy returns true if the overall status is HealthUnhealthy.
func (h HealthCheck) IsUnhealthy() bool {
	return h.Status == HealthUnhealthy
}

// healthErrorWindow is how long a recorded error keeps the instance degraded.
const healthErrorWindow = 5 * time.Minute

// rank orders statuses from best to worst.
func (s HealthStatus) rank() int {
	switch s {
	case HealthOK:
		return 0
	case HealthDegraded:
		return 1
	default:
		return 2
	}
}

// Health returns a health check result for the instance.
func (b *barImpl) Health() HealthCheck {
	now := time.Now()
	running := b.running.Load()

	b.mu.RLock()
	startTime := b.startTime
	r := b.current
	sink := b.sink
	b.mu.RUnlock()

	var uptime time.Duration
	if running && !startTime.IsZero() {
		uptime = now.Sub(startTime)
	}

	components := map[string]ComponentHealth{
		"instance":  instanceHealth(running, now),
		"scheduler": schedulerHealth(running, r, now),
		"sink":      sinkHealth(running, sink, now),
		"errors":    b.errorsHealth(now),
		"runtime":   runtimeHealth(now),
	}

	overall := HealthOK
	for _, c := range components {
		if c.Status.rank() > overall.rank() {
			overall = c.Status
		}
	}

	var message string
	switch {
	case !running:
		message = "Instance is not running"
	case overall == HealthUnhealthy:
		message = "One or more components are failing"
	case overall == HealthDegraded:
		message = "Running with recent errors"
	default:
		message = "All components healthy"
	}

	return HealthCheck{
		Status:     overall,
		Timestamp:  now,
		Uptime:     uptime,
		Components: components,
		Message:    message,
	}
}

func instanceHealth(running bool, now time.Time) ComponentHealth {
	if running {
		return ComponentHealth{Status: HealthOK, Message: "Instance is running", LastUpdated: now}
	}
	return ComponentHealth{Status: HealthUnhealthy, Message: "Instance is not running", LastUpdated: now}
}

func schedulerHealth(running bool, r *run, now time.Time) ComponentHealth {
	switch {
	case r == nil:
		return ComponentHealth{Status: HealthUnhealthy, Message: "Scheduler not initialized", LastUpdated: now}
	case !running:
		return ComponentHealth{Status: HealthUnhealthy, Message: "Scheduler stopped", LastUpdated: now}
	case !r.sched.IsRunning():
		// Run is started asynchronously; treat the gap as degraded.
		return ComponentHealth{Status: HealthDegraded, Message: "Scheduler loop not active", LastUpdated: now}
	}

	msg := fmt.Sprintf("%d segments, %s policy", r.sched.Len(), r.sched.Policy())
	if tick := r.sched.TickInterval(); tick > 0 && r.sched.Policy() == scheduler.PolicySharedTick {
		msg += fmt.Sprintf(", tick %v", tick)
	}
	return ComponentHealth{Status: HealthOK, Message: msg, LastUpdated: now}
}

func sinkHealth(running bool, s *guardedSink, now time.Time) ComponentHealth {
	if s == nil || !running {
		return ComponentHealth{Status: HealthUnhealthy, Message: "Sink not open", LastUpdated: now}
	}

	switch s.breaker.State() {
	case BreakerOpen:
		msg := fmt.Sprintf("%s disabled after repeated failures", s.name)
		if err := s.breaker.LastFailure(); err != nil {
			msg += ": " + err.Error()
		}
		return ComponentHealth{Status: HealthUnhealthy, Message: msg, LastUpdated: now}
	case BreakerHalfOpen:
		return ComponentHealth{Status: HealthDegraded, Message: s.name + " recovering", LastUpdated: now}
	}

	if err := s.breaker.LastFailure(); err != nil {
		return ComponentHealth{Status: HealthDegraded, Message: err.Error(), LastUpdated: now}
	}
	return ComponentHealth{
		Status:      HealthOK,
		Message:     fmt.Sprintf("%s, %d lines published", s.name, s.published.Load()),
		LastUpdated: now,
	}
}

func (b *barImpl) errorsHealth(now time.Time) ComponentHealth {
	recent := b.tracker.RecentErrors(1)
	if len(recent) > 0 && now.Sub(recent[0].Timestamp) < healthErrorWindow {
		return ComponentHealth{Status: HealthDegraded, Message: recent[0].Error(), LastUpdated: now}
	}
	return ComponentHealth{Status: HealthOK, Message: "No recent errors", LastUpdated: now}
}

func runtimeHealth(now time.Time) ComponentHealth {
	return ComponentHealth{Status: HealthOK, Message: profiling.TakeSnapshot().String(), LastUpdated: now}
}
