package dwmblocks

import (
	"path/filepath"
	"testing"
	"time"
)

func TestHealthCheckPredicates(t *testing.T) {
	tests := []struct {
		status HealthStatus
		want   [3]bool
	}{
		{HealthOK, [3]bool{true, false, false}},
		{HealthDegraded, [3]bool{false, true, false}},
		{HealthUnhealthy, [3]bool{false, false, true}},
	}
	for _, tt := range tests {
		h := HealthCheck{Status: tt.status}
		got := [3]bool{h.IsHealthy(), h.IsDegraded(), h.IsUnhealthy()}
		if got != tt.want {
			t.Errorf("%s: predicates = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestHealthStatusRank(t *testing.T) {
	if !(HealthOK.rank() < HealthDegraded.rank() && HealthDegraded.rank() < HealthUnhealthy.rank()) {
		t.Error("ranks must order ok < degraded < unhealthy")
	}
}

func TestHealth_NotRunning(t *testing.T) {
	b := newTestBar(t, twoConstants, testOptions(&recordingPublisher{}))

	h := b.Health()
	if !h.IsUnhealthy() {
		t.Errorf("Status = %s, want unhealthy", h.Status)
	}
	if h.Uptime != 0 {
		t.Errorf("Uptime = %v, want 0", h.Uptime)
	}
	if h.Message != "Instance is not running" {
		t.Errorf("Message = %q", h.Message)
	}
	for _, name := range []string{"instance", "scheduler", "sink", "errors", "runtime"} {
		if _, ok := h.Components[name]; !ok {
			t.Errorf("missing component %q", name)
		}
	}
}

func TestHealth_Running(t *testing.T) {
	b := newTestBar(t, `
segments:
  - constant: a
    update_interval: 2
  - constant: b
    update_interval: 3
`, testOptions(&recordingPublisher{}))
	if err := b.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitFor(t, "first publish", func() bool { return b.Text() == "ab" })
	time.Sleep(10 * time.Millisecond)

	h := b.Health()
	if !h.IsHealthy() {
		t.Fatalf("Status = %s, components = %+v", h.Status, h.Components)
	}
	if h.Uptime <= 0 {
		t.Error("Uptime should be positive while running")
	}
	if got := h.Components["scheduler"].Message; got != "2 segments, tick policy, tick 1s" {
		t.Errorf("scheduler message = %q", got)
	}
	if got := h.Components["sink"].Message; got != "custom publisher, 1 lines published" {
		t.Errorf("sink message = %q", got)
	}
	if h.Components["runtime"].Message == "" {
		t.Error("runtime component should describe the process")
	}
}

func TestHealth_DegradedAfterError(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "segments:\n  - constant: x\n")
	b, err := New(path, testOptions(&recordingPublisher{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer b.Stop()
	if err := b.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitFor(t, "first publish", func() bool { return b.Text() == "x" })

	writeConfig(t, filepath.Dir(path), "segments: [")
	if err := b.ReloadConfig(); err == nil {
		t.Fatal("expected reload error")
	}

	h := b.Health()
	if !h.IsDegraded() {
		t.Errorf("Status = %s, want degraded", h.Status)
	}
	if h.Components["errors"].Status != HealthDegraded {
		t.Errorf("errors component = %+v", h.Components["errors"])
	}
}

func TestHealth_AfterStop(t *testing.T) {
	b := newTestBar(t, twoConstants, testOptions(&recordingPublisher{}))
	if err := b.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := b.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	h := b.Health()
	if !h.IsUnhealthy() {
		t.Errorf("Status = %s, want unhealthy", h.Status)
	}
	if got := h.Components["scheduler"].Message; got != "Scheduler stopped" {
		t.Errorf("scheduler message = %q", got)
	}
}
