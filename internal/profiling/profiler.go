// Package profiling provides CPU and heap profiling for the -cpuprofile and
// -memprofile flags, plus cheap runtime snapshots for health reporting.
package profiling

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
)

// Config holds configuration for the profiler.
type Config struct {
	// CPUProfilePath is the CPU profile output. Empty disables CPU profiling.
	CPUProfilePath string
	// MemProfilePath is the heap profile written on Stop. Empty disables it.
	MemProfilePath string
}

// Enabled reports whether any profile is configured.
func (c Config) Enabled() bool {
	return c.CPUProfilePath != "" || c.MemProfilePath != ""
}

// Profiler records a CPU profile between Start and Stop and writes a heap
// profile on Stop. It is safe for concurrent use.
type Profiler struct {
	cfg     Config
	logger  *slog.Logger
	cpuFile *os.File
	running bool
	mu      sync.Mutex
}

// New creates a Profiler. A nil logger means slog.Default().
// The profiler is not started automatically; call Start.
func New(cfg Config, logger *slog.Logger) *Profiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Profiler{cfg: cfg, logger: logger}
}

// Start begins CPU profiling if a CPU profile path was configured.
func (p *Profiler) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return errors.New("profiler is already running")
	}

	if p.cfg.CPUProfilePath != "" {
		f, err := os.Create(p.cfg.CPUProfilePath)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile file: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		p.cpuFile = f
		p.logger.Info("CPU profiling started", "path", p.cfg.CPUProfilePath)
	}

	p.running = true
	return nil
}

// Stop ends CPU profiling and writes the heap profile if configured.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return errors.New("profiler is not running")
	}
	p.running = false

	var errs []error
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := p.cpuFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close CPU profile file: %w", err))
		} else {
			p.logger.Info("CPU profile written", "path", p.cfg.CPUProfilePath)
		}
		p.cpuFile = nil
	}

	if p.cfg.MemProfilePath != "" {
		if err := WriteHeapProfile(p.cfg.MemProfilePath); err != nil {
			errs = append(errs, err)
		} else {
			p.logger.Info("heap profile written", "path", p.cfg.MemProfilePath)
		}
	}

	return errors.Join(errs...)
}

// IsRunning reports whether the profiler is between Start and Stop.
func (p *Profiler) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// WriteHeapProfile forces a garbage collection and writes a heap profile
// to path.
func WriteHeapProfile(path string) error {
	runtime.GC()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create memory profile file: %w", err)
	}
	defer f.Close()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write memory profile: %w", err)
	}
	return nil
}
