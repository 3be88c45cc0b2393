// Package main provides the entry point for dwmblocks-go, a modular status
// bar for dwm-like window managers. The status line is written to the X11
// root window name, or to stdout with -p.
package main

import (
	"errors"
	"expvar"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/opd-ai/go-dwmblocks/internal/config"
	"github.com/opd-ai/go-dwmblocks/internal/profiling"
	"github.com/opd-ai/go-dwmblocks/internal/scheduler"
	"github.com/opd-ai/go-dwmblocks/internal/signals"
	"github.com/opd-ai/go-dwmblocks/pkg/dwmblocks"
)

// Version is the current version of dwmblocks-go.
// This default value can be overridden at build time using:
//
//	go build -ldflags "-X main.Version=x.y.z"
var Version = "0.1.0-dev"

type cliOptions struct {
	configPath  string
	print       bool
	stripColors bool
	display     string
	watch       bool
	version     bool
	signal      int
	policy      string
	strict      bool
	logLevel    string
	logJSON     bool
	debugAddr   string
	cpuProfile  string
	memProfile  string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*cliOptions, error) {
	opts := &cliOptions{}
	fs := flag.NewFlagSet("dwmblocks-go", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "c", "", "Path to configuration file (.yaml, .toml or .lua)")
	fs.BoolVar(&opts.print, "p", false, "Print the status line to stdout instead of the root window")
	fs.BoolVar(&opts.stripColors, "no-color", false, "Strip color escapes in print mode")
	fs.StringVar(&opts.display, "d", "", "X display to use (default $DISPLAY)")
	fs.BoolVar(&opts.watch, "w", false, "Reload the configuration when the file changes")
	fs.BoolVar(&opts.version, "v", false, "Print version and exit")
	fs.IntVar(&opts.signal, "signal", -1, "Send SIGRTMIN+N to the running instance and exit")
	fs.StringVar(&opts.policy, "policy", "", "Override the scheduling policy (tick or timers)")
	fs.BoolVar(&opts.strict, "strict", false, "Treat configuration warnings as errors")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.BoolVar(&opts.logJSON, "log-json", false, "Write logs as JSON")
	fs.StringVar(&opts.debugAddr, "debug-addr", "", "Serve expvar metrics on this address under /debug/vars")
	fs.StringVar(&opts.cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	fs.StringVar(&opts.memProfile, "memprofile", "", "Write memory profile to file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.policy != "" {
		if _, err := scheduler.ParsePolicy(opts.policy); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

func newLogger(level string, asJSON bool, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid -log-level %q: %w", level, err)
	}
	hopts := &slog.HandlerOptions{Level: lvl}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	}
	return slog.New(slog.NewTextHandler(w, hopts)), nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "dwmblocks-go version %s\n", Version)
		return 0
	}

	if opts.signal >= 0 {
		return runSignal(opts.signal, pidFilePath(), stderr)
	}

	logger, err := newLogger(opts.logLevel, opts.logJSON, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	profiler := profiling.New(profiling.Config{
		CPUProfilePath: opts.cpuProfile,
		MemProfilePath: opts.memProfile,
	}, logger)
	if err := profiler.Start(); err != nil {
		fmt.Fprintf(stderr, "Failed to start profiling: %v\n", err)
		return 1
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			fmt.Fprintf(stderr, "Warning: failed to stop profiling: %v\n", err)
		}
	}()

	return serve(opts, logger, stdout, stderr)
}

// runSignal implements -signal: it notifies the instance recorded in the
// PID file and exits.
func runSignal(offset int, pidPath string, stderr io.Writer) int {
	pid, err := readPIDFile(pidPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if !signals.Alive(pid) {
		fmt.Fprintf(stderr, "Error: no process with pid %d (stale pid file %s)\n", pid, pidPath)
		return 1
	}
	if err := signals.Send(pid, offset, signals.PlatformRange()); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func serve(opts *cliOptions, logger *slog.Logger, stdout, stderr io.Writer) int {
	configPath := opts.configPath
	if configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		configPath = p
	}
	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(stderr, "Configuration file not found: %s\n", configPath)
		} else {
			fmt.Fprintf(stderr, "Error accessing configuration file %s: %v\n", configPath, err)
		}
		return 1
	}

	metrics := dwmblocks.NewMetrics()
	tracker := dwmblocks.NewErrorTracker(dwmblocks.DefaultErrorTrackerConfig())
	tracker.AddCondition(dwmblocks.AlertCondition{
		Category:  dwmblocks.ErrorCategorySink,
		Threshold: 5,
		Window:    time.Minute,
	})
	tracker.SetAlertHandler(func(cond dwmblocks.AlertCondition, n int, recent []dwmblocks.CategorizedError) {
		last := ""
		if len(recent) > 0 {
			last = recent[len(recent)-1].Err.Error()
		}
		logger.Error("repeated errors", "category", cond.Category.String(), "count", n,
			"window", cond.Window, "last", last)
	})

	barOpts := dwmblocks.DefaultOptions()
	barOpts.Print = opts.print
	barOpts.StripColors = opts.stripColors
	barOpts.Display = opts.display
	barOpts.Policy = opts.policy
	barOpts.StrictValidation = opts.strict
	barOpts.WatchConfig = opts.watch
	barOpts.Logger = dwmblocks.NewSlogAdapter(logger)
	barOpts.Metrics = metrics
	barOpts.ErrorTracker = tracker
	if opts.print {
		barOpts.Output = stdout
	}

	bar, err := dwmblocks.New(configPath, &barOpts)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating status bar: %v\n", err)
		return 1
	}

	bar.SetErrorHandler(func(err error) {
		fmt.Fprintf(stderr, "Warning: %v\n", err)
	})
	bar.SetEventHandler(func(e dwmblocks.Event) {
		logger.Debug("event", "type", e.Type.String(), "message", e.Message,
			"time", e.Timestamp.Format("15:04:05"))
	})

	pidPath := pidFilePath()
	if pid, alive := runningInstance(pidPath); alive && pid != os.Getpid() {
		logger.Warn("another instance appears to be running", "pid", pid, "pid_file", pidPath)
	}

	if err := bar.Start(); err != nil {
		fmt.Fprintf(stderr, "Failed to start: %v\n", err)
		return 1
	}

	pid := os.Getpid()
	if err := writePIDFile(pidPath, pid); err != nil {
		logger.Warn("signal helper unavailable", "error", err)
	} else {
		defer removePIDFile(pidPath, pid)
	}

	if opts.debugAddr != "" {
		metrics.RegisterExpvar()
		go serveDebug(opts.debugAddr, logger)
	}

	logger.Info("dwmblocks-go started", "version", Version, "config", configPath, "pid", pid)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for sig := range sigCh {
		switch sig {
		case syscall.SIGHUP:
			logger.Info("received SIGHUP, reloading configuration")
			if err := bar.ReloadConfig(); err != nil {
				fmt.Fprintf(stderr, "Reload failed: %v\n", err)
			}
		default:
			logger.Info("shutting down", "signal", sig.String())
			if err := bar.Stop(); err != nil {
				fmt.Fprintf(stderr, "Stop error: %v\n", err)
			}
			return 0
		}
	}

	return 0
}

func serveDebug(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/debug/vars", expvar.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("serving metrics", "addr", addr, "path", "/debug/vars")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", "error", err)
	}
}
