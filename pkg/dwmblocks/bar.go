package dwmblocks

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"

	"github.com/opd-ai/go-dwmblocks/internal/config"
)

// Configuration format constants for use with NewFromReader.
const (
	// FormatYAML indicates a YAML configuration.
	FormatYAML = string(config.FormatYAML)
	// FormatTOML indicates a TOML configuration.
	FormatTOML = string(config.FormatTOML)
	// FormatLua indicates a Lua script assigning dwmblocks.config.
	FormatLua = string(config.FormatLua)
)

// Bar represents an embedded status bar with full lifecycle control.
// It is safe for concurrent use from multiple goroutines.
type Bar interface {
	// Start computes every segment, publishes the first status line and
	// keeps it updated in background goroutines. It returns an error if
	// already running, if the configuration is invalid or if the sink
	// cannot be opened; nothing is published in that case.
	Start() error

	// Stop cancels in-flight segment programs, waits for all goroutines
	// and closes the sink. Safe to call multiple times.
	Stop() error

	// Restart performs a stop followed by a start.
	// Configuration is reloaded from the original source.
	Restart() error

	// ReloadConfig loads the configuration again and replaces the running
	// segment set on the same sink. If the new configuration is invalid
	// the previous segments keep running and the error is returned.
	ReloadConfig() error

	// IsRunning returns true if the bar is currently running.
	IsRunning() bool

	// Status returns detailed status information about the instance.
	Status() Status

	// Text returns the last published status line.
	Text() string

	// Trigger recomputes segment index immediately, exactly as if one of
	// its signals had arrived.
	Trigger(index int) error

	// SetErrorHandler registers a callback for runtime errors.
	// The handler is invoked asynchronously and recovered if it panics.
	SetErrorHandler(handler ErrorHandler)

	// SetEventHandler registers a callback for lifecycle events.
	SetEventHandler(handler EventHandler)

	// Health returns a health check result for the instance.
	Health() HealthCheck

	// Metrics returns the metrics collector for this instance.
	Metrics() *Metrics
}

// loader parses the configuration with a fresh parser on every call, so a
// Lua configuration never sees state left over from a previous load.
func loader(parse func(*config.Parser) (*config.Config, error)) func() (*config.Config, error) {
	return func() (*config.Config, error) {
		p, err := config.NewParser()
		if err != nil {
			return nil, fmt.Errorf("parser init: %w", err)
		}
		defer p.Close()
		return parse(p)
	}
}

// New creates a Bar from a configuration file on disk. The format is taken
// from the extension (.yaml, .yml, .toml, .lua) or detected from the
// content. The bar is created but not started; call Start.
//
// Example:
//
//	bar, err := dwmblocks.New(os.ExpandEnv("$HOME/.config/dwmblocks/dwmblocks.yaml"), nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer bar.Stop()
//	if err := bar.Start(); err != nil {
//		log.Fatal(err)
//	}
func New(configPath string, opts *Options) (Bar, error) {
	load := loader(func(p *config.Parser) (*config.Config, error) {
		return p.ParseFile(configPath)
	})
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	b := newBar(cfg, opts, configPath, load)
	b.configPath = configPath
	return b, nil
}

// NewFromFS creates a Bar using configuration from a filesystem such as an
// embed.FS. Reloads read the file from fsys again.
func NewFromFS(fsys fs.FS, configPath string, opts *Options) (Bar, error) {
	load := loader(func(p *config.Parser) (*config.Config, error) {
		return p.ParseFromFS(fsys, configPath)
	})
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("parse config from FS: %w", err)
	}
	return newBar(cfg, opts, "embedded:"+configPath, load), nil
}

// NewFromReader creates a Bar from configuration content provided as an
// io.Reader. The format is one of FormatYAML, FormatTOML or FormatLua.
// The content is read once and kept for reloads.
//
// Example:
//
//	cfg := strings.NewReader(`
//	segments:
//	  - program: date
//	    args: ["+%H:%M"]
//	    update_interval: 30
//	`)
//	bar, err := dwmblocks.NewFromReader(cfg, dwmblocks.FormatYAML, nil)
func NewFromReader(r io.Reader, format string, opts *Options) (Bar, error) {
	f, err := config.ParseFormat(format)
	if err != nil {
		return nil, fmt.Errorf("invalid format: %w", err)
	}

	// Read content once (can't re-read a Reader)
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	load := loader(func(p *config.Parser) (*config.Config, error) {
		return p.ParseReader(bytes.NewReader(content), f)
	})
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return newBar(cfg, opts, "reader", load), nil
}

func newBar(cfg *config.Config, opts *Options, source string, load func() (*config.Config, error)) *barImpl {
	if opts == nil {
		defaultOpts := DefaultOptions()
		opts = &defaultOpts
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = DefaultMetrics()
	}
	tracker := opts.ErrorTracker
	if tracker == nil {
		tracker = NewErrorTracker(DefaultErrorTrackerConfig())
	}

	return &barImpl{
		cfg:          cfg,
		opts:         *opts,
		configSource: source,
		configLoader: load,
		logger:       slogLogger(opts.Logger),
		metrics:      metrics,
		tracker:      tracker,
	}
}
