package segment

import (
	"context"
	"syscall"
	"time"
)

// ID identifies a segment by its position in the configured list.
type ID int

// Config is the resolved configuration of a single segment.
// Nil string pointers mean "not set here" and fall back to Defaults.
type Config struct {
	// Index is the segment's position in the configuration, used in errors.
	Index int
	Kind  Kind
	// Interval is the refresh period. Zero means the segment is only
	// refreshed by signals.
	Interval time.Duration
	// SignalOffsets are added to the platform's SIGRTMIN.
	SignalOffsets  []int
	LeftSeparator  *string
	RightSeparator *string
	Icon           *string
	HideIfEmpty    bool
	Coloring       Coloring
}

// Defaults are the configuration-level values a segment inherits.
type Defaults struct {
	LeftSeparator  string
	RightSeparator string
	Coloring       Coloring
	// UpdateAllSignal, when set, is an offset subscribed by every segment.
	UpdateAllSignal *int
}

// Segment is one fully resolved unit of the status line.
// It is immutable after construction and safe for concurrent Render calls.
type Segment struct {
	kind           Kind
	interval       time.Duration
	signals        []syscall.Signal
	leftSeparator  string
	rightSeparator string
	icon           string
	hideIfEmpty    bool
	coloring       Coloring
}

// New resolves cfg against defaults and the platform's real-time signal range.
// It returns a *ConfigError if the kind is missing, the interval is negative,
// or a signal offset does not map into rng.
func New(cfg Config, defaults Defaults, rng SignalRange) (*Segment, error) {
	if cfg.Kind == nil {
		return nil, &ConfigError{Segment: cfg.Index, Field: "kind", Message: "no value source configured"}
	}
	if cfg.Interval < 0 {
		return nil, &ConfigError{Segment: cfg.Index, Field: "update_interval", Message: "must not be negative"}
	}

	offsets := cfg.SignalOffsets
	if defaults.UpdateAllSignal != nil {
		offsets = append(append([]int(nil), offsets...), *defaults.UpdateAllSignal)
	}

	signals := make([]syscall.Signal, 0, len(offsets))
	seen := make(map[syscall.Signal]bool, len(offsets))
	for _, off := range offsets {
		sig, err := rng.Resolve(off)
		if err != nil {
			return nil, &ConfigError{Segment: cfg.Index, Field: "signals", Message: err.Error()}
		}
		if seen[sig] {
			continue
		}
		seen[sig] = true
		signals = append(signals, sig)
	}

	return &Segment{
		kind:           cfg.Kind,
		interval:       cfg.Interval,
		signals:        signals,
		leftSeparator:  stringOr(cfg.LeftSeparator, defaults.LeftSeparator),
		rightSeparator: stringOr(cfg.RightSeparator, defaults.RightSeparator),
		icon:           stringOr(cfg.Icon, ""),
		hideIfEmpty:    cfg.HideIfEmpty,
		coloring:       cfg.Coloring.Or(defaults.Coloring),
	}, nil
}

func stringOr(s *string, def string) string {
	if s != nil {
		return *s
	}
	return def
}

// Kind returns the segment's value source.
func (s *Segment) Kind() Kind {
	return s.kind
}

// Interval returns the refresh period, or zero for signal-only segments.
func (s *Segment) Interval() time.Duration {
	return s.interval
}

// Signals returns the concrete signals the segment is subscribed to.
func (s *Segment) Signals() []syscall.Signal {
	out := make([]syscall.Signal, len(s.signals))
	copy(out, s.signals)
	return out
}

// Coloring returns the resolved coloring.
func (s *Segment) Coloring() Coloring {
	return s.coloring
}

// Static reports whether the segment never refreshes after its first computation.
func (s *Segment) Static() bool {
	return s.interval == 0 && len(s.signals) == 0
}

// Render computes a fresh value and decorates it.
func (s *Segment) Render(ctx context.Context) string {
	return s.Format(s.kind.Compute(ctx))
}

// Format decorates value with the segment's separators, icon and colors.
// A segment with HideIfEmpty renders an empty value as the empty string.
func (s *Segment) Format(value string) string {
	if s.hideIfEmpty && value == "" {
		return ""
	}
	return s.coloring.LeftSeparator.Apply(s.leftSeparator) +
		s.coloring.Icon.Apply(s.icon) +
		s.coloring.Text.Apply(value) +
		s.coloring.RightSeparator.Apply(s.rightSeparator)
}
