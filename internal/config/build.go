package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/opd-ai/go-dwmblocks/internal/scheduler"
	"github.com/opd-ai/go-dwmblocks/internal/segment"
)

// Build validates cfg and resolves it into segments and a scheduling policy.
// Warnings are logged; any error is fatal and nothing is returned.
func Build(cfg *Config, rng segment.SignalRange, logger *slog.Logger) ([]*segment.Segment, scheduler.Policy, error) {
	return BuildWith(NewValidator(), cfg, rng, logger)
}

// BuildWith is Build with a caller-supplied Validator.
func BuildWith(v *Validator, cfg *Config, rng segment.SignalRange, logger *slog.Logger) ([]*segment.Segment, scheduler.Policy, error) {
	if cfg == nil {
		return nil, 0, fmt.Errorf("nil configuration")
	}
	if logger == nil {
		logger = slog.Default()
	}

	result := v.Validate(cfg)
	for _, w := range result.Warnings {
		logger.Warn("configuration warning", "field", w.Field, "message", w.Message)
	}
	if err := result.Error(); err != nil {
		return nil, 0, err
	}

	policy, err := scheduler.ParsePolicy(cfg.Scheduling)
	if err != nil {
		return nil, 0, err
	}

	defaultColoring, err := resolveColoring(cfg.Coloring, cfg.Colors)
	if err != nil {
		return nil, 0, err
	}
	defaults := segment.Defaults{
		LeftSeparator:   deref(cfg.LeftSeparator),
		RightSeparator:  deref(cfg.RightSeparator),
		Coloring:        defaultColoring,
		UpdateAllSignal: cfg.UpdateAllSignal,
	}

	segs := make([]*segment.Segment, 0, len(cfg.Segments))
	for i := range cfg.Segments {
		sc := &cfg.Segments[i]

		coloring, err := resolveColoring(sc.Coloring, cfg.Colors)
		if err != nil {
			return nil, 0, err
		}

		seg, err := segment.New(segment.Config{
			Index:          i,
			Kind:           buildKind(sc, cfg.ScriptDir, logger),
			Interval:       sc.UpdateInterval.Truncate(time.Millisecond),
			SignalOffsets:  sc.Signals,
			LeftSeparator:  sc.LeftSeparator,
			RightSeparator: sc.RightSeparator,
			Icon:           sc.Icon,
			HideIfEmpty:    sc.HideIfEmpty,
			Coloring:       coloring,
		}, defaults, rng)
		if err != nil {
			return nil, 0, err
		}
		segs = append(segs, seg)
	}

	return segs, policy, nil
}

func buildKind(sc *SegmentConfig, scriptDir string, logger *slog.Logger) segment.Kind {
	switch sc.KindName() {
	case "constant":
		return segment.NewConstant(*sc.Constant)
	case "program":
		return segment.NewCommandOutput(sc.Program, sc.Args, sc.TrimOutput(), logger)
	case "script":
		path := sc.Script
		if !filepath.IsAbs(path) {
			path = filepath.Join(scriptDir, path)
		}
		args := make([]string, 0, len(sc.Args)+1)
		args = append(args, path)
		args = append(args, sc.Args...)
		return segment.NewCommandOutput(ScriptShell, args, sc.TrimOutput(), logger)
	default:
		return nil
	}
}

// resolveColoring maps color names to escape codes.
func resolveColoring(c ColoringConfig, colors map[string]int) (segment.Coloring, error) {
	var out segment.Coloring
	fields := []struct {
		name   string
		target *segment.Color
	}{
		{c.Text, &out.Text},
		{c.LeftSeparator, &out.LeftSeparator},
		{c.RightSeparator, &out.RightSeparator},
		{c.Icon, &out.Icon},
	}
	for _, f := range fields {
		if f.name == "" {
			continue
		}
		code, ok := colors[f.name]
		if !ok {
			return segment.Coloring{}, fmt.Errorf("undefined color: %s", f.name)
		}
		if code < 1 || code > 255 {
			return segment.Coloring{}, fmt.Errorf("color %s: code must be in 1..255, got %d", f.name, code)
		}
		*f.target = segment.Colored(uint8(code))
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
