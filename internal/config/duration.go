package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a segment update interval. It decodes from a whole or
// fractional number of seconds, or from a Go duration string like "1m30s".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: update_interval must be a number of seconds or a duration string", node.Line)
	}
	if node.Tag == "!!null" {
		d.Duration = 0
		return nil
	}
	parsed, err := parseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	d.Duration = parsed
	return nil
}

// UnmarshalTOML implements toml.Unmarshaler.
func (d *Duration) UnmarshalTOML(v any) error {
	var (
		parsed time.Duration
		err    error
	)
	switch val := v.(type) {
	case int64:
		parsed, err = secondsDuration(float64(val))
	case float64:
		parsed, err = secondsDuration(val)
	case string:
		parsed, err = parseDuration(val)
	default:
		err = fmt.Errorf("invalid update_interval %v: expected seconds or a duration string", v)
	}
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return secondsDuration(secs)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("negative duration %q not allowed", s)
	}
	return parsed, nil
}

func secondsDuration(secs float64) (time.Duration, error) {
	if secs < 0 || math.IsNaN(secs) {
		return 0, fmt.Errorf("negative duration %v not allowed", secs)
	}
	if secs > math.MaxInt64/float64(time.Second) {
		return 0, fmt.Errorf("duration %v seconds is too large", secs)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
