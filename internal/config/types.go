// Package config provides configuration parsing, validation and segment
// construction for go-dwmblocks.
//
// The same schema is accepted as YAML, TOML or a Lua script assigning the
// dwmblocks.config table.
package config

// Config is the decoded configuration file.
// Pointer fields distinguish "unset" from an explicit empty value.
type Config struct {
	// LeftSeparator and RightSeparator are the defaults for every segment.
	LeftSeparator  *string `yaml:"left_separator" toml:"left_separator"`
	RightSeparator *string `yaml:"right_separator" toml:"right_separator"`
	// UpdateAllSignal is an offset from SIGRTMIN that refreshes every segment.
	UpdateAllSignal *int `yaml:"update_all_signal" toml:"update_all_signal"`
	// ScriptDir is the directory script segments are resolved against.
	ScriptDir string `yaml:"script_dir" toml:"script_dir"`
	// Scheduling selects the update policy: "tick" (default) or "timers".
	Scheduling string `yaml:"scheduling" toml:"scheduling"`
	// Colors maps color names to statuscolors escape codes (1..255).
	Colors map[string]int `yaml:"colors" toml:"colors"`
	// Coloring holds the default color names for every segment.
	Coloring ColoringConfig  `yaml:"coloring" toml:"coloring"`
	Segments []SegmentConfig `yaml:"segments" toml:"segments"`
}

// ColoringConfig names the color of each part of a segment.
// An empty name means uncolored (or inherited, for segments).
type ColoringConfig struct {
	Text           string `yaml:"text" toml:"text"`
	LeftSeparator  string `yaml:"left_separator" toml:"left_separator"`
	RightSeparator string `yaml:"right_separator" toml:"right_separator"`
	Icon           string `yaml:"icon" toml:"icon"`
}

// SegmentConfig is one entry of the segments list. Exactly one of
// Constant, Program and Script must be set.
type SegmentConfig struct {
	Constant *string `yaml:"constant" toml:"constant"`
	Program  string  `yaml:"program" toml:"program"`
	// Script is run as /bin/sh <script_dir>/<script> args...
	Script string   `yaml:"script" toml:"script"`
	Args   []string `yaml:"args" toml:"args"`

	// UpdateInterval accepts whole seconds or a duration string.
	UpdateInterval Duration `yaml:"update_interval" toml:"update_interval"`
	Signals        []int    `yaml:"signals" toml:"signals"`

	LeftSeparator  *string `yaml:"left_separator" toml:"left_separator"`
	RightSeparator *string `yaml:"right_separator" toml:"right_separator"`
	Icon           *string `yaml:"icon" toml:"icon"`
	HideIfEmpty    bool    `yaml:"hide_if_empty" toml:"hide_if_empty"`
	// Trim strips surrounding whitespace from program output. Default true.
	Trim     *bool          `yaml:"trim" toml:"trim"`
	Coloring ColoringConfig `yaml:"coloring" toml:"coloring"`
}

// KindName reports which value source the segment uses, or "" if none.
// With more than one source set, the first in constant, program, script
// order is returned; validation rejects that case.
func (s *SegmentConfig) KindName() string {
	switch {
	case s.Constant != nil:
		return "constant"
	case s.Program != "":
		return "program"
	case s.Script != "":
		return "script"
	default:
		return ""
	}
}

// sources counts how many value sources are set.
func (s *SegmentConfig) sources() int {
	n := 0
	if s.Constant != nil {
		n++
	}
	if s.Program != "" {
		n++
	}
	if s.Script != "" {
		n++
	}
	return n
}

// TrimOutput returns the effective trim setting.
func (s *SegmentConfig) TrimOutput() bool {
	if s.Trim == nil {
		return DefaultTrim
	}
	return *s.Trim
}

// HasScripts reports whether any segment is a script segment.
func (c *Config) HasScripts() bool {
	for i := range c.Segments {
		if c.Segments[i].Script != "" {
			return true
		}
	}
	return false
}
