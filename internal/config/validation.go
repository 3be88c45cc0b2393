package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
// It contains the field name and a description of the issue.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the results of a configuration validation.
type ValidationResult struct {
	// Errors contains all validation errors found.
	Errors []ValidationError
	// Warnings contains non-fatal issues (e.g., static segments).
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (vr *ValidationResult) IsValid() bool {
	return len(vr.Errors) == 0
}

// Error returns a combined error message if there are errors, nil otherwise.
func (vr *ValidationResult) Error() error {
	if len(vr.Errors) == 0 {
		return nil
	}

	messages := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		messages = append(messages, e.Error())
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// AddError adds a validation error.
func (vr *ValidationResult) AddError(field, message string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (vr *ValidationResult) AddWarning(field, message string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Message: message})
}

// Merge combines another ValidationResult into this one.
func (vr *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	vr.Errors = append(vr.Errors, other.Errors...)
	vr.Warnings = append(vr.Warnings, other.Warnings...)
}

// Validator checks a decoded Config before segments are built.
type Validator struct {
	// strictMode turns warnings into errors.
	strictMode bool
	// checkScriptDir controls whether script_dir must exist on disk.
	checkScriptDir bool
}

// NewValidator creates a new Validator with default settings.
func NewValidator() *Validator {
	return &Validator{checkScriptDir: true}
}

// WithStrictMode enables strict validation where warnings are errors.
func (v *Validator) WithStrictMode(strict bool) *Validator {
	v.strictMode = strict
	return v
}

// WithScriptDirCheck controls whether script_dir is checked on disk.
func (v *Validator) WithScriptDirCheck(check bool) *Validator {
	v.checkScriptDir = check
	return v
}

// Validate performs validation of a Config.
func (v *Validator) Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}

	v.validateGlobal(cfg, result)
	v.validateColors(cfg, result)
	v.validateColoring("coloring", &cfg.Coloring, cfg.Colors, result)

	if len(cfg.Segments) == 0 {
		v.warn(result, "segments", "no segments configured, the status text will be empty")
	}
	for i := range cfg.Segments {
		v.validateSegment(cfg, i, result)
	}

	return result
}

func (v *Validator) warn(result *ValidationResult, field, message string) {
	if v.strictMode {
		result.AddError(field, message)
		return
	}
	result.AddWarning(field, message)
}

func (v *Validator) validateGlobal(cfg *Config, result *ValidationResult) {
	if cfg.UpdateAllSignal != nil && *cfg.UpdateAllSignal < 0 {
		result.AddError("update_all_signal", fmt.Sprintf("must be non-negative, got %d", *cfg.UpdateAllSignal))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Scheduling)) {
	case "", "tick", "timers":
	default:
		result.AddError("scheduling", fmt.Sprintf("unknown policy %q (expected 'tick' or 'timers')", cfg.Scheduling))
	}

	if !cfg.HasScripts() || !v.checkScriptDir {
		return
	}
	if cfg.ScriptDir == "" {
		result.AddError("script_dir", "required when script segments are configured")
		return
	}
	info, err := os.Stat(cfg.ScriptDir)
	if err != nil || !info.IsDir() {
		result.AddError("script_dir", fmt.Sprintf("script directory '%s' does not exist", cfg.ScriptDir))
	}
}

func (v *Validator) validateColors(cfg *Config, result *ValidationResult) {
	names := make([]string, 0, len(cfg.Colors))
	for name := range cfg.Colors {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		code := cfg.Colors[name]
		if code < 1 || code > 255 {
			result.AddError("colors."+name, fmt.Sprintf("code must be in 1..255, got %d", code))
		}
	}
}

func (v *Validator) validateColoring(prefix string, c *ColoringConfig, colors map[string]int, result *ValidationResult) {
	fields := []struct {
		key  string
		name string
	}{
		{"text", c.Text},
		{"left_separator", c.LeftSeparator},
		{"right_separator", c.RightSeparator},
		{"icon", c.Icon},
	}
	for _, f := range fields {
		if f.name == "" {
			continue
		}
		if _, ok := colors[f.name]; !ok {
			result.AddError(prefix+"."+f.key, fmt.Sprintf("undefined color: %s", f.name))
		}
	}
}

func (v *Validator) validateSegment(cfg *Config, i int, result *ValidationResult) {
	seg := &cfg.Segments[i]
	field := func(name string) string {
		return fmt.Sprintf("segments[%d].%s", i, name)
	}

	switch seg.sources() {
	case 0:
		result.AddError(field("kind"), "one of constant, program or script is required")
	case 1:
	default:
		result.AddError(field("kind"), "only one of constant, program or script may be set")
	}

	if seg.Constant != nil && len(seg.Args) > 0 {
		result.AddError(field("args"), "not allowed for constant segments")
	}
	if seg.Constant != nil && seg.Trim != nil {
		v.warn(result, field("trim"), "has no effect on constant segments")
	}

	interval := seg.UpdateInterval.Duration
	switch {
	case interval < 0:
		result.AddError(field("update_interval"), fmt.Sprintf("must be non-negative, got %v", interval))
	case interval > 0 && interval < time.Millisecond:
		result.AddError(field("update_interval"), fmt.Sprintf("must be at least 1ms, got %v", interval))
	case interval%time.Millisecond != 0:
		v.warn(result, field("update_interval"), fmt.Sprintf("%v is truncated to whole milliseconds", interval))
	}

	for j, off := range seg.Signals {
		if off < 0 {
			result.AddError(fmt.Sprintf("segments[%d].signals[%d]", i, j), fmt.Sprintf("must be non-negative, got %d", off))
		}
	}

	if interval == 0 && len(seg.Signals) == 0 && cfg.UpdateAllSignal == nil && seg.Constant == nil {
		v.warn(result, field("update_interval"), "no interval or signals, the segment is computed once at startup")
	}

	v.validateColoring(fmt.Sprintf("segments[%d].coloring", i), &seg.Coloring, cfg.Colors, result)
}

// ValidateConfig validates cfg with default settings and returns an error
// if any validation errors are found.
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg).Error()
}
