package segment

import (
	"errors"
	"fmt"
)

// ConfigError reports a segment that cannot be constructed from its configuration.
// It is fatal: a status bar must not start with such a segment.
type ConfigError struct {
	// Segment is the index of the offending segment, or -1 when not tied to one.
	Segment int
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Segment < 0 {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("segments[%d].%s: %s", e.Segment, e.Field, e.Message)
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
