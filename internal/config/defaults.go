package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Default values for configuration options.
const (
	// DefaultTrim is the trim setting of program and script segments.
	DefaultTrim = true
	// DefaultScheduling is the update policy used when none is configured.
	DefaultScheduling = "tick"
	// ScriptShell runs script segments.
	ScriptShell = "/bin/sh"
	// AppDir is the directory name under the user config directory.
	AppDir = "dwmblocks"
	// DefaultFileName is the configuration file looked up in AppDir.
	DefaultFileName = "dwmblocks.yaml"
)

// DefaultPath returns $XDG_CONFIG_HOME/dwmblocks/dwmblocks.yaml, falling
// back to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, AppDir, DefaultFileName), nil
}
