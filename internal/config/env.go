package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// envVarPattern matches environment variable references in configuration values.
// Supports formats:
//   - ${VAR_NAME} - standard shell-like format
//   - ${VAR_NAME:-default} - with default value if unset or empty
//   - $VAR_NAME - simple format (word characters only)
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([a-zA-Z_][a-zA-Z0-9_]*)`)

// ExpandEnv expands environment variable references in a string.
// Unknown or unset variables without defaults are replaced with empty string.
func ExpandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if strings.HasPrefix(match, "${") && strings.HasSuffix(match, "}") {
			inner := match[2 : len(match)-1]

			if name, def, ok := strings.Cut(inner, ":-"); ok {
				if val := os.Getenv(name); val != "" {
					return val
				}
				return def
			}
			return os.Getenv(inner)
		}
		return os.Getenv(match[1:])
	})
}

// ExpandPath expands a leading ~ to the user's home directory and then
// environment variable references.
func ExpandPath(s string) string {
	if s == "~" || strings.HasPrefix(s, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			s = filepath.Join(home, s[1:])
		}
	}
	return ExpandEnv(s)
}

// ExpandEnvConfig expands paths in place: script_dir and every segment's
// program and script. Arguments and constants are left untouched.
func ExpandEnvConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.ScriptDir = ExpandPath(cfg.ScriptDir)
	for i := range cfg.Segments {
		seg := &cfg.Segments[i]
		seg.Program = ExpandPath(seg.Program)
		seg.Script = ExpandPath(seg.Script)
	}
}
