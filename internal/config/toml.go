package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// parseTOML decodes content and rejects keys that match no field.
func parseTOML(content []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(content), &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML configuration: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("failed to parse TOML configuration: unknown keys: %s", strings.Join(keys, ", "))
	}
	return &cfg, nil
}
