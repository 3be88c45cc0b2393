package config

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Format identifies a configuration file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatLua  Format = "lua"
)

// ParseFormat parses a format name. "yml" is accepted as an alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "lua":
		return FormatLua, nil
	default:
		return "", fmt.Errorf("unknown format: %s (expected 'yaml', 'toml' or 'lua')", s)
	}
}

// FormatFromPath returns the format implied by a file extension, or ""
// if the extension is not recognised.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".lua":
		return FormatLua
	default:
		return ""
	}
}

// luaConfigPattern matches "dwmblocks.config =" at the start of a line.
var luaConfigPattern = regexp.MustCompile(`(?m)^\s*dwmblocks\.config\s*=`)

// DetectFormat guesses the format of content without a file name.
// Anything that does not assign dwmblocks.config is treated as YAML.
func DetectFormat(content []byte) Format {
	if luaConfigPattern.Match(content) {
		return FormatLua
	}
	return FormatYAML
}

// Parser provides a unified interface for parsing configuration files in
// any supported format. Paths in the result have ~ and environment
// variables expanded.
type Parser struct {
	luaParser *LuaConfigParser
}

// NewParser creates a new Parser.
func NewParser() (*Parser, error) {
	luaParser, err := NewLuaConfigParser()
	if err != nil {
		return nil, fmt.Errorf("failed to create Lua parser: %w", err)
	}
	return &Parser{luaParser: luaParser}, nil
}

// ParseFile reads and parses a configuration file. The format is taken
// from the extension, or detected from the content.
func (p *Parser) ParseFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return p.parsePath(path, content)
}

// ParseFromFS reads and parses a configuration file from fsys.
func (p *Parser) ParseFromFS(fsys fs.FS, path string) (*Config, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS %s: %w", path, err)
	}
	return p.parsePath(path, content)
}

// ParseReader parses configuration from r in the given format.
func (p *Parser) ParseReader(r io.Reader, format Format) (*Config, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return p.ParseAs(content, format)
}

// Parse parses content, detecting the format.
func (p *Parser) Parse(content []byte) (*Config, error) {
	return p.ParseAs(content, DetectFormat(content))
}

// ParseAs parses content in the given format.
func (p *Parser) ParseAs(content []byte, format Format) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	switch format {
	case FormatYAML:
		cfg, err = parseYAML(content)
	case FormatTOML:
		cfg, err = parseTOML(content)
	case FormatLua:
		cfg, err = p.luaParser.Parse(content)
	default:
		return nil, fmt.Errorf("unknown format: %s (expected 'yaml', 'toml' or 'lua')", format)
	}
	if err != nil {
		return nil, err
	}
	ExpandEnvConfig(cfg)
	return cfg, nil
}

func (p *Parser) parsePath(path string, content []byte) (*Config, error) {
	format := FormatFromPath(path)
	if format == "" {
		format = DetectFormat(content)
	}
	cfg, err := p.ParseAs(content, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Close releases resources associated with the parser.
func (p *Parser) Close() error {
	if p.luaParser != nil {
		return p.luaParser.Close()
	}
	return nil
}
