package config

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"
	"gopkg.in/yaml.v3"
)

// LuaConfigParser parses Lua configuration scripts. The script assigns the
// dwmblocks.config table, which is converted to a YAML document and decoded
// with the same strict rules as a YAML file.
type LuaConfigParser struct {
	runtime *rt.Runtime
	cleanup func()
	mu      sync.Mutex
}

// NewLuaConfigParser creates a new LuaConfigParser with a fresh Lua runtime.
func NewLuaConfigParser() (*LuaConfigParser, error) {
	return NewLuaConfigParserWithOutput(io.Discard)
}

// NewLuaConfigParserWithOutput creates a LuaConfigParser whose print output
// goes to stdout.
func NewLuaConfigParserWithOutput(stdout io.Writer) (*LuaConfigParser, error) {
	if stdout == nil {
		stdout = os.Stdout
	}

	runtime := rt.New(stdout)
	cleanup := lib.LoadAll(runtime)

	return &LuaConfigParser{
		runtime: runtime,
		cleanup: cleanup,
	}, nil
}

// Parse executes content and decodes the resulting dwmblocks.config table.
func (p *LuaConfigParser) Parse(content []byte) (*Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.initGlobal()

	closure, err := p.runtime.CompileAndLoadLuaChunk(
		"config",
		content,
		rt.TableValue(p.runtime.GlobalEnv()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile Lua configuration: %w", err)
	}

	// CallContext turns a limit violation into an error instead of a panic.
	limits := rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    10_000_000,
			Memory: 50 * 1024 * 1024, // 50 MB
		},
	}
	_, err = p.runtime.MainThread().CallContext(limits, func() error {
		_, err := rt.Call1(p.runtime.MainThread(), rt.FunctionValue(closure))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute Lua configuration: %w", err)
	}

	return p.extractConfig()
}

// initGlobal resets the dwmblocks global so state from a previous parse
// does not leak into this one.
func (p *LuaConfigParser) initGlobal() {
	global := rt.NewTable()
	global.Set(rt.StringValue("config"), rt.TableValue(rt.NewTable()))
	p.runtime.GlobalEnv().Set(rt.StringValue("dwmblocks"), rt.TableValue(global))
}

func (p *LuaConfigParser) extractConfig() (*Config, error) {
	globalVal := p.runtime.GlobalEnv().Get(rt.StringValue("dwmblocks"))
	if globalVal == rt.NilValue {
		return &Config{}, nil
	}
	global, ok := globalVal.TryTable()
	if !ok {
		return nil, fmt.Errorf("dwmblocks is not a table")
	}

	configVal := global.Get(rt.StringValue("config"))
	if configVal == rt.NilValue {
		return &Config{}, nil
	}
	if _, ok := configVal.TryTable(); !ok {
		return nil, fmt.Errorf("dwmblocks.config is not a table")
	}

	node, err := luaToNode(configVal, "dwmblocks.config", 0)
	if err != nil {
		return nil, err
	}
	content, err := yaml.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("failed to convert Lua configuration: %w", err)
	}
	return parseYAML(content)
}

// Close releases resources associated with the parser's Lua runtime.
func (p *LuaConfigParser) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
	return nil
}

// maxTableDepth bounds nesting so self-referencing tables are rejected.
const maxTableDepth = 16

// luaToNode converts a Lua value into a YAML node. Tables whose keys are
// exactly 1..n become sequences, other tables become mappings with string
// keys. Empty tables become null so they decode into either shape.
func luaToNode(v rt.Value, path string, depth int) (*yaml.Node, error) {
	switch v.Type() {
	case rt.NilType:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case rt.BoolType:
		b, _ := v.TryBool()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}, nil
	case rt.IntType:
		n, _ := v.TryInt()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(n, 10)}, nil
	case rt.FloatType:
		f, _ := v.TryFloat()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(f, 'g', -1, 64)}, nil
	case rt.StringType:
		s, _ := v.TryString()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}, nil
	case rt.TableType:
		if depth >= maxTableDepth {
			return nil, fmt.Errorf("%s: tables nested too deeply", path)
		}
		t, _ := v.TryTable()
		return tableToNode(t, path, depth+1)
	default:
		return nil, fmt.Errorf("%s: functions, threads and userdata are not configuration values", path)
	}
}

func tableToNode(t *rt.Table, path string, depth int) (*yaml.Node, error) {
	count := 0
	var keys []string
	for k, _, ok := t.Next(rt.NilValue); ok && k != rt.NilValue; k, _, ok = t.Next(k) {
		count++
		if k.Type() == rt.StringType {
			s, _ := k.TryString()
			keys = append(keys, s)
		}
	}

	if count == 0 {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}

	if len(keys) == 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i := 1; i <= count; i++ {
			item := t.Get(rt.IntValue(int64(i)))
			if item == rt.NilValue {
				return nil, fmt.Errorf("%s: array has a hole at index %d", path, i)
			}
			child, err := luaToNode(item, fmt.Sprintf("%s[%d]", path, i), depth)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, child)
		}
		return seq, nil
	}

	if len(keys) != count {
		return nil, fmt.Errorf("%s: table mixes array items and named keys", path)
	}

	sort.Strings(keys)
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range keys {
		child, err := luaToNode(t.Get(rt.StringValue(key)), path+"."+key, depth)
		if err != nil {
			return nil, err
		}
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			child)
	}
	return m, nil
}
