// Package deckfile loads the declarative deployment description: which
// models to serve, which backend runs each one, and how the stack's ports
// and binaries are laid out.
package deckfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"llamadeck/internal/cmdline"
)

// Deck is the top-level document. Zero values mean "unspecified" and are
// replaced by CLI defaults.
type Deck struct {
	SupervisorPort        int    `json:"supervisor_port" yaml:"supervisor_port" toml:"supervisor_port"`
	ProxyPort             int    `json:"proxy_port" yaml:"proxy_port" toml:"proxy_port"`
	AdminPort             int    `json:"admin_port" yaml:"admin_port" toml:"admin_port"`
	CacheDir              string `json:"cache_dir" yaml:"cache_dir" toml:"cache_dir"`
	LlamaCppBin           string `json:"llama_cpp_bin" yaml:"llama_cpp_bin" toml:"llama_cpp_bin"`
	IkLlamaCppBin         string `json:"ik_llama_cpp_bin" yaml:"ik_llama_cpp_bin" toml:"ik_llama_cpp_bin"`
	SwapBin               string `json:"swap_bin" yaml:"swap_bin" toml:"swap_bin"`
	LogLevel              string `json:"log_level" yaml:"log_level" toml:"log_level"`
	HealthCheckTimeoutSec int    `json:"health_check_timeout_sec" yaml:"health_check_timeout_sec" toml:"health_check_timeout_sec"`

	Models []Model `json:"models" yaml:"models" toml:"models"`
}

// Model declares one servable model.
type Model struct {
	Repo     string   `json:"repo" yaml:"repo" toml:"repo"`
	Patterns []string `json:"patterns" yaml:"patterns" toml:"patterns"`
	Backend  string   `json:"backend" yaml:"backend" toml:"backend"` // llama_cpp (default) or ik_llama_cpp
	Name     string   `json:"name" yaml:"name" toml:"name"`          // overrides the derived entrypoint name

	// Flags maps logical flag names to values of mixed kinds; see FlagsFor.
	Flags map[string]any `json:"flags" yaml:"flags" toml:"flags"`

	Aliases       []string          `json:"aliases" yaml:"aliases" toml:"aliases"`
	TTLSeconds    int               `json:"ttl_seconds" yaml:"ttl_seconds" toml:"ttl_seconds"`
	CheckEndpoint string            `json:"check_endpoint" yaml:"check_endpoint" toml:"check_endpoint"`
	Env           map[string]string `json:"env" yaml:"env" toml:"env"`
	Unlisted      *bool             `json:"unlisted" yaml:"unlisted" toml:"unlisted"`
}

// Load reads a deck file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Deck, error) {
	var d Deck
	if path == "" {
		return d, fmt.Errorf("empty deck path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return d, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &d); err != nil {
			return d, err
		}
	case ".json":
		if err := json.Unmarshal(b, &d); err != nil {
			return d, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &d); err != nil {
			return d, err
		}
	default:
		return d, fmt.Errorf("unsupported deck extension: %s", ext)
	}
	if err := d.validate(); err != nil {
		return Deck{}, err
	}
	return d, nil
}

func (d Deck) validate() error {
	for i, m := range d.Models {
		if strings.TrimSpace(m.Repo) == "" {
			return fmt.Errorf("models[%d]: repo is required", i)
		}
		switch m.Backend {
		case "", "llama_cpp", "ik_llama_cpp":
		default:
			return fmt.Errorf("models[%d]: unknown backend %q", i, m.Backend)
		}
	}
	return nil
}

// FlagsFor converts a model's flag mapping to typed command-line flags.
// Mapping kinds: nil becomes a bare switch, booleans render only when true,
// numbers and strings are scalars, and strings prefixed with "path:" are
// treated as filesystem paths (absolutized and quoted). Keys are emitted in
// sorted order so a deck renders the same command line on every run.
func FlagsFor(m Model) ([]cmdline.Flag, error) {
	keys := make([]string, 0, len(m.Flags))
	for k := range m.Flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	flags := make([]cmdline.Flag, 0, len(keys))
	for _, k := range keys {
		v, err := flagValue(m.Flags[k])
		if err != nil {
			return nil, fmt.Errorf("flag %q: %w", k, err)
		}
		flags = append(flags, cmdline.Flag{Name: k, Value: v})
	}
	return flags, nil
}

func flagValue(raw any) (cmdline.FlagValue, error) {
	switch v := raw.(type) {
	case nil:
		return cmdline.Switch(), nil
	case bool:
		return cmdline.Bool(v), nil
	case int:
		return cmdline.Int(v), nil
	case int64: // toml decodes integers as int64
		return cmdline.Int(int(v)), nil
	case uint64:
		return cmdline.Int(int(v)), nil
	case float64:
		return cmdline.Float(v), nil
	case string:
		if p, ok := strings.CutPrefix(v, "path:"); ok {
			return cmdline.PathArg(p), nil
		}
		return cmdline.String(v), nil
	default:
		return cmdline.FlagValue{}, fmt.Errorf("unsupported value type %T", raw)
	}
}
