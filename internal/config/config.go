// Package config loads keychord tool settings.
//
// Settings come from an optional TOML file, then KEYCHORD_* environment
// variables, then command-line flags. A missing file yields DefaultConfig.
//
//	ignore_window = 6
//	log_level = "info"
//
//	[engine]
//	virtual_base = 61440
//	virtual_row = 0
//	default_layer = 0
//
//	[paths]
//	chords = "chords"
//	scenarios = "scenarios"
//	golden = "scenarios/golden"
//	db = "keychord.db"
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/roach88/keychord/internal/engine"
)

// FileName is the config file looked up in the working directory.
const FileName = "keychord.toml"

// Config holds tool settings.
type Config struct {
	// IgnoreWindow is the ignore window in ticks for scenarios that don't
	// set their own.
	IgnoreWindow uint16 `toml:"ignore_window"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	Engine EngineConfig `toml:"engine"`
	Paths  PathsConfig  `toml:"paths"`
}

// EngineConfig holds engine construction defaults.
type EngineConfig struct {
	VirtualBase  uint16 `toml:"virtual_base"`
	VirtualRow   uint8  `toml:"virtual_row"`
	DefaultLayer uint16 `toml:"default_layer"`
}

// PathsConfig holds tool paths. Relative paths are resolved against the
// working directory.
type PathsConfig struct {
	Chords    string `toml:"chords"`
	Scenarios string `toml:"scenarios"`
	Golden    string `toml:"golden"`
	DB        string `toml:"db"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		IgnoreWindow: engine.MinIgnoreWindowTicks,
		LogLevel:     "info",
		Engine: EngineConfig{
			VirtualBase: uint16(engine.DefaultVirtualBase),
			VirtualRow:  engine.PhysicalRow,
		},
		Paths: PathsConfig{
			Chords:    "chords",
			Scenarios: "scenarios",
			DB:        "keychord.db",
		},
	}
}

// Load reads configuration from path. If path is empty, FileName in the
// working directory is tried. A missing file returns the defaults with
// environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FileName
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err == nil {
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	ext := filepath.Ext(path)
	if ext != ".toml" && ext != "" {
		return fmt.Errorf("decode config: unsupported format %q", ext)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("decode TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("decode TOML: unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnvOverrides applies KEYCHORD_* environment variables.
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv("KEYCHORD_IGNORE_WINDOW"); v != "" {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return fmt.Errorf("KEYCHORD_IGNORE_WINDOW: %w", err)
		}
		c.IgnoreWindow = uint16(n)
	}
	if v := os.Getenv("KEYCHORD_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("KEYCHORD_DB"); v != "" {
		c.Paths.DB = v
	}
	if v := os.Getenv("KEYCHORD_CHORDS"); v != "" {
		c.Paths.Chords = v
	}
	if v := os.Getenv("KEYCHORD_SCENARIOS"); v != "" {
		c.Paths.Scenarios = v
	}
	if v := os.Getenv("KEYCHORD_GOLDEN"); v != "" {
		c.Paths.Golden = v
	}
	return nil
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.IgnoreWindow < engine.MinIgnoreWindowTicks {
		errs = append(errs, fmt.Errorf("ignore_window: %d is below the minimum of %d ticks",
			c.IgnoreWindow, engine.MinIgnoreWindowTicks))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	// The virtual pool holds one coordinate per active chord.
	if int(c.Engine.VirtualBase)+engine.MaxActiveChords > 0xFFFF+1 {
		errs = append(errs, fmt.Errorf("engine.virtual_base: %#x leaves no room for %d coordinates",
			c.Engine.VirtualBase, engine.MaxActiveChords))
	}
	if c.Engine.VirtualRow == engine.PhysicalRow && c.Engine.VirtualBase < uint16(engine.DefaultVirtualBase) {
		errs = append(errs, fmt.Errorf("engine.virtual_base: %#x overlaps physical keys on row %d; use at least %#x or another row",
			c.Engine.VirtualBase, engine.PhysicalRow, uint16(engine.DefaultVirtualBase)))
	}

	return errors.Join(errs...)
}

// EngineOptions returns the engine options the settings describe.
func (c *Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithVirtualBase(engine.KeyID(c.Engine.VirtualBase)),
		engine.WithVirtualRow(c.Engine.VirtualRow),
	}
}
