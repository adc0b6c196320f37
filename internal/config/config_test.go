package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keychord/internal/engine"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, uint16(engine.MinIgnoreWindowTicks), cfg.IgnoreWindow)
	assert.Equal(t, uint16(engine.DefaultVirtualBase), cfg.Engine.VirtualBase)
	assert.Equal(t, uint8(engine.PhysicalRow), cfg.Engine.VirtualRow)
	assert.Equal(t, "keychord.db", cfg.Paths.DB)
	assert.NoError(t, cfg.Validate())
}

func TestLoadNonexistent(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "keychord.toml", `
ignore_window = 10
log_level = "debug"

[engine]
virtual_base = 0xE000
virtual_row = 3
default_layer = 2

[paths]
chords = "fixtures/chords"
db = "/tmp/traces.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint16(10), cfg.IgnoreWindow)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, uint16(0xE000), cfg.Engine.VirtualBase)
	assert.Equal(t, uint8(3), cfg.Engine.VirtualRow)
	assert.Equal(t, uint16(2), cfg.Engine.DefaultLayer)
	assert.Equal(t, "fixtures/chords", cfg.Paths.Chords)
	assert.Equal(t, "scenarios", cfg.Paths.Scenarios, "unset keys keep defaults")
	assert.Equal(t, "/tmp/traces.db", cfg.Paths.DB)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "keychord.toml", `ignore_windw = 10`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ignore_windw")
}

func TestLoadRejectsBadSyntax(t *testing.T) {
	path := writeConfig(t, "keychord.toml", `ignore_window = `)

	_, err := Load(path)
	assert.ErrorContains(t, err, "decode TOML")
}

func TestLoadRejectsOtherFormats(t *testing.T) {
	path := writeConfig(t, "keychord.json", `{}`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "unsupported format")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KEYCHORD_IGNORE_WINDOW", "12")
	t.Setenv("KEYCHORD_DB", "env.db")
	t.Setenv("KEYCHORD_LOG_LEVEL", "warn")
	t.Setenv("KEYCHORD_GOLDEN", "golden")

	path := writeConfig(t, "keychord.toml", `
ignore_window = 8
[paths]
db = "file.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint16(12), cfg.IgnoreWindow)
	assert.Equal(t, "env.db", cfg.Paths.DB)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "golden", cfg.Paths.Golden)
}

func TestEnvOverrideInvalid(t *testing.T) {
	t.Setenv("KEYCHORD_IGNORE_WINDOW", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "KEYCHORD_IGNORE_WINDOW")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"short ignore window", func(c *Config) { c.IgnoreWindow = 5 }, "ignore_window"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"virtual base overflow", func(c *Config) { c.Engine.VirtualBase = 0xFFFA }, "engine.virtual_base"},
		{"virtual base on physical keys", func(c *Config) { c.Engine.VirtualBase = 0x100 }, "overlaps physical keys"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IgnoreWindow = 0
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ignore_window")
	assert.Contains(t, err.Error(), "log_level")
}

func TestLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		cfg := &Config{LogLevel: in}
		got, err := cfg.Level()
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestLoggerVerbose(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()

	cfg.Logger(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	cfg.Logger(&buf, true).Debug("shown")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestEngineOptions(t *testing.T) {
	cfg := DefaultConfig()
	assert.Len(t, cfg.EngineOptions(), 2)
}
