package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fancydash.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
outputMode = "all"
width = 800
scale = 2

[calendar]
sections = 1

[launcher]
termOpener = "kitty -e"
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "all", cfg.OutputMode)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 2, cfg.Scale)
	assert.Equal(t, 1, cfg.Calendar.Sections)
	assert.Equal(t, "kitty -e", cfg.Launcher.TermOpener)

	// Unset keys keep their defaults.
	assert.Equal(t, 768, cfg.Height)
	assert.Equal(t, 20, cfg.Margin)
	assert.Equal(t, "#ff4444ff", cfg.Accent)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadConfigBadFile(t *testing.T) {
	t.Run("malformed toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fancydash.toml")
		require.NoError(t, os.WriteFile(path, []byte("width = [not toml"), 0o644))

		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "failed to read config file")
	})

	t.Run("valid toml with invalid values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fancydash.toml")
		require.NoError(t, os.WriteFile(path, []byte("scale = 0\n"), 0o644))

		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "invalid configuration")
	})
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Configuration)
		wantErr string
	}{
		{"defaults are valid", func(*Configuration) {}, ""},
		{"unknown output mode", func(c *Configuration) { c.OutputMode = "both" }, "output mode"},
		{"zero width", func(c *Configuration) { c.Width = 0 }, "panel size"},
		{"negative height", func(c *Configuration) { c.Height = -1 }, "panel size"},
		{"zero scale", func(c *Configuration) { c.Scale = 0 }, "scale factor"},
		{"negative margin", func(c *Configuration) { c.Margin = -1 }, "margin"},
		{"no calendar sections", func(c *Configuration) { c.Calendar.Sections = 0 }, "calendar"},
		{"bad accent color", func(c *Configuration) { c.Accent = "red" }, "invalid accent color"},
		{"bad background color", func(c *Configuration) { c.Background = "#12" }, "invalid background color"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, GenerateDefaultConfigFile())

	path := filepath.Join(home, ".config", "fancydash", "fancydash.toml")
	_, err := os.Stat(path)
	require.NoError(t, err)

	// The generated file round-trips to the built-in defaults.
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	// A second run leaves the existing file alone.
	require.NoError(t, os.WriteFile(path, []byte("width = 555\n"), 0o644))
	require.NoError(t, GenerateDefaultConfigFile())
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 555, cfg.Width)
}
