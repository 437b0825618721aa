package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Configuration holds all settings for the panel
type Configuration struct {
	OutputMode    string `mapstructure:"outputMode"`
	Width         int    `mapstructure:"width"`
	Height        int    `mapstructure:"height"`
	Scale         int    `mapstructure:"scale"`
	Margin        int    `mapstructure:"margin"`
	Background    string `mapstructure:"background"`
	Foreground    string `mapstructure:"foreground"`
	Accent        string `mapstructure:"accent"`
	DimColor      string `mapstructure:"dimColor"`
	Font          string `mapstructure:"font"`
	ExclusiveZone int    `mapstructure:"exclusiveZone"`
	LogLevel      string `mapstructure:"logLevel"`

	Calendar CalendarConfig `mapstructure:"calendar"`
	Launcher LauncherConfig `mapstructure:"launcher"`
}

// CalendarConfig controls the calendar widget
type CalendarConfig struct {
	Sections int `mapstructure:"sections"`
}

// LauncherConfig holds the command templates handed to the executor
type LauncherConfig struct {
	AppOpener  string `mapstructure:"appOpener"`
	TermOpener string `mapstructure:"termOpener"`
	URLOpener  string `mapstructure:"urlOpener"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Configuration {
	return Configuration{
		OutputMode:    "active",
		Width:         1024,
		Height:        768,
		Scale:         1,
		Margin:        20,
		Background:    "#000000e6",
		Foreground:    "#ffffffff",
		Accent:        "#ff4444ff",
		DimColor:      "#888888ff",
		Font:          "",
		ExclusiveZone: 0,
		LogLevel:      "info",
		Calendar: CalendarConfig{
			Sections: 3,
		},
		Launcher: LauncherConfig{
			AppOpener:  "",
			TermOpener: "",
			URLOpener:  "",
		},
	}
}

// LoadConfig reads the TOML configuration. An empty path searches the usual
// locations; a missing file just means defaults. An explicit path that does
// not exist is an error.
func LoadConfig(path string) (Configuration, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetConfigName("fancydash")
	v.SetConfigType("toml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "fancydash"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "fancydash"))
		}
		v.AddConfigPath("/etc/fancydash")
		v.AddConfigPath(".")
	}

	v.SetDefault("outputMode", def.OutputMode)
	v.SetDefault("width", def.Width)
	v.SetDefault("height", def.Height)
	v.SetDefault("scale", def.Scale)
	v.SetDefault("margin", def.Margin)
	v.SetDefault("background", def.Background)
	v.SetDefault("foreground", def.Foreground)
	v.SetDefault("accent", def.Accent)
	v.SetDefault("dimColor", def.DimColor)
	v.SetDefault("font", def.Font)
	v.SetDefault("exclusiveZone", def.ExclusiveZone)
	v.SetDefault("logLevel", def.LogLevel)
	v.SetDefault("calendar.sections", def.Calendar.Sections)
	v.SetDefault("launcher.appOpener", def.Launcher.AppOpener)
	v.SetDefault("launcher.termOpener", def.Launcher.TermOpener)
	v.SetDefault("launcher.urlOpener", def.Launcher.URLOpener)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return def, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return def, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidateConfig(&config); err != nil {
		return def, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig checks if the configuration is valid
func ValidateConfig(config *Configuration) error {
	if config.OutputMode != "active" && config.OutputMode != "all" {
		return fmt.Errorf("output mode must be \"active\" or \"all\", got %q", config.OutputMode)
	}
	if config.Width <= 0 || config.Height <= 0 {
		return fmt.Errorf("panel size must be positive, got %dx%d", config.Width, config.Height)
	}
	if config.Scale < 1 {
		return fmt.Errorf("scale factor must be at least 1, got %d", config.Scale)
	}
	if config.Margin < 0 {
		return fmt.Errorf("margin must not be negative, got %d", config.Margin)
	}
	if config.Calendar.Sections < 1 {
		return fmt.Errorf("calendar needs at least one section, got %d", config.Calendar.Sections)
	}

	for _, c := range []struct {
		name  string
		value string
	}{
		{"background", config.Background},
		{"foreground", config.Foreground},
		{"accent", config.Accent},
		{"dimColor", config.DimColor},
	} {
		if _, err := parseColor(c.value); err != nil {
			return fmt.Errorf("invalid %s color: %w", c.name, err)
		}
	}

	return nil
}

const defaultConfigTOML = `# fancydash configuration

outputMode    = "active" # "active" or "all"
width         = 1024
height        = 768
scale         = 1
margin        = 20
background    = "#000000e6"
foreground    = "#ffffffff"
accent        = "#ff4444ff"
dimColor      = "#888888ff"
font          = ""       # path to a TTF file, empty for the built-in face
exclusiveZone = 0
logLevel      = "info"

[calendar]
sections = 3

[launcher]
appOpener  = ""
termOpener = ""
urlOpener  = ""
`

// GenerateDefaultConfigFile creates a default configuration file if it doesn't exist
func GenerateDefaultConfigFile() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "fancydash")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "fancydash.toml")
	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	if err := os.WriteFile(configPath, []byte(defaultConfigTOML), 0644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}
