// Package config loads tombola settings from a config file, a .env file
// and TOMBOLA_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. TOMBOLA_CAPACITY
const EnvPrefix = "TOMBOLA"

// Config holds application configuration
type Config struct {
	Capacity         int      `mapstructure:"capacity"`
	DefaultVolume    float64  `mapstructure:"default_volume"`
	SampleRate       int      `mapstructure:"sample_rate"`
	MediaDirectories []string `mapstructure:"media_directories"`
	ImportWorkers    int      `mapstructure:"import_workers"`
	LogFile          string   `mapstructure:"log_file"`
	LogLevel         string   `mapstructure:"log_level"`
	KeyBindings      KeyMap   `mapstructure:"key_bindings"`
}

// KeyMap defines keyboard shortcuts
type KeyMap struct {
	Draw       string `mapstructure:"draw"`
	Replay     string `mapstructure:"replay"`
	Restart    string `mapstructure:"restart"`
	Back       string `mapstructure:"back"`
	Reset      string `mapstructure:"reset"`
	Add        string `mapstructure:"add"`
	Remove     string `mapstructure:"remove"`
	MoveUp     string `mapstructure:"move_up"`
	MoveDown   string `mapstructure:"move_down"`
	Start      string `mapstructure:"start"`
	VolumeUp   string `mapstructure:"volume_up"`
	VolumeDown string `mapstructure:"volume_down"`
	Quit       string `mapstructure:"quit"`
}

// GetDefaultConfig returns default configuration
func GetDefaultConfig() *Config {
	return &Config{
		Capacity:         90,
		DefaultVolume:    0.5,
		SampleRate:       44100,
		MediaDirectories: []string{},
		ImportWorkers:    4,
		LogFile:          "",
		LogLevel:         "info",
		KeyBindings: KeyMap{
			Draw:       " ",
			Replay:     "r",
			Restart:    "R",
			Back:       "esc",
			Reset:      "X",
			Add:        "a",
			Remove:     "d",
			MoveUp:     "K",
			MoveDown:   "J",
			Start:      "s",
			VolumeUp:   "+",
			VolumeDown: "-",
			Quit:       "q",
		},
	}
}

// Validate checks configuration values
func (c *Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1, got %d", c.Capacity)
	}
	if c.DefaultVolume < 0 || c.DefaultVolume > 1 {
		return fmt.Errorf("default_volume must be between 0.0 and 1.0, got %g", c.DefaultVolume)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}

// newViper returns a viper instance seeded with cfg's values as defaults
// and wired to TOMBOLA_* environment variables
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("capacity", cfg.Capacity)
	v.SetDefault("default_volume", cfg.DefaultVolume)
	v.SetDefault("sample_rate", cfg.SampleRate)
	v.SetDefault("media_directories", cfg.MediaDirectories)
	v.SetDefault("import_workers", cfg.ImportWorkers)
	v.SetDefault("log_file", cfg.LogFile)
	v.SetDefault("log_level", cfg.LogLevel)

	keys := cfg.KeyBindings
	v.SetDefault("key_bindings.draw", keys.Draw)
	v.SetDefault("key_bindings.replay", keys.Replay)
	v.SetDefault("key_bindings.restart", keys.Restart)
	v.SetDefault("key_bindings.back", keys.Back)
	v.SetDefault("key_bindings.reset", keys.Reset)
	v.SetDefault("key_bindings.add", keys.Add)
	v.SetDefault("key_bindings.remove", keys.Remove)
	v.SetDefault("key_bindings.move_up", keys.MoveUp)
	v.SetDefault("key_bindings.move_down", keys.MoveDown)
	v.SetDefault("key_bindings.start", keys.Start)
	v.SetDefault("key_bindings.volume_up", keys.VolumeUp)
	v.SetDefault("key_bindings.volume_down", keys.VolumeDown)
	v.SetDefault("key_bindings.quit", keys.Quit)
	return v
}

// LoadDotEnv loads environment variables from the given .env files,
// defaulting to ./.env. Missing files are ignored; variables already set
// in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// LoadConfig reads configuration from path. A missing file yields the
// defaults, still subject to environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := newViper(GetDefaultConfig())
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &config, nil
}

// SaveConfig writes configuration to path; the format follows the extension
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := newViper(config)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadOrCreate loads config from path or creates default if not exists
func LoadOrCreate(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveConfig(GetDefaultConfig(), path); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
	}

	return LoadConfig(path)
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	// Check environment variable first
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}

	// Use XDG config directory if available
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "tombola", "config.yaml")
	}

	// Fall back to home directory
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}

	return filepath.Join(home, ".config", "tombola", "config.yaml")
}
