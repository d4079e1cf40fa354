// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultTriggerPath    = "notification.json"
	DefaultPollInterval   = 5 * time.Second
	DefaultAppName        = "toastd"
	DefaultDisplayTimeout = 10 * time.Second
	DefaultVolume         = 80
	DefaultLogLevel       = "info"
)

// Backend names accepted in display.backends.
const (
	BackendDBus     = "dbus"
	BackendBeeep    = "beeep"
	BackendDialog   = "dialog"
	BackendTerminal = "terminal"
)

// ValidBackends returns all valid display backend names.
func ValidBackends() []string {
	return []string{BackendDBus, BackendBeeep, BackendDialog, BackendTerminal}
}

// Config represents the toastd configuration.
// Loaded from ~/.config/toastd/toastd.toml
type Config struct {
	Trigger TriggerConfig `toml:"trigger"`
	Display DisplayConfig `toml:"display"`
	Audio   AudioConfig   `toml:"audio"`
	Log     LogConfig     `toml:"log"`
}

// TriggerConfig locates and paces the trigger file poll.
type TriggerConfig struct {
	Path     string   `toml:"path"`     // Relative paths resolve against the working directory
	Interval Duration `toml:"interval"` // e.g., "5s" or 5000
}

// DisplayConfig selects and tunes the display backends.
type DisplayConfig struct {
	Backends       []string `toml:"backends"`        // dbus, beeep, dialog, terminal
	AppName        string   `toml:"app_name"`        // Reported to the notification server
	DefaultTimeout Duration `toml:"default_timeout"` // Popup timeout when no expiry is set, 0 = server default
}

// AudioConfig contains toast sound settings.
type AudioConfig struct {
	Enabled bool   `toml:"enabled"`
	Volume  int    `toml:"volume"` // 0-100
	Sound   string `toml:"sound"`  // WAV, OGG or MP3 file
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Trigger: TriggerConfig{
			Path:     DefaultTriggerPath,
			Interval: Duration(DefaultPollInterval),
		},
		Display: DisplayConfig{
			Backends:       []string{BackendDBus},
			AppName:        DefaultAppName,
			DefaultTimeout: Duration(DefaultDisplayTimeout),
		},
		Audio: AudioConfig{
			Enabled: false,
			Volume:  DefaultVolume,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "toastd", "toastd.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Trigger.Path == "" {
		return errors.New("trigger.path cannot be empty")
	}
	if c.Trigger.Interval.Duration() <= 0 {
		return fmt.Errorf("trigger.interval must be positive, got %s", c.Trigger.Interval.Duration())
	}

	if len(c.Display.Backends) == 0 {
		return errors.New("display.backends cannot be empty")
	}
	for _, b := range c.Display.Backends {
		if !slices.Contains(ValidBackends(), b) {
			return fmt.Errorf("invalid backend %q, must be one of: %v", b, ValidBackends())
		}
	}
	if c.Display.DefaultTimeout.Duration() < 0 {
		return fmt.Errorf("display.default_timeout cannot be negative, got %s", c.Display.DefaultTimeout.Duration())
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

// SoundPath returns the configured sound file with ~ expanded.
func (c *Config) SoundPath() string {
	return expandPath(c.Audio.Sound)
}

// ParseLogLevel maps a level name to a slog.Level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", level)
	}
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
