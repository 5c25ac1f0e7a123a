package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport names accepted in the config file.
const (
	TransportBLE     = "ble"
	TransportDesktop = "desktop"
)

// Config holds all application configuration.
type Config struct {
	DeviceName string         `yaml:"device_name"`
	Transport  string         `yaml:"transport"` // "ble" or "desktop"
	Movement   MovementConfig `yaml:"movement"`
	Hotkey     HotkeyConfig   `yaml:"hotkey"`
	LogLevel   string         `yaml:"log_level"`
}

// MovementConfig holds the square movement parameters.
type MovementConfig struct {
	StepSize    int           `yaml:"step_size"`
	Interval    time.Duration `yaml:"interval"`
	SettleDelay time.Duration `yaml:"settle_delay"`
}

// HotkeyConfig holds the optional global stop hotkey.
type HotkeyConfig struct {
	StopKeys []string `yaml:"stop_keys"` // empty disables the hotkey
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "squaremouse")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		DeviceName: "skiing mouse",
		Transport:  TransportBLE,
		Movement: MovementConfig{
			StepSize:    5,
			Interval:    500 * time.Millisecond,
			SettleDelay: time.Second,
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.DeviceName == "" {
		return fmt.Errorf("device_name must not be empty")
	}

	switch c.Transport {
	case TransportBLE, TransportDesktop:
	default:
		return fmt.Errorf("transport must be %q or %q, got %q", TransportBLE, TransportDesktop, c.Transport)
	}

	if c.Movement.StepSize <= 0 || c.Movement.StepSize > math.MaxInt16 {
		return fmt.Errorf("movement.step_size must be in 1..%d, got %d", math.MaxInt16, c.Movement.StepSize)
	}

	if c.Movement.Interval <= 0 {
		return fmt.Errorf("movement.interval must be > 0, got %s", c.Movement.Interval)
	}

	if c.Movement.SettleDelay < 0 {
		return fmt.Errorf("movement.settle_delay must be >= 0, got %s", c.Movement.SettleDelay)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// ParseLogLevel maps a log_level value to a slog.Level, defaulting to info.
func ParseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const defaultConfigHeader = `# squaremouse configuration
#
# transport: "ble" exposes a Bluetooth HID mouse, "desktop" moves the local
# pointer instead.
# movement.interval is the time between reports (500ms by default).
# hotkey.stop_keys, e.g. ["ctrl", "shift", "q"], stops the program.

`

// WriteDefault writes the default config to DefaultConfigPath if no file
// exists there yet. It returns the path written, or "" if a file was
// already present.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(defaultConfigHeader), data...), 0o644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}
