// Package config loads the YAML configuration shared by the RetroFrame
// commands.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/retroframe/retroframe-go/pkg/discovery"
	"github.com/retroframe/retroframe-go/pkg/retroframe"
	"github.com/retroframe/retroframe-go/pkg/transport"
)

// Validation errors.
var (
	ErrInvalidScheme   = errors.New("invalid device scheme")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrInvalidLevel    = errors.New("invalid log level")
)

// Device configures how the device is reached.
type Device struct {
	Address string        `yaml:"address"`
	Scheme  string        `yaml:"scheme"`
	Timeout time.Duration `yaml:"timeout"`
}

// Show configures playback.
type Show struct {
	Delay time.Duration `yaml:"delay"`
}

// Discovery configures mDNS lookup of the device.
type Discovery struct {
	Enabled   bool          `yaml:"enabled"`
	Timeout   time.Duration `yaml:"timeout"`
	Interface string        `yaml:"interface"`
}

// Log configures diagnostic and protocol logging.
type Log struct {
	Level        string `yaml:"level"`
	ProtocolFile string `yaml:"protocol_file"`
}

// Config is the complete configuration file.
type Config struct {
	Device    Device    `yaml:"device"`
	Show      Show      `yaml:"show"`
	Discovery Discovery `yaml:"discovery"`
	Log       Log       `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Device: Device{
			Scheme:  "http",
			Timeout: transport.DefaultTimeout,
		},
		Show: Show{
			Delay: retroframe.DefaultFrameDelay,
		},
		Discovery: Discovery{
			Timeout: discovery.DefaultBrowseTimeout,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads path over the defaults and validates the result.
// Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Save writes c to path as YAML.
func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	switch c.Device.Scheme {
	case "", "http", "https":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidScheme, c.Device.Scheme)
	}
	if c.Device.Timeout < 0 {
		return fmt.Errorf("%w: device.timeout %s", ErrInvalidDuration, c.Device.Timeout)
	}
	if c.Show.Delay < 0 {
		return fmt.Errorf("%w: show.delay %s", ErrInvalidDuration, c.Show.Delay)
	}
	if c.Discovery.Timeout < 0 {
		return fmt.Errorf("%w: discovery.timeout %s", ErrInvalidDuration, c.Discovery.Timeout)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog level. The empty string is info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, name)
	}
}
