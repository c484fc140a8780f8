// control/config.go
// Author: momentics <momentics@gmail.com>
//
// YAML configuration for the lpump driver.

package control

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults match the original example broker address.
const (
	DefaultHost = "localhost"
	DefaultPort = 8194
)

// ReconnectConfig controls the driver's reconnect policy.
type ReconnectConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Attempts int           `yaml:"attempts"`
	Min      time.Duration `yaml:"min"`
	Max      time.Duration `yaml:"max"`
	Factor   float64       `yaml:"factor"`
}

// Config is the driver configuration.
type Config struct {
	Host       string          `yaml:"host"`
	Port       int             `yaml:"port"`
	Name       string          `yaml:"name"`
	BufferSize int             `yaml:"buffer_size"`
	Debug      bool            `yaml:"debug"`
	Reconnect  ReconnectConfig `yaml:"reconnect"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Host: DefaultHost,
		Port: DefaultPort,
		Name: "lpump",
		Reconnect: ReconnectConfig{
			Attempts: 8,
			Min:      500 * time.Millisecond,
			Max:      10 * time.Second,
			Factor:   2,
		},
	}
}

// Load decodes YAML from r over the defaults. Unknown fields are rejected.
func Load(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFile reads the configuration at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Load(bytes.NewReader(data))
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("buffer_size %d must not be negative", c.BufferSize)
	}
	if c.Reconnect.Enabled {
		r := c.Reconnect
		if r.Attempts <= 0 {
			return errors.New("reconnect.attempts must be positive")
		}
		if r.Min <= 0 || r.Max < r.Min {
			return fmt.Errorf("reconnect window %s..%s is invalid", r.Min, r.Max)
		}
		if r.Factor < 1 {
			return fmt.Errorf("reconnect.factor %v must be at least 1", r.Factor)
		}
	}
	return nil
}
