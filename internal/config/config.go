package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBoard    = "arduino:avr:uno"
	DefaultBaudRate = 9600
)

// ErrCorrupt marks a config file that exists but does not parse.
var ErrCorrupt = errors.New("config file is corrupt")

// Config captures the board selection persisted for a project.
type Config struct {
	Board    string `yaml:"board" json:"board"`
	Port     string `yaml:"port" json:"port"`
	BaudRate int    `yaml:"baudrate" json:"baudrate"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Board:    DefaultBoard,
		Port:     "",
		BaudRate: DefaultBaudRate,
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration. A file that fails to parse yields the defaults
// together with an error wrapping ErrCorrupt.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Default(), fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills fields the YAML left empty.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	c.Board = strings.TrimSpace(c.Board)
	c.Port = strings.TrimSpace(c.Port)
	if c.Board == "" {
		c.Board = defaults.Board
	}
	if c.BaudRate <= 0 {
		c.BaudRate = defaults.BaudRate
	}
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

// Save overwrites the file at path with cfg. The write goes through a
// temporary file and a rename so readers never observe a partial file.
func Save(path string, cfg Config) error {
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
