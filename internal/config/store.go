package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

type Logger interface {
	Printf(format string, v ...any)
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}

// Store owns the process-wide board configuration. Readers take snapshots;
// the setters are the only writers and persist before publishing.
type Store struct {
	path string
	mu   sync.RWMutex
	cfg  Config
}

// Open loads the configuration at path. A corrupt file is logged and replaced
// in memory by the defaults; the file itself is left alone until a setter runs.
func Open(path string, logger Logger) (*Store, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return nil, err
		}
		logger.Printf("config: using defaults: %v", err)
	}
	return &Store{path: path, cfg: cfg}, nil
}

// NewStore wraps an in-memory configuration that persists to path.
func NewStore(path string, cfg Config) *Store {
	cfg.ApplyDefaults()
	return &Store{path: path, cfg: cfg}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a copy of the current configuration.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetBoard persists a new board identifier.
func (s *Store) SetBoard(fqbn string) error {
	fqbn = strings.TrimSpace(fqbn)
	if err := ValidateFQBN(fqbn); err != nil {
		return err
	}
	return s.update(func(c *Config) { c.Board = fqbn })
}

// SetPort persists a new port.
func (s *Store) SetPort(port string) error {
	port = strings.TrimSpace(port)
	if port == "" {
		return fmt.Errorf("port is empty")
	}
	return s.update(func(c *Config) { c.Port = port })
}

// SetBaudRate persists a new monitor baud rate.
func (s *Store) SetBaudRate(rate int) error {
	if rate <= 0 {
		return fmt.Errorf("baud rate must be greater than zero: %d", rate)
	}
	return s.update(func(c *Config) { c.BaudRate = rate })
}

func (s *Store) update(mutate func(*Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg
	mutate(&next)
	if err := Save(s.path, next); err != nil {
		return err
	}
	s.cfg = next
	return nil
}
