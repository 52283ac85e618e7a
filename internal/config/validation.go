package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// StandardBaudRates lists the rates offered by the serial monitor.
var StandardBaudRates = []int{300, 1200, 2400, 4800, 9600, 19200, 38400, 57600, 74880, 115200, 230400, 250000, 500000, 1000000, 2000000}

// Validate reports problems that would make compile, upload or monitor fail
// before the toolchain is even started.
func (c Config) Validate() []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateBoard()...)
	results = append(results, c.validatePort()...)
	results = append(results, c.validateBaudRate()...)
	return results
}

func (c Config) validateBoard() []ValidationResult {
	if err := ValidateFQBN(c.Board); err != nil {
		return []ValidationResult{{Level: "error", Message: err.Error()}}
	}
	return nil
}

func (c Config) validatePort() []ValidationResult {
	if strings.TrimSpace(c.Port) == "" {
		return []ValidationResult{{Level: "warning", Message: "no port selected; upload and monitor need one"}}
	}
	return nil
}

func (c Config) validateBaudRate() []ValidationResult {
	if c.BaudRate <= 0 {
		return []ValidationResult{{Level: "error", Message: fmt.Sprintf("baud rate %d must be positive", c.BaudRate)}}
	}
	if !IsStandardBaudRate(c.BaudRate) {
		return []ValidationResult{{Level: "warning", Message: fmt.Sprintf("baud rate %d is not a standard rate", c.BaudRate)}}
	}
	return nil
}

// ValidateFQBN checks the vendor:architecture:board shape of a board identifier.
// Trailing board options (vendor:arch:board:opt=val) are accepted.
func ValidateFQBN(fqbn string) error {
	fqbn = strings.TrimSpace(fqbn)
	if fqbn == "" {
		return fmt.Errorf("board identifier is empty")
	}
	parts := strings.Split(fqbn, ":")
	if len(parts) < 3 {
		return fmt.Errorf("board %q is not a fully qualified board name (vendor:arch:board)", fqbn)
	}
	for _, part := range parts[:3] {
		if strings.TrimSpace(part) == "" {
			return fmt.Errorf("board %q has an empty segment", fqbn)
		}
	}
	return nil
}

// ParseBaudRate parses a user supplied baud rate.
func ParseBaudRate(value string) (int, error) {
	rate, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid baud rate %q: %w", value, err)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("baud rate must be greater than zero: %d", rate)
	}
	return rate, nil
}

// IsStandardBaudRate reports whether rate is one of StandardBaudRates.
func IsStandardBaudRate(rate int) bool {
	for _, r := range StandardBaudRates {
		if r == rate {
			return true
		}
	}
	return false
}
