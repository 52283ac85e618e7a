package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"arduinoctl/internal/paths"
)

// New creates a logger that writes to a timestamped file inside the project's
// logs directory. The returned closer should be closed when logging is no
// longer needed.
func New(p paths.ProjectPaths) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(p.LogsDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure logs directory: %w", err)
	}
	return open(p.LogsDir, "")
}

// NewGlobal logs into ~/.arduinoctl/logs for commands that run outside a
// sketch project (library management).
func NewGlobal(prefix string) (*log.Logger, io.Closer, error) {
	global, err := paths.GlobalDir()
	if err != nil {
		return nil, nil, err
	}
	dir := filepath.Join(global, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure global logs directory: %w", err)
	}
	return open(dir, prefix)
}

func open(dir, prefix string) (*log.Logger, io.Closer, error) {
	filename := time.Now().Format("20060102-150405") + ".log"
	if prefix != "" {
		filename = prefix + "-" + filename
	}
	filePath := filepath.Join(dir, filename)
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	logger := log.New(file, "", log.LstdFlags|log.Lmicroseconds)
	return logger, file, nil
}
