package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvHome overrides the user-level arduinoctl directory.
const EnvHome = "ARDUINOCTL_HOME"

const catalogFileName = "library_index.json"

// ProjectPaths captures canonical locations for a sketch project.
type ProjectPaths struct {
	Root       string
	ConfigFile string
	SketchFile string
	MetaDir    string
	LogsDir    string
}

// Resolve determines the project root using the optional --project flag or the
// current working directory when the flag is empty.
func Resolve(projectFlag string) (ProjectPaths, error) {
	var (
		root string
		err  error
	)

	if projectFlag != "" {
		root, err = filepath.Abs(projectFlag)
	} else {
		root, err = os.Getwd()
	}
	if err != nil {
		return ProjectPaths{}, fmt.Errorf("resolve project root: %w", err)
	}

	return newProjectPaths(root), nil
}

func newProjectPaths(root string) ProjectPaths {
	metaDir := filepath.Join(root, ".arduinoctl")
	return ProjectPaths{
		Root:       root,
		ConfigFile: filepath.Join(root, "arduinoctl.yaml"),
		SketchFile: filepath.Join(root, filepath.Base(root)+".ino"),
		MetaDir:    metaDir,
		LogsDir:    filepath.Join(metaDir, "logs"),
	}
}

// EnsureRoot creates the sketch directory itself.
func (p ProjectPaths) EnsureRoot() error {
	if err := os.MkdirAll(p.Root, 0o755); err != nil {
		return fmt.Errorf("create project dir %s: %w", p.Root, err)
	}
	return nil
}

// EnsureMetaDirs creates the hidden .arduinoctl directory and its logs folder.
func (p ProjectPaths) EnsureMetaDirs() error {
	dirs := []string{p.MetaDir, p.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// HasSketch reports whether the project root holds the <dir>.ino main file
// arduino-cli expects.
func (p ProjectPaths) HasSketch() bool {
	ok, _ := FileExists(p.SketchFile)
	return ok
}

// GlobalDir returns the user-level arduinoctl directory (~/.arduinoctl, or
// $ARDUINOCTL_HOME). It creates the directory if it does not exist.
func GlobalDir() (string, error) {
	dir := strings.TrimSpace(os.Getenv(EnvHome))
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("detect user home: %w", err)
		}
		dir = filepath.Join(home, ".arduinoctl")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create global dir: %w", err)
	}
	return dir, nil
}

// CatalogFile returns the location of the library catalog cache.
func CatalogFile() (string, error) {
	global, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(global, catalogFileName), nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
