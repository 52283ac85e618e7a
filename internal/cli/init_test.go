package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveInitDir(t *testing.T) {
	t.Run("project flag takes precedence", func(t *testing.T) {
		dir, err := resolveInitDir("/custom/path", []string{"ignored"})
		if err != nil {
			t.Fatal(err)
		}
		if dir != "/custom/path" {
			t.Fatalf("got %s, want /custom/path", dir)
		}
	})

	t.Run("named arg creates subdirectory", func(t *testing.T) {
		cwd, _ := os.Getwd()
		dir, err := resolveInitDir("", []string{"blink"})
		if err != nil {
			t.Fatal(err)
		}
		if want := filepath.Join(cwd, "blink"); dir != want {
			t.Fatalf("got %s, want %s", dir, want)
		}
	})
}

func TestNextAvailableDirSkipsExisting(t *testing.T) {
	base := t.TempDir()
	if err := os.Mkdir(filepath.Join(base, "sketch-1"), 0o755); err != nil {
		t.Fatal(err)
	}
	dir, err := nextAvailableDir(base)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(base, "sketch-2"); dir != want {
		t.Fatalf("got %s, want %s", dir, want)
	}
}

func TestInitCreatesSketchAndConfig(t *testing.T) {
	isolate(t, nil, nil)
	projectDir = filepath.Join(t.TempDir(), "blink")
	prevBoard := initBoard
	t.Cleanup(func() { initBoard = prevBoard })

	out, _, err := execute(t, newInitCmd(), "--board", "arduino:avr:nano")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "created blink.ino") || !strings.Contains(out, "created arduinoctl.yaml") {
		t.Fatalf("unexpected output %q", out)
	}
	sketch, err := os.ReadFile(filepath.Join(projectDir, "blink.ino"))
	if err != nil || !strings.Contains(string(sketch), "Serial.begin(9600)") {
		t.Fatalf("unexpected sketch %q (%v)", sketch, err)
	}
	if got := loadProjectConfig(t, projectDir).Board; got != "arduino:avr:nano" {
		t.Fatalf("board not stored, got %q", got)
	}

	out, _, err = execute(t, newInitCmd())
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	if !strings.Contains(out, "already initialized") {
		t.Fatalf("expected idempotent init, got %q", out)
	}
}
