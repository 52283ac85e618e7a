package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveWithFlag(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Blink")
	pp, err := Resolve(root)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if pp.Root != root {
		t.Fatalf("expected root %s, got %s", root, pp.Root)
	}
	if pp.ConfigFile != filepath.Join(root, "arduinoctl.yaml") {
		t.Fatalf("unexpected config path %s", pp.ConfigFile)
	}
	if pp.SketchFile != filepath.Join(root, "Blink.ino") {
		t.Fatalf("unexpected sketch path %s", pp.SketchFile)
	}
}

func TestEnsureMetaDirsAndHasSketch(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Blink")
	pp := newProjectPaths(root)
	if err := pp.EnsureMetaDirs(); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if ok, _ := DirExists(pp.LogsDir); !ok {
		t.Fatalf("expected logs dir %s", pp.LogsDir)
	}
	if pp.HasSketch() {
		t.Fatal("expected no sketch yet")
	}
	if err := os.WriteFile(pp.SketchFile, []byte("void setup(){}\nvoid loop(){}\n"), 0o644); err != nil {
		t.Fatalf("write sketch: %v", err)
	}
	if !pp.HasSketch() {
		t.Fatal("expected sketch to be detected")
	}
}

func TestCatalogFileHonoursHomeOverride(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv(EnvHome, home)
	path, err := CatalogFile()
	if err != nil {
		t.Fatalf("catalog file: %v", err)
	}
	if path != filepath.Join(home, "library_index.json") {
		t.Fatalf("unexpected catalog path %s", path)
	}
	if ok, _ := DirExists(home); !ok {
		t.Fatal("expected global dir to be created")
	}
}
