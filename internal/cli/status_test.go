package cli

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestStatusCommandTableOutput(t *testing.T) {
	dir := isolate(t, nil, nil)
	writeSketch(t, dir)

	out, errOut, err := execute(t, newStatusCmd())
	if err != nil {
		t.Fatalf("status command returned error: %v", err)
	}
	for _, want := range []string{"Project: " + dir, "arduino:avr:uno", "9600", "1.1.1", "not cached"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
	if !strings.Contains(errOut, "no port selected") {
		t.Fatalf("expected the missing port warning, got %q", errOut)
	}
}

func TestStatusCommandJSONOutput(t *testing.T) {
	dir := isolate(t, libraryRunner(), nil)
	outputJSON = true

	svc, closer, err := newLibraryService()
	if err != nil {
		t.Fatalf("library service: %v", err)
	}
	if _, err := svc.Cache.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	closer.Close()

	out, _, err := execute(t, newStatusCmd())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode: %v (%q)", err, out)
	}
	if report.Project != dir || report.HasSketch {
		t.Fatalf("unexpected project fields %+v", report)
	}
	if !report.Catalog.Present || report.Catalog.Entries != 3 || !report.Catalog.Fresh {
		t.Fatalf("unexpected catalog summary %+v", report.Catalog)
	}
	if !report.Toolchain.Available {
		t.Fatal("expected the stubbed toolchain to be available")
	}
}
