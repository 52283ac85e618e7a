package cli

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"arduinoctl/internal/pipeline"
)

func TestCompileWritesStageOutput(t *testing.T) {
	s := &stubStreamer{scripts: map[string]stubScript{
		"compile": {stdout: []string{"Sketch uses 924 bytes"}},
	}}
	dir := isolate(t, nil, s)
	writeSketch(t, dir)

	out, _, err := execute(t, newCompileCmd())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.Contains(out, "Sketch uses 924 bytes") || !strings.Contains(out, pipeline.BannerCompileComplete) {
		t.Fatalf("unexpected output %q", out)
	}
	if got := s.started(); len(got) != 1 || got[0] != "compile" {
		t.Fatalf("expected only a compile, got %v", got)
	}
}

func TestCompileFailureReturnsError(t *testing.T) {
	s := &stubStreamer{scripts: map[string]stubScript{
		"compile": {stdout: []string{"sketch.ino:3: error"}, code: 1},
	}}
	dir := isolate(t, nil, s)
	writeSketch(t, dir)

	out, _, err := execute(t, newCompileCmd())
	if err == nil || !strings.Contains(err.Error(), "compile failed") {
		t.Fatalf("expected compile failure, got %v", err)
	}
	if !strings.Contains(out, pipeline.BannerCompileFailed) {
		t.Fatalf("expected failure banner, got %q", out)
	}
}

func TestCompileNeedsSketch(t *testing.T) {
	isolate(t, nil, &stubStreamer{})
	if _, _, err := execute(t, newCompileCmd()); err == nil || !strings.Contains(err.Error(), "no sketch found") {
		t.Fatalf("expected missing sketch error, got %v", err)
	}
}

func TestUploadWithoutPort(t *testing.T) {
	s := &stubStreamer{}
	dir := isolate(t, nil, s)
	writeSketch(t, dir)

	_, _, err := execute(t, newUploadCmd())
	if !errors.Is(err, pipeline.ErrNoPort) {
		t.Fatalf("expected ErrNoPort, got %v", err)
	}
	if len(s.started()) != 0 {
		t.Fatal("nothing may run without a port")
	}
}

func TestUploadOpensMonitorUntilItCloses(t *testing.T) {
	s := &stubStreamer{scripts: map[string]stubScript{
		"compile": {},
		"upload":  {stdout: []string{"avrdude done"}},
		"monitor": {stdout: []string{"hello from board"}},
	}}
	dir := isolate(t, nil, s)
	writeSketch(t, dir)
	if _, _, err := execute(t, newPortCmd(), "set", "/dev/ttyACM0"); err != nil {
		t.Fatalf("port set: %v", err)
	}

	out, _, err := execute(t, newUploadCmd())
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	for _, want := range []string{
		pipeline.BannerCompileComplete,
		pipeline.BannerUploadComplete,
		"Serial Monitor /dev/ttyACM0 @ 9600",
		"hello from board",
		pipeline.BannerMonitorClosed,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output %q", want, out)
		}
	}
	if got := strings.Join(s.started(), ","); got != "compile,upload,monitor" {
		t.Fatalf("unexpected stage order %s", got)
	}
}

func TestUploadNoMonitorJSON(t *testing.T) {
	s := &stubStreamer{scripts: map[string]stubScript{
		"compile": {},
		"upload":  {code: 2},
	}}
	dir := isolate(t, nil, s)
	writeSketch(t, dir)
	if _, _, err := execute(t, newPortCmd(), "set", "/dev/ttyACM0"); err != nil {
		t.Fatalf("port set: %v", err)
	}
	outputJSON = true

	out, errOut, err := execute(t, newUploadCmd(), "--no-monitor")
	if err == nil {
		t.Fatal("expected upload failure")
	}
	var report outcomeReport
	if jsonErr := json.Unmarshal([]byte(out), &report); jsonErr != nil {
		t.Fatalf("stdout is not a JSON report: %v (%q)", jsonErr, out)
	}
	if report.State != "failed" || report.FailedStage != "upload" || report.ExitCode != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if !strings.Contains(errOut, pipeline.BannerUploadFailed) {
		t.Fatalf("stage output belongs on stderr in JSON mode, got %q", errOut)
	}
}

func TestMonitorNeedsPort(t *testing.T) {
	isolate(t, nil, &stubStreamer{})
	if _, _, err := execute(t, newMonitorCmd()); !errors.Is(err, pipeline.ErrNoPort) {
		t.Fatalf("expected ErrNoPort, got %v", err)
	}
}

func TestMonitorStreamsUntilExit(t *testing.T) {
	s := &stubStreamer{scripts: map[string]stubScript{
		"monitor": {stdout: []string{"tick", "tock"}},
	}}
	isolate(t, nil, s)
	if _, _, err := execute(t, newPortCmd(), "set", "/dev/ttyUSB1"); err != nil {
		t.Fatalf("port set: %v", err)
	}
	if _, _, err := execute(t, newBaudCmd(), "115200"); err != nil {
		t.Fatalf("baud: %v", err)
	}

	out, _, err := execute(t, newMonitorCmd())
	if err != nil {
		t.Fatalf("monitor: %v", err)
	}
	if !strings.Contains(out, "@ 115200") || !strings.Contains(out, "tock") || !strings.Contains(out, pipeline.BannerMonitorClosed) {
		t.Fatalf("unexpected output %q", out)
	}
}
