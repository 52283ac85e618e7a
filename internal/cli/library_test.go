package cli

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"arduinoctl/internal/library"
)

const (
	catalogKey   = "lib search --format json"
	installedKey = "lib list --format json"
	outdatedKey  = "outdated --format json"
)

func libraryRunner() *stubRunner {
	return &stubRunner{responses: map[string]stubResponse{
		catalogKey: {stdout: `{"libraries":[
			{"name":"Servo","latest":{"version":"1.2.1","sentence":"Control servo motors"}},
			{"name":"Stepper","latest":{"version":"1.1.3"}},
			{"name":"WiFiNINA","latest":{"version":"1.8.14"}}
		]}`},
		installedKey: {stdout: `{"installed_libraries":[
			{"library":{"name":"Servo","version":"1.2.1"}},
			{"library":{"name":"Stepper","version":"1.0.0"}}
		]}`},
		outdatedKey: {stdout: `{"libraries":[{"library":{"name":"Stepper"},"release":{"version":"1.1.3"}}]}`},
	}}
}

func TestLibraryListShowsStatus(t *testing.T) {
	isolate(t, libraryRunner(), nil)

	out, _, err := execute(t, newLibraryCmd(), "list")
	if err != nil {
		t.Fatalf("library list: %v", err)
	}
	for _, want := range []string{"Servo", "installed", "Stepper", "outdated", "WiFiNINA", "not-installed", "Control servo motors"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestLibraryJSONUsesCache(t *testing.T) {
	r := libraryRunner()
	isolate(t, r, nil)
	outputJSON = true

	if _, _, err := execute(t, newLibraryCmd(), "list"); err != nil {
		t.Fatalf("first list: %v", err)
	}
	delete(r.responses, catalogKey)

	out, _, err := execute(t, newLibraryCmd(), "list")
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	var items []library.Item
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode: %v (%q)", err, out)
	}
	if len(items) != 3 {
		t.Fatalf("expected cached catalog of 3, got %d", len(items))
	}
}

func TestLibraryCatalogUnavailable(t *testing.T) {
	r := &stubRunner{responses: map[string]stubResponse{
		catalogKey: {stderr: "network down", code: 1, err: errors.New("exit status 1")},
	}}
	isolate(t, r, nil)

	out, errOut, err := execute(t, newLibraryCmd())
	if err != nil {
		t.Fatalf("an unavailable catalog is not a command failure: %v", err)
	}
	if out != "" || !strings.Contains(errOut, "Library catalog unavailable") {
		t.Fatalf("unexpected output out=%q err=%q", out, errOut)
	}
}

func TestLibrarySearchIsFuzzy(t *testing.T) {
	isolate(t, libraryRunner(), nil)

	out, _, err := execute(t, newLibraryCmd(), "search", "stp")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "Stepper") || strings.Contains(out, "Servo") {
		t.Fatalf("unexpected search output %q", out)
	}
}

func TestLibraryInstallChoosesAction(t *testing.T) {
	r := libraryRunner()
	r.responses["lib install WiFiNINA"] = stubResponse{stdout: "Installed WiFiNINA@1.8.14"}
	r.responses["lib upgrade Stepper"] = stubResponse{stdout: "Upgraded"}
	isolate(t, r, nil)

	out, _, err := execute(t, newLibraryCmd(), "install", "WiFiNINA")
	if err != nil || !strings.Contains(out, "Library WiFiNINA installed") {
		t.Fatalf("install: %v %q", err, out)
	}
	out, _, err = execute(t, newLibraryCmd(), "install", "Stepper")
	if err != nil || !strings.Contains(out, "Library Stepper updated") {
		t.Fatalf("upgrade: %v %q", err, out)
	}
	out, _, err = execute(t, newLibraryCmd(), "install", "Servo")
	if err != nil || !strings.Contains(out, "already up to date") {
		t.Fatalf("up to date: %v %q", err, out)
	}
	if r.called("lib upgrade Servo") || r.called("lib install Servo") {
		t.Fatal("an up to date library must not be reinstalled")
	}
}

func TestLibraryInstallFailureExitCode(t *testing.T) {
	r := libraryRunner()
	r.responses["lib install WiFiNINA"] = stubResponse{stderr: "no space left", code: 3, err: errors.New("exit status 3")}
	isolate(t, r, nil)

	out, errOut, err := execute(t, newLibraryCmd(), "install", "WiFiNINA")
	if err == nil {
		t.Fatal("expected failure for a non-zero exit")
	}
	if !strings.Contains(out, "could not be installed (exit 3)") || !strings.Contains(errOut, "no space left") {
		t.Fatalf("unexpected output out=%q err=%q", out, errOut)
	}
}
