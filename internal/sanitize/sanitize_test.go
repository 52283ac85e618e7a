package sanitize

import (
	"reflect"
	"strings"
	"testing"
)

func TestLinesStripsColorCodes(t *testing.T) {
	got := Lines("line1\n\x1b[31mline2\x1b[0m\n")
	want := []string{"line1", "line2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Lines() = %q, want %q", got, want)
	}
}

func TestLinesKeepsEmptyLines(t *testing.T) {
	got := Lines("first\n\nthird")
	want := []string{"first", "", "third"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Lines() = %q, want %q", got, want)
	}
}

func TestLinesNormalizesCarriageReturns(t *testing.T) {
	got := Lines("a\r\nb\rc\n")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Lines() = %q, want %q", got, want)
	}
}

func TestLinesIdempotent(t *testing.T) {
	inputs := []string{
		"Sketch uses 924 bytes (2%) of program storage space.",
		"\x1b[1;32mavrdude done.\x1b[0m  Thank you.\n",
		"a\n\nb",
		"\x1b]0;title\x07plain\n\tindented",
		"",
	}
	for _, in := range inputs {
		first := Lines(in)
		second := Lines(strings.Join(first, "\n"))
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("not idempotent for %q: %q then %q", in, first, second)
		}
		for _, line := range first {
			if again := Lines(line); len(again) != 1 || again[0] != line {
				t.Fatalf("clean line %q changed to %q", line, again)
			}
		}
	}
}

func TestLineWithoutEscapesUnchanged(t *testing.T) {
	in := "Global variables use 9 bytes"
	if got := Line(in); got != in {
		t.Fatalf("Line() = %q, want %q", got, in)
	}
}

func TestBlank(t *testing.T) {
	cases := map[string]bool{
		"":          true,
		"   \t":     true,
		" warning ": false,
	}
	for in, want := range cases {
		if got := Blank(in); got != want {
			t.Fatalf("Blank(%q) = %v, want %v", in, got, want)
		}
	}
}
