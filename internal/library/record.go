package library

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"arduinoctl/internal/toolchain"
)

// Entry is one catalog entry. Raw is kept byte for byte so the cache file
// round-trips whatever fields the toolchain emits.
type Entry struct {
	Name string
	Raw  json.RawMessage
}

// NewEntry wraps a raw catalog object. The object is stored compacted,
// which is also the form it takes inside the cache file.
func NewEntry(raw json.RawMessage) Entry {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		buf.Reset()
		buf.Write(raw)
	}
	cp := json.RawMessage(buf.Bytes())
	return Entry{Name: toolchain.EntryName(cp), Raw: cp}
}

func (e Entry) MarshalJSON() ([]byte, error) {
	if len(e.Raw) == 0 {
		return []byte("null"), nil
	}
	return e.Raw, nil
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	*e = NewEntry(bytes.TrimSpace(data))
	return nil
}

// Sentence returns the catalog's one-line description when present.
func (e Entry) Sentence() string {
	var probe struct {
		Latest struct {
			Sentence string `json:"sentence"`
		} `json:"latest"`
		Sentence string `json:"sentence"`
	}
	if err := json.Unmarshal(e.Raw, &probe); err != nil {
		return ""
	}
	if probe.Latest.Sentence != "" {
		return probe.Latest.Sentence
	}
	return probe.Sentence
}

// Record is the persisted cache slot.
type Record struct {
	FetchedAt time.Time `json:"fetched_at"`
	Entries   []Entry   `json:"entries"`
}

// Fresh reports whether the record is younger than ttl at now.
func (r Record) Fresh(now time.Time, ttl time.Duration) bool {
	if r.FetchedAt.IsZero() || r.FetchedAt.After(now) {
		return false
	}
	return now.Sub(r.FetchedAt) < ttl
}

func readRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode catalog cache: %w", err)
	}
	if rec.Entries == nil {
		rec.Entries = []Entry{}
	}
	return rec, nil
}

// writeRecord replaces the slot atomically.
func writeRecord(path string, rec Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure cache dir: %w", err)
	}
	if rec.Entries == nil {
		rec.Entries = []Entry{}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode catalog cache: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp catalog cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace catalog cache: %w", err)
	}
	return nil
}

func removeRecord(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove catalog cache: %w", err)
	}
	return nil
}
