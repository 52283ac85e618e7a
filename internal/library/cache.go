package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"arduinoctl/internal/runner"
	"arduinoctl/internal/toolchain"
)

// DefaultTTL is how long a fetched catalog is served without refreshing.
const DefaultTTL = 7 * 24 * time.Hour

// ErrRefresh marks a failed catalog refresh. Callers treat it as "no data".
var ErrRefresh = errors.New("catalog refresh failed")

type Logger interface {
	Printf(format string, v ...any)
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}

// Cache keeps the remote library catalog in a single JSON slot on disk.
type Cache struct {
	Path   string
	TTL    time.Duration
	CLI    toolchain.CLI
	Runner runner.Runner
	Logger Logger

	group singleflight.Group
	now   func() time.Time
}

// NewCache returns a cache stored at path using the default TTL.
func NewCache(path string, cli toolchain.CLI, r runner.Runner, logger Logger) *Cache {
	if r == nil {
		r = runner.CmdRunner{}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Cache{
		Path:   path,
		TTL:    DefaultTTL,
		CLI:    cli,
		Runner: r,
		Logger: logger,
		now:    time.Now,
	}
}

func (c *Cache) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

func (c *Cache) ttl() time.Duration {
	if c.TTL <= 0 {
		return DefaultTTL
	}
	return c.TTL
}

func (c *Cache) logf(format string, v ...any) {
	if c.Logger == nil {
		return
	}
	c.Logger.Printf(format, v...)
}

// Read returns the stored record without checking its age. ok is false when
// the slot is missing or unreadable.
func (c *Cache) Read() (Record, bool) {
	rec, err := readRecord(c.Path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logf("catalog cache: ignoring unreadable slot %s: %v", c.Path, err)
		}
		return Record{}, false
	}
	return rec, true
}

// Load returns the cached catalog while it is fresh and refreshes it
// otherwise.
func (c *Cache) Load(ctx context.Context) (Record, error) {
	if rec, ok := c.Read(); ok && rec.Fresh(c.clock(), c.ttl()) {
		c.logf("catalog cache: hit (%d entries, fetched %s)", len(rec.Entries), rec.FetchedAt.Format(time.RFC3339))
		return rec, nil
	}
	return c.Refresh(ctx)
}

// Refresh fetches the catalog from the toolchain and replaces the slot. On
// failure the existing slot is left untouched and the error wraps ErrRefresh.
// Concurrent callers share a single subprocess. A caller whose ctx ends
// returns early; the shared refresh keeps running for the others.
func (c *Cache) Refresh(ctx context.Context) (Record, error) {
	ch := c.group.DoChan("refresh", func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		c.logf("catalog cache: caller gave up waiting: %v", ctx.Err())
		return Record{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.logf("catalog cache: joined in-flight refresh")
		}
		if res.Err != nil {
			return Record{}, res.Err
		}
		return res.Val.(Record), nil
	}
}

func (c *Cache) refresh(ctx context.Context) (Record, error) {
	r := c.Runner
	if r == nil {
		r = runner.CmdRunner{}
	}
	args := c.CLI.CatalogArgs()
	c.logf("catalog cache: running %s %s", c.CLI.Binary(), strings.Join(args, " "))

	res, err := r.Run(ctx, c.CLI.Binary(), args, runner.RunOptions{})
	if err != nil || res.ExitCode != 0 {
		detail := strings.TrimSpace(string(res.Stderr))
		if detail == "" && err != nil {
			detail = err.Error()
		}
		c.logf("catalog cache: refresh failed (exit %d): %s", res.ExitCode, detail)
		return Record{}, fmt.Errorf("%w: exit %d: %s", ErrRefresh, res.ExitCode, detail)
	}

	raws, err := toolchain.DecodeCatalog(res.Stdout)
	if err != nil {
		c.logf("catalog cache: refresh output unparsable: %v", err)
		return Record{}, fmt.Errorf("%w: %v", ErrRefresh, err)
	}

	rec := Record{FetchedAt: c.clock().UTC(), Entries: make([]Entry, 0, len(raws))}
	for _, raw := range raws {
		rec.Entries = append(rec.Entries, NewEntry(raw))
	}
	if err := writeRecord(c.Path, rec); err != nil {
		return Record{}, err
	}
	c.logf("catalog cache: stored %d entries", len(rec.Entries))
	return rec, nil
}

// Invalidate drops the slot so the next Load refreshes.
func (c *Cache) Invalidate() error {
	return removeRecord(c.Path)
}
