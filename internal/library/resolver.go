package library

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"arduinoctl/internal/runner"
	"arduinoctl/internal/toolchain"
)

// Status is the install state of a catalog library.
type Status string

const (
	StatusNotInstalled Status = "not-installed"
	StatusInstalled    Status = "installed"
	StatusOutdated     Status = "outdated"
)

// Item is one selectable library in a picker.
type Item struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Status    Status `json:"status"`
	Installed string `json:"installed,omitempty"`
	Latest    string `json:"latest,omitempty"`
	Sentence  string `json:"sentence,omitempty"`
}

// InstalledSet maps installed library names to their versions.
type InstalledSet map[string]string

// OutdatedSet maps outdated library names to the newest available version.
type OutdatedSet map[string]string

// StatusOf classifies name against the two sets.
func StatusOf(name string, installed InstalledSet, outdated OutdatedSet) Status {
	_, isInstalled := installed[name]
	if !isInstalled {
		return StatusNotInstalled
	}
	if _, isOutdated := outdated[name]; isOutdated {
		return StatusOutdated
	}
	return StatusInstalled
}

// Label renders the picker text for a library, e.g. "Servo (installed)".
func Label(name string, status Status) string {
	return fmt.Sprintf("%s (%s)", name, status)
}

// Resolver cross-references catalog entries with the toolchain's installed and
// outdated listings. Nothing is cached between calls.
type Resolver struct {
	CLI    toolchain.CLI
	Runner runner.Runner
	Logger Logger
}

// Sets queries installed and outdated libraries concurrently. A failed or
// unparsable query degrades to an empty set without cancelling the other.
func (r *Resolver) Sets(ctx context.Context) (InstalledSet, OutdatedSet) {
	var (
		installed InstalledSet
		outdated  OutdatedSet
		g         errgroup.Group
	)
	g.Go(func() error {
		var err error
		installed, err = r.query(ctx, "installed", r.CLI.InstalledArgs(), toolchain.DecodeInstalled)
		return err
	})
	g.Go(func() error {
		var err error
		outdated, err = r.query(ctx, "outdated", r.CLI.OutdatedArgs(), toolchain.DecodeOutdated)
		return err
	})
	if err := g.Wait(); err != nil {
		r.logf("resolver: %v", err)
	}
	return installed, outdated
}

// Resolve maps entries to picker items in catalog order. Entries without a
// name are skipped.
func (r *Resolver) Resolve(ctx context.Context, entries []Entry) []Item {
	installed, outdated := r.Sets(ctx)
	return Classify(entries, installed, outdated)
}

// Classify builds items from already fetched sets.
func Classify(entries []Entry, installed InstalledSet, outdated OutdatedSet) []Item {
	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			continue
		}
		status := StatusOf(name, installed, outdated)
		items = append(items, Item{
			Name:      name,
			Label:     Label(name, status),
			Status:    status,
			Installed: installed[name],
			Latest:    outdated[name],
			Sentence:  entry.Sentence(),
		})
	}
	return items
}

// query always returns a usable set; err reports why it is empty.
func (r *Resolver) query(ctx context.Context, what string, args []string, decode func([]byte) (map[string]string, error)) (map[string]string, error) {
	run := r.Runner
	if run == nil {
		run = runner.CmdRunner{}
	}
	res, err := run.Run(ctx, r.CLI.Binary(), args, runner.RunOptions{})
	if err != nil || res.ExitCode != 0 {
		return map[string]string{}, fmt.Errorf("%s query failed (exit %d): %v %s", what, res.ExitCode, err, strings.TrimSpace(string(res.Stderr)))
	}
	set, err := decode(res.Stdout)
	if err != nil {
		return map[string]string{}, fmt.Errorf("%s query unparsable: %w", what, err)
	}
	return set, nil
}

func (r *Resolver) logf(format string, v ...any) {
	if r.Logger == nil {
		return
	}
	r.Logger.Printf(format, v...)
}
