package library

import (
	"context"
	"fmt"

	"github.com/sahilm/fuzzy"

	"arduinoctl/internal/runner"
	"arduinoctl/internal/toolchain"
)

// Service ties the catalog cache, the status resolver and the installer
// together for the command surface.
type Service struct {
	Cache     *Cache
	Resolver  *Resolver
	Installer *Installer
}

// NewService wires a service around one toolchain binary and runner.
func NewService(cachePath string, cli toolchain.CLI, r runner.Runner, logger Logger) *Service {
	if r == nil {
		r = runner.CmdRunner{}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Service{
		Cache:     NewCache(cachePath, cli, r, logger),
		Resolver:  &Resolver{CLI: cli, Runner: r, Logger: logger},
		Installer: &Installer{CLI: cli, Runner: r, Logger: logger},
	}
}

// Items loads the catalog (refreshing when stale, or always when force is set)
// and resolves every entry's status.
func (s *Service) Items(ctx context.Context, force bool) ([]Item, error) {
	var (
		rec Record
		err error
	)
	if force {
		rec, err = s.Cache.Refresh(ctx)
	} else {
		rec, err = s.Cache.Load(ctx)
	}
	if err != nil {
		return nil, err
	}
	return s.Resolver.Resolve(ctx, rec.Entries), nil
}

// Apply installs a library that is not installed and upgrades one that is.
func (s *Service) Apply(ctx context.Context, item Item) (Result, error) {
	if item.Status == StatusNotInstalled || item.Status == "" {
		return s.Installer.Install(ctx, item.Name)
	}
	return s.Installer.Upgrade(ctx, item.Name)
}

// UpdateIndex refreshes the toolchain index and then the catalog cache.
func (s *Service) UpdateIndex(ctx context.Context) (Record, error) {
	if err := s.Installer.UpdateIndex(ctx); err != nil {
		return Record{}, err
	}
	rec, err := s.Cache.Refresh(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("refresh after index update: %w", err)
	}
	return rec, nil
}

type itemSource []Item

func (s itemSource) String(i int) string { return s[i].Name }
func (s itemSource) Len() int            { return len(s) }

// Search ranks items by fuzzy match against their names. An empty query
// returns items unchanged.
func Search(items []Item, query string) []Item {
	if query == "" {
		return items
	}
	matches := fuzzy.FindFrom(query, itemSource(items))
	out := make([]Item, 0, len(matches))
	for _, m := range matches {
		out = append(out, items[m.Index])
	}
	return out
}

// Find returns the item named name.
func Find(items []Item, name string) (Item, bool) {
	for _, item := range items {
		if item.Name == name {
			return item, true
		}
	}
	return Item{}, false
}
