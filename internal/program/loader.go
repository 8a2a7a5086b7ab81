package program

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// ContentsFetcher reads a file from the config repository. Satisfied by the
// forge client; faked in tests.
type ContentsFetcher interface {
	GetFileContents(ctx context.Context, owner, repo, path string) ([]byte, error)
}

// Snapshot is one immutable view of the program configuration. Event
// handling always works from a single snapshot so that a refresh mid-event
// cannot mix registry and catalog versions.
type Snapshot struct {
	Registry *Registry
	Catalog  *Catalog
}

// Source names the config repository and the two documents inside it.
type Source struct {
	Owner        string
	Repo         string
	RegistryPath string
	CatalogPath  string
}

// Loader fetches and caches program configuration. Refresh failures keep the
// previous snapshot; only the very first load can leave the loader empty.
type Loader struct {
	fetcher ContentsFetcher
	source  Source

	mu   sync.RWMutex
	snap *Snapshot
}

func NewLoader(fetcher ContentsFetcher, source Source) *Loader {
	return &Loader{fetcher: fetcher, source: source}
}

// Snapshot returns the cached snapshot, fetching on first use. An error
// means no usable configuration exists and the caller must abandon the event.
func (l *Loader) Snapshot(ctx context.Context) (*Snapshot, error) {
	l.mu.RLock()
	snap := l.snap
	l.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	if err := l.Refresh(ctx); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap, nil
}

// Refresh fetches both documents and atomically replaces the snapshot. On
// failure the previous snapshot, if any, stays in place.
func (l *Loader) Refresh(ctx context.Context) error {
	regData, err := l.fetcher.GetFileContents(ctx, l.source.Owner, l.source.Repo, l.source.RegistryPath)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", l.source.RegistryPath, err)
	}
	registry, err := ParseRegistry(regData)
	if err != nil {
		return fmt.Errorf("parse %s: %w", l.source.RegistryPath, err)
	}

	catData, err := l.fetcher.GetFileContents(ctx, l.source.Owner, l.source.Repo, l.source.CatalogPath)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", l.source.CatalogPath, err)
	}
	catalog, err := ParseCatalog(catData)
	if err != nil {
		return fmt.Errorf("parse %s: %w", l.source.CatalogPath, err)
	}

	l.mu.Lock()
	l.snap = &Snapshot{Registry: registry, Catalog: catalog}
	l.mu.Unlock()

	log.Printf("[program] config refreshed: %d repos", len(registry.Repos))
	return nil
}
