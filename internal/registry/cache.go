// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/juju/collections/set"

	"github.com/thomhurst/sdkmigrate/core/packages"
)

// cachingClient memoises registry answers for the duration of one run.
// The coordinator owns the instance and discards it at run end; nothing
// is shared across runs.
type cachingClient struct {
	client Client

	mu         sync.Mutex
	assemblies map[string]assemblyEntry
	closures   map[string]closureEntry
}

type assemblyEntry struct {
	resolution *PackageResolution
	err        error
}

type closureEntry struct {
	closure set.Strings
	err     error
}

// NewCachingClient wraps client with per-run memoization. Errors are
// cached too: a failed reverse lookup is not retried within a run.
func NewCachingClient(client Client) Client {
	return &cachingClient{
		client:     client,
		assemblies: make(map[string]assemblyEntry),
		closures:   make(map[string]closureEntry),
	}
}

// ResolveAssemblyToPackage implements Client.
func (c *cachingClient) ResolveAssemblyToPackage(ctx context.Context, assemblyName string) (*PackageResolution, error) {
	key := strings.ToLower(assemblyName)
	c.mu.Lock()
	entry, ok := c.assemblies[key]
	c.mu.Unlock()
	if !ok {
		resolution, err := c.client.ResolveAssemblyToPackage(ctx, assemblyName)
		entry = assemblyEntry{resolution: resolution, err: err}
		c.mu.Lock()
		c.assemblies[key] = entry
		c.mu.Unlock()
	}
	if entry.err != nil {
		return nil, entry.err
	}
	copied := *entry.resolution
	return &copied, nil
}

// DependencyClosure implements Client.
func (c *cachingClient) DependencyClosure(ctx context.Context, id, version, framework string) (set.Strings, error) {
	key := fmt.Sprintf("%s|%s|%s", packages.CanonicalID(id), version, framework)
	c.mu.Lock()
	entry, ok := c.closures[key]
	c.mu.Unlock()
	if !ok {
		closure, err := c.client.DependencyClosure(ctx, id, version, framework)
		entry = closureEntry{closure: closure, err: err}
		c.mu.Lock()
		c.closures[key] = entry
		c.mu.Unlock()
	}
	if entry.err != nil {
		return nil, entry.err
	}
	// Callers mutate closures while unioning; hand out a copy.
	return set.NewStrings(entry.closure.Values()...), nil
}

// LatestVersion implements Client. Latest-version answers are cheap and
// rarely repeated, so they are not cached.
func (c *cachingClient) LatestVersion(ctx context.Context, id string, includePrerelease bool) (string, error) {
	return c.client.LatestVersion(ctx, id, includePrerelease)
}
