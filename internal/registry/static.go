// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package registry

import (
	"context"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"

	"github.com/thomhurst/sdkmigrate/core/packages"
)

// StaticClient is an in-memory Client backed by explicit tables. It
// serves two purposes: offline runs, where no registry is reachable and
// only pre-seeded knowledge is available, and tests, which seed it with
// scenario data.
type StaticClient struct {
	assemblies map[string]*PackageResolution
	deps       map[string][]string
	latest     map[string]string
	prerelease map[string]string
}

// NewStaticClient returns an empty static client. Unknown assemblies
// and packages yield NotFound; unknown closures are empty.
func NewStaticClient() *StaticClient {
	return &StaticClient{
		assemblies: make(map[string]*PackageResolution),
		deps:       make(map[string][]string),
		latest:     make(map[string]string),
		prerelease: make(map[string]string),
	}
}

// AddAssembly seeds a reverse-lookup entry.
func (c *StaticClient) AddAssembly(assemblyName string, resolution PackageResolution) {
	c.assemblies[strings.ToLower(assemblyName)] = &resolution
}

// AddDependency seeds a direct dependency edge from one package to
// another. Closures are computed by traversal, so cycles are permitted.
func (c *StaticClient) AddDependency(fromID, toID string) {
	key := packages.CanonicalID(fromID)
	c.deps[key] = append(c.deps[key], toID)
}

// AddLatest seeds the latest known version of a package. The optional
// prereleaseVersion is returned when prereleases are requested.
func (c *StaticClient) AddLatest(id, stableVersion, prereleaseVersion string) {
	c.latest[packages.CanonicalID(id)] = stableVersion
	if prereleaseVersion != "" {
		c.prerelease[packages.CanonicalID(id)] = prereleaseVersion
	}
}

// ResolveAssemblyToPackage implements Client.
func (c *StaticClient) ResolveAssemblyToPackage(_ context.Context, assemblyName string) (*PackageResolution, error) {
	if resolution, ok := c.assemblies[strings.ToLower(assemblyName)]; ok {
		copied := *resolution
		return &copied, nil
	}
	return nil, errors.NotFoundf("package for assembly %q", assemblyName)
}

// DependencyClosure implements Client. The closure is computed by a
// breadth-first traversal over the seeded edges with a visited set, so
// cyclic graphs terminate.
func (c *StaticClient) DependencyClosure(_ context.Context, id, version, framework string) (set.Strings, error) {
	root := packages.CanonicalID(id)
	closure := set.NewStrings()
	visited := set.NewStrings(root)
	frontier := []string{root}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		for _, dep := range c.deps[current] {
			key := packages.CanonicalID(dep)
			if visited.Contains(key) {
				continue
			}
			visited.Add(key)
			closure.Add(key)
			frontier = append(frontier, key)
		}
	}
	return closure, nil
}

// LatestVersion implements Client.
func (c *StaticClient) LatestVersion(_ context.Context, id string, includePrerelease bool) (string, error) {
	key := packages.CanonicalID(id)
	if includePrerelease {
		if v, ok := c.prerelease[key]; ok {
			return v, nil
		}
	}
	if v, ok := c.latest[key]; ok {
		return v, nil
	}
	return "", errors.NotFoundf("package %q", id)
}
