// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

// Package registry defines the package-registry capability consumed by
// the migration engine, together with a per-run caching wrapper, a
// retrying wrapper and a static in-memory implementation.
//
// The engine never blocks on network I/O itself; any network-backed
// Client implementation is expected to bring its own timeout contract
// and fail fast.
package registry

import (
	"context"

	"github.com/juju/collections/set"
)

// AdditionalPackage is a companion package that must accompany a
// primary one (a test framework's test adapter, for example).
type AdditionalPackage struct {
	ID      string
	Version string
}

// PackageResolution is the outcome of reverse-looking-up an assembly
// name.
type PackageResolution struct {
	ID      string
	Version string

	// Additional lists companion packages to request alongside ID.
	Additional []AdditionalPackage
}

// Client resolves package metadata and dependency graphs.
type Client interface {
	// ResolveAssemblyToPackage reverse-looks-up the package providing
	// the named assembly. Returns errors.NotFound if no package is
	// known for the assembly.
	ResolveAssemblyToPackage(ctx context.Context, assemblyName string) (*PackageResolution, error)

	// DependencyClosure returns the full transitive dependency closure
	// of the given package (not including the package itself).
	DependencyClosure(ctx context.Context, id, version, framework string) (set.Strings, error)

	// LatestVersion returns the latest known version of the package.
	// Returns errors.NotFound if the package is unknown.
	LatestVersion(ctx context.Context, id string, includePrerelease bool) (string, error)
}
