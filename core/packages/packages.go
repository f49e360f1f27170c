// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

// Package packages holds the shared data types describing package
// requests, version conflicts and their resolutions.
package packages

// Request is one project's declared need for a named package at a
// version. Requests are created by the package migrator; the elision
// analyzer may set Transitive and the conflict resolver may rewrite
// Version, nothing else mutates them.
type Request struct {
	// ID is the package id as declared. NuGet ids compare
	// case-insensitively; Key canonicalises for grouping.
	ID string

	// Version is the requested version string, empty once the request
	// is covered by a central manifest.
	Version string

	// Transitive marks a request that is already supplied by the
	// dependency closure of another kept request and can therefore be
	// elided from the project file.
	Transitive bool

	// ProjectPath is the project file that made the request.
	ProjectPath string

	// TargetFrameworks the request applies to.
	TargetFrameworks []string

	// Metadata holds extra declaration metadata (PrivateAssets,
	// IncludeAssets, ...) preserved through migration.
	Metadata map[string]string
}

// Key returns the canonical grouping key for the request's package id.
func (r Request) Key() string { return CanonicalID(r.ID) }

// Requested records one project's version request inside a conflict set.
type Requested struct {
	ProjectPath string
	Version     string
}

// ConflictSet is the set of distinct versions requested for one package
// id across a batch. Derived and read-only.
type ConflictSet struct {
	ID        string
	Requested []Requested
}

// Resolution is the outcome of reconciling one package's conflicting
// version requests. At most one Resolution exists per package id per run.
type Resolution struct {
	ID       string
	Version  string
	Strategy Strategy

	// Reason is a human-readable explanation of why Version was chosen.
	Reason string

	// Degraded marks a resolution that fell back to the first version
	// encountered because the strategy failed internally.
	Degraded bool

	Warnings []string
}

// Update is a derived per-project instruction to rewrite one package's
// version.
type Update struct {
	ID   string
	From string
	To   string
}
