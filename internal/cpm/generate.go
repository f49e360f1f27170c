// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

// Package cpm generates the central package management manifest: one
// batch-wide version pin per package id, removing per-project version
// duplication.
package cpm

import (
	"fmt"
	"path/filepath"
	"sort"

	goversion "github.com/hashicorp/go-version"
	"github.com/juju/loggo/v2"

	"github.com/thomhurst/sdkmigrate/core/migration"
	"github.com/thomhurst/sdkmigrate/core/packages"
)

var logger = loggo.GetLogger("sdkmigrate.cpm")

// Entry is one pinned package in the manifest.
type Entry struct {
	ID      string
	Version string
	Class   Class

	// Global entries apply to every project (analyzers, build tools).
	Global bool
}

// Manifest is the generated central manifest plus its bookkeeping.
type Manifest struct {
	// Path is where the manifest will be written
	// (<root>/Directory.Packages.props).
	Path string

	Entries []Entry

	// SpecialHandling holds human-readable notes for package families
	// that need manual attention; they are still pinned normally.
	SpecialHandling []string

	// Covered is the canonical id set the manifest pins. Project
	// declarations for covered ids must not carry a version attribute.
	covered map[string]bool
}

// Covers reports whether the manifest pins the given package id.
func (m *Manifest) Covers(id string) bool {
	return m.covered[packages.CanonicalID(id)]
}

// Generate produces one manifest entry per distinct package id across
// all successfully migrated projects. Conflicted ids use their
// resolution; unconflicted ids use their sole requested version (the
// highest, should requests disagree only in formatting).
func Generate(root string, results []*migration.Result, resolutions []packages.Resolution) (*Manifest, error) {
	resolved := make(map[string]string, len(resolutions))
	for _, resolution := range resolutions {
		resolved[packages.CanonicalID(resolution.ID)] = resolution.Version
	}

	manifest := &Manifest{
		Path:    filepath.Join(root, "Directory.Packages.props"),
		covered: map[string]bool{},
	}

	type pin struct {
		id      string
		version string
	}
	pins := map[string]pin{}
	var order []string
	for _, result := range results {
		if !eligible(result) {
			continue
		}
		for _, request := range result.MigratedPackages {
			if request.Transitive || request.Version == "" {
				continue
			}
			key := request.Key()
			version := request.Version
			if v, ok := resolved[key]; ok {
				version = v
			}
			existing, seen := pins[key]
			if !seen {
				pins[key] = pin{id: request.ID, version: version}
				order = append(order, key)
				continue
			}
			if existing.version != version && higher(version, existing.version) {
				existing.version = version
				pins[key] = existing
			}
		}
	}
	sort.Strings(order)

	noted := map[string]bool{}
	for _, key := range order {
		p := pins[key]
		class := classify(p.id)
		manifest.Entries = append(manifest.Entries, Entry{
			ID:      p.id,
			Version: p.version,
			Class:   class,
			Global:  class.Global(),
		})
		manifest.covered[key] = true
		if note, special := specialHandlingNote(p.id); special && !noted[note] {
			noted[note] = true
			manifest.SpecialHandling = append(manifest.SpecialHandling,
				fmt.Sprintf("%s: %s", p.id, note))
		}
	}

	logger.Debugf("central manifest pins %d packages (%d flagged for special handling)",
		len(manifest.Entries), len(manifest.SpecialHandling))
	return manifest, nil
}

// StripCoveredVersions removes the version from every request the
// manifest covers; metadata other than the version survives. This
// upholds the invariant that once a central manifest exists, no
// project-level declaration carries an explicit version for a covered
// id.
func (m *Manifest) StripCoveredVersions(results []*migration.Result) {
	for _, result := range results {
		if !eligible(result) {
			continue
		}
		for i := range result.MigratedPackages {
			request := &result.MigratedPackages[i]
			if m.Covers(request.ID) {
				request.Version = ""
			}
		}
	}
}

// eligible reports whether a result contributes to the manifest. The
// manifest is generated between transformation and the write phase, so
// contributing projects may not have reached their terminal phase yet.
func eligible(result *migration.Result) bool {
	return !result.NotProcessed && !result.Phase.IsFailure()
}

func higher(a, b string) bool {
	av, errA := goversion.NewVersion(a)
	bv, errB := goversion.NewVersion(b)
	if errA != nil || errB != nil {
		return a > b
	}
	return av.GreaterThan(bv)
}
