// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

// Package resolve reconciles conflicting package version requests
// across a whole migration batch. It runs exactly once per run, after
// every project's per-project work has completed.
package resolve

import (
	"fmt"
	"sort"

	goversion "github.com/hashicorp/go-version"
	"github.com/juju/loggo/v2"

	"github.com/thomhurst/sdkmigrate/core/packages"
)

var logger = loggo.GetLogger("sdkmigrate.resolve")

// Resolver reconciles version conflicts with a configured strategy.
type Resolver struct {
	strategy packages.Strategy
}

// NewResolver returns a Resolver for the given strategy.
func NewResolver(strategy packages.Strategy) *Resolver {
	return &Resolver{strategy: strategy}
}

// Conflicts groups the requests by package id and returns the groups
// with more than one distinct version string, sorted by id.
func Conflicts(requests []packages.Request) []packages.ConflictSet {
	type group struct {
		id       string
		requests []packages.Requested
		versions map[string]bool
	}
	groups := map[string]*group{}
	var order []string
	for _, r := range requests {
		key := r.Key()
		g, ok := groups[key]
		if !ok {
			g = &group{id: r.ID, versions: map[string]bool{}}
			groups[key] = g
			order = append(order, key)
		}
		g.requests = append(g.requests, packages.Requested{
			ProjectPath: r.ProjectPath,
			Version:     r.Version,
		})
		if r.Version != "" {
			g.versions[r.Version] = true
		}
	}
	sort.Strings(order)

	var conflicts []packages.ConflictSet
	for _, key := range order {
		g := groups[key]
		if len(g.versions) <= 1 {
			continue
		}
		conflicts = append(conflicts, packages.ConflictSet{
			ID:        g.id,
			Requested: g.requests,
		})
	}
	return conflicts
}

// Resolve produces one resolution per conflicted package id. The result
// is deterministic regardless of the order requests arrived in. An
// internal failure resolving one package degrades that resolution to
// the first version encountered in input order, with a warning; it
// never aborts the batch.
func (r *Resolver) Resolve(requests []packages.Request) []packages.Resolution {
	conflicts := Conflicts(requests)
	resolutions := make([]packages.Resolution, 0, len(conflicts))
	for _, conflict := range conflicts {
		resolutions = append(resolutions, r.resolveOne(conflict))
	}
	return resolutions
}

func (r *Resolver) resolveOne(conflict packages.ConflictSet) packages.Resolution {
	distinct := distinctVersions(conflict)

	parsed, parseErr := parseAll(distinct)
	if parseErr != nil {
		// Degraded: fall back to the first version encountered in
		// input order.
		first := conflict.Requested[0].Version
		logger.Warningf("resolution of %s degraded: %v", conflict.ID, parseErr)
		return packages.Resolution{
			ID:       conflict.ID,
			Version:  first,
			Strategy: r.strategy,
			Reason:   "degraded: first requested version retained",
			Degraded: true,
			Warnings: []string{fmt.Sprintf(
				"could not order versions for %s (%v); kept %s", conflict.ID, parseErr, first)},
		}
	}

	counts := map[string]int{}
	for _, req := range conflict.Requested {
		counts[req.Version]++
	}
	for i := range parsed {
		parsed[i].count = counts[parsed[i].raw]
	}

	chosen, reason, warnings := applyStrategy(r.strategy, parsed)
	resolution := packages.Resolution{
		ID:       conflict.ID,
		Version:  chosen.raw,
		Strategy: r.strategy,
		Reason:   reason,
		Warnings: warnings,
	}
	resolution.Warnings = append(resolution.Warnings, heuristicWarnings(conflict.ID, chosen, parsed)...)
	return resolution
}

// Updates derives the per-project rewrite instructions implied by the
// resolutions: every request whose version differs from the resolved
// one gets an old-version to new-version update.
func Updates(requests []packages.Request, resolutions []packages.Resolution) map[string][]packages.Update {
	resolved := make(map[string]string, len(resolutions))
	for _, resolution := range resolutions {
		resolved[packages.CanonicalID(resolution.ID)] = resolution.Version
	}
	updates := map[string][]packages.Update{}
	for _, request := range requests {
		to, ok := resolved[request.Key()]
		if !ok || request.Version == to || request.Version == "" {
			continue
		}
		updates[request.ProjectPath] = append(updates[request.ProjectPath], packages.Update{
			ID:   request.ID,
			From: request.Version,
			To:   to,
		})
	}
	return updates
}

func distinctVersions(conflict packages.ConflictSet) []string {
	seen := map[string]bool{}
	var versions []string
	for _, req := range conflict.Requested {
		if req.Version == "" || seen[req.Version] {
			continue
		}
		seen[req.Version] = true
		versions = append(versions, req.Version)
	}
	return versions
}

// candidate pairs a raw version string with its parsed form and its
// request count within the conflict.
type candidate struct {
	raw    string
	parsed *goversion.Version
	count  int
}

func parseAll(versions []string) ([]candidate, error) {
	candidates := make([]candidate, 0, len(versions))
	for _, raw := range versions {
		v, err := goversion.NewVersion(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", raw, err)
		}
		candidates = append(candidates, candidate{raw: raw, parsed: v})
	}
	// Ascending order makes every strategy independent of input order.
	sort.SliceStable(candidates, func(i, j int) bool {
		if c := candidates[i].parsed.Compare(candidates[j].parsed); c != 0 {
			return c < 0
		}
		return candidates[i].raw < candidates[j].raw
	})
	return candidates, nil
}

// heuristicWarnings evaluates the two strategy-independent warning
// heuristics: major-version regression and version spread.
func heuristicWarnings(id string, chosen candidate, all []candidate) []string {
	var warnings []string
	resolvedMajor := majorOf(chosen.parsed)
	resolvedMinor := minorOf(chosen.parsed)

	regression := false
	spread := false
	for _, c := range all {
		if majorOf(c.parsed) < resolvedMajor {
			regression = true
		}
		majorDelta := majorOf(c.parsed) - resolvedMajor
		if majorDelta < 0 {
			majorDelta = -majorDelta
		}
		minorDelta := minorOf(c.parsed) - resolvedMinor
		if minorDelta < 0 {
			minorDelta = -minorDelta
		}
		if majorDelta > 1 || minorDelta > 3 {
			spread = true
		}
	}
	if regression {
		warnings = append(warnings, fmt.Sprintf(
			"%s: some projects requested a lower major version than resolved %s; verify binary compatibility",
			id, chosen.raw))
	}
	if spread {
		warnings = append(warnings, fmt.Sprintf(
			"%s: requested versions are widely spread around resolved %s; review each project",
			id, chosen.raw))
	}
	return warnings
}

func majorOf(v *goversion.Version) int {
	return v.Segments()[0]
}

func minorOf(v *goversion.Version) int {
	return v.Segments()[1]
}
