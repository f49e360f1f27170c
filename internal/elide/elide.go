// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

// Package elide prunes redundant package requests: a request already
// supplied by the dependency closure of another kept request, or by a
// referenced sibling project's closure, is marked transitive and
// dropped from the project file.
package elide

import (
	"context"
	"sort"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/thomhurst/sdkmigrate/core/packages"
	"github.com/thomhurst/sdkmigrate/internal/registry"
)

var logger = loggo.GetLogger("sdkmigrate.elide")

// Analyzer computes dependency closures and marks transitive requests.
type Analyzer struct {
	registry registry.Client

	// essential holds canonical package ids never elided regardless of
	// reachability (declared test adapters and the like).
	essential set.Strings
}

// NewAnalyzer returns an Analyzer. Essential ids are exempt from
// elision.
func NewAnalyzer(client registry.Client, essential []string) *Analyzer {
	canonical := set.NewStrings()
	for _, id := range essential {
		canonical.Add(packages.CanonicalID(id))
	}
	return &Analyzer{registry: client, essential: canonical}
}

// Elide marks each request in requests as transitive when it is
// reachable from the closure of any other kept request, or from the
// union of the referenced sibling projects' closures. siblingRequests
// holds the direct requests of each referenced sibling project; exactly
// one level of sibling closure is considered, sibling references of
// siblings do not propagate.
//
// Requests are visited in canonical id order so the outcome is
// independent of input order. Closure fetches that fail degrade to an
// empty closure with a warning; elision never fails a project.
func (a *Analyzer) Elide(ctx context.Context, requests []packages.Request, siblingRequests map[string][]packages.Request) ([]packages.Request, []string) {
	var warnings []string

	framework := ""
	if len(requests) > 0 && len(requests[0].TargetFrameworks) > 0 {
		framework = requests[0].TargetFrameworks[0]
	}

	closure := func(r packages.Request) set.Strings {
		deps, err := a.registry.DependencyClosure(ctx, r.ID, r.Version, framework)
		if err != nil {
			warnings = append(warnings,
				"dependency closure unavailable for "+r.ID+"; not eliding against it")
			logger.Debugf("closure fetch for %s@%s failed: %v", r.ID, r.Version, err)
			return set.NewStrings()
		}
		return deps
	}

	// Sibling closures are unioned up front: anything a referenced
	// project already supplies, directly or transitively, need not be
	// declared here.
	suppliedBySiblings := set.NewStrings()
	for _, sibling := range siblingRequests {
		for _, r := range sibling {
			suppliedBySiblings.Add(r.Key())
			suppliedBySiblings = suppliedBySiblings.Union(closure(r))
		}
	}

	kept := make([]packages.Request, len(requests))
	copy(kept, requests)

	// Deterministic visiting order, independent of declaration order.
	order := make([]int, len(kept))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return kept[order[i]].Key() < kept[order[j]].Key()
	})

	closures := make([]set.Strings, len(kept))
	for i, r := range kept {
		closures[i] = closure(r)
	}

	for _, i := range order {
		r := kept[i]
		if a.essential.Contains(r.Key()) {
			continue
		}
		if suppliedBySiblings.Contains(r.Key()) {
			kept[i].Transitive = true
			logger.Debugf("%s elided: supplied by a referenced project", r.ID)
			continue
		}
		for j := range kept {
			if j == i || kept[j].Transitive {
				continue
			}
			if closures[j].Contains(r.Key()) {
				kept[i].Transitive = true
				logger.Debugf("%s elided: reachable from %s", r.ID, kept[j].ID)
				break
			}
		}
	}

	return kept, warnings
}

// Validate checks the analyzer is usable.
func (a *Analyzer) Validate() error {
	if a.registry == nil {
		return errors.NotValidf("nil registry client")
	}
	return nil
}
