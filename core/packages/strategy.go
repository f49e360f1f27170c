// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package packages

import (
	"strings"

	"github.com/juju/errors"
)

// Strategy selects how conflicting version requests for one package are
// reconciled across a batch.
type Strategy string

const (
	// UseHighest picks the highest requested version.
	UseHighest Strategy = "use-highest"
	// UseLowest picks the lowest requested version.
	UseLowest Strategy = "use-lowest"
	// UseLatestStable picks the highest stable requested version,
	// falling back to the highest overall if none is stable.
	UseLatestStable Strategy = "use-latest-stable"
	// UseMostCommon picks the most frequently requested version, ties
	// broken by the highest version among the modal set.
	UseMostCommon Strategy = "use-most-common"
	// SemanticCompatible picks the highest major.minor group and the
	// highest patch within it.
	SemanticCompatible Strategy = "semantic-compatible"
	// FrameworkCompatible behaves as UseHighest and attaches a
	// compatibility warning. Framework-aware filtering is a known gap.
	FrameworkCompatible Strategy = "framework-compatible"
)

var strategies = map[Strategy]bool{
	UseHighest:          true,
	UseLowest:           true,
	UseLatestStable:     true,
	UseMostCommon:       true,
	SemanticCompatible:  true,
	FrameworkCompatible: true,
}

// ParseStrategy converts a user-supplied strategy name.
func ParseStrategy(s string) (Strategy, error) {
	strategy := Strategy(strings.ToLower(strings.TrimSpace(s)))
	if !strategies[strategy] {
		return "", errors.NotValidf("resolution strategy %q", s)
	}
	return strategy, nil
}

// CanonicalID lowercases a package id for grouping; NuGet package ids are
// case-insensitive.
func CanonicalID(id string) string { return strings.ToLower(id) }
