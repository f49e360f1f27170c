// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package resolve

import (
	"fmt"

	"github.com/thomhurst/sdkmigrate/core/packages"
)

// applyStrategy picks one of the candidates, which are sorted
// ascending. It returns the choice, a human-readable reason and any
// strategy-specific warnings.
func applyStrategy(strategy packages.Strategy, candidates []candidate) (candidate, string, []string) {
	highest := candidates[len(candidates)-1]

	switch strategy {
	case packages.UseLowest:
		lowest := candidates[0]
		return lowest, fmt.Sprintf("lowest of %d requested versions", len(candidates)), nil

	case packages.UseLatestStable:
		for i := len(candidates) - 1; i >= 0; i-- {
			if candidates[i].parsed.Prerelease() == "" {
				return candidates[i], "highest stable requested version", nil
			}
		}
		return highest, "no stable version requested; highest overall", nil

	case packages.UseMostCommon:
		// Mode of the multiset; ties broken by the highest version
		// among the modal set. Candidates are ascending, so the last
		// one matching the maximum count is the tie-break winner.
		maxCount := 0
		for _, c := range candidates {
			if c.count > maxCount {
				maxCount = c.count
			}
		}
		chosen := highest
		for _, c := range candidates {
			if c.count == maxCount {
				chosen = c
			}
		}
		return chosen, fmt.Sprintf("most commonly requested (%d of %d requests)",
			maxCount, totalRequests(candidates)), nil

	case packages.SemanticCompatible:
		// Highest major.minor group, then highest patch within it.
		// Ascending order means the group of the overall highest
		// version is the highest group and it already holds the
		// highest patch.
		return highest, fmt.Sprintf("highest patch within the %d.%d series",
			majorOf(highest.parsed), minorOf(highest.parsed)), nil

	case packages.FrameworkCompatible:
		// TODO: framework-aware filtering; behaves as UseHighest until
		// target-framework compatibility data is wired in.
		return highest, "highest requested version (framework compatibility not evaluated)",
			[]string{"framework compatibility was not verified; treat as UseHighest"}

	case packages.UseHighest:
		fallthrough
	default:
		return highest, fmt.Sprintf("highest of %d requested versions", len(candidates)), nil
	}
}

func totalRequests(candidates []candidate) int {
	total := 0
	for _, c := range candidates {
		total += c.count
	}
	return total
}
