// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package migrator

import (
	"fmt"
	"strings"

	"github.com/juju/naturalsort"

	"github.com/thomhurst/sdkmigrate/core/migration"
	"github.com/thomhurst/sdkmigrate/core/packages"
	"github.com/thomhurst/sdkmigrate/internal/cpm"
	"github.com/thomhurst/sdkmigrate/internal/safety"
)

// Report is the complete outcome of one migration run. A preview run
// produces the same report a real run would, differing only in the
// Preview flag, the WouldChange list and the absence of a session.
type Report struct {
	Root    string `json:"root"`
	Preview bool   `json:"preview"`

	Results     []*migration.Result          `json:"results"`
	Conflicts   []packages.ConflictSet       `json:"conflicts,omitempty"`
	Resolutions []packages.Resolution        `json:"resolutions,omitempty"`
	Updates     map[string][]packages.Update `json:"updates,omitempty"`
	Manifest    *cpm.Manifest                `json:"manifest,omitempty"`

	SessionID     string `json:"session-id,omitempty"`
	BackedUpFiles int    `json:"backed-up-files,omitempty"`

	WouldChange []string       `json:"would-change,omitempty"`
	AuditEvents []safety.Event `json:"audit-events,omitempty"`
}

// Counts tallies the per-project outcomes.
type Counts struct {
	Migrated     int
	AlreadySDK   int
	Failed       int
	NotProcessed int
}

// Counts computes the outcome tallies.
func (r *Report) Counts() Counts {
	var c Counts
	for _, result := range r.Results {
		switch {
		case result.NotProcessed:
			c.NotProcessed++
		case result.NoMigrationNeeded:
			c.AlreadySDK++
		case result.Succeeded():
			c.Migrated++
		default:
			c.Failed++
		}
	}
	return c
}

// Warnings reports whether any project recorded a warning or any
// resolution carried one.
func (r *Report) Warnings() bool {
	for _, result := range r.Results {
		if len(result.Warnings) > 0 {
			return true
		}
	}
	for _, resolution := range r.Resolutions {
		if len(resolution.Warnings) > 0 || resolution.Degraded {
			return true
		}
	}
	return false
}

// ExitCode maps the report to a process exit code: 0 for a clean run,
// 1 when any project failed, 2 for a clean preview run with warnings.
func (r *Report) ExitCode() int {
	if r.Counts().Failed > 0 {
		return 1
	}
	if r.Preview && r.Warnings() {
		return 2
	}
	return 0
}

// Summary renders the human-readable run summary. Projects are listed
// in natural sort order so the output is stable across runs.
func (r *Report) Summary() string {
	var b strings.Builder

	byPath := make(map[string]*migration.Result, len(r.Results))
	paths := make([]string, 0, len(r.Results))
	for _, result := range r.Results {
		byPath[result.ProjectPath] = result
		paths = append(paths, result.ProjectPath)
	}
	naturalsort.Sort(paths)

	for _, path := range paths {
		result := byPath[path]
		fmt.Fprintf(&b, "%s: %s", path, statusOf(result))
		if len(result.MigratedPackages) > 0 {
			fmt.Fprintf(&b, " (%d package references)", len(result.MigratedPackages))
		}
		b.WriteString("\n")
		for _, e := range result.Errors {
			fmt.Fprintf(&b, "  error: %s\n", e)
		}
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "  warning: %s\n", w)
		}
		for _, removed := range result.RemovedElements {
			fmt.Fprintf(&b, "  removed: %s\n", removed)
		}
	}

	for _, resolution := range r.Resolutions {
		fmt.Fprintf(&b, "resolved %s -> %s (%s: %s)\n",
			resolution.ID, resolution.Version, resolution.Strategy, resolution.Reason)
		for _, w := range resolution.Warnings {
			fmt.Fprintf(&b, "  warning: %s\n", w)
		}
	}

	if r.Manifest != nil {
		fmt.Fprintf(&b, "central manifest: %s (%d packages)\n",
			r.Manifest.Path, len(r.Manifest.Entries))
		for _, note := range r.Manifest.SpecialHandling {
			fmt.Fprintf(&b, "  note: %s\n", note)
		}
	}

	if r.Preview && len(r.WouldChange) > 0 {
		changed := append([]string(nil), r.WouldChange...)
		naturalsort.Sort(changed)
		for _, path := range changed {
			fmt.Fprintf(&b, "would change: %s\n", path)
		}
	}

	c := r.Counts()
	fmt.Fprintf(&b, "%d migrated, %d already SDK-style, %d failed, %d not processed\n",
		c.Migrated, c.AlreadySDK, c.Failed, c.NotProcessed)
	if r.SessionID != "" {
		fmt.Fprintf(&b, "backup session %s (%d files); run \"sdkmigrate rollback\" to undo\n",
			r.SessionID, r.BackedUpFiles)
	}
	return b.String()
}

func statusOf(result *migration.Result) string {
	switch {
	case result.NotProcessed:
		return "not processed"
	case result.NoMigrationNeeded:
		return "already SDK-style"
	case result.Succeeded():
		return "migrated"
	default:
		return "failed (" + result.Phase.String() + ")"
	}
}
