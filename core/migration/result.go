// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package migration

import (
	"fmt"
	"sync"

	"github.com/thomhurst/sdkmigrate/core/packages"
)

// Result is the per-project outcome of a migration run. It is created
// when the project's pipeline starts and finalised when the project
// reaches a terminal phase. Phase transitions are checked against the
// state machine; an invalid transition indicates a coordinator bug and
// is recorded as an error rather than panicking mid-batch.
type Result struct {
	mu sync.Mutex

	ProjectPath string
	OutputPath  string
	Phase       Phase

	// NoMigrationNeeded marks the trivial success of a project that is
	// already SDK-style.
	NoMigrationNeeded bool

	Errors   []string
	Warnings []string

	// RemovedElements lists properties, items, imports and targets the
	// transformation removed, for the final report.
	RemovedElements []string

	// MigratedPackages is the project's final package request set.
	MigratedPackages []packages.Request

	// NotProcessed marks a project skipped because the run was
	// cancelled before it started.
	NotProcessed bool
}

// NewResult returns a Result in the NOTSTARTED phase.
func NewResult(projectPath string) *Result {
	return &Result{
		ProjectPath: projectPath,
		OutputPath:  projectPath,
		Phase:       NOTSTARTED,
	}
}

// SetPhase advances the result to the given phase, recording an error
// if the transition is not allowed by the state machine.
func (r *Result) SetPhase(p Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.Phase.CanTransitionTo(p) {
		r.Errors = append(r.Errors, fmt.Sprintf(
			"internal: invalid phase transition %s -> %s", r.Phase, p))
		r.Phase = FAILED
		return
	}
	r.Phase = p
}

// AddError records a per-project error. Errors never escape the result.
func (r *Result) AddError(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// AddWarning records a per-project warning. Warnings never change the
// terminal success state.
func (r *Result) AddWarning(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Succeeded reports whether the project reached a successful terminal
// phase.
func (r *Result) Succeeded() bool {
	return r.Phase == SUCCESS
}
