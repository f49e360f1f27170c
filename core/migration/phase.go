// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

// Package migration tracks the lifecycle of a single project through a
// migration run and carries its final outcome.
package migration

// Phase values specify a project's migration phase.
type Phase int

// Phases of a project migration, in rough order of progression. A
// project passes through the machine exactly once per run; failed
// phases are terminal.
const (
	UNKNOWN Phase = iota
	NOTSTARTED
	PARSING
	PARSEFAILED
	PARSED
	CLASSIFYING
	TRANSFORMING
	TRANSFORMFAILED
	TRANSFORMED
	WRITING
	SUCCESS
	FAILED
)

var phaseNames = []string{
	"UNKNOWN",
	"NOTSTARTED",
	"PARSING",
	"PARSEFAILED",
	"PARSED",
	"CLASSIFYING",
	"TRANSFORMING",
	"TRANSFORMFAILED",
	"TRANSFORMED",
	"WRITING",
	"SUCCESS",
	"FAILED",
}

// String returns the name of the phase.
func (p Phase) String() string {
	i := int(p)
	if i >= 0 && i < len(phaseNames) {
		return phaseNames[i]
	}
	return "UNKNOWN"
}

// IsTerminal returns true if the phase is one which signifies the end
// of a project's migration.
func (p Phase) IsTerminal() bool {
	switch p {
	case PARSEFAILED, TRANSFORMFAILED, SUCCESS, FAILED:
		return true
	}
	return false
}

// IsFailure reports whether the phase is a terminal failure. Warnings
// never turn a success into a failure; only these phases do.
func (p Phase) IsFailure() bool {
	switch p {
	case PARSEFAILED, TRANSFORMFAILED, FAILED:
		return true
	}
	return false
}

// CanTransitionTo returns true if the given phase is a valid next phase.
func (p Phase) CanTransitionTo(targetPhase Phase) bool {
	for _, nextPhase := range validTransitions[p] {
		if nextPhase == targetPhase {
			return true
		}
	}
	return false
}

// validTransitions defines the state machine. WRITING is skipped in
// preview mode, hence TRANSFORMED may complete directly.
var validTransitions = map[Phase][]Phase{
	NOTSTARTED:   {PARSING},
	PARSING:      {PARSEFAILED, PARSED},
	PARSED:       {CLASSIFYING, SUCCESS},
	CLASSIFYING:  {TRANSFORMING},
	TRANSFORMING: {TRANSFORMFAILED, TRANSFORMED},
	TRANSFORMED:  {WRITING, SUCCESS, FAILED},
	WRITING:      {SUCCESS, FAILED},
}
