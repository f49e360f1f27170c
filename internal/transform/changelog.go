// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package transform

import "fmt"

// ChangeLog records everything a transformation did to a project, for
// the migration report.
type ChangeLog struct {
	// Removed lists elements dropped from the project, as
	// "kind: subject (detail)" strings.
	Removed []string

	// Suggestions are manual follow-ups the engine recommends but will
	// not perform (custom import relocation, hook attributes, ...).
	Suggestions []string

	// ReviewFlags mark preserved elements a human should look at.
	ReviewFlags []string

	// Notes are informational.
	Notes []string

	// NoMigrationNeeded is set when the input was already SDK-style
	// and the transformation was a no-op.
	NoMigrationNeeded bool
}

func (l *ChangeLog) removed(kind, subject, detail string) {
	entry := fmt.Sprintf("%s: %s", kind, subject)
	if detail != "" {
		entry += " (" + detail + ")"
	}
	l.Removed = append(l.Removed, entry)
}

func (l *ChangeLog) suggest(format string, args ...any) {
	l.Suggestions = append(l.Suggestions, fmt.Sprintf(format, args...))
}

func (l *ChangeLog) flagForReview(format string, args ...any) {
	l.ReviewFlags = append(l.ReviewFlags, fmt.Sprintf(format, args...))
}

func (l *ChangeLog) note(format string, args ...any) {
	l.Notes = append(l.Notes, fmt.Sprintf(format, args...))
}
