// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

// Package project holds the evaluated in-memory representation of one
// legacy build-project file, plus the minimal SDK-style model that a
// migration produces. Both are plain data; all behaviour lives in the
// packages that consume them.
package project

// Property is a single evaluated property entry. Order matters: legacy
// projects may define a property more than once and the last unconditional
// definition wins, so consumers must not collapse entries into a map.
type Property struct {
	Name      string
	Value     string
	Condition string
}

// Metadata holds the child metadata elements of an item.
type Metadata map[string]string

// Item is one entry of an item collection (Compile, Content, Reference,
// PackageReference, ProjectReference, ...).
type Item struct {
	Type      string
	Include   string
	Metadata  Metadata
	Condition string
}

// Import is a project-file import declaration.
type Import struct {
	Project   string
	Condition string
}

// Task is a single task invocation inside a target.
type Task struct {
	Name       string
	Attributes map[string]string
}

// Target is a named build target with its ordering attributes.
type Target struct {
	Name          string
	BeforeTargets string
	AfterTargets  string
	DependsOn     string
	Condition     string
	Tasks         []Task
}

// Model is the evaluated snapshot of one legacy project file. A Model is
// immutable for the duration of a migration pass; the transformation
// engine owns it exclusively while transforming.
type Model struct {
	// Path is the absolute path of the project file the model was
	// evaluated from.
	Path string

	Properties []Property
	Items      []Item
	Imports    []Import
	Targets    []Target

	// SDKStyle reports whether the project already carries the Sdk
	// discriminator attribute, in which case no migration is needed.
	SDKStyle bool

	// Stripped lists constructs the evaluator had to strip to produce
	// a model at all (degraded parsing). Each entry becomes a warning
	// on the migration result.
	Stripped []string
}

// PropertyValue returns the value of the last unconditional definition of
// name, and whether any was found.
func (m *Model) PropertyValue(name string) (string, bool) {
	value, found := "", false
	for _, p := range m.Properties {
		if p.Name == name && p.Condition == "" {
			value, found = p.Value, true
		}
	}
	return value, found
}

// ItemsOfType returns all items of the given item type, in declaration
// order.
func (m *Model) ItemsOfType(itemType string) []Item {
	var items []Item
	for _, it := range m.Items {
		if it.Type == itemType {
			items = append(items, it)
		}
	}
	return items
}

// HasItemOfType reports whether at least one item of the given type is
// declared.
func (m *Model) HasItemOfType(itemType string) bool {
	for _, it := range m.Items {
		if it.Type == itemType {
			return true
		}
	}
	return false
}

// ProjectReferences returns the include paths of all ProjectReference
// items, relative to the project file's directory.
func (m *Model) ProjectReferences() []string {
	var refs []string
	for _, it := range m.ItemsOfType("ProjectReference") {
		refs = append(refs, it.Include)
	}
	return refs
}
