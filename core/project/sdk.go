// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package project

// SDKProject is the target model produced by a transformation: the
// minimal SDK-style rendition of a legacy project. It is constructed
// bottom-up from the source Model and never aliases it.
type SDKProject struct {
	// Path is where the project will be written; currently always the
	// source project path (whole-file replace).
	Path string

	Kind FormatKind

	// Properties are the surviving and synthesised property entries, in
	// emission order.
	Properties []Property

	// Items are the surviving non-package items. Items carrying the
	// Update semantic have their Include path in Update instead.
	Items []SDKItem

	// Targets are custom targets preserved verbatim.
	Targets []Target
}

// SDKItem is an item declaration in the target model. Exactly one of
// Include or Update is set.
type SDKItem struct {
	Type     string
	Include  string
	Update   string
	Remove   string
	Metadata Metadata
}
