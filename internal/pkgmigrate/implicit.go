// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package pkgmigrate

import (
	"strings"

	"github.com/juju/collections/set"

	"github.com/thomhurst/sdkmigrate/core/project"
)

// frameworkAssemblies are provided by every target runtime; referencing
// them explicitly is legacy noise and the reference is dropped with a
// removal note rather than converted.
var frameworkAssemblies = set.NewStrings(
	"mscorlib",
	"system",
	"system.core",
	"system.data",
	"system.data.datasetextensions",
	"system.drawing",
	"system.io.compression",
	"system.io.compression.filesystem",
	"system.net.http",
	"system.numerics",
	"system.runtime.serialization",
	"system.security",
	"system.transactions",
	"system.xml",
	"system.xml.linq",
	"microsoft.csharp",
	"windowsbase",
	"presentationcore",
	"presentationframework",
)

// kindImplicitAssemblies extends the base set per format kind: the web
// and desktop SDKs bring in their own framework references.
var kindImplicitAssemblies = map[project.FormatKind]set.Strings{
	project.KindWeb: set.NewStrings(
		"system.web",
		"system.web.extensions",
		"system.web.abstractions",
		"system.web.routing",
		"system.web.services",
		"system.componentmodel.dataannotations",
	),
	project.KindDesktop: set.NewStrings(
		"system.windows.forms",
		"system.deployment",
		"uiautomationprovider",
		"uiautomationtypes",
	),
}

// isImplicitReference reports whether the assembly is supplied by the
// chosen format kind and target runtime.
func isImplicitReference(assembly string, kind project.FormatKind) bool {
	name := strings.ToLower(assembly)
	if frameworkAssemblies.Contains(name) {
		return true
	}
	if extra, ok := kindImplicitAssemblies[kind]; ok && extra.Contains(name) {
		return true
	}
	return false
}
