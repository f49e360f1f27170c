// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package transform

import (
	"strings"

	"github.com/thomhurst/sdkmigrate/core/project"
)

// Project-type GUIDs carried in the legacy ProjectTypeGuids property.
const (
	webProjectGUID  = "{349C5851-65DF-11DA-9384-00065B846F21}"
	testProjectGUID = "{3AC096D0-A1C2-E12C-1390-A8335801FDAB}"
	wpfProjectGUID  = "{60DC8134-EBA5-43B8-BCC9-BB4BC16C2548}"
)

var testReferenceHints = []string{
	"nunit.framework",
	"xunit",
	"xunit.core",
	"microsoft.visualstudio.testplatform",
	"microsoft.visualstudio.qualitytools.unittestframework",
}

// InferKind decides which variant of the SDK format to emit. The
// heuristic is ordered: explicit project-type markers win over
// structural content signals, which win over the default. The first
// match in this order is final.
func InferKind(model *project.Model) project.FormatKind {
	// 1. Explicit markers.
	if guids, ok := model.PropertyValue("ProjectTypeGuids"); ok {
		upper := strings.ToUpper(guids)
		switch {
		case strings.Contains(upper, webProjectGUID):
			return project.KindWeb
		case strings.Contains(upper, wpfProjectGUID):
			return project.KindDesktop
		case strings.Contains(upper, testProjectGUID):
			return project.KindTest
		}
	}
	if value, ok := model.PropertyValue("UseWPF"); ok && strings.EqualFold(value, "true") {
		return project.KindDesktop
	}
	if value, ok := model.PropertyValue("UseWindowsForms"); ok && strings.EqualFold(value, "true") {
		return project.KindDesktop
	}

	// 2. Structural signals. UI-framework item types first, then web
	// content, then test references.
	if model.HasItemOfType("ApplicationDefinition") || model.HasItemOfType("Page") {
		return project.KindDesktop
	}
	for _, item := range model.ItemsOfType("Reference") {
		name := assemblyName(item.Include)
		if strings.EqualFold(name, "System.Windows.Forms") {
			return project.KindDesktop
		}
	}
	for _, item := range model.ItemsOfType("Content") {
		if strings.EqualFold(item.Include, "web.config") ||
			strings.EqualFold(item.Include, "Global.asax") {
			return project.KindWeb
		}
	}
	for _, item := range model.Items {
		if item.Type != "Reference" && item.Type != "PackageReference" {
			continue
		}
		name := strings.ToLower(assemblyName(item.Include))
		for _, hint := range testReferenceHints {
			if name == hint {
				return project.KindTest
			}
		}
	}

	// 3. Default.
	return project.KindDefault
}

// assemblyName strips the fully-qualified suffix from a legacy
// reference include ("Foo, Version=..., Culture=..." -> "Foo").
func assemblyName(include string) string {
	if i := strings.IndexByte(include, ','); i >= 0 {
		return strings.TrimSpace(include[:i])
	}
	return strings.TrimSpace(include)
}
