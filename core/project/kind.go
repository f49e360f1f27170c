// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package project

// FormatKind identifies which variant of the SDK-style format a migrated
// project should use.
type FormatKind int

const (
	// KindDefault is a plain library or console project.
	KindDefault FormatKind = iota
	// KindWeb is an ASP.NET-style web project.
	KindWeb
	// KindDesktop is a WPF or Windows Forms project.
	KindDesktop
	// KindTest is a unit-test project. It uses the default SDK but gets
	// test-specific implicit references.
	KindTest
)

var kindNames = map[FormatKind]string{
	KindDefault: "default",
	KindWeb:     "web",
	KindDesktop: "desktop",
	KindTest:    "test",
}

func (k FormatKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// SDK returns the Sdk attribute value for the kind.
func (k FormatKind) SDK() string {
	switch k {
	case KindWeb:
		return "Microsoft.NET.Sdk.Web"
	case KindDesktop:
		return "Microsoft.NET.Sdk.WindowsDesktop"
	default:
		return "Microsoft.NET.Sdk"
	}
}
