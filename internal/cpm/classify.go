// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package cpm

import "strings"

// Class buckets a package by its role; analyzer and build-tool classes
// are applied globally to every project rather than per-project opt-in.
type Class string

const (
	ClassRuntime           Class = "runtime"
	ClassPlatformRuntime   Class = "platform-runtime"
	ClassThirdPartyRuntime Class = "third-party-runtime"
	ClassAnalyzer          Class = "analyzer"
	ClassBuildTool         Class = "build-tool"
	ClassTesting           Class = "testing"
	ClassDevelopmentOnly   Class = "development-only"
)

// Global reports whether packages of the class apply to every project.
func (c Class) Global() bool {
	return c == ClassAnalyzer || c == ClassBuildTool
}

type namePattern struct {
	prefixes []string
	suffixes []string
	exact    []string
	class    Class
}

// classificationRules are tried in order; first match wins.
var classificationRules = []namePattern{
	{
		suffixes: []string{".analyzers", ".codeanalysis.analyzers"},
		exact:    []string{"stylecop.analyzers", "sonaranalyzer.csharp", "roslynator.analyzers"},
		class:    ClassAnalyzer,
	},
	{
		prefixes: []string{"microsoft.sourcelink.", "microsoft.build."},
		suffixes: []string{".build", ".build.tasks", ".msbuild"},
		exact:    []string{"nerdbank.gitversioning", "gitversion.msbuild"},
		class:    ClassBuildTool,
	},
	{
		prefixes: []string{"xunit", "nunit", "mstest.", "coverlet.", "fluentassertions", "moq", "nsubstitute"},
		exact:    []string{"microsoft.net.test.sdk"},
		class:    ClassTesting,
	},
	{
		exact: []string{"swashbuckle.aspnetcore", "microsoft.web.librarymanager.build"},
		class: ClassDevelopmentOnly,
	},
	{
		prefixes: []string{"microsoft.aspnetcore.", "microsoft.entityframeworkcore", "microsoft.extensions."},
		class:    ClassPlatformRuntime,
	},
	{
		prefixes: []string{"system.", "microsoft.", "runtime."},
		class:    ClassRuntime,
	},
}

func classify(id string) Class {
	name := strings.ToLower(id)
	for _, rule := range classificationRules {
		for _, exact := range rule.exact {
			if name == exact {
				return rule.class
			}
		}
		for _, prefix := range rule.prefixes {
			if strings.HasPrefix(name, prefix) {
				return rule.class
			}
		}
		for _, suffix := range rule.suffixes {
			if strings.HasSuffix(name, suffix) {
				return rule.class
			}
		}
	}
	return ClassThirdPartyRuntime
}

// specialHandlingFamilies are package families with a known
// breaking-change history across majors, or platform web/data/ORM
// packages whose version is coupled to the target runtime. They are
// flagged with a note rather than resolved differently.
var specialHandlingFamilies = []struct {
	prefix string
	note   string
}{
	{"microsoft.aspnetcore.", "ASP.NET Core packages track the target runtime; pin to the runtime's band"},
	{"microsoft.entityframeworkcore", "EF Core majors contain breaking query/runtime changes; migrate deliberately"},
	{"entityframework", "EF6 to EF Core is a rewrite, not a version bump"},
	{"system.data.sqlclient", "superseded by Microsoft.Data.SqlClient; plan the namespace move"},
	{"newtonsoft.json", "major versions changed serialization defaults; audit custom converters"},
	{"automapper", "major versions repeatedly broke configuration APIs"},
	{"fluentassertions", "licensing and API changes across majors; review before unifying"},
}

func specialHandlingNote(id string) (string, bool) {
	name := strings.ToLower(id)
	for _, family := range specialHandlingFamilies {
		if strings.HasPrefix(name, family.prefix) {
			return family.note, true
		}
	}
	return "", false
}
