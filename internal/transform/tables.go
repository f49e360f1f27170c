// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package transform

import (
	"regexp"
	"strings"

	"github.com/juju/collections/set"

	"github.com/thomhurst/sdkmigrate/core/project"
)

// propertyRule drives the static property table. Exactly one of drop or
// synthesize may be set; a rule with neither keeps the property when its
// value differs from the SDK format's implicit default.
type propertyRule struct {
	// implicitDefault is the value the SDK format assumes when the
	// property is absent. "*project*" means the project file's base
	// name.
	implicitDefault string
	drop            bool
	synthesize      bool
}

// propertyRules is the explicit replacement for the reflection-driven
// property copying of old migrators: every property the engine has an
// opinion about appears here, everything else is preserved verbatim.
var propertyRules = map[string]propertyRule{
	// Dropped outright; meaningless in the SDK format.
	"ProjectGuid":             {drop: true},
	"ProjectTypeGuids":        {drop: true},
	"SchemaVersion":           {drop: true},
	"ProductVersion":          {drop: true},
	"OldToolsVersion":         {drop: true},
	"VisualStudioVersion":     {drop: true},
	"VSToolsPath":             {drop: true},
	"FileAlignment":           {drop: true},
	"AppDesignerFolder":       {drop: true},
	"TargetFrameworkProfile":  {drop: true},
	"ErrorReport":             {drop: true},
	"Prefer32Bit":             {drop: true},
	"NuGetPackageImportStamp": {drop: true},
	"FileUpgradeFlags":        {drop: true},
	"UpgradeBackupLocation":   {drop: true},

	// Default Debug/Release configuration noise; the SDK format
	// derives all of these.
	"DebugSymbols":           {drop: true},
	"DebugType":              {drop: true},
	"Optimize":               {drop: true},
	"OutputPath":             {drop: true},
	"IntermediateOutputPath": {drop: true},
	"DefineConstants":        {drop: true},
	"WarningLevel":           {drop: true},
	"Configuration":          {drop: true},
	"Platform":               {drop: true},

	// Kept only when they differ from the implicit default.
	"OutputType":            {implicitDefault: "Library"},
	"RootNamespace":         {implicitDefault: "*project*"},
	"AssemblyName":          {implicitDefault: "*project*"},
	"LangVersion":           {implicitDefault: ""},
	"Nullable":              {implicitDefault: "disable"},
	"AllowUnsafeBlocks":     {implicitDefault: "false"},
	"TreatWarningsAsErrors": {implicitDefault: "false"},
	"NoWarn":                {implicitDefault: ""},
	"AutoGenerateBindingRedirects": {drop: true},

	// Synthesised: emitted only when the value differs from the
	// implicit default, because their mere presence changes behaviour.
	"SignAssembly":              {implicitDefault: "false", synthesize: true},
	"AssemblyOriginatorKeyFile": {implicitDefault: "", synthesize: true},
	"DelaySign":                 {implicitDefault: "false", synthesize: true},
	"ApplicationIcon":           {implicitDefault: "", synthesize: true},
	"StartupObject":             {implicitDefault: "", synthesize: true},
	"RuntimeIdentifier":         {implicitDefault: "", synthesize: true},
	"PublishSingleFile":         {implicitDefault: "false", synthesize: true},
}

// Properties consumed by the engine itself rather than copied.
var consumedProperties = set.NewStrings(
	"TargetFrameworkVersion",
	"PreBuildEvent",
	"PostBuildEvent",
	"UseWPF",
	"UseWindowsForms",
)

// behaviourMetadata are the item metadata names whose presence forces an
// implicitly-included file to be re-declared with Update semantics.
var behaviourMetadata = set.NewStrings(
	"Link",
	"CopyToOutputDirectory",
	"Generator",
	"LastGenOutput",
	"DependentUpon",
	"CustomToolNamespace",
	"Visible",
	"DesignTime",
	"AutoGen",
)

// implicitExtensions maps a format kind to the item-type/extension pairs
// the SDK includes implicitly.
func implicitExtensions(kind project.FormatKind) map[string]set.Strings {
	base := map[string]set.Strings{
		"Compile":           set.NewStrings(".cs", ".vb"),
		"EmbeddedResource":  set.NewStrings(".resx"),
		"None":              set.NewStrings(""),
	}
	if kind == project.KindWeb {
		base["Content"] = set.NewStrings(
			".json", ".config", ".cshtml", ".razor", ".css", ".js", ".html")
	}
	if kind == project.KindDesktop {
		base["Page"] = set.NewStrings(".xaml")
		base["ApplicationDefinition"] = set.NewStrings(".xaml")
	}
	return base
}

// Item types owned by the package migrator; the rule engine never emits
// them.
var packageItemTypes = set.NewStrings("Reference", "PackageReference")

// systemImportPatterns match imports provided by the toolchain; these
// vanish silently. Anything else is a custom import that gets a
// relocation suggestion.
var systemImportPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Microsoft\.Common\.props$`),
	regexp.MustCompile(`(?i)Microsoft\.CSharp\.targets$`),
	regexp.MustCompile(`(?i)Microsoft\.VisualBasic\.targets$`),
	regexp.MustCompile(`(?i)Microsoft\.WebApplication\.targets$`),
	regexp.MustCompile(`(?i)Microsoft\.TestTools\.targets$`),
	regexp.MustCompile(`(?i)NuGet\.targets$`),
	regexp.MustCompile(`\$\(MSBuildToolsPath\)`),
	regexp.MustCompile(`\$\(MSBuildBinPath\)`),
	regexp.MustCompile(`\$\(MSBuildExtensionsPath[^)]*\)`),
	regexp.MustCompile(`\$\(VSToolsPath\)`),
}

func isSystemImport(path string) bool {
	for _, pattern := range systemImportPatterns {
		if pattern.MatchString(path) {
			return true
		}
	}
	return false
}

// buildHookTargets maps common build-hook target names to the hook
// attribute that replaces them in the SDK format.
var buildHookTargets = map[string]string{
	"BeforeBuild":    `BeforeTargets="Build"`,
	"AfterBuild":     `AfterTargets="Build"`,
	"BeforeCompile":  `BeforeTargets="CoreCompile"`,
	"AfterCompile":   `AfterTargets="CoreCompile"`,
	"BeforeClean":    `BeforeTargets="Clean"`,
	"AfterClean":     `AfterTargets="Clean"`,
	"BeforeRebuild":  `BeforeTargets="Rebuild"`,
	"AfterRebuild":   `AfterTargets="Rebuild"`,
	"BeforePublish":  `BeforeTargets="Publish"`,
	"AfterPublish":   `AfterTargets="Publish"`,
	"BeforeResolveReferences": `BeforeTargets="ResolveReferences"`,
}

func lookupBuildHook(name string) (string, bool) {
	for hook, suggestion := range buildHookTargets {
		if strings.EqualFold(hook, name) {
			return suggestion, true
		}
	}
	return "", false
}
