// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

// Package transform rewrites an evaluated legacy project model into its
// minimal SDK-style equivalent, recording every removal and suggestion
// in a change log. The target model is built bottom-up from the source;
// the source model is never mutated.
package transform

import (
	"path/filepath"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/thomhurst/sdkmigrate/core/project"
)

var logger = loggo.GetLogger("sdkmigrate.transform")

// ErrMalformedModel is returned when the input model is missing a
// required structural element. The project's result is marked failed
// and the batch continues.
const ErrMalformedModel = errors.ConstError("malformed project model")

// Engine applies the transformation rules.
type Engine struct {
	// extraDeny extends the static property deny-list for one run.
	extraDeny set.Strings
}

// NewEngine returns a rule engine with the static rule tables, with
// denyProperties removed outright in addition to the built-in deny
// list.
func NewEngine(denyProperties ...string) *Engine {
	return &Engine{extraDeny: set.NewStrings(denyProperties...)}
}

// Transform rewrites model into the SDK-style target model for the
// given format kind. If the model already carries the SDK discriminator
// the transformation is a no-op: a nil target model is returned and the
// change log notes that no migration is needed.
func (e *Engine) Transform(model *project.Model, kind project.FormatKind) (*project.SDKProject, *ChangeLog, error) {
	log := &ChangeLog{}

	if model.SDKStyle {
		log.NoMigrationNeeded = true
		log.note("project is already SDK-style; no migration needed")
		return nil, log, nil
	}
	if len(model.Properties) == 0 {
		return nil, nil, errors.WithType(
			errors.Errorf("project %q has no property entries", model.Path), ErrMalformedModel)
	}

	sdk := &project.SDKProject{
		Path: model.Path,
		Kind: kind,
	}

	e.transformProperties(model, sdk, log)
	e.transformItems(model, kind, sdk, log)
	e.transformImports(model, sdk, log)
	e.transformTargets(model, sdk, log)

	logger.Debugf("transformed %q as %s: %d properties, %d items, %d targets kept",
		model.Path, kind, len(sdk.Properties), len(sdk.Items), len(sdk.Targets))
	return sdk, log, nil
}

func (e *Engine) transformProperties(model *project.Model, sdk *project.SDKProject, log *ChangeLog) {
	projectName := strings.TrimSuffix(filepath.Base(model.Path), filepath.Ext(model.Path))

	// Last unconditional definition wins; collect final values while
	// preserving first-occurrence order.
	type slot struct {
		property project.Property
		index    int
	}
	var order []string
	final := map[string]slot{}
	for i, p := range model.Properties {
		if existing, ok := final[p.Name]; ok {
			if p.Condition == "" {
				existing.property = p
				final[p.Name] = existing
			}
			continue
		}
		final[p.Name] = slot{property: p, index: i}
		order = append(order, p.Name)
	}

	sdk.Properties = append(sdk.Properties, project.Property{
		Name:  "TargetFramework",
		Value: targetFramework(model),
	})

	for _, name := range order {
		p := final[name].property
		if consumedProperties.Contains(name) {
			continue
		}
		if e.extraDeny.Contains(name) {
			log.removed("property", name, "denied by run options")
			continue
		}
		rule, known := propertyRules[name]
		if !known {
			// Unknown properties survive verbatim; the engine only
			// removes what it understands.
			sdk.Properties = append(sdk.Properties, p)
			continue
		}
		if rule.drop {
			log.removed("property", name, "")
			continue
		}
		implicitDefault := rule.implicitDefault
		if implicitDefault == "*project*" {
			implicitDefault = projectName
		}
		if strings.EqualFold(p.Value, implicitDefault) {
			log.removed("property", name, "matches implicit default")
			continue
		}
		sdk.Properties = append(sdk.Properties, p)
		if rule.synthesize {
			log.note("synthesised %s=%s (differs from implicit default)", name, p.Value)
		}
	}

	e.synthesiseBuildEvents(model, sdk, log)
}

// synthesiseBuildEvents turns legacy PreBuildEvent/PostBuildEvent
// properties into the equivalent hook targets.
func (e *Engine) synthesiseBuildEvents(model *project.Model, sdk *project.SDKProject, log *ChangeLog) {
	if value, ok := model.PropertyValue("PreBuildEvent"); ok && strings.TrimSpace(value) != "" {
		sdk.Targets = append(sdk.Targets, project.Target{
			Name:          "PreBuild",
			BeforeTargets: "PreBuildEvent",
			Tasks: []project.Task{{
				Name:       "Exec",
				Attributes: map[string]string{"Command": value},
			}},
		})
		log.note("converted PreBuildEvent property to a PreBuild target")
	}
	if value, ok := model.PropertyValue("PostBuildEvent"); ok && strings.TrimSpace(value) != "" {
		sdk.Targets = append(sdk.Targets, project.Target{
			Name:         "PostBuild",
			AfterTargets: "PostBuildEvent",
			Tasks: []project.Task{{
				Name:       "Exec",
				Attributes: map[string]string{"Command": value},
			}},
		})
		log.note("converted PostBuildEvent property to a PostBuild target")
	}
}

func (e *Engine) transformItems(model *project.Model, kind project.FormatKind, sdk *project.SDKProject, log *ChangeLog) {
	implicit := implicitExtensions(kind)
	assemblyInfoKept := false

	for _, item := range model.Items {
		if packageItemTypes.Contains(item.Type) {
			// References become package requests; the package
			// migrator owns them.
			continue
		}
		if item.Type == "ProjectReference" {
			sdk.Items = append(sdk.Items, project.SDKItem{
				Type:    "ProjectReference",
				Include: item.Include,
			})
			continue
		}

		// Legacy includes use backslash separators regardless of host.
		base := filepath.Base(strings.ReplaceAll(item.Include, "\\", "/"))
		if item.Type == "Compile" && strings.EqualFold(base, "AssemblyInfo.cs") {
			assemblyInfoKept = true
			log.removed("item", item.Include, "assembly info now implicit")
			continue
		}

		extensions, typed := implicit[item.Type]
		implicitlyIncluded := typed && extensions.Contains(strings.ToLower(filepath.Ext(item.Include)))
		if !implicitlyIncluded {
			sdk.Items = append(sdk.Items, project.SDKItem{
				Type:     item.Type,
				Include:  item.Include,
				Metadata: copyBehaviourMetadata(item.Metadata),
			})
			continue
		}

		// Implicitly included: omit unless metadata changes the
		// default behaviour, in which case re-declare with Update
		// semantics rather than Include.
		metadata := copyBehaviourMetadata(item.Metadata)
		if len(metadata) == 0 {
			log.removed("item", item.Include, "implicitly included")
			continue
		}
		sdk.Items = append(sdk.Items, project.SDKItem{
			Type:     item.Type,
			Update:   item.Include,
			Metadata: metadata,
		})
		log.note("re-declared %s with Update semantics (metadata overrides defaults)", item.Include)
	}

	if assemblyInfoKept {
		sdk.Properties = append(sdk.Properties, project.Property{
			Name:  "GenerateAssemblyInfo",
			Value: "false",
		})
	}
}

func copyBehaviourMetadata(metadata project.Metadata) project.Metadata {
	var copied project.Metadata
	for name, value := range metadata {
		if !behaviourMetadata.Contains(name) {
			continue
		}
		if copied == nil {
			copied = project.Metadata{}
		}
		copied[name] = value
	}
	return copied
}

func (e *Engine) transformImports(model *project.Model, sdk *project.SDKProject, log *ChangeLog) {
	for _, imp := range model.Imports {
		if isSystemImport(imp.Project) {
			log.removed("import", imp.Project, "system import")
			continue
		}
		log.removed("import", imp.Project, "custom import")
		log.suggest("move custom import %q into a shared Directory.Build.props or Directory.Build.targets", imp.Project)
	}
}

func (e *Engine) transformTargets(model *project.Model, sdk *project.SDKProject, log *ChangeLog) {
	for _, target := range model.Targets {
		if suggestion, isHook := lookupBuildHook(target.Name); isHook {
			log.removed("target", target.Name, "common build hook")
			log.suggest("replace target %q with a custom target using %s", target.Name, suggestion)
			continue
		}
		sdk.Targets = append(sdk.Targets, target)
		log.flagForReview("custom target %q preserved verbatim; review for SDK compatibility", target.Name)
	}
}

// targetFramework converts the legacy TargetFrameworkVersion to its
// SDK-style moniker. A project that already declares TargetFramework
// keeps it.
func targetFramework(model *project.Model) string {
	if value, ok := model.PropertyValue("TargetFramework"); ok && value != "" {
		return value
	}
	value, ok := model.PropertyValue("TargetFrameworkVersion")
	if !ok || value == "" {
		// No framework declared anywhere; the caller's configured
		// default applies at write time, net8.0 failing that.
		return "net8.0"
	}
	// "v4.7.2" -> "net472"
	version := strings.TrimPrefix(strings.TrimSpace(value), "v")
	return "net" + strings.ReplaceAll(version, ".", "")
}
