// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

// Package pkgmigrate converts a legacy project's reference declarations
// into package requests: direct package declarations carry over, binary
// references are matched against a static assembly table and then the
// registry's reverse lookup, and references the target format provides
// implicitly are dropped.
package pkgmigrate

import (
	"context"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/thomhurst/sdkmigrate/core/packages"
	"github.com/thomhurst/sdkmigrate/core/project"
	"github.com/thomhurst/sdkmigrate/internal/registry"
)

var logger = loggo.GetLogger("sdkmigrate.pkgmigrate")

// Outcome carries the package requests for one project plus the
// reference-level notes feeding the migration result.
type Outcome struct {
	Requests []packages.Request

	// Preserved lists legacy references kept verbatim because neither
	// the table nor the registry could classify them; each has a
	// matching warning.
	Preserved []project.Item

	Removed  []string
	Warnings []string
}

// Migrator converts reference declarations.
type Migrator struct {
	registry   registry.Client
	extensions map[string]registry.PackageResolution
}

// NewMigrator returns a Migrator escalating unmatched assembly names to
// the given registry client. extensions supplement the built-in
// assembly table and are consulted first; keys are assembly names,
// matched case-insensitively.
func NewMigrator(client registry.Client, extensions map[string]registry.PackageResolution) *Migrator {
	byName := make(map[string]registry.PackageResolution, len(extensions))
	for name, resolution := range extensions {
		byName[strings.ToLower(name)] = resolution
	}
	return &Migrator{registry: client, extensions: byName}
}

// Migrate produces the project's package requests for the given format
// kind. Registry lookup failures degrade to preserving the legacy
// reference verbatim with a warning; they never fail the project.
func (m *Migrator) Migrate(ctx context.Context, model *project.Model, kind project.FormatKind) (*Outcome, error) {
	outcome := &Outcome{}
	targetFrameworks := []string{targetFramework(model)}

	add := func(id, version string, metadata map[string]string) {
		outcome.Requests = append(outcome.Requests, packages.Request{
			ID:               id,
			Version:          version,
			ProjectPath:      model.Path,
			TargetFrameworks: targetFrameworks,
			Metadata:         metadata,
		})
	}

	// Direct package declarations carry over unchanged.
	for _, item := range model.ItemsOfType("PackageReference") {
		metadata := map[string]string{}
		version := ""
		for name, value := range item.Metadata {
			if name == "Version" {
				version = value
				continue
			}
			metadata[name] = value
		}
		if len(metadata) == 0 {
			metadata = nil
		}
		add(item.Include, version, metadata)
	}

	for _, item := range model.ItemsOfType("Reference") {
		assembly := assemblyName(item.Include)

		if isImplicitReference(assembly, kind) {
			outcome.Removed = append(outcome.Removed,
				"reference: "+assembly+" (implicit in target format)")
			continue
		}
		// Hint-path references into a packages directory originate
		// from packages.config, already folded into the model as
		// PackageReference items; avoid double-requesting.
		if hint, ok := item.Metadata["HintPath"]; ok && isPackagesDirectory(hint) {
			outcome.Removed = append(outcome.Removed,
				"reference: "+assembly+" (superseded by package reference)")
			continue
		}

		if extension, ok := m.extensions[strings.ToLower(assembly)]; ok {
			add(extension.ID, extension.Version, nil)
			for _, additional := range extension.Additional {
				add(additional.ID, additional.Version, nil)
			}
			continue
		}
		if entry, ok := lookupAssembly(assembly); ok {
			add(entry.id, entry.version, nil)
			for _, additional := range entry.additional {
				add(additional.ID, additional.Version, nil)
			}
			continue
		}

		resolution, err := m.registry.ResolveAssemblyToPackage(ctx, assembly)
		if errors.Is(err, errors.NotFound) {
			outcome.Preserved = append(outcome.Preserved, item)
			outcome.Warnings = append(outcome.Warnings,
				"no package found for assembly "+assembly+"; reference preserved verbatim")
			continue
		}
		if err != nil {
			// Could not classify: lookup failure, not a migration
			// failure.
			logger.Warningf("reverse lookup of %q failed: %v", assembly, err)
			outcome.Preserved = append(outcome.Preserved, item)
			outcome.Warnings = append(outcome.Warnings,
				"registry lookup failed for assembly "+assembly+"; reference preserved verbatim")
			continue
		}
		add(resolution.ID, resolution.Version, nil)
		for _, additional := range resolution.Additional {
			add(additional.ID, additional.Version, nil)
		}
	}

	return outcome, nil
}

func assemblyName(include string) string {
	if i := strings.IndexByte(include, ','); i >= 0 {
		return strings.TrimSpace(include[:i])
	}
	return strings.TrimSpace(include)
}

func isPackagesDirectory(hintPath string) bool {
	normalised := strings.ToLower(strings.ReplaceAll(hintPath, "\\", "/"))
	return strings.Contains(normalised, "/packages/") ||
		strings.HasPrefix(normalised, "packages/")
}

func targetFramework(model *project.Model) string {
	if value, ok := model.PropertyValue("TargetFramework"); ok && value != "" {
		return value
	}
	if value, ok := model.PropertyValue("TargetFrameworkVersion"); ok && value != "" {
		return "net" + strings.ReplaceAll(strings.TrimPrefix(value, "v"), ".", "")
	}
	return "net8.0"
}
