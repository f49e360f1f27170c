// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

// Package msbuild provides the default project-model evaluator (legacy
// project XML in, evaluated model out) and the serializer that renders
// migrated SDK-style projects back to disk.
//
// The evaluator is deliberately modest: it reads the declarative shape
// of a project file without evaluating conditions, wildcards or SDK
// resolution. Any evaluator satisfying the coordinator's interface can
// replace it.
package msbuild

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/thomhurst/sdkmigrate/core/project"
)

var logger = loggo.GetLogger("sdkmigrate.msbuild")

// ErrMalformedProject is returned when a project file cannot be
// evaluated even with degraded parsing.
const ErrMalformedProject = errors.ConstError("malformed project file")

// Evaluator evaluates legacy project files into models.
type Evaluator struct{}

// NewEvaluator returns the default XML-based evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate reads and evaluates the project file at path. If strict
// parsing fails it falls back to a degraded mode that strips known
// problematic constructs and annotates the model with what was
// stripped.
func (e *Evaluator) Evaluate(path string) (*project.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "reading project %q", path)
	}

	model, err := e.evaluate(path, data)
	if err == nil {
		return model, nil
	}
	logger.Debugf("strict parse of %q failed (%v); retrying degraded", path, err)

	scrubbed, stripped := scrub(data)
	model, degradedErr := e.evaluate(path, scrubbed)
	if degradedErr != nil {
		return nil, errors.WithType(
			errors.Annotatef(err, "evaluating project %q", path), ErrMalformedProject)
	}
	model.Stripped = stripped
	return model, nil
}

func (e *Evaluator) evaluate(path string, data []byte) (*project.Model, error) {
	var doc xmlProject
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Trace(err)
	}
	if doc.XMLName.Local != "Project" {
		return nil, errors.Errorf("root element is %q, want Project", doc.XMLName.Local)
	}

	model := &project.Model{
		Path:     path,
		SDKStyle: doc.Sdk != "",
	}
	for _, group := range doc.PropertyGroups {
		for _, p := range group.Properties {
			condition := p.Condition
			if condition == "" {
				condition = group.Condition
			}
			model.Properties = append(model.Properties, project.Property{
				Name:      p.XMLName.Local,
				Value:     strings.TrimSpace(p.Value),
				Condition: condition,
			})
		}
	}
	for _, group := range doc.ItemGroups {
		for _, item := range group.Items {
			include := item.Include
			if include == "" {
				include = item.Update
			}
			metadata := project.Metadata{}
			for _, m := range item.Metadata {
				metadata[m.XMLName.Local] = strings.TrimSpace(m.Value)
			}
			// Version may be declared as an attribute or a child
			// element; normalise to metadata.
			if item.Version != "" {
				metadata["Version"] = item.Version
			}
			condition := item.Condition
			if condition == "" {
				condition = group.Condition
			}
			model.Items = append(model.Items, project.Item{
				Type:      item.XMLName.Local,
				Include:   include,
				Metadata:  metadata,
				Condition: condition,
			})
		}
	}
	for _, imp := range doc.Imports {
		model.Imports = append(model.Imports, project.Import{
			Project:   imp.Project,
			Condition: imp.Condition,
		})
	}
	for _, target := range doc.Targets {
		t := project.Target{
			Name:          target.Name,
			BeforeTargets: target.BeforeTargets,
			AfterTargets:  target.AfterTargets,
			DependsOn:     target.DependsOnTargets,
			Condition:     target.Condition,
		}
		for _, task := range target.Tasks {
			attributes := make(map[string]string, len(task.Attributes))
			for _, attr := range task.Attributes {
				attributes[attr.Name.Local] = attr.Value
			}
			t.Tasks = append(t.Tasks, project.Task{
				Name:       task.XMLName.Local,
				Attributes: attributes,
			})
		}
		model.Targets = append(model.Targets, t)
	}

	if err := foldPackagesConfig(model); err != nil {
		return nil, errors.Trace(err)
	}
	return model, nil
}

// foldPackagesConfig merges a sibling packages.config, if present, into
// the model as PackageReference items so the rest of the pipeline only
// ever sees one declaration style.
func foldPackagesConfig(model *project.Model) error {
	configPath := filepath.Join(filepath.Dir(model.Path), "packages.config")
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Annotatef(err, "reading %q", configPath)
	}

	var config xmlPackagesConfig
	if err := xml.Unmarshal(data, &config); err != nil {
		// A broken packages.config degrades to a note, not a parse
		// failure; the project file itself is intact.
		model.Stripped = append(model.Stripped,
			"packages.config: "+err.Error())
		return nil
	}
	declared := map[string]bool{}
	for _, item := range model.ItemsOfType("PackageReference") {
		declared[strings.ToLower(item.Include)] = true
	}
	for _, pkg := range config.Packages {
		if declared[strings.ToLower(pkg.ID)] {
			continue
		}
		metadata := project.Metadata{"Version": pkg.Version}
		if pkg.DevelopmentDependency == "true" {
			metadata["PrivateAssets"] = "all"
		}
		model.Items = append(model.Items, project.Item{
			Type:     "PackageReference",
			Include:  pkg.ID,
			Metadata: metadata,
		})
	}
	return nil
}

// Invalid bare ampersands and stray control characters are the two
// malformations seen in real legacy project files often enough to be
// worth scrubbing.
var (
	bareAmpersand = regexp.MustCompile(`&(?:[^a-zA-Z#]|$)`)
	controlChars  = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)
)

// scrub strips constructs that defeat the XML decoder and reports what
// was stripped.
func scrub(data []byte) ([]byte, []string) {
	var stripped []string
	text := string(data)

	if strings.HasPrefix(text, "\uFEFF") {
		text = strings.TrimPrefix(text, "\uFEFF")
		stripped = append(stripped, "byte order mark")
	}
	if bareAmpersand.MatchString(text) {
		text = bareAmpersand.ReplaceAllStringFunc(text, func(s string) string {
			return "&amp;" + s[1:]
		})
		stripped = append(stripped, "unescaped ampersands")
	}
	if controlChars.MatchString(text) {
		text = controlChars.ReplaceAllString(text, "")
		stripped = append(stripped, "control characters")
	}
	return []byte(text), stripped
}
