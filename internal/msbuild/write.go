// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package msbuild

import (
	"fmt"
	"sort"
	"strings"

	"github.com/juju/naturalsort"

	"github.com/thomhurst/sdkmigrate/core/packages"
	"github.com/thomhurst/sdkmigrate/core/project"
)

// Serialize renders the migrated project as minimal SDK-style XML. The
// target tree is built bottom-up from the models; nothing of the source
// file survives except what the transformation put in the target model.
func Serialize(sdk *project.SDKProject, requests []packages.Request) []byte {
	var b builder
	b.openf(`<Project Sdk=%s>`, attr(sdk.Kind.SDK()))
	b.blank()

	b.open("<PropertyGroup>")
	for _, p := range sdk.Properties {
		if p.Condition != "" {
			b.linef("<%s Condition=%s>%s</%s>", p.Name, attr(p.Condition), escape(p.Value), p.Name)
			continue
		}
		b.linef("<%s>%s</%s>", p.Name, escape(p.Value), p.Name)
	}
	b.close("</PropertyGroup>")

	var declared []packages.Request
	for _, r := range requests {
		if r.Transitive {
			continue
		}
		declared = append(declared, r)
	}
	if len(declared) > 0 {
		sort.SliceStable(declared, func(i, j int) bool {
			return declared[i].Key() < declared[j].Key()
		})
		b.blank()
		b.open("<ItemGroup>")
		for _, r := range declared {
			b.line(packageReferenceElement(r))
		}
		b.close("</ItemGroup>")
	}

	projectRefs := itemsOfType(sdk.Items, "ProjectReference")
	if len(projectRefs) > 0 {
		b.blank()
		b.open("<ItemGroup>")
		for _, item := range projectRefs {
			b.linef(`<ProjectReference Include=%s />`, attr(item.Include))
		}
		b.close("</ItemGroup>")
	}

	other := otherItems(sdk.Items)
	if len(other) > 0 {
		b.blank()
		b.open("<ItemGroup>")
		for _, item := range other {
			b.line(itemElement(item))
		}
		b.close("</ItemGroup>")
	}

	for _, target := range sdk.Targets {
		b.blank()
		b.appendTarget(target)
	}

	b.blank()
	b.raw("</Project>\n")
	return b.bytes()
}

// SerializeCentralManifest renders a Directory.Packages.props file.
// Entries marked global become GlobalPackageReference items so they
// apply to every project without per-project opt-in.
func SerializeCentralManifest(entries []CentralEntry) []byte {
	var b builder
	b.open("<Project>")
	b.open("<PropertyGroup>")
	b.line("<ManagePackageVersionsCentrally>true</ManagePackageVersionsCentrally>")
	b.close("</PropertyGroup>")
	b.open("<ItemGroup>")

	ids := make([]string, 0, len(entries))
	byID := make(map[string]CentralEntry, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
		byID[e.ID] = e
	}
	naturalsort.Sort(ids)
	for _, id := range ids {
		e := byID[id]
		if e.Global {
			b.linef(`<GlobalPackageReference Include=%s Version=%s />`, attr(e.ID), attr(e.Version))
		} else {
			b.linef(`<PackageVersion Include=%s Version=%s />`, attr(e.ID), attr(e.Version))
		}
	}
	b.close("</ItemGroup>")
	b.raw("</Project>\n")
	return b.bytes()
}

// CentralEntry is one pinned package in the central manifest.
type CentralEntry struct {
	ID      string
	Version string
	Global  bool
}

func packageReferenceElement(r packages.Request) string {
	attrs := fmt.Sprintf("Include=%s", attr(r.ID))
	if r.Version != "" {
		attrs += fmt.Sprintf(" Version=%s", attr(r.Version))
	}
	if len(r.Metadata) == 0 {
		return fmt.Sprintf("<PackageReference %s />", attrs)
	}
	names := make([]string, 0, len(r.Metadata))
	for name := range r.Metadata {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		attrs += fmt.Sprintf(" %s=%s", name, attr(r.Metadata[name]))
	}
	return fmt.Sprintf("<PackageReference %s />", attrs)
}

func itemElement(item project.SDKItem) string {
	var attrs string
	switch {
	case item.Update != "":
		attrs = fmt.Sprintf("Update=%s", attr(item.Update))
	case item.Remove != "":
		attrs = fmt.Sprintf("Remove=%s", attr(item.Remove))
	default:
		attrs = fmt.Sprintf("Include=%s", attr(item.Include))
	}
	if len(item.Metadata) == 0 {
		return fmt.Sprintf("<%s %s />", item.Type, attrs)
	}
	names := make([]string, 0, len(item.Metadata))
	for name := range item.Metadata {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	fmt.Fprintf(&sb, "<%s %s>", item.Type, attrs)
	for _, name := range names {
		fmt.Fprintf(&sb, "<%s>%s</%s>", name, escape(item.Metadata[name]), name)
	}
	fmt.Fprintf(&sb, "</%s>", item.Type)
	return sb.String()
}

func itemsOfType(items []project.SDKItem, itemType string) []project.SDKItem {
	var out []project.SDKItem
	for _, item := range items {
		if item.Type == itemType {
			out = append(out, item)
		}
	}
	return out
}

func otherItems(items []project.SDKItem) []project.SDKItem {
	var out []project.SDKItem
	for _, item := range items {
		if item.Type != "ProjectReference" {
			out = append(out, item)
		}
	}
	return out
}

// builder accumulates indented XML text.
type builder struct {
	sb     strings.Builder
	indent int
}

func (b *builder) pad() {
	for i := 0; i < b.indent; i++ {
		b.sb.WriteString("  ")
	}
}

func (b *builder) open(s string) {
	b.pad()
	b.sb.WriteString(s)
	b.sb.WriteByte('\n')
	b.indent++
}

func (b *builder) openf(format string, args ...any) {
	b.open(fmt.Sprintf(format, args...))
}

func (b *builder) close(s string) {
	b.indent--
	b.pad()
	b.sb.WriteString(s)
	b.sb.WriteByte('\n')
}

func (b *builder) line(s string) {
	b.pad()
	b.sb.WriteString(s)
	b.sb.WriteByte('\n')
}

func (b *builder) linef(format string, args ...any) {
	b.line(fmt.Sprintf(format, args...))
}

func (b *builder) blank() { b.sb.WriteByte('\n') }

func (b *builder) raw(s string) { b.sb.WriteString(s) }

func (b *builder) bytes() []byte { return []byte(b.sb.String()) }

func (b *builder) appendTarget(target project.Target) {
	attrs := fmt.Sprintf("Name=%s", attr(target.Name))
	if target.BeforeTargets != "" {
		attrs += fmt.Sprintf(" BeforeTargets=%s", attr(target.BeforeTargets))
	}
	if target.AfterTargets != "" {
		attrs += fmt.Sprintf(" AfterTargets=%s", attr(target.AfterTargets))
	}
	if target.DependsOn != "" {
		attrs += fmt.Sprintf(" DependsOnTargets=%s", attr(target.DependsOn))
	}
	if target.Condition != "" {
		attrs += fmt.Sprintf(" Condition=%s", attr(target.Condition))
	}
	b.openf("<Target %s>", attrs)
	for _, task := range target.Tasks {
		names := make([]string, 0, len(task.Attributes))
		for name := range task.Attributes {
			names = append(names, name)
		}
		sort.Strings(names)
		taskAttrs := ""
		for _, name := range names {
			taskAttrs += fmt.Sprintf(" %s=%s", name, attr(task.Attributes[name]))
		}
		b.linef("<%s%s />", task.Name, taskAttrs)
	}
	b.close("</Target>")
}

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
)

// escape escapes element text; attr renders a quoted attribute value.
func escape(s string) string { return textEscaper.Replace(s) }

func attr(s string) string { return `"` + attrEscaper.Replace(s) + `"` }
