// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package pkgmigrate

import (
	"strings"

	"github.com/thomhurst/sdkmigrate/internal/registry"
)

// tableEntry maps one legacy assembly name to its package, plus any
// companion packages that must travel with it.
type tableEntry struct {
	id         string
	version    string
	additional []registry.AdditionalPackage
}

// assemblyTable is the static assembly-name to package-id mapping tried
// before escalating to the registry's reverse lookup. Keys are
// lowercase assembly names.
var assemblyTable = map[string]tableEntry{
	"newtonsoft.json":            {id: "Newtonsoft.Json", version: "13.0.3"},
	"nlog":                       {id: "NLog", version: "5.3.4"},
	"log4net":                    {id: "log4net", version: "2.0.17"},
	"automapper":                 {id: "AutoMapper", version: "13.0.1"},
	"castle.core":                {id: "Castle.Core", version: "5.1.1"},
	"dapper":                     {id: "Dapper", version: "2.1.35"},
	"stackexchange.redis":        {id: "StackExchange.Redis", version: "2.8.16"},
	"system.net.http.formatting": {id: "Microsoft.AspNet.WebApi.Client", version: "6.0.0"},
	"system.web.http":            {id: "Microsoft.AspNet.WebApi.Core", version: "5.3.0"},
	"entityframework":            {id: "EntityFramework", version: "6.5.1"},
	"moq":                        {id: "Moq", version: "4.20.72"},
	"fluentassertions":           {id: "FluentAssertions", version: "6.12.2"},

	// Test frameworks pull in their runner adapters; the adapter is a
	// separate request, not metadata on the primary one.
	"nunit.framework": {
		id:      "NUnit",
		version: "4.2.2",
		additional: []registry.AdditionalPackage{
			{ID: "NUnit3TestAdapter", Version: "4.6.0"},
			{ID: "Microsoft.NET.Test.Sdk", Version: "17.11.1"},
		},
	},
	"xunit.core": {
		id:      "xunit",
		version: "2.9.2",
		additional: []registry.AdditionalPackage{
			{ID: "xunit.runner.visualstudio", Version: "2.8.2"},
			{ID: "Microsoft.NET.Test.Sdk", Version: "17.11.1"},
		},
	},
	"microsoft.visualstudio.qualitytools.unittestframework": {
		id:      "MSTest.TestFramework",
		version: "3.6.1",
		additional: []registry.AdditionalPackage{
			{ID: "MSTest.TestAdapter", Version: "3.6.1"},
			{ID: "Microsoft.NET.Test.Sdk", Version: "17.11.1"},
		},
	},
}

func lookupAssembly(name string) (tableEntry, bool) {
	entry, ok := assemblyTable[strings.ToLower(name)]
	return entry, ok
}
