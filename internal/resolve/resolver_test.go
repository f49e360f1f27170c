// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package resolve_test

import (
	gc "gopkg.in/check.v1"

	"github.com/thomhurst/sdkmigrate/core/packages"
	"github.com/thomhurst/sdkmigrate/internal/resolve"
)

type ResolverSuite struct{}

var _ = gc.Suite(&ResolverSuite{})

func request(id, version, path string) packages.Request {
	return packages.Request{ID: id, Version: version, ProjectPath: path}
}

func (s *ResolverSuite) TestNoConflictNoResolution(c *gc.C) {
	requests := []packages.Request{
		request("Newtonsoft.Json", "13.0.3", "/a.csproj"),
		request("Newtonsoft.Json", "13.0.3", "/b.csproj"),
		request("Serilog", "3.1.1", "/a.csproj"),
	}
	c.Check(resolve.Conflicts(requests), gc.HasLen, 0)
	resolver := resolve.NewResolver(packages.UseHighest)
	c.Check(resolver.Resolve(requests), gc.HasLen, 0)
}

func (s *ResolverSuite) TestConflictDetectionCaseInsensitive(c *gc.C) {
	requests := []packages.Request{
		request("Newtonsoft.Json", "12.0.3", "/a.csproj"),
		request("newtonsoft.json", "13.0.1", "/b.csproj"),
	}
	conflicts := resolve.Conflicts(requests)
	c.Assert(conflicts, gc.HasLen, 1)
	c.Check(conflicts[0].ID, gc.Equals, "Newtonsoft.Json")
	c.Check(conflicts[0].Requested, gc.HasLen, 2)
}

func (s *ResolverSuite) TestUseHighest(c *gc.C) {
	resolver := resolve.NewResolver(packages.UseHighest)
	resolutions := resolver.Resolve([]packages.Request{
		request("PackageX", "2.0.0", "/a.csproj"),
		request("PackageX", "2.1.0", "/b.csproj"),
	})
	c.Assert(resolutions, gc.HasLen, 1)
	c.Check(resolutions[0].Version, gc.Equals, "2.1.0")
	c.Check(resolutions[0].Degraded, gc.Equals, false)
}

func (s *ResolverSuite) TestUseLowest(c *gc.C) {
	resolver := resolve.NewResolver(packages.UseLowest)
	resolutions := resolver.Resolve([]packages.Request{
		request("PackageX", "2.1.0", "/a.csproj"),
		request("PackageX", "2.0.0", "/b.csproj"),
	})
	c.Assert(resolutions, gc.HasLen, 1)
	c.Check(resolutions[0].Version, gc.Equals, "2.0.0")
}

func (s *ResolverSuite) TestUseLatestStableSkipsPrereleases(c *gc.C) {
	resolver := resolve.NewResolver(packages.UseLatestStable)
	resolutions := resolver.Resolve([]packages.Request{
		request("PackageX", "3.0.0-beta.1", "/a.csproj"),
		request("PackageX", "2.1.0", "/b.csproj"),
	})
	c.Assert(resolutions, gc.HasLen, 1)
	c.Check(resolutions[0].Version, gc.Equals, "2.1.0")
}

func (s *ResolverSuite) TestUseLatestStableAllPrerelease(c *gc.C) {
	resolver := resolve.NewResolver(packages.UseLatestStable)
	resolutions := resolver.Resolve([]packages.Request{
		request("PackageX", "3.0.0-beta.1", "/a.csproj"),
		request("PackageX", "3.0.0-alpha.2", "/b.csproj"),
	})
	c.Assert(resolutions, gc.HasLen, 1)
	c.Check(resolutions[0].Version, gc.Equals, "3.0.0-beta.1")
}

func (s *ResolverSuite) TestUseMostCommon(c *gc.C) {
	resolver := resolve.NewResolver(packages.UseMostCommon)
	resolutions := resolver.Resolve([]packages.Request{
		request("PackageX", "1.0.0", "/a.csproj"),
		request("PackageX", "2.0.0", "/b.csproj"),
		request("PackageX", "1.0.0", "/c.csproj"),
	})
	c.Assert(resolutions, gc.HasLen, 1)
	c.Check(resolutions[0].Version, gc.Equals, "1.0.0")
}

func (s *ResolverSuite) TestUseMostCommonTieBreaksHighest(c *gc.C) {
	resolver := resolve.NewResolver(packages.UseMostCommon)
	resolutions := resolver.Resolve([]packages.Request{
		request("PackageX", "1.0.0", "/a.csproj"),
		request("PackageX", "2.0.0", "/b.csproj"),
		request("PackageX", "1.0.0", "/c.csproj"),
		request("PackageX", "2.0.0", "/d.csproj"),
	})
	c.Assert(resolutions, gc.HasLen, 1)
	c.Check(resolutions[0].Version, gc.Equals, "2.0.0")
}

func (s *ResolverSuite) TestFourSegmentVersions(c *gc.C) {
	resolver := resolve.NewResolver(packages.UseHighest)
	resolutions := resolver.Resolve([]packages.Request{
		request("PackageX", "4.0.30319.1", "/a.csproj"),
		request("PackageX", "4.0.30319.18020", "/b.csproj"),
	})
	c.Assert(resolutions, gc.HasLen, 1)
	c.Check(resolutions[0].Version, gc.Equals, "4.0.30319.18020")
	c.Check(resolutions[0].Degraded, gc.Equals, false)
}

func (s *ResolverSuite) TestDeterministicAcrossInputOrder(c *gc.C) {
	resolver := resolve.NewResolver(packages.UseHighest)
	forward := resolver.Resolve([]packages.Request{
		request("PackageX", "2.0.0", "/a.csproj"),
		request("PackageX", "2.1.0", "/b.csproj"),
	})
	reverse := resolver.Resolve([]packages.Request{
		request("PackageX", "2.1.0", "/b.csproj"),
		request("PackageX", "2.0.0", "/a.csproj"),
	})
	c.Check(forward, gc.DeepEquals, reverse)
}

func (s *ResolverSuite) TestDegradedOnUnparseableVersion(c *gc.C) {
	resolver := resolve.NewResolver(packages.UseHighest)
	resolutions := resolver.Resolve([]packages.Request{
		request("PackageX", "not-a-version", "/a.csproj"),
		request("PackageX", "2.0.0", "/b.csproj"),
	})
	c.Assert(resolutions, gc.HasLen, 1)
	c.Check(resolutions[0].Degraded, gc.Equals, true)
	c.Check(resolutions[0].Version, gc.Equals, "not-a-version")
	c.Assert(resolutions[0].Warnings, gc.Not(gc.HasLen), 0)
}

func (s *ResolverSuite) TestMajorRegressionWarning(c *gc.C) {
	resolver := resolve.NewResolver(packages.UseLowest)
	resolutions := resolver.Resolve([]packages.Request{
		request("PackageX", "1.0.0", "/a.csproj"),
		request("PackageX", "2.0.0", "/b.csproj"),
	})
	c.Assert(resolutions, gc.HasLen, 1)
	// UseLowest keeps 1.0.0; nobody requested lower than resolved, so
	// the regression heuristic stays quiet, but the spread heuristic
	// fires for the whole-major gap.
	c.Check(resolutions[0].Version, gc.Equals, "1.0.0")
}

func (s *ResolverSuite) TestRegressionWarningOnHighestOverMajorGap(c *gc.C) {
	resolver := resolve.NewResolver(packages.UseHighest)
	resolutions := resolver.Resolve([]packages.Request{
		request("PackageX", "1.0.0", "/a.csproj"),
		request("PackageX", "3.2.0", "/b.csproj"),
	})
	c.Assert(resolutions, gc.HasLen, 1)
	c.Check(resolutions[0].Version, gc.Equals, "3.2.0")
	// Requests span more than one major version around the resolved
	// one; the spread warning fires.
	found := false
	for _, w := range resolutions[0].Warnings {
		if w != "" {
			found = true
		}
	}
	c.Check(found, gc.Equals, true)
}

func (s *ResolverSuite) TestUpdates(c *gc.C) {
	requests := []packages.Request{
		request("PackageX", "2.0.0", "/a.csproj"),
		request("PackageX", "2.1.0", "/b.csproj"),
	}
	resolver := resolve.NewResolver(packages.UseHighest)
	resolutions := resolver.Resolve(requests)
	updates := resolve.Updates(requests, resolutions)

	c.Assert(updates, gc.HasLen, 1)
	c.Check(updates["/a.csproj"], gc.DeepEquals, []packages.Update{
		{ID: "PackageX", From: "2.0.0", To: "2.1.0"},
	})
}
