// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package migrator_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/clock"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/thomhurst/sdkmigrate/core/migration"
	"github.com/thomhurst/sdkmigrate/internal/migrator"
	"github.com/thomhurst/sdkmigrate/internal/msbuild"
	"github.com/thomhurst/sdkmigrate/internal/registry"
	"github.com/thomhurst/sdkmigrate/internal/safety"
)

type CoordinatorSuite struct {
	testing.IsolationSuite

	root   string
	client *registry.StaticClient
}

var _ = gc.Suite(&CoordinatorSuite{})

func (s *CoordinatorSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.root = c.MkDir()
	s.client = registry.NewStaticClient()
}

func (s *CoordinatorSuite) run(c *gc.C, opts migrator.Options) *migrator.Report {
	coordinator, err := migrator.NewCoordinator(migrator.Config{
		Root:      s.root,
		Options:   opts,
		Evaluator: msbuild.NewEvaluator(),
		Registry:  s.client,
		Clock:     clock.WallClock,
	})
	c.Assert(err, jc.ErrorIsNil)
	report, err := coordinator.Run(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	return report
}

func (s *CoordinatorSuite) writeProject(c *gc.C, relPath, content string) string {
	path := filepath.Join(s.root, filepath.FromSlash(relPath))
	c.Assert(os.MkdirAll(filepath.Dir(path), 0755), jc.ErrorIsNil)
	c.Assert(os.WriteFile(path, []byte(content), 0644), jc.ErrorIsNil)
	return path
}

func legacyProject(extra string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<Project ToolsVersion="15.0" xmlns="http://schemas.microsoft.com/developer/msbuild/2003">
  <PropertyGroup>
    <ProjectGuid>{F2A71F9B-5D33-465A-A702-920D77279786}</ProjectGuid>
    <OutputType>Library</OutputType>
    <TargetFrameworkVersion>v4.7.2</TargetFrameworkVersion>
  </PropertyGroup>
` + extra + `  <Import Project="$(MSBuildToolsPath)\Microsoft.CSharp.targets" />
</Project>
`
}

func (s *CoordinatorSuite) TestSingleProjectMigration(c *gc.C) {
	path := s.writeProject(c, "app/app.csproj", legacyProject(""))
	s.writeProject(c, "app/packages.config", `<packages>
  <package id="Newtonsoft.Json" version="12.0.3" targetFramework="net472" />
</packages>
`)

	report := s.run(c, migrator.Options{})

	c.Assert(report.Results, gc.HasLen, 1)
	result := report.Results[0]
	c.Check(result.Succeeded(), gc.Equals, true)
	c.Check(result.Phase, gc.Equals, migration.SUCCESS)

	data, err := os.ReadFile(path)
	c.Assert(err, jc.ErrorIsNil)
	content := string(data)
	c.Check(strings.HasPrefix(content, `<Project Sdk="Microsoft.NET.Sdk">`), gc.Equals, true)
	c.Check(content, gc.Matches, "(?s).*<TargetFramework>net472</TargetFramework>.*")
	c.Check(content, gc.Matches, `(?s).*<PackageReference Include="Newtonsoft.Json" Version="12.0.3" />.*`)
	c.Check(content, gc.Not(gc.Matches), "(?s).*ProjectGuid.*")

	// packages.config is superseded and removed.
	_, err = os.Stat(filepath.Join(s.root, "app", "packages.config"))
	c.Check(os.IsNotExist(err), gc.Equals, true)

	// The run left a restorable backup session behind.
	c.Check(report.SessionID, gc.Not(gc.Equals), "")
	c.Check(report.BackedUpFiles, gc.Equals, 2)
	c.Check(report.ExitCode(), gc.Equals, 0)
}

func (s *CoordinatorSuite) TestAlreadySDKStyleUntouched(c *gc.C) {
	content := `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
  </PropertyGroup>
</Project>
`
	path := s.writeProject(c, "app/app.csproj", content)

	report := s.run(c, migrator.Options{})

	c.Assert(report.Results, gc.HasLen, 1)
	c.Check(report.Results[0].NoMigrationNeeded, gc.Equals, true)
	c.Check(report.Results[0].Succeeded(), gc.Equals, true)
	c.Check(report.Counts().AlreadySDK, gc.Equals, 1)

	data, err := os.ReadFile(path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), gc.Equals, content)
}

func (s *CoordinatorSuite) TestMalformedProjectFailsAloneBatchContinues(c *gc.C) {
	s.writeProject(c, "good/good.csproj", legacyProject(""))
	s.writeProject(c, "bad/bad.csproj", "<Project><PropertyGroup></Project>")

	report := s.run(c, migrator.Options{})

	c.Assert(report.Results, gc.HasLen, 2)
	byPath := map[string]*migration.Result{}
	for _, result := range report.Results {
		byPath[filepath.Base(result.ProjectPath)] = result
	}
	c.Check(byPath["good.csproj"].Succeeded(), gc.Equals, true)
	c.Check(byPath["bad.csproj"].Phase, gc.Equals, migration.PARSEFAILED)
	c.Assert(byPath["bad.csproj"].Errors, gc.Not(gc.HasLen), 0)
	c.Check(report.ExitCode(), gc.Equals, 1)
}

func (s *CoordinatorSuite) TestCrossProjectConflictResolution(c *gc.C) {
	pathA := s.writeProject(c, "a/a.csproj", legacyProject(`  <ItemGroup>
    <PackageReference Include="PackageX" Version="2.0.0" />
  </ItemGroup>
`))
	pathB := s.writeProject(c, "b/b.csproj", legacyProject(`  <ItemGroup>
    <PackageReference Include="PackageX" Version="2.1.0" />
  </ItemGroup>
`))

	report := s.run(c, migrator.Options{
		CentralManifest: true,
	})

	c.Assert(report.Resolutions, gc.HasLen, 1)
	c.Check(report.Resolutions[0].ID, gc.Equals, "PackageX")
	c.Check(report.Resolutions[0].Version, gc.Equals, "2.1.0")

	// The central manifest pins the resolved version.
	manifest, err := os.ReadFile(filepath.Join(s.root, "Directory.Packages.props"))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(manifest), gc.Matches,
		`(?s).*<PackageVersion Include="PackageX" Version="2.1.0" />.*`)

	// Covered declarations carry no version attribute.
	for _, path := range []string{pathA, pathB} {
		data, err := os.ReadFile(path)
		c.Assert(err, jc.ErrorIsNil)
		c.Check(string(data), gc.Matches, `(?s).*<PackageReference Include="PackageX" />.*`)
		c.Check(string(data), gc.Not(gc.Matches), `(?s).*PackageX" Version=.*`)
	}
}

func (s *CoordinatorSuite) TestPreviewTouchesNothing(c *gc.C) {
	content := legacyProject("")
	path := s.writeProject(c, "app/app.csproj", content)

	report := s.run(c, migrator.Options{Preview: true})

	c.Assert(report.Results, gc.HasLen, 1)
	c.Check(report.Results[0].Succeeded(), gc.Equals, true)
	c.Check(report.Preview, gc.Equals, true)
	c.Check(report.SessionID, gc.Equals, "")
	c.Check(report.WouldChange, gc.DeepEquals, []string{path})

	data, err := os.ReadFile(path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), gc.Equals, content)

	// Preview leaves no backup store behind.
	_, err = os.Stat(filepath.Join(s.root, ".sdkmigrate"))
	c.Check(os.IsNotExist(err), gc.Equals, true)
}

func (s *CoordinatorSuite) TestPreviewListsConfigDeletion(c *gc.C) {
	path := s.writeProject(c, "app/app.csproj", legacyProject(""))
	configPath := s.writeProject(c, "app/packages.config", `<packages>
  <package id="Newtonsoft.Json" version="12.0.3" targetFramework="net472" />
</packages>
`)

	report := s.run(c, migrator.Options{Preview: true})

	// The would-change set matches what a real run mutates: the
	// rewritten project and the superseded packages.config.
	c.Check(report.WouldChange, gc.DeepEquals, []string{path, configPath})

	_, err := os.Stat(configPath)
	c.Check(err, jc.ErrorIsNil)
}

func (s *CoordinatorSuite) TestSecondRunIsNoOp(c *gc.C) {
	s.writeProject(c, "app/app.csproj", legacyProject(""))

	first := s.run(c, migrator.Options{})
	c.Check(first.Counts().Migrated, gc.Equals, 1)

	second := s.run(c, migrator.Options{})
	c.Check(second.Counts().Migrated, gc.Equals, 0)
	c.Check(second.Counts().AlreadySDK, gc.Equals, 1)
	c.Check(second.ExitCode(), gc.Equals, 0)
}

func (s *CoordinatorSuite) TestTransitiveElision(c *gc.C) {
	s.client.AddDependency("Top.Lib", "Leaf.Lib")
	path := s.writeProject(c, "app/app.csproj", legacyProject(`  <ItemGroup>
    <PackageReference Include="Top.Lib" Version="1.0.0" />
    <PackageReference Include="Leaf.Lib" Version="1.0.0" />
  </ItemGroup>
`))

	report := s.run(c, migrator.Options{})
	c.Assert(report.Results[0].Succeeded(), gc.Equals, true)

	data, err := os.ReadFile(path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), gc.Matches, `(?s).*<PackageReference Include="Top.Lib" Version="1.0.0" />.*`)
	c.Check(string(data), gc.Not(gc.Matches), "(?s).*Leaf.Lib.*")
}

func (s *CoordinatorSuite) TestDiscoverySkipsBuildDirectories(c *gc.C) {
	s.writeProject(c, "app/app.csproj", legacyProject(""))
	s.writeProject(c, "app/obj/generated.csproj", legacyProject(""))
	s.writeProject(c, "node_modules/dep/dep.csproj", legacyProject(""))

	report := s.run(c, migrator.Options{})
	c.Check(report.Results, gc.HasLen, 1)
}

func (s *CoordinatorSuite) TestExcludeDirs(c *gc.C) {
	s.writeProject(c, "app/app.csproj", legacyProject(""))
	s.writeProject(c, "legacy/old.csproj", legacyProject(""))

	report := s.run(c, migrator.Options{ExcludeDirs: []string{"legacy"}})
	c.Assert(report.Results, gc.HasLen, 1)
	c.Check(filepath.Base(report.Results[0].ProjectPath), gc.Equals, "app.csproj")
}

func (s *CoordinatorSuite) TestRunAbortsWhenLockHeld(c *gc.C) {
	s.writeProject(c, "app/app.csproj", legacyProject(""))

	abs, err := filepath.Abs(s.root)
	c.Assert(err, jc.ErrorIsNil)
	releaser, err := safety.AcquireLock(abs, clock.WallClock)
	c.Assert(err, jc.ErrorIsNil)
	defer releaser.Release()

	coordinator, err := migrator.NewCoordinator(migrator.Config{
		Root:      s.root,
		Options:   migrator.Options{},
		Evaluator: msbuild.NewEvaluator(),
		Registry:  s.client,
		Clock:     clock.WallClock,
	})
	c.Assert(err, jc.ErrorIsNil)

	_, err = coordinator.Run(context.Background())
	c.Assert(err, jc.ErrorIs, safety.ErrLockHeld)
}

func (s *CoordinatorSuite) TestCancelledRunReportsUnprocessed(c *gc.C) {
	s.writeProject(c, "app/app.csproj", legacyProject(""))

	coordinator, err := migrator.NewCoordinator(migrator.Config{
		Root:      s.root,
		Options:   migrator.Options{},
		Evaluator: msbuild.NewEvaluator(),
		Registry:  s.client,
		Clock:     clock.WallClock,
	})
	c.Assert(err, jc.ErrorIsNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := coordinator.Run(ctx)
	c.Assert(err, jc.ErrorIsNil)

	c.Assert(report.Results, gc.HasLen, 1)
	c.Check(report.Results[0].NotProcessed, gc.Equals, true)
	c.Check(report.Counts().NotProcessed, gc.Equals, 1)
}

func (s *CoordinatorSuite) TestConfigValidation(c *gc.C) {
	_, err := migrator.NewCoordinator(migrator.Config{})
	c.Assert(err, gc.NotNil)

	_, err = migrator.NewCoordinator(migrator.Config{
		Root:      s.root,
		Evaluator: msbuild.NewEvaluator(),
		Registry:  s.client,
	})
	c.Assert(err, gc.ErrorMatches, ".*nil clock.*")
}
