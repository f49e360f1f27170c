// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package transform_test

import (
	gc "gopkg.in/check.v1"

	"github.com/thomhurst/sdkmigrate/core/project"
	"github.com/thomhurst/sdkmigrate/internal/transform"
)

type KindSuite struct{}

var _ = gc.Suite(&KindSuite{})

func (s *KindSuite) TestDefault(c *gc.C) {
	model := &project.Model{
		Properties: []project.Property{{Name: "OutputType", Value: "Library"}},
	}
	c.Check(transform.InferKind(model), gc.Equals, project.KindDefault)
}

func (s *KindSuite) TestWebProjectTypeGuid(c *gc.C) {
	model := &project.Model{
		Properties: []project.Property{{
			Name:  "ProjectTypeGuids",
			Value: "{349c5851-65df-11da-9384-00065b846f21};{fae04ec0-301f-11d3-bf4b-00c04f79efbc}",
		}},
	}
	c.Check(transform.InferKind(model), gc.Equals, project.KindWeb)
}

func (s *KindSuite) TestTestProjectTypeGuid(c *gc.C) {
	model := &project.Model{
		Properties: []project.Property{{
			Name:  "ProjectTypeGuids",
			Value: "{3AC096D0-A1C2-E12C-1390-A8335801FDAB};{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}",
		}},
	}
	c.Check(transform.InferKind(model), gc.Equals, project.KindTest)
}

func (s *KindSuite) TestUseWPF(c *gc.C) {
	model := &project.Model{
		Properties: []project.Property{{Name: "UseWPF", Value: "True"}},
	}
	c.Check(transform.InferKind(model), gc.Equals, project.KindDesktop)
}

func (s *KindSuite) TestXamlItemsImplyDesktop(c *gc.C) {
	model := &project.Model{
		Items: []project.Item{{Type: "ApplicationDefinition", Include: "App.xaml"}},
	}
	c.Check(transform.InferKind(model), gc.Equals, project.KindDesktop)
}

func (s *KindSuite) TestWinFormsReferenceImpliesDesktop(c *gc.C) {
	model := &project.Model{
		Items: []project.Item{{
			Type:    "Reference",
			Include: "System.Windows.Forms, Version=4.0.0.0",
		}},
	}
	c.Check(transform.InferKind(model), gc.Equals, project.KindDesktop)
}

func (s *KindSuite) TestWebConfigImpliesWeb(c *gc.C) {
	model := &project.Model{
		Items: []project.Item{{Type: "Content", Include: "Web.config"}},
	}
	c.Check(transform.InferKind(model), gc.Equals, project.KindWeb)
}

func (s *KindSuite) TestTestReferenceImpliesTest(c *gc.C) {
	model := &project.Model{
		Items: []project.Item{{
			Type:    "Reference",
			Include: "nunit.framework, Version=3.13.3.0, Culture=neutral",
		}},
	}
	c.Check(transform.InferKind(model), gc.Equals, project.KindTest)
}

func (s *KindSuite) TestExplicitMarkerBeatsContent(c *gc.C) {
	// A WPF GUID wins even when the project also carries web content.
	model := &project.Model{
		Properties: []project.Property{{
			Name:  "ProjectTypeGuids",
			Value: "{60DC8134-EBA5-43B8-BCC9-BB4BC16C2548}",
		}},
		Items: []project.Item{{Type: "Content", Include: "web.config"}},
	}
	c.Check(transform.InferKind(model), gc.Equals, project.KindDesktop)
}

func (s *KindSuite) TestSDKNames(c *gc.C) {
	c.Check(project.KindDefault.SDK(), gc.Equals, "Microsoft.NET.Sdk")
	c.Check(project.KindWeb.SDK(), gc.Equals, "Microsoft.NET.Sdk.Web")
	c.Check(project.KindDesktop.SDK(), gc.Equals, "Microsoft.NET.Sdk.WindowsDesktop")
	c.Check(project.KindTest.SDK(), gc.Equals, "Microsoft.NET.Sdk")
}
