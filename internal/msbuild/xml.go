// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package msbuild

import "encoding/xml"

// Decode-side document shapes. These mirror only the constructs the
// evaluator understands; anything else is ignored by the decoder.

type xmlProject struct {
	XMLName        xml.Name           `xml:""`
	Sdk            string             `xml:"Sdk,attr"`
	ToolsVersion   string             `xml:"ToolsVersion,attr"`
	PropertyGroups []xmlPropertyGroup `xml:"PropertyGroup"`
	ItemGroups     []xmlItemGroup     `xml:"ItemGroup"`
	Imports        []xmlImport        `xml:"Import"`
	Targets        []xmlTarget        `xml:"Target"`
}

type xmlPropertyGroup struct {
	Condition  string        `xml:"Condition,attr"`
	Properties []xmlProperty `xml:",any"`
}

type xmlProperty struct {
	XMLName   xml.Name
	Condition string `xml:"Condition,attr"`
	Value     string `xml:",chardata"`
}

type xmlItemGroup struct {
	Condition string    `xml:"Condition,attr"`
	Items     []xmlItem `xml:",any"`
}

type xmlItem struct {
	XMLName   xml.Name
	Include   string        `xml:"Include,attr"`
	Update    string        `xml:"Update,attr"`
	Condition string        `xml:"Condition,attr"`
	Version   string        `xml:"Version,attr"`
	Metadata  []xmlMetadata `xml:",any"`
}

type xmlMetadata struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlImport struct {
	Project   string `xml:"Project,attr"`
	Condition string `xml:"Condition,attr"`
}

type xmlTarget struct {
	Name             string    `xml:"Name,attr"`
	BeforeTargets    string    `xml:"BeforeTargets,attr"`
	AfterTargets     string    `xml:"AfterTargets,attr"`
	DependsOnTargets string    `xml:"DependsOnTargets,attr"`
	Condition        string    `xml:"Condition,attr"`
	Tasks            []xmlTask `xml:",any"`
}

type xmlTask struct {
	XMLName    xml.Name
	Attributes []xml.Attr `xml:",any,attr"`
}

type xmlPackagesConfig struct {
	XMLName  xml.Name           `xml:"packages"`
	Packages []xmlConfigPackage `xml:"package"`
}

type xmlConfigPackage struct {
	ID                    string `xml:"id,attr"`
	Version               string `xml:"version,attr"`
	TargetFramework       string `xml:"targetFramework,attr"`
	DevelopmentDependency string `xml:"developmentDependency,attr"`
}
