// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package migrator

import (
	"os"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"

	"github.com/thomhurst/sdkmigrate/core/packages"
)

// Options configure a migration run. The zero value plus Validate's
// defaulting is a usable configuration.
type Options struct {
	// Concurrency bounds the per-project worker pool.
	Concurrency int `yaml:"concurrency"`

	// Preview disables every filesystem mutation; the run produces the
	// report a real run would, and nothing else.
	Preview bool `yaml:"preview"`

	// Strategy resolves cross-project version conflicts. When empty it
	// defaults to UseHighest if a central manifest is requested and
	// UseMostCommon otherwise.
	Strategy packages.Strategy `yaml:"strategy"`

	// CentralManifest requests a Directory.Packages.props pinning
	// every package batch-wide.
	CentralManifest bool `yaml:"central-manifest"`

	// DisableBackups skips pre-mutation snapshots. Audit events are
	// recorded regardless.
	DisableBackups bool `yaml:"disable-backups"`

	// EssentialPackages are never elided as transitive.
	EssentialPackages []string `yaml:"essential-packages"`

	// DenyProperties extends the engine's property deny-list.
	DenyProperties []string `yaml:"deny-properties"`

	// AssemblyPackages extends the built-in assembly-to-package table.
	// Keys are assembly names, matched case-insensitively.
	AssemblyPackages map[string]AssemblyPackage `yaml:"assembly-packages"`

	// ExcludeDirs are directory names skipped during project
	// discovery, in addition to the built-in set.
	ExcludeDirs []string `yaml:"exclude-dirs"`

	// KeepSessions bounds how many backup sessions are retained after
	// a successful run; older ones are pruned.
	KeepSessions int `yaml:"keep-sessions"`
}

// AssemblyPackage names the package a legacy assembly reference should
// migrate to.
type AssemblyPackage struct {
	ID      string `yaml:"id"`
	Version string `yaml:"version"`
}

// LoadOptions reads an options file and merges it under opts: values
// already set on opts win over the file.
func LoadOptions(path string, opts Options) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, errors.Annotatef(err, "reading options file %q", path)
	}
	var fromFile Options
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return opts, errors.Annotatef(err, "parsing options file %q", path)
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = fromFile.Concurrency
	}
	if opts.Strategy == "" {
		opts.Strategy = fromFile.Strategy
	}
	opts.Preview = opts.Preview || fromFile.Preview
	opts.CentralManifest = opts.CentralManifest || fromFile.CentralManifest
	opts.DisableBackups = opts.DisableBackups || fromFile.DisableBackups
	opts.EssentialPackages = append(opts.EssentialPackages, fromFile.EssentialPackages...)
	opts.DenyProperties = append(opts.DenyProperties, fromFile.DenyProperties...)
	opts.ExcludeDirs = append(opts.ExcludeDirs, fromFile.ExcludeDirs...)
	for name, pkg := range fromFile.AssemblyPackages {
		if opts.AssemblyPackages == nil {
			opts.AssemblyPackages = map[string]AssemblyPackage{}
		}
		if _, ok := opts.AssemblyPackages[name]; !ok {
			opts.AssemblyPackages[name] = pkg
		}
	}
	if opts.KeepSessions == 0 {
		opts.KeepSessions = fromFile.KeepSessions
	}
	return opts, nil
}

// Validate applies defaults and rejects nonsense.
func (o *Options) Validate() error {
	if o.Concurrency < 0 {
		return errors.NotValidf("concurrency %d", o.Concurrency)
	}
	if o.Concurrency == 0 {
		o.Concurrency = 1
	}
	if o.KeepSessions == 0 {
		o.KeepSessions = 10
	}
	if o.Strategy == "" {
		if o.CentralManifest {
			o.Strategy = packages.UseHighest
		} else {
			o.Strategy = packages.UseMostCommon
		}
	}
	if _, err := packages.ParseStrategy(string(o.Strategy)); err != nil {
		return errors.Trace(err)
	}
	return nil
}
