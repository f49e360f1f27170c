// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/juju/clock"
	"github.com/juju/cmd/v4"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/utils/v4"

	"github.com/thomhurst/sdkmigrate/core/packages"
	"github.com/thomhurst/sdkmigrate/internal/migrator"
	"github.com/thomhurst/sdkmigrate/internal/msbuild"
	"github.com/thomhurst/sdkmigrate/internal/registry"
	"github.com/thomhurst/sdkmigrate/internal/safety"
)

var migrateDoc = `
Discovers every legacy project file under the given directory (the
current directory by default) and migrates each to the SDK-style
format. Projects that are already SDK-style are reported and left
untouched.

With --preview no file is modified; the command prints the exact report
a real run would produce, plus the list of files that would change.

Examples:

    sdkmigrate migrate ./src
    sdkmigrate migrate --preview --concurrency 8 ./src
    sdkmigrate migrate --cpm --strategy use-highest ./src
`

type migrateCommand struct {
	cmd.CommandBase
	out cmd.Output

	dir         string
	preview     bool
	concurrency int
	strategy    string
	cpm         bool
	noBackup    bool
	optionsFile string
	exclude     string
}

// Info implements cmd.Command.
func (c *migrateCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "migrate",
		Args:    "[<directory>]",
		Purpose: "migrate legacy project files to SDK-style",
		Doc:     migrateDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *migrateCommand) SetFlags(f *gnuflag.FlagSet) {
	f.BoolVar(&c.preview, "n", false, "report what would change without modifying anything")
	f.BoolVar(&c.preview, "preview", false, "")
	f.IntVar(&c.concurrency, "concurrency", 0, "number of projects migrated in parallel")
	f.StringVar(&c.strategy, "strategy", "", "version conflict resolution strategy")
	f.BoolVar(&c.cpm, "cpm", false, "generate a central Directory.Packages.props manifest")
	f.BoolVar(&c.noBackup, "no-backup", false, "skip pre-mutation backups (audit log is still written)")
	f.StringVar(&c.optionsFile, "options", "", "path to a YAML options file")
	f.StringVar(&c.exclude, "exclude", "", "comma-separated directory names to skip during discovery")
	c.out.AddFlags(f, "smart", map[string]cmd.Formatter{
		"smart": formatReportSummary,
		"yaml":  cmd.FormatYaml,
		"json":  cmd.FormatJson,
	})
}

// formatReportSummary renders the human-readable run summary.
func formatReportSummary(writer io.Writer, value interface{}) error {
	report, ok := value.(*migrator.Report)
	if !ok {
		return errors.Errorf("expected value of type %T, got %T", report, value)
	}
	_, err := io.WriteString(writer, report.Summary())
	return err
}

// Init implements cmd.Command.
func (c *migrateCommand) Init(args []string) error {
	dir, err := cmd.ZeroOrOneArgs(args)
	if err != nil {
		return errors.Trace(err)
	}
	if dir == "" {
		dir = "."
	}
	c.dir = dir
	return nil
}

// Run implements cmd.Command.
func (c *migrateCommand) Run(ctx *cmd.Context) error {
	opts := migrator.Options{
		Concurrency:     c.concurrency,
		Preview:         c.preview,
		Strategy:        packages.Strategy(c.strategy),
		CentralManifest: c.cpm,
		DisableBackups:  c.noBackup,
	}
	if c.exclude != "" {
		for _, dir := range strings.Split(c.exclude, ",") {
			if dir = strings.TrimSpace(dir); dir != "" {
				opts.ExcludeDirs = append(opts.ExcludeDirs, dir)
			}
		}
	}
	if c.optionsFile != "" {
		var err error
		opts, err = migrator.LoadOptions(c.optionsFile, opts)
		if err != nil {
			return errors.Trace(err)
		}
	}

	coordinator, err := migrator.NewCoordinator(migrator.Config{
		Root:      c.dir,
		Options:   opts,
		Evaluator: msbuild.NewEvaluator(),
		Registry:  registry.NewStaticClient(),
		Clock:     clock.WallClock,
	})
	if err != nil {
		return errors.Trace(err)
	}

	// Interrupts cancel the run cooperatively: in-flight projects
	// finish, queued ones are reported as not processed.
	runCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report, err := coordinator.Run(runCtx)
	if errors.Is(err, safety.ErrLockHeld) {
		return errors.Annotatef(err, "another migration is already running against %q", c.dir)
	}
	if err != nil {
		return errors.Trace(err)
	}

	if err := c.out.Write(ctx, report); err != nil {
		return errors.Trace(err)
	}
	if code := report.ExitCode(); code != 0 {
		return utils.NewRcPassthroughError(code)
	}
	return nil
}
