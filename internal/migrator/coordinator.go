// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

// Package migrator orchestrates a migration batch: project discovery,
// the bounded per-project pipeline, the batch-wide resolution phases
// behind the barrier, and the guarded file writes.
package migrator

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"golang.org/x/sync/errgroup"

	"github.com/thomhurst/sdkmigrate/core/migration"
	"github.com/thomhurst/sdkmigrate/core/packages"
	"github.com/thomhurst/sdkmigrate/core/project"
	"github.com/thomhurst/sdkmigrate/internal/cpm"
	"github.com/thomhurst/sdkmigrate/internal/elide"
	"github.com/thomhurst/sdkmigrate/internal/msbuild"
	"github.com/thomhurst/sdkmigrate/internal/pkgmigrate"
	"github.com/thomhurst/sdkmigrate/internal/registry"
	"github.com/thomhurst/sdkmigrate/internal/resolve"
	"github.com/thomhurst/sdkmigrate/internal/safety"
	"github.com/thomhurst/sdkmigrate/internal/transform"
)

var logger = loggo.GetLogger("sdkmigrate.migrator")

// Evaluator evaluates a legacy project file into a model. The default
// implementation is msbuild.NewEvaluator; anything honouring the
// degraded-parsing contract can replace it.
type Evaluator interface {
	Evaluate(path string) (*project.Model, error)
}

// Config assembles a coordinator.
type Config struct {
	Root      string
	Options   Options
	Evaluator Evaluator
	Registry  registry.Client
	Clock     clock.Clock
}

// Validate checks the config and applies option defaults.
func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.NotValidf("empty root directory")
	}
	if c.Evaluator == nil {
		return errors.NotValidf("nil evaluator")
	}
	if c.Registry == nil {
		return errors.NotValidf("nil registry client")
	}
	if c.Clock == nil {
		return errors.NotValidf("nil clock")
	}
	return errors.Trace(c.Options.Validate())
}

// Coordinator runs migration batches.
type Coordinator struct {
	root      string
	opts      Options
	evaluator Evaluator
	clock     clock.Clock

	engine      *transform.Engine
	pkgMigrator *pkgmigrate.Migrator
	analyzer    *elide.Analyzer
	resolver    *resolve.Resolver

	// siblingMu guards the per-run cache of sibling projects' direct
	// package requests. The cache is torn down with the coordinator;
	// nothing outlives the run.
	siblingMu    sync.Mutex
	siblingCache map[string][]packages.Request
}

// NewCoordinator builds a coordinator from config. The registry client
// is wrapped with per-run caching and bounded retries.
func NewCoordinator(config Config) (*Coordinator, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	client := registry.NewCachingClient(
		registry.NewRetryingClient(config.Registry, config.Clock))
	root, err := filepath.Abs(config.Root)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Coordinator{
		root:         root,
		opts:         config.Options,
		evaluator:    config.Evaluator,
		clock:        config.Clock,
		engine:       transform.NewEngine(config.Options.DenyProperties...),
		pkgMigrator:  pkgmigrate.NewMigrator(client, assemblyExtensions(config.Options)),
		analyzer:     elide.NewAnalyzer(client, config.Options.EssentialPackages),
		resolver:     resolve.NewResolver(config.Options.Strategy),
		siblingCache: map[string][]packages.Request{},
	}, nil
}

// assemblyExtensions converts the options-file assembly table into the
// package migrator's lookup form.
func assemblyExtensions(opts Options) map[string]registry.PackageResolution {
	if len(opts.AssemblyPackages) == 0 {
		return nil
	}
	extensions := make(map[string]registry.PackageResolution, len(opts.AssemblyPackages))
	for name, pkg := range opts.AssemblyPackages {
		extensions[name] = registry.PackageResolution{ID: pkg.ID, Version: pkg.Version}
	}
	return extensions
}

// projectState carries a project's in-flight artefacts between the
// pipeline and the write phase.
type projectState struct {
	result *migration.Result
	sdk    *project.SDKProject
}

// Run executes one migration batch. Per-project errors land in that
// project's result; only pre-flight lock failure and broken plumbing
// return an error here.
func (c *Coordinator) Run(ctx context.Context) (*Report, error) {
	projects, err := c.discover()
	if err != nil {
		return nil, errors.Trace(err)
	}
	logger.Infof("migrating %d projects under %q (concurrency %d, preview %v)",
		len(projects), c.root, c.opts.Concurrency, c.opts.Preview)

	// The directory lock is held for the full run, serialising whole
	// runs against each other. Failure to acquire aborts before any
	// mutation.
	releaser, err := safety.AcquireLock(c.root, c.clock)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer releaser.Release()

	auditor := safety.NewNopAuditor()
	var auditEvents func() []safety.Event
	if !c.opts.Preview {
		fileAuditor, closer := safety.NewFileAuditor(c.root, c.clock)
		defer closer.Close()
		auditor = fileAuditor
		auditEvents = fileAuditor.Events
	}

	var session *safety.Session
	if !c.opts.Preview && !c.opts.DisableBackups {
		session, err = safety.NewSession(c.root, c.clock)
		if err != nil {
			return nil, errors.Trace(err)
		}
	}
	writer := safety.NewWriter(session, auditor, c.opts.Preview)

	// Per-project phase: bounded workers, one project's pipeline runs
	// to completion on one worker. The aggregation below the barrier
	// only ever sees finished states.
	states := make([]*projectState, len(projects))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.opts.Concurrency)
	for i, path := range projects {
		i, path := i, path
		group.Go(func() error {
			states[i] = c.runProject(groupCtx, path)
			return nil
		})
	}
	// Barrier: the batch-wide phases must see every project's final
	// request set.
	_ = group.Wait()

	results := make([]*migration.Result, len(states))
	for i, state := range states {
		results[i] = state.result
	}

	// Batch-wide phase: conflict resolution over all successful
	// projects, then the optional central manifest.
	var allRequests []packages.Request
	for _, result := range results {
		if result.Succeeded() || result.Phase == migration.TRANSFORMED {
			allRequests = append(allRequests, result.MigratedPackages...)
		}
	}
	conflicts := resolve.Conflicts(allRequests)
	resolutions := c.resolver.Resolve(allRequests)
	updates := resolve.Updates(allRequests, resolutions)
	c.applyUpdates(results, resolutions, updates)

	var manifest *cpm.Manifest
	if c.opts.CentralManifest {
		manifest, err = cpm.Generate(c.root, results, resolutions)
		if err != nil {
			return nil, errors.Trace(err)
		}
	}

	// Write phase: sequential, guarded, whole-file replaces.
	c.writeProjects(ctx, states, manifest, writer)
	if manifest != nil && len(manifest.Entries) > 0 {
		entries := make([]msbuild.CentralEntry, 0, len(manifest.Entries))
		for _, entry := range manifest.Entries {
			entries = append(entries, msbuild.CentralEntry{
				ID: entry.ID, Version: entry.Version, Global: entry.Global,
			})
		}
		if err := writer.WriteFile(manifest.Path,
			msbuild.SerializeCentralManifest(entries), "central package manifest"); err != nil {
			logger.Errorf("writing central manifest: %v", err)
			manifest.SpecialHandling = append(manifest.SpecialHandling,
				"manifest write failed: "+err.Error())
		}
	}

	// Post-barrier cleanup, strictly sequential.
	if !c.opts.Preview {
		safety.PruneSessions(c.root, c.opts.KeepSessions)
	}

	report := &Report{
		Root:        c.root,
		Preview:     c.opts.Preview,
		Results:     results,
		Conflicts:   conflicts,
		Resolutions: resolutions,
		Updates:     updates,
		Manifest:    manifest,
		WouldChange: writer.WouldChange(),
	}
	if session != nil {
		report.SessionID = session.ID()
		report.BackedUpFiles = session.FileCount()
	}
	if auditEvents != nil {
		report.AuditEvents = auditEvents()
	}
	return report, nil
}

// discover walks the tree for legacy project files.
func (c *Coordinator) discover() ([]string, error) {
	skip := set.NewStrings(".git", ".svn", "bin", "obj", "node_modules", ".vs", ".sdkmigrate")
	for _, dir := range c.opts.ExcludeDirs {
		skip.Add(dir)
	}
	var projects []string
	err := filepath.WalkDir(c.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if skip.Contains(entry.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csproj", ".vbproj":
			projects = append(projects, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Annotatef(err, "discovering projects under %q", c.root)
	}
	return projects, nil
}

// runProject drives one project through the phase machine. All errors
// are captured into the result; nothing escapes into the batch.
func (c *Coordinator) runProject(ctx context.Context, path string) *projectState {
	result := migration.NewResult(path)
	state := &projectState{result: result}

	// Cooperative cancellation at per-project granularity: queued but
	// unstarted projects are skipped and reported as not processed.
	if ctx.Err() != nil {
		result.NotProcessed = true
		result.AddWarning("not processed: run cancelled before this project started")
		return state
	}

	result.SetPhase(migration.PARSING)
	model, err := c.evaluator.Evaluate(path)
	if err != nil {
		result.SetPhase(migration.PARSEFAILED)
		result.AddError("parse failed: %v", err)
		return state
	}
	for _, stripped := range model.Stripped {
		result.AddWarning("degraded parse: stripped %s", stripped)
	}
	result.SetPhase(migration.PARSED)

	if model.SDKStyle {
		result.NoMigrationNeeded = true
		result.AddWarning("no migration needed: project is already SDK-style")
		result.SetPhase(migration.SUCCESS)
		return state
	}

	result.SetPhase(migration.CLASSIFYING)
	kind := transform.InferKind(model)

	result.SetPhase(migration.TRANSFORMING)
	sdk, changeLog, err := c.engine.Transform(model, kind)
	if err != nil {
		result.SetPhase(migration.TRANSFORMFAILED)
		result.AddError("transform failed: %v", err)
		return state
	}

	outcome, err := c.pkgMigrator.Migrate(ctx, model, kind)
	if err != nil {
		result.SetPhase(migration.TRANSFORMFAILED)
		result.AddError("package migration failed: %v", err)
		return state
	}

	siblings := c.siblingRequests(ctx, model, result)
	requests, elideWarnings := c.analyzer.Elide(ctx, outcome.Requests, siblings)

	// Legacy references nothing could classify stay in the project
	// verbatim.
	for _, item := range outcome.Preserved {
		metadata := project.Metadata{}
		for name, value := range item.Metadata {
			metadata[name] = value
		}
		sdk.Items = append(sdk.Items, project.SDKItem{
			Type:     "Reference",
			Include:  item.Include,
			Metadata: metadata,
		})
	}

	result.RemovedElements = append(result.RemovedElements, changeLog.Removed...)
	result.RemovedElements = append(result.RemovedElements, outcome.Removed...)
	for _, w := range outcome.Warnings {
		result.AddWarning("%s", w)
	}
	for _, w := range elideWarnings {
		result.AddWarning("%s", w)
	}
	for _, s := range changeLog.Suggestions {
		result.AddWarning("suggestion: %s", s)
	}
	for _, f := range changeLog.ReviewFlags {
		result.AddWarning("review: %s", f)
	}
	result.MigratedPackages = requests
	result.SetPhase(migration.TRANSFORMED)
	state.sdk = sdk
	return state
}

// siblingRequests returns the direct package requests of each project
// referenced by model, for sibling-closure elision. Exactly one level:
// the siblings' own project references are not followed. Answers are
// evaluated from the sibling's file on disk, so no project depends on
// another project's in-flight migration state.
func (c *Coordinator) siblingRequests(ctx context.Context, model *project.Model, result *migration.Result) map[string][]packages.Request {
	refs := model.ProjectReferences()
	if len(refs) == 0 {
		return nil
	}
	siblings := map[string][]packages.Request{}
	baseDir := filepath.Dir(model.Path)
	for _, ref := range refs {
		path := filepath.Join(baseDir, filepath.FromSlash(strings.ReplaceAll(ref, "\\", "/")))
		requests, err := c.siblingRequestsFor(ctx, path)
		if err != nil {
			result.AddWarning("cannot evaluate referenced project %q: %v", ref, err)
			continue
		}
		siblings[path] = requests
	}
	return siblings
}

func (c *Coordinator) siblingRequestsFor(ctx context.Context, path string) ([]packages.Request, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	c.siblingMu.Lock()
	cached, ok := c.siblingCache[abs]
	c.siblingMu.Unlock()
	if ok {
		return cached, nil
	}

	model, err := c.evaluator.Evaluate(abs)
	if err != nil {
		return nil, errors.Trace(err)
	}
	outcome, err := c.pkgMigrator.Migrate(ctx, model, transform.InferKind(model))
	if err != nil {
		return nil, errors.Trace(err)
	}

	c.siblingMu.Lock()
	c.siblingCache[abs] = outcome.Requests
	c.siblingMu.Unlock()
	return outcome.Requests, nil
}

// applyUpdates rewrites resolved versions onto each affected project's
// request set and surfaces the per-project update instructions as
// warnings on the result.
func (c *Coordinator) applyUpdates(results []*migration.Result, resolutions []packages.Resolution, updates map[string][]packages.Update) {
	resolved := make(map[string]packages.Resolution, len(resolutions))
	for _, resolution := range resolutions {
		resolved[packages.CanonicalID(resolution.ID)] = resolution
	}
	for _, result := range results {
		for i := range result.MigratedPackages {
			request := &result.MigratedPackages[i]
			if resolution, ok := resolved[request.Key()]; ok && request.Version != "" {
				request.Version = resolution.Version
			}
		}
		for _, update := range updates[result.ProjectPath] {
			result.AddWarning("version unified: %s %s -> %s", update.ID, update.From, update.To)
		}
	}
	for _, resolution := range resolutions {
		if resolution.Degraded {
			logger.Warningf("resolution of %s degraded: %s", resolution.ID, resolution.Reason)
		}
	}
}

// writeProjects serialises and writes every transformed project, then
// finalises each result's terminal phase.
func (c *Coordinator) writeProjects(ctx context.Context, states []*projectState, manifest *cpm.Manifest, writer *safety.Writer) {
	if manifest != nil {
		manifest.StripCoveredVersions(statesResults(states))
	}
	for _, state := range states {
		result := state.result
		if result.Phase != migration.TRANSFORMED {
			continue
		}
		configPath := filepath.Join(filepath.Dir(result.OutputPath), "packages.config")
		if c.opts.Preview {
			// The preview-mode writer mutates nothing; it only records
			// the paths a real run would touch, deletions included.
			data := msbuild.Serialize(state.sdk, result.MigratedPackages)
			_ = writer.WriteFile(result.OutputPath, data, "preview")
			_ = writer.DeleteFile(configPath, "superseded by PackageReference")
			result.SetPhase(migration.SUCCESS)
			continue
		}
		result.SetPhase(migration.WRITING)
		data := msbuild.Serialize(state.sdk, result.MigratedPackages)
		if err := writer.WriteFile(result.OutputPath, data, "migrated to SDK-style"); err != nil {
			// IO errors escalate to per-project failure and are never
			// silently retried.
			result.AddError("write failed: %v", err)
			result.SetPhase(migration.FAILED)
			continue
		}
		if err := writer.DeleteFile(configPath, "superseded by PackageReference"); err != nil {
			result.AddWarning("could not remove packages.config: %v", err)
		}
		result.SetPhase(migration.SUCCESS)
	}
}

func statesResults(states []*projectState) []*migration.Result {
	results := make([]*migration.Result, len(states))
	for i, state := range states {
		results[i] = state.result
	}
	return results
}
