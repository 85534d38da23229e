// Package build packages a project into a staging tree: the copied sources,
// a runtime descriptor, and one launcher per target platform.
//
// A build runs four stages in order and stops at the first failure:
//
//	1. reset <root>/<id> and create app/, runtime/ and dist/
//	2. copy the project's sources into app/
//	3. probe php and write runtime/php.conf
//	4. write dist/<platform>/<launcher> for each target platform
//
// The staging tree is the deliverable and is never cleaned up.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/harshul/phpack/internal/apperr"
	"github.com/harshul/phpack/internal/blueprint"
	"github.com/harshul/phpack/internal/store"
	"github.com/harshul/phpack/internal/thermal"
)

// DefaultStagingRoot is where staging trees are created.
const DefaultStagingRoot = "./build"

// Staging subdirectories.
const (
	AppDir     = "app"
	RuntimeDir = "runtime"
	DistDir    = "dist"
)

// Runtime is the part of the php interpreter the runtime stage probes.
type Runtime interface {
	Version(ctx context.Context) (string, error)
	Extensions(ctx context.Context) (string, error)
}

// Options configures a Pipeline.
type Options struct {
	StagingRoot string
	Resolver    store.Resolver
	Runtime     Runtime
	// Concurrency bounds parallel file copies. Zero derives it from the
	// host hardware.
	Concurrency int
	Logger      *log.Logger
	// Observer receives progress events. It is called synchronously from the
	// building goroutine.
	Observer func(Event)
}

// Pipeline builds staging trees. Builds of different projects may run
// concurrently; builds of the same project id run one at a time.
type Pipeline struct {
	root        string
	resolver    store.Resolver
	runtime     Runtime
	concurrency int
	logger      *log.Logger
	observer    func(Event)
	locks       *keyedMutex
}

// New returns a Pipeline.
func New(opts Options) *Pipeline {
	if opts.StagingRoot == "" {
		opts.StagingRoot = DefaultStagingRoot
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = thermal.OptimalConcurrency(thermal.DetectHardware(), 0)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Pipeline{
		root:        opts.StagingRoot,
		resolver:    opts.Resolver,
		runtime:     opts.Runtime,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
		observer:    opts.Observer,
		locks:       newKeyedMutex(),
	}
}

// Result describes a finished staging tree.
type Result struct {
	ProjectID   string
	Root        string
	SourcePath  string
	FilesCopied int
	Descriptor  Descriptor
	// Launchers maps platform tag to launcher path.
	Launchers map[string]string
	Elapsed   time.Duration
}

// Build runs the four stages for projectID with cfg.
func (p *Pipeline) Build(ctx context.Context, projectID string, cfg blueprint.BuildConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	unlock := p.locks.Lock(projectID)
	defer unlock()

	start := time.Now()
	res := &Result{ProjectID: projectID, Launchers: make(map[string]string)}

	stages := []struct {
		stage Stage
		run   func(context.Context, *Result, blueprint.BuildConfig) error
	}{
		{StageEnvironment, p.stageEnvironment},
		{StageCopy, p.copySources},
		{StageRuntime, p.bundleRuntime},
		{StageLaunchers, p.emitLaunchers},
	}

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stageStart := time.Now()
		p.emit(Event{ProjectID: projectID, Stage: s.stage, Kind: StageStarted})
		p.logger.Debug("stage started", "project", projectID, "stage", s.stage)

		if err := s.run(ctx, res, cfg); err != nil {
			elapsed := time.Since(stageStart)
			p.emit(Event{ProjectID: projectID, Stage: s.stage, Kind: StageFailed, Err: err, Elapsed: elapsed})
			p.logger.Error("stage failed", "project", projectID, "stage", s.stage, "err", err)
			return nil, err
		}

		elapsed := time.Since(stageStart)
		p.emit(Event{ProjectID: projectID, Stage: s.stage, Kind: StageFinished, Elapsed: elapsed})
		p.logger.Info("stage finished", "project", projectID, "stage", s.stage, "elapsed", elapsed.Round(time.Millisecond))
	}

	res.Elapsed = time.Since(start)
	p.emit(Event{ProjectID: projectID, Kind: BuildFinished, Path: res.Root, Elapsed: res.Elapsed})
	return res, nil
}

// StagingDir returns the staging tree path for projectID.
func (p *Pipeline) StagingDir(projectID string) string {
	return filepath.Join(p.root, projectID)
}

func (p *Pipeline) emit(e Event) {
	if p.observer != nil {
		p.observer(e)
	}
}

func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

func (p *Pipeline) stageEnvironment(_ context.Context, res *Result, _ blueprint.BuildConfig) error {
	const op = "prepare staging"

	if !validID(res.ProjectID) {
		return apperr.New(apperr.StagingFailed, op, "invalid project id %q", res.ProjectID)
	}
	dir := p.StagingDir(res.ProjectID)

	if err := os.RemoveAll(dir); err != nil {
		return apperr.Wrap(apperr.StagingFailed, op, err)
	}
	for _, sub := range []string{AppDir, RuntimeDir, DistDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return apperr.Wrap(apperr.StagingFailed, op, err)
		}
	}

	res.Root = dir
	return nil
}

func (p *Pipeline) copySources(ctx context.Context, res *Result, _ blueprint.BuildConfig) error {
	const op = "copy project files"

	if p.resolver == nil {
		return apperr.New(apperr.CopyFailed, op, "no project resolver configured")
	}
	src, err := p.resolver.Resolve(res.ProjectID)
	if err != nil {
		return apperr.Wrap(apperr.CopyFailed, op, err)
	}

	absSrc, err := filepath.Abs(src)
	if err != nil {
		return apperr.Wrap(apperr.CopyFailed, op, err)
	}
	skip, err := p.nestedStagingRoot(absSrc)
	if err != nil {
		return apperr.Wrap(apperr.CopyFailed, op, err)
	}
	if skip != "" {
		p.logger.Debug("staging root is inside the project, leaving it out", "project", res.ProjectID, "staging_root", skip)
	}

	n, err := copyTree(ctx, absSrc, filepath.Join(res.Root, AppDir), skip, p.concurrency)
	if err != nil {
		return apperr.Wrap(apperr.CopyFailed, op, err)
	}

	res.SourcePath = src
	res.FilesCopied = n
	p.logger.Debug("copied sources", "from", src, "files", n, "workers", p.concurrency)
	return nil
}

// nestedStagingRoot returns the absolute staging root when it lies inside
// src, so the copy does not descend into its own output.
func (p *Pipeline) nestedStagingRoot(src string) (string, error) {
	root, err := filepath.Abs(p.root)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(src, root)
	if err != nil {
		return "", nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", nil
	}
	if rel == "." {
		return "", fmt.Errorf("staging root %s is the project directory", root)
	}
	return root, nil
}

func (p *Pipeline) bundleRuntime(ctx context.Context, res *Result, cfg blueprint.BuildConfig) error {
	const op = "bundle runtime"

	if p.runtime == nil {
		return apperr.New(apperr.RuntimeUnavailable, op, "no php runtime configured")
	}

	var version, extensions string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		version, err = p.runtime.Version(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		extensions, err = p.runtime.Extensions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		var e *apperr.Error
		if errors.As(err, &e) && e.Kind == apperr.RuntimeUnavailable {
			return err
		}
		return apperr.Wrap(apperr.RuntimeUnavailable, op, err)
	}

	d := Descriptor{
		Version:    strings.TrimSpace(version),
		AppName:    cfg.AppName,
		AppVersion: cfg.AppVersion,
		OutputDir:  cfg.OutputDir,
		Extensions: extensions,
	}
	data, err := d.Render()
	if err != nil {
		return apperr.Wrap(apperr.WriteFailed, op, err)
	}
	if err := os.WriteFile(filepath.Join(res.Root, filepath.FromSlash(DescriptorFile)), data, 0o644); err != nil {
		return apperr.Wrap(apperr.WriteFailed, op, err)
	}

	res.Descriptor = d
	return nil
}

func (p *Pipeline) emitLaunchers(_ context.Context, res *Result, cfg blueprint.BuildConfig) error {
	const op = "emit launcher"

	port, fallback := cfg.LauncherPort()
	if fallback && len(cfg.TargetPlatforms) > 0 {
		p.logger.Warn("server_port not set, launchers use window_width as the port", "port", port)
	}
	data := launcherData{Name: cfg.AppName, Port: port}

	for _, platform := range cfg.TargetPlatforms {
		// Rendering first rejects unknown platforms before their directory
		// is created.
		script, executable, err := renderLauncher(platform, data)
		if err != nil {
			return err
		}

		dir := filepath.Join(res.Root, DistDir, platform)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperr.Wrap(apperr.WriteFailed, op, err)
		}

		path := filepath.Join(dir, LauncherName(cfg.AppName, platform))
		mode := os.FileMode(0o644)
		if executable {
			mode = 0o755
		}
		if err := os.WriteFile(path, script, mode); err != nil {
			return apperr.Wrap(apperr.WriteFailed, op, err)
		}
		// WriteFile's mode is filtered by the umask.
		if err := os.Chmod(path, mode); err != nil {
			return apperr.Wrap(apperr.WriteFailed, op, err)
		}

		res.Launchers[platform] = path
		p.emit(Event{ProjectID: res.ProjectID, Stage: StageLaunchers, Kind: LauncherWritten, Platform: platform, Path: path})
	}
	return nil
}
