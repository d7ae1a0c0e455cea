package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Iron-Ham/nextron/internal/bundler"
	"github.com/Iron-Ham/nextron/internal/config"
	"github.com/Iron-Ham/nextron/internal/errors"
	"github.com/Iron-Ham/nextron/internal/event"
	"github.com/Iron-Ham/nextron/internal/logging"
)

// Build step names reported in BuildStepEvent.
const (
	StepClean    = "clean"
	StepRenderer = "renderer"
	StepHost     = "host"
	StepPackage  = "package"
)

// Tool commands.
const (
	NextCommand     = "next"
	PackagerCommand = "electron-builder"
)

// DefaultDistDir is the packager output directory when package.json does not
// set build.directories.output.
const DefaultDistDir = "dist"

// packagerEnv lets electron-builder proceed when optional native
// dependencies cannot be resolved.
var packagerEnv = []string{"ELECTRON_BUILDER_ALLOW_UNRESOLVED_DEPENDENCIES=true"}

// HostCompiler builds the host bundle once.
type HostCompiler interface {
	Build(ctx context.Context) (bundler.CompileResult, error)
}

// Artifacts are the outputs of the bundling steps.
type Artifacts struct {
	// AppDir holds the renderer's static assets and the host bundle.
	AppDir string
	Host   bundler.CompileResult
}

// Builder runs production builds for one resolved project.
type Builder struct {
	opts   config.BuildOptions
	runner Runner
	host   HostCompiler
	bus    *event.Bus
	logger *logging.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithRunner replaces the default ExecRunner.
func WithRunner(r Runner) Option {
	return func(b *Builder) {
		if r != nil {
			b.runner = r
		}
	}
}

// WithHostCompiler replaces the esbuild compiler built from the options.
func WithHostCompiler(c HostCompiler) Option {
	return func(b *Builder) {
		if c != nil {
			b.host = c
		}
	}
}

// WithBus publishes build step events on bus.
func WithBus(bus *event.Bus) Option {
	return func(b *Builder) {
		if bus != nil {
			b.bus = bus
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *logging.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a Builder. opts should be resolved in production mode.
func New(opts config.BuildOptions, options ...Option) *Builder {
	b := &Builder{
		opts:   opts,
		runner: ExecRunner{Dir: opts.ProjectDir},
		bus:    event.NewBus(),
		logger: logging.NopLogger(),
	}
	for _, opt := range options {
		opt(b)
	}
	b.logger = b.logger.WithComponent("builder")
	if b.host == nil {
		b.host = bundler.New(opts.Watch, bundler.WithLogger(b.logger))
	}
	return b
}

// AppDir returns the absolute bundle output directory.
func (b *Builder) AppDir() string {
	out := b.opts.Watch.OutDir
	if out == "" {
		out = "app"
	}
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(b.opts.ProjectDir, out)
}

// DistDir returns the absolute packager output directory.
func (b *Builder) DistDir() string {
	dist := DefaultDistDir
	if b.opts.Package != nil && b.opts.Package.OutputDir != "" {
		dist = b.opts.Package.OutputDir
	}
	if filepath.IsAbs(dist) {
		return dist
	}
	return filepath.Join(b.opts.ProjectDir, dist)
}

// Clean removes the outputs of previous builds.
func (b *Builder) Clean(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, dir := range []string{b.AppDir(), b.DistDir()} {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("failed to remove %s: %w", dir, err)
			}
			b.logger.Debug("removed previous build output", "dir", dir)
			return nil
		})
	}
	return g.Wait()
}

// BuildRendererBundle runs next build on srcDir and returns the directory
// holding the exported static assets.
func (b *Builder) BuildRendererBundle(ctx context.Context, srcDir string) (string, error) {
	if !filepath.IsAbs(srcDir) {
		srcDir = filepath.Join(b.opts.ProjectDir, srcDir)
	}
	if err := b.runner.Run(ctx, NextCommand, []string{"build", srcDir}, nil); err != nil {
		return "", errors.Wrap(err, "renderer build failed")
	}
	return b.AppDir(), nil
}

// BuildHostBundle bundles the host sources once.
func (b *Builder) BuildHostBundle(ctx context.Context) (bundler.CompileResult, error) {
	res, err := b.host.Build(ctx)
	if err == nil || errors.Is(err, errors.ErrCompileFailed) {
		b.bus.Publish(event.NewCompileFinishedEvent(res.OK, true, res.Diagnostics, res.Warnings, res.Duration))
	}
	return res, err
}

// PackageApplication runs the packager over the build artifacts and returns
// the distributable directory.
func (b *Builder) PackageApplication(ctx context.Context, artifacts Artifacts, flags PlatformFlags) (string, error) {
	if _, err := os.Stat(artifacts.AppDir); err != nil {
		return "", fmt.Errorf("build artifacts missing: %w", err)
	}
	if err := b.runner.Run(ctx, PackagerCommand, flags.Args(), packagerEnv); err != nil {
		return "", errors.Wrap(err, "packaging failed")
	}
	return b.DistDir(), nil
}

// RunOptions configures Run.
type RunOptions struct {
	Platform PlatformFlags
	NoPack   bool
}

// Result summarizes a completed build.
type Result struct {
	Artifacts Artifacts
	// DistDir is empty when packaging was skipped.
	DistDir  string
	Duration time.Duration
}

// Run performs a full production build. It stops at the first failing step.
func (b *Builder) Run(ctx context.Context, ro RunOptions) (*Result, error) {
	start := time.Now()
	res := &Result{}

	if err := b.step(StepClean, func() error { return b.Clean(ctx) }); err != nil {
		return nil, err
	}

	if err := b.step(StepRenderer, func() error {
		dir, err := b.BuildRendererBundle(ctx, b.opts.RendererSrcDir)
		res.Artifacts.AppDir = dir
		return err
	}); err != nil {
		return nil, err
	}

	if err := b.step(StepHost, func() error {
		host, err := b.BuildHostBundle(ctx)
		res.Artifacts.Host = host
		return err
	}); err != nil {
		return nil, err
	}

	if ro.NoPack {
		b.bus.Publish(event.NewBuildStepEvent(StepPackage, event.StepSkipped, 0, nil))
	} else if err := b.step(StepPackage, func() error {
		dist, err := b.PackageApplication(ctx, res.Artifacts, ro.Platform)
		res.DistDir = dist
		return err
	}); err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	b.logger.Info("build finished", "duration_ms", res.Duration.Milliseconds(), "dist", res.DistDir)
	return res, nil
}

func (b *Builder) step(name string, fn func() error) error {
	b.bus.Publish(event.NewBuildStepEvent(name, event.StepStarted, 0, nil))
	b.logger.Info("build step started", "step", name)

	start := time.Now()
	err := fn()
	d := time.Since(start)

	if err != nil {
		b.logger.Error("build step failed", "step", name, "error", err.Error())
		b.bus.Publish(event.NewBuildStepEvent(name, event.StepFailed, d, err))
		return err
	}
	b.logger.Info("build step finished", "step", name, "duration_ms", d.Milliseconds())
	b.bus.Publish(event.NewBuildStepEvent(name, event.StepSucceeded, d, nil))
	return nil
}
