package bundler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/Iron-Ham/nextron/internal/errors"
	"github.com/Iron-Ham/nextron/internal/logging"
)

// CompileResult is the outcome of one build.
type CompileResult struct {
	OK             bool
	Diagnostics    []string // formatted errors, empty when OK
	Warnings       []string
	IsFirstCompile bool
	Duration       time.Duration
}

// Compiler builds the host bundle described by a [Config].
type Compiler struct {
	cfg    Config
	logger *logging.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for build and watch diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Compiler. Configuration errors are reported by Watch and Build.
func New(cfg Config, opts ...Option) *Compiler {
	c := &Compiler{
		cfg:    cfg.Clone(),
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("bundler")
	return c
}

// Config returns a copy of the compiler's configuration.
func (c *Compiler) Config() Config {
	return c.cfg.Clone()
}

func (c *Compiler) newContext() (api.BuildContext, error) {
	opts, err := c.cfg.BuildOptions()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrBundlerSetup, err)
	}
	bctx, cerr := api.Context(opts)
	if cerr != nil {
		diags := formatMessages(cerr.Errors, api.ErrorMessage)
		return nil, fmt.Errorf("%w: %s", errors.ErrBundlerSetup, strings.Join(diags, "\n"))
	}
	return bctx, nil
}

// Build runs a single build and disposes of the bundler afterwards.
// A failed build returns the result together with a *errors.CompileError.
func (c *Compiler) Build(ctx context.Context) (CompileResult, error) {
	bctx, err := c.newContext()
	if err != nil {
		return CompileResult{}, err
	}
	defer bctx.Dispose()

	stop := context.AfterFunc(ctx, bctx.Cancel)
	defer stop()

	res := c.rebuild(bctx, true)
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if !res.OK {
		return res, errors.NewCompileError("host bundle build failed", res.Diagnostics)
	}
	return res, nil
}

func (c *Compiler) rebuild(bctx api.BuildContext, first bool) CompileResult {
	start := time.Now()
	br := bctx.Rebuild()

	res := CompileResult{
		OK:             len(br.Errors) == 0,
		IsFirstCompile: first,
		Duration:       time.Since(start),
		Warnings:       formatMessages(br.Warnings, api.WarningMessage),
	}
	if !res.OK {
		res.Diagnostics = formatMessages(br.Errors, api.ErrorMessage)
	} else if err := writeOutputs(br.OutputFiles); err != nil {
		res.OK = false
		res.Diagnostics = []string{err.Error()}
	}

	c.logger.Debug("host bundle compiled",
		"ok", res.OK,
		"first", first,
		"errors", len(br.Errors),
		"warnings", len(br.Warnings),
		"duration_ms", res.Duration.Milliseconds())
	return res
}

// writeOutputs puts a successful build on disk. Failed builds never reach
// it, so the previous bundle stays in place.
func writeOutputs(files []api.OutputFile) error {
	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(f.Path, f.Contents, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
	}
	return nil
}

func formatMessages(msgs []api.Message, kind api.MessageKind) []string {
	if len(msgs) == 0 {
		return nil
	}
	return api.FormatMessages(msgs, api.FormatMessagesOptions{
		Kind:  kind,
		Color: false,
	})
}

// Watch starts watch mode and returns once the watcher is installed. The
// initial build and every rebuild are reported to onResult from a single
// goroutine, one call per build, in completion order.
//
// Cancelling ctx stops further rebuilds; Stop must still be called to
// release the watcher and the bundler.
func (c *Compiler) Watch(ctx context.Context, onResult func(CompileResult)) (*Watching, error) {
	ignore, err := compileGlobs(c.cfg.Ignore)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrBundlerSetup, err)
	}

	bctx, err := c.newContext()
	if err != nil {
		return nil, err
	}

	fw, err := newFileWatcher(c.cfg.ProjectDir, c.cfg.WatchDirs, ignore, c.cfg.Debounce, c.logger)
	if err != nil {
		bctx.Dispose()
		return nil, fmt.Errorf("%w: failed to watch sources: %w", errors.ErrBundlerSetup, err)
	}

	w := &Watching{
		compiler: c,
		bctx:     bctx,
		fw:       fw,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go w.loop(ctx, onResult)

	c.logger.Info("watching host sources", "dirs", c.cfg.WatchDirs, "debounce_ms", fw.debounce.Milliseconds())
	return w, nil
}

// Watching is a running watch-mode session.
type Watching struct {
	compiler *Compiler
	bctx     api.BuildContext
	fw       *fileWatcher

	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
	err    error
}

func (w *Watching) loop(ctx context.Context, onResult func(CompileResult)) {
	defer close(w.doneCh)

	first := true
	for {
		res := w.compiler.rebuild(w.bctx, first)
		first = false

		// A build cancelled by Stop is not reported.
		select {
		case <-w.stopCh:
			return
		default:
		}
		onResult(res)

		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-w.fw.Changes():
		}
	}
}

// Stop ends watch mode: it cancels an in-flight build, waits for the result
// loop to exit, closes the file watcher and disposes of the bundler. It is
// idempotent. Stop must not be called from within onResult.
func (w *Watching) Stop() error {
	w.once.Do(func() {
		close(w.stopCh)
		w.bctx.Cancel()
		<-w.doneCh
		w.err = w.fw.Close()
		w.bctx.Dispose()
		w.compiler.logger.Debug("watch stopped")
	})
	return w.err
}
