package supervisor

import (
	"context"

	"github.com/Iron-Ham/nextron/internal/bundler"
	"github.com/Iron-Ham/nextron/internal/process"
)

// Process is a supervised child process. *process.Handle implements it.
type Process interface {
	Kill() error
	Unref()
	Unreffed() bool
	Done() <-chan struct{}
	ExitCode() int
	Pid() (int, bool)
}

// Launcher spawns child processes.
type Launcher interface {
	Start(command string, args []string, opts process.Options) (Process, error)
}

// ExecLauncher spawns real OS processes.
type ExecLauncher struct{}

// Start implements Launcher.
func (ExecLauncher) Start(command string, args []string, opts process.Options) (Process, error) {
	h, err := process.Start(command, args, opts)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// WatchHandle stops a running watch.
type WatchHandle interface {
	Stop() error
}

// Compiler compiles the host sources in watch mode.
type Compiler interface {
	Watch(ctx context.Context, onResult func(bundler.CompileResult)) (WatchHandle, error)
}

// BundleCompiler adapts a *bundler.Compiler to Compiler.
type BundleCompiler struct {
	Compiler *bundler.Compiler
}

// Watch implements Compiler.
func (b BundleCompiler) Watch(ctx context.Context, onResult func(bundler.CompileResult)) (WatchHandle, error) {
	w, err := b.Compiler.Watch(ctx, onResult)
	if err != nil {
		return nil, err
	}
	return w, nil
}
