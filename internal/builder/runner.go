package builder

import (
	"context"
	"fmt"
	"io"

	"github.com/Iron-Ham/nextron/internal/errors"
	"github.com/Iron-Ham/nextron/internal/process"
)

// Runner runs an external tool to completion.
type Runner interface {
	Run(ctx context.Context, command string, args []string, env []string) error
}

// ExecRunner runs tools as child processes in Dir with inherited stdio
// unless Stdout or Stderr are set.
type ExecRunner struct {
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// Run starts command and waits for it. Cancelling ctx kills the child.
// A non-zero exit status is reported as a *errors.ProcessError.
func (r ExecRunner) Run(ctx context.Context, command string, args []string, env []string) error {
	h, err := process.Start(command, args, process.Options{
		Dir:    r.Dir,
		Env:    env,
		Stdout: r.Stdout,
		Stderr: r.Stderr,
	})
	if err != nil {
		return err
	}

	select {
	case <-h.Done():
	case <-ctx.Done():
		_ = h.Kill()
		<-h.Done()
		return ctx.Err()
	}

	if code := h.ExitCode(); code != 0 {
		return errors.NewProcessError(
			fmt.Sprintf("%s exited with status %d", h, code), nil,
		).WithCommand(command)
	}
	return nil
}
