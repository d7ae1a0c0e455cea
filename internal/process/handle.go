package process

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/Iron-Ham/nextron/internal/errors"
)

// State is the lifecycle state of a [Handle].
type State int

const (
	// StateNotStarted is the zero value; Start has not succeeded yet.
	StateNotStarted State = iota
	// StateRunning means the child was spawned and has not been reaped.
	StateRunning
	// StateKilled means Kill was called while the child was running.
	StateKilled
	// StateExited means the child exited on its own.
	StateExited
)

// String returns a human-readable string for the state.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateKilled:
		return "killed"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Options configures how a child is spawned.
type Options struct {
	// Dir is the working directory of the child. Empty means the current one.
	Dir string

	// Env holds extra KEY=VALUE entries appended to the parent environment.
	Env []string

	// Detached places the child in its own process group.
	Detached bool

	// Stdin, Stdout and Stderr default to the parent's streams when nil.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Handle is a spawned child process.
type Handle struct {
	mu sync.Mutex

	cmd      *exec.Cmd
	command  string
	args     []string
	detached bool

	state    State
	unref    bool
	exitCode int
	waitErr  error
	done     chan struct{}
}

// Start spawns command with args and returns immediately.
// The returned error is a *errors.ProcessError matching errors.ErrSpawnFailed.
func Start(command string, args []string, opts Options) (*Handle, error) {
	cmd := exec.Command(command, args...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	cmd.Stdin = opts.Stdin
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	cmd.Stdout = opts.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = opts.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if opts.Detached {
		setDetached(cmd)
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.NewProcessError(
			fmt.Sprintf("failed to start %s", commandLine(command, args)),
			fmt.Errorf("%w: %w", errors.ErrSpawnFailed, err),
		).WithCommand(command)
	}

	h := &Handle{
		cmd:      cmd,
		command:  command,
		args:     append([]string(nil), args...),
		detached: opts.Detached,
		state:    StateRunning,
		exitCode: -1,
		done:     make(chan struct{}),
	}
	go h.reap()
	return h, nil
}

// reap waits for the child and records how it ended.
func (h *Handle) reap() {
	err := h.cmd.Wait()

	h.mu.Lock()
	h.waitErr = err
	if h.cmd.ProcessState != nil {
		h.exitCode = h.cmd.ProcessState.ExitCode()
	}
	if h.state == StateRunning {
		h.state = StateExited
	}
	h.mu.Unlock()

	close(h.done)
}

// Kill terminates the child with SIGTERM (the whole group when detached).
// Killing a handle that is not running is a no-op.
func (h *Handle) Kill() error {
	h.mu.Lock()
	if h.state != StateRunning {
		h.mu.Unlock()
		return nil
	}
	h.state = StateKilled
	proc := h.cmd.Process
	group := h.detached
	h.mu.Unlock()

	if err := terminate(proc, group); err != nil {
		return errors.NewProcessError("failed to kill process", err).WithCommand(h.command)
	}
	return nil
}

// Unref tags a detached child as not owned by the session's lifetime: the
// session may end without waiting for it. Nothing is waited on here; the
// tag is reported by Unreffed and the child is still killed explicitly on
// teardown. It has no effect on attached children.
func (h *Handle) Unref() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.detached {
		h.unref = true
	}
}

// Unreffed reports whether Unref took effect.
func (h *Handle) Unreffed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.unref
}

// Pid returns the OS process id and true once the child is spawned.
func (h *Handle) Pid() (int, bool) {
	if h == nil || h.cmd == nil || h.cmd.Process == nil {
		return 0, false
	}
	return h.cmd.Process.Pid, true
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Detached reports whether the child runs in its own process group.
func (h *Handle) Detached() bool {
	return h.detached
}

// Done is closed once the child has been reaped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// ExitCode returns the exit status, or -1 while running or when the child
// was ended by a signal.
func (h *Handle) ExitCode() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode
}

// Wait blocks until the child is reaped and returns the exit status.
func (h *Handle) Wait() int {
	<-h.done
	return h.ExitCode()
}

// Command returns the executable and arguments the child was started with.
func (h *Handle) Command() (string, []string) {
	return h.command, append([]string(nil), h.args...)
}

// String renders the command line, e.g. "next -p 8888 renderer".
func (h *Handle) String() string {
	return commandLine(h.command, h.args)
}

func commandLine(command string, args []string) string {
	if len(args) == 0 {
		return command
	}
	return command + " " + strings.Join(args, " ")
}
