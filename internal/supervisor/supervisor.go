package supervisor

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/nextron/internal/bundler"
	"github.com/Iron-Ham/nextron/internal/config"
	"github.com/Iron-Ham/nextron/internal/errors"
	"github.com/Iron-Ham/nextron/internal/event"
	"github.com/Iron-Ham/nextron/internal/logging"
	"github.com/Iron-Ham/nextron/internal/process"
)

// Termination reasons reported in SupervisorTerminatedEvent.
const (
	ReasonContext      = "context"
	ReasonShutdown     = "shutdown"
	ReasonRendererExit = "renderer-exit"
	ReasonError        = "error"
)

// Supervisor drives one dev session.
type Supervisor struct {
	opts     config.BuildOptions
	compiler Compiler
	launcher Launcher
	bus      *event.Bus
	logger   *logging.Logger
	stdout   io.Writer
	stderr   io.Writer

	mu    sync.Mutex
	state state

	results    chan bundler.CompileResult
	shutdownCh chan struct{}
	done       chan struct{} // closed when teardown begins
	terminated chan struct{} // closed when teardown has finished

	started      atomic.Bool
	shutdownOnce sync.Once
	doneOnce     sync.Once
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithBus publishes lifecycle events on bus.
func WithBus(bus *event.Bus) Option {
	return func(s *Supervisor) {
		if bus != nil {
			s.bus = bus
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Supervisor) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOutput redirects the children's stdout and stderr. By default they
// share the supervisor's streams.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(s *Supervisor) {
		s.stdout = stdout
		s.stderr = stderr
	}
}

// New creates a Supervisor. Nothing is spawned until Run.
func New(opts config.BuildOptions, compiler Compiler, launcher Launcher, options ...Option) *Supervisor {
	s := &Supervisor{
		opts:       opts,
		compiler:   compiler,
		launcher:   launcher,
		bus:        event.NewBus(),
		logger:     logging.NopLogger(),
		results:    make(chan bundler.CompileResult),
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
		terminated: make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	s.logger = s.logger.WithComponent("supervisor")
	return s
}

// Bus returns the event bus lifecycle events are published on.
func (s *Supervisor) Bus() *event.Bus {
	return s.bus
}

// Phase returns the current lifecycle phase.
func (s *Supervisor) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.phase
}

// Snapshot returns a copy of the current session state.
func (s *Supervisor) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.snapshot()
}

// Shutdown asks the session to tear down. It returns immediately, may be
// called from any goroutine and any number of times. Use Terminated to wait.
func (s *Supervisor) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdownCh)
	})
}

// Terminated is closed once teardown has finished.
func (s *Supervisor) Terminated() <-chan struct{} {
	return s.terminated
}

// Run starts the session and blocks until it is terminated. It returns nil
// for every normal ending (context cancellation, Shutdown, renderer exit)
// and an error when the session could not be set up.
func (s *Supervisor) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.Wrap(errors.ErrSupervisorTerminated, "dev session already started")
	}

	select {
	case <-s.shutdownCh:
		s.teardown(ReasonShutdown)
		return nil
	case <-ctx.Done():
		s.teardown(ReasonContext)
		return nil
	default:
	}

	renderer, err := s.startRenderer()
	if err != nil {
		s.teardown(ReasonError)
		return err
	}

	if s.opts.RunOnly {
		if err := s.startInitialHost(); err != nil {
			s.teardown(ReasonError)
			return err
		}
	}

	delay := time.NewTimer(s.opts.StartupDelay)
	defer delay.Stop()
	delayC := delay.C

	for {
		select {
		case <-ctx.Done():
			s.teardown(ReasonContext)
			return nil

		case <-s.shutdownCh:
			s.teardown(ReasonShutdown)
			return nil

		case <-renderer.Done():
			code := renderer.ExitCode()
			s.logger.Info("renderer exited", "exit_code", code)
			s.publish(event.NewRendererExitedEvent(code))
			s.teardown(ReasonRendererExit)
			return nil

		case <-delayC:
			delayC = nil
			if err := s.startWatching(ctx); err != nil {
				s.teardown(ReasonError)
				return err
			}

		case res := <-s.results:
			s.handleResult(res)
		}
	}
}

func (s *Supervisor) processOptions(detached bool) process.Options {
	return process.Options{
		Dir:      s.opts.ProjectDir,
		Detached: detached,
		Stdout:   s.stdout,
		Stderr:   s.stderr,
	}
}

func (s *Supervisor) startRenderer() (Process, error) {
	args := s.opts.RendererArgs()

	s.mu.Lock()
	p, err := s.launcher.Start(s.opts.RendererCommand, args, s.processOptions(false))
	if err != nil {
		s.mu.Unlock()
		spawnErr := wrapSpawn(err, "renderer", s.opts.RendererCommand)
		s.logFailure("renderer failed to start", spawnErr)
		return nil, spawnErr
	}
	s.state.renderer = p
	events := []event.Event{s.setPhaseLocked(PhaseRendererStarting)}
	s.mu.Unlock()

	pid, _ := p.Pid()
	s.logger.Info("renderer started", "pid", pid, "command", s.opts.RendererCommand, "args", args)
	s.publish(append(events, event.NewRendererStartedEvent(pid, s.opts.RendererCommand, args))...)
	return p, nil
}

// startInitialHost starts the single run-only host. A failure here is a
// setup error.
func (s *Supervisor) startInitialHost() error {
	s.mu.Lock()
	events, err := s.startHostLocked(false)
	s.mu.Unlock()

	s.publish(events...)
	if err != nil {
		spawnErr := wrapSpawn(err, "host", s.opts.HostCommand)
		s.logFailure("host failed to start", spawnErr)
		return spawnErr
	}
	return nil
}

func (s *Supervisor) startWatching(ctx context.Context) error {
	handle, err := s.compiler.Watch(ctx, s.deliver)
	if err != nil {
		s.logFailure("failed to start watching host sources", err)
		return err
	}

	s.mu.Lock()
	s.state.watcher = handle
	next := PhaseAwaitingFirstCompile
	if s.opts.RunOnly {
		next = PhaseSteady
	}
	events := []event.Event{s.setPhaseLocked(next)}
	s.mu.Unlock()

	s.publish(events...)
	return nil
}

// deliver is the compile callback. It runs on the compiler's goroutine and
// gives up once teardown has begun.
func (s *Supervisor) deliver(res bundler.CompileResult) {
	select {
	case s.results <- res:
	case <-s.done:
	}
}

func (s *Supervisor) handleResult(res bundler.CompileResult) {
	s.mu.Lock()
	if s.state.shuttingDown {
		s.mu.Unlock()
		return
	}

	s.state.compiles++
	events := []event.Event{
		event.NewCompileFinishedEvent(res.OK, res.IsFirstCompile, res.Diagnostics, res.Warnings, res.Duration),
	}

	switch {
	case !res.OK:
		s.state.failedCompiles++
		s.logger.Warn("host bundle failed to compile",
			"diagnostics", len(res.Diagnostics),
			"detail", strings.Join(res.Diagnostics, "\n"))

	case s.opts.RunOnly:
		s.state.firstCompileDone = true
		s.logger.Debug("host bundle compiled in run-only mode", "duration_ms", res.Duration.Milliseconds())

	case !s.state.firstCompileDone:
		s.state.firstCompileDone = true
		started, err := s.startHostLocked(false)
		events = append(events, started...)
		events = append(events, s.setPhaseLocked(PhaseSteady))
		if err != nil {
			s.logFailure("host failed to start", contained(err, s.opts.HostCommand))
		}

	default:
		events = append(events, s.killHostLocked("restart")...)
		started, err := s.startHostLocked(true)
		events = append(events, started...)
		if err != nil {
			s.logFailure("host failed to restart", contained(err, s.opts.HostCommand))
		}
	}
	s.mu.Unlock()

	s.publish(events...)
}

// startHostLocked spawns a detached host. The caller must hold s.mu.
func (s *Supervisor) startHostLocked(restart bool) ([]event.Event, error) {
	args := s.opts.HostArgs()
	p, err := s.launcher.Start(s.opts.HostCommand, args, s.processOptions(true))
	if err != nil {
		s.state.host = nil
		return []event.Event{event.NewHostFailedEvent(s.opts.HostCommand, err)}, err
	}
	p.Unref()

	s.state.host = p
	s.state.hostStarts++

	pid, _ := p.Pid()
	s.logger.Info("host started", "pid", pid, "restart", restart, "args", args)
	return []event.Event{event.NewHostStartedEvent(pid, s.opts.HostCommand, args, restart)}, nil
}

// killHostLocked kills the current host if it is still running. The caller
// must hold s.mu.
func (s *Supervisor) killHostLocked(reason string) []event.Event {
	host := s.state.host
	if host == nil || !running(host) {
		return nil
	}

	pid, _ := host.Pid()
	if err := host.Kill(); err != nil {
		s.logger.Warn("failed to kill host", "pid", pid, "error", err.Error())
	}
	s.logger.Debug("host killed", "pid", pid, "reason", reason)
	return []event.Event{event.NewHostKilledEvent(pid, reason)}
}

// teardown stops the watcher, the host and the renderer, in that order.
// Only the first call has any effect.
func (s *Supervisor) teardown(reason string) {
	s.mu.Lock()
	if s.state.shuttingDown {
		s.mu.Unlock()
		return
	}
	s.state.shuttingDown = true
	events := []event.Event{s.setPhaseLocked(PhaseShuttingDown)}
	s.doneOnce.Do(func() { close(s.done) })

	if s.state.watcher != nil {
		if err := s.state.watcher.Stop(); err != nil {
			s.logger.Warn("failed to stop watcher", "error", err.Error())
		}
	}

	events = append(events, s.killHostLocked("teardown")...)

	if r := s.state.renderer; r != nil && running(r) {
		if err := r.Kill(); err != nil {
			s.logger.Warn("failed to kill renderer", "error", err.Error())
		}
	}

	events = append(events,
		s.setPhaseLocked(PhaseTerminated),
		event.NewSupervisorTerminatedEvent(reason),
	)
	snap := s.state.snapshot()
	s.mu.Unlock()

	s.logger.Info("dev session terminated",
		"reason", reason,
		"host_starts", snap.HostStarts,
		"compiles", snap.Compiles,
		"failed_compiles", snap.FailedCompiles)
	s.publish(events...)
	close(s.terminated)
}

// setPhaseLocked records a transition. The caller must hold s.mu.
func (s *Supervisor) setPhaseLocked(next Phase) event.Event {
	prev := s.state.phase
	s.state.phase = next
	s.logger.Debug("phase changed", "from", prev.String(), "to", next.String())
	return event.NewPhaseChangedEvent(prev.String(), next.String())
}

func (s *Supervisor) publish(events ...event.Event) {
	for _, e := range events {
		s.bus.Publish(e)
	}
}

// logFailure logs err at the level its severity calls for.
func (s *Supervisor) logFailure(msg string, err error) {
	severity := errors.GetSeverity(err)
	args := []any{"error", err.Error(), "severity", severity.String()}
	switch {
	case severity <= errors.SeverityInfo:
		s.logger.Info(msg, args...)
	case severity == errors.SeverityWarning:
		s.logger.Warn(msg, args...)
	default:
		s.logger.Error(msg, args...)
	}
}

// contained marks a host spawn failure during rebuilds as a warning. The
// session keeps running and the next good build tries again.
func contained(err error, command string) error {
	return wrapSpawn(err, "host", command).WithSeverity(errors.SeverityWarning)
}

func wrapSpawn(err error, name, command string) *errors.ProcessError {
	var procErr *errors.ProcessError
	if errors.As(err, &procErr) {
		return procErr.WithProcess(name)
	}
	return errors.NewProcessError("failed to start "+name, err).WithProcess(name).WithCommand(command)
}
