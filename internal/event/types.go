package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "host.started", "compile.finished")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypePhaseChanged         = "supervisor.phase"
	TypeSupervisorTerminated = "supervisor.terminated"
	TypeRendererStarted      = "renderer.started"
	TypeRendererExited       = "renderer.exited"
	TypeHostStarted          = "host.started"
	TypeHostKilled           = "host.killed"
	TypeHostFailed           = "host.failed"
	TypeCompileFinished      = "compile.finished"
	TypeBuildStep            = "build.step"
)

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Supervisor Events
// -----------------------------------------------------------------------------

// PhaseChangedEvent is emitted on every dev supervisor phase transition.
type PhaseChangedEvent struct {
	baseEvent
	From string
	To   string
}

// NewPhaseChangedEvent creates a PhaseChangedEvent.
func NewPhaseChangedEvent(from, to string) PhaseChangedEvent {
	return PhaseChangedEvent{
		baseEvent: newBaseEvent(TypePhaseChanged),
		From:      from,
		To:        to,
	}
}

// SupervisorTerminatedEvent is emitted once, after teardown has finished.
type SupervisorTerminatedEvent struct {
	baseEvent
	Reason string // "signal", "context", "shutdown", "renderer-exit", "error"
}

// NewSupervisorTerminatedEvent creates a SupervisorTerminatedEvent.
func NewSupervisorTerminatedEvent(reason string) SupervisorTerminatedEvent {
	return SupervisorTerminatedEvent{
		baseEvent: newBaseEvent(TypeSupervisorTerminated),
		Reason:    reason,
	}
}

// -----------------------------------------------------------------------------
// Process Events
// -----------------------------------------------------------------------------

// RendererStartedEvent is emitted after the renderer dev server is spawned.
type RendererStartedEvent struct {
	baseEvent
	Pid     int
	Command string
	Args    []string
}

// NewRendererStartedEvent creates a RendererStartedEvent.
func NewRendererStartedEvent(pid int, command string, args []string) RendererStartedEvent {
	return RendererStartedEvent{
		baseEvent: newBaseEvent(TypeRendererStarted),
		Pid:       pid,
		Command:   command,
		Args:      args,
	}
}

// RendererExitedEvent is emitted when the renderer exits on its own.
type RendererExitedEvent struct {
	baseEvent
	ExitCode int
}

// NewRendererExitedEvent creates a RendererExitedEvent.
func NewRendererExitedEvent(exitCode int) RendererExitedEvent {
	return RendererExitedEvent{
		baseEvent: newBaseEvent(TypeRendererExited),
		ExitCode:  exitCode,
	}
}

// HostStartedEvent is emitted each time a host process is spawned.
type HostStartedEvent struct {
	baseEvent
	Pid     int
	Command string
	Args    []string
	Restart bool // true when this start replaced a previous host
}

// NewHostStartedEvent creates a HostStartedEvent.
func NewHostStartedEvent(pid int, command string, args []string, restart bool) HostStartedEvent {
	return HostStartedEvent{
		baseEvent: newBaseEvent(TypeHostStarted),
		Pid:       pid,
		Command:   command,
		Args:      args,
		Restart:   restart,
	}
}

// HostKilledEvent is emitted when the supervisor kills a host process.
type HostKilledEvent struct {
	baseEvent
	Pid    int
	Reason string // "restart" or "teardown"
}

// NewHostKilledEvent creates a HostKilledEvent.
func NewHostKilledEvent(pid int, reason string) HostKilledEvent {
	return HostKilledEvent{
		baseEvent: newBaseEvent(TypeHostKilled),
		Pid:       pid,
		Reason:    reason,
	}
}

// HostFailedEvent is emitted when a host process could not be spawned.
type HostFailedEvent struct {
	baseEvent
	Command string
	Err     error
}

// NewHostFailedEvent creates a HostFailedEvent.
func NewHostFailedEvent(command string, err error) HostFailedEvent {
	return HostFailedEvent{
		baseEvent: newBaseEvent(TypeHostFailed),
		Command:   command,
		Err:       err,
	}
}

// -----------------------------------------------------------------------------
// Build Events
// -----------------------------------------------------------------------------

// CompileFinishedEvent is emitted for every host bundle build the dev
// supervisor consumes, successful or not.
type CompileFinishedEvent struct {
	baseEvent
	OK             bool
	IsFirstCompile bool
	Diagnostics    []string
	Warnings       []string
	Duration       time.Duration
}

// NewCompileFinishedEvent creates a CompileFinishedEvent.
func NewCompileFinishedEvent(ok, first bool, diagnostics, warnings []string, d time.Duration) CompileFinishedEvent {
	return CompileFinishedEvent{
		baseEvent:      newBaseEvent(TypeCompileFinished),
		OK:             ok,
		IsFirstCompile: first,
		Diagnostics:    diagnostics,
		Warnings:       warnings,
		Duration:       d,
	}
}

// StepStatus is the progress of a production build step.
type StepStatus int

const (
	StepStarted StepStatus = iota
	StepSucceeded
	StepFailed
	StepSkipped
)

// String returns a human-readable name for a step status.
func (s StepStatus) String() string {
	switch s {
	case StepStarted:
		return "started"
	case StepSucceeded:
		return "succeeded"
	case StepFailed:
		return "failed"
	case StepSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// BuildStepEvent is emitted by the production builder around each step.
type BuildStepEvent struct {
	baseEvent
	Step     string
	Status   StepStatus
	Duration time.Duration
	Err      error
}

// NewBuildStepEvent creates a BuildStepEvent.
func NewBuildStepEvent(step string, status StepStatus, d time.Duration, err error) BuildStepEvent {
	return BuildStepEvent{
		baseEvent: newBaseEvent(TypeBuildStep),
		Step:      step,
		Status:    status,
		Duration:  d,
		Err:       err,
	}
}
