// Package event provides a pub-sub event bus that decouples the dev
// supervisor and the production builder from whatever reports on them
// (the console printer, the debug log, tests).
//
// # Event Categories
//
// Supervisor:
//   - [PhaseChangedEvent]: "supervisor.phase"
//   - [SupervisorTerminatedEvent]: "supervisor.terminated"
//
// Processes:
//   - [RendererStartedEvent], [RendererExitedEvent]
//   - [HostStartedEvent], [HostKilledEvent], [HostFailedEvent]
//
// Builds:
//   - [CompileFinishedEvent]: one per host bundle rebuild
//   - [BuildStepEvent]: production pipeline progress
//
// # Thread Safety
//
// [Bus] is safe for concurrent use. Handlers are called synchronously on the
// publishing goroutine and a panicking handler does not prevent the others
// from running. Publishers must not hold their own locks while publishing.
//
// # Basic Usage
//
//	bus := event.NewBus()
//	bus.Subscribe(event.TypeHostStarted, func(e event.Event) {
//	    started := e.(event.HostStartedEvent)
//	    console.Info("Run main process: %s %s", started.Command, strings.Join(started.Args, " "))
//	})
package event
