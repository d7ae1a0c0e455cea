// Package supervisor runs a development session of a two-process desktop
// application: the renderer dev server and the host process, rebuilt and
// restarted as its sources change.
//
// # Lifecycle
//
//	Init → RendererStarting → AwaitingFirstCompile → Steady → ShuttingDown → Terminated
//
// The renderer is spawned first. After the configured startup delay the
// host sources are compiled in watch mode, and every successful build
// replaces the running host with a fresh one. Failed builds only surface
// diagnostics. In run-only mode a single host is started right after the
// renderer and builds never touch it.
//
// The session ends on context cancellation, [Supervisor.Shutdown], or when
// the renderer exits for any reason. Teardown stops the watcher, kills the
// host and then the renderer, exactly once.
//
// # Concurrency
//
// [Supervisor.Run] is the single goroutine that owns the session state. The
// compiler hands results over an unbuffered channel; once teardown begins
// the handoff is abandoned so stopping the watcher cannot block. Lifecycle
// events are published on an [event.Bus] after the state lock is released.
package supervisor
