// Package process spawns and tracks the child processes a dev session
// supervises: the renderer dev server and the host application.
//
// A [Handle] wraps os/exec with an explicit lifecycle ([State]), a reaper
// goroutine that records the exit code, and group-aware termination for
// detached children. Standard streams are inherited from the calling
// process unless [Options] overrides them.
//
// # Detached Children
//
// With Options.Detached the child runs in its own process group, so a
// Ctrl+C in the terminal does not reach it directly. [Handle.Kill] then
// signals the whole group, which also stops any helpers the child spawned.
//
//	h, err := process.Start("electron", []string{".", "8888"}, process.Options{
//	    Dir:      projectDir,
//	    Detached: true,
//	})
//	if err != nil {
//	    return err
//	}
//	h.Unref()
//	defer h.Kill()
//
// # Thread Safety
//
// [Handle] is safe for concurrent use.
package process
