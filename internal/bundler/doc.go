// Package bundler compiles the host process sources (main/background and the
// optional preload script) into app/ with esbuild, either once for a
// production build or continuously while a dev session runs.
//
// # Watch Mode
//
// [Compiler.Watch] performs the initial build, then rebuilds whenever files
// under the watched directories change. Bursts of file-system events (an
// editor saving several files, a git checkout) are coalesced by a debounce
// window before a rebuild starts. Every rebuild produces exactly one
// [CompileResult], delivered sequentially from a single goroutine.
//
// A failed build does not stop watching; its result carries the formatted
// diagnostics and nothing is written to the output directory.
//
//	c := bundler.New(cfg, bundler.WithLogger(logger))
//	w, err := c.Watch(ctx, func(r bundler.CompileResult) {
//	    if !r.OK {
//	        console.Diagnostics(r.Diagnostics)
//	    }
//	})
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
package bundler
