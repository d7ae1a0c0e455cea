// Package builder sequences a production build of a nextron project.
//
// A build runs four steps in order:
//
//  1. clean: remove app/ and dist/ (concurrently)
//  2. renderer: next build <rendererSrcDir>, emitting static assets into app/
//  3. host: a one-shot production bundle of the host sources into app/
//  4. package: electron-builder with the selected platform flags
//
// Packaging can be skipped. Every step publishes a [event.BuildStepEvent]
// when it starts and when it ends, which the CLI renders as status lines.
// External tools run through a [Runner] so tests never spawn real binaries.
package builder
