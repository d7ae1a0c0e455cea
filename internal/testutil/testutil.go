// Package testutil provides testing utilities for nextron tests.
package testutil

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// ProjectOptions describes the files of a temporary desktop-app project.
type ProjectOptions struct {
	// TypeScript adds tsconfig.json and uses .ts sources.
	TypeScript bool
	// Preload adds main/preload.{js,ts}.
	Preload bool
	// Dependencies become package.json "dependencies".
	Dependencies map[string]string
	// Files holds extra files keyed by project-relative path.
	Files map[string]string
}

// SetupTestProject creates a temporary project with package.json, a renderer
// directory and a main process entry. The directory is removed when the
// test completes.
func SetupTestProject(t *testing.T, opts ProjectOptions) string {
	t.Helper()

	dir := t.TempDir()

	deps := opts.Dependencies
	if deps == nil {
		deps = map[string]string{}
	}
	pkg, err := json.MarshalIndent(map[string]any{
		"name":            "test-app",
		"version":         "1.0.0",
		"main":            "app/background.js",
		"dependencies":    deps,
		"devDependencies": map[string]string{"electron": "^30.0.0", "next": "^14.0.0"},
	}, "", "  ")
	if err != nil {
		t.Fatalf("failed to encode package.json: %v", err)
	}
	WriteFile(t, dir, "package.json", string(pkg))

	ext := ".js"
	if opts.TypeScript {
		ext = ".ts"
		WriteFile(t, dir, "tsconfig.json", `{"compilerOptions": {"target": "es2020", "module": "commonjs", "strict": true}}`)
	}

	WriteFile(t, dir, filepath.Join("main", "background"+ext),
		"import { app } from 'electron';\n\napp.whenReady().then(() => console.log('ready', process.argv[2]));\n")
	if opts.Preload {
		WriteFile(t, dir, filepath.Join("main", "preload"+ext), "console.log('preload');\n")
	}
	WriteFile(t, dir, filepath.Join("renderer", "pages", "index.jsx"),
		"export default function Home() { return null; }\n")

	for path, content := range opts.Files {
		WriteFile(t, dir, path, content)
	}

	return dir
}

// WriteFile writes content to dir/path, creating parent directories.
func WriteFile(t *testing.T, dir, path, content string) {
	t.Helper()

	fullPath := filepath.Join(dir, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
}

// SkipIfNoCommand skips the test if name is not on PATH.
func SkipIfNoCommand(t *testing.T, name string) {
	t.Helper()

	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not found in PATH, skipping test", name)
	}
}

// SkipIfNoGolangciLint skips the test if golangci-lint is not installed.
func SkipIfNoGolangciLint(t *testing.T) {
	SkipIfNoCommand(t, "golangci-lint")
}
