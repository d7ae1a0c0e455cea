package bundler

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/gobwas/glob"
)

// Mode selects development or production defaults.
type Mode int

const (
	// Development produces inline source maps and no minification.
	Development Mode = iota
	// Production minifies and emits linked source maps.
	Production
)

// String returns the NODE_ENV value for the mode.
func (m Mode) String() string {
	if m == Production {
		return "production"
	}
	return "development"
}

// DefaultDebounce is the quiet period after the last file-system event
// before a rebuild starts.
const DefaultDebounce = 100 * time.Millisecond

// DefaultTarget is the language level of the emitted bundle.
const DefaultTarget = "node18"

// DefaultResolveExtensions lists the extensions tried for extension-less imports.
var DefaultResolveExtensions = []string{".js", ".jsx", ".json", ".ts", ".tsx"}

// Entry is one bundle entry point. Name becomes the output file name
// (app/<Name>.js).
type Entry struct {
	Name string
	Path string
}

// Config describes a host bundle. It is produced by the config package and
// treated as opaque by the dev supervisor.
type Config struct {
	Mode       Mode
	ProjectDir string
	Entries    []Entry
	OutDir     string

	// External lists module specifiers left as runtime require() calls.
	External []string
	// Define maps identifiers to JavaScript expressions.
	Define    map[string]string
	Alias     map[string]string
	Loader    map[string]string
	Target    string
	Sourcemap string
	Minify    bool
	Tsconfig  string

	// WatchDirs are the directories watched for changes in watch mode.
	WatchDirs []string
	// Ignore holds glob patterns matched against paths relative to
	// ProjectDir and against base names.
	Ignore   []string
	Debounce time.Duration
}

// DefaultConfig returns the mode's defaults for a project rooted at projectDir.
// Entries and watch directories are left for the caller to fill in.
func DefaultConfig(projectDir string, mode Mode) Config {
	cfg := Config{
		Mode:       mode,
		ProjectDir: projectDir,
		OutDir:     "app",
		External:   []string{"electron"},
		Define: map[string]string{
			"process.env.NODE_ENV": fmt.Sprintf("%q", mode.String()),
		},
		Alias:    map[string]string{},
		Loader:   map[string]string{},
		Target:   DefaultTarget,
		Ignore:   []string{"node_modules", ".git", ".nextron", "app", "dist"},
		Debounce: DefaultDebounce,
	}

	switch mode {
	case Production:
		cfg.Sourcemap = "linked"
		cfg.Minify = true
		cfg.Define["process.env.DEBUG_PROD"] = `"false"`
		cfg.Define["process.env.START_MINIMIZED"] = `"false"`
		cfg.Define["process.type"] = `"browser"`
	default:
		cfg.Sourcemap = "inline"
	}
	return cfg
}

// Clone returns a deep copy so transforms cannot alias the caller's maps.
func (c Config) Clone() Config {
	out := c
	out.Entries = append([]Entry(nil), c.Entries...)
	out.External = append([]string(nil), c.External...)
	out.WatchDirs = append([]string(nil), c.WatchDirs...)
	out.Ignore = append([]string(nil), c.Ignore...)
	out.Define = cloneMap(c.Define)
	out.Alias = cloneMap(c.Alias)
	out.Loader = cloneMap(c.Loader)
	return out
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if len(c.Entries) == 0 {
		return fmt.Errorf("no entry points configured")
	}
	if _, err := ParseSourcemap(c.Sourcemap); err != nil {
		return err
	}
	if _, _, err := ParseTarget(c.Target); err != nil {
		return err
	}
	for ext, name := range c.Loader {
		if _, err := ParseLoader(ext, name); err != nil {
			return err
		}
	}
	if _, err := compileGlobs(c.Ignore); err != nil {
		return err
	}
	return nil
}

// BuildOptions translates the configuration into esbuild options.
func (c Config) BuildOptions() (api.BuildOptions, error) {
	if err := c.Validate(); err != nil {
		return api.BuildOptions{}, err
	}

	sourcemap, _ := ParseSourcemap(c.Sourcemap)
	target, engines, _ := ParseTarget(c.Target)

	loader := make(map[string]api.Loader, len(c.Loader))
	for ext, name := range c.Loader {
		loader[ext], _ = ParseLoader(ext, name)
	}

	entries := make([]api.EntryPoint, 0, len(c.Entries))
	for _, e := range c.Entries {
		entries = append(entries, api.EntryPoint{
			InputPath:  c.abs(e.Path),
			OutputPath: e.Name,
		})
	}

	external := append([]string(nil), c.External...)
	sort.Strings(external)

	opts := api.BuildOptions{
		AbsWorkingDir:       c.ProjectDir,
		EntryPointsAdvanced: entries,
		Outdir:              c.abs(c.OutDir),
		Bundle:              true,
		Platform:            api.PlatformNode,
		Format:              api.FormatCommonJS,
		Target:              target,
		Engines:             engines,
		External:            external,
		Define:              cloneMap(c.Define),
		Alias:               cloneMap(c.Alias),
		Loader:              loader,
		ResolveExtensions:   DefaultResolveExtensions,
		Sourcemap:           sourcemap,
		MinifyWhitespace:    c.Minify,
		MinifyIdentifiers:   c.Minify,
		MinifySyntax:        c.Minify,
		Write:               false,
		LogLevel:            api.LogLevelSilent,
	}
	if c.Tsconfig != "" {
		opts.Tsconfig = c.abs(c.Tsconfig)
	}
	return opts, nil
}

func (c Config) abs(p string) string {
	if filepath.IsAbs(p) || c.ProjectDir == "" {
		return p
	}
	return filepath.Join(c.ProjectDir, p)
}

var sourcemaps = map[string]api.SourceMap{
	"none":     api.SourceMapNone,
	"inline":   api.SourceMapInline,
	"linked":   api.SourceMapLinked,
	"external": api.SourceMapExternal,
	"both":     api.SourceMapInlineAndExternal,
}

// ValidSourcemaps returns the accepted sourcemap settings.
func ValidSourcemaps() []string {
	return sortedKeys(sourcemaps)
}

// ParseSourcemap converts a sourcemap setting. Empty means none.
func ParseSourcemap(s string) (api.SourceMap, error) {
	if s == "" {
		return api.SourceMapNone, nil
	}
	sm, ok := sourcemaps[strings.ToLower(s)]
	if !ok {
		return api.SourceMapNone, fmt.Errorf("invalid sourcemap %q (valid: %s)", s, strings.Join(ValidSourcemaps(), ", "))
	}
	return sm, nil
}

var loaders = map[string]api.Loader{
	"js":      api.LoaderJS,
	"jsx":     api.LoaderJSX,
	"ts":      api.LoaderTS,
	"tsx":     api.LoaderTSX,
	"json":    api.LoaderJSON,
	"text":    api.LoaderText,
	"base64":  api.LoaderBase64,
	"binary":  api.LoaderBinary,
	"dataurl": api.LoaderDataURL,
	"file":    api.LoaderFile,
	"copy":    api.LoaderCopy,
	"empty":   api.LoaderEmpty,
	"css":     api.LoaderCSS,
}

// ValidLoaders returns the accepted loader names.
func ValidLoaders() []string {
	return sortedKeys(loaders)
}

// ParseLoader converts a loader assignment such as ".node" = "file".
func ParseLoader(ext, name string) (api.Loader, error) {
	if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
		return api.LoaderNone, fmt.Errorf("invalid loader extension %q (must start with '.')", ext)
	}
	l, ok := loaders[strings.ToLower(name)]
	if !ok {
		return api.LoaderNone, fmt.Errorf("invalid loader %q for %s (valid: %s)", name, ext, strings.Join(ValidLoaders(), ", "))
	}
	return l, nil
}

var targets = map[string]api.Target{
	"esnext": api.ESNext,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
}

// ParseTarget converts a target such as "es2020" or "node18.17".
// Node targets are expressed as engine constraints.
func ParseTarget(s string) (api.Target, []api.Engine, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return api.ESNext, nil, nil
	}
	if t, ok := targets[s]; ok {
		return t, nil, nil
	}
	if version, ok := strings.CutPrefix(s, "node"); ok && version != "" && strings.Trim(version, "0123456789.") == "" {
		return api.ESNext, []api.Engine{{Name: api.EngineNode, Version: version}}, nil
	}
	return api.ESNext, nil, fmt.Errorf("invalid target %q (use esnext, es2015-es2022 or nodeN)", s)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// compileGlobs compiles ignore patterns with '/' as the separator.
func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		if err := checkBalanced(p); err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// checkBalanced rejects unterminated {...} alternations and [...] classes,
// which glob.Compile accepts silently.
func checkBalanced(pattern string) error {
	braces, inClass := 0, false
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; {
		case c == '\\':
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '{':
			braces++
		case c == '}':
			if braces == 0 {
				return fmt.Errorf("unexpected '}' at offset %d", i)
			}
			braces--
		}
	}
	if inClass {
		return fmt.Errorf("unterminated character class")
	}
	if braces > 0 {
		return fmt.Errorf("unterminated alternation")
	}
	return nil
}

// ValidateGlob reports whether pattern is a valid ignore pattern.
func ValidateGlob(pattern string) error {
	_, err := compileGlobs([]string{pattern})
	return err
}
